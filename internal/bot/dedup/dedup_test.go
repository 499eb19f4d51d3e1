package dedup

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAdmitOnceWithinTTL(t *testing.T) {
	c := New(time.Minute)

	assert.True(t, c.Admit("0xabc"))
	for i := 0; i < 10; i++ {
		assert.False(t, c.Admit("0xabc"))
	}
	assert.True(t, c.Admit("0xdef"))
}

func TestAdmitCaseInsensitive(t *testing.T) {
	c := New(time.Minute)

	assert.True(t, c.Admit("0xABCDEF"))
	assert.False(t, c.Admit("0xabcdef"))
}

func TestAdmitAgainAfterExpiry(t *testing.T) {
	c := New(50 * time.Millisecond)

	assert.True(t, c.Admit("0xabc"))
	assert.False(t, c.Admit("0xabc"))

	time.Sleep(80 * time.Millisecond)
	assert.True(t, c.Admit("0xabc"))
}

func TestAdmitConcurrent(t *testing.T) {
	c := New(time.Minute)

	var admitted int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Admit("0xsame") {
				atomic.AddInt64(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), admitted)
}
