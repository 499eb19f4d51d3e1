package dedup

import (
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

const DefaultTTL = 60 * time.Second

// Cache remembers recently processed transaction hashes so at-least-once
// webhook delivery never triggers the pipeline twice for the same tx. Only
// Admit is exposed; there is deliberately no separate lookup to keep
// check-then-act races impossible for callers.
type Cache struct {
	store *cache.Cache
	ttl   time.Duration
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		store: cache.New(ttl, time.Minute),
		ttl:   ttl,
	}
}

// Admit registers txHash with a fresh TTL and returns true iff it was not
// already present and unexpired. go-cache's Add is a mutex-guarded
// check-and-insert, so concurrent webhooks for the same tx race safely: at
// most one wins.
func (c *Cache) Admit(txHash string) bool {
	key := strings.ToLower(txHash)
	return c.store.Add(key, struct{}{}, c.ttl) == nil
}
