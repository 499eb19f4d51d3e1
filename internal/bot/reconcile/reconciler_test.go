package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/giatha0/basee/internal/bot/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFetcher struct {
	calls   int
	errs    []error // error per attempt, nil means success
	receipt *types.Receipt
}

func (f *fakeFetcher) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	idx := f.calls
	f.calls++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return nil, f.errs[idx]
	}
	return f.receipt, nil
}

func addressTopic(addr string) common.Hash {
	return common.BytesToHash(common.HexToAddress(addr).Bytes())
}

func transferLog(token, from, to string) *types.Log {
	return &types.Log{
		Address: common.HexToAddress(token),
		Topics: []common.Hash{
			transferTopic,
			addressTopic(from),
			addressTopic(to),
		},
	}
}

func tokenActivity(n int) []model.Transfer {
	var out []model.Transfer
	for i := 0; i < n; i++ {
		out = append(out, model.Transfer{Category: model.CategoryToken})
	}
	return out
}

func TestReconcileSkipsFetchWithTwoTokenTransfers(t *testing.T) {
	fetcher := &fakeFetcher{receipt: &types.Receipt{}}
	r := New(fetcher, zap.NewNop())

	activity := tokenActivity(2)
	got := r.Reconcile(context.Background(), "0xhash", activity)

	assert.Equal(t, activity, got)
	assert.Equal(t, 0, fetcher.calls)
}

func TestReconcileAppendsDecodedTransfers(t *testing.T) {
	fetcher := &fakeFetcher{
		receipt: &types.Receipt{Logs: []*types.Log{
			transferLog("0x1111111111111111111111111111111111111111",
				"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
				"0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
			// Unrelated log, wrong topic0.
			{Address: common.HexToAddress("0x2222222222222222222222222222222222222222"),
				Topics: []common.Hash{common.HexToHash("0x01"), addressTopic("0xaa"), addressTopic("0xbb")}},
			// Transfer topic but only 2 topics.
			{Address: common.HexToAddress("0x3333333333333333333333333333333333333333"),
				Topics: []common.Hash{transferTopic, addressTopic("0xaa")}},
		}},
	}
	r := New(fetcher, zap.NewNop())

	activity := tokenActivity(1)
	got := r.Reconcile(context.Background(), "0xhash", activity)

	require.Len(t, got, 2)
	decoded := got[1]
	assert.Equal(t, model.CategoryToken, decoded.Category)
	assert.Equal(t, common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa").Hex(), decoded.FromAddress)
	assert.Equal(t, common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb").Hex(), decoded.ToAddress)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", decoded.ContractAddress())
	assert.Equal(t, 1, fetcher.calls)
}

func TestReconcileRetriesOnceThenSucceeds(t *testing.T) {
	fetcher := &fakeFetcher{
		errs: []error{errors.New("rpc down")},
		receipt: &types.Receipt{Logs: []*types.Log{
			transferLog("0x1111111111111111111111111111111111111111",
				"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
				"0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
		}},
	}
	r := New(fetcher, zap.NewNop())

	got := r.Reconcile(context.Background(), "0xhash", tokenActivity(0))

	assert.Equal(t, 2, fetcher.calls)
	assert.Len(t, got, 1)
}

func TestReconcileDegradesAfterSingleRetry(t *testing.T) {
	fetcher := &fakeFetcher{
		errs: []error{errors.New("rpc down"), errors.New("still down")},
	}
	r := New(fetcher, zap.NewNop())

	activity := tokenActivity(1)
	got := r.Reconcile(context.Background(), "0xhash", activity)

	// Exactly one retry, then the webhook data is used unchanged.
	assert.Equal(t, 2, fetcher.calls)
	assert.Equal(t, activity, got)
}

func TestReconcileEmptyReceiptLeavesActivityUnchanged(t *testing.T) {
	fetcher := &fakeFetcher{receipt: &types.Receipt{}}
	r := New(fetcher, zap.NewNop())

	activity := tokenActivity(1)
	got := r.Reconcile(context.Background(), "0xhash", activity)

	assert.Equal(t, activity, got)
}
