package executor

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/giatha0/basee/internal/bot/config"
	"github.com/giatha0/basee/internal/bot/model"
	"github.com/giatha0/basee/internal/bot/monitor"
	"github.com/giatha0/basee/internal/bot/wallet"
	"github.com/giatha0/basee/pkg/zerox"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Well-known throwaway dev key, holds nothing anywhere.
const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

type fakeQuoter struct {
	req   zerox.QuoteRequest
	quote *zerox.Quote
	err   error
}

func (f *fakeQuoter) GetQuote(ctx context.Context, req zerox.QuoteRequest) (*zerox.Quote, error) {
	f.req = req
	return f.quote, f.err
}

type fakeNode struct {
	mu          sync.Mutex
	nonce       uint64
	sendErr     error
	sent        *types.Transaction
	receipt     *types.Receipt
	receiptErrs int // failures before the receipt appears
}

func (f *fakeNode) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeNode) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = tx
	return nil
}

func (f *fakeNode) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.receiptErrs > 0 {
		f.receiptErrs--
		return nil, errors.New("not found")
	}
	if f.receipt == nil {
		return nil, errors.New("not found")
	}
	return f.receipt, nil
}

func (f *fakeNode) sentTx() *types.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent
}

func testConfig() config.Config {
	return config.Config{
		Chain: config.ChainConfig{ChainID: 8453, ExplorerURL: "https://basescan.org"},
		Trade: config.TradeConfig{
			BuyAmountETH:   "0.0001",
			SlippageBps:    5000,
			MaxFeePerGas:   "200000000",
			MaxPriorityFee: "50000000",
		},
		Zerox: config.ZeroxConfig{Timeout: 3},
	}
}

func testQuote() *zerox.Quote {
	return &zerox.Quote{
		LiquidityAvailable: true,
		Transaction: zerox.QuoteTransaction{
			To:    "0xDef1C0ded9bec7F1a1670819833240f027b25EfF",
			Data:  "0xdeadbeef",
			Gas:   "100000",
			Value: "100000000000000",
		},
	}
}

func newTestExecutor(t *testing.T, quoter Quoter, node Node) *Executor {
	t.Helper()
	w, err := wallet.New(testKey, big.NewInt(8453))
	require.NoError(t, err)

	e, err := New(testConfig(), quoter, node, w, zap.NewNop())
	require.NoError(t, err)
	e.confirmPoll = 10 * time.Millisecond
	return e
}

func swapCandidate() *model.SwapInfo {
	return &model.SwapInfo{
		TokenIn:        "BEEF",
		TokenInAddress: "0xbeef000000000000000000000000000000000002",
	}
}

func TestExecuteBuildsAndBroadcasts(t *testing.T) {
	quoter := &fakeQuoter{quote: testQuote()}
	node := &fakeNode{nonce: 7}
	e := newTestExecutor(t, quoter, node)
	defer e.Stop()

	hash, err := e.Execute(context.Background(), swapCandidate())
	require.NoError(t, err)
	assert.NotEqual(t, common.Hash{}, hash)

	// Quote request sells the fixed native budget for the candidate token.
	assert.Equal(t, zerox.NativeETH, quoter.req.SellToken)
	assert.Equal(t, "0xbeef000000000000000000000000000000000002", quoter.req.BuyToken)
	assert.Equal(t, "100000000000000", quoter.req.SellAmount) // 0.0001 ETH in wei
	assert.Equal(t, 5000, quoter.req.SlippageBps)
	assert.Equal(t, int64(8453), quoter.req.ChainID)

	tx := node.sentTx()
	require.NotNil(t, tx)
	assert.Equal(t, uint64(120000), tx.Gas()) // quoted 100000 + 20% margin
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, big.NewInt(200000000), tx.GasFeeCap())
	assert.Equal(t, big.NewInt(50000000), tx.GasTipCap())
	assert.Equal(t, big.NewInt(100000000000000), tx.Value())
	assert.Equal(t, common.HexToAddress("0xDef1C0ded9bec7F1a1670819833240f027b25EfF"), *tx.To())
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, tx.Data())
	assert.Equal(t, types.DynamicFeeTxType, int(tx.Type()))
	assert.Equal(t, hash, tx.Hash())
}

func TestExecuteQuoteFailure(t *testing.T) {
	quoter := &fakeQuoter{err: errors.New("aggregator unreachable")}
	node := &fakeNode{}
	e := newTestExecutor(t, quoter, node)
	defer e.Stop()

	_, err := e.Execute(context.Background(), swapCandidate())
	require.Error(t, err)

	var qe *QuoteError
	assert.ErrorAs(t, err, &qe)
	assert.Nil(t, node.sentTx())
}

func TestExecuteBroadcastFailure(t *testing.T) {
	quoter := &fakeQuoter{quote: testQuote()}
	node := &fakeNode{sendErr: errors.New("nonce too low")}
	e := newTestExecutor(t, quoter, node)
	defer e.Stop()

	_, err := e.Execute(context.Background(), swapCandidate())
	require.Error(t, err)

	var be *BroadcastError
	assert.ErrorAs(t, err, &be)
}

func TestExecuteBadQuoteCalldata(t *testing.T) {
	quote := testQuote()
	quote.Transaction.Data = "not-hex"
	quoter := &fakeQuoter{quote: quote}
	e := newTestExecutor(t, quoter, &fakeNode{})
	defer e.Stop()

	_, err := e.Execute(context.Background(), swapCandidate())

	var be *BroadcastError
	assert.ErrorAs(t, err, &be)
}

func TestConfirmationWatcherResolves(t *testing.T) {
	quoter := &fakeQuoter{quote: testQuote()}
	node := &fakeNode{
		receiptErrs: 2, // pending for the first polls
		receipt: &types.Receipt{
			Status:      types.ReceiptStatusSuccessful,
			BlockNumber: big.NewInt(123),
		},
	}
	e := newTestExecutor(t, quoter, node)
	defer e.Stop()

	before := testutil.ToFloat64(monitor.TradesConfirmed)

	_, err := e.Execute(context.Background(), swapCandidate())
	require.NoError(t, err)

	// The detached watcher keeps polling past the pending attempts and then
	// reports the confirmation.
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(monitor.TradesConfirmed) >= before+1
	}, 2*time.Second, 10*time.Millisecond)
}
