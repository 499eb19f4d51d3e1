package executor

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/giatha0/basee/internal/bot/config"
	"github.com/giatha0/basee/internal/bot/model"
	"github.com/giatha0/basee/internal/bot/monitor"
	"github.com/giatha0/basee/internal/bot/wallet"
	"github.com/giatha0/basee/pkg/zerox"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

const (
	gasMarginNum = 120 // quoted gas limit gets a 20% safety margin
	gasMarginDen = 100

	confirmPollInterval = 2 * time.Second
)

// Quoter is the slice of the aggregator client the executor needs.
type Quoter interface {
	GetQuote(ctx context.Context, req zerox.QuoteRequest) (*zerox.Quote, error)
}

// Node is the slice of the chain client the executor needs.
type Node interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Executor replicates a classified swap: quote from the aggregator, build an
// EIP-1559 funding transaction with flat configured fees, sign, broadcast,
// then track confirmation in the background. Trades must queue fast, not
// cheap, hence the flat-fee policy over dynamic estimation.
type Executor struct {
	chainID      *big.Int
	sellAmount   *big.Int // wei, fixed per trade
	slippageBps  int
	maxFeePerGas *big.Int
	maxPriority  *big.Int
	quoteTimeout time.Duration
	explorerURL  string

	quoter Quoter
	node   Node
	wallet *wallet.Wallet
	tl     *zap.Logger

	confirmPoll time.Duration

	watchCtx    context.Context
	watchCancel context.CancelFunc
	watchers    conc.WaitGroup
}

func New(cfg config.Config, quoter Quoter, node Node, w *wallet.Wallet, logger *zap.Logger) (*Executor, error) {
	buyAmount, err := decimal.NewFromString(cfg.Trade.BuyAmountETH)
	if err != nil {
		return nil, fmt.Errorf("parse buy_amount_eth %q: %w", cfg.Trade.BuyAmountETH, err)
	}
	sellAmount := buyAmount.Mul(decimal.New(1, 18)).BigInt()

	maxFee, ok := new(big.Int).SetString(cfg.Trade.MaxFeePerGas, 10)
	if !ok {
		return nil, fmt.Errorf("parse max_fee_per_gas %q", cfg.Trade.MaxFeePerGas)
	}
	maxPriority, ok := new(big.Int).SetString(cfg.Trade.MaxPriorityFee, 10)
	if !ok {
		return nil, fmt.Errorf("parse max_priority_fee %q", cfg.Trade.MaxPriorityFee)
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())

	return &Executor{
		chainID:      big.NewInt(cfg.Chain.ChainID),
		sellAmount:   sellAmount,
		slippageBps:  cfg.Trade.SlippageBps,
		maxFeePerGas: maxFee,
		maxPriority:  maxPriority,
		quoteTimeout: time.Duration(cfg.Zerox.Timeout) * time.Second,
		explorerURL:  cfg.Chain.ExplorerURL,
		quoter:       quoter,
		node:         node,
		wallet:       w,
		tl:           logger,
		confirmPoll:  confirmPollInterval,
		watchCtx:     watchCtx,
		watchCancel:  watchCancel,
	}, nil
}

// Execute buys swap.TokenInAddress with the fixed budget and returns the
// broadcast hash as soon as the node accepts the transaction. Confirmation is
// tracked in a detached goroutine and never blocks the caller.
func (e *Executor) Execute(ctx context.Context, swap *model.SwapInfo) (common.Hash, error) {
	quote, err := e.fetchQuote(ctx, swap.TokenInAddress)
	if err != nil {
		monitor.TradesFailed.WithLabelValues("quote").Inc()
		return common.Hash{}, &QuoteError{Err: err}
	}

	signed, err := e.buildAndSign(ctx, quote)
	if err != nil {
		monitor.TradesFailed.WithLabelValues("broadcast").Inc()
		return common.Hash{}, &BroadcastError{Err: err}
	}

	if err := e.node.SendTransaction(ctx, signed); err != nil {
		monitor.TradesFailed.WithLabelValues("broadcast").Inc()
		return common.Hash{}, &BroadcastError{Err: err}
	}

	hash := signed.Hash()
	monitor.TradesSent.Inc()
	e.tl.Info("🚀 Copy trade broadcast",
		zap.String("token", swap.TokenInAddress),
		zap.String("tx", fmt.Sprintf("%s/tx/%s", e.explorerURL, hash.Hex())))

	e.watchers.Go(func() {
		e.awaitConfirmation(hash)
	})

	return hash, nil
}

func (e *Executor) fetchQuote(ctx context.Context, buyToken string) (*zerox.Quote, error) {
	quoteCtx, cancel := context.WithTimeout(ctx, e.quoteTimeout)
	defer cancel()

	start := time.Now()
	quote, err := e.quoter.GetQuote(quoteCtx, zerox.QuoteRequest{
		ChainID:     e.chainID.Int64(),
		SellToken:   zerox.NativeETH,
		BuyToken:    buyToken,
		SellAmount:  e.sellAmount.String(),
		Taker:       e.wallet.Address().Hex(),
		SlippageBps: e.slippageBps,
	})
	monitor.QuoteDuration.Observe(time.Since(start).Seconds())
	return quote, err
}

func (e *Executor) buildAndSign(ctx context.Context, quote *zerox.Quote) (*types.Transaction, error) {
	nonce, err := e.node.PendingNonceAt(ctx, e.wallet.Address())
	if err != nil {
		return nil, fmt.Errorf("fetch nonce: %w", err)
	}

	data, err := hexutil.Decode(quote.Transaction.Data)
	if err != nil {
		return nil, fmt.Errorf("decode quote calldata: %w", err)
	}

	gas, err := strconv.ParseUint(quote.Transaction.Gas, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse quote gas %q: %w", quote.Transaction.Gas, err)
	}
	gasLimit := gas * gasMarginNum / gasMarginDen

	value := new(big.Int)
	if quote.Transaction.Value != "" {
		if _, ok := value.SetString(quote.Transaction.Value, 10); !ok {
			return nil, fmt.Errorf("parse quote value %q", quote.Transaction.Value)
		}
	}

	to := common.HexToAddress(quote.Transaction.To)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   e.chainID,
		Nonce:     nonce,
		GasTipCap: e.maxPriority,
		GasFeeCap: e.maxFeePerGas,
		Gas:       gasLimit,
		To:        &to,
		Value:     value,
		Data:      data,
	})

	signed, err := e.wallet.SignTx(tx)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}
	return signed, nil
}

// awaitConfirmation polls for the receipt until the trade is mined or the
// executor shuts down. Failure here only affects logging, never future
// trading decisions.
func (e *Executor) awaitConfirmation(hash common.Hash) {
	ticker := time.NewTicker(e.confirmPoll)
	defer ticker.Stop()

	for {
		select {
		case <-e.watchCtx.Done():
			return
		case <-ticker.C:
		}

		receipt, err := e.node.TransactionReceipt(e.watchCtx, hash)
		if err != nil {
			continue // not mined yet
		}

		if receipt.Status == types.ReceiptStatusSuccessful {
			monitor.TradesConfirmed.Inc()
			e.tl.Info("✅ Trade confirmed",
				zap.String("tx", hash.Hex()),
				zap.Uint64("block", receipt.BlockNumber.Uint64()))
		} else {
			monitor.TradesReverted.Inc()
			e.tl.Error("⚠️ Trade reverted on chain",
				zap.String("tx", hash.Hex()),
				zap.Uint64("block", receipt.BlockNumber.Uint64()))
		}
		return
	}
}

// Stop cancels outstanding confirmation watchers and waits for them to exit.
func (e *Executor) Stop() {
	e.watchCancel()
	e.watchers.WaitAndRecover()
}
