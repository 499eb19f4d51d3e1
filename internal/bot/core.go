package bot

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/giatha0/basee/internal/bot/classify"
	"github.com/giatha0/basee/internal/bot/config"
	"github.com/giatha0/basee/internal/bot/dedup"
	"github.com/giatha0/basee/internal/bot/dispatcher"
	"github.com/giatha0/basee/internal/bot/executor"
	"github.com/giatha0/basee/internal/bot/monitor"
	"github.com/giatha0/basee/internal/bot/reconcile"
	"github.com/giatha0/basee/internal/bot/wallet"
	"github.com/giatha0/basee/pkg/evm_client"
	"github.com/giatha0/basee/pkg/zerox"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Core owns the bot's collaborators and lifecycle: the chain client, the
// aggregator client, the pipeline components and the webhook HTTP server.
type Core struct {
	cfg      config.Config
	tl       *zap.Logger
	wallet   *wallet.Wallet
	server   *http.Server
	executor *executor.Executor
	metrics  *monitor.MetricsServer
}

func New(cfg config.Config, tl *zap.Logger) *Core {
	node := evm_client.Init(cfg.Chain.RPCURL)

	// Sanity check the node against the configured chain before trading on it.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if chainID, err := node.ChainID(ctx); err != nil {
		tl.Warn("Could not verify node chain id", zap.Error(err))
	} else if chainID.Cmp(big.NewInt(cfg.Chain.ChainID)) != 0 {
		panic(fmt.Sprintf("node chain id %s does not match configured chain id %d", chainID, cfg.Chain.ChainID))
	}

	w, err := wallet.New(cfg.Wallet.PrivateKey, big.NewInt(cfg.Chain.ChainID))
	if err != nil {
		panic(fmt.Sprintf("init wallet error: %v", err))
	}

	zx := zerox.NewClient(cfg.Zerox, tl)

	exec, err := executor.New(cfg, zx, node, w, tl)
	if err != nil {
		panic(fmt.Sprintf("init executor error: %v", err))
	}

	dedupCache := dedup.New(time.Duration(cfg.Trade.DedupTTLSeconds) * time.Second)
	reconciler := reconcile.New(node, tl)
	classifier := classify.New(cfg.Trade.TargetWallet, cfg.Trade.Blacklist())

	disp := dispatcher.New(cfg, w.Address().Hex(), dedupCache, reconciler, classifier, exec, tl)

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: disp.Router(),
	}

	return &Core{
		cfg:      cfg,
		tl:       tl,
		wallet:   w,
		server:   server,
		executor: exec,
		metrics:  monitor.NewMetricsServer(cfg.Monitor),
	}
}

func (c *Core) Start(ctx context.Context) {
	c.logBanner()

	if c.metrics != nil {
		c.metrics.Run()
	}

	go func() {
		c.tl.Info("🚀 Webhook server listening", zap.String("addr", c.server.Addr))
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.tl.Error("Webhook server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	c.tl.Info("Shutting down bot due to context cancellation...")
}

func (c *Core) Stop(ctx context.Context) {
	c.tl.Info("Stopping bot core...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.server.Shutdown(shutdownCtx); err != nil {
		c.tl.Warn("Webhook server shutdown failed", zap.Error(err))
	}

	c.executor.Stop()

	if c.metrics != nil {
		_ = c.metrics.Stop(ctx)
	}

	c.tl.Info("Bot core stopped.")
}

func (c *Core) logBanner() {
	slippage := decimal.NewFromInt(int64(c.cfg.Trade.SlippageBps)).Div(decimal.NewFromInt(100))
	maxFeeGwei := weiToGwei(c.cfg.Trade.MaxFeePerGas)
	priorityGwei := weiToGwei(c.cfg.Trade.MaxPriorityFee)

	c.tl.Info("🤖 Copy trade bot starting...",
		zap.String("monitoring", c.cfg.Trade.TargetWallet),
		zap.String("wallet", c.wallet.Address().Hex()),
		zap.String("buy_amount_eth", c.cfg.Trade.BuyAmountETH),
		zap.String("slippage_pct", slippage.String()),
		zap.String("max_fee_gwei", maxFeeGwei),
		zap.String("priority_fee_gwei", priorityGwei),
	)
}

func weiToGwei(wei string) string {
	d, err := decimal.NewFromString(wei)
	if err != nil {
		return wei
	}
	return d.Div(decimal.New(1, 9)).String()
}
