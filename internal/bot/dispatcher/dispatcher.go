package dispatcher

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	"github.com/giatha0/basee/internal/bot/classify"
	"github.com/giatha0/basee/internal/bot/config"
	"github.com/giatha0/basee/internal/bot/model"
	"github.com/giatha0/basee/internal/bot/monitor"
	"github.com/giatha0/basee/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Admitter gates duplicate notifications. Only the atomic admit is visible
// here, never a raw lookup.
type Admitter interface {
	Admit(txHash string) bool
}

type Reconciler interface {
	Reconcile(ctx context.Context, txHash string, activity []model.Transfer) []model.Transfer
}

type Classifier interface {
	Classify(activity []model.Transfer) (*model.SwapInfo, classify.Stats)
}

type Trader interface {
	Execute(ctx context.Context, swap *model.SwapInfo) (common.Hash, error)
}

// Dispatcher drives the per-notification pipeline:
// authenticate -> acknowledge -> dedupe -> reconcile -> classify -> execute.
// It owns no state beyond wiring; the dedup cache is the only shared mutable
// resource and lives behind Admitter.
type Dispatcher struct {
	network     string
	signingKey  string
	target      string
	walletAddr  string
	explorerURL string

	dedup      Admitter
	reconciler Reconciler
	classifier Classifier
	trader     Trader
	tl         *zap.Logger
}

func New(cfg config.Config, walletAddr string, dedup Admitter, reconciler Reconciler, classifier Classifier, trader Trader, tl *zap.Logger) *Dispatcher {
	return &Dispatcher{
		network:     cfg.Chain.Network,
		signingKey:  cfg.Webhook.SigningKey,
		target:      cfg.Trade.TargetWallet,
		walletAddr:  walletAddr,
		explorerURL: cfg.Chain.ExplorerURL,
		dedup:       dedup,
		reconciler:  reconciler,
		classifier:  classifier,
		trader:      trader,
		tl:          tl,
	}
}

// Router builds the webhook HTTP surface.
func (d *Dispatcher) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/", d.handleWebhook)
	r.POST("/webhook", d.handleWebhook)
	r.GET("/health", d.handleHealth)
	return r
}

func (d *Dispatcher) handleWebhook(c *gin.Context) {
	monitor.WebhooksReceived.Inc()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if d.signingKey != "" {
		signature := c.GetHeader("x-webhook-signature")
		if signature == "" {
			signature = c.GetHeader("x-alchemy-signature")
		}
		if !d.verifySignature(body, signature) {
			monitor.WebhookAuthFailures.Inc()
			d.tl.Warn("⚠️ Invalid webhook signature")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
			return
		}
	}

	// Acknowledge before any further work: the sender's at-least-once
	// delivery needs a prompt receipt independent of processing outcome.
	c.JSON(http.StatusOK, gin.H{"status": "received"})

	var payload model.WebhookPayload
	if err := sonic.Unmarshal(body, &payload); err != nil {
		monitor.WebhooksSkipped.WithLabelValues("bad_payload").Inc()
		d.tl.Debug("Undecodable webhook payload", zap.Error(err))
		return
	}

	go d.process(payload)
}

// process runs the pipeline for one acknowledged notification. Every failure
// is isolated here: nothing may crash the service.
func (d *Dispatcher) process(payload model.WebhookPayload) {
	defer func() {
		if r := recover(); r != nil {
			d.tl.Error("❌ Webhook pipeline panic", zap.Any("panic", r))
		}
	}()

	ctx, span := logger.StartSpan(context.Background(), "dispatcher", "process_event")
	defer span.End()
	tl := logger.WithTrace(ctx, d.tl)

	if payload.Event.Network != d.network {
		monitor.WebhooksSkipped.WithLabelValues("wrong_network").Inc()
		tl.Debug("Skipping event for other network", zap.String("network", payload.Event.Network))
		return
	}

	activity := payload.Event.Activity
	if len(activity) == 0 {
		monitor.WebhooksSkipped.WithLabelValues("empty_activity").Inc()
		return
	}

	txHash := activity[0].Hash
	if txHash == "" {
		monitor.WebhooksSkipped.WithLabelValues("bad_payload").Inc()
		tl.Debug("Activity carries no transaction hash")
		return
	}

	if !d.dedup.Admit(txHash) {
		monitor.WebhooksSkipped.WithLabelValues("duplicate").Inc()
		tl.Info("⏭️ Skipping duplicate webhook", zap.String("tx", txHash))
		return
	}

	activity = d.reconciler.Reconcile(ctx, txHash, activity)

	swap, stats := d.classifier.Classify(activity)
	if swap == nil {
		monitor.SwapsRejected.Inc()
		tl.Info("❌ Not a swap",
			zap.Int("unique_out", stats.UniqueOut),
			zap.Int("unique_in", stats.UniqueIn),
			zap.String("target_tx", d.txLink(txHash)))
		return
	}

	monitor.SwapsDetected.Inc()
	tl.Info("✅ Swap detected",
		zap.String("token_in", swap.TokenIn),
		zap.String("token_out", swap.TokenOut),
		zap.String("token_in_address", swap.TokenInAddress),
		zap.String("target_tx", d.txLink(txHash)))

	hash, err := d.trader.Execute(ctx, swap)
	if err != nil {
		tl.Error("❌ Copy trade failed",
			zap.String("token", swap.TokenInAddress),
			zap.String("target_tx", d.txLink(txHash)),
			zap.Error(err))
		return
	}

	tl.Info("🚀 Copy trade sent", zap.String("tx", d.txLink(hash.Hex())))
}

func (d *Dispatcher) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "running",
		"target": d.target,
		"wallet": d.walletAddr,
	})
}

// verifySignature checks the HMAC-SHA256 of the raw payload against the
// x-webhook-signature header ("sha256=<hex>").
func (d *Dispatcher) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(d.signingKey))
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (d *Dispatcher) txLink(txHash string) string {
	return fmt.Sprintf("%s/tx/%s", d.explorerURL, txHash)
}
