package monitor

import "github.com/prometheus/client_golang/prometheus"

var (
	// Webhook intake
	WebhooksReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhooks_received_total",
			Help: "Total number of webhook notifications received.",
		},
	)
	WebhookAuthFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_auth_failures_total",
			Help: "Total number of webhook notifications rejected for bad signatures.",
		},
	)
	WebhooksSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhooks_skipped_total",
			Help: "Total number of webhook notifications dropped before classification.",
		},
		[]string{"reason"}, // duplicate, wrong_network, empty_activity, bad_payload
	)

	// Pipeline
	ReceiptFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "receipt_fallbacks_total",
			Help: "Total number of events enriched with receipt-decoded transfers.",
		},
	)
	SwapsDetected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "swaps_detected_total",
			Help: "Total number of events classified as copyable swaps.",
		},
	)
	SwapsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "swaps_rejected_total",
			Help: "Total number of events classified as not-a-swap.",
		},
	)

	// Trading
	TradesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trades_sent_total",
			Help: "Total number of copy trades broadcast.",
		},
	)
	TradesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trades_failed_total",
			Help: "Total number of copy trades that failed before broadcast acceptance.",
		},
		[]string{"stage"}, // quote, broadcast
	)
	TradesConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trades_confirmed_total",
			Help: "Total number of copy trades confirmed on chain.",
		},
	)
	TradesReverted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trades_reverted_total",
			Help: "Total number of copy trades that failed after broadcast.",
		},
	)
	QuoteDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "zerox_quote_duration_seconds",
			Help:    "Time taken to obtain a quote from the aggregator.",
			Buckets: []float64{0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 3.0},
		},
	)
)

func init() {
	prometheus.MustRegister(
		// webhook intake
		WebhooksReceived,
		WebhookAuthFailures,
		WebhooksSkipped,

		// pipeline
		ReceiptFallbacks,
		SwapsDetected,
		SwapsRejected,

		// trading
		TradesSent,
		TradesFailed,
		TradesConfirmed,
		TradesReverted,
		QuoteDuration,
	)
}
