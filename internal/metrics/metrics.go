// Package metrics exposes the service's Prometheus collectors. All
// collectors register on the default registry so promhttp.Handler
// serves them without extra wiring.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP request metrics (RED method).
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moveyield",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "moveyield",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "moveyield",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being processed.",
	})

	PaymentRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "moveyield",
		Subsystem: "http",
		Name:      "payment_rejected_total",
		Help:      "Requests refused with 402 for a missing x-payment header.",
	})
)

// Protocol feed metrics. The protocol label is "echelon" or
// "moveposition".
var (
	FeedFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moveyield",
		Subsystem: "feed",
		Name:      "fetch_total",
		Help:      "Total feed fetch attempts per protocol.",
	}, []string{"protocol", "status"})

	FeedFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "moveyield",
		Subsystem: "feed",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of feed fetches per protocol in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"protocol"})

	FeedLastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "moveyield",
		Subsystem: "feed",
		Name:      "last_success_timestamp",
		Help:      "Unix timestamp of the last successful fetch per protocol.",
	}, []string{"protocol"})
)

// Agent run metrics.
var (
	AgentRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moveyield",
		Subsystem: "agent",
		Name:      "runs_total",
		Help:      "Total agent runs by outcome (complete, confirmation, error).",
	}, []string{"agent", "outcome"})

	TokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moveyield",
		Subsystem: "agent",
		Name:      "tokens_total",
		Help:      "Claude tokens consumed per agent, split by direction.",
	}, []string{"agent", "direction"})
)

// WebSocket chat metrics.
var (
	WSSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "moveyield",
		Subsystem: "ws",
		Name:      "sessions_active",
		Help:      "Number of open WebSocket chat sessions.",
	})

	WSMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moveyield",
		Subsystem: "ws",
		Name:      "messages_total",
		Help:      "WebSocket frames processed by type.",
	}, []string{"type"})
)
