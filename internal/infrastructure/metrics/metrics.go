package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	LedgerEntriesCreated *prometheus.CounterVec
	LedgerEntryErrors    *prometheus.CounterVec
	LedgerEntryDuration  prometheus.Histogram
	LedgerEntryAmount    prometheus.Histogram
	BalanceOperations    *prometheus.CounterVec
	DBRetries            *prometheus.CounterVec

	// Account metrics
	AccountsCreated prometheus.Counter

	// Payment metrics
	ProviderCalls     *prometheus.CounterVec
	ProviderDuration  *prometheus.HistogramVec
	PaymentFallbacks  *prometheus.CounterVec
	BreakerState      *prometheus.GaugeVec
	WebhooksProcessed *prometheus.CounterVec
	RefundsProcessed  *prometheus.CounterVec

	// Notification metrics
	NotificationsSent *prometheus.CounterVec

	// API metrics
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Rate limiting metrics
	RateLimitHits prometheus.Counter

	// Authentication metrics
	AuthFailures *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates and registers all Prometheus metrics on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Ledger metrics
		LedgerEntriesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payledger_ledger_entries_created_total",
				Help: "Total number of ledger entries committed by type",
			},
			[]string{"type"},
		),
		LedgerEntryErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payledger_ledger_entry_errors_total",
				Help: "Total number of rejected ledger entries by error kind",
			},
			[]string{"kind"},
		),
		LedgerEntryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "payledger_ledger_entry_duration_seconds",
			Help:    "Duration of ledger entry transactions",
			Buckets: prometheus.DefBuckets,
		}),
		LedgerEntryAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "payledger_ledger_entry_amount",
			Help:    "Ledger entry amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		BalanceOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payledger_balance_operations_total",
				Help: "Total balance mutations by operation",
			},
			[]string{"operation"},
		),
		DBRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payledger_db_retries_total",
				Help: "Total transaction retries by SQLSTATE",
			},
			[]string{"sqlstate"},
		),

		// Account metrics
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "payledger_accounts_created_total",
			Help: "Total number of accounts created",
		}),

		// Payment metrics
		ProviderCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payledger_provider_calls_total",
				Help: "Total payment provider calls by outcome",
			},
			[]string{"provider", "operation", "outcome"},
		),
		ProviderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payledger_provider_call_duration_seconds",
				Help:    "Payment provider call duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "operation"},
		),
		PaymentFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payledger_payment_fallbacks_total",
				Help: "Total fallback provider attempts by reason",
			},
			[]string{"primary", "fallback", "reason"},
		),
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "payledger_provider_breaker_state",
				Help: "Circuit breaker state per provider (0 closed, 1 half-open, 2 open)",
			},
			[]string{"provider"},
		),
		WebhooksProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payledger_webhooks_processed_total",
				Help: "Total webhooks processed by outcome",
			},
			[]string{"outcome"},
		),
		RefundsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payledger_refunds_processed_total",
				Help: "Total refunds processed by outcome",
			},
			[]string{"outcome"},
		),

		// Notification metrics
		NotificationsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payledger_notifications_total",
				Help: "Total post-commit notifications by outcome",
			},
			[]string{"outcome"},
		),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "payledger_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "payledger_rate_limit_hits_total",
			Help: "Total rate limit hits",
		}),

		// Authentication metrics
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payledger_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),
	}
}
