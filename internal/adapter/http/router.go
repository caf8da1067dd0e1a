package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/payledger/internal/adapter/http/handler"
	"github.com/iho/payledger/internal/adapter/http/middleware"
	"github.com/iho/payledger/internal/infrastructure/auth"
	"github.com/iho/payledger/internal/infrastructure/metrics"
	"github.com/iho/payledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler     *handler.AccountHandler
	LedgerEntryHandler *handler.LedgerEntryHandler
	PaymentHandler     *handler.PaymentHandler
	HealthHandler      *handler.HealthHandler
	IdempotencyStore   usecase.IdempotencyStore
	IdempotencyTTL     time.Duration
	RateLimiter        *middleware.RateLimiter
	Metrics            *metrics.Metrics
	Gatherer           prometheus.Gatherer
	Logger             zerolog.Logger
	// JWTManager enables Bearer token sessions. When nil the session is
	// read from the X-Tenant-ID and X-User-ID headers.
	JWTManager *auth.JWTManager
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(cfg.JWTManager, cfg.Metrics))

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			ttl := cfg.IdempotencyTTL
			if ttl <= 0 {
				ttl = 24 * time.Hour
			}
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, ttl).Wrap)
		}

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Get("/{id}/audit", cfg.AccountHandler.Audit)
		})

		r.Get("/audit/balances", cfg.AccountHandler.AuditTenant)

		// Ledger entries
		r.Route("/ledger-entries", func(r chi.Router) {
			r.Post("/", cfg.LedgerEntryHandler.Create)
			r.Get("/", cfg.LedgerEntryHandler.List)
			r.Get("/{id}", cfg.LedgerEntryHandler.Get)
			r.Patch("/{id}/status", cfg.LedgerEntryHandler.UpdateStatus)
			r.Delete("/{id}", cfg.LedgerEntryHandler.Delete)
		})

		// Payments
		r.Route("/payments", func(r chi.Router) {
			r.Post("/", cfg.PaymentHandler.Create)
			r.Post("/tax", cfg.PaymentHandler.ComputeTax)
			r.Post("/refunds", cfg.PaymentHandler.Refund)
			r.Post("/webhooks", cfg.PaymentHandler.Webhook)
			r.Post("/recipients", cfg.PaymentHandler.CreateRecipient)
			r.Put("/recipients/{id}", cfg.PaymentHandler.UpdateRecipient)
		})
	})

	return r
}
