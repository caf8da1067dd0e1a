package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/iho/payledger/internal/adapter/http/handler"
	apimiddleware "github.com/iho/payledger/internal/adapter/http/middleware"
	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/infrastructure/metrics"
	"github.com/iho/payledger/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1, nil)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_APIRequiresTenant(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without tenant, got %d", rec.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"name":"Main"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.TenantIDHeader, "t1")
	req.Header.Set(apimiddleware.UserIDHeader, "u1")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.checkedKey != "t1:key-123" {
		t.Fatalf("expected idempotency store to be used with tenant key, got %q", store.checkedKey)
	}
	if string(store.stored) == "" {
		t.Fatalf("expected successful response to be stored")
	}
}

func TestNewRouter_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.Metrics = metrics.NewWithRegistry(reg)
		cfg.Gatherer = reg
	}))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
	if !strings.Contains(string(body), "payledger_http_requests_total") {
		t.Fatalf("expected http metrics to be exposed, got %s", body)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/accounts/",
		"GET /api/v1/accounts/",
		"GET /api/v1/accounts/{id}",
		"GET /api/v1/accounts/{id}/audit",
		"GET /api/v1/audit/balances",
		"POST /api/v1/ledger-entries/",
		"GET /api/v1/ledger-entries/",
		"GET /api/v1/ledger-entries/{id}",
		"PATCH /api/v1/ledger-entries/{id}/status",
		"DELETE /api/v1/ledger-entries/{id}",
		"POST /api/v1/payments/",
		"POST /api/v1/payments/tax",
		"POST /api/v1/payments/refunds",
		"POST /api/v1/payments/webhooks",
		"POST /api/v1/payments/recipients",
		"PUT /api/v1/payments/recipients/{id}",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	cfg := RouterConfig{
		HealthHandler:      handler.NewHealthHandler(nil, nil),
		AccountHandler:     handler.NewAccountHandler(&stubAccountService{}, nil),
		LedgerEntryHandler: handler.NewLedgerEntryHandler(nil),
		PaymentHandler:     handler.NewPaymentHandler(nil, nil, nil),
		Logger:             zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubAccountService struct{}

func (stubAccountService) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return &domain.Account{ID: "acc", TenantID: input.TenantID, Name: input.Name}, nil
}

func (stubAccountService) GetAccount(ctx context.Context, tenantID, id string) (*domain.Account, error) {
	return &domain.Account{ID: id, TenantID: tenantID}, nil
}

func (stubAccountService) ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
	return []*domain.Account{}, nil
}

type stubIdempotencyStore struct {
	checkedKey string
	stored     []byte
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkedKey = key
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.stored = append([]byte(nil), response...)
	return nil
}

func (s *stubIdempotencyStore) Release(ctx context.Context, key string) error {
	return nil
}
