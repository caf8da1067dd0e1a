package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/payledger/internal/adapter/http"
	"github.com/iho/payledger/internal/adapter/http/handler"
	"github.com/iho/payledger/internal/adapter/http/middleware"
	"github.com/iho/payledger/internal/adapter/provider"
	"github.com/iho/payledger/internal/adapter/provider/mock"
	postgresRepo "github.com/iho/payledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/payledger/internal/adapter/repository/redis"
	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/infrastructure/auth"
	"github.com/iho/payledger/internal/infrastructure/config"
	"github.com/iho/payledger/internal/infrastructure/logger"
	"github.com/iho/payledger/internal/infrastructure/metrics"
	"github.com/iho/payledger/internal/infrastructure/notifier"
	"github.com/iho/payledger/internal/infrastructure/postgres"
	"github.com/iho/payledger/internal/infrastructure/redis"
	"github.com/iho/payledger/internal/usecase"
)

const limiterCleanupInterval = 10 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "payledger: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("postgres.connected")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, redis.ClientConfig{
		URL:          cfg.RedisURL,
		PoolSize:     cfg.RedisPoolSize,
		DialTimeout:  cfg.RedisDialTimeout,
		ReadTimeout:  cfg.RedisReadTimeout,
		WriteTimeout: cfg.RedisWriteTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("redis.connected")

	notify, closeNotifier, err := buildNotifier(cfg, redisClient, log)
	if err != nil {
		return fmt.Errorf("build notifier: %w", err)
	}
	defer closeNotifier()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool, cfg.DatabaseTimeout)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	entryRepo := postgresRepo.NewLedgerEntryRepository(pool)
	retrier := postgresRepo.NewRetrier(log, m)
	idGen := postgresRepo.NewULIDGenerator()
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	cache := redisRepo.NewCache(redisClient)

	// Payment providers
	selector, err := buildProviderSelector(cfg, m, log)
	if err != nil {
		return fmt.Errorf("configure payment providers: %w", err)
	}
	manager := usecase.NewPaymentManager(selector, m, log)

	// Use cases
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, entryRepo, idGen, retrier, notify, m, log)
	ledgerUC.SetNotificationTimeout(cfg.NotifierTimeout)
	accountUC := usecase.NewAccountUseCase(accountRepo, idGen, m, log)
	auditUC := usecase.NewBalanceAuditUseCase(accountRepo, entryRepo)
	paymentUC := usecase.NewPaymentUseCase(manager, ledgerUC, cache, cfg.WebhookDedupTTL, log)
	refundUC := usecase.NewRefundUseCase(manager, ledgerUC, m, log)
	webhookUC := usecase.NewWebhookUseCase(manager, ledgerUC, cache, cfg.WebhookDedupTTL, m, log)

	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled {
		if cfg.JWTSecret == "" {
			return errors.New("AUTH_ENABLED requires JWT_SECRET")
		}
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	go cleanupLimiters(ctx, rateLimiter)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC, auditUC),
		LedgerEntryHandler: handler.NewLedgerEntryHandler(ledgerUC),
		PaymentHandler:     handler.NewPaymentHandler(paymentUC, refundUC, webhookUC),
		HealthHandler:      handler.NewHealthHandler(pool, redisPinger(redisClient)),
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		RateLimiter:        rateLimiter,
		Metrics:            m,
		Gatherer:           prometheus.DefaultGatherer,
		Logger:             log,
		JWTManager:         jwtManager,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("server.starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("server.shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server.shutdown_forced")
	}
	if err := ledgerUC.WaitForNotifications(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server.notifications_abandoned")
	}

	log.Info().Msg("server.stopped")
	return nil
}

// buildNotifier returns the notifier selected by NOTIFIER_KIND and a func
// releasing its resources.
func buildNotifier(cfg *config.Config, redisClient *goredis.Client, log zerolog.Logger) (usecase.Notifier, func(), error) {
	switch cfg.NotifierKind {
	case config.NotifierRedis:
		return notifier.NewRedisNotifier(redisClient, cfg.RedisNotifyChannel), func() {}, nil
	case config.NotifierAMQP:
		n, err := notifier.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			return nil, nil, err
		}
		return n, closeWith(n, log), nil
	default:
		return notifier.NewLogNotifier(log), func() {}, nil
	}
}

func closeWith(c io.Closer, log zerolog.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("notifier.close_failed")
		}
	}
}

// buildProviderSelector registers the breaker-wrapped providers and the
// configured routes.
func buildProviderSelector(cfg *config.Config, m *metrics.Metrics, log zerolog.Logger) (*usecase.ProviderSelector, error) {
	fee, err := cfg.AntifraudFee()
	if err != nil {
		return nil, err
	}

	breakerCfg := provider.BreakerConfig{
		MaxRequests:  cfg.BreakerMaxRequests,
		Interval:     cfg.BreakerInterval,
		Timeout:      cfg.BreakerTimeout,
		FailureRatio: cfg.BreakerFailureRatio,
		MinRequests:  cfg.BreakerMinRequests,
	}

	providers := []usecase.PaymentProvider{
		provider.NewBreaker(mock.New(fee), breakerCfg, m, log),
	}

	routes, err := cfg.TenantRoutes()
	if err != nil {
		return nil, err
	}

	tenantRoutes := make(map[string]usecase.ProviderRoute, len(routes))
	for tenant, route := range routes {
		tenantRoutes[tenant] = toProviderRoute(route)
	}

	return usecase.NewProviderSelector(providers, toProviderRoute(cfg.DefaultRoute()), tenantRoutes)
}

func toProviderRoute(r config.PaymentRoute) usecase.ProviderRoute {
	return usecase.ProviderRoute{
		Primary:  domain.ProviderKind(r.Primary),
		Fallback: domain.ProviderKind(r.Fallback),
	}
}

func redisPinger(client *goredis.Client) handler.Pinger {
	return handler.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

func cleanupLimiters(ctx context.Context, rl *middleware.RateLimiter) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.CleanupLimiters(limiterCleanupInterval)
		}
	}
}
