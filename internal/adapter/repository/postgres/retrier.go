package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/iho/payledger/internal/infrastructure/metrics"
)

// PostgreSQL error codes for retryable errors.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrLockNotAvailable     = "55P03"
)

// Retrier implements usecase.Retrier with exponential backoff.
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	metrics         *metrics.Metrics
	log             zerolog.Logger
}

// NewRetrier creates a new PostgreSQL retrier with default settings. m may be nil.
func NewRetrier(log zerolog.Logger, m *metrics.Metrics) *Retrier {
	return &Retrier{
		maxRetries:      3,
		initialInterval: 50 * time.Millisecond,
		maxInterval:     1 * time.Second,
		maxElapsedTime:  10 * time.Second,
		metrics:         m,
		log:             log.With().Str("origin", "Retrier").Logger(),
	}
}

// Retry executes an operation with exponential backoff on retryable errors.
// The operation must be safe to re-run from the start, i.e. a whole transaction.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	retryCount := 0

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		code, retryable := retryableCode(err)
		if !retryable {
			return backoff.Permanent(err)
		}

		retryCount++
		if retryCount > r.maxRetries {
			return backoff.Permanent(err)
		}

		if r.metrics != nil {
			r.metrics.DBRetries.WithLabelValues(code).Inc()
		}
		r.log.Warn().Err(err).Str("sqlstate", code).Int("retry", retryCount).Msg("db.retry")

		return err
	}, backoff.WithContext(b, ctx))
}

// retryableCode returns the SQLSTATE of err when the whole transaction can
// be safely re-run.
func retryableCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure, pgErrLockNotAvailable:
			return pgErr.Code, true
		}
	}
	return "", false
}
