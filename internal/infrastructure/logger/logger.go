package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/payledger/internal/domain"
)

// Config holds logger configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

type requestIDKey struct{}

// New creates a new zerolog logger based on config.
func New(cfg Config) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter is New with an explicit output.
func NewWithWriter(cfg Config, out io.Writer) zerolog.Logger {
	output := out

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	level := parseLevel(cfg.Level)

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}

// ContextWithRequestID stores the request id on ctx.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request id stored on ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithContext returns base enriched with the request id and session found on ctx.
func WithContext(ctx context.Context, base zerolog.Logger) zerolog.Logger {
	lc := base.With()

	if id := RequestIDFromContext(ctx); id != "" {
		lc = lc.Str("request_id", id)
	}

	if s, ok := domain.SessionFromContext(ctx); ok {
		if s.TenantID != "" {
			lc = lc.Str("tenant_id", s.TenantID)
		}
		if s.UserID != "" {
			lc = lc.Str("user_id", s.UserID)
		}
	}

	return lc.Logger()
}

// Origin returns ctx's logger tagged with the emitting component.
func Origin(ctx context.Context, base zerolog.Logger, origin string) zerolog.Logger {
	return WithContext(ctx, base).With().Str("origin", origin).Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
