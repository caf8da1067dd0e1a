// Package provider holds payment provider decorators.
package provider

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/infrastructure/metrics"
	"github.com/iho/payledger/internal/usecase"
)

// BreakerConfig holds circuit breaker thresholds.
type BreakerConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// Breaker wraps a PaymentProvider in a circuit breaker. Parsing calls that
// never leave the process (webhook id extraction) bypass it.
type Breaker struct {
	next    usecase.PaymentProvider
	cb      *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewBreaker wraps next. m may be nil.
func NewBreaker(next usecase.PaymentProvider, cfg BreakerConfig, m *metrics.Metrics, log zerolog.Logger) *Breaker {
	b := &Breaker{
		next:    next,
		metrics: m,
		log:     log.With().Str("origin", "ProviderBreaker").Str("provider", string(next.Kind())).Logger(),
	}

	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "provider-" + string(next.Kind()),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("provider.breaker.state_changed")
			b.setState(to)
		},
		// Caller mistakes say nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || domain.KindOf(err) == domain.KindDomain
		},
	})
	b.setState(gobreaker.StateClosed)

	return b
}

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) Kind() domain.ProviderKind {
	return b.next.Kind()
}

func (b *Breaker) CreatePayment(ctx context.Context, req domain.CreatePaymentRequest) (*domain.PaymentResult, error) {
	return execute(b, func() (*domain.PaymentResult, error) {
		return b.next.CreatePayment(ctx, req)
	})
}

func (b *Breaker) RefundPayment(ctx context.Context, req domain.RefundRequest) (*domain.RefundResult, error) {
	return execute(b, func() (*domain.RefundResult, error) {
		return b.next.RefundPayment(ctx, req)
	})
}

func (b *Breaker) HandleWebhookNotification(ctx context.Context, tenantID string, event []byte) (*domain.WebhookResult, error) {
	return execute(b, func() (*domain.WebhookResult, error) {
		return b.next.HandleWebhookNotification(ctx, tenantID, event)
	})
}

func (b *Breaker) ExtractExternalInvoiceID(event []byte) (string, error) {
	return b.next.ExtractExternalInvoiceID(event)
}

func (b *Breaker) ComputeTax(ctx context.Context, amount decimal.Decimal, method domain.PaymentMethodType, hasAntifraud bool) (decimal.Decimal, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.ComputeTax(ctx, amount, method, hasAntifraud)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return out.(decimal.Decimal), nil
}

func (b *Breaker) CreateRecipient(ctx context.Context, req domain.RecipientRequest) (*domain.Recipient, error) {
	return execute(b, func() (*domain.Recipient, error) {
		return b.next.CreateRecipient(ctx, req)
	})
}

func (b *Breaker) UpdateRecipient(ctx context.Context, externalID string, req domain.RecipientRequest) (*domain.Recipient, error) {
	return execute(b, func() (*domain.Recipient, error) {
		return b.next.UpdateRecipient(ctx, externalID, req)
	})
}

func (b *Breaker) setState(s gobreaker.State) {
	if b.metrics == nil {
		return
	}
	var v float64
	switch s {
	case gobreaker.StateHalfOpen:
		v = 1
	case gobreaker.StateOpen:
		v = 2
	}
	b.metrics.BreakerState.WithLabelValues(string(b.next.Kind())).Set(v)
}

func execute[T any](b *Breaker, fn func() (*T, error)) (*T, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return out.(*T), nil
}

var _ usecase.PaymentProvider = (*Breaker)(nil)
