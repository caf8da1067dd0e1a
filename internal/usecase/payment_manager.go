package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/infrastructure/logger"
	"github.com/iho/payledger/internal/infrastructure/metrics"
)

// PaymentManager calls payment providers on behalf of tenants and turns
// their failures into EXTERNAL_SOURCE errors. Only invoice creation falls
// back, and at most once per call.
type PaymentManager struct {
	selector *ProviderSelector
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// NewPaymentManager creates a new PaymentManager.
func NewPaymentManager(selector *ProviderSelector, m *metrics.Metrics, log zerolog.Logger) *PaymentManager {
	return &PaymentManager{
		selector: selector,
		metrics:  m,
		log:      log,
	}
}

// CreateInvoice creates a payment with the tenant's primary provider. The
// fallback is tried once when the primary errors or cancels the payment.
func (pm *PaymentManager) CreateInvoice(ctx context.Context, req domain.CreatePaymentRequest) (*domain.PaymentResult, error) {
	log := logger.Origin(ctx, pm.log, originManager)

	if !req.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if !req.PaymentMethodType.IsValid() {
		return nil, domain.ErrInvalidPaymentMethod
	}

	sel, err := pm.selector.SelectForTenant(req.TenantID)
	if err != nil {
		return nil, err
	}

	result, primaryErr := pm.createPayment(ctx, sel.Primary, req)
	if primaryErr == nil {
		if result.Status != domain.PaymentStatusCanceled || sel.Fallback == nil {
			return result, nil
		}

		pm.recordFallback(log, sel, "canceled", nil)
		fallbackResult, err := pm.createPayment(ctx, sel.Fallback, req)
		if err != nil {
			return nil, domain.NewExternalSourceError(
				fmt.Sprintf("provider %s canceled the payment and fallback %s failed", sel.Primary.Kind(), sel.Fallback.Kind()),
				err,
			)
		}
		return fallbackResult, nil
	}

	if sel.Fallback == nil {
		return nil, domain.NewExternalSourceError(
			fmt.Sprintf("provider %s failed to create payment", sel.Primary.Kind()),
			primaryErr,
		)
	}

	pm.recordFallback(log, sel, "error", primaryErr)
	fallbackResult, fallbackErr := pm.createPayment(ctx, sel.Fallback, req)
	if fallbackErr != nil {
		return nil, domain.NewExternalSourceError(
			fmt.Sprintf("primary %s failed (%v) and fallback %s failed (%v)",
				sel.Primary.Kind(), primaryErr, sel.Fallback.Kind(), fallbackErr),
			errors.Join(primaryErr, fallbackErr),
		)
	}

	return fallbackResult, nil
}

// RefundPayment refunds through the tenant's primary provider.
func (pm *PaymentManager) RefundPayment(ctx context.Context, req domain.RefundRequest) (*domain.RefundResult, error) {
	p, err := pm.primary(req.TenantID)
	if err != nil {
		return nil, err
	}

	log := logger.Origin(ctx, pm.log, originManager).With().
		Str("provider", string(p.Kind())).
		Str("external_invoice_id", req.ExternalInvoiceID).
		Str("amount", req.ValueToRefund.String()).
		Logger()

	start := time.Now()
	result, err := p.RefundPayment(ctx, req)
	pm.observe(p, "refund", start, err)
	if err != nil {
		log.Error().Err(err).Msg("payment.refund.failed")
		return nil, domain.NewExternalSourceError(fmt.Sprintf("provider %s failed to refund payment", p.Kind()), err)
	}

	log.Info().Bool("success", result.Success).Str("refunded_value", result.RefundedValue.String()).Msg("payment.refund.completed")
	return result, nil
}

// HandleWebhookNotification normalizes a raw provider event. An event the
// provider rejects as invalid keeps its DOMAIN error.
func (pm *PaymentManager) HandleWebhookNotification(ctx context.Context, tenantID string, event []byte) (*domain.WebhookResult, error) {
	p, err := pm.primary(tenantID)
	if err != nil {
		return nil, err
	}

	log := logger.Origin(ctx, pm.log, originManager).With().
		Str("provider", string(p.Kind())).
		Logger()

	start := time.Now()
	result, err := p.HandleWebhookNotification(ctx, tenantID, event)
	pm.observe(p, "webhook", start, err)
	if err != nil {
		log.Error().Err(err).Msg("payment.webhook.failed")
		if domain.KindOf(err) == domain.KindDomain {
			return nil, err
		}
		return nil, domain.NewExternalSourceError(fmt.Sprintf("provider %s failed to handle webhook", p.Kind()), err)
	}

	if result.Provider == "" {
		result.Provider = p.Kind()
	}

	log.Info().
		Str("external_invoice_id", result.ExternalInvoiceID).
		Str("transaction_type", string(result.TransactionType)).
		Str("status", string(result.Status)).
		Str("amount", result.Amount.String()).
		Msg("payment.webhook.parsed")

	return result, nil
}

// ExtractExternalInvoiceID reads the invoice id out of a raw provider event.
func (pm *PaymentManager) ExtractExternalInvoiceID(ctx context.Context, tenantID string, event []byte) (string, error) {
	p, err := pm.primary(tenantID)
	if err != nil {
		return "", err
	}

	id, err := p.ExtractExternalInvoiceID(event)
	if err != nil {
		return "", domain.NewExternalSourceError(fmt.Sprintf("provider %s could not read the invoice id", p.Kind()), err)
	}
	if id == "" {
		return "", domain.ErrMissingExternalInvoice
	}
	return id, nil
}

// ComputeTax asks the tenant's primary provider for its fee on amount.
func (pm *PaymentManager) ComputeTax(ctx context.Context, tenantID string, amount decimal.Decimal, method domain.PaymentMethodType, hasAntifraud bool) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	if !method.IsValid() {
		return decimal.Zero, domain.ErrInvalidPaymentMethod
	}

	p, err := pm.primary(tenantID)
	if err != nil {
		return decimal.Zero, err
	}

	start := time.Now()
	tax, err := p.ComputeTax(ctx, amount, method, hasAntifraud)
	pm.observe(p, "compute_tax", start, err)
	if err != nil {
		return decimal.Zero, domain.NewExternalSourceError(fmt.Sprintf("provider %s failed to compute tax", p.Kind()), err)
	}
	return tax, nil
}

// CreateRecipient registers a split-payment recipient with the primary provider.
func (pm *PaymentManager) CreateRecipient(ctx context.Context, req domain.RecipientRequest) (*domain.Recipient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := pm.primary(req.TenantID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	recipient, err := p.CreateRecipient(ctx, req)
	pm.observe(p, "create_recipient", start, err)
	if err != nil {
		return nil, domain.NewExternalSourceError(fmt.Sprintf("provider %s failed to create recipient", p.Kind()), err)
	}

	l := logger.Origin(ctx, pm.log, originManager)
	l.Info().
		Str("provider", string(p.Kind())).
		Str("recipient_id", recipient.ExternalID).
		Msg("payment.recipient.created")

	return recipient, nil
}

// UpdateRecipient updates a recipient previously registered with the primary provider.
func (pm *PaymentManager) UpdateRecipient(ctx context.Context, externalID string, req domain.RecipientRequest) (*domain.Recipient, error) {
	if externalID == "" {
		return nil, domain.ErrInvalidRecipient
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := pm.primary(req.TenantID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	recipient, err := p.UpdateRecipient(ctx, externalID, req)
	pm.observe(p, "update_recipient", start, err)
	if err != nil {
		return nil, domain.NewExternalSourceError(fmt.Sprintf("provider %s failed to update recipient", p.Kind()), err)
	}

	return recipient, nil
}

func (pm *PaymentManager) primary(tenantID string) (PaymentProvider, error) {
	sel, err := pm.selector.SelectForTenant(tenantID)
	if err != nil {
		return nil, err
	}
	return sel.Primary, nil
}

func (pm *PaymentManager) createPayment(ctx context.Context, p PaymentProvider, req domain.CreatePaymentRequest) (*domain.PaymentResult, error) {
	log := logger.Origin(ctx, pm.log, originManager).With().
		Str("provider", string(p.Kind())).
		Str("amount", req.Amount.String()).
		Str("method", string(req.PaymentMethodType)).
		Logger()

	start := time.Now()
	result, err := p.CreatePayment(ctx, req)
	pm.observe(p, "create_payment", start, err)
	if err != nil {
		log.Warn().Err(err).Msg("payment.create.failed")
		return nil, err
	}

	if result.Provider == "" {
		result.Provider = p.Kind()
	}

	log.Info().
		Str("external_invoice_id", result.ExternalInvoiceID).
		Str("status", string(result.Status)).
		Msg("payment.create.completed")

	return result, nil
}

func (pm *PaymentManager) recordFallback(log zerolog.Logger, sel ProviderSelection, reason string, cause error) {
	if pm.metrics != nil {
		pm.metrics.PaymentFallbacks.WithLabelValues(string(sel.Primary.Kind()), string(sel.Fallback.Kind()), reason).Inc()
	}

	log.Warn().
		Err(cause).
		Str("primary", string(sel.Primary.Kind())).
		Str("fallback", string(sel.Fallback.Kind())).
		Str("reason", reason).
		Msg("payment.fallback.attempt")
}

func (pm *PaymentManager) observe(p PaymentProvider, operation string, start time.Time, err error) {
	if pm.metrics == nil {
		return
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}

	kind := string(p.Kind())
	pm.metrics.ProviderCalls.WithLabelValues(kind, operation, outcome).Inc()
	pm.metrics.ProviderDuration.WithLabelValues(kind, operation).Observe(time.Since(start).Seconds())
}
