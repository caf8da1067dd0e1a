package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/infrastructure/logger"
)

// PaymentUseCase creates provider payments and books settled ones.
type PaymentUseCase struct {
	manager *PaymentManager
	ledger  LedgerEntryCreator
	guard   reconciliationGuard
	log     zerolog.Logger
}

// NewPaymentUseCase creates a new PaymentUseCase. dedup must be the cache the
// WebhookUseCase uses, so a later PAID webhook for the same invoice is seen
// as already booked. It may be nil.
func NewPaymentUseCase(manager *PaymentManager, ledger LedgerEntryCreator, dedup Cache, dedupTTL time.Duration, log zerolog.Logger) *PaymentUseCase {
	return &PaymentUseCase{
		manager: manager,
		ledger:  ledger,
		guard:   newReconciliationGuard(dedup, dedupTTL),
		log:     log,
	}
}

// ProcessPaymentInput represents input for processing a payment.
type ProcessPaymentInput struct {
	TenantID          string
	ToAccountID       string
	Amount            decimal.Decimal
	PaymentMethodType domain.PaymentMethodType
	Description       *string
	Metadata          map[string]string
	CreatedBy         string
}

// ProcessPaymentOutput is the provider result and, for settled payments, the deposit.
type ProcessPaymentOutput struct {
	Payment     *domain.PaymentResult
	LedgerEntry *domain.LedgerEntry
}

// ProcessPayment creates an invoice and, if the provider settles it
// immediately, deposits the gross amount into ToAccountID. The deposit claims
// the same reconciliation key as the PAID webhook for that invoice.
func (uc *PaymentUseCase) ProcessPayment(ctx context.Context, input ProcessPaymentInput) (*ProcessPaymentOutput, error) {
	if strings.TrimSpace(input.TenantID) == "" {
		return nil, domain.ErrMissingTenant
	}
	if strings.TrimSpace(input.CreatedBy) == "" {
		return nil, domain.ErrMissingActor
	}
	if strings.TrimSpace(input.ToAccountID) == "" {
		return nil, domain.ErrMissingDestination
	}

	payment, err := uc.manager.CreateInvoice(ctx, domain.CreatePaymentRequest{
		TenantID:          input.TenantID,
		Amount:            input.Amount,
		PaymentMethodType: input.PaymentMethodType,
		Description:       input.Description,
		Metadata:          input.Metadata,
	})
	if err != nil {
		return nil, err
	}

	out := &ProcessPaymentOutput{Payment: payment}
	if payment.Status != domain.PaymentStatusPaid {
		return out, nil
	}

	log := logger.Origin(ctx, uc.log, originPayment).With().
		Str("external_invoice_id", payment.ExternalInvoiceID).
		Str("provider", string(payment.Provider)).
		Logger()

	key := reconciliationKey(input.TenantID, payment.Provider, payment.ExternalInvoiceID, domain.WebhookTransactionPayment, domain.PaymentStatusPaid)
	reserved, err := uc.guard.reserve(ctx, key, input.TenantID)
	if err != nil {
		log.Error().Err(err).Msg("payment.dedup.failed")
		return nil, domain.Wrap(domain.ErrPaymentLedgerFailed, err)
	}
	if !reserved {
		log.Info().Msg("payment.ledger.already_reconciled")
		return out, nil
	}

	toAccountID := input.ToAccountID
	entry, err := uc.ledger.CreateLedgerEntry(ctx, CreateLedgerEntryInput{
		TenantID:    input.TenantID,
		Type:        domain.LedgerEntryTypeDeposit,
		ToAccountID: &toAccountID,
		Amount:      input.Amount,
		CreatedBy:   input.CreatedBy,
	})
	if err != nil {
		log.Error().Err(err).Msg("payment.ledger.failed")
		if rerr := uc.guard.release(ctx, key); rerr != nil {
			log.Warn().Err(rerr).Msg("payment.dedup.release_failed")
		}
		return nil, domain.Wrap(domain.ErrPaymentLedgerFailed, err)
	}

	log.Info().Str("ledger_entry_id", entry.ID).Msg("payment.ledger.recorded")
	out.LedgerEntry = entry

	return out, nil
}

// ComputeTax returns the tenant provider's fee for amount.
func (uc *PaymentUseCase) ComputeTax(ctx context.Context, tenantID string, amount decimal.Decimal, method domain.PaymentMethodType, hasAntifraud bool) (decimal.Decimal, error) {
	return uc.manager.ComputeTax(ctx, tenantID, amount, method, hasAntifraud)
}

// CreateRecipient registers a split-payment recipient.
func (uc *PaymentUseCase) CreateRecipient(ctx context.Context, req domain.RecipientRequest) (*domain.Recipient, error) {
	return uc.manager.CreateRecipient(ctx, req)
}

// UpdateRecipient updates a registered split-payment recipient.
func (uc *PaymentUseCase) UpdateRecipient(ctx context.Context, externalID string, req domain.RecipientRequest) (*domain.Recipient, error) {
	return uc.manager.UpdateRecipient(ctx, externalID, req)
}
