package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/infrastructure/logger"
	"github.com/iho/payledger/internal/infrastructure/metrics"
)

// RefundUseCase refunds a payment and books the matching withdrawal.
// Unlike webhooks, a ledger failure here fails the call.
type RefundUseCase struct {
	manager *PaymentManager
	ledger  LedgerEntryCreator
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewRefundUseCase creates a new RefundUseCase.
func NewRefundUseCase(manager *PaymentManager, ledger LedgerEntryCreator, m *metrics.Metrics, log zerolog.Logger) *RefundUseCase {
	return &RefundUseCase{
		manager: manager,
		ledger:  ledger,
		metrics: m,
		log:     log,
	}
}

// ProcessRefundInput represents input for processing a refund.
type ProcessRefundInput struct {
	TenantID          string
	ExternalInvoiceID string
	FromAccountID     string
	ValueToRefund     decimal.Decimal
	Reason            *string
	CreatedBy         string
}

// ProcessRefundOutput is the provider refund and the withdrawal it produced.
type ProcessRefundOutput struct {
	Refund      *domain.RefundResult
	LedgerEntry *domain.LedgerEntry
}

// ProcessRefund asks the provider to refund and withdraws the refunded value
// from FromAccountID.
func (uc *RefundUseCase) ProcessRefund(ctx context.Context, input ProcessRefundInput) (*ProcessRefundOutput, error) {
	if !input.ValueToRefund.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if strings.TrimSpace(input.TenantID) == "" {
		return nil, domain.ErrMissingTenant
	}
	if strings.TrimSpace(input.CreatedBy) == "" {
		return nil, domain.ErrMissingActor
	}
	if strings.TrimSpace(input.ExternalInvoiceID) == "" {
		return nil, domain.ErrMissingExternalInvoice
	}
	if strings.TrimSpace(input.FromAccountID) == "" {
		return nil, domain.ErrMissingSourceAccount
	}

	log := logger.Origin(ctx, uc.log, originRefund).With().
		Str("external_invoice_id", input.ExternalInvoiceID).
		Str("amount", input.ValueToRefund.String()).
		Logger()

	refund, err := uc.manager.RefundPayment(ctx, domain.RefundRequest{
		TenantID:          input.TenantID,
		ExternalInvoiceID: input.ExternalInvoiceID,
		ValueToRefund:     input.ValueToRefund,
		Reason:            input.Reason,
	})
	if err != nil {
		uc.record("provider_error")
		return nil, err
	}

	if !refund.Success {
		uc.record("rejected")
		log.Warn().Msg("refund.not_successful")
		return nil, domain.ErrRefundNotSuccessful
	}

	amount := refund.RefundedValue
	if !amount.IsPositive() {
		amount = input.ValueToRefund
	}

	fromAccountID := input.FromAccountID
	entry, err := uc.ledger.CreateLedgerEntry(ctx, CreateLedgerEntryInput{
		TenantID:      input.TenantID,
		Type:          domain.LedgerEntryTypeWithdrawal,
		FromAccountID: &fromAccountID,
		Amount:        amount,
		CreatedBy:     input.CreatedBy,
	})
	if err != nil {
		uc.record("ledger_failed")
		log.Error().Err(err).Msg("refund.ledger.failed")
		return nil, domain.Wrap(domain.ErrRefundLedgerFailed, err)
	}

	uc.record("recorded")
	log.Info().Str("ledger_entry_id", entry.ID).Msg("refund.ledger.recorded")

	return &ProcessRefundOutput{Refund: refund, LedgerEntry: entry}, nil
}

func (uc *RefundUseCase) record(outcome string) {
	if uc.metrics != nil {
		uc.metrics.RefundsProcessed.WithLabelValues(outcome).Inc()
	}
}
