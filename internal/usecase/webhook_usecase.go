package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/infrastructure/logger"
	"github.com/iho/payledger/internal/infrastructure/metrics"
)

// WebhookUseCase reconciles provider webhooks into ledger entries.
//
// A ledger failure never fails the webhook: the provider event is already a
// fact, so the entry is left absent and the dedup key released for redelivery.
type WebhookUseCase struct {
	manager *PaymentManager
	ledger  LedgerEntryCreator
	guard   reconciliationGuard
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewWebhookUseCase creates a new WebhookUseCase. dedup and m may be nil.
func NewWebhookUseCase(manager *PaymentManager, ledger LedgerEntryCreator, dedup Cache, dedupTTL time.Duration, m *metrics.Metrics, log zerolog.Logger) *WebhookUseCase {
	return &WebhookUseCase{
		manager: manager,
		ledger:  ledger,
		guard:   newReconciliationGuard(dedup, dedupTTL),
		metrics: m,
		log:     log,
	}
}

// ProcessWebhookInput represents input for processing a webhook.
type ProcessWebhookInput struct {
	TenantID    string
	Event       []byte
	ToAccountID *string
	UpdatedBy   string
}

// ProcessWebhookOutput is the normalized webhook and the entry it produced, if any.
type ProcessWebhookOutput struct {
	Webhook     *domain.WebhookResult
	LedgerEntry *domain.LedgerEntry
	Duplicate   bool
}

// ProcessWebhook parses the event and books a DEPOSIT for a paid payment or
// a WITHDRAWAL for a refund when an account is supplied.
func (uc *WebhookUseCase) ProcessWebhook(ctx context.Context, input ProcessWebhookInput) (*ProcessWebhookOutput, error) {
	if strings.TrimSpace(input.TenantID) == "" {
		return nil, domain.ErrMissingTenant
	}
	if strings.TrimSpace(input.UpdatedBy) == "" {
		return nil, domain.ErrMissingActor
	}
	if len(input.Event) == 0 {
		return nil, domain.ErrInvalidWebhookEvent
	}

	webhook, err := uc.manager.HandleWebhookNotification(ctx, input.TenantID, input.Event)
	if err != nil {
		uc.record("provider_error")
		return nil, err
	}

	out := &ProcessWebhookOutput{Webhook: webhook}
	log := logger.Origin(ctx, uc.log, originWebhook).With().
		Str("provider", string(webhook.Provider)).
		Str("external_invoice_id", webhook.ExternalInvoiceID).
		Str("transaction_type", string(webhook.TransactionType)).
		Str("status", string(webhook.Status)).
		Logger()

	entryInput, ok := uc.entryFor(input, webhook)
	if !ok {
		uc.record("acknowledged")
		log.Info().Msg("webhook.acknowledged")
		return out, nil
	}

	key := reconciliationKey(input.TenantID, webhook.Provider, webhook.ExternalInvoiceID, webhook.TransactionType, webhook.Status)
	reserved, err := uc.guard.reserve(ctx, key, input.TenantID)
	if err != nil {
		uc.record("dedup_error")
		log.Error().Err(err).Msg("webhook.dedup.failed")
		return out, nil
	}
	if !reserved {
		uc.record("duplicate")
		log.Info().Msg("webhook.duplicate")
		out.Duplicate = true
		return out, nil
	}

	entry, err := uc.ledger.CreateLedgerEntry(ctx, entryInput)
	if err != nil {
		uc.record("ledger_failed")
		log.Error().Err(err).Msg("webhook.ledger.failed")
		if err := uc.guard.release(ctx, key); err != nil {
			log.Warn().Err(err).Msg("webhook.dedup.release_failed")
		}
		return out, nil
	}

	uc.record("recorded")
	log.Info().Str("ledger_entry_id", entry.ID).Msg("webhook.ledger.recorded")
	out.LedgerEntry = entry

	return out, nil
}

func (uc *WebhookUseCase) entryFor(input ProcessWebhookInput, webhook *domain.WebhookResult) (CreateLedgerEntryInput, bool) {
	if input.ToAccountID == nil || strings.TrimSpace(*input.ToAccountID) == "" {
		return CreateLedgerEntryInput{}, false
	}

	accountID := *input.ToAccountID
	entry := CreateLedgerEntryInput{
		TenantID:  input.TenantID,
		Amount:    webhook.Amount,
		CreatedBy: input.UpdatedBy,
	}

	switch {
	case webhook.TransactionType == domain.WebhookTransactionPayment && webhook.Status == domain.PaymentStatusPaid:
		entry.Type = domain.LedgerEntryTypeDeposit
		entry.ToAccountID = &accountID
	case webhook.TransactionType == domain.WebhookTransactionRefund:
		entry.Type = domain.LedgerEntryTypeWithdrawal
		entry.FromAccountID = &accountID
	default:
		return CreateLedgerEntryInput{}, false
	}

	return entry, true
}

func (uc *WebhookUseCase) record(outcome string) {
	if uc.metrics != nil {
		uc.metrics.WebhooksProcessed.WithLabelValues(outcome).Inc()
	}
}
