package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/infrastructure/logger"
	"github.com/iho/payledger/internal/infrastructure/metrics"
)

// LedgerUseCase turns movement requests into committed, balance-consistent
// ledger entries.
type LedgerUseCase struct {
	txManager     TransactionManager
	balances      *BalanceLedger
	entryRepo     LedgerEntryRepository
	idGen         IDGenerator
	retrier       Retrier
	notifier      Notifier
	metrics       *metrics.Metrics
	log           zerolog.Logger
	notifyTimeout time.Duration

	inflight sync.WaitGroup
}

// NewLedgerUseCase creates a new LedgerUseCase. retrier, notifier and m may be nil.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo LedgerEntryRepository,
	idGen IDGenerator,
	retrier Retrier,
	notifier Notifier,
	m *metrics.Metrics,
	log zerolog.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:     txManager,
		balances:      NewBalanceLedger(accountRepo, m, log),
		entryRepo:     entryRepo,
		idGen:         idGen,
		retrier:       retrier,
		notifier:      notifier,
		metrics:       m,
		log:           log,
		notifyTimeout: DefaultNotificationTimeout,
	}
}

// SetNotificationTimeout bounds each post-commit notification.
func (uc *LedgerUseCase) SetNotificationTimeout(d time.Duration) {
	if d > 0 {
		uc.notifyTimeout = d
	}
}

// CreateLedgerEntryInput represents input for creating a ledger entry.
type CreateLedgerEntryInput struct {
	TenantID      string
	Type          domain.LedgerEntryType
	FromAccountID *string
	ToAccountID   *string
	Amount        decimal.Decimal
	CreatedBy     string
}

// LedgerEntryPage is one page of a ledger entry listing.
type LedgerEntryPage struct {
	Entries    []*domain.LedgerEntry
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// CreateLedgerEntry applies the movement to account balances and records a
// COMPLETED entry, all in one transaction.
func (uc *LedgerUseCase) CreateLedgerEntry(ctx context.Context, input CreateLedgerEntryInput) (*domain.LedgerEntry, error) {
	start := time.Now()
	log := logger.Origin(ctx, uc.log, originLedger)

	// 0. Validate inputs before starting transaction
	if err := validateCreateInput(input); err != nil {
		uc.recordError(err)
		log.Warn().Err(err).Str("type", string(input.Type)).Msg("ledger_entry.rejected")
		return nil, err
	}

	var entry *domain.LedgerEntry
	err := uc.retry(ctx, func() error {
		created, err := uc.createInTx(ctx, input)
		if err != nil {
			return err
		}
		entry = created
		return nil
	})
	if err != nil {
		uc.recordError(err)
		ev := log.Warn()
		if domain.KindOf(err) == domain.KindInternal {
			ev = log.Error()
		}
		ev.Err(err).
			Str("type", string(input.Type)).
			Str("amount", input.Amount.String()).
			Msg("ledger_entry.failed")
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.LedgerEntriesCreated.WithLabelValues(string(entry.Type)).Inc()
		uc.metrics.LedgerEntryDuration.Observe(time.Since(start).Seconds())
		amount, _ := entry.Amount.Float64()
		uc.metrics.LedgerEntryAmount.Observe(amount)
	}

	log.Info().
		Str("ledger_entry_id", entry.ID).
		Str("type", string(entry.Type)).
		Str("amount", entry.Amount.String()).
		Msg("ledger_entry.created")

	uc.notify(ctx, entry)

	return entry, nil
}

func validateCreateInput(input CreateLedgerEntryInput) error {
	if strings.TrimSpace(input.TenantID) == "" {
		return domain.ErrMissingTenant
	}
	if strings.TrimSpace(input.CreatedBy) == "" {
		return domain.ErrMissingActor
	}
	return domain.ValidateMovement(input.Type, input.FromAccountID, input.ToAccountID, input.Amount)
}

func (uc *LedgerUseCase) createInTx(ctx context.Context, input CreateLedgerEntryInput) (*domain.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	// 1. Begin transaction
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// 2. Apply the movement
	if err := uc.applyMovement(ctx, tx, input); err != nil {
		return nil, err
	}

	// 3. Record the entry
	now := time.Now().UTC()
	pending, err := domain.NewLedgerEntry(domain.LedgerEntryProps{
		ID:            uc.idGen.Generate(),
		TenantID:      input.TenantID,
		FromAccountID: input.FromAccountID,
		ToAccountID:   input.ToAccountID,
		Amount:        input.Amount,
		Type:          input.Type,
		CreatedBy:     input.CreatedBy,
		CreatedAt:     now,
	})
	if err != nil {
		return nil, err
	}

	entry, err := pending.MarkCompleted(input.CreatedBy, now)
	if err != nil {
		return nil, err
	}

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	// 4. Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return entry, nil
}

func (uc *LedgerUseCase) applyMovement(ctx context.Context, tx Transaction, input CreateLedgerEntryInput) error {
	tenantID, actor := input.TenantID, input.CreatedBy

	switch input.Type {
	case domain.LedgerEntryTypeTransfer:
		from, to := *input.FromAccountID, *input.ToAccountID
		if err := uc.balances.Lock(ctx, tx, tenantID, from, to); err != nil {
			return err
		}
		if _, err := uc.balances.Debit(ctx, tx, tenantID, from, input.Amount, actor); err != nil {
			return err
		}
		_, err := uc.balances.Credit(ctx, tx, tenantID, to, input.Amount, actor)
		return err

	case domain.LedgerEntryTypeDeposit:
		_, err := uc.balances.Credit(ctx, tx, tenantID, *input.ToAccountID, input.Amount, actor)
		return err

	case domain.LedgerEntryTypeWithdrawal:
		_, err := uc.balances.Debit(ctx, tx, tenantID, *input.FromAccountID, input.Amount, actor)
		return err
	}

	return domain.ErrInvalidEntryType
}

// GetLedgerEntry returns a live entry of the tenant.
func (uc *LedgerUseCase) GetLedgerEntry(ctx context.Context, tenantID, id string) (*domain.LedgerEntry, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, domain.ErrMissingTenant
	}
	return uc.entryRepo.GetByID(ctx, tenantID, id)
}

// ListLedgerEntries returns one page of the tenant's entries, newest first.
func (uc *LedgerUseCase) ListLedgerEntries(ctx context.Context, filter domain.LedgerEntryFilter) (*LedgerEntryPage, error) {
	if strings.TrimSpace(filter.TenantID) == "" {
		return nil, domain.ErrMissingTenant
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, domain.ErrInvalidEntryStatus
	}
	if filter.Type != nil && !filter.Type.IsValid() {
		return nil, domain.ErrInvalidEntryType
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		return nil, domain.ErrInvalidDateRange
	}

	filter.Page, filter.Limit = domain.NormalizePagination(filter.Page, filter.Limit)

	entries, total, err := uc.entryRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &LedgerEntryPage{
		Entries:    entries,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: domain.TotalPages(total, filter.Limit),
	}, nil
}

// UpdateLedgerEntryStatus moves a PENDING entry to COMPLETED or FAILED.
func (uc *LedgerUseCase) UpdateLedgerEntryStatus(ctx context.Context, tenantID, id string, status domain.LedgerEntryStatus, updatedBy string) (*domain.LedgerEntry, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, domain.ErrMissingTenant
	}
	if !status.IsValid() {
		return nil, domain.ErrInvalidEntryStatus
	}
	if status == domain.LedgerEntryStatusPending {
		return nil, domain.ErrInvalidStatusTransition
	}

	var updated *domain.LedgerEntry
	err := uc.inTx(ctx, func(tx Transaction) error {
		current, err := uc.entryRepo.GetByIDForUpdate(ctx, tx, tenantID, id)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if status == domain.LedgerEntryStatusCompleted {
			updated, err = current.MarkCompleted(updatedBy, now)
		} else {
			updated, err = current.MarkFailed(updatedBy, now)
		}
		if err != nil {
			return err
		}

		return uc.entryRepo.Update(ctx, tx, updated)
	})
	if err != nil {
		return nil, err
	}

	l := logger.Origin(ctx, uc.log, originLedger)
	l.Info().
		Str("ledger_entry_id", id).
		Str("status", string(updated.Status)).
		Msg("ledger_entry.status_updated")

	return updated, nil
}

// DeleteLedgerEntry soft-deletes an entry, recording who and when.
func (uc *LedgerUseCase) DeleteLedgerEntry(ctx context.Context, tenantID, id, deletedBy string) error {
	if strings.TrimSpace(tenantID) == "" {
		return domain.ErrMissingTenant
	}
	if strings.TrimSpace(deletedBy) == "" {
		return domain.ErrMissingActor
	}

	err := uc.inTx(ctx, func(tx Transaction) error {
		if _, err := uc.entryRepo.GetByIDForUpdate(ctx, tx, tenantID, id); err != nil {
			return err
		}
		return uc.entryRepo.SoftDelete(ctx, tx, tenantID, id, deletedBy, time.Now().UTC())
	})
	if err != nil {
		return err
	}

	l := logger.Origin(ctx, uc.log, originLedger)
	l.Info().
		Str("ledger_entry_id", id).
		Msg("ledger_entry.deleted")

	return nil
}

// WaitForNotifications blocks until in-flight notifications finish or ctx ends.
func (uc *LedgerUseCase) WaitForNotifications(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		uc.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// notify dispatches the created event without blocking the caller.
// Failures are logged and dropped.
func (uc *LedgerUseCase) notify(ctx context.Context, entry *domain.LedgerEntry) {
	if uc.notifier == nil {
		return
	}

	notification := domain.LedgerEntryCreatedNotification(uc.idGen.Generate(), entry)
	log := logger.Origin(ctx, uc.log, originLedger)
	detached := context.WithoutCancel(ctx)

	uc.inflight.Add(1)
	go func() {
		defer uc.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("ledger_entry_id", entry.ID).Msg("ledger_entry.notification.panic")
			}
		}()

		nctx, cancel := context.WithTimeout(detached, uc.notifyTimeout)
		defer cancel()

		if err := uc.notifier.Notify(nctx, notification); err != nil {
			if uc.metrics != nil {
				uc.metrics.NotificationsSent.WithLabelValues("failed").Inc()
			}
			log.Warn().Err(err).Str("ledger_entry_id", entry.ID).Msg("ledger_entry.notification.failed")
			return
		}

		if uc.metrics != nil {
			uc.metrics.NotificationsSent.WithLabelValues("sent").Inc()
		}
		log.Debug().Str("ledger_entry_id", entry.ID).Msg("ledger_entry.notification.sent")
	}()
}

func (uc *LedgerUseCase) inTx(ctx context.Context, fn func(tx Transaction) error) error {
	return uc.retry(ctx, func() error {
		ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if err := fn(tx); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
}

func (uc *LedgerUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}

func (uc *LedgerUseCase) recordError(err error) {
	if uc.metrics != nil {
		uc.metrics.LedgerEntryErrors.WithLabelValues(string(domain.KindOf(err))).Inc()
	}
}
