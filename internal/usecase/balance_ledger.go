package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/infrastructure/logger"
	"github.com/iho/payledger/internal/infrastructure/metrics"
)

// BalanceLedger is the only writer of account balances. Every method runs
// inside the caller's transaction and never opens its own.
type BalanceLedger struct {
	accountRepo AccountRepository
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

// NewBalanceLedger creates a new BalanceLedger.
func NewBalanceLedger(accountRepo AccountRepository, m *metrics.Metrics, log zerolog.Logger) *BalanceLedger {
	return &BalanceLedger{
		accountRepo: accountRepo,
		metrics:     m,
		log:         log,
	}
}

// Lock row-locks the given accounts in sorted id order, failing with
// ErrAccountNotFound if any is missing.
func (b *BalanceLedger) Lock(ctx context.Context, tx Transaction, tenantID string, accountIDs ...string) error {
	if tx == nil {
		return domain.ErrTransactionRequired
	}

	ids := append([]string(nil), accountIDs...)
	sort.Strings(ids)

	for _, id := range ids {
		if _, err := b.load(ctx, tx, tenantID, id); err != nil {
			return err
		}
	}

	return nil
}

// Debit subtracts amount from the account and returns the new balance.
// A debit that would leave the balance negative fails with ErrInsufficientBalance.
func (b *BalanceLedger) Debit(ctx context.Context, tx Transaction, tenantID, accountID string, amount decimal.Decimal, actor string) (decimal.Decimal, error) {
	if tx == nil {
		return decimal.Zero, domain.ErrTransactionRequired
	}
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	account, err := b.load(ctx, tx, tenantID, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	newBalance, err := account.Debit(amount)
	if err != nil {
		l := logger.Origin(ctx, b.log, originBalance)
		l.Warn().
			Str("account_id", accountID).
			Str("balance", account.Balance.String()).
			Str("amount", amount.String()).
			Msg("balance.debit.rejected")
		return decimal.Zero, err
	}

	if err := b.write(ctx, tx, tenantID, accountID, newBalance, actor); err != nil {
		return decimal.Zero, err
	}

	if b.metrics != nil {
		b.metrics.BalanceOperations.WithLabelValues("debit").Inc()
	}

	return newBalance, nil
}

// Credit adds amount to the account and returns the new balance.
func (b *BalanceLedger) Credit(ctx context.Context, tx Transaction, tenantID, accountID string, amount decimal.Decimal, actor string) (decimal.Decimal, error) {
	if tx == nil {
		return decimal.Zero, domain.ErrTransactionRequired
	}
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	account, err := b.load(ctx, tx, tenantID, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	newBalance := account.Credit(amount)
	if err := b.write(ctx, tx, tenantID, accountID, newBalance, actor); err != nil {
		return decimal.Zero, err
	}

	if b.metrics != nil {
		b.metrics.BalanceOperations.WithLabelValues("credit").Inc()
	}

	return newBalance, nil
}

func (b *BalanceLedger) load(ctx context.Context, tx Transaction, tenantID, accountID string) (*domain.Account, error) {
	account, err := b.accountRepo.GetByIDForUpdate(ctx, tx, tenantID, accountID)
	if err != nil {
		return nil, err
	}
	if account.TenantID != tenantID {
		return nil, domain.ErrTenantMismatch
	}
	if account.Deleted() {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

func (b *BalanceLedger) write(ctx context.Context, tx Transaction, tenantID, accountID string, balance decimal.Decimal, actor string) error {
	err := b.accountRepo.UpdateBalance(ctx, tx, tenantID, accountID, balance, actor, time.Now().UTC())
	if err != nil {
		l := logger.Origin(ctx, b.log, originBalance)
		l.Error().Err(err).
			Str("account_id", accountID).
			Msg("balance.update.failed")
	}
	return err
}
