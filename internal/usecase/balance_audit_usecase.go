package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/payledger/internal/domain"
)

// AccountMovementReader sums the completed movements of an account.
type AccountMovementReader interface {
	AccountMovements(ctx context.Context, tenantID, accountID string) (credits, debits decimal.Decimal, err error)
}

// BalanceAuditUseCase compares stored balances with the ledger that produced them.
type BalanceAuditUseCase struct {
	accountRepo AccountRepository
	movements   AccountMovementReader
	now         func() time.Time
}

// NewBalanceAuditUseCase creates a new balance audit use case.
func NewBalanceAuditUseCase(accountRepo AccountRepository, movements AccountMovementReader) *BalanceAuditUseCase {
	return &BalanceAuditUseCase{
		accountRepo: accountRepo,
		movements:   movements,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// BalanceAuditResult is the outcome of auditing one account.
type BalanceAuditResult struct {
	AccountID         string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	CheckedAt         time.Time
}

// AuditAccount recomputes an account's balance as completed credits minus
// completed debits. Accounts open at zero, so the two must match.
func (uc *BalanceAuditUseCase) AuditAccount(ctx context.Context, tenantID, accountID string) (*BalanceAuditResult, error) {
	account, err := uc.accountRepo.GetByID(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}

	credits, debits, err := uc.movements.AccountMovements(ctx, tenantID, accountID)
	if err != nil {
		return nil, fmt.Errorf("sum movements of %s: %w", accountID, err)
	}

	calculated := credits.Sub(debits)
	diff := account.Balance.Sub(calculated)

	return &BalanceAuditResult{
		AccountID:         accountID,
		RecordedBalance:   account.Balance,
		CalculatedBalance: calculated,
		Difference:        diff,
		IsReconciled:      diff.IsZero(),
		CheckedAt:         uc.now(),
	}, nil
}

// BalanceAuditReport summarizes an audit over a tenant's accounts.
type BalanceAuditReport struct {
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*BalanceAuditResult
	CheckedAt          time.Time
}

// AuditTenant audits up to limit accounts of a tenant.
func (uc *BalanceAuditUseCase) AuditTenant(ctx context.Context, tenantID string, limit int) (*BalanceAuditReport, error) {
	if tenantID == "" {
		return nil, domain.ErrMissingTenant
	}
	if limit <= 0 || limit > 10000 {
		limit = 10000
	}

	accounts, err := uc.accountRepo.List(ctx, tenantID, limit, 0)
	if err != nil {
		return nil, err
	}

	report := &BalanceAuditReport{
		TotalAccounts: len(accounts),
		Discrepancies: make([]*BalanceAuditResult, 0),
		CheckedAt:     uc.now(),
	}

	for _, account := range accounts {
		result, err := uc.AuditAccount(ctx, tenantID, account.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to audit account %s: %w", account.ID, err)
		}
		if result.IsReconciled {
			report.ReconciledAccounts++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	return report, nil
}
