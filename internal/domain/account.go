package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a tenant-scoped balance holder.
type Account struct {
	ID        string
	TenantID  string
	ProfileID *string
	Name      string
	Balance   decimal.Decimal
	CreatedBy string
	CreatedAt time.Time
	UpdatedBy *string
	UpdatedAt *time.Time
	DeletedAt *time.Time
}

// Debit returns the balance left after taking amount out. The account is
// not modified. A result below zero fails with ErrInsufficientBalance.
func (a *Account) Debit(amount decimal.Decimal) (decimal.Decimal, error) {
	next := a.Balance.Sub(amount)
	if next.IsNegative() {
		return a.Balance, ErrInsufficientBalance
	}
	return next, nil
}

// Credit returns the balance after adding amount.
func (a *Account) Credit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// Deleted reports whether the account has been soft-deleted.
func (a *Account) Deleted() bool {
	return a.DeletedAt != nil
}
