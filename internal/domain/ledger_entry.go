package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntryType is the kind of money movement an entry records.
type LedgerEntryType string

const (
	LedgerEntryTypeDeposit    LedgerEntryType = "DEPOSIT"
	LedgerEntryTypeWithdrawal LedgerEntryType = "WITHDRAWAL"
	LedgerEntryTypeTransfer   LedgerEntryType = "TRANSFER"
)

// IsValid reports whether t is a known entry type.
func (t LedgerEntryType) IsValid() bool {
	switch t {
	case LedgerEntryTypeDeposit, LedgerEntryTypeWithdrawal, LedgerEntryTypeTransfer:
		return true
	}
	return false
}

// LedgerEntryStatus is the lifecycle state of an entry.
type LedgerEntryStatus string

const (
	LedgerEntryStatusPending   LedgerEntryStatus = "PENDING"
	LedgerEntryStatusCompleted LedgerEntryStatus = "COMPLETED"
	LedgerEntryStatusFailed    LedgerEntryStatus = "FAILED"
)

// IsValid reports whether s is a known entry status.
func (s LedgerEntryStatus) IsValid() bool {
	switch s {
	case LedgerEntryStatusPending, LedgerEntryStatusCompleted, LedgerEntryStatusFailed:
		return true
	}
	return false
}

// LedgerEntry records one financial movement. Amount, accounts, type and
// tenant are fixed at creation; only the status changes, through
// MarkCompleted and MarkFailed.
type LedgerEntry struct {
	ID            string
	TenantID      string
	FromAccountID *string
	ToAccountID   *string
	Amount        decimal.Decimal
	Type          LedgerEntryType
	Status        LedgerEntryStatus
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedBy     *string
	UpdatedAt     *time.Time
	DeletedBy     *string
	DeletedAt     *time.Time
}

// LedgerEntryProps carries the fields used to create or rebuild an entry.
type LedgerEntryProps struct {
	ID            string
	TenantID      string
	FromAccountID *string
	ToAccountID   *string
	Amount        decimal.Decimal
	Type          LedgerEntryType
	Status        LedgerEntryStatus
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedBy     *string
	UpdatedAt     *time.Time
	DeletedBy     *string
	DeletedAt     *time.Time
}

// NewLedgerEntry validates props and returns a PENDING entry.
// Status and audit fields other than CreatedBy/CreatedAt are ignored.
func NewLedgerEntry(props LedgerEntryProps) (*LedgerEntry, error) {
	if strings.TrimSpace(props.TenantID) == "" {
		return nil, ErrMissingTenant
	}
	if strings.TrimSpace(props.CreatedBy) == "" {
		return nil, ErrMissingActor
	}
	if err := ValidateMovement(props.Type, props.FromAccountID, props.ToAccountID, props.Amount); err != nil {
		return nil, err
	}

	createdAt := props.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return &LedgerEntry{
		ID:            props.ID,
		TenantID:      props.TenantID,
		FromAccountID: copyString(props.FromAccountID),
		ToAccountID:   copyString(props.ToAccountID),
		Amount:        props.Amount,
		Type:          props.Type,
		Status:        LedgerEntryStatusPending,
		CreatedBy:     props.CreatedBy,
		CreatedAt:     createdAt,
	}, nil
}

// ReconstructLedgerEntry rebuilds an entry from storage without validation.
func ReconstructLedgerEntry(props LedgerEntryProps) *LedgerEntry {
	return &LedgerEntry{
		ID:            props.ID,
		TenantID:      props.TenantID,
		FromAccountID: copyString(props.FromAccountID),
		ToAccountID:   copyString(props.ToAccountID),
		Amount:        props.Amount,
		Type:          props.Type,
		Status:        props.Status,
		CreatedBy:     props.CreatedBy,
		CreatedAt:     props.CreatedAt,
		UpdatedBy:     copyString(props.UpdatedBy),
		UpdatedAt:     copyTime(props.UpdatedAt),
		DeletedBy:     copyString(props.DeletedBy),
		DeletedAt:     copyTime(props.DeletedAt),
	}
}

// ValidateMovement checks the amount and the per-type account rules.
func ValidateMovement(entryType LedgerEntryType, fromAccountID, toAccountID *string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := ValidateAmountScale(amount); err != nil {
		return err
	}

	switch entryType {
	case LedgerEntryTypeTransfer:
		if isBlank(fromAccountID) {
			return ErrMissingSourceAccount
		}
		if isBlank(toAccountID) {
			return ErrMissingDestination
		}
		if *fromAccountID == *toAccountID {
			return ErrSameAccount
		}
	case LedgerEntryTypeDeposit:
		if isBlank(toAccountID) {
			return ErrMissingDestination
		}
	case LedgerEntryTypeWithdrawal:
		if isBlank(fromAccountID) {
			return ErrMissingSourceAccount
		}
	default:
		return ErrInvalidEntryType
	}

	return nil
}

// MarkCompleted returns a copy of e moved from PENDING to COMPLETED.
func (e *LedgerEntry) MarkCompleted(actor string, at time.Time) (*LedgerEntry, error) {
	return e.transition(LedgerEntryStatusCompleted, actor, at)
}

// MarkFailed returns a copy of e moved from PENDING to FAILED.
func (e *LedgerEntry) MarkFailed(actor string, at time.Time) (*LedgerEntry, error) {
	return e.transition(LedgerEntryStatusFailed, actor, at)
}

func (e *LedgerEntry) transition(to LedgerEntryStatus, actor string, at time.Time) (*LedgerEntry, error) {
	if e.Status != LedgerEntryStatusPending {
		return nil, ErrInvalidStatusTransition
	}
	if strings.TrimSpace(actor) == "" {
		return nil, ErrMissingActor
	}

	next := *e
	next.Status = to
	next.UpdatedBy = &actor
	next.UpdatedAt = &at

	return &next, nil
}

// IsDeleted reports whether the entry was soft-deleted.
func (e *LedgerEntry) IsDeleted() bool {
	return e.DeletedAt != nil
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// LedgerEntryFilter selects entries for listing. Nil fields do not filter.
type LedgerEntryFilter struct {
	TenantID string
	Status   *LedgerEntryStatus
	Type     *LedgerEntryType
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	Limit    int
}

// Offset returns the row offset for the filter's page.
func (f LedgerEntryFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}
