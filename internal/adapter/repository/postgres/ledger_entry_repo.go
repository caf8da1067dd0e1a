package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/infrastructure/postgres/generated"
	"github.com/iho/payledger/internal/usecase"
)

// LedgerEntryRepository implements usecase.LedgerEntryRepository.
type LedgerEntryRepository struct {
	queries *generated.Queries
}

// NewLedgerEntryRepository creates a new LedgerEntryRepository.
func NewLedgerEntryRepository(db generated.DBTX) *LedgerEntryRepository {
	return &LedgerEntryRepository{
		queries: generated.New(db),
	}
}

// Create inserts an entry inside tx.
func (r *LedgerEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	return queries.CreateLedgerEntry(ctx, generated.CreateLedgerEntryParams{
		ID:            entry.ID,
		TenantID:      entry.TenantID,
		FromAccountID: stringToPgText(entry.FromAccountID),
		ToAccountID:   stringToPgText(entry.ToAccountID),
		Amount:        decimalToNumeric(entry.Amount),
		Type:          string(entry.Type),
		Status:        string(entry.Status),
		CreatedBy:     entry.CreatedBy,
		CreatedAt:     timeToPgTimestamptz(entry.CreatedAt),
		UpdatedBy:     stringToPgText(entry.UpdatedBy),
		UpdatedAt:     optionalTimeToPgTimestamptz(entry.UpdatedAt),
	})
}

// GetByID retrieves a tenant's entry. Soft-deleted entries are not found.
func (r *LedgerEntryRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.LedgerEntry, error) {
	row, err := r.queries.GetLedgerEntryByID(ctx, generated.GetLedgerEntryByIDParams{TenantID: tenantID, ID: id})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLedgerEntryNotFound
		}
		return nil, err
	}

	return rowToLedgerEntry(row), nil
}

// GetByIDForUpdate retrieves a tenant's entry with a FOR UPDATE lock.
func (r *LedgerEntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.LedgerEntry, error) {
	queries := generated.New(tx.(*Tx).PgxTx())

	row, err := queries.GetLedgerEntryByIDForUpdate(ctx, generated.GetLedgerEntryByIDForUpdateParams{TenantID: tenantID, ID: id})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLedgerEntryNotFound
		}
		return nil, err
	}

	return rowToLedgerEntry(row), nil
}

// List returns one page of a tenant's entries and the total matching count.
func (r *LedgerEntryRepository) List(ctx context.Context, filter domain.LedgerEntryFilter) ([]*domain.LedgerEntry, int64, error) {
	var status, entryType pgtype.Text
	if filter.Status != nil {
		status = pgtype.Text{String: string(*filter.Status), Valid: true}
	}
	if filter.Type != nil {
		entryType = pgtype.Text{String: string(*filter.Type), Valid: true}
	}
	dateFrom := optionalTimeToPgTimestamptz(filter.DateFrom)
	dateTo := optionalTimeToPgTimestamptz(filter.DateTo)

	total, err := r.queries.CountLedgerEntries(ctx, generated.CountLedgerEntriesParams{
		TenantID: filter.TenantID,
		Status:   status,
		Type:     entryType,
		DateFrom: dateFrom,
		DateTo:   dateTo,
	})
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.queries.ListLedgerEntries(ctx, generated.ListLedgerEntriesParams{
		TenantID: filter.TenantID,
		Status:   status,
		Type:     entryType,
		DateFrom: dateFrom,
		DateTo:   dateTo,
		Limit:    int32(filter.Limit),
		Offset:   int32(filter.Offset()),
	})
	if err != nil {
		return nil, 0, err
	}

	entries := make([]*domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToLedgerEntry(row))
	}

	return entries, total, nil
}

// Update persists the entry's status transition.
func (r *LedgerEntryRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	n, err := queries.UpdateLedgerEntryStatus(ctx, generated.UpdateLedgerEntryStatusParams{
		TenantID:  entry.TenantID,
		ID:        entry.ID,
		Status:    string(entry.Status),
		UpdatedBy: stringToPgText(entry.UpdatedBy),
		UpdatedAt: optionalTimeToPgTimestamptz(entry.UpdatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrLedgerEntryNotFound
	}

	return nil
}

// SoftDelete marks the entry deleted by deletedBy at deletedAt.
func (r *LedgerEntryRepository) SoftDelete(ctx context.Context, tx usecase.Transaction, tenantID, id, deletedBy string, deletedAt time.Time) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	n, err := queries.SoftDeleteLedgerEntry(ctx, generated.SoftDeleteLedgerEntryParams{
		TenantID:  tenantID,
		ID:        id,
		DeletedBy: stringToPgText(&deletedBy),
		DeletedAt: timeToPgTimestamptz(deletedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrLedgerEntryNotFound
	}

	return nil
}

// AccountMovements sums the completed credits and debits of an account.
func (r *LedgerEntryRepository) AccountMovements(ctx context.Context, tenantID, accountID string) (credits, debits decimal.Decimal, err error) {
	row, err := r.queries.SumAccountMovements(ctx, generated.SumAccountMovementsParams{
		TenantID:  tenantID,
		AccountID: stringToPgText(&accountID),
	})
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(row.Credits), numericToDecimal(row.Debits), nil
}

func rowToLedgerEntry(row generated.LedgerEntry) *domain.LedgerEntry {
	return domain.ReconstructLedgerEntry(domain.LedgerEntryProps{
		ID:            row.ID,
		TenantID:      row.TenantID,
		FromAccountID: pgTextToString(row.FromAccountID),
		ToAccountID:   pgTextToString(row.ToAccountID),
		Amount:        numericToDecimal(row.Amount),
		Type:          domain.LedgerEntryType(row.Type),
		Status:        domain.LedgerEntryStatus(row.Status),
		CreatedBy:     row.CreatedBy,
		CreatedAt:     row.CreatedAt.Time,
		UpdatedBy:     pgTextToString(row.UpdatedBy),
		UpdatedAt:     pgTimestamptzToTime(row.UpdatedAt),
		DeletedBy:     pgTextToString(row.DeletedBy),
		DeletedAt:     pgTimestamptzToTime(row.DeletedAt),
	})
}
