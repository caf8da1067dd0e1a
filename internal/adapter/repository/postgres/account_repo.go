package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/infrastructure/postgres/generated"
	"github.com/iho/payledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{
		queries: generated.New(db),
	}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.queries.CreateAccount(ctx, generated.CreateAccountParams{
		ID:        account.ID,
		TenantID:  account.TenantID,
		ProfileID: stringToPgText(account.ProfileID),
		Name:      account.Name,
		Balance:   decimalToNumeric(account.Balance),
		CreatedBy: account.CreatedBy,
		CreatedAt: timeToPgTimestamptz(account.CreatedAt),
	})

	return err
}

// GetByID retrieves a tenant's account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, generated.GetAccountByIDParams{TenantID: tenantID, ID: id})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row), nil
}

// GetByIDForUpdate retrieves a tenant's account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.Account, error) {
	queries := generated.New(tx.(*Tx).PgxTx())

	row, err := queries.GetAccountByIDForUpdate(ctx, generated.GetAccountByIDForUpdateParams{TenantID: tenantID, ID: id})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row), nil
}

// UpdateBalance overwrites the balance of a locked account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, tenantID, id string, balance decimal.Decimal, updatedBy string, updatedAt time.Time) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	n, err := queries.UpdateAccountBalance(ctx, generated.UpdateAccountBalanceParams{
		TenantID:  tenantID,
		ID:        id,
		Balance:   decimalToNumeric(balance),
		UpdatedBy: stringToPgText(&updatedBy),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// List lists a tenant's accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		TenantID: tenantID,
		Limit:    int32(limit),
		Offset:   int32(offset),
	})
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:        row.ID,
		TenantID:  row.TenantID,
		ProfileID: pgTextToString(row.ProfileID),
		Name:      row.Name,
		Balance:   numericToDecimal(row.Balance),
		CreatedBy: row.CreatedBy,
		CreatedAt: row.CreatedAt.Time,
		UpdatedBy: pgTextToString(row.UpdatedBy),
		UpdatedAt: pgTimestamptzToTime(row.UpdatedAt),
		DeletedAt: pgTimestamptzToTime(row.DeletedAt),
	}
}
