package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/infrastructure/logger"
	"github.com/iho/payledger/internal/infrastructure/metrics"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	accountRepo AccountRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, idGen IDGenerator, m *metrics.Metrics, log zerolog.Logger) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		idGen:       idGen,
		metrics:     m,
		log:         log,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	TenantID  string
	Name      string
	ProfileID *string
	CreatedBy string
}

// CreateAccount creates a new zero-balance account.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if strings.TrimSpace(input.TenantID) == "" {
		return nil, domain.ErrMissingTenant
	}
	if strings.TrimSpace(input.CreatedBy) == "" {
		return nil, domain.ErrMissingActor
	}
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}

	account := &domain.Account{
		ID:        uc.idGen.Generate(),
		TenantID:  input.TenantID,
		ProfileID: input.ProfileID,
		Name:      strings.TrimSpace(input.Name),
		Balance:   decimal.Zero,
		CreatedBy: input.CreatedBy,
		CreatedAt: time.Now().UTC(),
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}

	l := logger.Origin(ctx, uc.log, originAccount)
	l.Info().
		Str("account_id", account.ID).
		Msg("account.created")

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, tenantID, id string) (*domain.Account, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, domain.ErrMissingTenant
	}
	return uc.accountRepo.GetByID(ctx, tenantID, id)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	TenantID string
	Limit    int
	Offset   int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if strings.TrimSpace(input.TenantID) == "" {
		return nil, domain.ErrMissingTenant
	}
	if input.Limit <= 0 {
		input.Limit = domain.DefaultPageSize
	}
	if input.Limit > domain.MaxPageSize {
		input.Limit = domain.MaxPageSize
	}
	if input.Offset < 0 {
		input.Offset = 0
	}
	return uc.accountRepo.List(ctx, input.TenantID, input.Limit, input.Offset)
}
