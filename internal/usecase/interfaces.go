package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/payledger/internal/domain"
)

// AccountRepository defines data access for accounts.
// Every read is tenant-scoped and skips soft-deleted rows.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, tenantID, id string) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, tenantID, id string, balance decimal.Decimal, updatedBy string, updatedAt time.Time) error
	List(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Account, error)
}

// LedgerEntryRepository defines data access for ledger entries.
type LedgerEntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.LedgerEntry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, tenantID, id string) (*domain.LedgerEntry, error)
	List(ctx context.Context, filter domain.LedgerEntryFilter) ([]*domain.LedgerEntry, int64, error)
	Update(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	SoftDelete(ctx context.Context, tx Transaction, tenantID, id, deletedBy string, deletedAt time.Time) error
}

// LedgerEntryCreator records a movement as a committed ledger entry.
type LedgerEntryCreator interface {
	CreateLedgerEntry(ctx context.Context, input CreateLedgerEntryInput) (*domain.LedgerEntry, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient store failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Notifier delivers a post-commit notification. Delivery may fail.
type Notifier interface {
	Notify(ctx context.Context, notification *domain.Notification) error
}

// PaymentProvider is an external payment gateway.
type PaymentProvider interface {
	Kind() domain.ProviderKind
	CreatePayment(ctx context.Context, req domain.CreatePaymentRequest) (*domain.PaymentResult, error)
	RefundPayment(ctx context.Context, req domain.RefundRequest) (*domain.RefundResult, error)
	HandleWebhookNotification(ctx context.Context, tenantID string, event []byte) (*domain.WebhookResult, error)
	ExtractExternalInvoiceID(event []byte) (string, error)
	ComputeTax(ctx context.Context, amount decimal.Decimal, method domain.PaymentMethodType, hasAntifraud bool) (decimal.Decimal, error)
	CreateRecipient(ctx context.Context, req domain.RecipientRequest) (*domain.Recipient, error)
	UpdateRecipient(ctx context.Context, externalID string, req domain.RecipientRequest) (*domain.Recipient, error)
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX stores value only if key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request may be retried.
	Release(ctx context.Context, key string) error
}
