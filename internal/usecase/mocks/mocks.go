package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/usecase"
)

func accountKey(tenantID, id string) string { return tenantID + "/" + id }

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc           func(ctx context.Context, account *domain.Account) error
	GetByIDFunc          func(ctx context.Context, tenantID, id string) (*domain.Account, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.Account, error)
	UpdateBalanceFunc    func(ctx context.Context, tx usecase.Transaction, tenantID, id string, balance decimal.Decimal, updatedBy string, updatedAt time.Time) error
	ListFunc             func(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Account, error)

	UpdateBalanceCalls int
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Seed stores account as-is.
func (m *MockAccountRepository) Seed(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[accountKey(account.TenantID, account.ID)] = account
}

// Balance returns the stored balance of an account.
func (m *MockAccountRepository) Balance(tenantID, id string) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[accountKey(tenantID, id)]; ok {
		return acc.Balance
	}
	return decimal.Zero
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.Seed(account)
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, tenantID, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[accountKey(tenantID, id)]; ok && acc.DeletedAt == nil {
		cp := *acc
		return &cp, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.Account, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, tenantID, id)
	}
	return m.GetByID(ctx, tenantID, id)
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, tenantID, id string, balance decimal.Decimal, updatedBy string, updatedAt time.Time) error {
	m.mu.Lock()
	m.UpdateBalanceCalls++
	m.mu.Unlock()
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, tenantID, id, balance, updatedBy, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[accountKey(tenantID, id)]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.Balance = balance
	acc.UpdatedBy = &updatedBy
	acc.UpdatedAt = &updatedAt
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, tenantID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		if acc.TenantID == tenantID && acc.DeletedAt == nil {
			accounts = append(accounts, acc)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return page(accounts, limit, offset), nil
}

// MockLedgerEntryRepository is a mock implementation of LedgerEntryRepository.
type MockLedgerEntryRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.LedgerEntry

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
	GetByIDFunc          func(ctx context.Context, tenantID, id string) (*domain.LedgerEntry, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.LedgerEntry, error)
	ListFunc             func(ctx context.Context, filter domain.LedgerEntryFilter) ([]*domain.LedgerEntry, int64, error)
	UpdateFunc           func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
	SoftDeleteFunc       func(ctx context.Context, tx usecase.Transaction, tenantID, id, deletedBy string, deletedAt time.Time) error

	CreateCalls int
}

func NewMockLedgerEntryRepository() *MockLedgerEntryRepository {
	return &MockLedgerEntryRepository{
		entries: make(map[string]*domain.LedgerEntry),
	}
}

// Seed stores entry as-is.
func (m *MockLedgerEntryRepository) Seed(entry *domain.LedgerEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[accountKey(entry.TenantID, entry.ID)] = entry
}

// Stored returns the raw stored entry, including soft-deleted ones.
func (m *MockLedgerEntryRepository) Stored(tenantID, id string) *domain.LedgerEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[accountKey(tenantID, id)]
}

func (m *MockLedgerEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	m.mu.Lock()
	m.CreateCalls++
	m.mu.Unlock()
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.Seed(entry)
	return nil
}

func (m *MockLedgerEntryRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.LedgerEntry, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, tenantID, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[accountKey(tenantID, id)]; ok && !e.IsDeleted() {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrLedgerEntryNotFound
}

func (m *MockLedgerEntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.LedgerEntry, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, tenantID, id)
	}
	return m.GetByID(ctx, tenantID, id)
}

func (m *MockLedgerEntryRepository) List(ctx context.Context, filter domain.LedgerEntryFilter) ([]*domain.LedgerEntry, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*domain.LedgerEntry
	for _, e := range m.entries {
		if e.TenantID != filter.TenantID || e.IsDeleted() {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && e.Type != *filter.Type {
			continue
		}
		if filter.DateFrom != nil && e.CreatedAt.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && e.CreatedAt.After(*filter.DateTo) {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return page(matched, filter.Limit, filter.Offset()), int64(len(matched)), nil
}

func (m *MockLedgerEntryRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := accountKey(entry.TenantID, entry.ID)
	if _, ok := m.entries[key]; !ok {
		return domain.ErrLedgerEntryNotFound
	}
	m.entries[key] = entry
	return nil
}

func (m *MockLedgerEntryRepository) SoftDelete(ctx context.Context, tx usecase.Transaction, tenantID, id, deletedBy string, deletedAt time.Time) error {
	if m.SoftDeleteFunc != nil {
		return m.SoftDeleteFunc(ctx, tx, tenantID, id, deletedBy, deletedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[accountKey(tenantID, id)]
	if !ok || e.IsDeleted() {
		return domain.ErrLedgerEntryNotFound
	}
	e.DeletedBy = &deletedBy
	e.DeletedAt = &deletedAt
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	mu        sync.Mutex
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	Begins    int
	Commits   int
	Rollbacks int
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	m.mu.Lock()
	m.Begins++
	m.mu.Unlock()
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{manager: m}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	manager   *MockTransactionManager
	committed bool
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.committed = true
	if m.manager != nil {
		m.manager.mu.Lock()
		m.manager.Commits++
		m.manager.mu.Unlock()
	}
	return nil
}

// Rollback after a commit is a no-op, like pgx.
func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	if m.committed {
		return nil
	}
	if m.manager != nil {
		m.manager.mu.Lock()
		m.manager.Rollbacks++
		m.manager.mu.Unlock()
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}

// MockRetrier is a mock implementation of Retrier.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
	Calls     int
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	m.Calls++
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// MockNotifier is a mock implementation of Notifier.
type MockNotifier struct {
	mu   sync.Mutex
	sent []*domain.Notification

	NotifyFunc func(ctx context.Context, notification *domain.Notification) error
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, notification *domain.Notification) error {
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, notification)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, notification)
	return nil
}

// Sent returns the notifications delivered so far.
func (m *MockNotifier) Sent() []*domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Notification(nil), m.sent...)
}

// MockCache is a mock implementation of Cache.
type MockCache struct {
	mu   sync.Mutex
	data map[string][]byte

	SetNXFunc  func(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockCache() *MockCache {
	return &MockCache{data: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCache) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if m.SetNXFunc != nil {
		return m.SetNXFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value
	return true, nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Has reports whether key is stored.
func (m *MockCache) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MockLedgerEntryCreator is a mock implementation of LedgerEntryCreator.
type MockLedgerEntryCreator struct {
	mu     sync.Mutex
	inputs []usecase.CreateLedgerEntryInput

	CreateLedgerEntryFunc func(ctx context.Context, input usecase.CreateLedgerEntryInput) (*domain.LedgerEntry, error)
}

func (m *MockLedgerEntryCreator) CreateLedgerEntry(ctx context.Context, input usecase.CreateLedgerEntryInput) (*domain.LedgerEntry, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, input)
	n := len(m.inputs)
	m.mu.Unlock()
	if m.CreateLedgerEntryFunc != nil {
		return m.CreateLedgerEntryFunc(ctx, input)
	}
	now := time.Now().UTC()
	return &domain.LedgerEntry{
		ID:            fmt.Sprintf("le-%d", n),
		TenantID:      input.TenantID,
		FromAccountID: input.FromAccountID,
		ToAccountID:   input.ToAccountID,
		Amount:        input.Amount,
		Type:          input.Type,
		Status:        domain.LedgerEntryStatusCompleted,
		CreatedBy:     input.CreatedBy,
		CreatedAt:     now,
		UpdatedBy:     &input.CreatedBy,
		UpdatedAt:     &now,
	}, nil
}

// Inputs returns every input received so far.
func (m *MockLedgerEntryCreator) Inputs() []usecase.CreateLedgerEntryInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]usecase.CreateLedgerEntryInput(nil), m.inputs...)
}
