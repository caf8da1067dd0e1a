package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/infrastructure/metrics"
	"github.com/iho/payledger/internal/usecase"
	"github.com/iho/payledger/internal/usecase/mocks"
)

type ledgerFixture struct {
	accounts *mocks.MockAccountRepository
	entries  *mocks.MockLedgerEntryRepository
	txMgr    *mocks.MockTransactionManager
	notifier *mocks.MockNotifier
	metrics  *metrics.Metrics
	uc       *usecase.LedgerUseCase
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	f := &ledgerFixture{
		accounts: mocks.NewMockAccountRepository(),
		entries:  mocks.NewMockLedgerEntryRepository(),
		txMgr:    mocks.NewMockTransactionManager(),
		notifier: mocks.NewMockNotifier(),
		metrics:  metrics.NewWithRegistry(prometheus.NewRegistry()),
	}
	f.uc = usecase.NewLedgerUseCase(f.txMgr, f.accounts, f.entries, mocks.NewMockIDGenerator(), nil, f.notifier, f.metrics, zerolog.Nop())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = f.uc.WaitForNotifications(ctx)
	})

	return f
}

func (f *ledgerFixture) seed(tenantID, id, balance string) {
	f.accounts.Seed(&domain.Account{
		ID:       id,
		TenantID: tenantID,
		Name:     id,
		Balance:  decimal.RequireFromString(balance),
	})
}

func ptr(s string) *string { return &s }

func TestLedgerUseCase_Deposit(t *testing.T) {
	f := newLedgerFixture(t)
	f.seed("t1", "a1", "1000.00")

	entry, err := f.uc.CreateLedgerEntry(context.Background(), usecase.CreateLedgerEntryInput{
		TenantID:    "t1",
		Type:        domain.LedgerEntryTypeDeposit,
		ToAccountID: ptr("a1"),
		Amount:      decimal.RequireFromString("100.00"),
		CreatedBy:   "u1",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.LedgerEntryStatusCompleted, entry.Status)
	assert.Equal(t, "1100.00", f.accounts.Balance("t1", "a1").StringFixed(2))
	assert.Equal(t, 1, f.txMgr.Commits)
	assert.Equal(t, 1, f.entries.CreateCalls)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.LedgerEntriesCreated.WithLabelValues("DEPOSIT")))
}

func TestLedgerUseCase_InsufficientWithdrawal(t *testing.T) {
	f := newLedgerFixture(t)
	f.seed("t1", "a1", "50.00")

	_, err := f.uc.CreateLedgerEntry(context.Background(), usecase.CreateLedgerEntryInput{
		TenantID:      "t1",
		Type:          domain.LedgerEntryTypeWithdrawal,
		FromAccountID: ptr("a1"),
		Amount:        decimal.RequireFromString("100.00"),
		CreatedBy:     "u1",
	})

	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, domain.KindDomain, domain.KindOf(err))
	assert.Equal(t, "50.00", f.accounts.Balance("t1", "a1").StringFixed(2))
	assert.Equal(t, 0, f.entries.CreateCalls)
	assert.Equal(t, 0, f.txMgr.Commits)
	assert.Equal(t, 1, f.txMgr.Rollbacks)
	assert.Empty(t, f.notifier.Sent())
}

func TestLedgerUseCase_TransferMovesExactAmount(t *testing.T) {
	f := newLedgerFixture(t)
	f.seed("t1", "src", "500.00")
	f.seed("t1", "dst", "20.00")

	entry, err := f.uc.CreateLedgerEntry(context.Background(), usecase.CreateLedgerEntryInput{
		TenantID:      "t1",
		Type:          domain.LedgerEntryTypeTransfer,
		FromAccountID: ptr("src"),
		ToAccountID:   ptr("dst"),
		Amount:        decimal.RequireFromString("120.55"),
		CreatedBy:     "u1",
	})
	require.NoError(t, err)

	src := f.accounts.Balance("t1", "src")
	dst := f.accounts.Balance("t1", "dst")
	assert.Equal(t, "379.45", src.StringFixed(2))
	assert.Equal(t, "140.55", dst.StringFixed(2))
	assert.True(t, src.Add(dst).Equal(decimal.RequireFromString("520.00")), "transfer must conserve total balance")
	assert.Equal(t, "src", *entry.FromAccountID)
	assert.Equal(t, "dst", *entry.ToAccountID)
}

func TestLedgerUseCase_RejectsBeforeOpeningTransaction(t *testing.T) {
	tests := []struct {
		name  string
		input usecase.CreateLedgerEntryInput
		err   error
	}{
		{
			name: "same account transfer",
			input: usecase.CreateLedgerEntryInput{
				TenantID: "t1", Type: domain.LedgerEntryTypeTransfer,
				FromAccountID: ptr("a1"), ToAccountID: ptr("a1"),
				Amount: decimal.NewFromInt(10), CreatedBy: "u1",
			},
			err: domain.ErrSameAccount,
		},
		{
			name: "zero amount",
			input: usecase.CreateLedgerEntryInput{
				TenantID: "t1", Type: domain.LedgerEntryTypeDeposit,
				ToAccountID: ptr("a1"), Amount: decimal.Zero, CreatedBy: "u1",
			},
			err: domain.ErrInvalidAmount,
		},
		{
			name: "withdrawal without source",
			input: usecase.CreateLedgerEntryInput{
				TenantID: "t1", Type: domain.LedgerEntryTypeWithdrawal,
				Amount: decimal.NewFromInt(10), CreatedBy: "u1",
			},
			err: domain.ErrMissingSourceAccount,
		},
		{
			name: "missing tenant",
			input: usecase.CreateLedgerEntryInput{
				Type: domain.LedgerEntryTypeDeposit, ToAccountID: ptr("a1"),
				Amount: decimal.NewFromInt(10), CreatedBy: "u1",
			},
			err: domain.ErrMissingTenant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)

			_, err := f.uc.CreateLedgerEntry(context.Background(), tt.input)

			require.ErrorIs(t, err, tt.err)
			assert.Equal(t, 0, f.txMgr.Begins)
			assert.Equal(t, 0, f.accounts.UpdateBalanceCalls)
		})
	}
}

func TestLedgerUseCase_TransferMissingAccount(t *testing.T) {
	f := newLedgerFixture(t)
	f.seed("t1", "src", "500.00")
	f.seed("t2", "dst", "0")

	_, err := f.uc.CreateLedgerEntry(context.Background(), usecase.CreateLedgerEntryInput{
		TenantID:      "t1",
		Type:          domain.LedgerEntryTypeTransfer,
		FromAccountID: ptr("src"),
		ToAccountID:   ptr("dst"),
		Amount:        decimal.NewFromInt(10),
		CreatedBy:     "u1",
	})

	require.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	assert.Equal(t, 0, f.accounts.UpdateBalanceCalls)
	assert.Equal(t, "500.00", f.accounts.Balance("t1", "src").StringFixed(2))
}

func TestLedgerUseCase_PersistenceFailureRollsBack(t *testing.T) {
	f := newLedgerFixture(t)
	f.seed("t1", "a1", "10")

	dbErr := errors.New("connection lost")
	f.entries.CreateFunc = func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
		return dbErr
	}

	_, err := f.uc.CreateLedgerEntry(context.Background(), usecase.CreateLedgerEntryInput{
		TenantID:    "t1",
		Type:        domain.LedgerEntryTypeDeposit,
		ToAccountID: ptr("a1"),
		Amount:      decimal.NewFromInt(5),
		CreatedBy:   "u1",
	})

	require.ErrorIs(t, err, dbErr)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
	assert.Equal(t, 0, f.txMgr.Commits)
	assert.Equal(t, 1, f.txMgr.Rollbacks)
	assert.Empty(t, f.notifier.Sent())
}

func TestLedgerUseCase_NotificationFailureIsSwallowed(t *testing.T) {
	f := newLedgerFixture(t)
	f.seed("t1", "a1", "0")

	called := make(chan struct{}, 1)
	f.notifier.NotifyFunc = func(ctx context.Context, n *domain.Notification) error {
		called <- struct{}{}
		return errors.New("broker down")
	}

	entry, err := f.uc.CreateLedgerEntry(context.Background(), usecase.CreateLedgerEntryInput{
		TenantID:    "t1",
		Type:        domain.LedgerEntryTypeDeposit,
		ToAccountID: ptr("a1"),
		Amount:      decimal.NewFromInt(5),
		CreatedBy:   "u1",
	})
	require.NoError(t, err)
	require.NotNil(t, entry)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.uc.WaitForNotifications(ctx))

	select {
	case <-called:
	default:
		t.Fatal("notifier was not invoked")
	}
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.NotificationsSent.WithLabelValues("failed")))
	assert.Equal(t, "5", f.accounts.Balance("t1", "a1").String())
}

func TestLedgerUseCase_NotificationOutlivesRequestContext(t *testing.T) {
	f := newLedgerFixture(t)
	f.seed("t1", "a1", "0")

	release := make(chan struct{})
	ctxErr := make(chan error, 1)
	f.notifier.NotifyFunc = func(ctx context.Context, n *domain.Notification) error {
		<-release
		ctxErr <- ctx.Err()
		return nil
	}

	reqCtx, cancelReq := context.WithCancel(context.Background())
	_, err := f.uc.CreateLedgerEntry(reqCtx, usecase.CreateLedgerEntryInput{
		TenantID:    "t1",
		Type:        domain.LedgerEntryTypeDeposit,
		ToAccountID: ptr("a1"),
		Amount:      decimal.NewFromInt(1),
		CreatedBy:   "u1",
	})
	require.NoError(t, err)

	cancelReq()
	close(release)

	select {
	case err := <-ctxErr:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("notification did not run")
	}
}

func TestLedgerUseCase_NotificationPayload(t *testing.T) {
	f := newLedgerFixture(t)
	f.seed("t1", "a1", "0")

	entry, err := f.uc.CreateLedgerEntry(context.Background(), usecase.CreateLedgerEntryInput{
		TenantID:    "t1",
		Type:        domain.LedgerEntryTypeDeposit,
		ToAccountID: ptr("a1"),
		Amount:      decimal.RequireFromString("7.25"),
		CreatedBy:   "u1",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.uc.WaitForNotifications(ctx))

	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.EventTypeLedgerEntryCreated, sent[0].EventType)
	assert.Equal(t, entry.ID, sent[0].ResourceID)
	assert.Equal(t, "7.25", sent[0].Payload["amount"])
}

func TestLedgerUseCase_UsesRetrier(t *testing.T) {
	accounts := mocks.NewMockAccountRepository()
	accounts.Seed(&domain.Account{ID: "a1", TenantID: "t1", Balance: decimal.Zero})
	txMgr := mocks.NewMockTransactionManager()
	retrier := &mocks.MockRetrier{}

	attempts := 0
	retrier.RetryFunc = func(ctx context.Context, op func() error) error {
		for {
			attempts++
			if err := op(); err == nil || attempts >= 2 {
				return err
			}
		}
	}

	entries := mocks.NewMockLedgerEntryRepository()
	failOnce := true
	entries.CreateFunc = func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
		if failOnce {
			failOnce = false
			return errors.New("serialization failure")
		}
		entries.Seed(entry)
		return nil
	}

	uc := usecase.NewLedgerUseCase(txMgr, accounts, entries, mocks.NewMockIDGenerator(), retrier, nil, nil, zerolog.Nop())

	_, err := uc.CreateLedgerEntry(context.Background(), usecase.CreateLedgerEntryInput{
		TenantID:    "t1",
		Type:        domain.LedgerEntryTypeDeposit,
		ToAccountID: ptr("a1"),
		Amount:      decimal.NewFromInt(3),
		CreatedBy:   "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, retrier.Calls)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 2, txMgr.Begins)
	assert.Equal(t, 1, txMgr.Commits)
}

func seedEntry(repo *mocks.MockLedgerEntryRepository, id string, status domain.LedgerEntryStatus, createdAt time.Time) {
	repo.Seed(domain.ReconstructLedgerEntry(domain.LedgerEntryProps{
		ID:          id,
		TenantID:    "t1",
		ToAccountID: ptr("a1"),
		Amount:      decimal.NewFromInt(10),
		Type:        domain.LedgerEntryTypeDeposit,
		Status:      status,
		CreatedBy:   "u1",
		CreatedAt:   createdAt,
	}))
}

func TestLedgerUseCase_ListLedgerEntries(t *testing.T) {
	f := newLedgerFixture(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		seedEntry(f.entries, "le-"+string(rune('a'+i)), domain.LedgerEntryStatusCompleted, base.Add(time.Duration(i)*time.Minute))
	}
	seedEntry(f.entries, "le-failed", domain.LedgerEntryStatusFailed, base)

	page, err := f.uc.ListLedgerEntries(context.Background(), domain.LedgerEntryFilter{TenantID: "t1"})
	require.NoError(t, err)

	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.Limit)
	assert.Equal(t, int64(26), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Entries, 20)
	assert.Equal(t, "le-y", page.Entries[0].ID, "newest entry first")

	again, err := f.uc.ListLedgerEntries(context.Background(), domain.LedgerEntryFilter{TenantID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, page.Entries, again.Entries)

	failed := domain.LedgerEntryStatusFailed
	filtered, err := f.uc.ListLedgerEntries(context.Background(), domain.LedgerEntryFilter{TenantID: "t1", Status: &failed, Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 100, filtered.Limit)
	require.Len(t, filtered.Entries, 1)
	assert.Equal(t, "le-failed", filtered.Entries[0].ID)
}

func TestLedgerUseCase_ListRejectsBadFilter(t *testing.T) {
	f := newLedgerFixture(t)
	from := time.Now()
	to := from.Add(-time.Hour)

	_, err := f.uc.ListLedgerEntries(context.Background(), domain.LedgerEntryFilter{TenantID: "t1", DateFrom: &from, DateTo: &to})
	require.ErrorIs(t, err, domain.ErrInvalidDateRange)

	bogus := domain.LedgerEntryStatus("LOST")
	_, err = f.uc.ListLedgerEntries(context.Background(), domain.LedgerEntryFilter{TenantID: "t1", Status: &bogus})
	require.ErrorIs(t, err, domain.ErrInvalidEntryStatus)
}

func TestLedgerUseCase_UpdateLedgerEntryStatus(t *testing.T) {
	f := newLedgerFixture(t)
	seedEntry(f.entries, "le-1", domain.LedgerEntryStatusPending, time.Now().UTC())

	updated, err := f.uc.UpdateLedgerEntryStatus(context.Background(), "t1", "le-1", domain.LedgerEntryStatusFailed, "u2")
	require.NoError(t, err)
	assert.Equal(t, domain.LedgerEntryStatusFailed, updated.Status)
	assert.Equal(t, "u2", *updated.UpdatedBy)
	assert.Equal(t, domain.LedgerEntryStatusFailed, f.entries.Stored("t1", "le-1").Status)

	_, err = f.uc.UpdateLedgerEntryStatus(context.Background(), "t1", "le-1", domain.LedgerEntryStatusFailed, "u2")
	require.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	_, err = f.uc.UpdateLedgerEntryStatus(context.Background(), "t1", "le-1", domain.LedgerEntryStatusPending, "u2")
	require.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	_, err = f.uc.UpdateLedgerEntryStatus(context.Background(), "t1", "missing", domain.LedgerEntryStatusCompleted, "u2")
	require.ErrorIs(t, err, domain.ErrLedgerEntryNotFound)
}

func TestLedgerUseCase_DeleteLedgerEntry(t *testing.T) {
	f := newLedgerFixture(t)
	seedEntry(f.entries, "le-1", domain.LedgerEntryStatusCompleted, time.Now().UTC())

	require.NoError(t, f.uc.DeleteLedgerEntry(context.Background(), "t1", "le-1", "admin"))

	stored := f.entries.Stored("t1", "le-1")
	require.NotNil(t, stored, "soft delete keeps the row")
	require.NotNil(t, stored.DeletedBy)
	assert.Equal(t, "admin", *stored.DeletedBy)

	_, err := f.uc.GetLedgerEntry(context.Background(), "t1", "le-1")
	require.ErrorIs(t, err, domain.ErrLedgerEntryNotFound)

	err = f.uc.DeleteLedgerEntry(context.Background(), "t1", "le-1", "admin")
	require.ErrorIs(t, err, domain.ErrLedgerEntryNotFound)
}

func TestBalanceLedger_RequiresTransaction(t *testing.T) {
	accounts := mocks.NewMockAccountRepository()
	accounts.Seed(&domain.Account{ID: "a1", TenantID: "t1", Balance: decimal.NewFromInt(10)})
	ledger := usecase.NewBalanceLedger(accounts, nil, zerolog.Nop())

	_, err := ledger.Debit(context.Background(), nil, "t1", "a1", decimal.NewFromInt(1), "u1")
	require.ErrorIs(t, err, domain.ErrTransactionRequired)

	_, err = ledger.Credit(context.Background(), nil, "t1", "a1", decimal.NewFromInt(1), "u1")
	require.ErrorIs(t, err, domain.ErrTransactionRequired)

	assert.Equal(t, 0, accounts.UpdateBalanceCalls)
}

func TestBalanceLedger_DebitAndCredit(t *testing.T) {
	accounts := mocks.NewMockAccountRepository()
	accounts.Seed(&domain.Account{ID: "a1", TenantID: "t1", Balance: decimal.RequireFromString("10.00")})
	ledger := usecase.NewBalanceLedger(accounts, nil, zerolog.Nop())
	tx := &mocks.MockTransaction{}

	balance, err := ledger.Debit(context.Background(), tx, "t1", "a1", decimal.RequireFromString("10.00"), "u1")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	_, err = ledger.Debit(context.Background(), tx, "t1", "a1", decimal.RequireFromString("0.01"), "u1")
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.True(t, accounts.Balance("t1", "a1").IsZero())

	balance, err = ledger.Credit(context.Background(), tx, "t1", "a1", decimal.RequireFromString("2.50"), "u1")
	require.NoError(t, err)
	assert.Equal(t, "2.50", balance.StringFixed(2))

	_, err = ledger.Credit(context.Background(), tx, "t2", "a1", decimal.NewFromInt(1), "u1")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}
