package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/payledger/internal/usecase"
)

type pgxPool interface {
	Begin(context.Context) (pgx.Tx, error)
}

// TxManager implements usecase.TransactionManager. Each transaction it opens
// carries a local statement timeout so a stuck balance lock cannot hold
// account rows indefinitely.
type TxManager struct {
	pool             pgxPool
	statementTimeout time.Duration
}

// NewTxManager creates a new TxManager. A zero statementTimeout keeps the
// server default.
func NewTxManager(pool *pgxpool.Pool, statementTimeout time.Duration) *TxManager {
	return newTxManagerWithPool(pool, statementTimeout)
}

func newTxManagerWithPool(pool pgxPool, statementTimeout time.Duration) *TxManager {
	return &TxManager{pool: pool, statementTimeout: statementTimeout}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	if m.statementTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL statement_timeout = %d", m.statementTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("set statement timeout: %w", err)
		}
	}

	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx transaction.
type Tx struct {
	tx pgx.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback rolls back the transaction. Rolling back a transaction that was
// already committed is a no-op, so callers may defer it unconditionally.
func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// PgxTx returns the underlying pgx.Tx.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}
