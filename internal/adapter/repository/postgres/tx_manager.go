package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/iho/ledgerpost/internal/infrastructure/postgres/generated"
	"github.com/iho/ledgerpost/internal/usecase"
)

// ErrForeignTransaction is returned when a repository receives a
// usecase.Transaction that was not started by TxManager.
var ErrForeignTransaction = errors.New("postgres: transaction was not started by this adapter")

// DB is the part of *pgxpool.Pool the adapter uses.
type DB interface {
	generated.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	pool DB
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool DB) *TxManager {
	return &TxManager{pool: pool}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx transaction.
type Tx struct {
	tx pgx.Tx

	mu        sync.Mutex
	hooks     []func(ctx context.Context)
	committed bool
}

// Commit commits the transaction and then runs the after-commit hooks.
func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return err
	}

	t.mu.Lock()
	t.committed = true
	hooks := t.hooks
	t.hooks = nil
	t.mu.Unlock()

	hookCtx := context.WithoutCancel(ctx)
	for _, fn := range hooks {
		fn(hookCtx)
	}
	return nil
}

// Rollback rolls back the transaction. It is a no-op once the transaction
// has committed.
func (t *Tx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	committed := t.committed
	t.hooks = nil
	t.mu.Unlock()
	if committed {
		return nil
	}

	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// AfterCommit queues fn to run once the transaction commits.
func (t *Tx) AfterCommit(fn func(ctx context.Context)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hooks = append(t.hooks, fn)
}

// PgxTx returns the underlying pgx.Tx.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}

func pgxTxOf(t usecase.Transaction) (pgx.Tx, error) {
	tx, ok := t.(*Tx)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrForeignTransaction, t)
	}
	return tx.tx, nil
}

// conn binds repositories to the pool and, when given, a transaction.
type conn struct {
	pool DB
}

// queries returns queries bound to t, or to the pool when t is nil.
func (c conn) queries(t usecase.Transaction) (*generated.Queries, error) {
	if t == nil {
		return generated.New(c.pool), nil
	}
	tx, err := pgxTxOf(t)
	if err != nil {
		return nil, err
	}
	return generated.New(tx), nil
}

// savepoint runs fn inside a nested transaction so a failed statement does
// not poison t. With a nil t it runs in a fresh transaction on the pool.
func (c conn) savepoint(ctx context.Context, t usecase.Transaction, fn func(q *generated.Queries) error) error {
	var (
		nested pgx.Tx
		err    error
	)
	if t == nil {
		nested, err = c.pool.Begin(ctx)
	} else {
		var outer pgx.Tx
		if outer, err = pgxTxOf(t); err == nil {
			nested, err = outer.Begin(ctx)
		}
	}
	if err != nil {
		return err
	}

	if err := fn(generated.New(nested)); err != nil {
		_ = nested.Rollback(ctx)
		return err
	}
	return nested.Commit(ctx)
}
