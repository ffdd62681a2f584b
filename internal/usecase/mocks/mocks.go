package mocks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/iho/ledgerpost/internal/usecase"
)

// FakeTransactionManager hands out FakeTransactions and remembers them.
type FakeTransactionManager struct {
	mu  sync.Mutex
	txs []*FakeTransaction

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewFakeTransactionManager() *FakeTransactionManager {
	return &FakeTransactionManager{}
}

func (m *FakeTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	tx := &FakeTransaction{}
	m.mu.Lock()
	m.txs = append(m.txs, tx)
	m.mu.Unlock()
	return tx, nil
}

// Transactions returns every transaction begun so far.
func (m *FakeTransactionManager) Transactions() []*FakeTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*FakeTransaction(nil), m.txs...)
}

// FakeTransaction runs after-commit hooks on Commit and drops them on Rollback.
type FakeTransaction struct {
	mu         sync.Mutex
	hooks      []func(ctx context.Context)
	Committed  bool
	RolledBack bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *FakeTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		if err := m.CommitFunc(ctx); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Committed = true
	hooks := m.hooks
	m.hooks = nil
	m.mu.Unlock()

	for _, fn := range hooks {
		fn(context.WithoutCancel(ctx))
	}
	return nil
}

func (m *FakeTransaction) Rollback(ctx context.Context) error {
	m.mu.Lock()
	if m.Committed {
		m.mu.Unlock()
		return nil
	}
	m.RolledBack = true
	m.hooks = nil
	m.mu.Unlock()

	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

func (m *FakeTransaction) AfterCommit(fn func(ctx context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// SequenceIDGenerator returns prefix-1, prefix-2, ...
type SequenceIDGenerator struct {
	Prefix string
	n      atomic.Int64
}

func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	return &SequenceIDGenerator{Prefix: prefix}
}

func (g *SequenceIDGenerator) Generate() string {
	return fmt.Sprintf("%s-%06d", g.Prefix, g.n.Add(1))
}
