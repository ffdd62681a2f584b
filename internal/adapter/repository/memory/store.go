// Package memory is an in-process implementation of the ledger repositories.
//
// It mirrors the locking behaviour of the Postgres store: every Tx writes to
// a private overlay that becomes visible on Commit, row locks are exclusive
// per key and held until the Tx ends, and unique keys are reserved at insert
// time so that a second inserter blocks until the first commits or rolls back.
// Share locks are taken exclusively.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/usecase"
)

var (
	// ErrTxDone is returned when a finished transaction is used.
	ErrTxDone = errors.New("memory: transaction has already been committed or rolled back")
	// ErrForeignTx is returned when a transaction from another store is passed in.
	ErrForeignTx = errors.New("memory: transaction does not belong to this store")
)

var (
	_ usecase.TransactionManager = (*Store)(nil)
	_ usecase.Transaction        = (*Tx)(nil)
	_ usecase.AccountRepository  = (*AccountRepository)(nil)
	_ usecase.PeriodRepository   = (*PeriodRepository)(nil)
	_ usecase.JournalRepository  = (*JournalRepository)(nil)
	_ usecase.LedgerRepository   = (*LedgerRepository)(nil)
	_ usecase.FailureRepository  = (*FailureRepository)(nil)
	_ usecase.OutboxRepository   = (*OutboxRepository)(nil)
	_ usecase.AuditRepository    = (*AuditRepository)(nil)
	_ usecase.MappingRepository  = (*MappingRepository)(nil)
)

// Store holds committed ledger state.
type Store struct {
	mu sync.Mutex

	accounts map[string]*domain.Account
	periods  map[string]*domain.FiscalPeriod
	entries  map[string]*domain.JournalEntry
	failures map[string]*domain.PostingFailure
	outbox   []*domain.OutboxEvent
	audit    []*domain.AuditLog
	mappings map[string]string

	// uniq maps a unique key to the in-flight Tx that reserved it, or to nil
	// once the reserving Tx committed.
	uniq  map[string]*Tx
	locks map[string]chan struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*domain.Account),
		periods:  make(map[string]*domain.FiscalPeriod),
		entries:  make(map[string]*domain.JournalEntry),
		failures: make(map[string]*domain.PostingFailure),
		mappings: make(map[string]string),
		uniq:     make(map[string]*Tx),
		locks:    make(map[string]chan struct{}),
	}
}

// Begin starts a transaction.
func (s *Store) Begin(_ context.Context) (usecase.Transaction, error) {
	return s.begin(), nil
}

func (s *Store) begin() *Tx {
	return &Tx{
		store:    s,
		accounts: make(map[string]*domain.Account),
		periods:  make(map[string]*domain.FiscalPeriod),
		entries:  make(map[string]*domain.JournalEntry),
		done:     make(chan struct{}),
	}
}

// Accounts returns the account repository.
func (s *Store) Accounts() *AccountRepository { return &AccountRepository{store: s} }

// Periods returns the fiscal period repository.
func (s *Store) Periods() *PeriodRepository { return &PeriodRepository{store: s} }

// Journal returns the journal repository.
func (s *Store) Journal() *JournalRepository { return &JournalRepository{store: s} }

// Ledger returns the ledger integrity repository.
func (s *Store) Ledger() *LedgerRepository { return &LedgerRepository{store: s} }

// Failures returns the failure ledger repository.
func (s *Store) Failures() *FailureRepository { return &FailureRepository{store: s} }

// Outbox returns the outbox repository.
func (s *Store) Outbox() *OutboxRepository { return &OutboxRepository{store: s} }

// Audit returns the audit log repository.
func (s *Store) Audit() *AuditRepository { return &AuditRepository{store: s} }

// Mappings returns the account mapping repository.
func (s *Store) Mappings() *MappingRepository { return &MappingRepository{store: s} }

// txOf unwraps t. A nil t yields a nil *Tx, which reads committed state only.
func (s *Store) txOf(t usecase.Transaction) (*Tx, error) {
	if t == nil {
		return nil, nil
	}
	tx, ok := t.(*Tx)
	if !ok || tx.store != s {
		return nil, ErrForeignTx
	}
	return tx, nil
}

// write runs fn in t, or in a transaction of its own when t is nil.
func (s *Store) write(ctx context.Context, t usecase.Transaction, fn func(tx *Tx) error) error {
	tx, err := s.txOf(t)
	if err != nil {
		return err
	}
	if tx != nil {
		if err := tx.active(); err != nil {
			return err
		}
		return fn(tx)
	}

	tx = s.begin()
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) lockChan(key string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	return ch
}

// lookup returns the row visible to tx: its own overlay first, then committed
// state. A nil overlay value marks a row deleted in tx.
func lookup[T any](s *Store, committed map[string]*T, overlay map[string]*T, id string) (*T, bool) {
	if overlay != nil {
		if row, ok := overlay[id]; ok {
			if row == nil {
				return nil, false
			}
			return row, true
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := committed[id]
	return row, ok
}

// visible returns every row visible to tx.
func visible[T any](s *Store, committed map[string]*T, overlay map[string]*T) []*T {
	s.mu.Lock()
	rows := make([]*T, 0, len(committed)+len(overlay))
	for id, row := range committed {
		if _, shadowed := overlay[id]; !shadowed {
			rows = append(rows, row)
		}
	}
	s.mu.Unlock()

	for _, row := range overlay {
		if row != nil {
			rows = append(rows, row)
		}
	}
	return rows
}

func copyOf[T any](v *T) *T {
	c := *v
	return &c
}

func copyEntry(e *domain.JournalEntry) *domain.JournalEntry {
	c := *e
	c.Lines = append([]domain.JournalLine(nil), e.Lines...)
	return &c
}

func page[T any](rows []*T, limit, offset int) []*T {
	if offset >= len(rows) {
		return []*T{}
	}
	rows = rows[offset:]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
