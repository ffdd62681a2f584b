package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/iho/ledgerpost/internal/domain"
)

type txState int

const (
	txActive txState = iota
	txCommitted
	txRolledBack
)

// Tx is a unit of work against a Store.
type Tx struct {
	store *Store

	mu    sync.Mutex
	state txState

	accounts map[string]*domain.Account
	periods  map[string]*domain.FiscalPeriod
	entries  map[string]*domain.JournalEntry
	outbox   []*domain.OutboxEvent
	audit    []*domain.AuditLog

	held     []string
	reserved []string
	// freed lists committed unique keys released by deletes in this Tx.
	freed []string
	hooks []func(ctx context.Context)
	done  chan struct{}
}

// uniqueKey pairs a unique key with the error its violation maps to.
type uniqueKey struct {
	key string
	err error
}

func (tx *Tx) active() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.state != txActive {
		return ErrTxDone
	}
	return nil
}

// Commit publishes the overlay, releases locks and runs after-commit hooks.
func (tx *Tx) Commit(ctx context.Context) error {
	tx.mu.Lock()
	if tx.state != txActive {
		tx.mu.Unlock()
		return ErrTxDone
	}
	tx.state = txCommitted
	hooks := tx.hooks
	tx.hooks = nil
	tx.mu.Unlock()

	s := tx.store
	s.mu.Lock()
	apply(s.accounts, tx.accounts)
	apply(s.periods, tx.periods)
	apply(s.entries, tx.entries)
	s.outbox = append(s.outbox, tx.outbox...)
	s.audit = append(s.audit, tx.audit...)
	for _, key := range tx.reserved {
		s.uniq[key] = nil
	}
	for _, key := range tx.freed {
		delete(s.uniq, key)
	}
	s.mu.Unlock()

	tx.finish()

	hookCtx := context.WithoutCancel(ctx)
	for _, fn := range hooks {
		fn(hookCtx)
	}
	return nil
}

// Rollback discards the overlay. Rolling back a committed Tx is a no-op.
func (tx *Tx) Rollback(_ context.Context) error {
	tx.mu.Lock()
	if tx.state != txActive {
		tx.mu.Unlock()
		return nil
	}
	tx.state = txRolledBack
	tx.hooks = nil
	tx.mu.Unlock()

	s := tx.store
	s.mu.Lock()
	for _, key := range tx.reserved {
		if s.uniq[key] == tx {
			delete(s.uniq, key)
		}
	}
	s.mu.Unlock()

	tx.finish()
	return nil
}

// AfterCommit queues fn to run after a successful Commit.
func (tx *Tx) AfterCommit(fn func(ctx context.Context)) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.state == txActive {
		tx.hooks = append(tx.hooks, fn)
	}
}

func (tx *Tx) finish() {
	for _, key := range tx.held {
		<-tx.store.lockChan(key)
	}
	tx.held = nil
	close(tx.done)
}

func apply[T any](committed, overlay map[string]*T) {
	for id, row := range overlay {
		if row == nil {
			delete(committed, id)
			continue
		}
		committed[id] = row
	}
}

// lock takes the exclusive row lock for key, waiting for its holder to finish.
func (tx *Tx) lock(ctx context.Context, key string) error {
	if slices.Contains(tx.held, key) {
		return nil
	}
	ch := tx.store.lockChan(key)
	select {
	case ch <- struct{}{}:
		tx.held = append(tx.held, key)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reserve claims all keys or none. A key held by another in-flight Tx blocks
// until that Tx ends; a committed key, or one this Tx already holds, is a
// violation reported with the key's error.
func (tx *Tx) reserve(ctx context.Context, keys ...uniqueKey) error {
	s := tx.store
	for {
		s.mu.Lock()
		var wait chan struct{}
		for _, k := range keys {
			owner, taken := s.uniq[k.key]
			if !taken {
				continue
			}
			if owner == nil || owner == tx {
				s.mu.Unlock()
				return k.err
			}
			wait = owner.done
			break
		}
		if wait == nil {
			for _, k := range keys {
				s.uniq[k.key] = tx
				tx.reserved = append(tx.reserved, k.key)
			}
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// free releases keys of a row deleted in this Tx.
func (tx *Tx) free(keys ...uniqueKey) {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		if s.uniq[k.key] == tx {
			delete(s.uniq, k.key)
			tx.reserved = slices.DeleteFunc(tx.reserved, func(r string) bool { return r == k.key })
			continue
		}
		tx.freed = append(tx.freed, k.key)
	}
}

func (tx *Tx) accountOverlay() map[string]*domain.Account {
	if tx == nil {
		return nil
	}
	return tx.accounts
}

func (tx *Tx) periodOverlay() map[string]*domain.FiscalPeriod {
	if tx == nil {
		return nil
	}
	return tx.periods
}

func (tx *Tx) entryOverlay() map[string]*domain.JournalEntry {
	if tx == nil {
		return nil
	}
	return tx.entries
}
