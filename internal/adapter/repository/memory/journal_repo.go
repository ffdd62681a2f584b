package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/usecase"
)

// JournalRepository implements usecase.JournalRepository.
type JournalRepository struct {
	store *Store
}

const numberKeyPrefix = "number:"

// entryKeys lists the unique keys of an entry, idempotency keys first so a
// duplicate event is reported ahead of a number collision.
func entryKeys(e *domain.JournalEntry) []uniqueKey {
	var keys []uniqueKey
	switch {
	case e.SourceID != "":
		keys = append(keys, uniqueKey{
			key: fmt.Sprintf("source:%s:%s:%s", e.SourceType, e.SourceID, e.EventType),
			err: domain.ErrDuplicateSourceEvent,
		})
	case e.SourceReference != "":
		keys = append(keys, uniqueKey{
			key: fmt.Sprintf("reference:%s:%s:%s", e.SourceType, e.EventType, e.SourceReference),
			err: domain.ErrDuplicateSourceEvent,
		})
	}
	if e.ReversesID != "" {
		keys = append(keys, uniqueKey{key: "reverses:" + e.ReversesID, err: domain.ErrAlreadyReversed})
	}
	return append(keys, uniqueKey{key: numberKeyPrefix + e.Number, err: domain.ErrDuplicateJournalNumber})
}

// Create inserts an unposted entry with its lines.
func (r *JournalRepository) Create(ctx context.Context, t usecase.Transaction, entry *domain.JournalEntry) error {
	return r.store.write(ctx, t, func(tx *Tx) error {
		if err := tx.reserve(ctx, entryKeys(entry)...); err != nil {
			return err
		}
		tx.entries[entry.ID] = copyEntry(entry)
		return nil
	})
}

// GetByID retrieves an entry with its lines.
func (r *JournalRepository) GetByID(_ context.Context, t usecase.Transaction, id string) (*domain.JournalEntry, error) {
	tx, err := r.store.txOf(t)
	if err != nil {
		return nil, err
	}
	e, ok := lookup(r.store, r.store.entries, tx.entryOverlay(), id)
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	return copyEntry(e), nil
}

// GetByIDForUpdate locks the entry row and returns it.
func (r *JournalRepository) GetByIDForUpdate(ctx context.Context, t usecase.Transaction, id string) (*domain.JournalEntry, error) {
	tx, err := r.store.txOf(t)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ErrTxDone
	}
	if err := tx.lock(ctx, "entry:"+id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, t, id)
}

func (r *JournalRepository) find(t usecase.Transaction, match func(*domain.JournalEntry) bool) (*domain.JournalEntry, error) {
	tx, err := r.store.txOf(t)
	if err != nil {
		return nil, err
	}
	for _, e := range visible(r.store, r.store.entries, tx.entryOverlay()) {
		if match(e) {
			return copyEntry(e), nil
		}
	}
	return nil, domain.ErrEntryNotFound
}

// GetByNumber retrieves an entry by journal number.
func (r *JournalRepository) GetByNumber(_ context.Context, t usecase.Transaction, number string) (*domain.JournalEntry, error) {
	return r.find(t, func(e *domain.JournalEntry) bool { return e.Number == number })
}

// FindBySourceKey retrieves the entry for (source type, source id, event type).
func (r *JournalRepository) FindBySourceKey(_ context.Context, t usecase.Transaction, sourceType domain.SourceType, sourceID, eventType string) (*domain.JournalEntry, error) {
	return r.find(t, func(e *domain.JournalEntry) bool {
		return e.SourceType == sourceType && e.SourceID == sourceID && e.EventType == eventType
	})
}

// FindByReference retrieves the entry for (source type, event type, reference)
// among entries without a source id.
func (r *JournalRepository) FindByReference(_ context.Context, t usecase.Transaction, sourceType domain.SourceType, eventType, reference string) (*domain.JournalEntry, error) {
	return r.find(t, func(e *domain.JournalEntry) bool {
		return e.SourceID == "" && e.SourceType == sourceType && e.EventType == eventType && e.SourceReference == reference
	})
}

// MaxSequence returns the highest sequence reserved under prefix, including
// numbers held by transactions still in flight.
func (r *JournalRepository) MaxSequence(_ context.Context, _ usecase.Transaction, prefix string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	highest := 0
	for key := range r.store.uniq {
		number, ok := strings.CutPrefix(key, numberKeyPrefix)
		if !ok {
			continue
		}
		if seq, ok := domain.ParseJournalSequence(number, prefix); ok && seq > highest {
			highest = seq
		}
	}
	return highest, nil
}

func (r *JournalRepository) update(ctx context.Context, t usecase.Transaction, id string, fn func(*domain.JournalEntry) error) error {
	return r.store.write(ctx, t, func(tx *Tx) error {
		e, ok := lookup(r.store, r.store.entries, tx.entries, id)
		if !ok {
			return domain.ErrEntryNotFound
		}
		updated := copyEntry(e)
		if err := fn(updated); err != nil {
			return err
		}
		tx.entries[id] = updated
		return nil
	})
}

// MarkPosted flips an unposted entry to posted.
func (r *JournalRepository) MarkPosted(ctx context.Context, t usecase.Transaction, id string, postedAt time.Time, periodID string) error {
	return r.update(ctx, t, id, func(e *domain.JournalEntry) error {
		if e.IsPosted {
			return domain.ErrAlreadyPosted
		}
		e.IsPosted = true
		e.PostedAt = &postedAt
		e.FiscalPeriodID = periodID
		e.UpdatedAt = postedAt
		return nil
	})
}

// MarkReversed sets the reversal linkage of a posted entry.
func (r *JournalRepository) MarkReversed(ctx context.Context, t usecase.Transaction, id, reversedBy string, reversedAt time.Time) error {
	return r.update(ctx, t, id, func(e *domain.JournalEntry) error {
		if e.IsReversed {
			return domain.ErrAlreadyReversed
		}
		e.IsReversed = true
		e.ReversedBy = reversedBy
		e.ReversedAt = &reversedAt
		e.UpdatedAt = reversedAt
		return nil
	})
}

// UpdateDraft changes the description, date and period of an unposted entry.
func (r *JournalRepository) UpdateDraft(ctx context.Context, t usecase.Transaction, entry *domain.JournalEntry) error {
	return r.update(ctx, t, entry.ID, func(e *domain.JournalEntry) error {
		if err := e.EnsureMutable(); err != nil {
			return err
		}
		e.Description = entry.Description
		e.EntryDate = entry.EntryDate
		e.FiscalPeriodID = entry.FiscalPeriodID
		e.UpdatedAt = entry.UpdatedAt
		return nil
	})
}

// Delete removes an unposted entry and its lines.
func (r *JournalRepository) Delete(ctx context.Context, t usecase.Transaction, id string) error {
	return r.store.write(ctx, t, func(tx *Tx) error {
		e, ok := lookup(r.store, r.store.entries, tx.entries, id)
		if !ok {
			return domain.ErrEntryNotFound
		}
		if err := e.EnsureMutable(); err != nil {
			return err
		}
		tx.entries[id] = nil
		tx.free(entryKeys(e)...)
		return nil
	})
}

// ListBySource lists committed entries of a source record in number order.
func (r *JournalRepository) ListBySource(_ context.Context, sourceType domain.SourceType, sourceID string) ([]*domain.JournalEntry, error) {
	var result []*domain.JournalEntry
	for _, e := range visible(r.store, r.store.entries, nil) {
		if e.SourceType == sourceType && e.SourceID == sourceID {
			result = append(result, copyEntry(e))
		}
	}
	slices.SortFunc(result, func(a, b *domain.JournalEntry) int { return strings.Compare(a.Number, b.Number) })
	return result, nil
}

// CountLinesByAccount counts the lines referencing an account.
func (r *JournalRepository) CountLinesByAccount(_ context.Context, t usecase.Transaction, accountID string) (int64, error) {
	tx, err := r.store.txOf(t)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, e := range visible(r.store, r.store.entries, tx.entryOverlay()) {
		for _, line := range e.Lines {
			if line.AccountID == accountID {
				n++
			}
		}
	}
	return n, nil
}

// Count returns the number of committed entries.
func (r *JournalRepository) Count() int {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return len(r.store.entries)
}
