package postgres

import (
	"context"
	"time"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/infrastructure/postgres/generated"
	"github.com/iho/ledgerpost/internal/usecase"
)

// JournalRepository implements usecase.JournalRepository.
type JournalRepository struct {
	conn
}

// NewJournalRepository creates a new JournalRepository.
func NewJournalRepository(pool DB) *JournalRepository {
	return &JournalRepository{conn{pool: pool}}
}

// Create inserts the entry and its lines under a savepoint, so a unique
// violation on the number or source key leaves tx usable for another attempt.
func (r *JournalRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	return r.savepoint(ctx, tx, func(q *generated.Queries) error {
		err := q.CreateJournalEntry(ctx, generated.CreateJournalEntryParams{
			ID:              entry.ID,
			Number:          entry.Number,
			EntryDate:       dateToPg(entry.EntryDate),
			EntryType:       string(entry.EntryType),
			SourceType:      string(entry.SourceType),
			SourceID:        text(entry.SourceID),
			EventType:       entry.EventType,
			SourceReference: text(entry.SourceReference),
			Description:     entry.Description,
			TotalDebit:      decimalToNumeric(entry.TotalDebit),
			TotalCredit:     decimalToNumeric(entry.TotalCredit),
			FiscalPeriodID:  text(entry.FiscalPeriodID),
			ReversesID:      text(entry.ReversesID),
			CreatedBy:       entry.CreatedBy,
			CreatedAt:       timeToPgTimestamptz(entry.CreatedAt),
			UpdatedAt:       timeToPgTimestamptz(entry.UpdatedAt),
		})
		if err != nil {
			return mapError(err)
		}

		for _, line := range entry.Lines {
			err := q.CreateJournalLine(ctx, generated.CreateJournalLineParams{
				ID:          line.ID,
				EntryID:     entry.ID,
				LineNo:      int32(line.LineNo),
				AccountID:   line.AccountID,
				Description: line.Description,
				Debit:       decimalToNumeric(line.Debit),
				Credit:      decimalToNumeric(line.Credit),
				CreatedAt:   timeToPgTimestamptz(line.CreatedAt),
			})
			if err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

// GetByID retrieves an entry with its lines.
func (r *JournalRepository) GetByID(ctx context.Context, tx usecase.Transaction, id string) (*domain.JournalEntry, error) {
	return r.one(ctx, tx, func(q *generated.Queries) (generated.JournalEntry, error) {
		return q.GetJournalEntryByID(ctx, id)
	})
}

// GetByIDForUpdate retrieves an entry and holds its row lock until tx ends.
func (r *JournalRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.JournalEntry, error) {
	return r.one(ctx, tx, func(q *generated.Queries) (generated.JournalEntry, error) {
		return q.GetJournalEntryByIDForUpdate(ctx, id)
	})
}

// GetByNumber retrieves an entry by its journal number.
func (r *JournalRepository) GetByNumber(ctx context.Context, tx usecase.Transaction, number string) (*domain.JournalEntry, error) {
	return r.one(ctx, tx, func(q *generated.Queries) (generated.JournalEntry, error) {
		return q.GetJournalEntryByNumber(ctx, number)
	})
}

// FindBySourceKey retrieves the entry for (sourceType, sourceID, eventType).
func (r *JournalRepository) FindBySourceKey(ctx context.Context, tx usecase.Transaction, sourceType domain.SourceType, sourceID, eventType string) (*domain.JournalEntry, error) {
	return r.one(ctx, tx, func(q *generated.Queries) (generated.JournalEntry, error) {
		return q.GetJournalEntryBySourceKey(ctx, generated.GetJournalEntryBySourceKeyParams{
			SourceType: string(sourceType),
			SourceID:   text(sourceID),
			EventType:  eventType,
		})
	})
}

// FindByReference retrieves the entry keyed by a source reference.
func (r *JournalRepository) FindByReference(ctx context.Context, tx usecase.Transaction, sourceType domain.SourceType, eventType, reference string) (*domain.JournalEntry, error) {
	return r.one(ctx, tx, func(q *generated.Queries) (generated.JournalEntry, error) {
		return q.GetJournalEntryByReference(ctx, generated.GetJournalEntryByReferenceParams{
			SourceType:      string(sourceType),
			EventType:       eventType,
			SourceReference: text(reference),
		})
	})
}

func (r *JournalRepository) one(ctx context.Context, tx usecase.Transaction, query func(*generated.Queries) (generated.JournalEntry, error)) (*domain.JournalEntry, error) {
	q, err := r.queries(tx)
	if err != nil {
		return nil, err
	}
	row, err := query(q)
	if err != nil {
		return nil, notFound(err, domain.ErrEntryNotFound)
	}
	entry := rowToEntry(row)
	if entry.Lines, err = r.lines(ctx, q, entry.ID); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *JournalRepository) lines(ctx context.Context, q *generated.Queries, entryID string) ([]domain.JournalLine, error) {
	rows, err := q.ListJournalLines(ctx, entryID)
	if err != nil {
		return nil, err
	}
	lines := make([]domain.JournalLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, rowToLine(row))
	}
	return lines, nil
}

// MaxSequence returns the highest numeric suffix among numbers with prefix.
func (r *JournalRepository) MaxSequence(ctx context.Context, tx usecase.Transaction, prefix string) (int, error) {
	q, err := r.queries(tx)
	if err != nil {
		return 0, err
	}
	n, err := q.GetMaxJournalSequence(ctx, prefix)
	return int(n), err
}

// MarkPosted flags an unposted entry as posted.
func (r *JournalRepository) MarkPosted(ctx context.Context, tx usecase.Transaction, id string, postedAt time.Time, periodID string) error {
	q, err := r.queries(tx)
	if err != nil {
		return err
	}
	n, err := q.MarkJournalEntryPosted(ctx, generated.MarkJournalEntryPostedParams{
		ID:             id,
		PostedAt:       timeToPgTimestamptz(postedAt),
		FiscalPeriodID: text(periodID),
	})
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return r.explainNoRows(ctx, q, id, domain.ErrAlreadyPosted)
	}
	return nil
}

// MarkReversed records that a posted entry has been reversed.
func (r *JournalRepository) MarkReversed(ctx context.Context, tx usecase.Transaction, id, reversedBy string, reversedAt time.Time) error {
	q, err := r.queries(tx)
	if err != nil {
		return err
	}
	n, err := q.MarkJournalEntryReversed(ctx, generated.MarkJournalEntryReversedParams{
		ID:         id,
		ReversedBy: text(reversedBy),
		ReversedAt: timeToPgTimestamptz(reversedAt),
	})
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		row, err := q.GetJournalEntryByID(ctx, id)
		if err != nil {
			return notFound(err, domain.ErrEntryNotFound)
		}
		if !row.IsPosted {
			return domain.ErrNotPosted
		}
		return domain.ErrAlreadyReversed
	}
	return nil
}

// UpdateDraft stores the editable fields of an unposted entry.
func (r *JournalRepository) UpdateDraft(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	q, err := r.queries(tx)
	if err != nil {
		return err
	}
	n, err := q.UpdateJournalEntryDraft(ctx, generated.UpdateJournalEntryDraftParams{
		ID:             entry.ID,
		Description:    entry.Description,
		EntryDate:      dateToPg(entry.EntryDate),
		FiscalPeriodID: text(entry.FiscalPeriodID),
		UpdatedAt:      timeToPgTimestamptz(entry.UpdatedAt),
	})
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return r.explainNoRows(ctx, q, entry.ID, domain.ErrEntryImmutable)
	}
	return nil
}

// Delete removes an unposted entry and, by cascade, its lines.
func (r *JournalRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	q, err := r.queries(tx)
	if err != nil {
		return err
	}
	n, err := q.DeleteJournalEntry(ctx, id)
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return r.explainNoRows(ctx, q, id, domain.ErrEntryImmutable)
	}
	return nil
}

// explainNoRows distinguishes a missing entry from one that is already posted.
func (r *JournalRepository) explainNoRows(ctx context.Context, q *generated.Queries, id string, posted error) error {
	if _, err := q.GetJournalEntryByID(ctx, id); err != nil {
		return notFound(err, domain.ErrEntryNotFound)
	}
	return posted
}

// ListBySource lists the entries produced by one source record.
func (r *JournalRepository) ListBySource(ctx context.Context, sourceType domain.SourceType, sourceID string) ([]*domain.JournalEntry, error) {
	q, _ := r.queries(nil)
	rows, err := q.ListJournalEntriesBySource(ctx, generated.ListJournalEntriesBySourceParams{
		SourceType: string(sourceType),
		SourceID:   text(sourceID),
	})
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.JournalEntry, 0, len(rows))
	for _, row := range rows {
		entry := rowToEntry(row)
		if entry.Lines, err = r.lines(ctx, q, entry.ID); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// CountLinesByAccount counts the journal lines, posted or not, against an account.
func (r *JournalRepository) CountLinesByAccount(ctx context.Context, tx usecase.Transaction, accountID string) (int64, error) {
	q, err := r.queries(tx)
	if err != nil {
		return 0, err
	}
	return q.CountJournalLinesByAccount(ctx, accountID)
}
