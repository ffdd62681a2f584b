package memory

import (
	"context"
	"slices"
	"time"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/usecase"
)

// PeriodRepository implements usecase.PeriodRepository.
type PeriodRepository struct {
	store *Store
}

// Create inserts a fiscal period.
func (r *PeriodRepository) Create(ctx context.Context, t usecase.Transaction, period *domain.FiscalPeriod) error {
	return r.store.write(ctx, t, func(tx *Tx) error {
		tx.periods[period.ID] = copyOf(period)
		return nil
	})
}

// GetByID retrieves a fiscal period without locking it.
func (r *PeriodRepository) GetByID(_ context.Context, t usecase.Transaction, id string) (*domain.FiscalPeriod, error) {
	tx, err := r.store.txOf(t)
	if err != nil {
		return nil, err
	}
	p, ok := lookup(r.store, r.store.periods, tx.periodOverlay(), id)
	if !ok {
		return nil, domain.ErrPeriodNotFound
	}
	return copyOf(p), nil
}

// GetByIDForShare locks the period until the transaction ends.
func (r *PeriodRepository) GetByIDForShare(ctx context.Context, t usecase.Transaction, id string) (*domain.FiscalPeriod, error) {
	return r.getLocked(ctx, t, id)
}

// GetByIDForUpdate locks the period until the transaction ends.
func (r *PeriodRepository) GetByIDForUpdate(ctx context.Context, t usecase.Transaction, id string) (*domain.FiscalPeriod, error) {
	return r.getLocked(ctx, t, id)
}

func (r *PeriodRepository) getLocked(ctx context.Context, t usecase.Transaction, id string) (*domain.FiscalPeriod, error) {
	tx, err := r.store.txOf(t)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ErrTxDone
	}
	if err := tx.lock(ctx, "period:"+id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, t, id)
}

// FindOpenByDate returns the locked open period covering date.
func (r *PeriodRepository) FindOpenByDate(ctx context.Context, t usecase.Transaction, date time.Time) (*domain.FiscalPeriod, error) {
	tx, err := r.store.txOf(t)
	if err != nil {
		return nil, err
	}

	for {
		var candidate *domain.FiscalPeriod
		for _, p := range visible(r.store, r.store.periods, tx.periodOverlay()) {
			if p.Status == domain.PeriodStatusOpen && p.Contains(date) {
				candidate = p
				break
			}
		}
		if candidate == nil {
			return nil, domain.ErrPeriodNotFound
		}
		if tx == nil {
			return copyOf(candidate), nil
		}

		locked, err := r.getLocked(ctx, t, candidate.ID)
		if err != nil {
			return nil, err
		}
		// The period may have been closed while we waited for its lock.
		if locked.Status == domain.PeriodStatusOpen && locked.Contains(date) {
			return locked, nil
		}
	}
}

// Count returns the number of fiscal periods.
func (r *PeriodRepository) Count(_ context.Context, t usecase.Transaction) (int64, error) {
	tx, err := r.store.txOf(t)
	if err != nil {
		return 0, err
	}
	return int64(len(visible(r.store, r.store.periods, tx.periodOverlay()))), nil
}

// ListOverlapping returns the periods sharing at least one date with [start, end].
func (r *PeriodRepository) ListOverlapping(_ context.Context, t usecase.Transaction, start, end time.Time) ([]*domain.FiscalPeriod, error) {
	tx, err := r.store.txOf(t)
	if err != nil {
		return nil, err
	}
	probe := &domain.FiscalPeriod{StartDate: start, EndDate: end}

	var result []*domain.FiscalPeriod
	for _, p := range visible(r.store, r.store.periods, tx.periodOverlay()) {
		if p.Overlaps(probe) {
			result = append(result, copyOf(p))
		}
	}
	sortPeriods(result)
	return result, nil
}

// UpdateStatus persists the status fields of a period.
func (r *PeriodRepository) UpdateStatus(ctx context.Context, t usecase.Transaction, period *domain.FiscalPeriod) error {
	return r.store.write(ctx, t, func(tx *Tx) error {
		p, ok := lookup(r.store, r.store.periods, tx.periods, period.ID)
		if !ok {
			return domain.ErrPeriodNotFound
		}
		updated := copyOf(p)
		updated.Status = period.Status
		updated.ClosedBy = period.ClosedBy
		updated.ClosedAt = period.ClosedAt
		updated.LockedBy = period.LockedBy
		updated.LockedAt = period.LockedAt
		updated.UpdatedAt = period.UpdatedAt
		tx.periods[period.ID] = updated
		return nil
	})
}

// List lists committed periods ordered by start date.
func (r *PeriodRepository) List(_ context.Context, limit, offset int) ([]*domain.FiscalPeriod, error) {
	rows := visible(r.store, r.store.periods, nil)
	sortPeriods(rows)

	result := make([]*domain.FiscalPeriod, 0, len(rows))
	for _, p := range page(rows, limit, offset) {
		result = append(result, copyOf(p))
	}
	return result, nil
}

func sortPeriods(rows []*domain.FiscalPeriod) {
	slices.SortFunc(rows, func(a, b *domain.FiscalPeriod) int { return a.StartDate.Compare(b.StartDate) })
}
