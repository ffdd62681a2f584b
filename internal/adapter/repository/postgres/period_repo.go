package postgres

import (
	"context"
	"time"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/infrastructure/postgres/generated"
	"github.com/iho/ledgerpost/internal/usecase"
)

// PeriodRepository implements usecase.PeriodRepository.
type PeriodRepository struct {
	conn
}

// NewPeriodRepository creates a new PeriodRepository.
func NewPeriodRepository(pool DB) *PeriodRepository {
	return &PeriodRepository{conn{pool: pool}}
}

// Create inserts a fiscal period.
func (r *PeriodRepository) Create(ctx context.Context, tx usecase.Transaction, period *domain.FiscalPeriod) error {
	q, err := r.queries(tx)
	if err != nil {
		return err
	}
	return mapError(q.CreateFiscalPeriod(ctx, generated.CreateFiscalPeriodParams{
		ID:        period.ID,
		Name:      period.Name,
		StartDate: dateToPg(period.StartDate),
		EndDate:   dateToPg(period.EndDate),
		Status:    string(period.Status),
		CreatedAt: timeToPgTimestamptz(period.CreatedAt),
		UpdatedAt: timeToPgTimestamptz(period.UpdatedAt),
	}))
}

// GetByID retrieves a period by ID.
func (r *PeriodRepository) GetByID(ctx context.Context, tx usecase.Transaction, id string) (*domain.FiscalPeriod, error) {
	return r.get(ctx, tx, id, (*generated.Queries).GetFiscalPeriodByID)
}

// GetByIDForShare retrieves a period and holds a FOR SHARE lock on it.
func (r *PeriodRepository) GetByIDForShare(ctx context.Context, tx usecase.Transaction, id string) (*domain.FiscalPeriod, error) {
	return r.get(ctx, tx, id, (*generated.Queries).GetFiscalPeriodByIDForShare)
}

// GetByIDForUpdate retrieves a period and holds a FOR UPDATE lock on it.
func (r *PeriodRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.FiscalPeriod, error) {
	return r.get(ctx, tx, id, (*generated.Queries).GetFiscalPeriodByIDForUpdate)
}

func (r *PeriodRepository) get(
	ctx context.Context,
	tx usecase.Transaction,
	id string,
	query func(*generated.Queries, context.Context, string) (generated.FiscalPeriod, error),
) (*domain.FiscalPeriod, error) {
	q, err := r.queries(tx)
	if err != nil {
		return nil, err
	}
	row, err := query(q, ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrPeriodNotFound)
	}
	return rowToPeriod(row), nil
}

// FindOpenByDate returns the open period covering date, share-locked.
func (r *PeriodRepository) FindOpenByDate(ctx context.Context, tx usecase.Transaction, date time.Time) (*domain.FiscalPeriod, error) {
	q, err := r.queries(tx)
	if err != nil {
		return nil, err
	}
	row, err := q.FindOpenFiscalPeriodByDate(ctx, dateToPg(date))
	if err != nil {
		return nil, notFound(err, domain.ErrPeriodNotFound)
	}
	return rowToPeriod(row), nil
}

// Count returns the number of fiscal periods.
func (r *PeriodRepository) Count(ctx context.Context, tx usecase.Transaction) (int64, error) {
	q, err := r.queries(tx)
	if err != nil {
		return 0, err
	}
	return q.CountFiscalPeriods(ctx)
}

// ListOverlapping lists periods sharing at least one day with [start, end].
func (r *PeriodRepository) ListOverlapping(ctx context.Context, tx usecase.Transaction, start, end time.Time) ([]*domain.FiscalPeriod, error) {
	q, err := r.queries(tx)
	if err != nil {
		return nil, err
	}
	rows, err := q.ListOverlappingFiscalPeriods(ctx, generated.ListOverlappingFiscalPeriodsParams{
		StartDate: dateToPg(start),
		EndDate:   dateToPg(end),
	})
	if err != nil {
		return nil, err
	}
	return rowsToPeriods(rows), nil
}

// UpdateStatus stores the status and close/lock stamps of period.
func (r *PeriodRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, period *domain.FiscalPeriod) error {
	q, err := r.queries(tx)
	if err != nil {
		return err
	}
	n, err := q.UpdateFiscalPeriodStatus(ctx, generated.UpdateFiscalPeriodStatusParams{
		ID:        period.ID,
		Status:    string(period.Status),
		ClosedBy:  text(period.ClosedBy),
		ClosedAt:  optionalTimestamptz(period.ClosedAt),
		LockedBy:  text(period.LockedBy),
		LockedAt:  optionalTimestamptz(period.LockedAt),
		UpdatedAt: timeToPgTimestamptz(period.UpdatedAt),
	})
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return domain.ErrPeriodNotFound
	}
	return nil
}

// List lists periods ordered by start date.
func (r *PeriodRepository) List(ctx context.Context, limit, offset int) ([]*domain.FiscalPeriod, error) {
	q, _ := r.queries(nil)
	rows, err := q.ListFiscalPeriods(ctx, generated.ListFiscalPeriodsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}
	return rowsToPeriods(rows), nil
}

func rowsToPeriods(rows []generated.FiscalPeriod) []*domain.FiscalPeriod {
	periods := make([]*domain.FiscalPeriod, 0, len(rows))
	for _, row := range rows {
		periods = append(periods, rowToPeriod(row))
	}
	return periods
}
