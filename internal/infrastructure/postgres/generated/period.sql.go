package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const countFiscalPeriods = `-- name: CountFiscalPeriods :one
SELECT COUNT(*) FROM fiscal_periods
`

func (q *Queries) CountFiscalPeriods(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countFiscalPeriods)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createFiscalPeriod = `-- name: CreateFiscalPeriod :exec
INSERT INTO fiscal_periods (id, name, start_date, end_date, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type CreateFiscalPeriodParams struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	StartDate pgtype.Date        `json:"start_date"`
	EndDate   pgtype.Date        `json:"end_date"`
	Status    string             `json:"status"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateFiscalPeriod(ctx context.Context, arg CreateFiscalPeriodParams) error {
	_, err := q.db.Exec(ctx, createFiscalPeriod, arg.ID, arg.Name, arg.StartDate, arg.EndDate, arg.Status, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const findOpenFiscalPeriodByDate = `-- name: FindOpenFiscalPeriodByDate :one
SELECT id, name, start_date, end_date, status, closed_by, closed_at, locked_by, locked_at, created_at, updated_at FROM fiscal_periods
WHERE status = 'open' AND start_date <= $1 AND end_date >= $1
ORDER BY start_date
LIMIT 1
FOR SHARE
`

func (q *Queries) FindOpenFiscalPeriodByDate(ctx context.Context, entryDate pgtype.Date) (FiscalPeriod, error) {
	row := q.db.QueryRow(ctx, findOpenFiscalPeriodByDate, entryDate)
	var i FiscalPeriod
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.StartDate,
		&i.EndDate,
		&i.Status,
		&i.ClosedBy,
		&i.ClosedAt,
		&i.LockedBy,
		&i.LockedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getFiscalPeriodByID = `-- name: GetFiscalPeriodByID :one
SELECT id, name, start_date, end_date, status, closed_by, closed_at, locked_by, locked_at, created_at, updated_at FROM fiscal_periods WHERE id = $1
`

func (q *Queries) GetFiscalPeriodByID(ctx context.Context, id string) (FiscalPeriod, error) {
	row := q.db.QueryRow(ctx, getFiscalPeriodByID, id)
	var i FiscalPeriod
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.StartDate,
		&i.EndDate,
		&i.Status,
		&i.ClosedBy,
		&i.ClosedAt,
		&i.LockedBy,
		&i.LockedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getFiscalPeriodByIDForShare = `-- name: GetFiscalPeriodByIDForShare :one
SELECT id, name, start_date, end_date, status, closed_by, closed_at, locked_by, locked_at, created_at, updated_at FROM fiscal_periods WHERE id = $1 FOR SHARE
`

func (q *Queries) GetFiscalPeriodByIDForShare(ctx context.Context, id string) (FiscalPeriod, error) {
	row := q.db.QueryRow(ctx, getFiscalPeriodByIDForShare, id)
	var i FiscalPeriod
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.StartDate,
		&i.EndDate,
		&i.Status,
		&i.ClosedBy,
		&i.ClosedAt,
		&i.LockedBy,
		&i.LockedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getFiscalPeriodByIDForUpdate = `-- name: GetFiscalPeriodByIDForUpdate :one
SELECT id, name, start_date, end_date, status, closed_by, closed_at, locked_by, locked_at, created_at, updated_at FROM fiscal_periods WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetFiscalPeriodByIDForUpdate(ctx context.Context, id string) (FiscalPeriod, error) {
	row := q.db.QueryRow(ctx, getFiscalPeriodByIDForUpdate, id)
	var i FiscalPeriod
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.StartDate,
		&i.EndDate,
		&i.Status,
		&i.ClosedBy,
		&i.ClosedAt,
		&i.LockedBy,
		&i.LockedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listFiscalPeriods = `-- name: ListFiscalPeriods :many
SELECT id, name, start_date, end_date, status, closed_by, closed_at, locked_by, locked_at, created_at, updated_at FROM fiscal_periods ORDER BY start_date LIMIT $1 OFFSET $2
`

type ListFiscalPeriodsParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListFiscalPeriods(ctx context.Context, arg ListFiscalPeriodsParams) ([]FiscalPeriod, error) {
	rows, err := q.db.Query(ctx, listFiscalPeriods, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FiscalPeriod
	for rows.Next() {
		var i FiscalPeriod
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.StartDate,
			&i.EndDate,
			&i.Status,
			&i.ClosedBy,
			&i.ClosedAt,
			&i.LockedBy,
			&i.LockedAt,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listOverlappingFiscalPeriods = `-- name: ListOverlappingFiscalPeriods :many
SELECT id, name, start_date, end_date, status, closed_by, closed_at, locked_by, locked_at, created_at, updated_at FROM fiscal_periods
WHERE start_date <= $2 AND end_date >= $1
ORDER BY start_date
`

type ListOverlappingFiscalPeriodsParams struct {
	StartDate pgtype.Date `json:"start_date"`
	EndDate   pgtype.Date `json:"end_date"`
}

func (q *Queries) ListOverlappingFiscalPeriods(ctx context.Context, arg ListOverlappingFiscalPeriodsParams) ([]FiscalPeriod, error) {
	rows, err := q.db.Query(ctx, listOverlappingFiscalPeriods, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FiscalPeriod
	for rows.Next() {
		var i FiscalPeriod
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.StartDate,
			&i.EndDate,
			&i.Status,
			&i.ClosedBy,
			&i.ClosedAt,
			&i.LockedBy,
			&i.LockedAt,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateFiscalPeriodStatus = `-- name: UpdateFiscalPeriodStatus :execrows
UPDATE fiscal_periods
SET status = $2, closed_by = $3, closed_at = $4, locked_by = $5, locked_at = $6, updated_at = $7
WHERE id = $1
`

type UpdateFiscalPeriodStatusParams struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	ClosedBy  pgtype.Text        `json:"closed_by"`
	ClosedAt  pgtype.Timestamptz `json:"closed_at"`
	LockedBy  pgtype.Text        `json:"locked_by"`
	LockedAt  pgtype.Timestamptz `json:"locked_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateFiscalPeriodStatus(ctx context.Context, arg UpdateFiscalPeriodStatusParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateFiscalPeriodStatus, arg.ID, arg.Status, arg.ClosedBy, arg.ClosedAt, arg.LockedBy, arg.LockedAt, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
