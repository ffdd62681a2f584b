package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type JournalLineRow struct {
	ID          string             `json:"id"`
	EntryID     string             `json:"entry_id"`
	LineNo      int32              `json:"line_no"`
	AccountID   string             `json:"account_id"`
	AccountCode string             `json:"account_code"`
	Description string             `json:"description"`
	Debit       pgtype.Numeric     `json:"debit"`
	Credit      pgtype.Numeric     `json:"credit"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

type SumPostedLinesRow struct {
	TotalDebit  pgtype.Numeric `json:"total_debit"`
	TotalCredit pgtype.Numeric `json:"total_credit"`
}

const countJournalLinesByAccount = `-- name: CountJournalLinesByAccount :one
SELECT COUNT(*) FROM journal_lines WHERE account_id = $1
`

func (q *Queries) CountJournalLinesByAccount(ctx context.Context, accountID string) (int64, error) {
	row := q.db.QueryRow(ctx, countJournalLinesByAccount, accountID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createJournalEntry = `-- name: CreateJournalEntry :exec
INSERT INTO journal_entries (
    id, number, entry_date, entry_type, source_type, source_id, event_type, source_reference,
    description, total_debit, total_credit, fiscal_period_id, reverses_id, created_by, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
`

type CreateJournalEntryParams struct {
	ID              string             `json:"id"`
	Number          string             `json:"number"`
	EntryDate       pgtype.Date        `json:"entry_date"`
	EntryType       string             `json:"entry_type"`
	SourceType      string             `json:"source_type"`
	SourceID        pgtype.Text        `json:"source_id"`
	EventType       string             `json:"event_type"`
	SourceReference pgtype.Text        `json:"source_reference"`
	Description     string             `json:"description"`
	TotalDebit      pgtype.Numeric     `json:"total_debit"`
	TotalCredit     pgtype.Numeric     `json:"total_credit"`
	FiscalPeriodID  pgtype.Text        `json:"fiscal_period_id"`
	ReversesID      pgtype.Text        `json:"reverses_id"`
	CreatedBy       string             `json:"created_by"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
	UpdatedAt       pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateJournalEntry(ctx context.Context, arg CreateJournalEntryParams) error {
	_, err := q.db.Exec(ctx, createJournalEntry, arg.ID, arg.Number, arg.EntryDate, arg.EntryType, arg.SourceType, arg.SourceID, arg.EventType, arg.SourceReference, arg.Description, arg.TotalDebit, arg.TotalCredit, arg.FiscalPeriodID, arg.ReversesID, arg.CreatedBy, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const createJournalLine = `-- name: CreateJournalLine :exec
INSERT INTO journal_lines (id, entry_id, line_no, account_id, description, debit, credit, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type CreateJournalLineParams struct {
	ID          string             `json:"id"`
	EntryID     string             `json:"entry_id"`
	LineNo      int32              `json:"line_no"`
	AccountID   string             `json:"account_id"`
	Description string             `json:"description"`
	Debit       pgtype.Numeric     `json:"debit"`
	Credit      pgtype.Numeric     `json:"credit"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateJournalLine(ctx context.Context, arg CreateJournalLineParams) error {
	_, err := q.db.Exec(ctx, createJournalLine, arg.ID, arg.EntryID, arg.LineNo, arg.AccountID, arg.Description, arg.Debit, arg.Credit, arg.CreatedAt)
	return err
}

const deleteJournalEntry = `-- name: DeleteJournalEntry :execrows
DELETE FROM journal_entries WHERE id = $1 AND is_posted = FALSE
`

func (q *Queries) DeleteJournalEntry(ctx context.Context, id string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteJournalEntry, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getJournalEntryByID = `-- name: GetJournalEntryByID :one
SELECT id, number, entry_date, entry_type, source_type, source_id, event_type, source_reference, description, total_debit, total_credit, is_posted, posted_at, fiscal_period_id, reverses_id, is_reversed, reversed_by, reversed_at, created_by, created_at, updated_at FROM journal_entries WHERE id = $1
`

func (q *Queries) GetJournalEntryByID(ctx context.Context, id string) (JournalEntry, error) {
	row := q.db.QueryRow(ctx, getJournalEntryByID, id)
	var i JournalEntry
	err := row.Scan(
		&i.ID,
		&i.Number,
		&i.EntryDate,
		&i.EntryType,
		&i.SourceType,
		&i.SourceID,
		&i.EventType,
		&i.SourceReference,
		&i.Description,
		&i.TotalDebit,
		&i.TotalCredit,
		&i.IsPosted,
		&i.PostedAt,
		&i.FiscalPeriodID,
		&i.ReversesID,
		&i.IsReversed,
		&i.ReversedBy,
		&i.ReversedAt,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getJournalEntryByIDForUpdate = `-- name: GetJournalEntryByIDForUpdate :one
SELECT id, number, entry_date, entry_type, source_type, source_id, event_type, source_reference, description, total_debit, total_credit, is_posted, posted_at, fiscal_period_id, reverses_id, is_reversed, reversed_by, reversed_at, created_by, created_at, updated_at FROM journal_entries WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetJournalEntryByIDForUpdate(ctx context.Context, id string) (JournalEntry, error) {
	row := q.db.QueryRow(ctx, getJournalEntryByIDForUpdate, id)
	var i JournalEntry
	err := row.Scan(
		&i.ID,
		&i.Number,
		&i.EntryDate,
		&i.EntryType,
		&i.SourceType,
		&i.SourceID,
		&i.EventType,
		&i.SourceReference,
		&i.Description,
		&i.TotalDebit,
		&i.TotalCredit,
		&i.IsPosted,
		&i.PostedAt,
		&i.FiscalPeriodID,
		&i.ReversesID,
		&i.IsReversed,
		&i.ReversedBy,
		&i.ReversedAt,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getJournalEntryByNumber = `-- name: GetJournalEntryByNumber :one
SELECT id, number, entry_date, entry_type, source_type, source_id, event_type, source_reference, description, total_debit, total_credit, is_posted, posted_at, fiscal_period_id, reverses_id, is_reversed, reversed_by, reversed_at, created_by, created_at, updated_at FROM journal_entries WHERE number = $1
`

func (q *Queries) GetJournalEntryByNumber(ctx context.Context, number string) (JournalEntry, error) {
	row := q.db.QueryRow(ctx, getJournalEntryByNumber, number)
	var i JournalEntry
	err := row.Scan(
		&i.ID,
		&i.Number,
		&i.EntryDate,
		&i.EntryType,
		&i.SourceType,
		&i.SourceID,
		&i.EventType,
		&i.SourceReference,
		&i.Description,
		&i.TotalDebit,
		&i.TotalCredit,
		&i.IsPosted,
		&i.PostedAt,
		&i.FiscalPeriodID,
		&i.ReversesID,
		&i.IsReversed,
		&i.ReversedBy,
		&i.ReversedAt,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getJournalEntryByReference = `-- name: GetJournalEntryByReference :one
SELECT id, number, entry_date, entry_type, source_type, source_id, event_type, source_reference, description, total_debit, total_credit, is_posted, posted_at, fiscal_period_id, reverses_id, is_reversed, reversed_by, reversed_at, created_by, created_at, updated_at FROM journal_entries
WHERE source_type = $1 AND event_type = $2 AND source_reference = $3 AND source_id IS NULL
`

type GetJournalEntryByReferenceParams struct {
	SourceType      string      `json:"source_type"`
	EventType       string      `json:"event_type"`
	SourceReference pgtype.Text `json:"source_reference"`
}

func (q *Queries) GetJournalEntryByReference(ctx context.Context, arg GetJournalEntryByReferenceParams) (JournalEntry, error) {
	row := q.db.QueryRow(ctx, getJournalEntryByReference, arg.SourceType, arg.EventType, arg.SourceReference)
	var i JournalEntry
	err := row.Scan(
		&i.ID,
		&i.Number,
		&i.EntryDate,
		&i.EntryType,
		&i.SourceType,
		&i.SourceID,
		&i.EventType,
		&i.SourceReference,
		&i.Description,
		&i.TotalDebit,
		&i.TotalCredit,
		&i.IsPosted,
		&i.PostedAt,
		&i.FiscalPeriodID,
		&i.ReversesID,
		&i.IsReversed,
		&i.ReversedBy,
		&i.ReversedAt,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getJournalEntryBySourceKey = `-- name: GetJournalEntryBySourceKey :one
SELECT id, number, entry_date, entry_type, source_type, source_id, event_type, source_reference, description, total_debit, total_credit, is_posted, posted_at, fiscal_period_id, reverses_id, is_reversed, reversed_by, reversed_at, created_by, created_at, updated_at FROM journal_entries
WHERE source_type = $1 AND source_id = $2 AND event_type = $3
`

type GetJournalEntryBySourceKeyParams struct {
	SourceType string      `json:"source_type"`
	SourceID   pgtype.Text `json:"source_id"`
	EventType  string      `json:"event_type"`
}

func (q *Queries) GetJournalEntryBySourceKey(ctx context.Context, arg GetJournalEntryBySourceKeyParams) (JournalEntry, error) {
	row := q.db.QueryRow(ctx, getJournalEntryBySourceKey, arg.SourceType, arg.SourceID, arg.EventType)
	var i JournalEntry
	err := row.Scan(
		&i.ID,
		&i.Number,
		&i.EntryDate,
		&i.EntryType,
		&i.SourceType,
		&i.SourceID,
		&i.EventType,
		&i.SourceReference,
		&i.Description,
		&i.TotalDebit,
		&i.TotalCredit,
		&i.IsPosted,
		&i.PostedAt,
		&i.FiscalPeriodID,
		&i.ReversesID,
		&i.IsReversed,
		&i.ReversedBy,
		&i.ReversedAt,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getMaxJournalSequence = `-- name: GetMaxJournalSequence :one
SELECT COALESCE(MAX(substring(number FROM char_length($1::text) + 1)::integer), 0)::integer
FROM journal_entries
WHERE starts_with(number, $1::text)
  AND substring(number FROM char_length($1::text) + 1) ~ '^[0-9]+$'
`

func (q *Queries) GetMaxJournalSequence(ctx context.Context, prefix string) (int32, error) {
	row := q.db.QueryRow(ctx, getMaxJournalSequence, prefix)
	var column_1 int32
	err := row.Scan(&column_1)
	return column_1, err
}

const listJournalEntriesBySource = `-- name: ListJournalEntriesBySource :many
SELECT id, number, entry_date, entry_type, source_type, source_id, event_type, source_reference, description, total_debit, total_credit, is_posted, posted_at, fiscal_period_id, reverses_id, is_reversed, reversed_by, reversed_at, created_by, created_at, updated_at FROM journal_entries
WHERE source_type = $1 AND source_id = $2
ORDER BY created_at, number
`

type ListJournalEntriesBySourceParams struct {
	SourceType string      `json:"source_type"`
	SourceID   pgtype.Text `json:"source_id"`
}

func (q *Queries) ListJournalEntriesBySource(ctx context.Context, arg ListJournalEntriesBySourceParams) ([]JournalEntry, error) {
	rows, err := q.db.Query(ctx, listJournalEntriesBySource, arg.SourceType, arg.SourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []JournalEntry
	for rows.Next() {
		var i JournalEntry
		if err := rows.Scan(
			&i.ID,
			&i.Number,
			&i.EntryDate,
			&i.EntryType,
			&i.SourceType,
			&i.SourceID,
			&i.EventType,
			&i.SourceReference,
			&i.Description,
			&i.TotalDebit,
			&i.TotalCredit,
			&i.IsPosted,
			&i.PostedAt,
			&i.FiscalPeriodID,
			&i.ReversesID,
			&i.IsReversed,
			&i.ReversedBy,
			&i.ReversedAt,
			&i.CreatedBy,
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

const listJournalLines = `-- name: ListJournalLines :many
SELECT l.id, l.entry_id, l.line_no, l.account_id, a.code, l.description, l.debit, l.credit, l.created_at
FROM journal_lines l
JOIN accounts a ON a.id = l.account_id
WHERE l.entry_id = $1
ORDER BY l.line_no
`

func (q *Queries) ListJournalLines(ctx context.Context, entryID string) ([]JournalLineRow, error) {
	rows, err := q.db.Query(ctx, listJournalLines, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []JournalLineRow
	for rows.Next() {
		var i JournalLineRow
		if err := rows.Scan(
			&i.ID,
			&i.EntryID,
			&i.LineNo,
			&i.AccountID,
			&i.AccountCode,
			&i.Description,
			&i.Debit,
			&i.Credit,
			&i.CreatedAt,
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

const listPostedLinesByAccount = `-- name: ListPostedLinesByAccount :many
SELECT l.id, l.entry_id, l.line_no, l.account_id, a.code, l.description, l.debit, l.credit, l.created_at
FROM journal_lines l
JOIN accounts a ON a.id = l.account_id
JOIN journal_entries e ON e.id = l.entry_id
WHERE l.account_id = $1 AND e.is_posted
ORDER BY e.entry_date, e.number, l.line_no
`

func (q *Queries) ListPostedLinesByAccount(ctx context.Context, accountID string) ([]JournalLineRow, error) {
	rows, err := q.db.Query(ctx, listPostedLinesByAccount, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []JournalLineRow
	for rows.Next() {
		var i JournalLineRow
		if err := rows.Scan(
			&i.ID,
			&i.EntryID,
			&i.LineNo,
			&i.AccountID,
			&i.AccountCode,
			&i.Description,
			&i.Debit,
			&i.Credit,
			&i.CreatedAt,
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

const markJournalEntryPosted = `-- name: MarkJournalEntryPosted :execrows
UPDATE journal_entries
SET is_posted = TRUE, posted_at = $2, fiscal_period_id = $3, updated_at = $2
WHERE id = $1 AND is_posted = FALSE
`

type MarkJournalEntryPostedParams struct {
	ID             string             `json:"id"`
	PostedAt       pgtype.Timestamptz `json:"posted_at"`
	FiscalPeriodID pgtype.Text        `json:"fiscal_period_id"`
}

func (q *Queries) MarkJournalEntryPosted(ctx context.Context, arg MarkJournalEntryPostedParams) (int64, error) {
	result, err := q.db.Exec(ctx, markJournalEntryPosted, arg.ID, arg.PostedAt, arg.FiscalPeriodID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const markJournalEntryReversed = `-- name: MarkJournalEntryReversed :execrows
UPDATE journal_entries
SET is_reversed = TRUE, reversed_by = $2, reversed_at = $3, updated_at = $3
WHERE id = $1 AND is_posted AND NOT is_reversed
`

type MarkJournalEntryReversedParams struct {
	ID         string             `json:"id"`
	ReversedBy pgtype.Text        `json:"reversed_by"`
	ReversedAt pgtype.Timestamptz `json:"reversed_at"`
}

func (q *Queries) MarkJournalEntryReversed(ctx context.Context, arg MarkJournalEntryReversedParams) (int64, error) {
	result, err := q.db.Exec(ctx, markJournalEntryReversed, arg.ID, arg.ReversedBy, arg.ReversedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const sumPostedLines = `-- name: SumPostedLines :one
SELECT COALESCE(SUM(l.debit), 0)::numeric AS total_debit, COALESCE(SUM(l.credit), 0)::numeric AS total_credit
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE e.is_posted
`

func (q *Queries) SumPostedLines(ctx context.Context) (SumPostedLinesRow, error) {
	row := q.db.QueryRow(ctx, sumPostedLines)
	var i SumPostedLinesRow
	err := row.Scan(
		&i.TotalDebit,
		&i.TotalCredit,
	)
	return i, err
}

const updateJournalEntryDraft = `-- name: UpdateJournalEntryDraft :execrows
UPDATE journal_entries
SET description = $2, entry_date = $3, fiscal_period_id = $4, updated_at = $5
WHERE id = $1 AND is_posted = FALSE
`

type UpdateJournalEntryDraftParams struct {
	ID             string             `json:"id"`
	Description    string             `json:"description"`
	EntryDate      pgtype.Date        `json:"entry_date"`
	FiscalPeriodID pgtype.Text        `json:"fiscal_period_id"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateJournalEntryDraft(ctx context.Context, arg UpdateJournalEntryDraftParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateJournalEntryDraft, arg.ID, arg.Description, arg.EntryDate, arg.FiscalPeriodID, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
