package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getPostingFailure = `-- name: GetPostingFailure :one
SELECT id, source_type, source_id, event_type, payload, last_error, attempts, last_attempt_at, resolved_at, created_at FROM posting_failures
WHERE source_type = $1 AND source_id = $2 AND event_type = $3
`

type GetPostingFailureParams struct {
	SourceType string `json:"source_type"`
	SourceID   string `json:"source_id"`
	EventType  string `json:"event_type"`
}

func (q *Queries) GetPostingFailure(ctx context.Context, arg GetPostingFailureParams) (PostingFailure, error) {
	row := q.db.QueryRow(ctx, getPostingFailure, arg.SourceType, arg.SourceID, arg.EventType)
	var i PostingFailure
	err := row.Scan(
		&i.ID,
		&i.SourceType,
		&i.SourceID,
		&i.EventType,
		&i.Payload,
		&i.LastError,
		&i.Attempts,
		&i.LastAttemptAt,
		&i.ResolvedAt,
		&i.CreatedAt,
	)
	return i, err
}

const listOpenPostingFailures = `-- name: ListOpenPostingFailures :many
SELECT id, source_type, source_id, event_type, payload, last_error, attempts, last_attempt_at, resolved_at, created_at FROM posting_failures
WHERE resolved_at IS NULL
ORDER BY last_attempt_at
LIMIT $1 OFFSET $2
`

type ListOpenPostingFailuresParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListOpenPostingFailures(ctx context.Context, arg ListOpenPostingFailuresParams) ([]PostingFailure, error) {
	rows, err := q.db.Query(ctx, listOpenPostingFailures, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PostingFailure
	for rows.Next() {
		var i PostingFailure
		if err := rows.Scan(
			&i.ID,
			&i.SourceType,
			&i.SourceID,
			&i.EventType,
			&i.Payload,
			&i.LastError,
			&i.Attempts,
			&i.LastAttemptAt,
			&i.ResolvedAt,
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

const resolvePostingFailure = `-- name: ResolvePostingFailure :execrows
UPDATE posting_failures SET resolved_at = $4
WHERE source_type = $1 AND source_id = $2 AND event_type = $3 AND resolved_at IS NULL
`

type ResolvePostingFailureParams struct {
	SourceType string             `json:"source_type"`
	SourceID   string             `json:"source_id"`
	EventType  string             `json:"event_type"`
	ResolvedAt pgtype.Timestamptz `json:"resolved_at"`
}

func (q *Queries) ResolvePostingFailure(ctx context.Context, arg ResolvePostingFailureParams) (int64, error) {
	result, err := q.db.Exec(ctx, resolvePostingFailure, arg.SourceType, arg.SourceID, arg.EventType, arg.ResolvedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const upsertPostingFailure = `-- name: UpsertPostingFailure :one
INSERT INTO posting_failures (id, source_type, source_id, event_type, payload, last_error, attempts, last_attempt_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $7)
ON CONFLICT (source_type, source_id, event_type) DO UPDATE
SET attempts = posting_failures.attempts + 1,
    last_error = EXCLUDED.last_error,
    last_attempt_at = EXCLUDED.last_attempt_at,
    payload = COALESCE(EXCLUDED.payload, posting_failures.payload),
    resolved_at = NULL
RETURNING id, source_type, source_id, event_type, payload, last_error, attempts, last_attempt_at, resolved_at, created_at
`

type UpsertPostingFailureParams struct {
	ID            string             `json:"id"`
	SourceType    string             `json:"source_type"`
	SourceID      string             `json:"source_id"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	LastError     string             `json:"last_error"`
	LastAttemptAt pgtype.Timestamptz `json:"last_attempt_at"`
}

func (q *Queries) UpsertPostingFailure(ctx context.Context, arg UpsertPostingFailureParams) (PostingFailure, error) {
	row := q.db.QueryRow(ctx, upsertPostingFailure, arg.ID, arg.SourceType, arg.SourceID, arg.EventType, arg.Payload, arg.LastError, arg.LastAttemptAt)
	var i PostingFailure
	err := row.Scan(
		&i.ID,
		&i.SourceType,
		&i.SourceID,
		&i.EventType,
		&i.Payload,
		&i.LastError,
		&i.Attempts,
		&i.LastAttemptAt,
		&i.ResolvedAt,
		&i.CreatedAt,
	)
	return i, err
}
