package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getAccountMapping = `-- name: GetAccountMapping :one
SELECT role, account_code, updated_at FROM account_mappings WHERE role = $1
`

func (q *Queries) GetAccountMapping(ctx context.Context, role string) (AccountMapping, error) {
	row := q.db.QueryRow(ctx, getAccountMapping, role)
	var i AccountMapping
	err := row.Scan(&i.Role, &i.AccountCode, &i.UpdatedAt)
	return i, err
}

const listAccountMappings = `-- name: ListAccountMappings :many
SELECT role, account_code, updated_at FROM account_mappings ORDER BY role
`

func (q *Queries) ListAccountMappings(ctx context.Context) ([]AccountMapping, error) {
	rows, err := q.db.Query(ctx, listAccountMappings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AccountMapping
	for rows.Next() {
		var i AccountMapping
		if err := rows.Scan(&i.Role, &i.AccountCode, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertAccountMapping = `-- name: UpsertAccountMapping :exec
INSERT INTO account_mappings (role, account_code, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (role) DO UPDATE SET account_code = EXCLUDED.account_code, updated_at = EXCLUDED.updated_at
`

type UpsertAccountMappingParams struct {
	Role        string             `json:"role"`
	AccountCode string             `json:"account_code"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpsertAccountMapping(ctx context.Context, arg UpsertAccountMappingParams) error {
	_, err := q.db.Exec(ctx, upsertAccountMapping, arg.Role, arg.AccountCode, arg.UpdatedAt)
	return err
}
