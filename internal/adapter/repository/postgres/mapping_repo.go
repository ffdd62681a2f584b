package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/infrastructure/postgres/generated"
)

// MappingRepository implements usecase.MappingRepository.
type MappingRepository struct {
	queries *generated.Queries
	now     func() time.Time
}

// NewMappingRepository creates a new MappingRepository.
func NewMappingRepository(pool DB) *MappingRepository {
	return &MappingRepository{queries: generated.New(pool), now: time.Now}
}

// AccountCode resolves a posting role to an account code.
func (r *MappingRepository) AccountCode(ctx context.Context, role string) (string, error) {
	row, err := r.queries.GetAccountMapping(ctx, role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", domain.ErrMappingNotFound, role)
		}
		return "", err
	}
	return row.AccountCode, nil
}

// Set maps role to accountCode.
func (r *MappingRepository) Set(ctx context.Context, role, accountCode string) error {
	return mapError(r.queries.UpsertAccountMapping(ctx, generated.UpsertAccountMappingParams{
		Role:        role,
		AccountCode: accountCode,
		UpdatedAt:   timeToPgTimestamptz(r.now().UTC()),
	}))
}

// List returns every role mapping.
func (r *MappingRepository) List(ctx context.Context) (map[string]string, error) {
	rows, err := r.queries.ListAccountMappings(ctx)
	if err != nil {
		return nil, err
	}
	mappings := make(map[string]string, len(rows))
	for _, row := range rows {
		mappings[row.Role] = row.AccountCode
	}
	return mappings, nil
}
