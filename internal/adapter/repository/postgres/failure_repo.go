package postgres

import (
	"context"
	"time"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/infrastructure/postgres/generated"
)

// FailureRepository implements usecase.FailureRepository. It always writes
// through the pool so a record survives the rollback of the posting it describes.
type FailureRepository struct {
	queries *generated.Queries
}

// NewFailureRepository creates a new FailureRepository.
func NewFailureRepository(pool DB) *FailureRepository {
	return &FailureRepository{queries: generated.New(pool)}
}

// Upsert records a failed attempt.
func (r *FailureRepository) Upsert(ctx context.Context, failure *domain.PostingFailure) (*domain.PostingFailure, error) {
	var payload []byte
	if len(failure.Payload) > 0 {
		payload = failure.Payload
	}
	row, err := r.queries.UpsertPostingFailure(ctx, generated.UpsertPostingFailureParams{
		ID:            failure.ID,
		SourceType:    string(failure.SourceType),
		SourceID:      failure.SourceID,
		EventType:     failure.EventType,
		Payload:       payload,
		LastError:     failure.LastError,
		LastAttemptAt: timeToPgTimestamptz(failure.LastAttemptAt),
	})
	if err != nil {
		return nil, err
	}
	return rowToFailure(row), nil
}

// Resolve stamps resolvedAt on the open failure for key.
func (r *FailureRepository) Resolve(ctx context.Context, key domain.EventKey, resolvedAt time.Time) (bool, error) {
	n, err := r.queries.ResolvePostingFailure(ctx, generated.ResolvePostingFailureParams{
		SourceType: string(key.SourceType),
		SourceID:   key.SourceID,
		EventType:  key.EventType,
		ResolvedAt: timeToPgTimestamptz(resolvedAt),
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get retrieves the failure recorded for key.
func (r *FailureRepository) Get(ctx context.Context, key domain.EventKey) (*domain.PostingFailure, error) {
	row, err := r.queries.GetPostingFailure(ctx, generated.GetPostingFailureParams{
		SourceType: string(key.SourceType),
		SourceID:   key.SourceID,
		EventType:  key.EventType,
	})
	if err != nil {
		return nil, notFound(err, domain.ErrFailureNotFound)
	}
	return rowToFailure(row), nil
}

// ListOpen lists unresolved failures, oldest attempt first.
func (r *FailureRepository) ListOpen(ctx context.Context, limit, offset int) ([]*domain.PostingFailure, error) {
	rows, err := r.queries.ListOpenPostingFailures(ctx, generated.ListOpenPostingFailuresParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}
	failures := make([]*domain.PostingFailure, 0, len(rows))
	for _, row := range rows {
		failures = append(failures, rowToFailure(row))
	}
	return failures, nil
}
