package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/iho/ledgerpost/internal/domain"
)

// FailureRepository implements usecase.FailureRepository. Writes apply
// immediately, outside any transaction.
type FailureRepository struct {
	store *Store
}

func failureKey(key domain.EventKey) string {
	return fmt.Sprintf("%s:%s:%s", key.SourceType, key.SourceID, key.EventType)
}

func copyFailure(f *domain.PostingFailure) *domain.PostingFailure {
	c := copyOf(f)
	c.Payload = append([]byte(nil), f.Payload...)
	return c
}

// Upsert records a failed attempt.
func (r *FailureRepository) Upsert(_ context.Context, failure *domain.PostingFailure) (*domain.PostingFailure, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	k := failureKey(failure.Key())
	existing, ok := r.store.failures[k]
	if !ok {
		created := copyFailure(failure)
		created.Attempts = 1
		created.ResolvedAt = nil
		r.store.failures[k] = created
		return copyFailure(created), nil
	}

	existing.Attempts++
	existing.LastError = failure.LastError
	existing.LastAttemptAt = failure.LastAttemptAt
	existing.ResolvedAt = nil
	if len(failure.Payload) > 0 {
		existing.Payload = append([]byte(nil), failure.Payload...)
	}
	return copyFailure(existing), nil
}

// Resolve stamps resolvedAt on the open failure for key.
func (r *FailureRepository) Resolve(_ context.Context, key domain.EventKey, resolvedAt time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	f, ok := r.store.failures[failureKey(key)]
	if !ok || !f.IsOpen() {
		return false, nil
	}
	f.ResolvedAt = &resolvedAt
	return true, nil
}

// Get retrieves the failure recorded for key.
func (r *FailureRepository) Get(_ context.Context, key domain.EventKey) (*domain.PostingFailure, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	f, ok := r.store.failures[failureKey(key)]
	if !ok {
		return nil, domain.ErrFailureNotFound
	}
	return copyFailure(f), nil
}

// ListOpen lists unresolved failures, least recently attempted first.
func (r *FailureRepository) ListOpen(_ context.Context, limit, offset int) ([]*domain.PostingFailure, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var open []*domain.PostingFailure
	for _, f := range r.store.failures {
		if f.IsOpen() {
			open = append(open, f)
		}
	}
	slices.SortFunc(open, func(a, b *domain.PostingFailure) int { return a.LastAttemptAt.Compare(b.LastAttemptAt) })

	result := make([]*domain.PostingFailure, 0, len(open))
	for _, f := range page(open, limit, offset) {
		result = append(result, copyFailure(f))
	}
	return result, nil
}
