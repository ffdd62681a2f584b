package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iho/ledgerpost/internal/domain"
)

// FailureUseCase keeps the durable record of posting attempts that failed.
type FailureUseCase struct {
	failureRepo FailureRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	options
}

// NewFailureUseCase creates a new FailureUseCase.
func NewFailureUseCase(
	failureRepo FailureRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	opts ...Option,
) *FailureUseCase {
	return &FailureUseCase{
		failureRepo: failureRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		options:     newOptions(opts),
	}
}

// RecordFailure upserts the failure for key, bumping its attempt count.
// payload is kept so the event can be re-dispatched unchanged.
func (uc *FailureUseCase) RecordFailure(ctx context.Context, key domain.EventKey, payload json.RawMessage, cause error) (*domain.PostingFailure, error) {
	now := uc.now().UTC()
	failure, err := uc.failureRepo.Upsert(ctx, &domain.PostingFailure{
		ID:            uc.idGen.Generate(),
		SourceType:    key.SourceType,
		SourceID:      key.SourceID,
		EventType:     key.EventType,
		Payload:       payload,
		LastError:     cause.Error(),
		Attempts:      1,
		LastAttemptAt: now,
		CreatedAt:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record posting failure for %s: %w", key, err)
	}

	uc.publish(ctx, failure, domain.EventTypeFailureRecorded)
	if uc.metrics != nil {
		uc.metrics.FailuresRecorded.WithLabelValues(key.EventType).Inc()
	}
	uc.logger.Warn().
		Err(cause).
		Str("key", key.String()).
		Int("attempts", failure.Attempts).
		Msg("posting failure recorded")

	return failure, nil
}

// ResolveFailure closes the open failure for key. It is a no-op when none is open.
func (uc *FailureUseCase) ResolveFailure(ctx context.Context, key domain.EventKey) error {
	resolved, err := uc.failureRepo.Resolve(ctx, key, uc.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to resolve posting failure for %s: %w", key, err)
	}
	if !resolved {
		return nil
	}

	if failure, err := uc.failureRepo.Get(ctx, key); err == nil {
		uc.publish(ctx, failure, domain.EventTypeFailureResolved)
	}
	if uc.metrics != nil {
		uc.metrics.FailuresResolved.WithLabelValues(key.EventType).Inc()
	}
	uc.logger.Info().Str("key", key.String()).Msg("posting failure resolved")

	return nil
}

// GetFailure retrieves the failure recorded for key.
func (uc *FailureUseCase) GetFailure(ctx context.Context, key domain.EventKey) (*domain.PostingFailure, error) {
	return uc.failureRepo.Get(ctx, key)
}

// ListOpenFailures lists unresolved failures, oldest attempt first.
func (uc *FailureUseCase) ListOpenFailures(ctx context.Context, limit, offset int) ([]*domain.PostingFailure, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.failureRepo.ListOpen(ctx, limit, offset)
}

// publish writes an outbox event outside any transaction. Outbox errors are
// logged only; the failure record itself is what must not be lost.
func (uc *FailureUseCase) publish(ctx context.Context, failure *domain.PostingFailure, eventType string) {
	if uc.outboxRepo == nil {
		return
	}
	event := uc.outboxEvent(uc.idGen.Generate(), domain.AggregateTypePostingFailure, failure.ID, eventType,
		domain.FailureEvent{
			SourceType: string(failure.SourceType),
			SourceID:   failure.SourceID,
			EventType:  failure.EventType,
			Attempts:   failure.Attempts,
			LastError:  failure.LastError,
		})
	if err := uc.outboxRepo.Create(ctx, nil, event); err != nil {
		uc.logger.Error().Err(err).Str("failure_id", failure.ID).Msg("failed to write failure outbox event")
	}
}
