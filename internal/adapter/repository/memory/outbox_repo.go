package memory

import (
	"context"
	"time"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	store *Store
}

// Create queues an event in t, or stores it immediately when t is nil.
func (r *OutboxRepository) Create(ctx context.Context, t usecase.Transaction, event *domain.OutboxEvent) error {
	return r.store.write(ctx, t, func(tx *Tx) error {
		tx.outbox = append(tx.outbox, copyOf(event))
		return nil
	})
}

// GetUnpublished returns unpublished events in creation order.
func (r *OutboxRepository) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var result []*domain.OutboxEvent
	for _, e := range r.store.outbox {
		if e.Published {
			continue
		}
		result = append(result, copyOf(e))
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(_ context.Context, id string, publishedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, e := range r.store.outbox {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
			return nil
		}
	}
	return nil
}

// GetByAggregate returns the events of one aggregate in creation order.
func (r *OutboxRepository) GetByAggregate(_ context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var matched []*domain.OutboxEvent
	for _, e := range r.store.outbox {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			matched = append(matched, e)
		}
	}

	result := make([]*domain.OutboxEvent, 0, len(matched))
	for _, e := range page(matched, limit, offset) {
		result = append(result, copyOf(e))
	}
	return result, nil
}
