package eventpublisher

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/ledgerpost/internal/domain"
)

// Outbox is the part of the outbox repository the publisher drains.
type Outbox interface {
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
}

// Publisher delivers an outbox event to an external system.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Config for EventPublisher.
type Config struct {
	Outbox    Outbox
	Publisher Publisher
	Logger    zerolog.Logger
	BatchSize int
	Interval  time.Duration
	Now       func() time.Time
}

// EventPublisher drains the outbox into a Publisher.
type EventPublisher struct {
	outbox    Outbox
	publisher Publisher
	logger    zerolog.Logger
	batchSize int
	interval  time.Duration
	now       func() time.Time
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &EventPublisher{
		outbox:    cfg.Outbox,
		publisher: cfg.Publisher,
		logger:    cfg.Logger.With().Str("component", "outbox").Logger(),
		batchSize: cfg.BatchSize,
		interval:  cfg.Interval,
		now:       cfg.Now,
	}
}

// Start polls the outbox until ctx is cancelled.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info().
		Int("batch_size", ep.batchSize).
		Dur("interval", ep.interval).
		Msg("event publisher started")

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	for {
		if _, err := ep.Drain(ctx); err != nil {
			ep.logger.Error().Err(err).Msg("error processing outbox")
		}

		select {
		case <-ctx.Done():
			ep.logger.Info().Msg("event publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Drain publishes one batch of unpublished events and returns how many were
// published. An event that fails to publish stays in the outbox for the next
// round and does not hold up the rest of the batch.
func (ep *EventPublisher) Drain(ctx context.Context) (int, error) {
	events, err := ep.outbox.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to read outbox: %w", err)
	}

	published := 0
	for _, event := range events {
		if err := ep.publisher.Publish(ctx, event); err != nil {
			ep.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("failed to publish event")
			continue
		}

		// Publishing is at-least-once: a failed mark republishes the event next round.
		if err := ep.outbox.MarkPublished(ctx, event.ID, ep.now().UTC()); err != nil {
			ep.logger.Error().Err(err).Str("event_id", event.ID).Msg("failed to mark event as published")
			continue
		}
		published++
	}

	if published > 0 {
		ep.logger.Debug().Int("count", published).Msg("outbox events published")
	}
	return published, nil
}
