package eventpublisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/ledgerpost/internal/domain"
)

var testNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func TestDrainPublishesAndMarks(t *testing.T) {
	repo := &stubOutbox{
		events: []*domain.OutboxEvent{{ID: "evt-1", EventType: domain.EventTypeJournalPosted}},
	}
	pub := &stubPublisher{}
	ep := newTestPublisher(repo, pub)

	n, err := ep.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one published event, got %d", n)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(pub.published))
	}
	if len(repo.marked) != 1 || repo.marked[0] != "evt-1" {
		t.Fatalf("expected event to be marked published, got %#v", repo.marked)
	}
	if !repo.markedAt.Equal(testNow) {
		t.Fatalf("expected published_at %v, got %v", testNow, repo.markedAt)
	}
}

func TestDrainContinuesOnPublishError(t *testing.T) {
	repo := &stubOutbox{
		events: []*domain.OutboxEvent{
			{ID: "evt-1", EventType: domain.EventTypeJournalPosted},
			{ID: "evt-2", EventType: domain.EventTypeJournalPosted},
		},
	}
	pub := &stubPublisher{
		errorsByID: map[string]error{"evt-1": errors.New("stream unavailable")},
	}
	ep := newTestPublisher(repo, pub)

	n, err := ep.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain returned error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one published event, got %d", n)
	}
	if len(pub.published) != 1 || pub.published[0].ID != "evt-2" {
		t.Fatalf("expected only evt-2 to be published, got %#v", pub.published)
	}
	if len(repo.marked) != 1 || repo.marked[0] != "evt-2" {
		t.Fatalf("expected only evt-2 to be marked, got %#v", repo.marked)
	}
}

func TestDrainDoesNotCountUnmarkedEvents(t *testing.T) {
	repo := &stubOutbox{
		events:  []*domain.OutboxEvent{{ID: "evt-1"}},
		markErr: errors.New("connection reset"),
	}
	ep := newTestPublisher(repo, &stubPublisher{})

	n, err := ep.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain returned error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected nothing counted as published, got %d", n)
	}
}

func TestDrainOutboxError(t *testing.T) {
	repo := &stubOutbox{readErr: errors.New("pool closed")}
	ep := newTestPublisher(repo, &stubPublisher{})

	if _, err := ep.Drain(context.Background()); err == nil {
		t.Fatal("expected an error when the outbox cannot be read")
	}
}

func TestStartStopsOnContextCancellation(t *testing.T) {
	repo := &stubOutbox{}
	ep := newTestPublisher(repo, &stubPublisher{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ep.Start(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop after cancel")
	}
}

func newTestPublisher(repo *stubOutbox, pub *stubPublisher) *EventPublisher {
	return NewEventPublisher(Config{
		Outbox:    repo,
		Publisher: pub,
		Logger:    zerolog.Nop(),
		BatchSize: 10,
		Interval:  5 * time.Millisecond,
		Now:       func() time.Time { return testNow },
	})
}

type stubOutbox struct {
	events   []*domain.OutboxEvent
	marked   []string
	markedAt time.Time
	readErr  error
	markErr  error
}

func (s *stubOutbox) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	if len(s.events) <= limit {
		return append([]*domain.OutboxEvent(nil), s.events...), nil
	}
	return append([]*domain.OutboxEvent(nil), s.events[:limit]...), nil
}

func (s *stubOutbox) MarkPublished(_ context.Context, id string, publishedAt time.Time) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.marked = append(s.marked, id)
	s.markedAt = publishedAt
	return nil
}

type stubPublisher struct {
	published  []*domain.OutboxEvent
	errorsByID map[string]error
}

func (s *stubPublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	if err := s.errorsByID[event.ID]; err != nil {
		return err
	}
	s.published = append(s.published, event)
	return nil
}
