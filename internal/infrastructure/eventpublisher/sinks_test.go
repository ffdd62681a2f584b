package eventpublisher

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/iho/ledgerpost/internal/domain"
)

func TestRedisStreamPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	pub := NewRedisStreamPublisher(client, "ledger:events", 0)
	event := &domain.OutboxEvent{
		ID:            "evt-1",
		AggregateID:   "je-1",
		AggregateType: domain.AggregateTypeJournalEntry,
		EventType:     domain.EventTypeJournalPosted,
		Payload:       map[string]any{"number": "JE-20240315-0001"},
		CreatedAt:     testNow,
	}

	require.NoError(t, pub.Publish(ctx, event))

	msgs, err := client.XRange(ctx, "ledger:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "evt-1", msgs[0].Values["event_id"])
	require.Equal(t, domain.EventTypeJournalPosted, msgs[0].Values["event_type"])
	require.Equal(t, "je-1", msgs[0].Values["aggregate_id"])
	require.JSONEq(t, `{"number":"JE-20240315-0001"}`, msgs[0].Values["payload"].(string))
}

func TestRedisStreamPublisher_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	pub := NewRedisStreamPublisher(client, "ledger:events", 10)
	require.Error(t, pub.Publish(context.Background(), &domain.OutboxEvent{ID: "evt-1"}))
}

func TestLogPublisher_Publish(t *testing.T) {
	pub := NewLogPublisher(zerolog.Nop())
	require.NoError(t, pub.Publish(context.Background(), &domain.OutboxEvent{
		ID:      "evt-1",
		Payload: map[string]any{"entry_id": "je-1"},
	}))
}
