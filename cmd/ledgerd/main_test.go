package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/ledgerpost/internal/infrastructure/config"
	"github.com/iho/ledgerpost/internal/infrastructure/eventpublisher"
)

func TestOutboxSink(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	if _, ok := outboxSink(&config.Config{OutboxStream: "ledger:events"}, client, zerolog.Nop()).(*eventpublisher.RedisStreamPublisher); !ok {
		t.Fatal("expected a redis stream publisher when a stream is configured")
	}
	if _, ok := outboxSink(&config.Config{}, client, zerolog.Nop()).(*eventpublisher.LogPublisher); !ok {
		t.Fatal("expected a log publisher without a stream")
	}
}

func TestIgnoreCanceled(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "canceled", err: context.Canceled, want: nil},
		{name: "wrapped canceled", err: fmt.Errorf("publisher: %w", context.Canceled), want: nil},
		{name: "real failure", err: boom, want: boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ignoreCanceled(tt.err); !errors.Is(got, tt.want) || (tt.want == nil && got != nil) {
				t.Fatalf("ignoreCanceled(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
