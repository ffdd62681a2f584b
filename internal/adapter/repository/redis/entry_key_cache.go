package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/ledgerpost/internal/domain"
)

// DefaultEntryKeyTTL bounds how long an idempotency key answer is remembered.
const DefaultEntryKeyTTL = 24 * time.Hour

// EntryKeyCache implements usecase.EntryKeyCache using Redis. It is only a
// shortcut: the database unique indexes remain the source of truth.
type EntryKeyCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewEntryKeyCache creates a new EntryKeyCache. A non-positive ttl uses DefaultEntryKeyTTL.
func NewEntryKeyCache(client *redis.Client, ttl time.Duration) *EntryKeyCache {
	if ttl <= 0 {
		ttl = DefaultEntryKeyTTL
	}
	return &EntryKeyCache{
		client: client,
		prefix: "ledger:entry_key:",
		ttl:    ttl,
	}
}

// Get returns the entry id cached for key, or "" on a miss.
func (c *EntryKeyCache) Get(ctx context.Context, key domain.EventKey) (string, error) {
	id, err := c.client.Get(ctx, c.prefix+key.String()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return id, err
}

// Set remembers that entryID answered key.
func (c *EntryKeyCache) Set(ctx context.Context, key domain.EventKey, entryID string) error {
	return c.client.Set(ctx, c.prefix+key.String(), entryID, c.ttl).Err()
}
