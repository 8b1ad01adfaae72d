package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// EventCache implements ports.EventCache using Redis. It is the best-effort
// fast path for acknowledging redelivered webhooks; the settled flag under
// the row lock stays authoritative.
type EventCache struct {
	client *goredis.Client
}

// NewEventCache creates a new Redis-backed event ack cache.
func NewEventCache(client *goredis.Client) *EventCache {
	return &EventCache{client: client}
}

// Get returns the cached ack status for the event key, or "" on miss.
func (c *EventCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == goredis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("redis event cache get: %w", err)
	}
	return val, nil
}

// Set stores the ack status for the event key with TTL.
func (c *EventCache) Set(ctx context.Context, key string, status string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, status, ttl).Err(); err != nil {
		return fmt.Errorf("redis event cache set: %w", err)
	}
	return nil
}
