package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventDeduper filters webhook redeliveries. Providers deliver events
// at-least-once; marking event IDs lets the service acknowledge duplicates
// without repeating side effects such as the activation email.
type EventDeduper interface {
	// Seen atomically marks the event ID and reports whether it had
	// already been marked.
	Seen(ctx context.Context, eventID string) (bool, error)
}

// redisSetNX is the slice of the go-redis client the deduper needs.
type redisSetNX interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

// RedisEventDeduper marks event IDs with SET NX under a TTL. The TTL only
// needs to outlast the provider's redelivery window; expired keys cost a
// redundant but idempotent upsert, never incorrect state.
type RedisEventDeduper struct {
	client redisSetNX
	prefix string
	ttl    time.Duration
}

const defaultDedupeTTL = 24 * time.Hour

// NewRedisEventDeduper creates a deduper backed by the given Redis client.
// A non-positive ttl falls back to 24 hours.
func NewRedisEventDeduper(client redis.UniversalClient, ttl time.Duration) *RedisEventDeduper {
	if ttl <= 0 {
		ttl = defaultDedupeTTL
	}
	return &RedisEventDeduper{
		client: client,
		prefix: "billing:webhook:event:",
		ttl:    ttl,
	}
}

// Seen returns true when the event ID was already marked within the TTL.
func (d *RedisEventDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	set, err := d.client.SetNX(ctx, d.prefix+eventID, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe event %s: %w", eventID, err)
	}
	return !set, nil
}
