package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the window counter and stamps the TTL on
// first hit, atomically. Returns the current count and the remaining TTL
// in milliseconds.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

// RedisLimiter counts requests in fixed windows backed by Redis, so limits
// hold across replicas.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	config Config
}

// NewRedisLimiter returns an error when the config is unusable. The prefix
// namespaces keys so independent limiters can share one Redis.
func NewRedisLimiter(client redis.UniversalClient, prefix string, config Config) (*RedisLimiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		config: config,
	}, nil
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	vals, err := fixedWindowScript.Run(ctx, l.client,
		[]string{l.prefix + key}, l.config.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit check for %s: %w", key, err)
	}
	if len(vals) != 2 {
		return nil, fmt.Errorf("rate limit check for %s: unexpected script reply", key)
	}

	count, ttlMillis := vals[0], vals[1]
	remaining := l.config.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   count <= int64(l.config.Limit),
		Remaining: remaining,
	}
	if !result.Allowed && ttlMillis > 0 {
		result.RetryAfter = time.Duration(ttlMillis) * time.Millisecond
	}
	return result, nil
}
