package ratelimit

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidConfig = errors.New("invalid rate limit configuration")

// Config defines a fixed window limit: at most Limit requests per Window.
type Config struct {
	Limit  int
	Window time.Duration
}

// Validate checks the config for usable values.
func (c Config) Validate() error {
	if c.Limit <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("limit must be positive"))
	}
	if c.Window <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("window must be positive"))
	}
	return nil
}

// Result describes the outcome of a limiter check.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter is the counting backend. Implementations must be safe for
// concurrent use.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}
