// Package ratelimit throttles sensitive endpoints with fixed windows kept in Redis.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/st-angelo/webarena-auth/internal/model"
)

// ErrUnavailable wraps Redis failures so callers can choose to fail open.
var ErrUnavailable = errors.New("rate limiter unavailable")

var _ model.Limiter = (*Redis)(nil)

// Redis counts attempts per key with INCR and starts the window on the first hit.
type Redis struct {
	client      redis.Cmdable
	prefix      string
	maxAttempts int64
	window      time.Duration
}

// NewRedis creates a limiter allowing maxAttempts per window for every key.
func NewRedis(client redis.Cmdable, prefix string, maxAttempts int, window time.Duration) *Redis {
	return &Redis{
		client:      client,
		prefix:      prefix,
		maxAttempts: int64(maxAttempts),
		window:      window,
	}
}

// Allow records an attempt for key. It returns model.ErrRateLimited once the
// budget of the current window is spent.
func (l *Redis) Allow(ctx context.Context, key string) error {
	k := l.prefix + ":" + key

	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if count > l.maxAttempts {
		return model.ErrRateLimited
	}

	return nil
}
