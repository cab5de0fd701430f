package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter implements a fixed-window counter on Redis. The first hit
// within a window creates the key with a TTL; subsequent hits increment it.
type RedisRateLimiter struct {
	client *redis.Client
	window time.Duration
}

// NewRedisRateLimiter builds a limiter over the given client. A nil client
// yields a limiter that allows everything.
func NewRedisRateLimiter(client *redis.Client, window time.Duration) *RedisRateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RedisRateLimiter{client: client, window: window}
}

// Allow reports whether the caller identified by key is still under limit for
// the current window. A limit of zero or below disables limiting for the key.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string, limit int) (bool, error) {
	if l == nil || l.client == nil || limit <= 0 {
		return true, nil
	}

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return count.Val() <= int64(limit), nil
}
