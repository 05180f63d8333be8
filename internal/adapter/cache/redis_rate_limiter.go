package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is a fixed-window counter shared across server processes,
// bounding abuse of the payment-initiation path per user.
type RedisRateLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
}

func NewRedisRateLimiter(rdb *redis.Client, limit int64, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{rdb: rdb, limit: limit, window: window}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	rkey := "rl:" + key
	n, err := l.rdb.Incr(ctx, rkey).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		// first hit in this window sets the expiry
		if err := l.rdb.Expire(ctx, rkey, l.window).Err(); err != nil {
			return false, err
		}
	}
	return n <= l.limit, nil
}
