package ratelimit

import (
	"context"
	"math"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "app_rate_limit:"

// RedisLimiter backs the counters with a shared Redis so the quota invariant
// holds across instances. INCR is atomic server-side; the TTL set when the
// counter is first created anchors the window at the first hit.
type RedisLimiter struct {
	rdb *redis.Client
}

func NewRedisLimiter(rdb *redis.Client) *RedisLimiter {
	return &RedisLimiter{rdb: rdb}
}

func (l *RedisLimiter) Hit(ctx context.Context, key string, limit int) (Result, error) {
	full := keyPrefix + key
	n, err := l.rdb.Incr(ctx, full).Result()
	if err != nil {
		return Result{}, err
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, full, Window).Err(); err != nil {
			return Result{}, err
		}
	}
	if n > int64(limit) {
		ttl, err := l.rdb.TTL(ctx, full).Result()
		if err != nil {
			return Result{}, err
		}
		retry := int(math.Ceil(ttl.Seconds()))
		if ttl <= 0 || retry < 1 {
			retry = 1
		}
		return Result{Limit: limit, RetryAfter: retry}, nil
	}
	return Result{Allowed: true, Limit: limit, Remaining: limit - int(n)}, nil
}
