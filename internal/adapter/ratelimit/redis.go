package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter counts requests in a shared Redis counter keyed by
// (client, class, window index), so the decision is consistent across
// multiple server processes. Counter expiry runs slightly past the
// window so stale keys clean themselves up.
type RedisLimiter struct {
	rdb    *redis.Client
	limits Limits
	now    func() time.Time
}

// NewRedisLimiter connects to Redis using a redis:// URL.
func NewRedisLimiter(url string, limits Limits) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisLimiter{
		rdb:    redis.NewClient(opts),
		limits: limits,
		now:    time.Now,
	}, nil
}

// allow atomically increments this window's counter and admits while the
// post-increment count does not exceed the limit. A Redis error is
// returned for the caller to degrade on; it is never a rejection.
func (r *RedisLimiter) allow(client, class string) (bool, error) {
	limit, ok := r.limits.limitFor(class)
	if !ok {
		return true, nil
	}

	window := int64(r.limits.Window / time.Second)
	if window <= 0 {
		window = 1
	}
	key := fmt.Sprintf("rl:%s:%s:%d", client, class, r.now().Unix()/window)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	count, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis incr: %w", err)
	}
	r.rdb.Expire(ctx, key, r.limits.Window+time.Second)

	return count <= int64(limit), nil
}

// Close releases the Redis connection.
func (r *RedisLimiter) Close() error {
	return r.rdb.Close()
}
