package ratelimit

import (
	"context"
	"fmt"
	"time"

	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/go-redis/redis/v8"
)

// DefaultKeyPrefix namespaces limiter counters in a shared Redis
const DefaultKeyPrefix = "prize-wheel:ratelimit:"

// RedisLimiter is a fixed-window limiter shared by every instance pointing at the same Redis
type RedisLimiter struct {
	client       redis.Cmdable
	limit        int64
	period       time.Duration
	prefix       string
	timeProvider coreport.TimeProvider
}

// NewRedisLimiter allows limit calls per key in each period
func NewRedisLimiter(client redis.Cmdable, limit int, period time.Duration, prefix string, timeProvider coreport.TimeProvider) *RedisLimiter {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisLimiter{
		client:       client,
		limit:        int64(limit),
		period:       period,
		prefix:       prefix,
		timeProvider: timeProvider,
	}
}

// WindowKey returns the counter key of the window that contains now
func (l *RedisLimiter) WindowKey(key string) string {
	slot := l.timeProvider.Now().UnixNano() / int64(l.period)
	return fmt.Sprintf("%s%s:%d", l.prefix, key, slot)
}

// Allow counts one call for key. The first call of a window sets its expiry.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowKey := l.WindowKey(key)

	n, err := l.client.Incr(ctx, windowKey).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, windowKey, l.period).Err(); err != nil {
			return false, fmt.Errorf("rate limit expiry: %w", err)
		}
	}
	return n <= l.limit, nil
}

// NewRedisClient opens a client and checks the server answers
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}
