// Package ratelimit implements a Redis sliding-window request limiter.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:upload:"

// Limiter admits at most limit events per key within any window-long span.
type Limiter struct {
	client redis.Cmdable
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewLimiter(client redis.Cmdable, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// NewFromURL connects to the Redis server at url.
func NewFromURL(ctx context.Context, url string, limit int, window time.Duration) (*Limiter, *redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return NewLimiter(client, limit, window), client, nil
}

// Limit returns the configured number of events per window.
func (l *Limiter) Limit() int {
	return l.limit
}

// Allow records one event for key when under the limit. It returns whether
// the event was admitted and how many remain in the current window.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, int, error) {
	now := l.now()
	windowStart := now.Add(-l.window).UnixMicro()
	redisKey := keyPrefix + key

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return false, 0, fmt.Errorf("failed to execute rate limit check: %w", err)
	}

	count := int(countCmd.Val())
	if count >= l.limit {
		return false, 0, nil
	}

	// members must be unique even for events in the same microsecond
	err := l.client.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixMicro()),
		Member: uuid.NewString(),
	}).Err()
	if err != nil {
		return false, 0, fmt.Errorf("failed to add rate limit entry: %w", err)
	}
	_ = l.client.Expire(ctx, redisKey, l.window+time.Second).Err()

	return true, l.limit - count - 1, nil
}
