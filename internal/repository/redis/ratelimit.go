package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rateLimitPrefix = "ratelimit:"
)

// RateLimiter is a fixed one-minute window counter shared by every server instance
type RateLimiter struct {
	client *Client
	scope  string
	limit  int64
	now    func() time.Time
}

// NewRateLimiter creates a rate limiter. scope separates counters of different limiters.
func NewRateLimiter(client *Client, scope string, requestsPerMinute, burst int) *RateLimiter {
	return &RateLimiter{
		client: client,
		scope:  scope,
		limit:  int64(requestsPerMinute + burst),
		now:    time.Now,
	}
}

// Allow checks if a request should be allowed based on rate limits
// Returns (allowed, remaining, resetTime, error)
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	now := r.now()
	window := now.Truncate(time.Minute)
	windowEnd := window.Add(time.Minute)
	fullKey := r.key(key, window)

	// each window has its own counter, expiring when the window closes
	pipe := r.client.rdb.Pipeline()
	incrCmd := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, windowEnd.Sub(now))

	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return false, 0, time.Time{}, fmt.Errorf("failed to execute rate limit check: %w", err)
	}

	count := incrCmd.Val()
	remaining := int(r.limit - count)
	if remaining < 0 {
		remaining = 0
	}

	return count <= r.limit, remaining, windowEnd, nil
}

// Limit returns the number of requests allowed per window
func (r *RateLimiter) Limit() int {
	return int(r.limit)
}

// Reset resets the current window's counter for a key
func (r *RateLimiter) Reset(ctx context.Context, key string) error {
	return r.client.rdb.Del(ctx, r.key(key, r.now().Truncate(time.Minute))).Err()
}

func (r *RateLimiter) key(key string, window time.Time) string {
	return fmt.Sprintf("%s%s:%s:%d", rateLimitPrefix, r.scope, key, window.Unix()/60)
}
