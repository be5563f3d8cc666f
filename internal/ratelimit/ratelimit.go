package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// SlidingWindow rate-limits per (user, action) with a Redis sorted set of
// request timestamps. One Lua round trip prunes, counts and records, so
// concurrent requests cannot sneak past the limit.
type SlidingWindow struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
}

func NewSlidingWindow(redisClient *redis.Client, limit int64, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		redis:  redisClient,
		limit:  limit,
		window: window,
	}
}

const allowScript = `
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window_us = tonumber(ARGV[2])
	local now_us = tonumber(ARGV[3])

	redis.call('ZREMRANGEBYSCORE', key, 0, now_us - window_us)
	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now_us, now_us .. '-' .. count)
		redis.call('PEXPIRE', key, math.ceil(window_us / 1000))
		return 1
	end
	return 0
`

// Allow reports whether the user may perform the action now.
func (sw *SlidingWindow) Allow(ctx context.Context, userID, action string) (bool, error) {
	key := fmt.Sprintf("rate_limit:%s:%s", userID, action)
	now := time.Now().UnixMicro()

	result, err := sw.redis.Eval(ctx, allowScript, []string{key},
		sw.limit, sw.window.Microseconds(), now).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	allowed, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected result type from rate limit script")
	}
	return allowed == 1, nil
}

// Remaining returns how many requests the user has left in the window.
func (sw *SlidingWindow) Remaining(ctx context.Context, userID, action string) (int64, error) {
	key := fmt.Sprintf("rate_limit:%s:%s", userID, action)
	cutoff := time.Now().UnixMicro() - sw.window.Microseconds()

	if err := sw.redis.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", cutoff)).Err(); err != nil {
		return 0, fmt.Errorf("failed to prune rate limit window: %w", err)
	}
	count, err := sw.redis.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count rate limit window: %w", err)
	}
	remaining := sw.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Reset clears the window for a (user, action) pair.
func (sw *SlidingWindow) Reset(ctx context.Context, userID, action string) error {
	return sw.redis.Del(ctx, fmt.Sprintf("rate_limit:%s:%s", userID, action)).Err()
}
