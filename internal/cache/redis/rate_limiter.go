package redis

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/solverworks/fusionscan/internal/domain"
)

//go:embed scripts/sliding_window.lua
var slidingWindowLua string

// RateLimiter enforces the shared upstream quota and the per-client API
// request limits with a sliding window over a Redis sorted set. There is no
// blocking variant; callers that need to wait poll Allow at their own
// interval.
type RateLimiter struct {
	rdb           *redis.Client
	slidingWindow *redis.Script
}

// NewRateLimiter creates a RateLimiter backed by the given Client.
func NewRateLimiter(c *Client) *RateLimiter {
	return &RateLimiter{
		rdb:           c.raw(),
		slidingWindow: redis.NewScript(slidingWindowLua),
	}
}

func limitKey(key string) string {
	return nsKey("limit", key)
}

// Allow counts one request against the sliding window for key and reports
// whether it fit under limit. The count and the check run in a single Lua
// round trip, so concurrent callers cannot both take the last slot.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now().UnixMicro()
	windowMicros := window.Microseconds()

	result, err := rl.slidingWindow.Run(
		ctx,
		rl.rdb,
		[]string{limitKey(key)},
		now,
		windowMicros,
		limit,
	).Int64Slice()
	if err != nil {
		return false, fmt.Errorf("redis: rate limit %s: %w", key, err)
	}
	if len(result) < 2 {
		return false, fmt.Errorf("redis: rate limit %s: unexpected script result length %d", key, len(result))
	}

	return result[0] == 1, nil
}

// Compile-time interface check.
var _ domain.RateLimiter = (*RateLimiter)(nil)
