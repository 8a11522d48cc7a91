package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript increments the window counter and arms its expiry on first use
const incrScript = `
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n`

// RedisClient is the subset of the go-redis client the limiter uses
type RedisClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisLimiter is a fixed-window counter shared by every instance behind the
// same Redis. It fails open: a Redis error allows the request and is returned
// for logging.
type RedisLimiter struct {
	client    RedisClient
	limit     int
	window    time.Duration
	keyPrefix string
	now       func() time.Time
}

// NewRedisLimiter creates a distributed limiter
func NewRedisLimiter(client RedisClient, limit int, window time.Duration, keyPrefix string) *RedisLimiter {
	return &RedisLimiter{
		client:    client,
		limit:     limit,
		window:    window,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
}

func (r *RedisLimiter) key(key string) string {
	start := r.now().Truncate(r.window)
	return fmt.Sprintf("%s%s:%d", r.keyPrefix, key, start.Unix())
}

// Allow increments the counter of the current window
func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r.client == nil {
		return true, nil
	}

	n, err := r.client.Eval(ctx, incrScript, []string{r.key(key)}, (r.window + time.Minute).Milliseconds()).Int64()
	if err != nil {
		return true, fmt.Errorf("rate limiter error (failing open): %w", err)
	}
	return n <= int64(r.limit), nil
}

// Reset clears the current window of a key
func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}
	return r.client.Del(ctx, r.key(key)).Err()
}

// Window returns the window size
func (r *RedisLimiter) Window() time.Duration {
	return r.window
}
