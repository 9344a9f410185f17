package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vidtube/backend/internal/logging"
)

// windowCounter increments a window counter and arms its expiry in one step,
// so a counter never outlives its window when a client drops mid-request.
var windowCounter = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// RedisRateLimiter counts requests per key in fixed windows shared by every
// API instance. It fails open when Redis is unreachable.
type RedisRateLimiter struct {
	client redis.Scripter
	prefix string
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRedisRateLimiter allows up to requests events per window for each key.
func NewRedisRateLimiter(client redis.Scripter, prefix string, requests int, window time.Duration) *RedisRateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	prefix = strings.TrimSuffix(prefix, ":")
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisRateLimiter{
		client: client,
		prefix: prefix,
		limit:  int64(requests),
		window: window,
		now:    time.Now,
	}
}

// Allow increments the counter of the current window and reports whether the
// key is still within its limit.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) bool {
	if key == "" {
		key = "unknown"
	}

	bucket := l.now().UnixNano() / int64(l.window)
	counterKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, bucket)

	count, err := windowCounter.Run(ctx, l.client, []string{counterKey}, l.window.Milliseconds()).Int64()
	if err != nil {
		logging.FromContext(ctx).Warn("rate limiter unavailable", "error", err)
		return true
	}

	return count <= l.limit
}

// NewRedisClient connects a go-redis client for rate limiting.
func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}
