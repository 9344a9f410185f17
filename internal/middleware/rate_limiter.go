package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter reports whether the caller identified by key may proceed.
// Keys combine the endpoint scope and the client IP.
type RateLimiter interface {
	Allow(ctx context.Context, key string) bool
}

type bucket struct {
	tokens   *rate.Limiter
	lastSeen time.Time
}

// memoryRateLimiter keeps one token bucket per key inside the process. Idle
// buckets are swept at most once per ttl.
type memoryRateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewIPRateLimiter allows requests events per window for each key, plus burst.
// Buckets idle for longer than ttl are forgotten.
func NewIPRateLimiter(requests int, window time.Duration, burst int, ttl time.Duration) RateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if burst <= 0 {
		burst = requests
	}
	if ttl <= 0 {
		ttl = 10 * window
	}

	return &memoryRateLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (l *memoryRateLimiter) Allow(_ context.Context, key string) bool {
	if key == "" {
		key = "unknown"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.sweepLocked(now)

	return b.tokens.AllowN(now, 1)
}

func (l *memoryRateLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.ttl {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.ttl {
			delete(l.buckets, key)
		}
	}
}

// WithNowFunc replaces the clock; tests use it to move time forward.
func (l *memoryRateLimiter) WithNowFunc(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}
