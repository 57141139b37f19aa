package middleware

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kinotage/movie-reviews/internal/config"
	"github.com/kinotage/movie-reviews/internal/response"
)

// RateLimiter is an in-memory fixed-window request counter keyed by
// client address. It is an explicit component owned by the server
// process: created at startup, cleared on restart. It is a soft
// throttle, not a security boundary, so losing state on restart is
// acceptable.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*window
	max     int
	period  time.Duration
	now     func() time.Time
	sweepAt time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter builds a limiter allowing max requests per key per
// period.
func NewRateLimiter(max int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*window),
		max:     max,
		period:  period,
		now:     time.Now,
	}
}

// Allow counts one request for key and reports whether it is within
// the window budget. A key's expired window is replaced rather than
// slid, matching fixed-window semantics.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	// Sweep expired windows at most once per period so one-off client
	// keys do not accumulate forever.
	if now.After(l.sweepAt) {
		for k, w := range l.buckets {
			if now.After(w.resetAt) {
				delete(l.buckets, k)
			}
		}
		l.sweepAt = now.Add(l.period)
	}

	w, ok := l.buckets[key]
	if !ok || now.After(w.resetAt) {
		l.buckets[key] = &window{count: 1, resetAt: now.Add(l.period)}
		return true
	}
	w.count++
	return w.count <= l.max
}

// RateLimit returns middleware throttling by client IP using the
// given limiter. Disabled config yields a pass-through.
func RateLimit(cfg config.RateLimitConfig, limiter *RateLimiter) echo.MiddlewareFunc {
	if !cfg.Enabled || limiter == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if key == "" {
				key = "unknown"
			}
			if !limiter.Allow(key) {
				return response.RateLimited("Too many requests")
			}
			return next(c)
		}
	}
}
