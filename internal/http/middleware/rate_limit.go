package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
}

// DefaultRateLimitConfig returns default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 100,
		Window:      15 * time.Minute,
	}
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

// fixedWindowLimiter counts requests per key in fixed windows. In-process
// only: counts reset on restart and are not shared across instances.
type fixedWindowLimiter struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	config  RateLimitConfig
	now     func() time.Time
}

func newFixedWindowLimiter(config RateLimitConfig, now func() time.Time) *fixedWindowLimiter {
	if config.MaxRequests <= 0 {
		config.MaxRequests = DefaultRateLimitConfig().MaxRequests
	}
	if config.Window <= 0 {
		config.Window = DefaultRateLimitConfig().Window
	}
	if now == nil {
		now = time.Now
	}
	return &fixedWindowLimiter{
		entries: make(map[string]*windowEntry),
		config:  config,
		now:     now,
	}
}

// allow counts one request for the key and reports whether it stays within
// the limit, along with the remaining budget and window reset time.
func (l *fixedWindowLimiter) allow(key string) (allowed bool, remaining int, resetAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[key]
	if !ok || now.After(entry.resetAt) {
		entry = &windowEntry{resetAt: now.Add(l.config.Window)}
		l.entries[key] = entry
	}
	entry.count++

	remaining = l.config.MaxRequests - entry.count
	if remaining < 0 {
		remaining = 0
	}
	return entry.count <= l.config.MaxRequests, remaining, entry.resetAt
}

// RateLimit creates an in-process fixed-window rate limiting middleware
// keyed by client IP.
func RateLimit(config RateLimitConfig) fiber.Handler {
	limiter := newFixedWindowLimiter(config, nil)

	return func(c *fiber.Ctx) error {
		allowed, remaining, resetAt := limiter.allow(c.IP())

		c.Set("X-RateLimit-Limit", strconv.Itoa(limiter.config.MaxRequests))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded",
			})
		}
		return c.Next()
	}
}
