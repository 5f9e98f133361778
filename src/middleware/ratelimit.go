package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type clientWindow struct {
	windowStart time.Time
	count       int
}

// RateLimiter enforces a fixed-window per-client request limit. Windows are
// tracked per client IP and reset lazily on the first request after the
// window elapses.
type RateLimiter struct {
	maxRequests    int
	windowDuration time.Duration
	clients        map[string]*clientWindow
	mu             sync.Mutex
}

func NewRateLimiter(maxRequests int, windowDuration time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests:    maxRequests,
		windowDuration: windowDuration,
		clients:        make(map[string]*clientWindow),
	}
}

func (rl *RateLimiter) getClientID(c *fiber.Ctx) string {
	ip := c.Get("X-Forwarded-For")
	if ip == "" {
		ip = c.Get("X-Real-IP")
	}
	if ip == "" {
		ip = c.IP()
	}
	return ip
}

func (rl *RateLimiter) Allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	window, exists := rl.clients[clientIP]

	if !exists || now.Sub(window.windowStart) >= rl.windowDuration {
		rl.clients[clientIP] = &clientWindow{windowStart: now, count: 1}
		rl.pruneStale(now)
		return true
	}

	if window.count >= rl.maxRequests {
		return false
	}

	window.count++
	return true
}

// pruneStale drops windows that expired at least one full window ago, so the
// client map does not grow unbounded. Called with the lock held.
func (rl *RateLimiter) pruneStale(now time.Time) {
	for ip, window := range rl.clients {
		if now.Sub(window.windowStart) >= 2*rl.windowDuration {
			delete(rl.clients, ip)
		}
	}
}

func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID := rl.getClientID(c)

		if !rl.Allow(clientID) {
			log.Warn().
				Str("client_ip", clientID).
				Str("path", c.Path()).
				Str("method", c.Method()).
				Int("max_requests", rl.maxRequests).
				Msg("Rate limit exceeded")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "Rate limit exceeded",
				"message": "Too many requests. Please try again later.",
			})
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.maxRequests))
		c.Set("X-RateLimit-Window", rl.windowDuration.String())

		return c.Next()
	}
}
