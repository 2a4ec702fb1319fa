package api

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis/v3"
)

// Option configures an APIModule.
type Option func(*APIModule)

// WithRateLimit limits each client IP to maxRequests requests per window on the
// task routes. With a non-empty redisAddr the counters live in Redis and
// are shared across instances; otherwise they are kept in memory.
func WithRateLimit(maxRequests int, window time.Duration, redisAddr string) Option {
	return func(m *APIModule) {
		m.rateLimit = rateLimit{max: maxRequests, window: window, redisAddr: redisAddr}
	}
}

type rateLimit struct {
	max       int
	window    time.Duration
	redisAddr string
}

func (r rateLimit) enabled() bool {
	return r.max > 0 && r.window > 0
}

// openLimiterStorage connects the Redis storage used by the limiter.
// gofiber/storage/redis panics when Redis is unreachable.
func (m *APIModule) openLimiterStorage() {
	if !m.rateLimit.enabled() || m.rateLimit.redisAddr == "" {
		return
	}
	host, port := parseRedisAddr(m.rateLimit.redisAddr)
	m.limiterStorage = redis.New(redis.Config{
		Host:     host,
		Port:     port,
		PoolSize: 10,
	})
}

// rateLimiter returns the limiter middleware, or nil when disabled.
func (m *APIModule) rateLimiter() fiber.Handler {
	if !m.rateLimit.enabled() {
		return nil
	}

	cfg := limiter.Config{
		Max:        m.rateLimit.max,
		Expiration: m.rateLimit.window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "ratelimit:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			retryAfter := int(m.rateLimit.window.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Set("Retry-After", strconv.Itoa(retryAfter))
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				Timestamp: time.Now().UTC(),
				Status:    fiber.StatusTooManyRequests,
				Error:     "Too Many Requests",
				Message:   "Rate limit exceeded. Please retry after " + strconv.Itoa(retryAfter) + " seconds.",
				ErrorCode: "RATE_LIMIT_EXCEEDED",
			})
		},
	}
	if m.limiterStorage != nil {
		cfg.Storage = m.limiterStorage
	}
	return limiter.New(cfg)
}

func parseRedisAddr(addr string) (string, int) {
	const defaultHost = "127.0.0.1"
	const defaultPort = 6379

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return defaultHost, defaultPort
	}
	if host == "" {
		host = defaultHost
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = defaultPort
	}
	return host, port
}
