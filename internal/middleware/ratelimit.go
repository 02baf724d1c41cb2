package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig tunes the fixed-window limiter applied to abuse-prone routes
type RateLimitConfig struct {
	Limit  int           // requests allowed per window
	Window time.Duration // window length
	Prefix string        // redis key prefix, e.g. "rl:auth"
}

// RateLimit returns a per-client fixed-window rate limiter backed by Redis.
// Without a Redis client the limiter is a pass-through, so single-node dev
// setups work unconfigured. Redis errors also fail open: throttling is a
// protection layer, not a dependency.
func RateLimit(cfg RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if rdb == nil || cfg.Limit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := cfg.Prefix + ":" + clientKey(c)
			ctx := c.Request().Context()

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				c.Logger().Warnf("rate limiter unavailable: %v", err)
				return next(c)
			}
			if count == 1 {
				rdb.Expire(ctx, key, cfg.Window)
			}

			remaining := int64(cfg.Limit) - count
			if remaining < 0 {
				remaining = 0
			}
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(cfg.Limit) {
				retryAfter := int(cfg.Window / time.Second)
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":       "too_many_requests",
					"message":     "rate limit exceeded",
					"retry_after": retryAfter,
				})
			}
			return next(c)
		}
	}
}

// clientKey prefers the authenticated user id, falling back to the client IP
// for unauthenticated routes such as login.
func clientKey(c echo.Context) string {
	if v := c.Get(ContextUserIDKey); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return "user:" + s
		}
	}
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
