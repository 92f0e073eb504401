package http

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"mediaforge/internal/metrics"
)

// requestLogger assigns a request id, logs one line per request and
// records request metrics.
func requestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		reqID := c.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Locals("request_id", reqID)
		c.Set("X-Request-Id", reqID)

		err := c.Next()

		latency := time.Since(start)
		status := c.Response().StatusCode()
		method := c.Method()
		path := c.Route().Path

		metrics.RecordRequest(method, path, status, latency.Milliseconds())

		attrs := []any{
			"request_id", reqID,
			"method", method,
			"path", c.Path(),
			"status", status,
			"latency_ms", latency.Milliseconds(),
		}
		if p, ok := currentPrincipal(c); ok {
			attrs = append(attrs, "user_id", p.UserID)
		}
		if jobID := c.Locals("job_id"); jobID != nil {
			attrs = append(attrs, "job_id", jobID)
		}
		logger.Info("request", attrs...)

		return err
	}
}

// userMiddleware requires the gateway identity header and attaches the
// resulting Principal to the context as "principal".
func userMiddleware(c *fiber.Ctx) error {
	p, ok := principalFromRequest(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Success: false,
			Code:    codeUnauthenticated,
			Error:   "Missing " + UserIDHeader + " header",
		})
	}
	c.Locals("principal", p)
	return c.Next()
}

// rateCounter is the part of the Redis client used for rate limiting.
type rateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// rateLimitMiddleware enforces a simple per-minute fixed-window rate limit
// per user using Redis.
func rateLimitMiddleware(limit int, rdb rateCounter, now func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limit <= 0 || rdb == nil {
			return c.Next()
		}

		p, ok := currentPrincipal(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Success: false,
				Code:    codeUnauthenticated,
				Error:   "User context is not available for this request",
			})
		}

		window := now().UTC().Format("200601021504") // YYYYMMDDHHMM minute window
		key := fmt.Sprintf("mediaforge:rl:submit:%s:%s", p.UserID, window)

		ctx := c.Context()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Success: false,
				Code:    codeInternal,
				Error:   fmt.Sprintf("rate limit increment failed: %v", err),
			})
		}
		if count == 1 {
			// First hit in this window; set TTL
			_ = rdb.Expire(ctx, key, time.Minute)
		}

		if count > int64(limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				Success: false,
				Code:    codeRateLimited,
				Error:   "Rate limit exceeded, try again later",
			})
		}

		return c.Next()
	}
}

// janitorAuthMiddleware only admits callers presenting the shared cron
// secret as a bearer token. An unset secret admits nobody.
func janitorAuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
		if secret == "" || !strings.HasPrefix(raw, "Bearer ") ||
			subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Success: false,
				Code:    codeUnauthenticated,
				Error:   "Unauthorized",
			})
		}
		return c.Next()
	}
}
