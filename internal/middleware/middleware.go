package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const RequestIDKey = "request_id"

// RequestID tags every request with an X-Request-ID (honoring one supplied by
// the client), stores a request-scoped logger in the fiber context, and logs
// start/completion with timing.
func RequestID(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("X-Request-ID", requestID)
		c.Locals(RequestIDKey, requestID)

		reqLogger := logger.With().Str("request_id", requestID).Logger()
		c.Locals("logger", &reqLogger)

		reqLogger.Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("remote_addr", c.IP()).
			Msg("request started")

		err := c.Next()

		duration := time.Since(start)
		reqLogger.Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Int64("duration_ms", duration.Milliseconds()).
			Dur("duration", duration).
			Msg("request completed")

		return err
	}
}

// GetRequestID returns the request ID set by RequestID, or "".
func GetRequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
