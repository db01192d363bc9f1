package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Alwanly/service-feed-ingest/pkg/logger"
)

// CanonicalLoggerMiddleware creates a middleware that logs once per request
func CanonicalLoggerMiddleware(log *logger.CanonicalLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logCtx := logger.NewLogContext()
		c.Locals("log_context", logCtx)

		// Request ID from the requestid middleware, or a fresh one
		reqID, _ := c.Locals("requestid").(string)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		logCtx.AddField(zap.String(logger.FieldRequestID, reqID))

		userCtx := logger.WithLogContext(c.UserContext(), logCtx)
		userCtx = logger.WithCorrelationID(userCtx, reqID)
		c.SetUserContext(userCtx)

		start := time.Now()

		// Use defer to ensure logging happens even on panic (after recover middleware)
		defer func() {
			duration := time.Since(start)
			status := c.Response().StatusCode()

			fields := []zap.Field{
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int(logger.FieldStatus, status),
				zap.Int64("duration_ms", duration.Milliseconds()),
			}
			fields = append(fields, logCtx.Fields()...)

			switch {
			case status >= 500:
				log.Error("http_request", fields...)
			case status >= 400:
				log.Info("http_request_client_error", fields...)
			default:
				log.Info("http_request", fields...)
			}
		}()

		return c.Next()
	}
}
