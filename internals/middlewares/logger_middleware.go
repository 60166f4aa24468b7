package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

// LoggerMiddleware records every request with its latency and status.
func LoggerMiddleware(log *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Infow("http request",
			"reqid", c.Locals(requestid.ConfigDefault.ContextKey),
			"method", c.Method(), "path", c.OriginalURL(),
			"status", c.Response().StatusCode(), "dur", time.Since(start).String())
		return err
	}
}
