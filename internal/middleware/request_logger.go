package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const loggerKey = "logger"

// RequestLogger stores a request scoped logger in c.Locals and logs every
// request once it has been handled. It expects the requestid middleware to run first.
func RequestLogger(base *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID, _ := c.Locals("requestid").(string)
		log := base.With(zap.String("request_id", requestID))
		c.Locals(loggerKey, log)

		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		switch {
		case err != nil || status >= fiber.StatusInternalServerError:
			log.Error("HTTP request", append(fields, zap.Error(err))...)
		case status >= fiber.StatusBadRequest:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
		return err
	}
}

// Logger returns the request scoped logger, or fallback outside a request.
func Logger(c *fiber.Ctx, fallback *zap.Logger) *zap.Logger {
	if log, ok := c.Locals(loggerKey).(*zap.Logger); ok {
		return log
	}
	return fallback
}
