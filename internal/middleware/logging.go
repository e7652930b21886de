package middleware

import (
	"errors"
	"time"

	"github.com/arnold/momentum-api/internal/logger"
	"github.com/gofiber/fiber/v2"
)

// RequestLogger logs each request with method, path, status, duration and
// remote IP, at a level chosen by the status class.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		keyvals := []interface{}{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", time.Since(start),
			"remote", c.IP(),
		}
		switch {
		case status >= 500:
			logger.Error("request", append(keyvals, "err", err)...)
		case status >= 400:
			logger.Warn("request", keyvals...)
		default:
			logger.Info("request", keyvals...)
		}
		return err
	}
}
