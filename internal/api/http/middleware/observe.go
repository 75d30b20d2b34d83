package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/st-angelo/webarena-auth/internal/logger"
	"github.com/st-angelo/webarena-auth/internal/metrics"
)

// Logging writes one access log line per request.
func Logging(logger *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := handleChain(c); err != nil {
			return err
		}

		logger.Info("HTTP request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.IP())

		return nil
	}
}

// Metrics counts requests by method, route template and status.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := handleChain(c); err != nil {
			return err
		}

		m.ObserveHTTP(c.Method(), c.Route().Path, c.Response().StatusCode())
		return nil
	}
}

// handleChain runs the rest of the chain and renders its error right away,
// so the response status is final when the caller inspects it.
func handleChain(c *fiber.Ctx) error {
	chainErr := c.Next()
	if chainErr == nil {
		return nil
	}

	if err := c.App().ErrorHandler(c, chainErr); err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return nil
}
