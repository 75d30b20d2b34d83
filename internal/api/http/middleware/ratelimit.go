package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/st-angelo/webarena-auth/internal/logger"
	"github.com/st-angelo/webarena-auth/internal/model"
)

// RateLimit counts requests per client IP under scope. Limiter outages are
// logged and the request is let through. A nil limiter disables the check.
func RateLimit(limiter model.Limiter, scope string, logger *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}

		err := limiter.Allow(c.UserContext(), scope+":"+c.IP())
		switch {
		case err == nil:
		case errors.Is(err, model.ErrRateLimited):
			logger.Info("HTTP rate limit: request rejected",
				"scope", scope,
				"ip", c.IP())
			return err
		default:
			logger.Warn("HTTP rate limit: limiter unavailable",
				"scope", scope,
				"error", err.Error())
		}

		return c.Next()
	}
}
