package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/st-angelo/webarena-auth/internal/logger"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Health struct {
	db     Pinger
	logger *logger.Logger
}

func NewHealth(db Pinger, logger *logger.Logger) *Health {
	return &Health{db: db, logger: logger}
}

// Check answers 200 while the database answers pings and 503 otherwise.
func (h *Health) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("HTTP health: database ping failed",
			"error", err.Error())
		return c.Status(fiber.StatusServiceUnavailable).JSON(Envelope{
			Status:  "error",
			Message: "database unavailable",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "success"})
}
