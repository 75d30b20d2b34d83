package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/st-angelo/webarena-auth/internal/logger"
	"github.com/st-angelo/webarena-auth/internal/model"
)

const internalMessage = "Something went wrong!"

// Envelope is the body of every error response.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorHandler renders any error as an Envelope. Classified errors expose
// their public message; everything else becomes a logged 500.
func ErrorHandler(logger *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := internalMessage

		var domainErr *model.Error
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &domainErr):
			code = domainErr.Status()
			if domainErr.Message != "" {
				message = domainErr.Message
			}
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			message = fiberErr.Message
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("HTTP handler failed",
				"method", c.Method(),
				"path", c.Path(),
				"error", err.Error())
		}

		return c.Status(code).JSON(Envelope{
			Status:  statusWord(code),
			Message: message,
		})
	}
}

func statusWord(code int) string {
	if code >= fiber.StatusInternalServerError {
		return "error"
	}
	return "fail"
}
