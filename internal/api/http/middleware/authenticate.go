package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/st-angelo/webarena-auth/internal/api/http/authctx"
	"github.com/st-angelo/webarena-auth/internal/model"
)

// Authenticator resolves a session token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.User, error)
}

// Protect requires a valid bearer token and stores the resolved user in
// the request's user context.
func Protect(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := BearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return err
		}

		user, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}

		c.SetUserContext(authctx.WithUser(c.UserContext(), user))
		return c.Next()
	}
}

// RestrictTo lets through users whose role is one of roles. It must run
// after Protect.
func RestrictTo(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := authctx.User(c.UserContext())
		if !ok {
			return model.ErrMissingToken
		}

		if err := model.Authorize(user.Role, roles...); err != nil {
			return err
		}

		return c.Next()
	}
}

// BearerToken extracts the credential of an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", model.ErrMissingToken
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", model.ErrMissingToken
	}

	return token, nil
}
