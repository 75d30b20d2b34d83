// Package authctx carries the authenticated user through a request context.
package authctx

import (
	"context"

	"github.com/st-angelo/webarena-auth/internal/model"
)

type userKey struct{}

// WithUser returns a copy of ctx carrying user as the request identity.
func WithUser(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// User returns the identity stored by WithUser.
func User(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userKey{}).(model.User)
	return user, ok
}
