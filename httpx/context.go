package httpx

import (
	"context"

	"github.com/mbolis/quick-forms/model"
)

type contextKey struct{ name string }

var userCtxKey = &contextKey{"user"}

// WithUser attaches the authenticated user to ctx.
func WithUser(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

// UserFrom returns the authenticated user, if any.
func UserFrom(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userCtxKey).(model.User)
	return user, ok
}
