package auth

import (
	"context"

	"dreamforge/internal/errors"
)

// Principal is the authenticated caller. Every career operation takes one explicitly.
type Principal struct {
	UserID string
	Email  string
}

// Valid reports whether the principal identifies a user
func (p Principal) Valid() bool {
	return p.UserID != ""
}

// Require returns an unauthorized error unless p identifies a user
func (p Principal) Require() error {
	if !p.Valid() {
		return errors.NewUnauthorizedError(errors.ErrCodeUnauthorized, "sign in required", nil)
	}
	return nil
}

type principalKey struct{}

// WithPrincipal stores p on the context
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal, or the zero Principal
func FromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey{}).(Principal)
	return p
}
