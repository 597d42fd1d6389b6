package api

import (
	"context"
	"errors"
)

// Identity is the authenticated dashboard user, extracted from the
// session token by SessionMiddleware.
type Identity struct {
	Email string
	Name  string
	Image string
}

// identityContextKey is the context key for the session identity.
type identityContextKey struct{}

// ErrNoIdentityInContext indicates no identity was found in the context.
var ErrNoIdentityInContext = errors.New("no identity in context")

// WithIdentity returns a new context with the identity attached.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the session identity from the context.
// Returns ErrNoIdentityInContext if not present.
func IdentityFromContext(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	if !ok || id.Email == "" {
		return Identity{}, ErrNoIdentityInContext
	}
	return id, nil
}

// MustIdentityFromContext extracts the identity or panics.
// Use only when middleware guarantees identity presence.
func MustIdentityFromContext(ctx context.Context) Identity {
	id, err := IdentityFromContext(ctx)
	if err != nil {
		panic("identity not in context: middleware misconfiguration")
	}
	return id
}
