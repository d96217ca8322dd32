package auth

import (
	"context"
	"errors"
)

// RoleAdmin grants access to the back office.
const RoleAdmin = "admin"

var (
	// ErrMissingToken is returned when no bearer token accompanies the request.
	ErrMissingToken = errors.New("auth: missing bearer token")
	// ErrInvalidToken covers malformed, expired or wrongly signed tokens.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Principal is the authenticated caller extracted from a verified token.
type Principal struct {
	Subject string
	Email   string
	Role    string
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
