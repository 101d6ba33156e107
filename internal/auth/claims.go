// Package auth adapts the platform token library to the activities API.
package auth

import (
	"context"
	"errors"

	authlib "example.com/activities/internal/platform/auth"
)

// Claims mirrors the shared auth claims type for service convenience.
type Claims = authlib.Claims

// Config mirrors the shared auth config.
type Config = authlib.Config

var (
	// ErrUnauthenticated is returned when the request carries no valid token.
	ErrUnauthenticated = errors.New("missing bearer token")
	// ErrForbidden is returned when the token lacks the required scope.
	ErrForbidden = errors.New("insufficient scope")
)

// WithClaims stores the claims in the request context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return authlib.WithClaims(ctx, claims)
}

// FromContext retrieves claims from context.
func FromContext(ctx context.Context) (*Claims, bool) {
	return authlib.FromContext(ctx)
}

// RequireScope returns the request claims when they grant scope.
func RequireScope(ctx context.Context, scope string) (*Claims, error) {
	claims, ok := FromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	if !claims.HasScope(scope) {
		return nil, ErrForbidden
	}
	return claims, nil
}
