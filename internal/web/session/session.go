// Package session carries the caller's session token through web requests.
// The token is only checked for presence; the API is responsible for validating it.
package session

import (
	"context"
	"net/http"
	"strings"
)

// DefaultCookieName is the cookie the token is read from when none is configured.
const DefaultCookieName = "session_token"

type contextKey string

const tokenKey contextKey = "activities-session-token"

// TokenFromRequest returns the session token from the cookie, falling back to an
// Authorization bearer header. It returns "" when neither is present.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if c, err := r.Cookie(cookieName); err == nil {
		if token := strings.TrimSpace(c.Value); token != "" {
			return token
		}
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > len("bearer ") && strings.EqualFold(header[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(header[len("bearer "):])
	}
	return ""
}

// WithToken stores token on ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext returns the token stored by Middleware, or "".
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// Middleware attaches the request's session token to its context.
func Middleware(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r, cookieName)
			next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), token)))
		})
	}
}
