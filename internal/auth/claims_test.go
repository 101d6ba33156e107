package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authlib "example.com/activities/internal/platform/auth"
)

func TestRequireScope(t *testing.T) {
	_, err := RequireScope(context.Background(), ScopeActivitiesWrite)
	require.ErrorIs(t, err, ErrUnauthenticated)

	reader := &Claims{Subject: "u1", Scopes: map[string]struct{}{"activities:read": {}}}
	_, err = RequireScope(WithClaims(context.Background(), reader), ScopeActivitiesWrite)
	require.ErrorIs(t, err, ErrForbidden)

	writer := &Claims{Subject: "u2", Scopes: map[string]struct{}{ScopeActivitiesWrite: {}}}
	got, err := RequireScope(WithClaims(context.Background(), writer), ScopeActivitiesWrite)
	require.NoError(t, err)
	assert.Equal(t, "u2", got.Subject)
}

func TestMiddlewarePublicRoutes(t *testing.T) {
	cfg := Config{Secret: "test-secret", Issuer: "activities.test"}
	h := NewMiddleware(cfg).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/activities", http.StatusNoContent},
		{http.MethodOptions, "/activities", http.StatusNoContent},
		{http.MethodGet, "/healthz", http.StatusNoContent},
		{http.MethodGet, "/metrics", http.StatusNoContent},
		{http.MethodPost, "/activities", http.StatusUnauthorized},
		{http.MethodDelete, "/activities/abc", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.want, rr.Code, "%s %s", tc.method, tc.path)
	}

	token, err := authlib.Issue(cfg, "u1", []string{ScopeActivitiesWrite}, time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/activities", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
