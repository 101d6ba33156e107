package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{Secret: "test-secret", Issuer: "activities.test"}

func TestParseRoundTripsIssuedToken(t *testing.T) {
	token, err := Issue(testConfig, "user-1", []string{"activities:write", "activities:read"}, time.Hour)
	require.NoError(t, err)

	claims, err := Parse(token, testConfig)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.True(t, claims.HasScope("activities:write"))
	assert.True(t, claims.HasScope("activities:read"))
	assert.False(t, claims.HasScope("admin"))
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	token, err := Issue(Config{Secret: testConfig.Secret, Issuer: "elsewhere"}, "user-1", nil, time.Hour)
	require.NoError(t, err)

	_, err = Parse(token, testConfig)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, err := Issue(testConfig, "user-1", nil, -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token, testConfig)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseEmptyToken(t *testing.T) {
	_, err := Parse("  ", testConfig)
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestMiddlewareSkipperAttachesOptionalClaims(t *testing.T) {
	token, err := Issue(testConfig, "user-9", []string{"activities:read"}, time.Hour)
	require.NoError(t, err)

	var seen *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	mw := NewMiddleware(testConfig, func(r *http.Request) bool { return r.Method == http.MethodGet })

	anon := httptest.NewRecorder()
	mw.Wrap(next).ServeHTTP(anon, httptest.NewRequest(http.MethodGet, "/activities", nil))
	assert.Equal(t, http.StatusNoContent, anon.Code)
	assert.Nil(t, seen)

	req := httptest.NewRequest(http.MethodGet, "/activities", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	authed := httptest.NewRecorder()
	mw.Wrap(next).ServeHTTP(authed, req)
	require.NotNil(t, seen)
	assert.Equal(t, "user-9", seen.Subject)
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	mw := NewMiddleware(testConfig, nil)
	rr := httptest.NewRecorder()
	mw.Wrap(http.NotFoundHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/activities", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := BearerToken(req)
	require.ErrorIs(t, err, ErrMissingToken)

	req.Header.Set("Authorization", "Basic abc")
	_, err = BearerToken(req)
	require.ErrorIs(t, err, ErrInvalidToken)

	req.Header.Set("Authorization", "bearer  tok-1 ")
	token, err := BearerToken(req)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
}
