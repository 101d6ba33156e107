package cache

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPInvalidatorPostsKeys(t *testing.T) {
	var got InvalidateRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	inv := NewHTTPInvalidator(srv.URL+"/", "shh", time.Second)
	require.NoError(t, inv.Invalidate(context.Background(), "activities"))

	assert.Equal(t, []string{"activities"}, got.Keys)
	assert.Equal(t, "Bearer shh", auth)
}

func TestHTTPInvalidatorReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := NewHTTPInvalidator(srv.URL, "", time.Second).Invalidate(context.Background(), "activities")

	var invErr *InvalidationError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, http.StatusForbidden, invErr.Status)
}

func TestHTTPInvalidatorSkipsEmptyKeys(t *testing.T) {
	inv := NewHTTPInvalidator("http://127.0.0.1:1", "", time.Second)
	assert.NoError(t, inv.Invalidate(context.Background()))
}
