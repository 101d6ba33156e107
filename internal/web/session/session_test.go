package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenFromRequest(t *testing.T) {
	cases := []struct {
		name   string
		cookie string
		header string
		want   string
	}{
		{name: "none"},
		{name: "cookie", cookie: "abc", want: "abc"},
		{name: "bearer header", header: "Bearer xyz", want: "xyz"},
		{name: "lowercase scheme", header: "bearer xyz", want: "xyz"},
		{name: "cookie wins", cookie: "abc", header: "Bearer xyz", want: "abc"},
		{name: "blank cookie falls back", cookie: "  ", header: "Bearer xyz", want: "xyz"},
		{name: "basic auth ignored", header: "Basic Zm9vOmJhcg=="},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/activities", nil)
			if tc.cookie != "" {
				r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: tc.cookie})
			}
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			assert.Equal(t, tc.want, TokenFromRequest(r, ""))
		})
	}
}

func TestMiddlewareStoresToken(t *testing.T) {
	var seen string
	h := Middleware("sid")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TokenFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/activities", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: "tok"})
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "tok", seen)
}
