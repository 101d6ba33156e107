// Package htmx renders templ components for full-page and htmx partial requests.
package htmx

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// RequestHeader is set by htmx on every request it issues.
const RequestHeader = "HX-Request"

// StatusHeader carries the numeric status of a partial response.
const StatusHeader = "X-Status"

// IsHTMXRequest reports whether the request was initiated by htmx.
func IsHTMXRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	return strings.EqualFold(r.Header.Get(RequestHeader), "true")
}

// RenderPage writes fragment for htmx requests and full otherwise. If full is
// nil the fragment is used for both.
//
// htmx does not swap non-2xx responses by default, so partial responses are
// always sent with 200 and the intended status code is exposed in X-Status.
func RenderPage(w http.ResponseWriter, r *http.Request, status int, fragment, full templ.Component) {
	if status == 0 {
		status = http.StatusOK
	}
	if IsHTMXRequest(r) {
		if status != http.StatusOK {
			w.Header().Set(StatusHeader, strconv.Itoa(status))
		}
		templ.Handler(fragment).ServeHTTP(w, r)
		return
	}
	if full == nil {
		full = fragment
	}
	templ.Handler(full, templ.WithStatus(status)).ServeHTTP(w, r)
}

// Redirect sends the client to location: HX-Redirect for htmx requests, a
// 303 See Other otherwise.
func Redirect(w http.ResponseWriter, r *http.Request, location string) {
	if IsHTMXRequest(r) {
		w.Header().Set("HX-Redirect", location)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
