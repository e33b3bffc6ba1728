package middleware

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"
)

// serve runs next and reports the status code, bytes written and duration.
func serve(next http.Handler, w http.ResponseWriter, r *http.Request) httpsnoop.Metrics {
	return httpsnoop.CaptureMetrics(next, w, r)
}

// routePattern returns the matched chi route, falling back to the raw path
// for requests served outside a chi router.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
