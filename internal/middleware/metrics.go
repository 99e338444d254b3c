package middleware

import (
	"net/http"
	"time"

	"github.com/dukerupert/roomies/internal/metrics"
)

// Instrument records request counts and latency. It must wrap the ServeMux
// directly: the mux fills in r.Pattern on the request it is handed, which is
// what the route label is read from.
func Instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(r.Method, route, rec.status, time.Since(start))
		})
	}
}
