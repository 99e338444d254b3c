package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dukerupert/roomies/internal/metrics"
)

func TestInstrumentUsesRoutePattern(t *testing.T) {
	m := metrics.New()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /shopping/items/{id}/check", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := Instrument(m)(mux)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/shopping/items/7/check", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nowhere", nil))

	got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "POST /shopping/items/{id}/check", "404"))
	if got != 1 {
		t.Errorf("pattern count = %v, want 1", got)
	}
	got = testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404"))
	if got != 1 {
		t.Errorf("unmatched count = %v, want 1", got)
	}
}
