package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareLabelsRoutePattern(t *testing.T) {
	c := NewCollector()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := c.Middleware(mux)

	for _, target := range []string{"/posts/aaaa-1111", "/posts/bbbb-2222"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	// both requests land on one series keyed by the pattern, not the raw path
	got := testutil.ToFloat64(c.requestsTotal.WithLabelValues(http.MethodGet, "GET /posts/{id}", "200"))
	if got != 2 {
		t.Errorf("pattern series count = %v, want 2", got)
	}
	raw := testutil.ToFloat64(c.requestsTotal.WithLabelValues(http.MethodGet, "/posts/aaaa-1111", "200"))
	if raw != 0 {
		t.Errorf("raw path series count = %v, want 0", raw)
	}
}

func TestMiddlewareUnmatchedRoute(t *testing.T) {
	c := NewCollector()
	mux := http.NewServeMux()
	handler := c.Middleware(mux)

	req := httptest.NewRequest(http.MethodGet, "/no-such-route", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	got := testutil.ToFloat64(c.requestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404"))
	if got != 1 {
		t.Errorf("unmatched series count = %v, want 1", got)
	}
}
