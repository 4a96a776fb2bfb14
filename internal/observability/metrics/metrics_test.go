package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
)

func TestRouteLabel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/healthz", want: "/healthz"},
		{in: "/v1/sessions", want: "/v1/sessions"},
		{in: "/v1/sessions/abc", want: "/v1/sessions/{session_id}"},
		{in: "/v1/sessions/abc/classify-next", want: "/v1/sessions/{session_id}/classify-next"},
		{in: "/v1/sessions/abc-def/export.xlsx", want: "/v1/sessions/{session_id}/export.xlsx"},
	}
	for _, tc := range cases {
		if got := routeLabel(tc.in); got != tc.want {
			t.Fatalf("routeLabel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/sessions/s1/fetch", nil))

	got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", http.MethodPost, "/v1/sessions/{session_id}/fetch", "418"))
	if got != 1 {
		t.Fatalf("expected one recorded request, got %v", got)
	}
}

func TestPipelineMetricsObserve(t *testing.T) {
	server := NewHTTPServerMetrics("api")
	m := NewPipelineMetrics("api", server.Registerer())

	m.ObserveResolution(domain.Resolution{})
	m.ObserveResolution(domain.Resolution{Coordinate: &domain.Coordinate{}, Source: domain.SourceAtMarker})
	m.ObserveFetch(12, nil)
	m.ObserveFetch(0, errors.New("denied"))

	latency := 300 * time.Millisecond
	m.ObserveClassification(domain.Classification{Category: domain.CategoryBurger, Latency: &latency})
	m.ObserveClassification(domain.Classification{Failure: domain.NewFailure(domain.FailureProvider, "x")})

	if v := testutil.ToFloat64(m.resolutionsTotal.WithLabelValues("api", "none")); v != 1 {
		t.Fatalf("expected one not-found resolution, got %v", v)
	}
	if v := testutil.ToFloat64(m.fetchesTotal.WithLabelValues("api", "error")); v != 1 {
		t.Fatalf("expected one failed fetch, got %v", v)
	}
	if v := testutil.ToFloat64(m.classificationsTotal.WithLabelValues("api", "error", "provider_error")); v != 1 {
		t.Fatalf("expected one failed classification, got %v", v)
	}

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `rc_pipeline_classifications_total{label="Burger",service="api",status="success"} 1`) {
		t.Fatalf("expected pipeline metrics on the shared registry, got:\n%s", rec.Body.String())
	}
}

func TestPipelineMetricsBreakerState(t *testing.T) {
	server := NewHTTPServerMetrics("api")
	m := NewPipelineMetrics("api", server.Registerer())

	m.ObserveBreakerState("google.nearby_search", "open")
	if v := testutil.ToFloat64(m.upstreamBreakerOpen.WithLabelValues("api", "google.nearby_search")); v != 1 {
		t.Fatalf("expected open breaker gauge, got %v", v)
	}
	m.ObserveBreakerState("google.nearby_search", "closed")
	if v := testutil.ToFloat64(m.upstreamBreakerOpen.WithLabelValues("api", "google.nearby_search")); v != 0 {
		t.Fatalf("expected closed breaker gauge, got %v", v)
	}
}
