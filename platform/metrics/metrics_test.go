package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRebuildCounters(t *testing.T) {
	c := NewCollector()

	c.RebuildSucceeded(1, 4, 1, 10*time.Millisecond)
	c.RebuildFailed(5 * time.Millisecond)
	c.RebuildFailed(5 * time.Millisecond)

	if got := testutil.ToFloat64(c.rebuilds); got != 1 {
		t.Fatalf("expected 1 rebuild, got %v", got)
	}
	if got := testutil.ToFloat64(c.rebuildFailures); got != 2 {
		t.Fatalf("expected 2 failures, got %v", got)
	}
	if got := testutil.ToFloat64(c.routes); got != 4 {
		t.Fatalf("expected 4 routes, got %v", got)
	}
}

func TestObserveRequestLabels(t *testing.T) {
	c := NewCollector()

	c.ObserveRequest("GET", "/api/health", 200, time.Millisecond)
	c.ObserveRequest("GET", "/api/health", 200, time.Millisecond)
	c.ObserveRequest("POST", "/api/definitions", 409, time.Millisecond)

	if got := testutil.ToFloat64(c.requests.WithLabelValues("GET", "/api/health", "200")); got != 2 {
		t.Fatalf("expected 2 health requests, got %v", got)
	}
	if got := testutil.ToFloat64(c.requests.WithLabelValues("POST", "/api/definitions", "409")); got != 1 {
		t.Fatalf("expected 1 conflict, got %v", got)
	}
}

func TestHandlerExposesNamespace(t *testing.T) {
	c := NewCollector()
	c.DynamicHit("Patients")
	c.DynamicMiss()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{
		"hemodilab_dynamic_route_hits_total",
		"hemodilab_dynamic_route_misses_total",
		"hemodilab_registry_rebuild_failures_total",
	} {
		if !strings.Contains(string(body), name) {
			t.Fatalf("expected %s in exposition output", name)
		}
	}
}
