package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestRecorderTracksProviderCalls(t *testing.T) {
	rec, err := NewRecorder("test", noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}

	rec.RecordProviderCall("/fixtures", OutcomeSuccess, 10*time.Millisecond)
	rec.RecordProviderCall("/fixtures", OutcomeError, 15*time.Millisecond)
	rec.RecordProviderCall("/fixtures", OutcomeCacheHit, 0)
	rec.RecordProviderCall("/fixtures", OutcomeRejected, 0)

	snap := rec.Snapshot()
	if snap.Calls != 2 || snap.Errors != 1 || snap.CacheHits != 1 || snap.Rejected != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.LastCallLatency != 15*time.Millisecond {
		t.Fatalf("expected last latency 15ms, got %s", snap.LastCallLatency)
	}
	if got := testutil.ToFloat64(rec.providerRequests.WithLabelValues("/fixtures", OutcomeSuccess)); got != 1 {
		t.Fatalf("expected 1 success sample, got %v", got)
	}
}

func TestRecorderBreakerGauge(t *testing.T) {
	rec, err := NewRecorder("test", nil)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}

	rec.SetBreakerState("OPEN")
	if got := testutil.ToFloat64(rec.breakerState); got != 2 {
		t.Fatalf("expected open gauge 2, got %v", got)
	}
	rec.SetBreakerState("CLOSED")
	if got := testutil.ToFloat64(rec.breakerState); got != 0 {
		t.Fatalf("expected closed gauge 0, got %v", got)
	}
}

func TestRecorderHandlerExposesMetrics(t *testing.T) {
	rec, err := NewRecorder("test", nil)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	rec.RecordEnrichmentFetch("standings", "success")

	rr := httptest.NewRecorder()
	rec.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "test_fetches_total") {
		t.Fatalf("expected enrichment counter in exposition, got %s", rr.Body.String())
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *Recorder
	rec.RecordProviderCall("/odds", OutcomeSuccess, time.Millisecond)
	rec.RecordRateLimit()
	rec.SetQuotaUsed(3)
	if snap := rec.Snapshot(); snap.Calls != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}
