package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
)

type providerStats struct {
	calls           int
	errors          int
	cacheHits       int
	rejected        int
	rateLimitHits   int
	lastCallLatency time.Duration
}

// Recorder exposes provider, cache and enrichment metrics on a private
// Prometheus registry and mirrors them to OpenTelemetry instruments. A nil
// Recorder is a valid no-op.
type Recorder struct {
	mu    sync.Mutex
	stats providerStats

	registry          *prometheus.Registry
	providerRequests  *prometheus.CounterVec
	providerLatency   *prometheus.HistogramVec
	cacheLookups      *prometheus.CounterVec
	rateLimitHits     prometheus.Counter
	breakerState      prometheus.Gauge
	quotaUsed         prometheus.Gauge
	enrichmentFetches *prometheus.CounterVec
	resultSyncItems   *prometheus.CounterVec

	otel *otelInstruments
}

// NewRecorder builds a recorder. meterProvider may be nil, in which case only
// the Prometheus side is populated.
func NewRecorder(namespace string, meterProvider metric.MeterProvider) (*Recorder, error) {
	if namespace == "" {
		namespace = "enrichment"
	}

	r := &Recorder{
		registry: prometheus.NewRegistry(),
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Provider calls by endpoint and outcome.",
		}, []string{AttrEndpoint, AttrOutcome}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_ms",
			Help:      "Latency of network calls to the provider.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		}, []string{AttrEndpoint}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Provider cache lookups by tier that served them.",
		}, []string{AttrTier}),
		rateLimitHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_rate_limit_hits_total",
			Help:      "HTTP 429 responses from the provider.",
		}),
		breakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_circuit_state",
			Help:      "0 closed, 1 half-open, 2 open.",
		}),
		quotaUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_quota_used",
			Help:      "Network requests spent today (UTC).",
		}),
		enrichmentFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Enrichment fetches by data type and result.",
		}, []string{AttrDataType, AttrResult}),
		resultSyncItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_sync_items_total",
			Help:      "Fallback result sync classifications.",
		}, []string{AttrResult}),
	}

	r.registry.MustRegister(
		r.providerRequests,
		r.providerLatency,
		r.cacheLookups,
		r.rateLimitHits,
		r.breakerState,
		r.quotaUsed,
		r.enrichmentFetches,
		r.resultSyncItems,
	)

	if meterProvider != nil {
		inst, err := newOtelInstruments(meterProvider, namespace)
		if err != nil {
			return nil, err
		}
		r.otel = inst
	}

	return r, nil
}

// Handler serves the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) RecordProviderCall(endpoint, outcome string, duration time.Duration) {
	if r == nil {
		return
	}

	r.mu.Lock()
	switch outcome {
	case OutcomeCacheHit:
		r.stats.cacheHits++
	case OutcomeRejected:
		r.stats.rejected++
	default:
		r.stats.calls++
		r.stats.lastCallLatency = duration
		if outcome == OutcomeError {
			r.stats.errors++
		}
	}
	r.mu.Unlock()

	r.providerRequests.WithLabelValues(endpoint, outcome).Inc()
	if outcome != OutcomeCacheHit && outcome != OutcomeRejected {
		r.providerLatency.WithLabelValues(endpoint).Observe(float64(duration.Milliseconds()))
	}
	r.otel.recordProviderCall(endpoint, outcome, duration)
}

func (r *Recorder) RecordCacheLookup(tier string) {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues(tier).Inc()
	r.otel.recordCacheLookup(tier)
}

func (r *Recorder) RecordRateLimit() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.stats.rateLimitHits++
	r.mu.Unlock()
	r.rateLimitHits.Inc()
}

// SetBreakerState takes the breaker state name.
func (r *Recorder) SetBreakerState(state string) {
	if r == nil {
		return
	}
	switch state {
	case "OPEN":
		r.breakerState.Set(2)
	case "HALF_OPEN":
		r.breakerState.Set(1)
	default:
		r.breakerState.Set(0)
	}
}

func (r *Recorder) SetQuotaUsed(used int) {
	if r == nil {
		return
	}
	r.quotaUsed.Set(float64(used))
}

func (r *Recorder) RecordEnrichmentFetch(dataType, result string) {
	if r == nil {
		return
	}
	r.enrichmentFetches.WithLabelValues(dataType, result).Inc()
	r.otel.recordEnrichmentFetch(dataType, result)
}

func (r *Recorder) RecordResultSync(result string) {
	if r == nil {
		return
	}
	r.resultSyncItems.WithLabelValues(result).Inc()
}

// Snapshot is a copy of the in-memory provider counters.
type Snapshot struct {
	Calls           int           `json:"calls"`
	Errors          int           `json:"errors"`
	CacheHits       int           `json:"cache_hits"`
	Rejected        int           `json:"rejected"`
	RateLimitHits   int           `json:"rate_limit_hits"`
	LastCallLatency time.Duration `json:"last_call_latency"`
}

func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	return Snapshot{
		Calls:           r.stats.calls,
		Errors:          r.stats.errors,
		CacheHits:       r.stats.cacheHits,
		Rejected:        r.stats.rejected,
		RateLimitHits:   r.stats.rateLimitHits,
		LastCallLatency: r.stats.lastCallLatency,
	}
}
