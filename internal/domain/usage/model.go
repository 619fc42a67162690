package usage

import "time"

type Kind string

const (
	// KindNetwork is a request that actually went to the provider and counts
	// against the daily quota.
	KindNetwork  Kind = "network"
	KindCacheHit Kind = "cache_hit"
	// KindRejected is a call refused locally by the breaker or quota guard.
	KindRejected Kind = "rejected"
)

// Record is one append-only usage row; exactly one is written per client call.
type Record struct {
	Endpoint   string
	StatusCode int
	LatencyMs  int64
	Cached     bool
	Kind       Kind
	Error      string
	Timestamp  time.Time
}

// Summary aggregates usage since a point in time.
type Summary struct {
	Since        time.Time `json:"since"`
	Network      int       `json:"network"`
	CacheHits    int       `json:"cache_hits"`
	Rejected     int       `json:"rejected"`
	Errors       int       `json:"errors"`
	AvgLatencyMs float64   `json:"avg_latency_ms"`
}
