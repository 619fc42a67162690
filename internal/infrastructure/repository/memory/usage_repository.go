package memory

import (
	"context"
	"sync"
	"time"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/usage"
)

type UsageRepository struct {
	mu    sync.RWMutex
	items []usage.Record
}

func NewUsageRepository(items ...usage.Record) *UsageRepository {
	return &UsageRepository{items: append([]usage.Record(nil), items...)}
}

func (r *UsageRepository) Append(_ context.Context, item usage.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, item)
	return nil
}

func (r *UsageRepository) CountNetworkSince(_ context.Context, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, item := range r.items {
		if item.Kind == usage.KindNetwork && !item.Timestamp.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *UsageRepository) Summarize(_ context.Context, since time.Time) (usage.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := usage.Summary{Since: since}
	var latency int64
	for _, item := range r.items {
		if item.Timestamp.Before(since) {
			continue
		}
		switch item.Kind {
		case usage.KindNetwork:
			out.Network++
			latency += item.LatencyMs
		case usage.KindCacheHit:
			out.CacheHits++
		case usage.KindRejected:
			out.Rejected++
		}
		if item.Error != "" {
			out.Errors++
		}
	}
	if out.Network > 0 {
		out.AvgLatencyMs = float64(latency) / float64(out.Network)
	}
	return out, nil
}

// Records returns a copy of every appended row.
func (r *UsageRepository) Records() []usage.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]usage.Record(nil), r.items...)
}
