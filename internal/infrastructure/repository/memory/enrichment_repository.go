package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/enrichment"
)

type enrichmentKey struct {
	matchID  int64
	dataType enrichment.DataType
}

type EnrichmentRepository struct {
	mu    sync.RWMutex
	items map[enrichmentKey]enrichment.Record
}

func NewEnrichmentRepository(items ...enrichment.Record) *EnrichmentRepository {
	repo := &EnrichmentRepository{items: make(map[enrichmentKey]enrichment.Record, len(items))}
	for _, item := range items {
		repo.items[enrichmentKey{item.MatchID, item.DataType}] = item
	}
	return repo
}

func (r *EnrichmentRepository) Get(_ context.Context, matchID int64, dataType enrichment.DataType) (enrichment.Record, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[enrichmentKey{matchID, dataType}]
	return item, ok, nil
}

func (r *EnrichmentRepository) ListByMatch(_ context.Context, matchID int64) ([]enrichment.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]enrichment.Record, 0, len(enrichment.PriorityOrder))
	for key, item := range r.items {
		if key.matchID == matchID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DataType < out[j].DataType })
	return out, nil
}

func (r *EnrichmentRepository) Upsert(_ context.Context, item enrichment.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item.IsStale = false
	r.items[enrichmentKey{item.MatchID, item.DataType}] = item
	return nil
}

func (r *EnrichmentRepository) MarkStale(_ context.Context, matchID int64, dataType enrichment.DataType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := enrichmentKey{matchID, dataType}
	if item, ok := r.items[key]; ok {
		item.IsStale = true
		r.items[key] = item
	}
	return nil
}

func (r *EnrichmentRepository) CountByType(_ context.Context) (map[enrichment.DataType]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[enrichment.DataType]int)
	for key := range r.items {
		out[key.dataType]++
	}
	return out, nil
}
