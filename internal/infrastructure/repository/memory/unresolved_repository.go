package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/mapping"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/unresolved"
)

type UnresolvedRepository struct {
	mu    sync.RWMutex
	items map[mappingKey]unresolved.Entity
}

func NewUnresolvedRepository() *UnresolvedRepository {
	return &UnresolvedRepository{items: make(map[mappingKey]unresolved.Entity)}
}

func (r *UnresolvedRepository) Record(_ context.Context, item unresolved.Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := mappingKey{item.EntityType, item.InternalID}
	if existing, ok := r.items[key]; ok {
		existing.Name = item.Name
		existing.Context = item.Context
		existing.Candidates = item.Candidates
		existing.AttemptCount++
		existing.Resolved = false
		existing.ResolvedAt = nil
		existing.UpdatedAt = item.UpdatedAt
		r.items[key] = existing
		return nil
	}
	if item.AttemptCount <= 0 {
		item.AttemptCount = 1
	}
	r.items[key] = item
	return nil
}

func (r *UnresolvedRepository) Resolve(_ context.Context, entityType mapping.EntityType, internalID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := mappingKey{entityType, internalID}
	item, ok := r.items[key]
	if !ok || item.Resolved {
		return nil
	}
	item.Resolved = true
	item.ResolvedAt = &at
	item.UpdatedAt = at
	r.items[key] = item
	return nil
}

func (r *UnresolvedRepository) ListPending(_ context.Context, entityType mapping.EntityType, limit int) ([]unresolved.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]unresolved.Entity, 0)
	for _, item := range r.items {
		if item.Resolved {
			continue
		}
		if entityType != "" && item.EntityType != entityType {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AttemptCount != out[j].AttemptCount {
			return out[i].AttemptCount > out[j].AttemptCount
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *UnresolvedRepository) CountPending(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, item := range r.items {
		if !item.Resolved {
			count++
		}
	}
	return count, nil
}
