package memory

import (
	"context"
	"sync"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/mapping"
)

type mappingKey struct {
	entityType mapping.EntityType
	internalID string
}

type MappingRepository struct {
	mu    sync.RWMutex
	items map[mappingKey]mapping.Mapping
}

func NewMappingRepository(items ...mapping.Mapping) *MappingRepository {
	repo := &MappingRepository{items: make(map[mappingKey]mapping.Mapping, len(items))}
	for _, item := range items {
		repo.items[mappingKey{item.EntityType, item.InternalID}] = item
	}
	return repo
}

func (r *MappingRepository) Get(_ context.Context, entityType mapping.EntityType, internalID string) (mapping.Mapping, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[mappingKey{entityType, internalID}]
	return item, ok, nil
}

func (r *MappingRepository) Insert(_ context.Context, item mapping.Mapping) error {
	if err := item.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := mappingKey{item.EntityType, item.InternalID}
	if _, exists := r.items[key]; exists {
		return nil
	}
	r.items[key] = item
	return nil
}

func (r *MappingRepository) Override(_ context.Context, item mapping.Mapping) error {
	if err := item.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := mappingKey{item.EntityType, item.InternalID}
	if existing, ok := r.items[key]; ok {
		item.CreatedAt = existing.CreatedAt
	}
	r.items[key] = item
	return nil
}

func (r *MappingRepository) Summarize(_ context.Context, entityType mapping.EntityType) (mapping.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := mapping.NewSummary()
	for key, item := range r.items {
		if key.entityType == entityType {
			out.Add(item)
		}
	}
	return out, nil
}
