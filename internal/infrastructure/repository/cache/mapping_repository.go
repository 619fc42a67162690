package cache

import (
	"context"
	"time"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/mapping"
	basecache "github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/cache"
)

// lookup remembers misses too, so an unmapped team costs one query per TTL.
type lookup struct {
	item  mapping.Mapping
	found bool
}

// MappingRepository decorates a mapping.Repository with an in-process read
// cache. Writes through this decorator evict the written key. Writes made by
// other instances show up after the TTL.
type MappingRepository struct {
	mapping.Repository
	lookups *basecache.Store[lookup]
}

func NewMappingRepository(next mapping.Repository, ttl time.Duration) *MappingRepository {
	return &MappingRepository{
		Repository: next,
		lookups:    basecache.NewStore[lookup](ttl),
	}
}

func (r *MappingRepository) Get(ctx context.Context, entityType mapping.EntityType, internalID string) (mapping.Mapping, bool, error) {
	hit, err := r.lookups.GetOrLoad(ctx, lookupKey(entityType, internalID), func(ctx context.Context) (lookup, error) {
		item, found, err := r.Repository.Get(ctx, entityType, internalID)
		return lookup{item: item, found: found}, err
	})
	if err != nil {
		return mapping.Mapping{}, false, err
	}
	return hit.item, hit.found, nil
}

func (r *MappingRepository) Insert(ctx context.Context, item mapping.Mapping) error {
	defer r.evict(ctx, item)
	return r.Repository.Insert(ctx, item)
}

func (r *MappingRepository) Override(ctx context.Context, item mapping.Mapping) error {
	defer r.evict(ctx, item)
	return r.Repository.Override(ctx, item)
}

func (r *MappingRepository) evict(ctx context.Context, item mapping.Mapping) {
	r.lookups.Delete(ctx, lookupKey(item.EntityType, item.InternalID))
}

func lookupKey(entityType mapping.EntityType, internalID string) string {
	return string(entityType) + "/" + internalID
}
