package memory

import (
	"context"
	"sync"
	"time"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/cache"
)

type cacheKey struct {
	endpoint    string
	fingerprint string
}

// CacheBackend is a durable-tier stand-in for dev mode. It does not survive
// restarts.
type CacheBackend struct {
	mu    sync.RWMutex
	items map[cacheKey]cache.Entry
}

func NewCacheBackend() *CacheBackend {
	return &CacheBackend{items: make(map[cacheKey]cache.Entry)}
}

func (b *CacheBackend) Get(_ context.Context, endpoint, fingerprint string) (cache.Entry, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.items[cacheKey{endpoint, fingerprint}]
	return entry, ok, nil
}

func (b *CacheBackend) Put(_ context.Context, entry cache.Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[cacheKey{entry.Endpoint, entry.Fingerprint}] = entry
	return nil
}

func (b *CacheBackend) Delete(_ context.Context, endpoint, fingerprint string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.items, cacheKey{endpoint, fingerprint})
	return nil
}

func (b *CacheBackend) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var purged int64
	for key, entry := range b.items {
		if !entry.ExpiresAt.After(now) {
			delete(b.items, key)
			purged++
		}
	}
	return purged, nil
}
