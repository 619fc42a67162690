package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

var errNilLoader = errors.New("cache loader is required")

type slot[V any] struct {
	value V
	// zero means no expiry
	until time.Time
}

func (s slot[V]) liveAt(now time.Time) bool {
	return s.until.IsZero() || s.until.After(now)
}

// Store is the in-process cache tier. Every entry carries its own expiry and
// concurrent loads of one key are collapsed into a single call.
type Store[V any] struct {
	mu     sync.RWMutex
	slots  map[string]slot[V]
	ttl    time.Duration
	flight singleflight.Group
	now    func() time.Time
}

// NewStore creates a store whose Set uses ttl. A ttl <= 0 keeps entries until
// deleted.
func NewStore[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{
		slots: make(map[string]slot[V]),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *Store[V]) Get(_ context.Context, key string) (V, bool) {
	var zero V
	if key == "" {
		return zero, false
	}

	s.mu.RLock()
	entry, ok := s.slots[key]
	s.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if !entry.liveAt(s.now()) {
		s.Delete(context.Background(), key)
		return zero, false
	}
	return entry.value, true
}

func (s *Store[V]) Set(ctx context.Context, key string, value V) {
	s.SetWithTTL(ctx, key, value, s.ttl)
}

// SetWithTTL overrides the store TTL for one entry.
func (s *Store[V]) SetWithTTL(ctx context.Context, key string, value V, ttl time.Duration) {
	var until time.Time
	if ttl > 0 {
		until = s.now().Add(ttl)
	}
	s.SetUntil(ctx, key, value, until)
}

// SetUntil keeps value until an absolute time. Entries promoted from the
// durable tier keep their original expiry this way.
func (s *Store[V]) SetUntil(_ context.Context, key string, value V, until time.Time) {
	if key == "" {
		return
	}
	s.mu.Lock()
	s.slots[key] = slot[V]{value: value, until: until}
	s.mu.Unlock()
}

func (s *Store[V]) Delete(_ context.Context, key string) {
	s.mu.Lock()
	delete(s.slots, key)
	s.mu.Unlock()
}

// Purge drops expired entries and returns how many were removed.
func (s *Store[V]) Purge() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.slots {
		if !entry.liveAt(now) {
			delete(s.slots, key)
			removed++
		}
	}
	return removed
}

// Len counts live entries.
func (s *Store[V]) Len() int {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	live := 0
	for _, entry := range s.slots {
		if entry.liveAt(now) {
			live++
		}
	}
	return live
}

// GetOrLoad returns the cached value or runs load once for all concurrent
// callers of key. Load errors are not cached.
func (s *Store[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	var zero V
	if load == nil {
		return zero, errNilLoader
	}
	if key == "" {
		return load(ctx)
	}
	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	shared, err, _ := s.flight.Do(key, func() (any, error) {
		if value, ok := s.Get(ctx, key); ok {
			return value, nil
		}
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		s.Set(ctx, key, value)
		return value, nil
	})
	if err != nil {
		return zero, err
	}
	return shared.(V), nil
}
