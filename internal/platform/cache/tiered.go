package cache

import (
	"bytes"
	"context"
	"time"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/logging"
)

type Tier string

const (
	TierMemory  Tier = "memory"
	TierDurable Tier = "durable"
)

// Entry is one durable cache row.
type Entry struct {
	Endpoint    string
	Fingerprint string
	Query       string
	Payload     []byte
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// Backend is the durable tier that survives restarts.
type Backend interface {
	Get(ctx context.Context, endpoint, fingerprint string) (Entry, bool, error)
	Put(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, endpoint, fingerprint string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Tiered reads through the in-process store first and the durable backend
// second. Payloads rejected by isEmpty are never served and are purged from
// both tiers when found.
type Tiered struct {
	memory  *Store[[]byte]
	durable Backend
	isEmpty func([]byte) bool
	logger  *logging.Logger
	now     func() time.Time
}

func NewTiered(memory *Store[[]byte], durable Backend, isEmpty func([]byte) bool, logger *logging.Logger) *Tiered {
	if memory == nil {
		memory = NewStore[[]byte](0)
	}
	if isEmpty == nil {
		isEmpty = IsPlaceholderPayload
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &Tiered{
		memory:  memory,
		durable: durable,
		isEmpty: isEmpty,
		logger:  logger,
		now:     time.Now,
	}
}

func (t *Tiered) Lookup(ctx context.Context, key Key) ([]byte, Tier, bool) {
	canonical := key.Canonical()
	if payload, ok := t.memory.Get(ctx, canonical); ok {
		if !t.isEmpty(payload) {
			return payload, TierMemory, true
		}
		t.Invalidate(ctx, key)
		return nil, "", false
	}

	if t.durable == nil {
		return nil, "", false
	}

	entry, ok, err := t.durable.Get(ctx, key.Endpoint, key.Fingerprint())
	if err != nil {
		t.logger.WarnContext(ctx, "durable cache read failed", "endpoint", key.Endpoint, "error", err)
		return nil, "", false
	}
	if !ok {
		return nil, "", false
	}
	if !entry.ExpiresAt.After(t.now()) || t.isEmpty(entry.Payload) {
		t.Invalidate(ctx, key)
		return nil, "", false
	}

	t.memory.SetUntil(ctx, canonical, entry.Payload, entry.ExpiresAt)
	return entry.Payload, TierDurable, true
}

// Save writes both tiers. A durable write failure is logged and swallowed so
// the caller still gets its data.
func (t *Tiered) Save(ctx context.Context, key Key, payload []byte, ttl time.Duration) {
	if ttl <= 0 || t.isEmpty(payload) {
		return
	}

	now := t.now()
	t.memory.SetWithTTL(ctx, key.Canonical(), payload, ttl)
	if t.durable == nil {
		return
	}

	err := t.durable.Put(ctx, Entry{
		Endpoint:    key.Endpoint,
		Fingerprint: key.Fingerprint(),
		Query:       key.Query(),
		Payload:     payload,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
	})
	if err != nil {
		t.logger.WarnContext(ctx, "durable cache write failed", "endpoint", key.Endpoint, "error", err)
	}
}

func (t *Tiered) Invalidate(ctx context.Context, key Key) {
	t.memory.Delete(ctx, key.Canonical())
	if t.durable == nil {
		return
	}
	if err := t.durable.Delete(ctx, key.Endpoint, key.Fingerprint()); err != nil {
		t.logger.WarnContext(ctx, "durable cache purge failed", "endpoint", key.Endpoint, "error", err)
	}
}

// PurgeExpired drops expired entries from both tiers and reports how many
// durable rows went.
func (t *Tiered) PurgeExpired(ctx context.Context) (int64, error) {
	if dropped := t.memory.Purge(); dropped > 0 {
		t.logger.DebugContext(ctx, "memory cache purged", "entries", dropped)
	}
	if t.durable == nil {
		return 0, nil
	}
	return t.durable.PurgeExpired(ctx, t.now())
}

func (t *Tiered) MemoryEntries() int {
	return t.memory.Len()
}

var placeholderPayloads = [][]byte{
	[]byte("null"),
	[]byte("{}"),
	[]byte("[]"),
	[]byte(`""`),
}

// IsPlaceholderPayload reports payloads that carry no data at all.
func IsPlaceholderPayload(payload []byte) bool {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return true
	}
	for _, placeholder := range placeholderPayloads {
		if bytes.Equal(trimmed, placeholder) {
			return true
		}
	}
	return false
}
