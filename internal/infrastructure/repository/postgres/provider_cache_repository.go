package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/cache"
	qb "github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/querybuilder"
)

// ProviderCacheRepository is the durable cache tier. Expired rows are
// ignored on read and removed by PurgeExpired.
type ProviderCacheRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewProviderCacheRepository(db *sqlx.DB) *ProviderCacheRepository {
	return &ProviderCacheRepository{db: db, now: time.Now}
}

func (r *ProviderCacheRepository) Get(ctx context.Context, endpoint, fingerprint string) (cache.Entry, bool, error) {
	query, args, err := qb.Select("endpoint", "fingerprint", "query", "payload", "expires_at", "created_at").
		From("provider_cache").
		Where(
			qb.Eq("endpoint", endpoint),
			qb.Eq("fingerprint", fingerprint),
			qb.Gt("expires_at", r.now().UTC()),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("build get provider cache query: %w", err)
	}

	var row providerCacheTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return cache.Entry{}, false, nil
		}
		return cache.Entry{}, false, fmt.Errorf("get provider cache endpoint=%s: %w", endpoint, err)
	}

	return cache.Entry{
		Endpoint:    row.Endpoint,
		Fingerprint: row.Fingerprint,
		Query:       row.Query,
		Payload:     row.Payload,
		ExpiresAt:   row.ExpiresAt,
		CreatedAt:   row.CreatedAt,
	}, true, nil
}

func (r *ProviderCacheRepository) Put(ctx context.Context, entry cache.Entry) error {
	createdAt := entry.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = r.now().UTC()
	}

	query, args, err := qb.InsertModel("provider_cache", providerCacheTableModel{
		Endpoint:    entry.Endpoint,
		Fingerprint: entry.Fingerprint,
		Query:       entry.Query,
		Payload:     entry.Payload,
		ExpiresAt:   entry.ExpiresAt.UTC(),
		CreatedAt:   createdAt,
	}, `ON CONFLICT (endpoint, fingerprint)
DO UPDATE SET
    query = EXCLUDED.query,
    payload = EXCLUDED.payload,
    expires_at = EXCLUDED.expires_at,
    created_at = EXCLUDED.created_at`)
	if err != nil {
		return fmt.Errorf("build put provider cache query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put provider cache endpoint=%s: %w", entry.Endpoint, err)
	}
	return nil
}

func (r *ProviderCacheRepository) Delete(ctx context.Context, endpoint, fingerprint string) error {
	query := "DELETE FROM provider_cache WHERE endpoint = $1 AND fingerprint = $2"
	if _, err := r.db.ExecContext(ctx, query, endpoint, fingerprint); err != nil {
		return fmt.Errorf("delete provider cache endpoint=%s: %w", endpoint, err)
	}
	return nil
}

func (r *ProviderCacheRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM provider_cache WHERE expires_at <= $1", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge provider cache: %w", err)
	}
	purged, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge provider cache rows affected: %w", err)
	}
	return purged, nil
}
