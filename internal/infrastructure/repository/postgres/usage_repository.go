package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/usage"
	qb "github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/querybuilder"
)

// UsageRepository is the append-only provider call log. The daily quota is
// reconstructed from it after a restart.
type UsageRepository struct {
	db *sqlx.DB
}

func NewUsageRepository(db *sqlx.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) Append(ctx context.Context, item usage.Record) error {
	createdAt := item.Timestamp.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query, args, err := qb.InsertModel("provider_usage", usageInsertModel{
		Endpoint:   item.Endpoint,
		StatusCode: item.StatusCode,
		LatencyMs:  item.LatencyMs,
		Cached:     item.Cached,
		Kind:       string(item.Kind),
		Error:      optionalString(item.Error),
		CreatedAt:  createdAt,
	}, "")
	if err != nil {
		return fmt.Errorf("build append usage query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append usage endpoint=%s: %w", item.Endpoint, err)
	}
	return nil
}

func (r *UsageRepository) CountNetworkSince(ctx context.Context, since time.Time) (int, error) {
	query, args, err := qb.Select("COUNT(1)").
		From("provider_usage").
		Where(
			qb.Eq("kind", string(usage.KindNetwork)),
			qb.Gte("created_at", since.UTC()),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count usage query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count network usage: %w", err)
	}
	return count, nil
}

func (r *UsageRepository) Summarize(ctx context.Context, since time.Time) (usage.Summary, error) {
	query, args, err := qb.Select(
		"COUNT(1) FILTER (WHERE kind = 'network') AS network",
		"COUNT(1) FILTER (WHERE kind = 'cache_hit') AS cache_hits",
		"COUNT(1) FILTER (WHERE kind = 'rejected') AS rejected",
		"COUNT(1) FILTER (WHERE error IS NOT NULL) AS errors",
		"COALESCE(AVG(latency_ms) FILTER (WHERE kind = 'network'), 0)::float8 AS avg_latency_ms",
	).From("provider_usage").
		Where(qb.Gte("created_at", since.UTC())).
		ToSQL()
	if err != nil {
		return usage.Summary{}, fmt.Errorf("build summarize usage query: %w", err)
	}

	var row usageSummaryRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return usage.Summary{}, fmt.Errorf("summarize usage: %w", err)
	}

	return usage.Summary{
		Since:        since,
		Network:      row.Network,
		CacheHits:    row.CacheHits,
		Rejected:     row.Rejected,
		Errors:       row.Errors,
		AvgLatencyMs: row.AvgLatencyMs,
	}, nil
}
