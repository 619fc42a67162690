package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/enrichment"
	qb "github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/querybuilder"
)

type EnrichmentRepository struct {
	db *sqlx.DB
}

func NewEnrichmentRepository(db *sqlx.DB) *EnrichmentRepository {
	return &EnrichmentRepository{db: db}
}

func enrichmentSelect() *qb.SelectBuilder {
	return qb.Select(
		"match_id",
		"data_type",
		"payload::text AS payload",
		"source",
		"is_stale",
		"fetched_at",
	).From("enrichment_records")
}

func (r *EnrichmentRepository) Get(ctx context.Context, matchID int64, dataType enrichment.DataType) (enrichment.Record, bool, error) {
	query, args, err := enrichmentSelect().
		Where(
			qb.Eq("match_id", matchID),
			qb.Eq("data_type", string(dataType)),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return enrichment.Record{}, false, fmt.Errorf("build get enrichment query: %w", err)
	}

	var row enrichmentTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return enrichment.Record{}, false, nil
		}
		return enrichment.Record{}, false, fmt.Errorf("get enrichment match_id=%d type=%s: %w", matchID, dataType, err)
	}
	return enrichmentFromRow(row), true, nil
}

func (r *EnrichmentRepository) ListByMatch(ctx context.Context, matchID int64) ([]enrichment.Record, error) {
	query, args, err := enrichmentSelect().
		Where(qb.Eq("match_id", matchID)).
		OrderBy("data_type").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list enrichment query: %w", err)
	}

	var rows []enrichmentTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list enrichment match_id=%d: %w", matchID, err)
	}

	out := make([]enrichment.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, enrichmentFromRow(row))
	}
	return out, nil
}

func (r *EnrichmentRepository) Upsert(ctx context.Context, item enrichment.Record) error {
	query, args, err := qb.InsertInto("enrichment_records").
		Columns("match_id", "data_type", "payload", "source", "is_stale", "fetched_at").
		Values(item.MatchID, string(item.DataType), string(item.Payload), item.Source, false, item.FetchedAt.UTC()).
		Suffix(`ON CONFLICT (match_id, data_type)
DO UPDATE SET
    payload = EXCLUDED.payload,
    source = EXCLUDED.source,
    is_stale = FALSE,
    fetched_at = EXCLUDED.fetched_at,
    updated_at = NOW()`).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert enrichment query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert enrichment match_id=%d type=%s: %w", item.MatchID, item.DataType, err)
	}
	return nil
}

func (r *EnrichmentRepository) MarkStale(ctx context.Context, matchID int64, dataType enrichment.DataType) error {
	query, args, err := qb.Update("enrichment_records").
		Set("is_stale", true).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("match_id", matchID),
			qb.Eq("data_type", string(dataType)),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark stale query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark enrichment stale match_id=%d type=%s: %w", matchID, dataType, err)
	}
	return nil
}

func (r *EnrichmentRepository) CountByType(ctx context.Context) (map[enrichment.DataType]int, error) {
	query, args, err := qb.Select("data_type", "COUNT(1) AS total").
		From("enrichment_records").
		GroupBy("data_type").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build count enrichment query: %w", err)
	}

	var rows []struct {
		DataType string `db:"data_type"`
		Total    int    `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count enrichment by type: %w", err)
	}

	out := make(map[enrichment.DataType]int, len(rows))
	for _, row := range rows {
		out[enrichment.DataType(row.DataType)] = row.Total
	}
	return out, nil
}

func enrichmentFromRow(row enrichmentTableModel) enrichment.Record {
	return enrichment.Record{
		MatchID:   row.MatchID,
		DataType:  enrichment.DataType(row.DataType),
		Payload:   row.Payload,
		Source:    row.Source,
		IsStale:   row.IsStale,
		FetchedAt: row.FetchedAt,
	}
}
