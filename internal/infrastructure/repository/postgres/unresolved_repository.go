package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/mapping"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/unresolved"
	qb "github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/querybuilder"
)

type UnresolvedRepository struct {
	db *sqlx.DB
}

func NewUnresolvedRepository(db *sqlx.DB) *UnresolvedRepository {
	return &UnresolvedRepository{db: db}
}

func (r *UnresolvedRepository) Record(ctx context.Context, item unresolved.Entity) error {
	if strings.TrimSpace(item.ID) == "" {
		return fmt.Errorf("unresolved entity id is required")
	}

	contextJSON, err := encodeJSON(item.Context, "{}")
	if err != nil {
		return fmt.Errorf("marshal unresolved context: %w", err)
	}
	candidatesJSON, err := encodeJSON(item.Candidates, "[]")
	if err != nil {
		return fmt.Errorf("marshal unresolved candidates: %w", err)
	}

	query, args, err := qb.InsertModel("unresolved_entities", unresolvedInsertModel{
		ID:         item.ID,
		EntityType: string(item.EntityType),
		InternalID: item.InternalID,
		Name:       item.Name,
		Context:    contextJSON,
		Candidates: candidatesJSON,
	}, `ON CONFLICT (entity_type, internal_id)
DO UPDATE SET
    name = EXCLUDED.name,
    context = EXCLUDED.context,
    candidates = EXCLUDED.candidates,
    attempt_count = unresolved_entities.attempt_count + 1,
    resolved = FALSE,
    resolved_at = NULL,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build record unresolved query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record unresolved type=%s internal_id=%s: %w", item.EntityType, item.InternalID, err)
	}
	return nil
}

func (r *UnresolvedRepository) Resolve(ctx context.Context, entityType mapping.EntityType, internalID string, at time.Time) error {
	query, args, err := qb.Update("unresolved_entities").
		Set("resolved", true).
		Set("resolved_at", at.UTC()).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("entity_type", string(entityType)),
			qb.Eq("internal_id", internalID),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build resolve unresolved query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("resolve unresolved type=%s internal_id=%s: %w", entityType, internalID, err)
	}
	return nil
}

func (r *UnresolvedRepository) ListPending(ctx context.Context, entityType mapping.EntityType, limit int) ([]unresolved.Entity, error) {
	if limit <= 0 {
		limit = 50
	}

	conditions := []qb.Condition{qb.Eq("resolved", false)}
	if entityType != "" {
		conditions = append(conditions, qb.Eq("entity_type", string(entityType)))
	}
	query, args, err := qb.Select(
		"id",
		"entity_type",
		"internal_id",
		"name",
		"context::text AS context",
		"candidates::text AS candidates",
		"attempt_count",
		"resolved",
		"resolved_at",
		"created_at",
		"updated_at",
	).From("unresolved_entities").
		Where(conditions...).
		OrderBy("attempt_count DESC", "updated_at DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list unresolved query: %w", err)
	}

	var rows []unresolvedTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list unresolved: %w", err)
	}

	out := make([]unresolved.Entity, 0, len(rows))
	for _, row := range rows {
		item, err := unresolvedFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *UnresolvedRepository) CountPending(ctx context.Context) (int, error) {
	query, args, err := qb.Select("COUNT(1)").
		From("unresolved_entities").
		Where(qb.Eq("resolved", false)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count unresolved query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count unresolved: %w", err)
	}
	return count, nil
}

func unresolvedFromRow(row unresolvedTableModel) (unresolved.Entity, error) {
	out := unresolved.Entity{
		ID:           row.ID,
		EntityType:   mapping.EntityType(row.EntityType),
		InternalID:   row.InternalID,
		Name:         row.Name,
		AttemptCount: row.AttemptCount,
		Resolved:     row.Resolved,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.ResolvedAt.Valid {
		at := row.ResolvedAt.Time
		out.ResolvedAt = &at
	}
	if err := sonic.UnmarshalString(row.Context, &out.Context); err != nil {
		return unresolved.Entity{}, fmt.Errorf("decode unresolved context id=%s: %w", row.ID, err)
	}
	if err := sonic.UnmarshalString(row.Candidates, &out.Candidates); err != nil {
		return unresolved.Entity{}, fmt.Errorf("decode unresolved candidates id=%s: %w", row.ID, err)
	}
	return out, nil
}
