package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/mapping"
	qb "github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/querybuilder"
)

type MappingRepository struct {
	db *sqlx.DB
}

func NewMappingRepository(db *sqlx.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

func (r *MappingRepository) Get(ctx context.Context, entityType mapping.EntityType, internalID string) (mapping.Mapping, bool, error) {
	query, args, err := qb.Select(
		"id",
		"entity_type",
		"internal_id",
		"provider_id",
		"provider_name",
		"confidence",
		"method",
		"similarity",
		"created_at",
		"updated_at",
	).From("provider_mappings").
		Where(
			qb.Eq("entity_type", string(entityType)),
			qb.Eq("internal_id", internalID),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return mapping.Mapping{}, false, fmt.Errorf("build get mapping query: %w", err)
	}

	var row mappingTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return mapping.Mapping{}, false, nil
		}
		return mapping.Mapping{}, false, fmt.Errorf("get mapping type=%s internal_id=%s: %w", entityType, internalID, err)
	}

	return mappingFromRow(row), true, nil
}

func (r *MappingRepository) Insert(ctx context.Context, item mapping.Mapping) error {
	if err := item.Validate(); err != nil {
		return err
	}

	query, args, err := qb.InsertModel("provider_mappings", mappingInsertFromDomain(item),
		`ON CONFLICT (entity_type, internal_id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("build insert mapping query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert mapping type=%s internal_id=%s: %w", item.EntityType, item.InternalID, err)
	}
	return nil
}

func (r *MappingRepository) Override(ctx context.Context, item mapping.Mapping) error {
	if err := item.Validate(); err != nil {
		return err
	}

	query, args, err := qb.InsertModel("provider_mappings", mappingInsertFromDomain(item), `ON CONFLICT (entity_type, internal_id)
DO UPDATE SET
    provider_id = EXCLUDED.provider_id,
    provider_name = EXCLUDED.provider_name,
    confidence = EXCLUDED.confidence,
    method = EXCLUDED.method,
    similarity = EXCLUDED.similarity,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build override mapping query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("override mapping type=%s internal_id=%s: %w", item.EntityType, item.InternalID, err)
	}
	return nil
}

func (r *MappingRepository) Summarize(ctx context.Context, entityType mapping.EntityType) (mapping.Summary, error) {
	query, args, err := qb.Select("confidence", "method", "COUNT(1) AS total").
		From("provider_mappings").
		Where(qb.Eq("entity_type", string(entityType))).
		GroupBy("confidence", "method").
		ToSQL()
	if err != nil {
		return mapping.Summary{}, fmt.Errorf("build summarize mappings query: %w", err)
	}

	var rows []struct {
		Confidence string `db:"confidence"`
		Method     string `db:"method"`
		Total      int    `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return mapping.Summary{}, fmt.Errorf("summarize mappings type=%s: %w", entityType, err)
	}

	out := mapping.NewSummary()
	for _, row := range rows {
		out.Total += row.Total
		out.ByConfidence[mapping.Confidence(row.Confidence)] += row.Total
		out.ByMethod[mapping.Method(row.Method)] += row.Total
	}
	return out, nil
}

func mappingInsertFromDomain(item mapping.Mapping) mappingInsertModel {
	return mappingInsertModel{
		EntityType:   string(item.EntityType),
		InternalID:   item.InternalID,
		ProviderID:   item.ProviderID,
		ProviderName: item.ProviderName,
		Confidence:   string(item.Confidence),
		Method:       string(item.Method),
		Similarity:   item.Similarity,
	}
}

func mappingFromRow(row mappingTableModel) mapping.Mapping {
	out := mapping.Mapping{
		EntityType:   mapping.EntityType(row.EntityType),
		InternalID:   row.InternalID,
		ProviderID:   row.ProviderID,
		ProviderName: row.ProviderName,
		Confidence:   mapping.Confidence(row.Confidence),
		Method:       mapping.Method(row.Method),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.Similarity.Valid {
		similarity := row.Similarity.Float64
		out.Similarity = &similarity
	}
	return out
}
