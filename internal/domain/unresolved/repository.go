package unresolved

import (
	"context"
	"time"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/mapping"
)

type Repository interface {
	// Record inserts the entity or, for a known (type, internal id), bumps the
	// attempt count and replaces name, context and candidates.
	Record(ctx context.Context, item Entity) error
	Resolve(ctx context.Context, entityType mapping.EntityType, internalID string, at time.Time) error
	ListPending(ctx context.Context, entityType mapping.EntityType, limit int) ([]Entity, error)
	CountPending(ctx context.Context) (int, error)
}
