package mapping

import "context"

// Repository persists mappings. Rows are never deleted.
type Repository interface {
	Get(ctx context.Context, entityType EntityType, internalID string) (Mapping, bool, error)
	// Insert stores a first resolution and leaves an existing row untouched.
	Insert(ctx context.Context, item Mapping) error
	// Override replaces an existing row; used only for manual corrections.
	Override(ctx context.Context, item Mapping) error
	Summarize(ctx context.Context, entityType EntityType) (Summary, error)
}
