package enrichment

import "context"

type Repository interface {
	Get(ctx context.Context, matchID int64, dataType DataType) (Record, bool, error)
	ListByMatch(ctx context.Context, matchID int64) ([]Record, error)
	// Upsert keys on (match id, data type); last writer wins.
	Upsert(ctx context.Context, item Record) error
	MarkStale(ctx context.Context, matchID int64, dataType DataType) error
	CountByType(ctx context.Context) (map[DataType]int, error)
}
