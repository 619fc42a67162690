package usage

import (
	"context"
	"time"
)

type Repository interface {
	Append(ctx context.Context, item Record) error
	// CountNetworkSince counts KindNetwork rows at or after since.
	CountNetworkSince(ctx context.Context, since time.Time) (int, error)
	Summarize(ctx context.Context, since time.Time) (Summary, error)
}
