package match

import (
	"context"
	"time"
)

// Repository is the read/write contract against the primary match store.
type Repository interface {
	GetByID(ctx context.Context, matchID int64) (Match, bool, error)
	ListUpcoming(ctx context.Context, from, to time.Time) ([]Match, error)
	// ListCompetitionsAwaitingResults returns competitions whose last match
	// kicked off before the cutoff and that still have matches without an
	// outcome or terminal status.
	ListCompetitionsAwaitingResults(ctx context.Context, lastKickoffBefore time.Time) ([]int64, error)
	ListMissingResults(ctx context.Context, competitionID int64) ([]Match, error)
	ListWithResults(ctx context.Context, competitionID int64) ([]Match, error)
	UpdateProviderRefs(ctx context.Context, matchID int64, refs ProviderRefs) error
	UpdateResult(ctx context.Context, matchID int64, result Result) error
	UpdateStatus(ctx context.Context, matchID int64, status string) error
	CountWithFixture(ctx context.Context) (int, error)
}
