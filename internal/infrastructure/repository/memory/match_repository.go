package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/match"
)

type MatchRepository struct {
	mu    sync.RWMutex
	items map[int64]match.Match
}

func NewMatchRepository(items ...match.Match) *MatchRepository {
	repo := &MatchRepository{items: make(map[int64]match.Match, len(items))}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (r *MatchRepository) GetByID(_ context.Context, matchID int64) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[matchID]
	return item, ok, nil
}

func (r *MatchRepository) ListUpcoming(_ context.Context, from, to time.Time) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, item := range r.items {
		if item.KickoffAt.Before(from) || !item.KickoffAt.Before(to) {
			continue
		}
		if match.IsTerminalStatus(item.Status) {
			continue
		}
		out = append(out, item)
	}
	sortByKickoff(out)
	return out, nil
}

func (r *MatchRepository) ListCompetitionsAwaitingResults(_ context.Context, lastKickoffBefore time.Time) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lastKickoff := make(map[int64]time.Time)
	awaiting := make(map[int64]bool)
	for _, item := range r.items {
		if item.KickoffAt.After(lastKickoff[item.CompetitionID]) {
			lastKickoff[item.CompetitionID] = item.KickoffAt
		}
		if awaitingResult(item) {
			awaiting[item.CompetitionID] = true
		}
	}

	out := make([]int64, 0, len(awaiting))
	for competitionID := range awaiting {
		if lastKickoff[competitionID].Before(lastKickoffBefore) {
			out = append(out, competitionID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *MatchRepository) ListMissingResults(_ context.Context, competitionID int64) ([]match.Match, error) {
	return r.filter(func(item match.Match) bool {
		return item.CompetitionID == competitionID && awaitingResult(item)
	}), nil
}

func (r *MatchRepository) ListWithResults(_ context.Context, competitionID int64) ([]match.Match, error) {
	return r.filter(func(item match.Match) bool {
		return item.CompetitionID == competitionID && item.HasResult()
	}), nil
}

func (r *MatchRepository) UpdateProviderRefs(_ context.Context, matchID int64, refs match.ProviderRefs) error {
	return r.update(matchID, func(item *match.Match) {
		item.Refs = refs
	})
}

func (r *MatchRepository) UpdateResult(_ context.Context, matchID int64, result match.Result) error {
	return r.update(matchID, func(item *match.Match) {
		home, away := result.HomeScore, result.AwayScore
		item.HomeScore = &home
		item.AwayScore = &away
		item.Outcome = result.Outcome
		item.ResultSource = result.Source
		item.Status = match.StatusFinished
	})
}

func (r *MatchRepository) UpdateStatus(_ context.Context, matchID int64, status string) error {
	return r.update(matchID, func(item *match.Match) {
		item.Status = match.NormalizeStatus(status)
	})
}

func (r *MatchRepository) CountWithFixture(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, item := range r.items {
		if item.Refs.HasFixture() {
			count++
		}
	}
	return count, nil
}

func (r *MatchRepository) filter(keep func(match.Match) bool) []match.Match {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, item := range r.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	sortByKickoff(out)
	return out
}

func (r *MatchRepository) update(matchID int64, apply func(*match.Match)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[matchID]
	if !ok {
		return nil
	}
	apply(&item)
	r.items[matchID] = item
	return nil
}

func awaitingResult(item match.Match) bool {
	return !item.HasResult() && !match.IsTerminalStatus(item.Status)
}

func sortByKickoff(items []match.Match) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].KickoffAt.Equal(items[j].KickoffAt) {
			return items[i].KickoffAt.Before(items[j].KickoffAt)
		}
		return items[i].ID < items[j].ID
	})
}
