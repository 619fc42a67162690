package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/cache"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/logging"
)

func newTestResolver(provider *fakeProvider) *FixtureResolver {
	store := cache.NewTiered(cache.NewStore[[]byte](time.Hour), nil, nil, logging.NewNop())
	return NewFixtureResolver(provider, provider, store, logging.NewNop())
}

func TestFixtureResolver_SelectsExactPairAndCaches(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 4, 12, 13, 0, 0, 0, time.UTC)
	provider := newFakeProvider()
	provider.fixturesByDate["2026-04-12"] = []ExternalFixture{
		{ID: 10, HomeTeamID: 377, AwayTeamID: 363, KickoffAt: kickoff},
		{ID: 11, HomeTeamID: 363, AwayTeamID: 377, LeagueID: 113, Season: 2026, KickoffAt: kickoff, StatusShort: "NS"},
	}
	resolver := newTestResolver(provider)
	query := FixtureQuery{HomeTeamID: 363, AwayTeamID: 377, Date: kickoff}

	got, err := resolver.Resolve(context.Background(), query)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got == nil || got.FixtureID != 11 || got.LeagueID != 113 {
		t.Fatalf("expected fixture 11, got=%+v", got)
	}

	again, err := resolver.Resolve(context.Background(), query)
	if err != nil || again == nil || again.FixtureID != 11 {
		t.Fatalf("expected cached fixture, got=%+v err=%v", again, err)
	}
	if calls := provider.count("FixturesByDate"); calls != 1 {
		t.Fatalf("expected one provider call, got=%d", calls)
	}
}

func TestFixtureResolver_AmbiguousReturnsNil(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	provider := newFakeProvider()
	provider.fixturesByDate["2026-05-01"] = []ExternalFixture{
		{ID: 20, HomeTeamID: 1, AwayTeamID: 2},
		{ID: 21, HomeTeamID: 1, AwayTeamID: 2},
	}
	resolver := newTestResolver(provider)

	got, err := resolver.Resolve(context.Background(), FixtureQuery{HomeTeamID: 1, AwayTeamID: 2, Date: day})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for ambiguous result, got=%+v", got)
	}
}

func TestFixtureResolver_NotFoundIsNotCached(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	provider := newFakeProvider()
	resolver := newTestResolver(provider)
	query := FixtureQuery{HomeTeamID: 1, AwayTeamID: 2, Date: day}

	for range 2 {
		got, err := resolver.Resolve(context.Background(), query)
		if err != nil || got != nil {
			t.Fatalf("expected nil result, got=%+v err=%v", got, err)
		}
	}
	if calls := provider.count("FixturesByDate"); calls != 2 {
		t.Fatalf("expected a fresh lookup each time, got=%d", calls)
	}
}

func TestFixtureResolver_DerivesSeasonFromLeague(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 8, 20, 18, 0, 0, 0, time.UTC)
	provider := newFakeProvider()
	provider.leagues[39] = ExternalLeague{ID: 39, Seasons: []ExternalSeason{
		{Year: 2025, Start: time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC), End: time.Date(2026, 5, 24, 0, 0, 0, 0, time.UTC)},
		{Year: 2026, Start: time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC), End: time.Date(2027, 5, 23, 0, 0, 0, 0, time.UTC), Current: true},
	}}
	provider.fixturesByDate["2026-08-20"] = []ExternalFixture{{ID: 30, HomeTeamID: 33, AwayTeamID: 40, LeagueID: 39, Season: 2026}}
	resolver := newTestResolver(provider)

	got, err := resolver.Resolve(context.Background(), FixtureQuery{HomeTeamID: 33, AwayTeamID: 40, Date: day, LeagueID: 39})
	if err != nil || got == nil || got.Season != 2026 {
		t.Fatalf("expected season 2026 fixture, got=%+v err=%v", got, err)
	}
	if provider.count("LeagueByID") != 1 {
		t.Fatalf("expected league lookup for season")
	}
}

func TestFixtureResolver_PropagatesProviderFailure(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.errs["FixturesByDate"] = ErrQuotaExhausted
	resolver := newTestResolver(provider)

	_, err := resolver.Resolve(context.Background(), FixtureQuery{HomeTeamID: 1, AwayTeamID: 2, Date: time.Now()})
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("expected quota error, got=%v", err)
	}

	_, err = resolver.Resolve(context.Background(), FixtureQuery{HomeTeamID: 1, AwayTeamID: 1, Date: time.Now()})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got=%v", err)
	}
}
