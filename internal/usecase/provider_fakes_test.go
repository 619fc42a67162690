package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/resilience"
)

// fakeProvider is an in-memory provider that counts calls per method.
type fakeProvider struct {
	mu    sync.Mutex
	calls map[string]int

	leaguesByCountry map[string][]ExternalLeague
	leagueSearch     map[string][]ExternalLeague
	leagues          map[int64]ExternalLeague
	rosters          map[int64][]ExternalTeam
	teamSearch       map[string][]ExternalTeam

	fixturesByDate map[string][]ExternalFixture
	fixtures       map[int64]ExternalFixture

	h2h         []ExternalFixture
	teamStats   map[int64]ExternalTeamStatistics
	standings   []ExternalStanding
	fixtureStat []ExternalFixtureStatistics
	injuries    []ExternalInjury
	prediction  *ExternalPrediction
	lineups     []ExternalLineup
	odds        []ExternalBookmakerOdds

	errs  map[string]error
	quota resilience.QuotaSnapshot
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		calls:            make(map[string]int),
		leaguesByCountry: make(map[string][]ExternalLeague),
		leagueSearch:     make(map[string][]ExternalLeague),
		leagues:          make(map[int64]ExternalLeague),
		rosters:          make(map[int64][]ExternalTeam),
		teamSearch:       make(map[string][]ExternalTeam),
		fixturesByDate:   make(map[string][]ExternalFixture),
		fixtures:         make(map[int64]ExternalFixture),
		teamStats:        make(map[int64]ExternalTeamStatistics),
		errs:             make(map[string]error),
		quota:            resilience.QuotaSnapshot{Limit: 100},
	}
}

func (f *fakeProvider) record(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.errs[method]
}

func (f *fakeProvider) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeProvider) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeProvider) LeaguesByCountry(_ context.Context, country string) ([]ExternalLeague, error) {
	if err := f.record("LeaguesByCountry"); err != nil {
		return nil, err
	}
	return f.leaguesByCountry[country], nil
}

func (f *fakeProvider) SearchLeagues(_ context.Context, name string) ([]ExternalLeague, error) {
	if err := f.record("SearchLeagues"); err != nil {
		return nil, err
	}
	return f.leagueSearch[name], nil
}

func (f *fakeProvider) LeagueByID(_ context.Context, leagueID int64) (ExternalLeague, bool, error) {
	if err := f.record("LeagueByID"); err != nil {
		return ExternalLeague{}, false, err
	}
	item, ok := f.leagues[leagueID]
	return item, ok, nil
}

func (f *fakeProvider) TeamsByLeague(_ context.Context, leagueID int64, _ int) ([]ExternalTeam, error) {
	if err := f.record("TeamsByLeague"); err != nil {
		return nil, err
	}
	return f.rosters[leagueID], nil
}

func (f *fakeProvider) SearchTeams(_ context.Context, term string) ([]ExternalTeam, error) {
	if err := f.record("SearchTeams"); err != nil {
		return nil, err
	}
	return f.teamSearch[term], nil
}

func (f *fakeProvider) FixturesByDate(_ context.Context, lookup FixtureLookup) ([]ExternalFixture, error) {
	if err := f.record("FixturesByDate"); err != nil {
		return nil, err
	}
	return f.fixturesByDate[lookup.Date.UTC().Format(time.DateOnly)], nil
}

func (f *fakeProvider) FixtureByID(_ context.Context, fixtureID int64, _ bool) (ExternalFixture, bool, error) {
	if err := f.record("FixtureByID"); err != nil {
		return ExternalFixture{}, false, err
	}
	item, ok := f.fixtures[fixtureID]
	return item, ok, nil
}

func (f *fakeProvider) HeadToHead(context.Context, int64, int64, int) ([]ExternalFixture, error) {
	if err := f.record("HeadToHead"); err != nil {
		return nil, err
	}
	return f.h2h, nil
}

func (f *fakeProvider) TeamStatistics(_ context.Context, _ int64, _ int, teamID int64) (ExternalTeamStatistics, bool, error) {
	if err := f.record("TeamStatistics"); err != nil {
		return ExternalTeamStatistics{}, false, err
	}
	item, ok := f.teamStats[teamID]
	return item, ok, nil
}

func (f *fakeProvider) Standings(context.Context, int64, int) ([]ExternalStanding, error) {
	if err := f.record("Standings"); err != nil {
		return nil, err
	}
	return f.standings, nil
}

func (f *fakeProvider) FixtureStatistics(context.Context, int64) ([]ExternalFixtureStatistics, error) {
	if err := f.record("FixtureStatistics"); err != nil {
		return nil, err
	}
	return f.fixtureStat, nil
}

func (f *fakeProvider) Injuries(context.Context, int64) ([]ExternalInjury, error) {
	if err := f.record("Injuries"); err != nil {
		return nil, err
	}
	return f.injuries, nil
}

func (f *fakeProvider) Predictions(context.Context, int64) (ExternalPrediction, bool, error) {
	if err := f.record("Predictions"); err != nil {
		return ExternalPrediction{}, false, err
	}
	if f.prediction == nil {
		return ExternalPrediction{}, false, nil
	}
	return *f.prediction, true, nil
}

func (f *fakeProvider) Lineups(context.Context, int64) ([]ExternalLineup, error) {
	if err := f.record("Lineups"); err != nil {
		return nil, err
	}
	return f.lineups, nil
}

func (f *fakeProvider) Odds(context.Context, int64) ([]ExternalBookmakerOdds, error) {
	if err := f.record("Odds"); err != nil {
		return nil, err
	}
	return f.odds, nil
}

func (f *fakeProvider) Health() ProviderHealth {
	return ProviderHealth{AuthMode: "direct", Quota: f.QuotaSnapshot()}
}

func (f *fakeProvider) QuotaSnapshot() resilience.QuotaSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quota
}

func intPtr(v int) *int {
	return &v
}
