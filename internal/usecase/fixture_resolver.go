package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/cache"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/logging"
)

const (
	resolverCacheEndpoint = "resolver:fixture"
	resolverCacheTTL      = 30 * 24 * time.Hour
)

// FixtureQuery identifies a fixture by its resolved provider teams and the
// kickoff date. LeagueID and Season narrow the provider query when known.
type FixtureQuery struct {
	HomeTeamID int64
	AwayTeamID int64
	Date       time.Time
	LeagueID   int64
	Season     int
}

// ResolvedFixture is the provider identity of one fixture.
type ResolvedFixture struct {
	FixtureID  int64     `json:"fixture_id"`
	LeagueID   int64     `json:"league_id"`
	Season     int       `json:"season"`
	HomeTeamID int64     `json:"home_team_id"`
	AwayTeamID int64     `json:"away_team_id"`
	KickoffAt  time.Time `json:"kickoff_at"`
	Status     string    `json:"status"`
}

type FixtureResolver struct {
	fixtures FixtureProvider
	catalog  ProviderCatalog
	cache    *cache.Tiered
	logger   *logging.Logger
}

func NewFixtureResolver(fixtures FixtureProvider, catalog ProviderCatalog, store *cache.Tiered, logger *logging.Logger) *FixtureResolver {
	if logger == nil {
		logger = logging.Default()
	}
	if store == nil {
		store = cache.NewTiered(nil, nil, nil, logger)
	}
	return &FixtureResolver{
		fixtures: fixtures,
		catalog:  catalog,
		cache:    store,
		logger:   logger,
	}
}

// Resolve finds the fixture played between the two teams on the given date.
// It returns nil without error when the provider has no fixture for the pair
// or when more than one fixture matches.
func (r *FixtureResolver) Resolve(ctx context.Context, query FixtureQuery) (*ResolvedFixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureResolver.Resolve")
	defer span.End()

	if query.HomeTeamID <= 0 || query.AwayTeamID <= 0 || query.Date.IsZero() {
		return nil, fmt.Errorf("%w: home team, away team and date are required", ErrInvalidInput)
	}
	if query.HomeTeamID == query.AwayTeamID {
		return nil, fmt.Errorf("%w: home and away team must differ", ErrInvalidInput)
	}

	key := resolverKey(query)
	if payload, _, ok := r.cache.Lookup(ctx, key); ok {
		var cached ResolvedFixture
		if err := sonic.Unmarshal(payload, &cached); err == nil && cached.FixtureID > 0 {
			return &cached, nil
		}
		r.cache.Invalidate(ctx, key)
	}

	if query.LeagueID > 0 && query.Season <= 0 {
		season, err := r.seasonFor(ctx, query.LeagueID, query.Date)
		if err != nil {
			return nil, err
		}
		query.Season = season
	}

	lookup := FixtureLookup{
		Date:   query.Date,
		TeamID: query.HomeTeamID,
	}
	if query.LeagueID > 0 && query.Season > 0 {
		lookup.LeagueID = query.LeagueID
		lookup.Season = query.Season
	}

	fixtures, err := r.fixtures.FixturesByDate(ctx, lookup)
	if err != nil {
		return nil, fmt.Errorf("list fixtures date=%s team=%d: %w", query.Date.UTC().Format(time.DateOnly), query.HomeTeamID, err)
	}

	matches := make([]ExternalFixture, 0, 1)
	for _, item := range fixtures {
		if item.HomeTeamID == query.HomeTeamID && item.AwayTeamID == query.AwayTeamID {
			matches = append(matches, item)
		}
	}

	switch len(matches) {
	case 0:
		r.logger.InfoContext(ctx, "fixture not found",
			"home_team_id", query.HomeTeamID,
			"away_team_id", query.AwayTeamID,
			"date", query.Date.UTC().Format(time.DateOnly),
			"candidates", len(fixtures),
		)
		return nil, nil
	case 1:
	default:
		r.logger.WarnContext(ctx, "fixture ambiguous",
			"home_team_id", query.HomeTeamID,
			"away_team_id", query.AwayTeamID,
			"date", query.Date.UTC().Format(time.DateOnly),
			"matches", len(matches),
		)
		return nil, nil
	}

	found := matches[0]
	resolved := ResolvedFixture{
		FixtureID:  found.ID,
		LeagueID:   found.LeagueID,
		Season:     found.Season,
		HomeTeamID: found.HomeTeamID,
		AwayTeamID: found.AwayTeamID,
		KickoffAt:  found.KickoffAt,
		Status:     found.StatusShort,
	}
	if payload, err := sonic.Marshal(resolved); err == nil {
		r.cache.Save(ctx, key, payload, resolverCacheTTL)
	}
	return &resolved, nil
}

func (r *FixtureResolver) seasonFor(ctx context.Context, leagueID int64, date time.Time) (int, error) {
	if r.catalog == nil {
		return 0, nil
	}
	league, ok, err := r.catalog.LeagueByID(ctx, leagueID)
	if err != nil {
		return 0, fmt.Errorf("get league id=%d: %w", leagueID, err)
	}
	if !ok {
		return 0, nil
	}
	season, _ := league.SeasonFor(date)
	return season, nil
}

func resolverKey(query FixtureQuery) cache.Key {
	return cache.NewKey(resolverCacheEndpoint, map[string]string{
		"home": strconv.FormatInt(query.HomeTeamID, 10),
		"away": strconv.FormatInt(query.AwayTeamID, 10),
		"date": query.Date.UTC().Format(time.DateOnly),
	})
}
