package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/metrics"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/resilience"
)

// ProviderCatalog lists leagues and teams for entity resolution.
type ProviderCatalog interface {
	LeaguesByCountry(ctx context.Context, country string) ([]ExternalLeague, error)
	SearchLeagues(ctx context.Context, name string) ([]ExternalLeague, error)
	LeagueByID(ctx context.Context, leagueID int64) (ExternalLeague, bool, error)
	TeamsByLeague(ctx context.Context, leagueID int64, season int) ([]ExternalTeam, error)
	SearchTeams(ctx context.Context, term string) ([]ExternalTeam, error)
}

// FixtureProvider finds fixtures and reads their status and score.
type FixtureProvider interface {
	FixturesByDate(ctx context.Context, lookup FixtureLookup) ([]ExternalFixture, error)
	// FixtureByID bypasses the cache when fresh is set.
	FixtureByID(ctx context.Context, fixtureID int64, fresh bool) (ExternalFixture, bool, error)
}

// EnrichmentProvider fetches the per-match data types. Empty results with a
// nil error mean the provider confirmed there is no data.
type EnrichmentProvider interface {
	HeadToHead(ctx context.Context, homeTeamID, awayTeamID int64, last int) ([]ExternalFixture, error)
	TeamStatistics(ctx context.Context, leagueID int64, season int, teamID int64) (ExternalTeamStatistics, bool, error)
	Standings(ctx context.Context, leagueID int64, season int) ([]ExternalStanding, error)
	FixtureStatistics(ctx context.Context, fixtureID int64) ([]ExternalFixtureStatistics, error)
	Injuries(ctx context.Context, fixtureID int64) ([]ExternalInjury, error)
	Predictions(ctx context.Context, fixtureID int64) (ExternalPrediction, bool, error)
	Lineups(ctx context.Context, fixtureID int64) ([]ExternalLineup, error)
	Odds(ctx context.Context, fixtureID int64) ([]ExternalBookmakerOdds, error)
}

// ProviderMonitor reports client-side resilience state.
type ProviderMonitor interface {
	Health() ProviderHealth
	QuotaSnapshot() resilience.QuotaSnapshot
}

type ProviderHealth struct {
	AuthMode     string                      `json:"auth_mode"`
	Breaker      *resilience.BreakerSnapshot `json:"circuit_breaker,omitempty"`
	Quota        resilience.QuotaSnapshot    `json:"quota"`
	RateLimit    RateLimitHealth             `json:"rate_limit"`
	CacheEntries int                         `json:"cache_entries"`
	Calls        metrics.Snapshot            `json:"calls"`
}

type RateLimitHealth struct {
	InWindow          int `json:"in_window"`
	RequestsPerMinute int `json:"requests_per_minute"`
}

type FixtureLookup struct {
	Date     time.Time
	TeamID   int64
	LeagueID int64
	Season   int
}

type ExternalLeague struct {
	ID          int64
	Name        string
	Type        string
	Country     string
	CountryCode string
	Seasons     []ExternalSeason
}

type ExternalSeason struct {
	Year    int
	Start   time.Time
	End     time.Time
	Current bool
}

// SeasonFor picks the season whose date range covers date, falling back to
// the current season.
func (l ExternalLeague) SeasonFor(date time.Time) (int, bool) {
	day := date.UTC().Truncate(24 * time.Hour)
	for _, season := range l.Seasons {
		if season.Start.IsZero() || season.End.IsZero() {
			continue
		}
		if !day.Before(season.Start) && !day.After(season.End) {
			return season.Year, true
		}
	}
	for _, season := range l.Seasons {
		if season.Current {
			return season.Year, true
		}
	}
	return 0, false
}

type ExternalTeam struct {
	ID       int64
	Name     string
	Code     string
	Country  string
	National bool
}

type ScorePair struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

func (s ScorePair) Complete() bool {
	return s.Home != nil && s.Away != nil
}

type ExternalFixture struct {
	ID           int64
	KickoffAt    time.Time
	StatusShort  string
	StatusLong   string
	Elapsed      int
	LeagueID     int64
	LeagueName   string
	Season       int
	HomeTeamID   int64
	AwayTeamID   int64
	HomeTeamName string
	AwayTeamName string
	Goals        ScorePair
	HalfTime     ScorePair
	FullTime     ScorePair
	ExtraTime    ScorePair
	Penalty      ScorePair
}

type SplitCount struct {
	Home  int `json:"home"`
	Away  int `json:"away"`
	Total int `json:"total"`
}

type ExternalTeamStatistics struct {
	TeamID        int64
	TeamName      string
	Form          string
	Played        SplitCount
	Wins          SplitCount
	Draws         SplitCount
	Losses        SplitCount
	GoalsFor      SplitCount
	GoalsAgainst  SplitCount
	CleanSheets   SplitCount
	FailedToScore SplitCount
}

type ExternalStanding struct {
	Rank         int
	TeamID       int64
	TeamName     string
	Points       int
	GoalsDiff    int
	Group        string
	Form         string
	Description  string
	Played       int
	Win          int
	Draw         int
	Lose         int
	GoalsFor     int
	GoalsAgainst int
}

type ExternalFixtureStatistics struct {
	TeamID   int64
	TeamName string
	Values   map[string]float64
}

type ExternalInjury struct {
	TeamID     int64
	TeamName   string
	PlayerName string
	Type       string
	Reason     string
}

type ExternalPrediction struct {
	WinnerTeamID  int64
	WinnerName    string
	WinnerComment string
	WinOrDraw     bool
	UnderOver     string
	GoalsHome     string
	GoalsAway     string
	Advice        string
	PercentHome   float64
	PercentDraw   float64
	PercentAway   float64
}

type ExternalLineup struct {
	TeamID      int64
	TeamName    string
	Formation   string
	Coach       string
	StartXI     []ExternalLineupPlayer
	Substitutes []ExternalLineupPlayer
}

type ExternalLineupPlayer struct {
	Name     string `json:"name"`
	Number   int    `json:"number"`
	Position string `json:"position"`
	Grid     string `json:"grid,omitempty"`
}

// ExternalBookmakerOdds holds one bookmaker's 1X2 decimal prices.
type ExternalBookmakerOdds struct {
	BookmakerID int64
	Name        string
	Home        decimal.Decimal
	Draw        decimal.Decimal
	Away        decimal.Decimal
}
