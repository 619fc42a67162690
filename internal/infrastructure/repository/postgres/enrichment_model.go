package postgres

import (
	"database/sql"
	"time"
)

type mappingTableModel struct {
	ID           int64           `db:"id"`
	EntityType   string          `db:"entity_type"`
	InternalID   string          `db:"internal_id"`
	ProviderID   int64           `db:"provider_id"`
	ProviderName string          `db:"provider_name"`
	Confidence   string          `db:"confidence"`
	Method       string          `db:"method"`
	Similarity   sql.NullFloat64 `db:"similarity"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

type mappingInsertModel struct {
	EntityType   string   `db:"entity_type"`
	InternalID   string   `db:"internal_id"`
	ProviderID   int64    `db:"provider_id"`
	ProviderName string   `db:"provider_name"`
	Confidence   string   `db:"confidence"`
	Method       string   `db:"method"`
	Similarity   *float64 `db:"similarity"`
}

type unresolvedTableModel struct {
	ID           string       `db:"id"`
	EntityType   string       `db:"entity_type"`
	InternalID   string       `db:"internal_id"`
	Name         string       `db:"name"`
	Context      string       `db:"context"`
	Candidates   string       `db:"candidates"`
	AttemptCount int          `db:"attempt_count"`
	Resolved     bool         `db:"resolved"`
	ResolvedAt   sql.NullTime `db:"resolved_at"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

type unresolvedInsertModel struct {
	ID         string `db:"id"`
	EntityType string `db:"entity_type"`
	InternalID string `db:"internal_id"`
	Name       string `db:"name"`
	Context    string `db:"context"`
	Candidates string `db:"candidates"`
}

type usageInsertModel struct {
	Endpoint   string    `db:"endpoint"`
	StatusCode int       `db:"status_code"`
	LatencyMs  int64     `db:"latency_ms"`
	Cached     bool      `db:"cached"`
	Kind       string    `db:"kind"`
	Error      *string   `db:"error"`
	CreatedAt  time.Time `db:"created_at"`
}

type usageSummaryRow struct {
	Network      int     `db:"network"`
	CacheHits    int     `db:"cache_hits"`
	Rejected     int     `db:"rejected"`
	Errors       int     `db:"errors"`
	AvgLatencyMs float64 `db:"avg_latency_ms"`
}

type enrichmentTableModel struct {
	MatchID   int64     `db:"match_id"`
	DataType  string    `db:"data_type"`
	Payload   []byte    `db:"payload"`
	Source    string    `db:"source"`
	IsStale   bool      `db:"is_stale"`
	FetchedAt time.Time `db:"fetched_at"`
}

type providerCacheTableModel struct {
	Endpoint    string    `db:"endpoint"`
	Fingerprint string    `db:"fingerprint"`
	Query       string    `db:"query"`
	Payload     []byte    `db:"payload"`
	ExpiresAt   time.Time `db:"expires_at"`
	CreatedAt   time.Time `db:"created_at"`
}

type matchTableModel struct {
	ID                 int64          `db:"id"`
	CompetitionID      int64          `db:"competition_id"`
	HomeTeamID         string         `db:"home_team_id"`
	AwayTeamID         string         `db:"away_team_id"`
	HomeTeamName       string         `db:"home_team_name"`
	AwayTeamName       string         `db:"away_team_name"`
	LeagueID           string         `db:"league_id"`
	LeagueName         string         `db:"league_name"`
	Country            string         `db:"country"`
	KickoffAt          time.Time      `db:"kickoff_at"`
	Status             string         `db:"status"`
	HomeScore          sql.NullInt64  `db:"home_score"`
	AwayScore          sql.NullInt64  `db:"away_score"`
	Outcome            sql.NullString `db:"outcome"`
	ResultSource       sql.NullString `db:"result_source"`
	ProviderFixtureID  sql.NullInt64  `db:"provider_fixture_id"`
	ProviderLeagueID   sql.NullInt64  `db:"provider_league_id"`
	ProviderSeason     sql.NullInt64  `db:"provider_season"`
	ProviderHomeTeamID sql.NullInt64  `db:"provider_home_team_id"`
	ProviderAwayTeamID sql.NullInt64  `db:"provider_away_team_id"`
	MappingConfidence  sql.NullString `db:"mapping_confidence"`
}

var matchColumns = []string{
	"id",
	"competition_id",
	"home_team_id",
	"away_team_id",
	"home_team_name",
	"away_team_name",
	"league_id",
	"league_name",
	"country",
	"kickoff_at",
	"status",
	"home_score",
	"away_score",
	"outcome",
	"result_source",
	"provider_fixture_id",
	"provider_league_id",
	"provider_season",
	"provider_home_team_id",
	"provider_away_team_id",
	"mapping_confidence",
}

type jobDispatchInsertModel struct {
	DispatchID       string     `db:"dispatch_id"`
	JobName          string     `db:"job_name"`
	JobPath          string     `db:"job_path"`
	Scope            string     `db:"scope"`
	Payload          string     `db:"payload"`
	Status           string     `db:"status"`
	SentAt           *time.Time `db:"sent_at"`
	CompletedAt      *time.Time `db:"completed_at"`
	FailedAt         *time.Time `db:"failed_at"`
	LastError        *string    `db:"last_error"`
	SentTraceID      *string    `db:"sent_trace_id"`
	SentSpanID       *string    `db:"sent_span_id"`
	CompletedTraceID *string    `db:"completed_trace_id"`
	CompletedSpanID  *string    `db:"completed_span_id"`
	FailedTraceID    *string    `db:"failed_trace_id"`
	FailedSpanID     *string    `db:"failed_span_id"`
}
