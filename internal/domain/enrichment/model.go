package enrichment

import (
	"fmt"
	"strings"
	"time"
)

type DataType string

const (
	TypeHeadToHead      DataType = "head_to_head"
	TypeTeamSeasonStats DataType = "team_season_stats"
	TypeStandings       DataType = "standings"
	TypeStatistics      DataType = "statistics"
	TypeInjuries        DataType = "injuries"
	TypePredictions     DataType = "predictions"
	TypeLineups         DataType = "lineups"
	TypeMarketOdds      DataType = "market_odds"
)

// SourceAPIFootball tags records produced from the football data provider.
const SourceAPIFootball = "api-football"

// PriorityOrder is the sequential fetch order: cheap, long-lived types first.
var PriorityOrder = []DataType{
	TypeHeadToHead,
	TypeTeamSeasonStats,
	TypeStandings,
	TypeStatistics,
	TypeInjuries,
	TypePredictions,
	TypeLineups,
	TypeMarketOdds,
}

var ttls = map[DataType]time.Duration{
	TypeHeadToHead:      30 * 24 * time.Hour,
	TypeTeamSeasonStats: 24 * time.Hour,
	TypeStandings:       24 * time.Hour,
	TypeStatistics:      24 * time.Hour,
	TypeInjuries:        6 * time.Hour,
	TypePredictions:     12 * time.Hour,
	TypeLineups:         30 * time.Minute,
	TypeMarketOdds:      30 * time.Minute,
}

// Prerequisite names the provider reference a type cannot be fetched without.
type Prerequisite string

const (
	PrereqTeams   Prerequisite = "teams"
	PrereqLeague  Prerequisite = "league"
	PrereqFixture Prerequisite = "fixture"
)

var prerequisites = map[DataType]Prerequisite{
	TypeHeadToHead:      PrereqTeams,
	TypeTeamSeasonStats: PrereqLeague,
	TypeStandings:       PrereqLeague,
	TypeStatistics:      PrereqFixture,
	TypeInjuries:        PrereqFixture,
	TypePredictions:     PrereqFixture,
	TypeLineups:         PrereqFixture,
	TypeMarketOdds:      PrereqFixture,
}

func (t DataType) Valid() bool {
	_, ok := ttls[t]
	return ok
}

func (t DataType) TTL() time.Duration {
	return ttls[t]
}

func (t DataType) Prerequisite() Prerequisite {
	return prerequisites[t]
}

// ParseDataTypes validates names and returns them in priority order without
// duplicates. An empty input means every type.
func ParseDataTypes(raw []string) ([]DataType, error) {
	if len(raw) == 0 {
		return append([]DataType(nil), PriorityOrder...), nil
	}

	requested := make(map[DataType]struct{}, len(raw))
	for _, item := range raw {
		value := DataType(strings.ToLower(strings.TrimSpace(item)))
		if value == "" {
			continue
		}
		if !value.Valid() {
			return nil, fmt.Errorf("unknown data type %q", item)
		}
		requested[value] = struct{}{}
	}

	return SortByPriority(requested), nil
}

func SortByPriority(set map[DataType]struct{}) []DataType {
	out := make([]DataType, 0, len(set))
	for _, dataType := range PriorityOrder {
		if _, ok := set[dataType]; ok {
			out = append(out, dataType)
		}
	}
	return out
}

// Record is the normalized, provider-neutral data for one (match, type).
type Record struct {
	MatchID   int64
	DataType  DataType
	Payload   []byte
	Source    string
	IsStale   bool
	FetchedAt time.Time
}

// Age returns how long ago the record was fetched.
func (r Record) Age(now time.Time) time.Duration {
	return now.Sub(r.FetchedAt)
}

// StaleAt reports whether the record has reached its type's TTL.
func (r Record) StaleAt(now time.Time) bool {
	return r.Age(now) >= r.DataType.TTL()
}

// WithStaleness returns a copy whose IsStale flag reflects now.
func (r Record) WithStaleness(now time.Time) Record {
	r.IsStale = r.StaleAt(now)
	return r
}
