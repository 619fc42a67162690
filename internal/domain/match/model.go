package match

import (
	"strings"
	"time"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusFinished  = "FINISHED"
	StatusPostponed = "POSTPONED"
	StatusCancelled = "CANCELLED"
	StatusAbandoned = "ABANDONED"
	StatusAwarded   = "AWARDED"
	StatusWalkover  = "WALKOVER"
)

type Outcome string

const (
	OutcomeHome Outcome = "1"
	OutcomeDraw Outcome = "X"
	OutcomeAway Outcome = "2"
)

// OutcomeFromScore derives the 1X2 outcome from a regulation-time score.
func OutcomeFromScore(home, away int) Outcome {
	switch {
	case home > away:
		return OutcomeHome
	case home < away:
		return OutcomeAway
	default:
		return OutcomeDraw
	}
}

// Match is the slice of the primary match record this layer reads and writes.
// Ingestion of matches and competitions happens elsewhere.
type Match struct {
	ID            int64
	CompetitionID int64
	HomeTeamID    string
	AwayTeamID    string
	HomeTeamName  string
	AwayTeamName  string
	LeagueID      string
	LeagueName    string
	Country       string
	KickoffAt     time.Time
	Status        string
	HomeScore     *int
	AwayScore     *int
	Outcome       Outcome
	ResultSource  string
	Refs          ProviderRefs
}

// ProviderRefs are provider identifiers resolved for a match. Zero means not
// resolved yet.
type ProviderRefs struct {
	FixtureID         int64
	LeagueID          int64
	Season            int
	HomeTeamID        int64
	AwayTeamID        int64
	MappingConfidence string
}

func (r ProviderRefs) HasTeams() bool {
	return r.HomeTeamID > 0 && r.AwayTeamID > 0
}

func (r ProviderRefs) HasLeague() bool {
	return r.LeagueID > 0 && r.Season > 0
}

func (r ProviderRefs) HasFixture() bool {
	return r.FixtureID > 0
}

// Result is a recorded final score.
type Result struct {
	HomeScore int
	AwayScore int
	Outcome   Outcome
	Source    string
}

func (m Match) HasResult() bool {
	return m.HomeScore != nil && m.AwayScore != nil && m.Outcome != ""
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusScheduled
	}
	return status
}

func IsTerminalStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusFinished, StatusPostponed, StatusCancelled, StatusAbandoned, StatusAwarded, StatusWalkover:
		return true
	default:
		return false
	}
}
