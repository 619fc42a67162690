package memory

import (
	"time"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/match"
)

const (
	SeedCompetitionRound = int64(1001)

	leagueAllsvenskan   = "swe-allsvenskan"
	leaguePremierLeague = "eng-premier-league"
)

// SeedMatches returns one coupon round for local runs: two matches kicking
// off in the coming days and one played well past the result grace period.
func SeedMatches(now time.Time) []match.Match {
	day := now.UTC().Truncate(24 * time.Hour)
	return []match.Match{
		{
			ID:            1,
			CompetitionID: SeedCompetitionRound,
			HomeTeamID:    "swe-hammarby",
			AwayTeamID:    "swe-djurgarden",
			HomeTeamName:  "Hammarby IF",
			AwayTeamName:  "Djurgårdens IF",
			LeagueID:      leagueAllsvenskan,
			LeagueName:    "Allsvenskan",
			Country:       "Sweden",
			KickoffAt:     day.Add(2*24*time.Hour + 17*time.Hour),
			Status:        match.StatusScheduled,
		},
		{
			ID:            2,
			CompetitionID: SeedCompetitionRound,
			HomeTeamID:    "eng-man-utd",
			AwayTeamID:    "eng-spurs",
			HomeTeamName:  "Man Utd",
			AwayTeamName:  "Spurs",
			LeagueID:      leaguePremierLeague,
			LeagueName:    "Premier League",
			Country:       "England",
			KickoffAt:     day.Add(3*24*time.Hour + 15*time.Hour),
			Status:        match.StatusScheduled,
		},
		{
			ID:            3,
			CompetitionID: SeedCompetitionRound - 1,
			HomeTeamID:    "eng-newcastle",
			AwayTeamID:    "eng-wolves",
			HomeTeamName:  "Newcastle",
			AwayTeamName:  "Wolves",
			LeagueID:      leaguePremierLeague,
			LeagueName:    "Premier League",
			Country:       "England",
			KickoffAt:     day.Add(-5*24*time.Hour + 15*time.Hour),
			Status:        match.StatusScheduled,
		},
	}
}
