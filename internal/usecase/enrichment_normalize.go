package usecase

import (
	"sort"
	"strings"
	"time"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/match"
)

// Normalized payloads stored in enrichment records. Consumers read these and
// never the provider's own shapes.

type HeadToHeadPayload struct {
	Matches []HeadToHeadMatch `json:"matches"`
	Summary HeadToHeadSummary `json:"summary"`
}

type HeadToHeadMatch struct {
	FixtureID  int64         `json:"fixture_id"`
	Date       time.Time     `json:"date"`
	HomeTeamID int64         `json:"home_team_id"`
	AwayTeamID int64         `json:"away_team_id"`
	HomeGoals  int           `json:"home_goals"`
	AwayGoals  int           `json:"away_goals"`
	Outcome    match.Outcome `json:"outcome"`
}

// HeadToHeadSummary counts results from the point of view of the current
// fixture's home team, regardless of venue in past meetings.
type HeadToHeadSummary struct {
	Played    int     `json:"played"`
	HomeWins  int     `json:"home_wins"`
	Draws     int     `json:"draws"`
	AwayWins  int     `json:"away_wins"`
	AvgGoals  float64 `json:"avg_goals"`
	BothScore int     `json:"both_scored"`
}

type TeamSeasonStatsPayload struct {
	LeagueID int64            `json:"league_id"`
	Season   int              `json:"season"`
	Home     *TeamSeasonStats `json:"home,omitempty"`
	Away     *TeamSeasonStats `json:"away,omitempty"`
}

type TeamSeasonStats struct {
	TeamID        int64      `json:"team_id"`
	TeamName      string     `json:"team_name"`
	Form          string     `json:"form"`
	Played        SplitCount `json:"played"`
	Wins          SplitCount `json:"wins"`
	Draws         SplitCount `json:"draws"`
	Losses        SplitCount `json:"losses"`
	GoalsFor      SplitCount `json:"goals_for"`
	GoalsAgainst  SplitCount `json:"goals_against"`
	CleanSheets   SplitCount `json:"clean_sheets"`
	FailedToScore SplitCount `json:"failed_to_score"`
}

type StandingsPayload struct {
	LeagueID int64         `json:"league_id"`
	Season   int           `json:"season"`
	Rows     []StandingRow `json:"rows"`
	Home     *StandingRow  `json:"home,omitempty"`
	Away     *StandingRow  `json:"away,omitempty"`
}

type StandingRow struct {
	Rank         int    `json:"rank"`
	TeamID       int64  `json:"team_id"`
	TeamName     string `json:"team_name"`
	Group        string `json:"group,omitempty"`
	Played       int    `json:"played"`
	Win          int    `json:"win"`
	Draw         int    `json:"draw"`
	Lose         int    `json:"lose"`
	GoalsFor     int    `json:"goals_for"`
	GoalsAgainst int    `json:"goals_against"`
	GoalsDiff    int    `json:"goals_diff"`
	Points       int    `json:"points"`
	Form         string `json:"form,omitempty"`
	Description  string `json:"description,omitempty"`
}

type FixtureStatisticsPayload struct {
	Home map[string]float64 `json:"home"`
	Away map[string]float64 `json:"away"`
}

type InjuriesPayload struct {
	Home []InjuredPlayer `json:"home"`
	Away []InjuredPlayer `json:"away"`
}

type InjuredPlayer struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type PredictionPayload struct {
	WinnerTeamID  int64         `json:"winner_team_id,omitempty"`
	WinnerName    string        `json:"winner_name,omitempty"`
	WinnerComment string        `json:"winner_comment,omitempty"`
	WinOrDraw     bool          `json:"win_or_draw"`
	UnderOver     string        `json:"under_over,omitempty"`
	GoalsHome     string        `json:"goals_home,omitempty"`
	GoalsAway     string        `json:"goals_away,omitempty"`
	Advice        string        `json:"advice,omitempty"`
	Percent       OutcomeValues `json:"percent"`
}

type LineupsPayload struct {
	Home *TeamLineup `json:"home,omitempty"`
	Away *TeamLineup `json:"away,omitempty"`
}

type TeamLineup struct {
	TeamID      int64                  `json:"team_id"`
	TeamName    string                 `json:"team_name"`
	Formation   string                 `json:"formation"`
	Coach       string                 `json:"coach,omitempty"`
	StartXI     []ExternalLineupPlayer `json:"start_xi"`
	Substitutes []ExternalLineupPlayer `json:"substitutes"`
}

type MarketOddsPayload struct {
	MarketConsensus
	Quotes []BookmakerQuote `json:"quotes"`
}

type BookmakerQuote struct {
	Name string `json:"name"`
	Home string `json:"home"`
	Draw string `json:"draw"`
	Away string `json:"away"`
}

func normalizeHeadToHead(fixtures []ExternalFixture, homeTeamID int64) HeadToHeadPayload {
	out := HeadToHeadPayload{Matches: make([]HeadToHeadMatch, 0, len(fixtures))}
	goals := 0
	for _, item := range fixtures {
		score := regulationScore(item)
		if !score.Complete() {
			continue
		}
		home, away := *score.Home, *score.Away
		outcome := match.OutcomeFromScore(home, away)
		out.Matches = append(out.Matches, HeadToHeadMatch{
			FixtureID:  item.ID,
			Date:       item.KickoffAt,
			HomeTeamID: item.HomeTeamID,
			AwayTeamID: item.AwayTeamID,
			HomeGoals:  home,
			AwayGoals:  away,
			Outcome:    outcome,
		})

		out.Summary.Played++
		goals += home + away
		if home > 0 && away > 0 {
			out.Summary.BothScore++
		}
		switch {
		case outcome == match.OutcomeDraw:
			out.Summary.Draws++
		case (outcome == match.OutcomeHome) == (item.HomeTeamID == homeTeamID):
			out.Summary.HomeWins++
		default:
			out.Summary.AwayWins++
		}
	}
	if out.Summary.Played > 0 {
		out.Summary.AvgGoals = float64(goals) / float64(out.Summary.Played)
	}
	sort.SliceStable(out.Matches, func(i, j int) bool {
		return out.Matches[i].Date.After(out.Matches[j].Date)
	})
	return out
}

// regulationScore prefers the 90-minute score and falls back to the final
// goals for fixtures that never had one reported.
func regulationScore(item ExternalFixture) ScorePair {
	if item.FullTime.Complete() {
		return item.FullTime
	}
	return item.Goals
}

func normalizeTeamSeasonStats(stats ExternalTeamStatistics) *TeamSeasonStats {
	return &TeamSeasonStats{
		TeamID:        stats.TeamID,
		TeamName:      stats.TeamName,
		Form:          stats.Form,
		Played:        stats.Played,
		Wins:          stats.Wins,
		Draws:         stats.Draws,
		Losses:        stats.Losses,
		GoalsFor:      stats.GoalsFor,
		GoalsAgainst:  stats.GoalsAgainst,
		CleanSheets:   stats.CleanSheets,
		FailedToScore: stats.FailedToScore,
	}
}

func normalizeStandings(rows []ExternalStanding, refs match.ProviderRefs) StandingsPayload {
	out := StandingsPayload{
		LeagueID: refs.LeagueID,
		Season:   refs.Season,
		Rows:     make([]StandingRow, 0, len(rows)),
	}
	for _, item := range rows {
		out.Rows = append(out.Rows, StandingRow{
			Rank:         item.Rank,
			TeamID:       item.TeamID,
			TeamName:     item.TeamName,
			Group:        item.Group,
			Played:       item.Played,
			Win:          item.Win,
			Draw:         item.Draw,
			Lose:         item.Lose,
			GoalsFor:     item.GoalsFor,
			GoalsAgainst: item.GoalsAgainst,
			GoalsDiff:    item.GoalsDiff,
			Points:       item.Points,
			Form:         item.Form,
			Description:  item.Description,
		})
	}
	for i := range out.Rows {
		row := out.Rows[i]
		switch row.TeamID {
		case refs.HomeTeamID:
			out.Home = &row
		case refs.AwayTeamID:
			out.Away = &row
		}
	}
	return out
}

func normalizeFixtureStatistics(stats []ExternalFixtureStatistics, refs match.ProviderRefs) FixtureStatisticsPayload {
	out := FixtureStatisticsPayload{}
	for _, item := range stats {
		switch item.TeamID {
		case refs.HomeTeamID:
			out.Home = item.Values
		case refs.AwayTeamID:
			out.Away = item.Values
		}
	}
	return out
}

func normalizeInjuries(injuries []ExternalInjury, refs match.ProviderRefs) InjuriesPayload {
	out := InjuriesPayload{Home: []InjuredPlayer{}, Away: []InjuredPlayer{}}
	for _, item := range injuries {
		player := InjuredPlayer{Name: item.PlayerName, Type: item.Type, Reason: item.Reason}
		switch item.TeamID {
		case refs.HomeTeamID:
			out.Home = append(out.Home, player)
		case refs.AwayTeamID:
			out.Away = append(out.Away, player)
		}
	}
	return out
}

func normalizePrediction(item ExternalPrediction) PredictionPayload {
	return PredictionPayload{
		WinnerTeamID:  item.WinnerTeamID,
		WinnerName:    item.WinnerName,
		WinnerComment: item.WinnerComment,
		WinOrDraw:     item.WinOrDraw,
		UnderOver:     item.UnderOver,
		GoalsHome:     item.GoalsHome,
		GoalsAway:     item.GoalsAway,
		Advice:        item.Advice,
		Percent: OutcomeValues{
			Home: item.PercentHome,
			Draw: item.PercentDraw,
			Away: item.PercentAway,
		},
	}
}

func normalizeLineups(lineups []ExternalLineup, refs match.ProviderRefs) LineupsPayload {
	out := LineupsPayload{}
	for _, item := range lineups {
		lineup := &TeamLineup{
			TeamID:      item.TeamID,
			TeamName:    item.TeamName,
			Formation:   item.Formation,
			Coach:       item.Coach,
			StartXI:     item.StartXI,
			Substitutes: item.Substitutes,
		}
		switch item.TeamID {
		case refs.HomeTeamID:
			out.Home = lineup
		case refs.AwayTeamID:
			out.Away = lineup
		}
	}
	return out
}

func normalizeMarketOdds(odds []ExternalBookmakerOdds, curated []string) (MarketOddsPayload, bool) {
	consensus, ok := DevigOdds(odds, curated)
	if !ok {
		return MarketOddsPayload{}, false
	}
	used := make(map[string]struct{}, len(consensus.Bookmakers))
	for _, name := range consensus.Bookmakers {
		used[name] = struct{}{}
	}

	out := MarketOddsPayload{MarketConsensus: consensus}
	for _, item := range odds {
		if _, ok := used[strings.TrimSpace(item.Name)]; !ok {
			continue
		}
		out.Quotes = append(out.Quotes, BookmakerQuote{
			Name: item.Name,
			Home: item.Home.String(),
			Draw: item.Draw.String(),
			Away: item.Away.String(),
		})
	}
	sort.Slice(out.Quotes, func(i, j int) bool { return out.Quotes[i].Name < out.Quotes[j].Name })
	return out, true
}
