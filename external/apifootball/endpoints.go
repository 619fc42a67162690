package apifootball

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/usecase"
)

const (
	EndpointLeagues           = "/leagues"
	EndpointTeams             = "/teams"
	EndpointFixtures          = "/fixtures"
	EndpointHeadToHead        = "/fixtures/headtohead"
	EndpointTeamStatistics    = "/teams/statistics"
	EndpointStandings         = "/standings"
	EndpointFixtureStatistics = "/fixtures/statistics"
	EndpointInjuries          = "/injuries"
	EndpointPredictions       = "/predictions"
	EndpointLineups           = "/fixtures/lineups"
	EndpointOdds              = "/odds"

	matchWinnerBetID = 1
	minSearchRunes   = 3
)

var defaultTTLs = map[string]time.Duration{
	EndpointLeagues:           24 * time.Hour,
	EndpointTeams:             24 * time.Hour,
	EndpointFixtures:          time.Hour,
	EndpointHeadToHead:        24 * time.Hour,
	EndpointTeamStatistics:    12 * time.Hour,
	EndpointStandings:         6 * time.Hour,
	EndpointFixtureStatistics: time.Hour,
	EndpointInjuries:          3 * time.Hour,
	EndpointPredictions:       6 * time.Hour,
	EndpointLineups:           15 * time.Minute,
	EndpointOdds:              15 * time.Minute,
}

// DefaultTTL is the cache lifetime for endpoint when the caller sets none.
func DefaultTTL(endpoint string) time.Duration {
	if ttl, ok := defaultTTLs[endpoint]; ok {
		return ttl
	}
	return time.Hour
}

var (
	_ usecase.ProviderCatalog    = (*Client)(nil)
	_ usecase.FixtureProvider    = (*Client)(nil)
	_ usecase.EnrichmentProvider = (*Client)(nil)
	_ usecase.ProviderMonitor    = (*Client)(nil)
)

func (c *Client) LeaguesByCountry(ctx context.Context, country string) ([]usecase.ExternalLeague, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return nil, fmt.Errorf("%w: country is required", usecase.ErrInvalidInput)
	}
	return c.fetchLeagues(ctx, map[string]string{"country": country})
}

func (c *Client) SearchLeagues(ctx context.Context, name string) ([]usecase.ExternalLeague, error) {
	term := searchTerm(name)
	if term == "" {
		return nil, nil
	}
	return c.fetchLeagues(ctx, map[string]string{"search": term})
}

func (c *Client) LeagueByID(ctx context.Context, leagueID int64) (usecase.ExternalLeague, bool, error) {
	if leagueID <= 0 {
		return usecase.ExternalLeague{}, false, fmt.Errorf("%w: league id must be greater than zero", usecase.ErrInvalidInput)
	}
	items, err := c.fetchLeagues(ctx, map[string]string{"id": formatID(leagueID)})
	if err != nil || len(items) == 0 {
		return usecase.ExternalLeague{}, false, err
	}
	return items[0], true, nil
}

// fetchLeagues reads the league catalog. It is critical-path: resolution and
// season lookup depend on it, so failures elsewhere must not block it.
func (c *Client) fetchLeagues(ctx context.Context, params map[string]string) ([]usecase.ExternalLeague, error) {
	resp, err := c.Get(ctx, EndpointLeagues, params, RequestOptions{Critical: true})
	if err != nil {
		return nil, fmt.Errorf("fetch leagues: %w", err)
	}
	if resp.Empty {
		return nil, nil
	}
	items, err := decodeResponse[[]leagueItem](resp)
	if err != nil {
		return nil, err
	}

	out := make([]usecase.ExternalLeague, 0, len(items))
	for _, item := range items {
		if item.League.ID <= 0 {
			continue
		}
		league := usecase.ExternalLeague{
			ID:          item.League.ID,
			Name:        strings.TrimSpace(item.League.Name),
			Type:        strings.TrimSpace(item.League.Type),
			Country:     strings.TrimSpace(item.Country.Name),
			CountryCode: strings.TrimSpace(item.Country.Code),
			Seasons:     make([]usecase.ExternalSeason, 0, len(item.Seasons)),
		}
		for _, season := range item.Seasons {
			row := usecase.ExternalSeason{Year: season.Year, Current: season.Current}
			if parsed := parseProviderDateTime(season.Start); parsed != nil {
				row.Start = *parsed
			}
			if parsed := parseProviderDateTime(season.End); parsed != nil {
				row.End = *parsed
			}
			league.Seasons = append(league.Seasons, row)
		}
		out = append(out, league)
	}
	return out, nil
}

func (c *Client) TeamsByLeague(ctx context.Context, leagueID int64, season int) ([]usecase.ExternalTeam, error) {
	if leagueID <= 0 || season <= 0 {
		return nil, fmt.Errorf("%w: league and season are required", usecase.ErrInvalidInput)
	}
	return c.fetchTeams(ctx, map[string]string{
		"league": formatID(leagueID),
		"season": strconv.Itoa(season),
	})
}

func (c *Client) SearchTeams(ctx context.Context, term string) ([]usecase.ExternalTeam, error) {
	term = searchTerm(term)
	if term == "" {
		return nil, nil
	}
	return c.fetchTeams(ctx, map[string]string{"search": term})
}

func (c *Client) fetchTeams(ctx context.Context, params map[string]string) ([]usecase.ExternalTeam, error) {
	resp, err := c.Get(ctx, EndpointTeams, params, RequestOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch teams: %w", err)
	}
	if resp.Empty {
		return nil, nil
	}
	items, err := decodeResponse[[]teamItem](resp)
	if err != nil {
		return nil, err
	}

	out := make([]usecase.ExternalTeam, 0, len(items))
	for _, item := range items {
		if item.Team.ID <= 0 || strings.TrimSpace(item.Team.Name) == "" {
			continue
		}
		out = append(out, usecase.ExternalTeam{
			ID:       item.Team.ID,
			Name:     strings.TrimSpace(item.Team.Name),
			Code:     strings.TrimSpace(item.Team.Code),
			Country:  strings.TrimSpace(item.Team.Country),
			National: item.Team.National,
		})
	}
	return out, nil
}

func (c *Client) FixturesByDate(ctx context.Context, lookup usecase.FixtureLookup) ([]usecase.ExternalFixture, error) {
	if lookup.Date.IsZero() {
		return nil, fmt.Errorf("%w: fixture date is required", usecase.ErrInvalidInput)
	}
	params := map[string]string{"date": lookup.Date.UTC().Format(time.DateOnly)}
	if lookup.TeamID > 0 {
		params["team"] = formatID(lookup.TeamID)
	}
	if lookup.LeagueID > 0 {
		params["league"] = formatID(lookup.LeagueID)
	}
	if lookup.Season > 0 {
		params["season"] = strconv.Itoa(lookup.Season)
	}
	return c.fetchFixtures(ctx, EndpointFixtures, params, RequestOptions{})
}

func (c *Client) FixtureByID(ctx context.Context, fixtureID int64, fresh bool) (usecase.ExternalFixture, bool, error) {
	if fixtureID <= 0 {
		return usecase.ExternalFixture{}, false, fmt.Errorf("%w: fixture id must be greater than zero", usecase.ErrInvalidInput)
	}
	items, err := c.fetchFixtures(ctx, EndpointFixtures, map[string]string{"id": formatID(fixtureID)}, RequestOptions{SkipCache: fresh})
	if err != nil || len(items) == 0 {
		return usecase.ExternalFixture{}, false, err
	}
	return items[0], true, nil
}

func (c *Client) HeadToHead(ctx context.Context, homeTeamID, awayTeamID int64, last int) ([]usecase.ExternalFixture, error) {
	if homeTeamID <= 0 || awayTeamID <= 0 {
		return nil, fmt.Errorf("%w: both team ids are required", usecase.ErrInvalidInput)
	}
	if last <= 0 {
		last = 10
	}
	return c.fetchFixtures(ctx, EndpointHeadToHead, map[string]string{
		"h2h":  fmt.Sprintf("%d-%d", homeTeamID, awayTeamID),
		"last": strconv.Itoa(last),
	}, RequestOptions{})
}

func (c *Client) fetchFixtures(ctx context.Context, endpoint string, params map[string]string, opts RequestOptions) ([]usecase.ExternalFixture, error) {
	resp, err := c.Get(ctx, endpoint, params, opts)
	if err != nil {
		return nil, fmt.Errorf("fetch fixtures endpoint=%s: %w", endpoint, err)
	}
	if resp.Empty {
		return nil, nil
	}
	items, err := decodeResponse[[]fixtureItem](resp)
	if err != nil {
		return nil, err
	}

	out := make([]usecase.ExternalFixture, 0, len(items))
	for _, item := range items {
		if item.Fixture.ID <= 0 {
			continue
		}
		fixture := usecase.ExternalFixture{
			ID:           item.Fixture.ID,
			StatusShort:  strings.ToUpper(strings.TrimSpace(item.Fixture.Status.Short)),
			StatusLong:   strings.TrimSpace(item.Fixture.Status.Long),
			LeagueID:     item.League.ID,
			LeagueName:   strings.TrimSpace(item.League.Name),
			Season:       item.League.Season,
			HomeTeamID:   item.Teams.Home.ID,
			AwayTeamID:   item.Teams.Away.ID,
			HomeTeamName: strings.TrimSpace(item.Teams.Home.Name),
			AwayTeamName: strings.TrimSpace(item.Teams.Away.Name),
			Goals:        item.Goals,
			HalfTime:     item.Score.HalfTime,
			FullTime:     item.Score.FullTime,
			ExtraTime:    item.Score.ExtraTime,
			Penalty:      item.Score.Penalty,
		}
		if item.Fixture.Status.Elapsed != nil {
			fixture.Elapsed = *item.Fixture.Status.Elapsed
		}
		if parsed := parseProviderDateTime(item.Fixture.Date); parsed != nil {
			fixture.KickoffAt = *parsed
		}
		out = append(out, fixture)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].KickoffAt.Equal(out[j].KickoffAt) {
			return out[i].KickoffAt.Before(out[j].KickoffAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (c *Client) TeamStatistics(ctx context.Context, leagueID int64, season int, teamID int64) (usecase.ExternalTeamStatistics, bool, error) {
	if leagueID <= 0 || season <= 0 || teamID <= 0 {
		return usecase.ExternalTeamStatistics{}, false, fmt.Errorf("%w: league, season and team are required", usecase.ErrInvalidInput)
	}
	resp, err := c.Get(ctx, EndpointTeamStatistics, map[string]string{
		"league": formatID(leagueID),
		"season": strconv.Itoa(season),
		"team":   formatID(teamID),
	}, RequestOptions{})
	if err != nil {
		return usecase.ExternalTeamStatistics{}, false, fmt.Errorf("fetch team statistics team_id=%d: %w", teamID, err)
	}
	if resp.Empty {
		return usecase.ExternalTeamStatistics{}, false, nil
	}
	item, err := decodeResponse[teamStatisticsItem](resp)
	if err != nil {
		return usecase.ExternalTeamStatistics{}, false, err
	}

	return usecase.ExternalTeamStatistics{
		TeamID:        pickID(item.Team.ID, teamID),
		TeamName:      strings.TrimSpace(item.Team.Name),
		Form:          strings.TrimSpace(item.Form),
		Played:        item.Fixtures.Played.toCount(),
		Wins:          item.Fixtures.Wins.toCount(),
		Draws:         item.Fixtures.Draws.toCount(),
		Losses:        item.Fixtures.Loses.toCount(),
		GoalsFor:      item.Goals.For.Total.toCount(),
		GoalsAgainst:  item.Goals.Against.Total.toCount(),
		CleanSheets:   item.CleanSheet.toCount(),
		FailedToScore: item.FailedToScore.toCount(),
	}, true, nil
}

func (c *Client) Standings(ctx context.Context, leagueID int64, season int) ([]usecase.ExternalStanding, error) {
	if leagueID <= 0 || season <= 0 {
		return nil, fmt.Errorf("%w: league and season are required", usecase.ErrInvalidInput)
	}
	resp, err := c.Get(ctx, EndpointStandings, map[string]string{
		"league": formatID(leagueID),
		"season": strconv.Itoa(season),
	}, RequestOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch standings league_id=%d season=%d: %w", leagueID, season, err)
	}
	if resp.Empty {
		return nil, nil
	}
	items, err := decodeResponse[[]standingsItem](resp)
	if err != nil {
		return nil, err
	}

	out := make([]usecase.ExternalStanding, 0, 32)
	for _, item := range items {
		for _, group := range item.League.Standings {
			for _, row := range group {
				if row.Team.ID <= 0 || row.Rank <= 0 {
					continue
				}
				out = append(out, usecase.ExternalStanding{
					Rank:         row.Rank,
					TeamID:       row.Team.ID,
					TeamName:     strings.TrimSpace(row.Team.Name),
					Points:       row.Points,
					GoalsDiff:    row.GoalsDiff,
					Group:        strings.TrimSpace(row.Group),
					Form:         strings.TrimSpace(row.Form),
					Description:  strings.TrimSpace(row.Description),
					Played:       row.All.Played,
					Win:          row.All.Win,
					Draw:         row.All.Draw,
					Lose:         row.All.Lose,
					GoalsFor:     row.All.Goals.For,
					GoalsAgainst: row.All.Goals.Against,
				})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Rank < out[j].Rank
	})
	return out, nil
}

func (c *Client) FixtureStatistics(ctx context.Context, fixtureID int64) ([]usecase.ExternalFixtureStatistics, error) {
	resp, err := c.getByFixture(ctx, EndpointFixtureStatistics, fixtureID)
	if err != nil || resp.Empty {
		return nil, err
	}
	items, err := decodeResponse[[]fixtureStatisticsItem](resp)
	if err != nil {
		return nil, err
	}

	out := make([]usecase.ExternalFixtureStatistics, 0, len(items))
	for _, item := range items {
		if item.Team.ID <= 0 {
			continue
		}
		values := make(map[string]float64, len(item.Statistics))
		for _, stat := range item.Statistics {
			key := statKey(stat.Type)
			if key == "" {
				continue
			}
			if value, ok := parseStatValue(stat.Value); ok {
				values[key] = value
			}
		}
		out = append(out, usecase.ExternalFixtureStatistics{
			TeamID:   item.Team.ID,
			TeamName: strings.TrimSpace(item.Team.Name),
			Values:   values,
		})
	}
	return out, nil
}

func (c *Client) Injuries(ctx context.Context, fixtureID int64) ([]usecase.ExternalInjury, error) {
	resp, err := c.getByFixture(ctx, EndpointInjuries, fixtureID)
	if err != nil || resp.Empty {
		return nil, err
	}
	items, err := decodeResponse[[]injuryItem](resp)
	if err != nil {
		return nil, err
	}

	out := make([]usecase.ExternalInjury, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Player.Name) == "" {
			continue
		}
		out = append(out, usecase.ExternalInjury{
			TeamID:     item.Team.ID,
			TeamName:   strings.TrimSpace(item.Team.Name),
			PlayerName: strings.TrimSpace(item.Player.Name),
			Type:       strings.TrimSpace(item.Player.Type),
			Reason:     strings.TrimSpace(item.Player.Reason),
		})
	}
	return out, nil
}

func (c *Client) Predictions(ctx context.Context, fixtureID int64) (usecase.ExternalPrediction, bool, error) {
	resp, err := c.getByFixture(ctx, EndpointPredictions, fixtureID)
	if err != nil || resp.Empty {
		return usecase.ExternalPrediction{}, false, err
	}
	items, err := decodeResponse[[]predictionItem](resp)
	if err != nil {
		return usecase.ExternalPrediction{}, false, err
	}
	if len(items) == 0 {
		return usecase.ExternalPrediction{}, false, nil
	}

	p := items[0].Predictions
	return usecase.ExternalPrediction{
		WinnerTeamID:  p.Winner.ID,
		WinnerName:    strings.TrimSpace(p.Winner.Name),
		WinnerComment: strings.TrimSpace(p.Winner.Comment),
		WinOrDraw:     p.WinOrDraw,
		UnderOver:     strings.TrimSpace(p.UnderOver),
		GoalsHome:     strings.TrimSpace(p.Goals.Home),
		GoalsAway:     strings.TrimSpace(p.Goals.Away),
		Advice:        strings.TrimSpace(p.Advice),
		PercentHome:   parsePercent(p.Percent.Home),
		PercentDraw:   parsePercent(p.Percent.Draw),
		PercentAway:   parsePercent(p.Percent.Away),
	}, true, nil
}

func (c *Client) Lineups(ctx context.Context, fixtureID int64) ([]usecase.ExternalLineup, error) {
	resp, err := c.getByFixture(ctx, EndpointLineups, fixtureID)
	if err != nil || resp.Empty {
		return nil, err
	}
	items, err := decodeResponse[[]lineupItem](resp)
	if err != nil {
		return nil, err
	}

	out := make([]usecase.ExternalLineup, 0, len(items))
	for _, item := range items {
		if item.Team.ID <= 0 {
			continue
		}
		out = append(out, usecase.ExternalLineup{
			TeamID:      item.Team.ID,
			TeamName:    strings.TrimSpace(item.Team.Name),
			Formation:   strings.TrimSpace(item.Formation),
			Coach:       strings.TrimSpace(item.Coach.Name),
			StartXI:     mapLineupPlayers(item.StartXI),
			Substitutes: mapLineupPlayers(item.Substitutes),
		})
	}
	return out, nil
}

// Odds returns the 1X2 prices per bookmaker. Rows with a missing or
// unparseable price are skipped.
func (c *Client) Odds(ctx context.Context, fixtureID int64) ([]usecase.ExternalBookmakerOdds, error) {
	if fixtureID <= 0 {
		return nil, fmt.Errorf("%w: fixture id must be greater than zero", usecase.ErrInvalidInput)
	}
	resp, err := c.Get(ctx, EndpointOdds, map[string]string{
		"fixture": formatID(fixtureID),
		"bet":     strconv.Itoa(matchWinnerBetID),
	}, RequestOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch odds fixture_id=%d: %w", fixtureID, err)
	}
	if resp.Empty {
		return nil, nil
	}
	items, err := decodeResponse[[]oddsItem](resp)
	if err != nil {
		return nil, err
	}

	out := make([]usecase.ExternalBookmakerOdds, 0, 16)
	for _, item := range items {
		for _, bookmaker := range item.Bookmakers {
			for _, bet := range bookmaker.Bets {
				if bet.ID != matchWinnerBetID && !strings.EqualFold(strings.TrimSpace(bet.Name), "Match Winner") {
					continue
				}
				row := usecase.ExternalBookmakerOdds{BookmakerID: bookmaker.ID, Name: strings.TrimSpace(bookmaker.Name)}
				for _, value := range bet.Values {
					price, err := decimal.NewFromString(strings.TrimSpace(value.Odd))
					if err != nil || !price.IsPositive() {
						continue
					}
					switch strings.ToLower(strings.TrimSpace(value.Value)) {
					case "home", "1":
						row.Home = price
					case "draw", "x":
						row.Draw = price
					case "away", "2":
						row.Away = price
					}
				}
				if row.Home.IsPositive() && row.Draw.IsPositive() && row.Away.IsPositive() {
					out = append(out, row)
				}
			}
		}
	}
	return out, nil
}

func (c *Client) getByFixture(ctx context.Context, endpoint string, fixtureID int64) (Response, error) {
	if fixtureID <= 0 {
		return Response{}, fmt.Errorf("%w: fixture id must be greater than zero", usecase.ErrInvalidInput)
	}
	resp, err := c.Get(ctx, endpoint, map[string]string{"fixture": formatID(fixtureID)}, RequestOptions{})
	if err != nil {
		return Response{}, fmt.Errorf("fetch %s fixture_id=%d: %w", endpoint, fixtureID, err)
	}
	return resp, nil
}

func mapLineupPlayers(items []lineupPlayer) []usecase.ExternalLineupPlayer {
	out := make([]usecase.ExternalLineupPlayer, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Player.Name) == "" {
			continue
		}
		out = append(out, usecase.ExternalLineupPlayer{
			Name:     strings.TrimSpace(item.Player.Name),
			Number:   item.Player.Number,
			Position: strings.TrimSpace(item.Player.Pos),
			Grid:     strings.TrimSpace(item.Player.Grid),
		})
	}
	return out
}

func (s splitCount) toCount() usecase.SplitCount {
	return usecase.SplitCount{Home: derefInt(s.Home), Away: derefInt(s.Away), Total: derefInt(s.Total)}
}

var providerDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func parseProviderDateTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range providerDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	return nil
}

// statKey turns "Ball Possession" into "ball_possession".
func statKey(value string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(value) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// parseStatValue reads numbers, numeric strings and percentages. The
// provider sends null for counters that are zero.
func parseStatValue(value any) (float64, bool) {
	switch typed := value.(type) {
	case nil:
		return 0, true
	case float64:
		return typed, true
	case int64:
		return float64(typed), true
	case int:
		return float64(typed), true
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(typed), "%")
		parsed, err := strconv.ParseFloat(strings.TrimSpace(trimmed), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func parsePercent(value string) float64 {
	parsed, ok := parseStatValue(value)
	if !ok {
		return 0
	}
	return parsed
}

// searchTerm keeps what the provider search accepts: letters, digits and
// spaces, at least three characters.
func searchTerm(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		}
	}
	term := strings.Join(strings.Fields(b.String()), " ")
	if len([]rune(term)) < minSearchRunes {
		return ""
	}
	return term
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func pickID(primary, fallback int64) int64 {
	if primary > 0 {
		return primary
	}
	return fallback
}

func derefInt(value *int) int {
	if value == nil {
		return 0
	}
	return *value
}
