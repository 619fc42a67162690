package apifootball

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/usecase"
)

func TestClientOdds_ParsesMatchWinnerPrices(t *testing.T) {
	t.Parallel()

	body := `{"get":"odds","errors":[],"results":1,"paging":{"current":1,"total":1},"response":[{"bookmakers":[
		{"id":8,"name":"Bet365","bets":[{"id":1,"name":"Match Winner","values":[{"value":"Home","odd":"1.85"},{"value":"Draw","odd":"3.60"},{"value":"Away","odd":"4.20"}]},{"id":5,"name":"Goals Over/Under","values":[{"value":"Over 2.5","odd":"1.90"}]}]},
		{"id":11,"name":"1xBet","bets":[{"id":1,"name":"Match Winner","values":[{"value":"Home","odd":"1.90"},{"value":"Draw","odd":"n/a"},{"value":"Away","odd":"4.00"}]}]}
	]}]}`

	h := newHarness(t, func(w http.ResponseWriter, r *http.Request, _ int32) {
		if r.URL.Path != EndpointOdds || r.URL.Query().Get("fixture") != "991" || r.URL.Query().Get("bet") != "1" {
			t.Errorf("unexpected request: %s", r.URL.String())
		}
		writeBody(w, http.StatusOK, body)
	}, nil)

	odds, err := h.client.Odds(context.Background(), 991)
	if err != nil {
		t.Fatalf("odds: %v", err)
	}
	if len(odds) != 1 {
		t.Fatalf("expected incomplete bookmaker to be skipped, got=%d rows", len(odds))
	}
	if odds[0].Name != "Bet365" || odds[0].Home.String() != "1.85" || odds[0].Draw.String() != "3.6" || odds[0].Away.String() != "4.2" {
		t.Fatalf("unexpected odds row: %+v", odds[0])
	}
}

func TestClientFixtureStatistics_NormalizesKeysAndValues(t *testing.T) {
	t.Parallel()

	body := `{"get":"fixtures/statistics","errors":[],"results":2,"paging":{"current":1,"total":1},"response":[
		{"team":{"id":363,"name":"Hammarby"},"statistics":[{"type":"Shots on Goal","value":6},{"type":"Ball Possession","value":"58%"},{"type":"Red Cards","value":null},{"type":"expected_goals","value":"1.74"}]},
		{"team":{"id":377,"name":"Malmo FF"},"statistics":[{"type":"Shots on Goal","value":3}]}
	]}`

	h := newHarness(t, func(w http.ResponseWriter, _ *http.Request, _ int32) {
		writeBody(w, http.StatusOK, body)
	}, nil)

	stats, err := h.client.FixtureStatistics(context.Background(), 42)
	if err != nil {
		t.Fatalf("fixture statistics: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected two teams, got=%d", len(stats))
	}
	home := stats[0].Values
	if home["shots_on_goal"] != 6 || home["ball_possession"] != 58 || home["red_cards"] != 0 || home["expected_goals"] != 1.74 {
		t.Fatalf("unexpected statistics: %+v", home)
	}
}

func TestClientTeamStatistics_EmptyObjectMeansNoData(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(w http.ResponseWriter, _ *http.Request, _ int32) {
		writeBody(w, http.StatusOK, `{"get":"teams/statistics","errors":[],"results":0,"paging":{"current":1,"total":1},"response":[]}`)
	}, nil)

	_, ok, err := h.client.TeamStatistics(context.Background(), 113, 2026, 363)
	if err != nil {
		t.Fatalf("team statistics: %v", err)
	}
	if ok {
		t.Fatalf("expected no statistics")
	}
}

func TestClientTeamStatistics_MapsSplitCounts(t *testing.T) {
	t.Parallel()

	body := `{"get":"teams/statistics","errors":[],"results":11,"paging":{"current":1,"total":1},"response":{
		"team":{"id":363,"name":"Hammarby"},"form":"WWDLW",
		"fixtures":{"played":{"home":5,"away":5,"total":10},"wins":{"home":4,"away":2,"total":6},"draws":{"home":1,"away":1,"total":2},"loses":{"home":0,"away":2,"total":2}},
		"goals":{"for":{"total":{"home":12,"away":7,"total":19}},"against":{"total":{"home":3,"away":8,"total":11}}},
		"clean_sheet":{"home":3,"away":1,"total":4},"failed_to_score":{"home":0,"away":null,"total":0}
	}}`

	h := newHarness(t, func(w http.ResponseWriter, _ *http.Request, _ int32) {
		writeBody(w, http.StatusOK, body)
	}, nil)

	stats, ok, err := h.client.TeamStatistics(context.Background(), 113, 2026, 363)
	if err != nil || !ok {
		t.Fatalf("team statistics ok=%v err=%v", ok, err)
	}
	if stats.Form != "WWDLW" || stats.Played.Total != 10 || stats.Losses.Away != 2 || stats.GoalsFor.Total != 19 || stats.CleanSheets.Home != 3 {
		t.Fatalf("unexpected team statistics: %+v", stats)
	}
}

func TestClientFixturesByDate_MapsScoresAndSendsFilters(t *testing.T) {
	t.Parallel()

	body := `{"get":"fixtures","errors":[],"results":1,"paging":{"current":1,"total":1},"response":[{
		"fixture":{"id":1208021,"date":"2026-04-12T13:00:00+00:00","status":{"long":"Match Finished","short":"AET","elapsed":120}},
		"league":{"id":113,"name":"Allsvenskan","season":2026},
		"teams":{"home":{"id":363,"name":"Hammarby"},"away":{"id":377,"name":"Malmo FF"}},
		"goals":{"home":2,"away":1},
		"score":{"halftime":{"home":0,"away":0},"fulltime":{"home":1,"away":1},"extratime":{"home":1,"away":0},"penalty":{"home":null,"away":null}}
	}]}`

	h := newHarness(t, func(w http.ResponseWriter, r *http.Request, _ int32) {
		q := r.URL.Query()
		if q.Get("date") != "2026-04-12" || q.Get("team") != "363" || q.Get("season") != "2026" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		writeBody(w, http.StatusOK, body)
	}, nil)

	fixtures, err := h.client.FixturesByDate(context.Background(), usecase.FixtureLookup{
		Date:   time.Date(2026, 4, 12, 18, 0, 0, 0, time.UTC),
		TeamID: 363,
		Season: 2026,
	})
	if err != nil {
		t.Fatalf("fixtures by date: %v", err)
	}
	if len(fixtures) != 1 {
		t.Fatalf("expected one fixture, got=%d", len(fixtures))
	}
	fixture := fixtures[0]
	if fixture.StatusShort != "AET" || fixture.HomeTeamID != 363 || fixture.AwayTeamID != 377 {
		t.Fatalf("unexpected fixture: %+v", fixture)
	}
	if !fixture.FullTime.Complete() || *fixture.FullTime.Home != 1 || *fixture.Goals.Home != 2 {
		t.Fatalf("expected regulation and final scores to be kept apart: %+v", fixture)
	}
	if fixture.Penalty.Complete() {
		t.Fatalf("expected null penalty score")
	}
	if !fixture.KickoffAt.Equal(time.Date(2026, 4, 12, 13, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected kickoff: %s", fixture.KickoffAt)
	}
}

func TestStatKey(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Ball Possession":  "ball_possession",
		"Shots insidebox":  "shots_insidebox",
		"expected_goals":   "expected_goals",
		"Passes %":         "passes",
		"  Total   passes": "total_passes",
	}
	for input, want := range cases {
		if got := statKey(input); got != want {
			t.Fatalf("statKey(%q)=%q want=%q", input, got, want)
		}
	}
}

func TestSearchTerm(t *testing.T) {
	t.Parallel()

	if got := searchTerm("IFK Göteborg!"); got != "IFK Göteborg" {
		t.Fatalf("unexpected search term %q", got)
	}
	if got := searchTerm("AI"); got != "" {
		t.Fatalf("expected short term to be dropped, got %q", got)
	}
}

func TestIsEmptyEnvelope(t *testing.T) {
	t.Parallel()

	if !IsEmptyEnvelope([]byte(emptyBody)) {
		t.Fatalf("expected zero-result envelope to be empty")
	}
	if !IsEmptyEnvelope([]byte(`{}`)) {
		t.Fatalf("expected placeholder to be empty")
	}
	if IsEmptyEnvelope([]byte(okLeaguesBody)) {
		t.Fatalf("expected populated envelope to be kept")
	}
	if IsEmptyEnvelope([]byte(`{"errors":[],"results":0,"response":{"team":{"id":1}}}`)) {
		t.Fatalf("expected object response to be kept")
	}
}

func TestClientLeagues_BypassOpenBreaker(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(w http.ResponseWriter, r *http.Request, _ int32) {
		if r.URL.Path == EndpointLeagues {
			writeBody(w, http.StatusOK, okLeaguesBody)
			return
		}
		writeBody(w, http.StatusServiceUnavailable, `down`)
	}, func(cfg *ClientConfig) {
		cfg.MaxRetries = -1
	})

	ctx := context.Background()
	for fixtureID := int64(1); fixtureID <= 2; fixtureID++ {
		if _, err := h.client.Odds(ctx, fixtureID); !errors.Is(err, usecase.ErrUpstreamServer) {
			t.Fatalf("expected odds failure, got=%v", err)
		}
	}
	if _, err := h.client.Odds(ctx, 3); !errors.Is(err, usecase.ErrCircuitOpen) {
		t.Fatalf("expected open breaker to reject odds, got=%v", err)
	}

	leagues, err := h.client.LeaguesByCountry(ctx, "Sweden")
	if err != nil {
		t.Fatalf("expected league catalog to bypass the breaker, got=%v", err)
	}
	if len(leagues) != 1 || leagues[0].ID != 113 {
		t.Fatalf("unexpected leagues: %+v", leagues)
	}
	if h.hits.Load() != 3 {
		t.Fatalf("expected two odds calls and one league call, got=%d", h.hits.Load())
	}
}
