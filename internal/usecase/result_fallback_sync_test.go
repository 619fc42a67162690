package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/match"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/infrastructure/repository/memory"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/logging"
)

var syncNow = time.Date(2026, 4, 20, 12, 0, 0, 0, time.UTC)

type stubReferences struct {
	mu    sync.Mutex
	refs  map[int64]match.ProviderRefs
	calls int
}

func (s *stubReferences) EnsureReferences(_ context.Context, matchID int64) (match.ProviderRefs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.refs[matchID], nil
}

func finishedFixture(id int64, short string, ftHome, ftAway, home, away int) ExternalFixture {
	return ExternalFixture{
		ID:          id,
		StatusShort: short,
		FullTime:    ScorePair{Home: intPtr(ftHome), Away: intPtr(ftAway)},
		Goals:       ScorePair{Home: intPtr(home), Away: intPtr(away)},
	}
}

func TestClassifyFixtureStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		short    string
		finished bool
		terminal bool
		status   string
	}{
		{"FT", true, true, match.StatusFinished},
		{"aet", true, true, match.StatusFinished},
		{"PEN", true, true, match.StatusFinished},
		{"PST", false, true, match.StatusPostponed},
		{"CANC", false, true, match.StatusCancelled},
		{"ABD", false, true, match.StatusAbandoned},
		{"AWD", false, true, match.StatusAwarded},
		{"WO", false, true, match.StatusWalkover},
		{"2H", false, false, match.StatusLive},
		{"NS", false, false, match.StatusScheduled},
	}
	for _, tc := range cases {
		got := ClassifyFixtureStatus(tc.short)
		require.Equal(t, tc.finished, got.IsFinished, tc.short)
		require.Equal(t, tc.terminal, got.IsTerminal, tc.short)
		require.Equal(t, tc.status, got.Status, tc.short)
	}
}

func TestRegulationResult(t *testing.T) {
	t.Parallel()

	result, ok := RegulationResult(finishedFixture(1, "AET", 2, 1, 3, 1))
	require.True(t, ok)
	require.Equal(t, 2, result.HomeScore)
	require.Equal(t, 1, result.AwayScore)
	require.Equal(t, match.OutcomeHome, result.Outcome)
	require.Equal(t, ResultSourceFallback, result.Source)

	result, ok = RegulationResult(finishedFixture(2, "PEN", 1, 1, 2, 1))
	require.True(t, ok)
	require.Equal(t, match.OutcomeDraw, result.Outcome)

	result, ok = RegulationResult(ExternalFixture{
		StatusShort: "FT",
		Goals:       ScorePair{Home: intPtr(0), Away: intPtr(2)},
	})
	require.True(t, ok)
	require.Equal(t, match.OutcomeAway, result.Outcome)

	_, ok = RegulationResult(ExternalFixture{
		StatusShort: "AET",
		Goals:       ScorePair{Home: intPtr(3), Away: intPtr(2)},
	})
	require.False(t, ok)
}

func newResultSync(t *testing.T, provider *fakeProvider, refs ReferenceResolver, items ...match.Match) (*ResultFallbackSync, *memory.MatchRepository, *recordingPublisher) {
	t.Helper()

	matches := memory.NewMatchRepository(items...)
	events := &recordingPublisher{}
	syncer := NewResultFallbackSync(ResultFallbackSyncDeps{
		Matches:    matches,
		Fixtures:   provider,
		References: refs,
		Events:     events,
		Config:     ResultSyncConfig{MaxWorkers: 2},
		Logger:     logging.NewNop(),
	})
	syncer.now = func() time.Time { return syncNow }
	return syncer, matches, events
}

func TestResultFallbackSync_Run(t *testing.T) {
	t.Parallel()

	old := syncNow.Add(-72 * time.Hour)
	provider := newFakeProvider()
	provider.fixtures = map[int64]ExternalFixture{
		9001: finishedFixture(9001, "AET", 2, 1, 3, 1),
		9002: {ID: 9002, StatusShort: "PST"},
		9003: {ID: 9003, StatusShort: "NS"},
		9004: finishedFixture(9004, "FT", 0, 0, 0, 0),
	}
	refs := &stubReferences{refs: map[int64]match.ProviderRefs{
		4: {FixtureID: 9004, HomeTeamID: 1, AwayTeamID: 2},
	}}

	syncer, matches, events := newResultSync(t, provider, refs,
		match.Match{ID: 1, CompetitionID: 10, KickoffAt: old, Refs: match.ProviderRefs{FixtureID: 9001}},
		match.Match{ID: 2, CompetitionID: 10, KickoffAt: old, Refs: match.ProviderRefs{FixtureID: 9002}},
		match.Match{ID: 3, CompetitionID: 10, KickoffAt: old, Refs: match.ProviderRefs{FixtureID: 9003}},
		match.Match{ID: 4, CompetitionID: 10, KickoffAt: old},
		match.Match{ID: 5, CompetitionID: 10, KickoffAt: old},
		// last kickoff inside the grace period
		match.Match{ID: 6, CompetitionID: 20, KickoffAt: syncNow.Add(-2 * time.Hour), Refs: match.ProviderRefs{FixtureID: 9001}},
	)

	report, err := syncer.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Competitions)
	require.Equal(t, 5, report.Checked)
	require.Equal(t, 2, report.Recorded)
	require.Equal(t, 1, report.Terminal)
	require.Equal(t, 1, report.Pending)
	require.Equal(t, 1, report.Unresolved)
	require.Zero(t, report.Failed)
	require.Equal(t, 2, refs.calls)
	require.Len(t, report.Items, 5)
	require.Equal(t, "2-1", report.Items[0].Score)

	first, _, _ := matches.GetByID(context.Background(), 1)
	require.Equal(t, match.OutcomeHome, first.Outcome)
	require.Equal(t, 2, *first.HomeScore)
	require.Equal(t, ResultSourceFallback, first.ResultSource)

	postponed, _, _ := matches.GetByID(context.Background(), 2)
	require.Equal(t, match.StatusPostponed, postponed.Status)
	require.False(t, postponed.HasResult())

	pending, _, _ := matches.GetByID(context.Background(), 3)
	require.False(t, pending.HasResult())

	resolved, _, _ := matches.GetByID(context.Background(), 4)
	require.Equal(t, match.OutcomeDraw, resolved.Outcome)

	untouched, _, _ := matches.GetByID(context.Background(), 6)
	require.False(t, untouched.HasResult())

	require.Len(t, events.events, 2)
	for _, event := range events.events {
		require.Equal(t, EventResultRecorded, event.Type)
	}
}

func TestResultFallbackSync_RunCountsProviderFailures(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.errs["FixtureByID"] = ErrQuotaExhausted
	syncer, matches, _ := newResultSync(t, provider, nil,
		match.Match{ID: 1, CompetitionID: 10, KickoffAt: syncNow.Add(-96 * time.Hour), Refs: match.ProviderRefs{FixtureID: 9001}},
	)

	report, err := syncer.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)
	require.Contains(t, report.Items[0].Message, "quota")

	item, _, _ := matches.GetByID(context.Background(), 1)
	require.False(t, item.HasResult())
}

func TestResultFallbackSync_ReconcileNeverWrites(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.fixtures = map[int64]ExternalFixture{
		9001: finishedFixture(9001, "FT", 1, 1, 1, 1),
		9002: finishedFixture(9002, "FT", 2, 0, 2, 0),
	}
	syncer, matches, events := newResultSync(t, provider, nil,
		match.Match{ID: 1, CompetitionID: 10, HomeScore: intPtr(2), AwayScore: intPtr(1), Outcome: match.OutcomeHome, Refs: match.ProviderRefs{FixtureID: 9001}},
		match.Match{ID: 2, CompetitionID: 10, HomeScore: intPtr(2), AwayScore: intPtr(0), Outcome: match.OutcomeHome, Refs: match.ProviderRefs{FixtureID: 9002}},
		match.Match{ID: 3, CompetitionID: 10, HomeScore: intPtr(0), AwayScore: intPtr(0), Outcome: match.OutcomeDraw},
	)

	report, err := syncer.Reconcile(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, 2, report.Compared)
	require.Equal(t, 1, report.Matching)
	require.Equal(t, 1, report.Unchecked)
	require.Len(t, report.Discrepancies, 1)
	require.Equal(t, "2-1", report.Discrepancies[0].RecordedScore)
	require.Equal(t, "1-1", report.Discrepancies[0].ProviderScore)
	require.Equal(t, match.OutcomeDraw, report.Discrepancies[0].ProviderOutcome)

	item, _, _ := matches.GetByID(context.Background(), 1)
	require.Equal(t, 2, *item.HomeScore)
	require.Equal(t, match.OutcomeHome, item.Outcome)
	require.Empty(t, events.events)

	_, err = syncer.Reconcile(context.Background(), 0)
	require.ErrorIs(t, err, ErrInvalidInput)
}
