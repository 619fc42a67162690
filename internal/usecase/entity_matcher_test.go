package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/mapping"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/unresolved"
	mappingmock "github.com/KrisMoody/stryktipset-predictor-sub003/internal/mocks/domain/mapping"
	unresolvedmock "github.com/KrisMoody/stryktipset-predictor-sub003/internal/mocks/domain/unresolved"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/id"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/logging"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/textmatch"
)

func newTestMatcher(t *testing.T, provider *fakeProvider) (*EntityMatcher, *mappingmock.Repository, *unresolvedmock.Repository) {
	t.Helper()

	teams, leagues, err := textmatch.LoadAliases("")
	require.NoError(t, err)

	mappings := mappingmock.NewRepository(t)
	queue := unresolvedmock.NewRepository(t)
	matcher := NewEntityMatcher(EntityMatcherDeps{
		Mappings:      mappings,
		Unresolved:    queue,
		Catalog:       provider,
		TeamAliases:   teams,
		LeagueAliases: leagues,
		IDs:           &id.Sequence{IDs: []string{"u-1", "u-2"}},
		Logger:        logging.NewNop(),
	})
	return matcher, mappings, queue
}

func TestEntityMatcher_ReturnsPersistedMappingWithoutProviderCalls(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	matcher, mappings, _ := newTestMatcher(t, provider)

	stored := mapping.Mapping{EntityType: mapping.EntityTeam, InternalID: "team-9", ProviderID: 363, Confidence: mapping.ConfidenceMedium, Method: mapping.MethodFuzzy}
	mappings.On("Get", mock.Anything, mapping.EntityTeam, "team-9").Return(stored, true, nil).Once()

	got, err := matcher.MatchTeam(context.Background(), TeamQuery{InternalID: "team-9", Name: "Hammarby", LeagueProviderID: 113, Season: 2026})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, int64(363), got.ProviderID)
	require.Zero(t, provider.total())
}

func TestEntityMatcher_AliasMatchIsHighConfidenceWithoutScoring(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.rosters[39] = []ExternalTeam{
		{ID: 33, Name: "Manchester United"},
		{ID: 50, Name: "Manchester City"},
		{ID: 40, Name: "Liverpool"},
	}
	matcher, mappings, queue := newTestMatcher(t, provider)
	matcher.similarity = func(a, b string) float64 {
		t.Fatalf("similarity must not be computed for alias matches (%q vs %q)", a, b)
		return 0
	}

	mappings.On("Get", mock.Anything, mapping.EntityTeam, "team-mu").Return(mapping.Mapping{}, false, nil).Once()
	mappings.On("Insert", mock.Anything, mock.MatchedBy(func(item mapping.Mapping) bool {
		return item.ProviderID == 33 && item.Method == mapping.MethodExact && item.Confidence == mapping.ConfidenceHigh && item.Similarity == nil
	})).Return(nil).Once()
	queue.On("Resolve", mock.Anything, mapping.EntityTeam, "team-mu", mock.Anything).Return(nil).Once()

	got, err := matcher.MatchTeam(context.Background(), TeamQuery{InternalID: "team-mu", Name: "Man United", LeagueProviderID: 39, Season: 2026})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, mapping.ConfidenceHigh, got.Confidence)
	require.Equal(t, mapping.MethodExact, got.Method)
}

func TestEntityMatcher_FuzzyInLeagueContextIsMediumConfidence(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.rosters[113] = []ExternalTeam{
		{ID: 372, Name: "Östersunds FK"},
		{ID: 375, Name: "IFK Göteborg"},
		{ID: 363, Name: "Hammarby FF"},
	}
	matcher, mappings, queue := newTestMatcher(t, provider)

	mappings.On("Get", mock.Anything, mapping.EntityTeam, "team-ostersund").Return(mapping.Mapping{}, false, nil).Once()
	mappings.On("Insert", mock.Anything, mock.Anything).Return(nil).Once()
	queue.On("Resolve", mock.Anything, mapping.EntityTeam, "team-ostersund", mock.Anything).Return(nil).Once()

	got, err := matcher.MatchTeam(context.Background(), TeamQuery{InternalID: "team-ostersund", Name: "Östersund", LeagueProviderID: 113, Season: 2026})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, int64(372), got.ProviderID)
	require.Equal(t, mapping.MethodFuzzy, got.Method)
	require.Equal(t, mapping.ConfidenceMedium, got.Confidence)
	require.NotNil(t, got.Similarity)
	require.GreaterOrEqual(t, *got.Similarity, 80.0)
	require.Less(t, *got.Similarity, 95.0)
	require.Zero(t, provider.count("SearchTeams"))
}

func TestEntityMatcher_RosterIsFetchedOncePerLeagueSeason(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.rosters[113] = []ExternalTeam{
		{ID: 363, Name: "Hammarby"},
		{ID: 377, Name: "Malmö FF"},
	}
	matcher, mappings, queue := newTestMatcher(t, provider)

	mappings.On("Get", mock.Anything, mapping.EntityTeam, mock.Anything).Return(mapping.Mapping{}, false, nil).Twice()
	mappings.On("Insert", mock.Anything, mock.Anything).Return(nil).Twice()
	queue.On("Resolve", mock.Anything, mapping.EntityTeam, mock.Anything, mock.Anything).Return(nil).Twice()

	_, err := matcher.MatchTeam(context.Background(), TeamQuery{InternalID: "t-1", Name: "Hammarby", LeagueProviderID: 113, Season: 2026})
	require.NoError(t, err)
	_, err = matcher.MatchTeam(context.Background(), TeamQuery{InternalID: "t-2", Name: "Malmo FF", LeagueProviderID: 113, Season: 2026})
	require.NoError(t, err)

	require.Equal(t, 1, provider.count("TeamsByLeague"))
}

func TestEntityMatcher_UnscopedRetryRequiresHigherThreshold(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.teamSearch["hammarby"] = []ExternalTeam{
		{ID: 363, Name: "Hammarby IF", Country: "Sweden"},
		{ID: 9999, Name: "Hammarby Talang", Country: "Sweden"},
	}
	matcher, mappings, queue := newTestMatcher(t, provider)

	mappings.On("Get", mock.Anything, mapping.EntityTeam, "t-ham").Return(mapping.Mapping{}, false, nil).Once()
	mappings.On("Insert", mock.Anything, mock.MatchedBy(func(item mapping.Mapping) bool {
		return item.ProviderID == 363 && item.Method == mapping.MethodFuzzy
	})).Return(nil).Once()
	queue.On("Resolve", mock.Anything, mapping.EntityTeam, "t-ham", mock.Anything).Return(nil).Once()

	got, err := matcher.MatchTeam(context.Background(), TeamQuery{InternalID: "t-ham", Name: "Hammarby", Country: "Sweden"})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Zero(t, provider.count("TeamsByLeague"))
}

func TestEntityMatcher_UnresolvedIsQueuedWithTopCandidates(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.rosters[113] = []ExternalTeam{
		{ID: 1, Name: "Djurgården"},
		{ID: 2, Name: "AIK"},
		{ID: 3, Name: "Häcken"},
		{ID: 4, Name: "Elfsborg"},
		{ID: 5, Name: "Sirius"},
		{ID: 6, Name: "Mjällby"},
	}
	matcher, mappings, queue := newTestMatcher(t, provider)

	mappings.On("Get", mock.Anything, mapping.EntityTeam, "t-x").Return(mapping.Mapping{}, false, nil).Once()
	queue.On("Record", mock.Anything, mock.MatchedBy(func(item unresolved.Entity) bool {
		return item.ID == "u-1" &&
			item.InternalID == "t-x" &&
			item.EntityType == mapping.EntityTeam &&
			len(item.Candidates) == 5 &&
			item.Context["league_provider_id"] == "113" &&
			item.Candidates[0].Similarity >= item.Candidates[4].Similarity
	})).Return(nil).Once()

	got, err := matcher.MatchTeam(context.Background(), TeamQuery{InternalID: "t-x", Name: "Qwxyzz", LeagueProviderID: 113, Season: 2026})
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestEntityMatcher_ProviderFailureIsNotQueued(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.errs["TeamsByLeague"] = ErrCircuitOpen
	matcher, mappings, _ := newTestMatcher(t, provider)

	mappings.On("Get", mock.Anything, mapping.EntityTeam, "t-1").Return(mapping.Mapping{}, false, nil).Once()

	_, err := matcher.MatchTeam(context.Background(), TeamQuery{InternalID: "t-1", Name: "Hammarby", LeagueProviderID: 113, Season: 2026})
	require.ErrorIs(t, err, ErrCircuitOpen)
}

func TestEntityMatcher_MatchLeagueByCountryExact(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.leaguesByCountry["Sweden"] = []ExternalLeague{
		{ID: 113, Name: "Allsvenskan", Country: "Sweden"},
		{ID: 114, Name: "Superettan", Country: "Sweden"},
	}
	matcher, mappings, queue := newTestMatcher(t, provider)

	mappings.On("Get", mock.Anything, mapping.EntityLeague, "l-se-1").Return(mapping.Mapping{}, false, nil).Once()
	mappings.On("Insert", mock.Anything, mock.MatchedBy(func(item mapping.Mapping) bool {
		return item.EntityType == mapping.EntityLeague && item.ProviderID == 113 && item.Method == mapping.MethodExact
	})).Return(nil).Once()
	queue.On("Resolve", mock.Anything, mapping.EntityLeague, "l-se-1", mock.Anything).Return(nil).Once()

	got, err := matcher.MatchLeague(context.Background(), LeagueQuery{InternalID: "l-se-1", Name: "Allsvenskan", Country: "Sweden"})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, mapping.ConfidenceHigh, got.Confidence)
	require.Zero(t, provider.count("SearchLeagues"))
}

func TestEntityMatcher_OverrideIsManualAndClosesQueue(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	matcher, mappings, queue := newTestMatcher(t, provider)

	mappings.On("Override", mock.Anything, mock.MatchedBy(func(item mapping.Mapping) bool {
		return item.Method == mapping.MethodManual && item.Confidence == mapping.ConfidenceHigh && item.ProviderID == 372
	})).Return(nil).Once()
	queue.On("Resolve", mock.Anything, mapping.EntityTeam, "team-ostersund", mock.Anything).Return(nil).Once()

	got, err := matcher.OverrideTeam(context.Background(), "team-ostersund", 372, "Östersunds FK")
	require.NoError(t, err)
	require.Equal(t, mapping.MethodManual, got.Method)

	_, err = matcher.OverrideTeam(context.Background(), "team-ostersund", 0, "")
	require.ErrorIs(t, err, ErrInvalidInput)
}
