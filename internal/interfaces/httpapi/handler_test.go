package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/enrichment"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/jobscheduler"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/mapping"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/match"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/unresolved"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/logging"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/usecase"
)

const testJobToken = "job-token"

type fakeEnrichment struct {
	ensureTypes []enrichment.DataType
	fetchMode   usecase.FetchMode
	records     []enrichment.Record
	err         error
}

func (f *fakeEnrichment) EnsureMatchData(_ context.Context, matchID int64, types []enrichment.DataType) (usecase.EnsureReport, error) {
	f.ensureTypes = types
	if f.err != nil {
		return usecase.EnsureReport{}, f.err
	}
	return usecase.EnsureReport{MatchID: matchID, Fetched: types}, nil
}

func (f *fakeEnrichment) FetchNow(_ context.Context, _ int64, types []enrichment.DataType, mode usecase.FetchMode) (map[enrichment.DataType]bool, error) {
	f.fetchMode = mode
	out := make(map[enrichment.DataType]bool, len(types))
	for _, dataType := range types {
		out[dataType] = true
	}
	return out, f.err
}

func (f *fakeEnrichment) EnsureReferences(_ context.Context, _ int64) (match.ProviderRefs, error) {
	return match.ProviderRefs{FixtureID: 900, LeagueID: 39, Season: 2024, HomeTeamID: 1, AwayTeamID: 2, MappingConfidence: "high"}, f.err
}

func (f *fakeEnrichment) Records(_ context.Context, _ int64) ([]enrichment.Record, error) {
	return f.records, f.err
}

func (f *fakeEnrichment) Stats(_ context.Context) (usecase.EnrichmentStats, error) {
	return usecase.EnrichmentStats{UnresolvedPending: 3}, f.err
}

type fakeMappings struct {
	entityType mapping.EntityType
	internalID string
	providerID int64
}

func (f *fakeMappings) OverrideTeam(_ context.Context, internalID string, providerID int64, providerName string) (mapping.Mapping, error) {
	return f.record(mapping.EntityTeam, internalID, providerID, providerName), nil
}

func (f *fakeMappings) OverrideLeague(_ context.Context, internalID string, providerID int64, providerName string) (mapping.Mapping, error) {
	return f.record(mapping.EntityLeague, internalID, providerID, providerName), nil
}

func (f *fakeMappings) record(entityType mapping.EntityType, internalID string, providerID int64, providerName string) mapping.Mapping {
	f.entityType = entityType
	f.internalID = internalID
	f.providerID = providerID
	return mapping.Mapping{
		EntityType:   entityType,
		InternalID:   internalID,
		ProviderID:   providerID,
		ProviderName: providerName,
		Confidence:   mapping.ConfidenceHigh,
		Method:       mapping.MethodManual,
	}
}

type fakeUnresolved struct {
	unresolved.Repository
	lastType  mapping.EntityType
	lastLimit int
}

func (f *fakeUnresolved) ListPending(_ context.Context, entityType mapping.EntityType, limit int) ([]unresolved.Entity, error) {
	f.lastType = entityType
	f.lastLimit = limit
	return []unresolved.Entity{{ID: "u-1", EntityType: mapping.EntityTeam, InternalID: "t-9", Name: "Hammarby"}}, nil
}

type fakeJobs struct {
	matchID    int64
	dispatchID string
	queue      bool
	queued     bool
	sweepErr   error
}

func (f *fakeJobs) Sweep(_ context.Context) (usecase.SweepResult, error) {
	return usecase.SweepResult{Mode: "inline", MatchCount: 2}, f.sweepErr
}

func (f *fakeJobs) RunMatch(_ context.Context, matchID int64, dispatchID string) (usecase.EnsureReport, error) {
	f.matchID = matchID
	f.dispatchID = dispatchID
	return usecase.EnsureReport{MatchID: matchID}, nil
}

func (f *fakeJobs) RunResultSync(_ context.Context, queue bool) (usecase.ResultSyncReport, bool, error) {
	f.queue = queue
	if queue && f.queued {
		return usecase.ResultSyncReport{}, true, nil
	}
	return usecase.ResultSyncReport{Checked: 4, Recorded: 3}, false, nil
}

type fakeDispatches struct {
	mu     sync.Mutex
	events []jobscheduler.DispatchEvent
}

func (f *fakeDispatches) UpsertEvent(_ context.Context, event jobscheduler.DispatchEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

type testEnvelope struct {
	Data  map[string]any `json:"data"`
	Error *struct {
		Code   int    `json:"code"`
		Status string `json:"status"`
	} `json:"error"`
}

func newTestRouter(t *testing.T, deps HandlerDeps) http.Handler {
	t.Helper()
	deps.Logger = logging.NewNop()
	handler := NewHandler(deps)
	handler.now = func() time.Time { return time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC) }
	return NewRouter(handler, logging.NewNop(), RouterOptions{InternalJobToken: testJobToken})
}

func doRequest(t *testing.T, router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var out testEnvelope
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandler_EnsureMatchEnrichment(t *testing.T) {
	enrich := &fakeEnrichment{}
	router := newTestRouter(t, HandlerDeps{Enrichment: enrich})

	rec := doRequest(t, router, http.MethodPost, "/v1/matches/42/enrichment/ensure", `{"types":["market_odds","head_to_head"]}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []enrichment.DataType{enrichment.TypeHeadToHead, enrichment.TypeMarketOdds}, enrich.ensureTypes)
	body := decodeEnvelope(t, rec)
	assert.EqualValues(t, 42, body.Data["match_id"])
}

func TestHandler_EnsureMatchEnrichment_EmptyBodyMeansAllTypes(t *testing.T) {
	enrich := &fakeEnrichment{}
	router := newTestRouter(t, HandlerDeps{Enrichment: enrich})

	rec := doRequest(t, router, http.MethodPost, "/v1/matches/42/enrichment/ensure", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, enrichment.PriorityOrder, enrich.ensureTypes)
}

func TestHandler_EnsureMatchEnrichment_RejectsBadInput(t *testing.T) {
	router := newTestRouter(t, HandlerDeps{Enrichment: &fakeEnrichment{}})

	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "unknown type", path: "/v1/matches/42/enrichment/ensure", body: `{"types":["weather"]}`},
		{name: "unknown field", path: "/v1/matches/42/enrichment/ensure", body: `{"types":[],"force":true}`},
		{name: "bad match id", path: "/v1/matches/abc/enrichment/ensure", body: `{}`},
		{name: "zero match id", path: "/v1/matches/0/enrichment/ensure", body: `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, tt.path, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandler_EnsureMatchEnrichment_MapsProviderErrors(t *testing.T) {
	router := newTestRouter(t, HandlerDeps{Enrichment: &fakeEnrichment{err: usecase.ErrCircuitOpen}})

	rec := doRequest(t, router, http.MethodPost, "/v1/matches/42/enrichment/ensure", `{}`, nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeEnvelope(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "UNAVAILABLE", body.Error.Status)
}

func TestHandler_FetchMatchEnrichment(t *testing.T) {
	enrich := &fakeEnrichment{}
	router := newTestRouter(t, HandlerDeps{Enrichment: enrich})

	rec := doRequest(t, router, http.MethodPost, "/v1/matches/7/enrichment/fetch", `{"types":["injuries"],"mode":"sequential"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, usecase.FetchSequential, enrich.fetchMode)

	rec = doRequest(t, router, http.MethodPost, "/v1/matches/7/enrichment/fetch", `{"mode":"burst"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_ListMatchEnrichment_EmbedsPayload(t *testing.T) {
	enrich := &fakeEnrichment{records: []enrichment.Record{
		{MatchID: 5, DataType: enrichment.TypeInjuries, Payload: []byte(`[]`), Source: enrichment.SourceAPIFootball},
		{MatchID: 5, DataType: enrichment.TypePredictions, Payload: []byte(`{"advice":"Home"}`), Source: enrichment.SourceAPIFootball, IsStale: true},
	}}
	router := newTestRouter(t, HandlerDeps{Enrichment: enrich})

	rec := doRequest(t, router, http.MethodGet, "/v1/matches/5/enrichment", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []struct {
			DataType string         `json:"data_type"`
			IsStale  bool           `json:"is_stale"`
			Payload  map[string]any `json:"payload"`
		} `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "predictions", body.Data[1].DataType)
	assert.True(t, body.Data[1].IsStale)
	assert.Equal(t, "Home", body.Data[1].Payload["advice"])
}

func TestHandler_ResolveMatchReferences(t *testing.T) {
	router := newTestRouter(t, HandlerDeps{Enrichment: &fakeEnrichment{}})

	rec := doRequest(t, router, http.MethodPost, "/v1/matches/3/references", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.EqualValues(t, 900, body.Data["fixture_id"])
	assert.Equal(t, "high", body.Data["mapping_confidence"])
}

func TestHandler_OverrideMapping(t *testing.T) {
	mappings := &fakeMappings{}
	router := newTestRouter(t, HandlerDeps{Mappings: mappings})

	rec := doRequest(t, router, http.MethodPut, "/v1/mappings/league/allsvenskan", `{"provider_id":113,"provider_name":"Allsvenskan"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	headers := map[string]string{internalJobTokenHeader: testJobToken}
	rec = doRequest(t, router, http.MethodPut, "/v1/mappings/league/allsvenskan", `{"provider_id":113,"provider_name":"Allsvenskan"}`, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mapping.EntityLeague, mappings.entityType)
	assert.Equal(t, "allsvenskan", mappings.internalID)
	assert.EqualValues(t, 113, mappings.providerID)

	rec = doRequest(t, router, http.MethodPut, "/v1/mappings/player/x", `{"provider_id":1,"provider_name":"X"}`, headers)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPut, "/v1/mappings/team/x", `{"provider_id":0,"provider_name":"X"}`, headers)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_ListUnresolved(t *testing.T) {
	repo := &fakeUnresolved{}
	router := newTestRouter(t, HandlerDeps{Unresolved: repo})

	rec := doRequest(t, router, http.MethodGet, "/v1/mappings/unresolved?entity_type=teams&limit=9999", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mapping.EntityTeam, repo.lastType)
	assert.Equal(t, maxUnresolvedLimit, repo.lastLimit)

	rec = doRequest(t, router, http.MethodGet, "/v1/mappings/unresolved?limit=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_RunResultSync(t *testing.T) {
	jobs := &fakeJobs{queued: true}
	router := newTestRouter(t, HandlerDeps{Jobs: jobs})
	headers := map[string]string{internalJobTokenHeader: testJobToken}

	rec := doRequest(t, router, http.MethodPost, "/v1/results/sync", `{"queue":true}`, headers)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, jobs.queue)

	rec = doRequest(t, router, http.MethodPost, "/v1/results/sync", "", headers)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	report, ok := body.Data["report"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, report["recorded"])
}

func TestHandler_InternalAutoFetchJob(t *testing.T) {
	jobs := &fakeJobs{}
	router := newTestRouter(t, HandlerDeps{Jobs: jobs})
	headers := map[string]string{internalJobTokenHeader: testJobToken}

	rec := doRequest(t, router, http.MethodPost, usecase.JobPathEnrichmentAutoFetch, `{"dispatch_id":"d-1"}`, headers)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, usecase.JobPathEnrichmentAutoFetch, `{"match_id":7}`, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 7, jobs.matchID)
	assert.Equal(t, "manual-enrichment-auto-fetch-match-7-20260307T120000.000000000Z", jobs.dispatchID)

	rec = doRequest(t, router, http.MethodPost, usecase.JobPathEnrichmentAutoFetch, `{"match_id":8,"dispatch_id":"enrichment-auto-fetch-match-8-x"}`, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "enrichment-auto-fetch-match-8-x", jobs.dispatchID)
}

func TestHandler_InternalSweepJobRecordsDispatch(t *testing.T) {
	dispatches := &fakeDispatches{}
	router := newTestRouter(t, HandlerDeps{Jobs: &fakeJobs{}, JobDispatchRepo: dispatches})
	headers := map[string]string{internalJobTokenHeader: testJobToken}

	rec := doRequest(t, router, http.MethodPost, usecase.JobPathEnrichmentSweep, `{"dispatch_id":"sweep-1"}`, headers)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, dispatches.events, 1)
	event := dispatches.events[0]
	assert.Equal(t, "sweep-1", event.DispatchID)
	assert.Equal(t, jobscheduler.JobEnrichmentSweep, event.JobName)
	assert.Equal(t, "all", event.Scope)
	assert.Equal(t, jobscheduler.StatusCompleted, event.Status)
}

func TestHandler_InternalSweepJobFailureRecordsDispatch(t *testing.T) {
	dispatches := &fakeDispatches{}
	router := newTestRouter(t, HandlerDeps{Jobs: &fakeJobs{sweepErr: errors.New("db down")}, JobDispatchRepo: dispatches})
	headers := map[string]string{internalJobTokenHeader: testJobToken}

	rec := doRequest(t, router, http.MethodPost, usecase.JobPathEnrichmentSweep, "", headers)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Len(t, dispatches.events, 1)
	assert.Equal(t, jobscheduler.StatusFailed, dispatches.events[0].Status)
	assert.Equal(t, "db down", dispatches.events[0].ErrorMessage)
	assert.True(t, strings.HasPrefix(dispatches.events[0].DispatchID, "manual-enrichment-sweep-all-"))
}

func TestHandler_InternalJobRequiresConfiguredToken(t *testing.T) {
	handler := NewHandler(HandlerDeps{Jobs: &fakeJobs{}, Logger: logging.NewNop()})
	router := NewRouter(handler, logging.NewNop(), RouterOptions{})

	rec := doRequest(t, router, http.MethodPost, usecase.JobPathResultSync, "", map[string]string{internalJobTokenHeader: "anything"})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandler_Readyz(t *testing.T) {
	router := newTestRouter(t, HandlerDeps{Readiness: map[string]ReadinessCheck{
		"database": func(context.Context) error { return nil },
	}})
	rec := doRequest(t, router, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	router = newTestRouter(t, HandlerDeps{Readiness: map[string]ReadinessCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}})
	rec = doRequest(t, router, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandler_MissingServiceIsUnavailable(t *testing.T) {
	router := newTestRouter(t, HandlerDeps{})

	rec := doRequest(t, router, http.MethodGet, "/v1/provider/status", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandler_ValidateRequestNamesJSONFields(t *testing.T) {
	h := NewHandler(HandlerDeps{})

	err := h.validateRequest(context.Background(), mappingOverrideRequest{ProviderName: strings.Repeat("x", 201)})
	require.ErrorIs(t, err, usecase.ErrInvalidInput)
	assert.Contains(t, err.Error(), "provider_id failed required")
	assert.Contains(t, err.Error(), "provider_name failed max")

	require.NoError(t, h.validateRequest(context.Background(), mappingOverrideRequest{ProviderID: 3, ProviderName: "Arsenal"}))
}
