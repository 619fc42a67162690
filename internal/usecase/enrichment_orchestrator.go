package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/enrichment"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/mapping"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/match"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/unresolved"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/logging"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/metrics"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/resilience"
)

type FetchMode string

const (
	FetchSequential FetchMode = "sequential"
	FetchParallel   FetchMode = "parallel"
)

func ParseFetchMode(value string) (FetchMode, error) {
	switch FetchMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", FetchParallel:
		return FetchParallel, nil
	case FetchSequential:
		return FetchSequential, nil
	default:
		return "", fmt.Errorf("%w: unknown fetch mode %q", ErrInvalidInput, value)
	}
}

type TypeStatus string

const (
	TypeFresh   TypeStatus = "fresh"
	TypeStale   TypeStatus = "stale"
	TypeMissing TypeStatus = "missing"
)

const (
	fetchResultFetched = "fetched"
	fetchResultNoData  = "no_data"
	fetchResultFailed  = "failed"
	fetchResultSkipped = "skipped"
)

const (
	skipMissingTeams        = "missing_teams"
	skipMissingLeague       = "missing_league"
	skipMissingFixture      = "missing_fixture"
	skipLineupsDisabled     = "lineups_disabled"
	skipOutsideLineupTime   = "outside_lineup_window"
	skipProviderUnavailable = "provider_unavailable"
	skipCancelled           = "cancelled"
	skipQuotaGuard          = "quota_guard"
)

type EnrichmentConfig struct {
	AutoFetchTypes     []enrichment.DataType
	LineupsEnabled     bool
	LineupWindow       time.Duration
	SequentialDelay    time.Duration
	QuotaGuardRatio    float64
	ParallelMaxWorkers int
	HeadToHeadLimit    int
	Bookmakers         []string
}

func DefaultEnrichmentConfig() EnrichmentConfig {
	return EnrichmentConfig{
		AutoFetchTypes:     append([]enrichment.DataType(nil), enrichment.PriorityOrder...),
		LineupWindow:       90 * time.Minute,
		SequentialDelay:    time.Second,
		QuotaGuardRatio:    0.95,
		ParallelMaxWorkers: 8,
		HeadToHeadLimit:    10,
		Bookmakers:         append([]string(nil), DefaultBookmakers...),
	}
}

func normalizeEnrichmentConfig(cfg EnrichmentConfig) EnrichmentConfig {
	defaults := DefaultEnrichmentConfig()
	if len(cfg.AutoFetchTypes) == 0 {
		cfg.AutoFetchTypes = defaults.AutoFetchTypes
	}
	if cfg.LineupWindow <= 0 {
		cfg.LineupWindow = defaults.LineupWindow
	}
	if cfg.SequentialDelay < 0 {
		cfg.SequentialDelay = 0
	}
	if cfg.QuotaGuardRatio <= 0 || cfg.QuotaGuardRatio > 1 {
		cfg.QuotaGuardRatio = defaults.QuotaGuardRatio
	}
	if cfg.ParallelMaxWorkers <= 0 {
		cfg.ParallelMaxWorkers = defaults.ParallelMaxWorkers
	}
	if cfg.HeadToHeadLimit <= 0 {
		cfg.HeadToHeadLimit = defaults.HeadToHeadLimit
	}
	if len(cfg.Bookmakers) == 0 {
		cfg.Bookmakers = defaults.Bookmakers
	}
	return cfg
}

type EnrichmentOrchestratorDeps struct {
	Matches    match.Repository
	Records    enrichment.Repository
	Mappings   mapping.Repository
	Unresolved unresolved.Repository
	Matcher    *EntityMatcher
	Resolver   *FixtureResolver
	Catalog    ProviderCatalog
	Provider   EnrichmentProvider
	Monitor    ProviderMonitor
	Events     EventPublisher
	Metrics    *metrics.Recorder
	Config     EnrichmentConfig
	Logger     *logging.Logger
}

// EnrichmentOrchestrator keeps per-match enrichment records fresh. Each data
// type is fetched, normalized and stored independently, so one failing type
// never blocks the others.
type EnrichmentOrchestrator struct {
	matches    match.Repository
	records    enrichment.Repository
	mappings   mapping.Repository
	unresolved unresolved.Repository
	matcher    *EntityMatcher
	resolver   *FixtureResolver
	catalog    ProviderCatalog
	provider   EnrichmentProvider
	monitor    ProviderMonitor
	events     EventPublisher
	metrics    *metrics.Recorder
	cfg        EnrichmentConfig
	logger     *logging.Logger
	now        func() time.Time
	sleep      func(context.Context, time.Duration) error
}

func NewEnrichmentOrchestrator(deps EnrichmentOrchestratorDeps) *EnrichmentOrchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	events := deps.Events
	if events == nil {
		events = NoopEventPublisher{}
	}

	return &EnrichmentOrchestrator{
		matches:    deps.Matches,
		records:    deps.Records,
		mappings:   deps.Mappings,
		unresolved: deps.Unresolved,
		matcher:    deps.Matcher,
		resolver:   deps.Resolver,
		catalog:    deps.Catalog,
		provider:   deps.Provider,
		monitor:    deps.Monitor,
		events:     events,
		metrics:    deps.Metrics,
		cfg:        normalizeEnrichmentConfig(deps.Config),
		logger:     logger,
		now:        time.Now,
		sleep:      resilience.Sleep,
	}
}

// EnsureReport describes the state of each requested type before the run and
// what the run did about it.
type EnsureReport struct {
	MatchID      int64                              `json:"match_id"`
	Status       map[enrichment.DataType]TypeStatus `json:"status"`
	Fresh        []enrichment.DataType              `json:"fresh"`
	Stale        []enrichment.DataType              `json:"stale"`
	Missing      []enrichment.DataType              `json:"missing"`
	Fetched      []enrichment.DataType              `json:"fetched"`
	NoData       []enrichment.DataType              `json:"no_data"`
	Failed       []enrichment.DataType              `json:"failed"`
	Skipped      map[enrichment.DataType]string     `json:"skipped,omitempty"`
	QuotaGuarded bool                               `json:"quota_guarded"`
	Refs         match.ProviderRefs                 `json:"-"`
}

func newEnsureReport(matchID int64) EnsureReport {
	return EnsureReport{
		MatchID: matchID,
		Status:  make(map[enrichment.DataType]TypeStatus),
		Fresh:   []enrichment.DataType{},
		Stale:   []enrichment.DataType{},
		Missing: []enrichment.DataType{},
		Fetched: []enrichment.DataType{},
		NoData:  []enrichment.DataType{},
		Failed:  []enrichment.DataType{},
		Skipped: make(map[enrichment.DataType]string),
	}
}

type typeOutcome struct {
	dataType enrichment.DataType
	result   string
	reason   string
	err      error
}

func (r *EnsureReport) apply(outcomes []typeOutcome) {
	for _, item := range outcomes {
		switch item.result {
		case fetchResultFetched:
			r.Fetched = append(r.Fetched, item.dataType)
		case fetchResultNoData:
			r.NoData = append(r.NoData, item.dataType)
		case fetchResultFailed:
			r.Failed = append(r.Failed, item.dataType)
		default:
			r.Skipped[item.dataType] = item.reason
		}
	}
}

// EnsureMatchData reports freshness for the requested types and fetches the
// missing and stale ones sequentially in priority order. Fresh types cost no
// provider call.
func (o *EnrichmentOrchestrator) EnsureMatchData(ctx context.Context, matchID int64, types []enrichment.DataType) (EnsureReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EnrichmentOrchestrator.EnsureMatchData", matchAttr(matchID))
	defer span.End()

	report, err := o.ensure(ctx, matchID, types)
	return report, failSpan(span, err)
}

// RunAutoFetch is the background variant of EnsureMatchData over the
// configured auto-fetch types.
func (o *EnrichmentOrchestrator) RunAutoFetch(ctx context.Context, matchID int64) (EnsureReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EnrichmentOrchestrator.RunAutoFetch", matchAttr(matchID))
	defer span.End()

	report, err := o.ensure(ctx, matchID, o.cfg.AutoFetchTypes)
	return report, failSpan(span, err)
}

func (o *EnrichmentOrchestrator) ensure(ctx context.Context, matchID int64, types []enrichment.DataType) (EnsureReport, error) {
	item, err := o.loadMatch(ctx, matchID)
	if err != nil {
		return EnsureReport{}, err
	}
	types, err = validTypes(types)
	if err != nil {
		return EnsureReport{}, err
	}

	report := newEnsureReport(matchID)
	pending, err := o.classify(ctx, matchID, types, &report)
	if err != nil {
		return EnsureReport{}, err
	}
	if len(pending) == 0 {
		return report, nil
	}

	if o.quotaGuarded() {
		report.QuotaGuarded = true
		for _, dataType := range pending {
			report.Skipped[dataType] = skipQuotaGuard
		}
		o.logger.WarnContext(ctx, "enrichment run skipped by quota guard", "match_id", matchID, "pending", len(pending))
		return report, nil
	}

	item, err = o.ensureRefs(ctx, item)
	if err != nil {
		return EnsureReport{}, err
	}
	report.Refs = item.Refs

	report.apply(o.fetchSequential(ctx, item, pending))
	o.publishCompleted(ctx, item.ID, report)
	return report, nil
}

// FetchNow fetches the requested types right away. Fresh types are reported
// as available without a provider call. In parallel mode every eligible type
// is fetched concurrently; eligibility depends only on which provider
// references the match has.
func (o *EnrichmentOrchestrator) FetchNow(ctx context.Context, matchID int64, types []enrichment.DataType, mode FetchMode) (map[enrichment.DataType]bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EnrichmentOrchestrator.FetchNow", matchAttr(matchID), attribute.String("mode", string(mode)))
	defer span.End()

	if mode == FetchSequential {
		report, err := o.ensure(ctx, matchID, types)
		if err != nil {
			return nil, err
		}
		return report.availability(), nil
	}

	item, err := o.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	types, err = validTypes(types)
	if err != nil {
		return nil, err
	}

	report := newEnsureReport(matchID)
	pending, err := o.classify(ctx, matchID, types, &report)
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		item, err = o.ensureRefs(ctx, item)
		if err != nil {
			return nil, err
		}
		report.apply(o.fetchParallel(ctx, item, pending))
		o.publishCompleted(ctx, item.ID, report)
	}
	return report.availability(), nil
}

func (r EnsureReport) availability() map[enrichment.DataType]bool {
	out := make(map[enrichment.DataType]bool, len(r.Status))
	for dataType := range r.Status {
		out[dataType] = false
	}
	for _, dataType := range r.Fresh {
		out[dataType] = true
	}
	for _, dataType := range r.Fetched {
		out[dataType] = true
	}
	return out
}

// EnsureReferences resolves the league, both teams and the fixture for a
// match and stores the provider ids on the match once they are known.
func (o *EnrichmentOrchestrator) EnsureReferences(ctx context.Context, matchID int64) (match.ProviderRefs, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EnrichmentOrchestrator.EnsureReferences", matchAttr(matchID))
	defer span.End()

	item, err := o.loadMatch(ctx, matchID)
	if err != nil {
		return match.ProviderRefs{}, err
	}
	item, err = o.ensureRefs(ctx, item)
	if err != nil {
		return match.ProviderRefs{}, err
	}
	return item.Refs, nil
}

// Records returns the stored records of a match with staleness evaluated now.
func (o *EnrichmentOrchestrator) Records(ctx context.Context, matchID int64) ([]enrichment.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EnrichmentOrchestrator.Records", matchAttr(matchID))
	defer span.End()

	if _, err := o.loadMatch(ctx, matchID); err != nil {
		return nil, err
	}
	items, err := o.records.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list enrichment records match_id=%d: %w", matchID, err)
	}
	now := o.now()
	for i := range items {
		items[i] = items[i].WithStaleness(now)
	}
	return items, nil
}

type EnrichmentStats struct {
	Teams              mapping.Summary             `json:"teams"`
	Leagues            mapping.Summary             `json:"leagues"`
	UnresolvedPending  int                         `json:"unresolved_pending"`
	MatchesWithFixture int                         `json:"matches_with_fixture"`
	RecordsByType      map[enrichment.DataType]int `json:"records_by_type"`
}

func (o *EnrichmentOrchestrator) Stats(ctx context.Context) (EnrichmentStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EnrichmentOrchestrator.Stats")
	defer span.End()

	teams, err := o.mappings.Summarize(ctx, mapping.EntityTeam)
	if err != nil {
		return EnrichmentStats{}, fmt.Errorf("summarize team mappings: %w", err)
	}
	leagues, err := o.mappings.Summarize(ctx, mapping.EntityLeague)
	if err != nil {
		return EnrichmentStats{}, fmt.Errorf("summarize league mappings: %w", err)
	}
	pending, err := o.unresolved.CountPending(ctx)
	if err != nil {
		return EnrichmentStats{}, fmt.Errorf("count unresolved entities: %w", err)
	}
	withFixture, err := o.matches.CountWithFixture(ctx)
	if err != nil {
		return EnrichmentStats{}, fmt.Errorf("count matches with fixture: %w", err)
	}
	byType, err := o.records.CountByType(ctx)
	if err != nil {
		return EnrichmentStats{}, fmt.Errorf("count enrichment records: %w", err)
	}

	return EnrichmentStats{
		Teams:              teams,
		Leagues:            leagues,
		UnresolvedPending:  pending,
		MatchesWithFixture: withFixture,
		RecordsByType:      byType,
	}, nil
}

func (o *EnrichmentOrchestrator) loadMatch(ctx context.Context, matchID int64) (match.Match, error) {
	if matchID <= 0 {
		return match.Match{}, fmt.Errorf("%w: match id must be > 0", ErrInvalidInput)
	}
	item, ok, err := o.matches.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match id=%d: %w", matchID, err)
	}
	if !ok {
		return match.Match{}, fmt.Errorf("%w: match id=%d", ErrNotFound, matchID)
	}
	return item, nil
}

func validTypes(types []enrichment.DataType) ([]enrichment.DataType, error) {
	if len(types) == 0 {
		return append([]enrichment.DataType(nil), enrichment.PriorityOrder...), nil
	}
	set := make(map[enrichment.DataType]struct{}, len(types))
	for _, dataType := range types {
		if !dataType.Valid() {
			return nil, fmt.Errorf("%w: unknown data type %q", ErrInvalidInput, dataType)
		}
		set[dataType] = struct{}{}
	}
	return enrichment.SortByPriority(set), nil
}

// classify fills the report status for each type and returns the types that
// need a fetch, in priority order.
func (o *EnrichmentOrchestrator) classify(ctx context.Context, matchID int64, types []enrichment.DataType, report *EnsureReport) ([]enrichment.DataType, error) {
	existing, err := o.records.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list enrichment records match_id=%d: %w", matchID, err)
	}
	byType := make(map[enrichment.DataType]enrichment.Record, len(existing))
	for _, record := range existing {
		byType[record.DataType] = record
	}

	now := o.now()
	pending := make([]enrichment.DataType, 0, len(types))
	for _, dataType := range types {
		record, ok := byType[dataType]
		switch {
		case !ok:
			report.Status[dataType] = TypeMissing
			report.Missing = append(report.Missing, dataType)
			pending = append(pending, dataType)
		case record.IsStale || record.StaleAt(now):
			report.Status[dataType] = TypeStale
			report.Stale = append(report.Stale, dataType)
			pending = append(pending, dataType)
		default:
			report.Status[dataType] = TypeFresh
			report.Fresh = append(report.Fresh, dataType)
		}
	}
	return pending, nil
}

func (o *EnrichmentOrchestrator) quotaGuarded() bool {
	if o.monitor == nil {
		return false
	}
	snapshot := o.monitor.QuotaSnapshot()
	return snapshot.Limit > 0 && snapshot.UsedRatio >= o.cfg.QuotaGuardRatio
}

func (o *EnrichmentOrchestrator) fetchSequential(ctx context.Context, item match.Match, types []enrichment.DataType) []typeOutcome {
	out := make([]typeOutcome, 0, len(types))
	issued := false
	for i, dataType := range types {
		if reason := o.ineligible(item, dataType); reason != "" {
			out = append(out, typeOutcome{dataType: dataType, result: fetchResultSkipped, reason: reason})
			continue
		}
		if ctx.Err() != nil {
			out = append(out, typeOutcome{dataType: dataType, result: fetchResultSkipped, reason: skipCancelled})
			continue
		}
		if issued && o.cfg.SequentialDelay > 0 {
			if err := o.sleep(ctx, o.cfg.SequentialDelay); err != nil {
				out = append(out, typeOutcome{dataType: dataType, result: fetchResultSkipped, reason: skipCancelled})
				continue
			}
		}
		issued = true

		outcome := o.fetchOne(ctx, item, dataType)
		out = append(out, outcome)
		if providerUnavailable(outcome.err) {
			for _, rest := range types[i+1:] {
				out = append(out, typeOutcome{dataType: rest, result: fetchResultSkipped, reason: skipProviderUnavailable})
			}
			break
		}
	}
	return out
}

func (o *EnrichmentOrchestrator) fetchParallel(ctx context.Context, item match.Match, types []enrichment.DataType) []typeOutcome {
	out := make([]typeOutcome, len(types))
	workers := pool.New().WithMaxGoroutines(o.cfg.ParallelMaxWorkers)
	for i, dataType := range types {
		if reason := o.ineligible(item, dataType); reason != "" {
			out[i] = typeOutcome{dataType: dataType, result: fetchResultSkipped, reason: reason}
			continue
		}
		workers.Go(func() {
			out[i] = o.fetchOne(ctx, item, dataType)
		})
	}
	workers.Wait()
	return out
}

func providerUnavailable(err error) bool {
	return errors.Is(err, ErrQuotaExhausted) || errors.Is(err, ErrCircuitOpen)
}

func (o *EnrichmentOrchestrator) ineligible(item match.Match, dataType enrichment.DataType) string {
	refs := item.Refs
	switch dataType.Prerequisite() {
	case enrichment.PrereqTeams:
		if !refs.HasTeams() {
			return skipMissingTeams
		}
	case enrichment.PrereqLeague:
		if !refs.HasLeague() {
			return skipMissingLeague
		}
		if dataType == enrichment.TypeTeamSeasonStats && !refs.HasTeams() {
			return skipMissingTeams
		}
	case enrichment.PrereqFixture:
		if !refs.HasFixture() {
			return skipMissingFixture
		}
	}

	if dataType == enrichment.TypeLineups {
		if !o.cfg.LineupsEnabled {
			return skipLineupsDisabled
		}
		if o.now().Before(item.KickoffAt.Add(-o.cfg.LineupWindow)) {
			return skipOutsideLineupTime
		}
	}
	return ""
}

// keepsEmpty lists types where an empty answer is itself information: no
// injuries, or teams that never met.
func keepsEmpty(dataType enrichment.DataType) bool {
	return dataType == enrichment.TypeInjuries || dataType == enrichment.TypeHeadToHead
}

func (o *EnrichmentOrchestrator) fetchOne(ctx context.Context, item match.Match, dataType enrichment.DataType) typeOutcome {
	start := o.now()
	payload, hasData, err := o.fetchPayload(ctx, item, dataType)
	if err != nil {
		o.metrics.RecordEnrichmentFetch(string(dataType), fetchResultFailed)
		o.logger.WarnContext(ctx, "enrichment fetch failed",
			"match_id", item.ID,
			"data_type", dataType,
			"error", err,
		)
		return typeOutcome{dataType: dataType, result: fetchResultFailed, err: err}
	}
	if !hasData && !keepsEmpty(dataType) {
		o.metrics.RecordEnrichmentFetch(string(dataType), fetchResultNoData)
		o.logger.InfoContext(ctx, "enrichment no data", "match_id", item.ID, "data_type", dataType)
		return typeOutcome{dataType: dataType, result: fetchResultNoData}
	}

	raw, err := sonic.Marshal(payload)
	if err != nil {
		o.metrics.RecordEnrichmentFetch(string(dataType), fetchResultFailed)
		return typeOutcome{dataType: dataType, result: fetchResultFailed, err: fmt.Errorf("encode %s payload: %w", dataType, err)}
	}
	record := enrichment.Record{
		MatchID:   item.ID,
		DataType:  dataType,
		Payload:   raw,
		Source:    enrichment.SourceAPIFootball,
		FetchedAt: o.now().UTC(),
	}
	if err := o.records.Upsert(ctx, record); err != nil {
		o.metrics.RecordEnrichmentFetch(string(dataType), fetchResultFailed)
		o.logger.ErrorContext(ctx, "store enrichment record failed",
			"match_id", item.ID,
			"data_type", dataType,
			"error", err,
		)
		return typeOutcome{dataType: dataType, result: fetchResultFailed, err: err}
	}

	o.metrics.RecordEnrichmentFetch(string(dataType), fetchResultFetched)
	o.logger.DebugContext(ctx, "enrichment stored",
		"match_id", item.ID,
		"data_type", dataType,
		"bytes", len(raw),
		"duration_ms", o.now().Sub(start).Milliseconds(),
	)
	return typeOutcome{dataType: dataType, result: fetchResultFetched}
}

func (o *EnrichmentOrchestrator) fetchPayload(ctx context.Context, item match.Match, dataType enrichment.DataType) (any, bool, error) {
	refs := item.Refs
	switch dataType {
	case enrichment.TypeHeadToHead:
		fixtures, err := o.provider.HeadToHead(ctx, refs.HomeTeamID, refs.AwayTeamID, o.cfg.HeadToHeadLimit)
		if err != nil {
			return nil, false, err
		}
		return normalizeHeadToHead(fixtures, refs.HomeTeamID), len(fixtures) > 0, nil

	case enrichment.TypeTeamSeasonStats:
		out := TeamSeasonStatsPayload{LeagueID: refs.LeagueID, Season: refs.Season}
		home, homeOK, err := o.provider.TeamStatistics(ctx, refs.LeagueID, refs.Season, refs.HomeTeamID)
		if err != nil {
			return nil, false, err
		}
		away, awayOK, err := o.provider.TeamStatistics(ctx, refs.LeagueID, refs.Season, refs.AwayTeamID)
		if err != nil {
			return nil, false, err
		}
		if homeOK {
			out.Home = normalizeTeamSeasonStats(home)
		}
		if awayOK {
			out.Away = normalizeTeamSeasonStats(away)
		}
		return out, homeOK || awayOK, nil

	case enrichment.TypeStandings:
		rows, err := o.provider.Standings(ctx, refs.LeagueID, refs.Season)
		if err != nil {
			return nil, false, err
		}
		return normalizeStandings(rows, refs), len(rows) > 0, nil

	case enrichment.TypeStatistics:
		stats, err := o.provider.FixtureStatistics(ctx, refs.FixtureID)
		if err != nil {
			return nil, false, err
		}
		return normalizeFixtureStatistics(stats, refs), len(stats) > 0, nil

	case enrichment.TypeInjuries:
		injuries, err := o.provider.Injuries(ctx, refs.FixtureID)
		if err != nil {
			return nil, false, err
		}
		return normalizeInjuries(injuries, refs), len(injuries) > 0, nil

	case enrichment.TypePredictions:
		prediction, ok, err := o.provider.Predictions(ctx, refs.FixtureID)
		if err != nil {
			return nil, false, err
		}
		return normalizePrediction(prediction), ok, nil

	case enrichment.TypeLineups:
		lineups, err := o.provider.Lineups(ctx, refs.FixtureID)
		if err != nil {
			return nil, false, err
		}
		return normalizeLineups(lineups, refs), len(lineups) > 0, nil

	case enrichment.TypeMarketOdds:
		odds, err := o.provider.Odds(ctx, refs.FixtureID)
		if err != nil {
			return nil, false, err
		}
		payload, ok := normalizeMarketOdds(odds, o.cfg.Bookmakers)
		return payload, ok, nil
	}
	return nil, false, fmt.Errorf("%w: unsupported data type %q", ErrInvalidInput, dataType)
}

// ensureRefs fills in whatever provider references are still missing.
// Provider failures leave a reference unset for the next run; only storage
// failures are returned.
func (o *EnrichmentOrchestrator) ensureRefs(ctx context.Context, item match.Match) (match.Match, error) {
	refs := item.Refs
	confidence := mapping.Confidence(refs.MappingConfidence)
	changed := false

	note := func(found *mapping.Mapping) {
		changed = true
		confidence = lowerConfidence(confidence, found.Confidence)
	}

	if refs.LeagueID == 0 && strings.TrimSpace(item.LeagueID) != "" && o.matcher != nil {
		found, err := o.matcher.MatchLeague(ctx, LeagueQuery{InternalID: item.LeagueID, Name: item.LeagueName, Country: item.Country})
		if err != nil {
			o.logger.WarnContext(ctx, "league match failed", "match_id", item.ID, "league_id", item.LeagueID, "error", err)
		} else if found != nil {
			refs.LeagueID = found.ProviderID
			note(found)
		}
	}

	if refs.LeagueID > 0 && refs.Season == 0 && o.catalog != nil {
		league, ok, err := o.catalog.LeagueByID(ctx, refs.LeagueID)
		if err != nil {
			o.logger.WarnContext(ctx, "league season lookup failed", "match_id", item.ID, "provider_league_id", refs.LeagueID, "error", err)
		} else if ok {
			if season, found := league.SeasonFor(item.KickoffAt); found {
				refs.Season = season
				changed = true
			}
		}
	}

	sides := []struct {
		internalID string
		name       string
		target     *int64
	}{
		{item.HomeTeamID, item.HomeTeamName, &refs.HomeTeamID},
		{item.AwayTeamID, item.AwayTeamName, &refs.AwayTeamID},
	}
	for _, side := range sides {
		if *side.target != 0 || strings.TrimSpace(side.internalID) == "" || o.matcher == nil {
			continue
		}
		found, err := o.matcher.MatchTeam(ctx, TeamQuery{
			InternalID:       side.internalID,
			Name:             side.name,
			LeagueProviderID: refs.LeagueID,
			Season:           refs.Season,
			Country:          item.Country,
		})
		if err != nil {
			o.logger.WarnContext(ctx, "team match failed", "match_id", item.ID, "team_id", side.internalID, "error", err)
			continue
		}
		if found != nil {
			*side.target = found.ProviderID
			note(found)
		}
	}

	if refs.FixtureID == 0 && refs.HasTeams() && o.resolver != nil {
		fixture, err := o.resolver.Resolve(ctx, FixtureQuery{
			HomeTeamID: refs.HomeTeamID,
			AwayTeamID: refs.AwayTeamID,
			Date:       item.KickoffAt,
			LeagueID:   refs.LeagueID,
			Season:     refs.Season,
		})
		if err != nil {
			o.logger.WarnContext(ctx, "fixture resolve failed", "match_id", item.ID, "error", err)
		} else if fixture != nil {
			refs.FixtureID = fixture.FixtureID
			if refs.LeagueID == 0 {
				refs.LeagueID = fixture.LeagueID
			}
			if refs.Season == 0 {
				refs.Season = fixture.Season
			}
			changed = true
		}
	}

	if !changed {
		return item, nil
	}
	refs.MappingConfidence = string(confidence)
	if err := o.matches.UpdateProviderRefs(ctx, item.ID, refs); err != nil {
		return match.Match{}, fmt.Errorf("update provider refs match_id=%d: %w", item.ID, err)
	}
	item.Refs = refs
	o.logger.InfoContext(ctx, "provider references updated",
		"match_id", item.ID,
		"fixture_id", refs.FixtureID,
		"league_id", refs.LeagueID,
		"season", refs.Season,
		"confidence", refs.MappingConfidence,
	)
	return item, nil
}

var confidenceRank = map[mapping.Confidence]int{
	mapping.ConfidenceHigh:   3,
	mapping.ConfidenceMedium: 2,
	mapping.ConfidenceLow:    1,
}

func lowerConfidence(current, next mapping.Confidence) mapping.Confidence {
	if current == "" {
		return next
	}
	if confidenceRank[next] < confidenceRank[current] {
		return next
	}
	return current
}

func (o *EnrichmentOrchestrator) publishCompleted(ctx context.Context, matchID int64, report EnsureReport) {
	if len(report.Fetched) == 0 {
		return
	}
	err := o.events.Publish(ctx, Event{
		Type:       EventEnrichmentCompleted,
		MatchID:    matchID,
		Payload:    map[string]any{"fetched": report.Fetched, "failed": report.Failed},
		OccurredAt: o.now().UTC(),
	})
	if err != nil {
		o.logger.WarnContext(ctx, "publish enrichment event failed", "match_id", matchID, "error", err)
	}
}
