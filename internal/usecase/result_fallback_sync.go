package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/match"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/logging"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/metrics"
)

// ResultSourceFallback tags results recorded from the provider rather than
// the primary results feed.
const ResultSourceFallback = "api-football-fallback"

const (
	syncStatusRecorded   = "recorded"
	syncStatusTerminal   = "terminal"
	syncStatusPending    = "pending"
	syncStatusUnresolved = "unresolved"
	syncStatusFailed     = "failed"
)

// FixtureState is how a provider status code affects result bookkeeping.
// Terminal fixtures will not change any more; only finished ones carry a
// score.
type FixtureState struct {
	Short      string
	Status     string
	IsFinished bool
	IsTerminal bool
}

// ClassifyFixtureStatus maps a provider short status code.
func ClassifyFixtureStatus(short string) FixtureState {
	short = strings.ToUpper(strings.TrimSpace(short))
	state := FixtureState{Short: short}
	switch short {
	case "FT", "AET", "PEN":
		state.Status = match.StatusFinished
		state.IsFinished = true
		state.IsTerminal = true
	case "PST":
		state.Status = match.StatusPostponed
		state.IsTerminal = true
	case "CANC":
		state.Status = match.StatusCancelled
		state.IsTerminal = true
	case "ABD":
		state.Status = match.StatusAbandoned
		state.IsTerminal = true
	case "AWD":
		state.Status = match.StatusAwarded
		state.IsTerminal = true
	case "WO":
		state.Status = match.StatusWalkover
		state.IsTerminal = true
	case "1H", "HT", "2H", "ET", "BT", "P", "LIVE", "INT", "SUSP":
		state.Status = match.StatusLive
	default:
		state.Status = match.StatusScheduled
	}
	return state
}

// RegulationResult returns the score after 90 minutes. For fixtures decided
// in extra time or on penalties the provider's full-time score is still the
// regulation score; the final goals are used only when no full-time score
// was reported for a fixture that ended in regulation.
func RegulationResult(fixture ExternalFixture) (match.Result, bool) {
	score := fixture.FullTime
	if !score.Complete() {
		if short := strings.ToUpper(fixture.StatusShort); short == "AET" || short == "PEN" {
			return match.Result{}, false
		}
		score = fixture.Goals
	}
	if !score.Complete() || *score.Home < 0 || *score.Away < 0 {
		return match.Result{}, false
	}
	return match.Result{
		HomeScore: *score.Home,
		AwayScore: *score.Away,
		Outcome:   match.OutcomeFromScore(*score.Home, *score.Away),
		Source:    ResultSourceFallback,
	}, true
}

// ReferenceResolver ensures a match has provider references.
type ReferenceResolver interface {
	EnsureReferences(ctx context.Context, matchID int64) (match.ProviderRefs, error)
}

type ResultSyncConfig struct {
	Grace      time.Duration
	MaxWorkers int
}

func DefaultResultSyncConfig() ResultSyncConfig {
	return ResultSyncConfig{
		Grace:      48 * time.Hour,
		MaxWorkers: 4,
	}
}

type ResultFallbackSyncDeps struct {
	Matches    match.Repository
	Fixtures   FixtureProvider
	References ReferenceResolver
	Events     EventPublisher
	Metrics    *metrics.Recorder
	Config     ResultSyncConfig
	Logger     *logging.Logger
}

// ResultFallbackSync records final results the primary feed never delivered.
type ResultFallbackSync struct {
	matches    match.Repository
	fixtures   FixtureProvider
	references ReferenceResolver
	events     EventPublisher
	metrics    *metrics.Recorder
	cfg        ResultSyncConfig
	logger     *logging.Logger
	now        func() time.Time
}

func NewResultFallbackSync(deps ResultFallbackSyncDeps) *ResultFallbackSync {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	events := deps.Events
	if events == nil {
		events = NoopEventPublisher{}
	}
	cfg := deps.Config
	defaults := DefaultResultSyncConfig()
	if cfg.Grace <= 0 {
		cfg.Grace = defaults.Grace
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = defaults.MaxWorkers
	}

	return &ResultFallbackSync{
		matches:    deps.Matches,
		fixtures:   deps.Fixtures,
		references: deps.References,
		events:     events,
		metrics:    deps.Metrics,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

type ResultSyncItem struct {
	MatchID   int64  `json:"match_id"`
	FixtureID int64  `json:"fixture_id,omitempty"`
	Status    string `json:"status"`
	Provider  string `json:"provider_status,omitempty"`
	Score     string `json:"score,omitempty"`
	Message   string `json:"message,omitempty"`
}

type ResultSyncReport struct {
	Competitions int              `json:"competitions"`
	Checked      int              `json:"checked"`
	Recorded     int              `json:"recorded"`
	Terminal     int              `json:"terminal"`
	Pending      int              `json:"pending"`
	Unresolved   int              `json:"unresolved"`
	Failed       int              `json:"failed"`
	Items        []ResultSyncItem `json:"items"`
	DurationMs   int64            `json:"duration_ms"`
}

// Run checks every competition whose last match kicked off more than the
// grace period ago and records whatever results the provider has.
func (s *ResultFallbackSync) Run(ctx context.Context) (ResultSyncReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultFallbackSync.Run")
	defer span.End()

	start := s.now()
	cutoff := start.Add(-s.cfg.Grace)
	competitions, err := s.matches.ListCompetitionsAwaitingResults(ctx, cutoff)
	if err != nil {
		return ResultSyncReport{}, fmt.Errorf("list competitions awaiting results: %w", err)
	}

	report := ResultSyncReport{Competitions: len(competitions), Items: []ResultSyncItem{}}
	missing := make([]match.Match, 0)
	for _, competitionID := range competitions {
		items, err := s.matches.ListMissingResults(ctx, competitionID)
		if err != nil {
			return ResultSyncReport{}, fmt.Errorf("list missing results competition_id=%d: %w", competitionID, err)
		}
		missing = append(missing, items...)
	}
	if len(missing) == 0 {
		return report, nil
	}

	workerCount := min(s.cfg.MaxWorkers, len(missing))
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return ResultSyncReport{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make(chan ResultSyncItem, len(missing))
	var recorded, terminal, pending, unresolvedCount, failed atomic.Int32

	var workers sync.WaitGroup
	for _, item := range missing {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			row := s.syncMatch(ctx, item)
			switch row.Status {
			case syncStatusRecorded:
				recorded.Add(1)
			case syncStatusTerminal:
				terminal.Add(1)
			case syncStatusPending:
				pending.Add(1)
			case syncStatusUnresolved:
				unresolvedCount.Add(1)
			default:
				failed.Add(1)
			}
			s.metrics.RecordResultSync(row.Status)
			results <- row
		}); err != nil {
			workers.Done()
			return ResultSyncReport{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		report.Items = append(report.Items, row)
	}
	sort.Slice(report.Items, func(i, j int) bool { return report.Items[i].MatchID < report.Items[j].MatchID })

	report.Checked = len(missing)
	report.Recorded = int(recorded.Load())
	report.Terminal = int(terminal.Load())
	report.Pending = int(pending.Load())
	report.Unresolved = int(unresolvedCount.Load())
	report.Failed = int(failed.Load())
	report.DurationMs = s.now().Sub(start).Milliseconds()

	s.logger.InfoContext(ctx, "result fallback sync finished",
		"competitions", report.Competitions,
		"checked", report.Checked,
		"recorded", report.Recorded,
		"terminal", report.Terminal,
		"pending", report.Pending,
		"unresolved", report.Unresolved,
		"failed", report.Failed,
	)
	return report, nil
}

func (s *ResultFallbackSync) syncMatch(ctx context.Context, item match.Match) ResultSyncItem {
	row := ResultSyncItem{MatchID: item.ID, FixtureID: item.Refs.FixtureID}

	if !item.Refs.HasFixture() {
		if s.references == nil {
			row.Status = syncStatusUnresolved
			return row
		}
		refs, err := s.references.EnsureReferences(ctx, item.ID)
		if err != nil {
			row.Status = syncStatusFailed
			row.Message = err.Error()
			return row
		}
		if !refs.HasFixture() {
			row.Status = syncStatusUnresolved
			row.Message = "fixture not resolved"
			return row
		}
		row.FixtureID = refs.FixtureID
	}

	fixture, ok, err := s.fixtures.FixtureByID(ctx, row.FixtureID, true)
	if err != nil {
		s.logger.WarnContext(ctx, "result sync fixture fetch failed", "match_id", item.ID, "fixture_id", row.FixtureID, "error", err)
		row.Status = syncStatusFailed
		row.Message = err.Error()
		return row
	}
	if !ok {
		row.Status = syncStatusFailed
		row.Message = "fixture not found at provider"
		return row
	}

	state := ClassifyFixtureStatus(fixture.StatusShort)
	row.Provider = state.Short
	switch {
	case state.IsFinished:
		result, ok := RegulationResult(fixture)
		if !ok {
			row.Status = syncStatusFailed
			row.Message = "finished fixture without regulation score"
			return row
		}
		if err := s.matches.UpdateResult(ctx, item.ID, result); err != nil {
			row.Status = syncStatusFailed
			row.Message = err.Error()
			return row
		}
		row.Status = syncStatusRecorded
		row.Score = formatScore(result.HomeScore, result.AwayScore)
		s.publishResult(ctx, item.ID, result)

	case state.IsTerminal:
		if err := s.matches.UpdateStatus(ctx, item.ID, state.Status); err != nil {
			row.Status = syncStatusFailed
			row.Message = err.Error()
			return row
		}
		row.Status = syncStatusTerminal

	default:
		row.Status = syncStatusPending
	}
	return row
}

func (s *ResultFallbackSync) publishResult(ctx context.Context, matchID int64, result match.Result) {
	err := s.events.Publish(ctx, Event{
		Type:       EventResultRecorded,
		MatchID:    matchID,
		Payload:    result,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "publish result event failed", "match_id", matchID, "error", err)
	}
}

type ResultDiscrepancy struct {
	MatchID         int64         `json:"match_id"`
	FixtureID       int64         `json:"fixture_id"`
	RecordedScore   string        `json:"recorded_score"`
	ProviderScore   string        `json:"provider_score"`
	RecordedOutcome match.Outcome `json:"recorded_outcome"`
	ProviderOutcome match.Outcome `json:"provider_outcome"`
}

type ReconcileReport struct {
	CompetitionID int64               `json:"competition_id"`
	Compared      int                 `json:"compared"`
	Matching      int                 `json:"matching"`
	Unchecked     int                 `json:"unchecked"`
	Discrepancies []ResultDiscrepancy `json:"discrepancies"`
}

// Reconcile compares recorded results against the provider's regulation
// scores. It never writes.
func (s *ResultFallbackSync) Reconcile(ctx context.Context, competitionID int64) (ReconcileReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultFallbackSync.Reconcile", attribute.Int64("competition_id", competitionID))
	defer span.End()

	if competitionID <= 0 {
		return ReconcileReport{}, fmt.Errorf("%w: competition id must be > 0", ErrInvalidInput)
	}
	items, err := s.matches.ListWithResults(ctx, competitionID)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("list results competition_id=%d: %w", competitionID, err)
	}

	report := ReconcileReport{CompetitionID: competitionID, Discrepancies: []ResultDiscrepancy{}}
	for _, item := range items {
		if !item.Refs.HasFixture() {
			report.Unchecked++
			continue
		}
		fixture, ok, err := s.fixtures.FixtureByID(ctx, item.Refs.FixtureID, false)
		if err != nil {
			return ReconcileReport{}, fmt.Errorf("get fixture id=%d: %w", item.Refs.FixtureID, err)
		}
		if !ok || !ClassifyFixtureStatus(fixture.StatusShort).IsFinished {
			report.Unchecked++
			continue
		}
		result, ok := RegulationResult(fixture)
		if !ok {
			report.Unchecked++
			continue
		}

		report.Compared++
		if *item.HomeScore == result.HomeScore && *item.AwayScore == result.AwayScore && item.Outcome == result.Outcome {
			report.Matching++
			continue
		}
		report.Discrepancies = append(report.Discrepancies, ResultDiscrepancy{
			MatchID:         item.ID,
			FixtureID:       item.Refs.FixtureID,
			RecordedScore:   formatScore(*item.HomeScore, *item.AwayScore),
			ProviderScore:   formatScore(result.HomeScore, result.AwayScore),
			RecordedOutcome: item.Outcome,
			ProviderOutcome: result.Outcome,
		})
	}

	if len(report.Discrepancies) > 0 {
		s.logger.WarnContext(ctx, "result discrepancies found",
			"competition_id", competitionID,
			"count", len(report.Discrepancies),
		)
	}
	return report, nil
}

func formatScore(home, away int) string {
	return fmt.Sprintf("%d-%d", home, away)
}
