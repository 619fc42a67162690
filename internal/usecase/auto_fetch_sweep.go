package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/jobscheduler"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/match"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/logging"
)

const (
	JobPathEnrichmentAutoFetch = "/v1/internal/jobs/enrichment-auto-fetch"
	JobPathEnrichmentSweep     = "/v1/internal/jobs/enrichment-sweep"
	JobPathResultSync          = "/v1/internal/jobs/result-sync"
)

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type AutoFetchRunner interface {
	RunAutoFetch(ctx context.Context, matchID int64) (EnsureReport, error)
}

type ResultSyncRunner interface {
	Run(ctx context.Context) (ResultSyncReport, error)
}

type AutoFetchSweepConfig struct {
	// Horizon is how far ahead upcoming matches are swept.
	Horizon time.Duration
	// Bucket groups dispatches for deduplication at the queue.
	Bucket time.Duration
	// Stagger spaces queued jobs so they do not all land at once.
	Stagger time.Duration
	// Inline runs the fetches in-process instead of queueing one job per match.
	Inline bool
}

func DefaultAutoFetchSweepConfig() AutoFetchSweepConfig {
	return AutoFetchSweepConfig{
		Horizon: 7 * 24 * time.Hour,
		Bucket:  30 * time.Minute,
		Stagger: 5 * time.Second,
	}
}

type AutoFetchSweepDeps struct {
	Matches    match.Repository
	Runner     AutoFetchRunner
	ResultSync ResultSyncRunner
	Queue      JobQueue
	Dispatches jobscheduler.Repository
	Config     AutoFetchSweepConfig
	Logger     *logging.Logger
}

// AutoFetchSweep drives background enrichment for upcoming matches and the
// periodic result fallback. It either queues one job per match or runs them
// in-process one after another.
type AutoFetchSweep struct {
	matches    match.Repository
	runner     AutoFetchRunner
	resultSync ResultSyncRunner
	queue      JobQueue
	dispatches jobscheduler.Repository
	cfg        AutoFetchSweepConfig
	logger     *logging.Logger
	now        func() time.Time
}

func NewAutoFetchSweep(deps AutoFetchSweepDeps) *AutoFetchSweep {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	cfg := deps.Config
	defaults := DefaultAutoFetchSweepConfig()
	if cfg.Horizon <= 0 {
		cfg.Horizon = defaults.Horizon
	}
	if cfg.Bucket <= 0 {
		cfg.Bucket = defaults.Bucket
	}
	if cfg.Stagger < 0 {
		cfg.Stagger = 0
	}
	queue := deps.Queue
	if queue == nil {
		cfg.Inline = true
	}

	return &AutoFetchSweep{
		matches:    deps.Matches,
		runner:     deps.Runner,
		resultSync: deps.ResultSync,
		queue:      queue,
		dispatches: deps.Dispatches,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

type SweepResult struct {
	Mode             string   `json:"mode"`
	MatchCount       int      `json:"match_count"`
	QueuedCount      int      `json:"queued_count"`
	FetchedCount     int      `json:"fetched_count"`
	FailedCount      int      `json:"failed_count"`
	QuotaGuarded     bool     `json:"quota_guarded"`
	QueuedOperations []string `json:"queued_operations"`
}

// Sweep walks upcoming matches inside the horizon.
func (s *AutoFetchSweep) Sweep(ctx context.Context) (SweepResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AutoFetchSweep.Sweep")
	defer span.End()

	now := s.now().UTC()
	items, err := s.matches.ListUpcoming(ctx, now, now.Add(s.cfg.Horizon))
	if err != nil {
		return SweepResult{}, fmt.Errorf("list upcoming matches: %w", err)
	}

	if s.cfg.Inline {
		return s.sweepInline(ctx, items)
	}

	result := SweepResult{
		Mode:             "queued",
		MatchCount:       len(items),
		QueuedOperations: make([]string, 0, len(items)),
	}
	for i, item := range items {
		delay := time.Duration(i) * s.cfg.Stagger
		if err := s.enqueueAutoFetch(ctx, item.ID, delay, now); err != nil {
			return result, err
		}
		result.QueuedCount++
		result.QueuedOperations = append(result.QueuedOperations, jobscheduler.JobEnrichmentAutoFetch+":"+strconv.FormatInt(item.ID, 10))
	}

	s.logger.InfoContext(ctx, "enrichment sweep queued", "matches", result.MatchCount, "queued", result.QueuedCount)
	return result, nil
}

func (s *AutoFetchSweep) sweepInline(ctx context.Context, items []match.Match) (SweepResult, error) {
	result := SweepResult{Mode: "inline", MatchCount: len(items), QueuedOperations: []string{}}
	if s.runner == nil {
		return SweepResult{}, fmt.Errorf("%w: auto-fetch runner is not configured", ErrDependencyUnavailable)
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		report, err := s.runner.RunAutoFetch(ctx, item.ID)
		if err != nil {
			result.FailedCount++
			s.logger.WarnContext(ctx, "inline auto-fetch failed", "match_id", item.ID, "error", err)
			continue
		}
		result.FetchedCount += len(report.Fetched)
		result.FailedCount += len(report.Failed)
		if report.QuotaGuarded {
			// Every later match would be guarded too.
			result.QuotaGuarded = true
			break
		}
	}

	s.logger.InfoContext(ctx, "enrichment sweep finished",
		"matches", result.MatchCount,
		"fetched", result.FetchedCount,
		"failed", result.FailedCount,
		"quota_guarded", result.QuotaGuarded,
	)
	return result, nil
}

// RunMatch is the body of a queued auto-fetch job.
func (s *AutoFetchSweep) RunMatch(ctx context.Context, matchID int64, dispatchID string) (EnsureReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AutoFetchSweep.RunMatch", matchAttr(matchID))
	defer span.End()

	if matchID <= 0 {
		return EnsureReport{}, fmt.Errorf("%w: match id must be > 0", ErrInvalidInput)
	}
	if s.runner == nil {
		return EnsureReport{}, fmt.Errorf("%w: auto-fetch runner is not configured", ErrDependencyUnavailable)
	}

	report, err := s.runner.RunAutoFetch(ctx, matchID)
	event := jobscheduler.DispatchEvent{
		DispatchID: dispatchID,
		JobName:    jobscheduler.JobEnrichmentAutoFetch,
		JobPath:    JobPathEnrichmentAutoFetch,
		Scope:      jobscheduler.MatchScope(matchID),
		Payload:    map[string]any{"match_id": matchID, "dispatch_id": dispatchID},
		OccurredAt: s.now().UTC(),
	}
	event.Settle(err)
	s.recordDispatchEvent(ctx, event)
	if err != nil {
		return EnsureReport{}, failSpan(span, err)
	}
	return report, nil
}

// RunResultSync runs the result fallback now, or queues it when a queue is
// configured and queue is true.
func (s *AutoFetchSweep) RunResultSync(ctx context.Context, queue bool) (ResultSyncReport, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AutoFetchSweep.RunResultSync")
	defer span.End()

	now := s.now().UTC()
	if queue && !s.cfg.Inline {
		dedupID := jobscheduler.DedupKey(jobscheduler.JobResultSync, jobscheduler.ScopeAll, now, time.Hour)
		if err := s.enqueue(ctx, jobscheduler.JobResultSync, JobPathResultSync, jobscheduler.ScopeAll, map[string]any{"dispatch_id": dedupID}, 0, dedupID, now); err != nil {
			return ResultSyncReport{}, false, err
		}
		return ResultSyncReport{}, true, nil
	}
	if s.resultSync == nil {
		return ResultSyncReport{}, false, fmt.Errorf("%w: result sync is not configured", ErrDependencyUnavailable)
	}

	report, err := s.resultSync.Run(ctx)
	if err != nil {
		return ResultSyncReport{}, false, fmt.Errorf("run result sync: %w", err)
	}
	return report, false, nil
}

func (s *AutoFetchSweep) enqueueAutoFetch(ctx context.Context, matchID int64, delay time.Duration, now time.Time) error {
	scope := jobscheduler.MatchScope(matchID)
	dedupID := jobscheduler.DedupKey(jobscheduler.JobEnrichmentAutoFetch, scope, now, s.cfg.Bucket)
	payload := map[string]any{
		"match_id":    matchID,
		"dispatch_id": dedupID,
	}
	return s.enqueue(ctx, jobscheduler.JobEnrichmentAutoFetch, JobPathEnrichmentAutoFetch, scope, payload, delay, dedupID, now)
}

func (s *AutoFetchSweep) enqueue(ctx context.Context, jobName, path, scope string, payload map[string]any, delay time.Duration, dedupID string, now time.Time) error {
	event := jobscheduler.DispatchEvent{
		DispatchID: dedupID,
		JobName:    jobName,
		JobPath:    path,
		Scope:      scope,
		Status:     jobscheduler.StatusSent,
		Payload:    payload,
		OccurredAt: now,
	}
	if err := s.queue.Enqueue(ctx, path, payload, delay, dedupID); err != nil {
		event.Settle(err)
		s.recordDispatchEvent(ctx, event)
		return fmt.Errorf("enqueue %s scope=%s: %w", jobName, scope, err)
	}
	s.recordDispatchEvent(ctx, event)
	return nil
}

func (s *AutoFetchSweep) recordDispatchEvent(ctx context.Context, event jobscheduler.DispatchEvent) {
	if s.dispatches == nil || strings.TrimSpace(event.DispatchID) == "" {
		return
	}
	event.AttachTrace(ctx)
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if err := s.dispatches.UpsertEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record job dispatch event failed",
			"dispatch_id", event.DispatchID,
			"status", event.Status,
			"error", err,
		)
	}
}
