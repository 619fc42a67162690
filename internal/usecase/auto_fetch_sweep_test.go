package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/enrichment"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/jobscheduler"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/match"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/infrastructure/repository/memory"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/logging"
)

type queuedJob struct {
	path    string
	delay   time.Duration
	dedupID string
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []queuedJob
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, path string, _ any, delay time.Duration, dedupID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, queuedJob{path: path, delay: delay, dedupID: dedupID})
	return nil
}

type recordingDispatches struct {
	mu     sync.Mutex
	events []jobscheduler.DispatchEvent
}

func (r *recordingDispatches) UpsertEvent(_ context.Context, event jobscheduler.DispatchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

type scriptedRunner struct {
	calls   []int64
	reports map[int64]EnsureReport
	errs    map[int64]error
}

func (r *scriptedRunner) RunAutoFetch(_ context.Context, matchID int64) (EnsureReport, error) {
	r.calls = append(r.calls, matchID)
	if err := r.errs[matchID]; err != nil {
		return EnsureReport{}, err
	}
	return r.reports[matchID], nil
}

var sweepNow = time.Date(2026, 4, 17, 8, 10, 0, 0, time.UTC)

func sweepMatches() *memory.MatchRepository {
	return memory.NewMatchRepository(
		match.Match{ID: 1, KickoffAt: sweepNow.Add(24 * time.Hour)},
		match.Match{ID: 2, KickoffAt: sweepNow.Add(48 * time.Hour)},
		match.Match{ID: 3, KickoffAt: sweepNow.Add(72 * time.Hour)},
		match.Match{ID: 4, KickoffAt: sweepNow.Add(30 * 24 * time.Hour)},
		match.Match{ID: 5, KickoffAt: sweepNow.Add(-time.Hour)},
	)
}

func TestAutoFetchSweep_QueuesOneJobPerUpcomingMatch(t *testing.T) {
	t.Parallel()

	queue := &recordingQueue{}
	dispatches := &recordingDispatches{}
	sweep := NewAutoFetchSweep(AutoFetchSweepDeps{
		Matches:    sweepMatches(),
		Queue:      queue,
		Dispatches: dispatches,
		Logger:     logging.NewNop(),
	})
	sweep.now = func() time.Time { return sweepNow }

	result, err := sweep.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, "queued", result.Mode)
	require.Equal(t, 3, result.MatchCount)
	require.Equal(t, 3, result.QueuedCount)
	require.Equal(t, []string{
		"enrichment-auto-fetch:1",
		"enrichment-auto-fetch:2",
		"enrichment-auto-fetch:3",
	}, result.QueuedOperations)

	require.Len(t, queue.jobs, 3)
	require.Equal(t, JobPathEnrichmentAutoFetch, queue.jobs[0].path)
	require.Zero(t, queue.jobs[0].delay)
	require.Equal(t, 10*time.Second, queue.jobs[2].delay)
	require.Equal(t, "enrichment-auto-fetch-match-1-20260417T080000Z", queue.jobs[0].dedupID)

	require.Len(t, dispatches.events, 3)
	require.Equal(t, jobscheduler.StatusSent, dispatches.events[0].Status)
	require.Equal(t, "match:1", dispatches.events[0].Scope)
}

func TestAutoFetchSweep_RecordsFailedDispatch(t *testing.T) {
	t.Parallel()

	queue := &recordingQueue{err: errors.New("qstash down")}
	dispatches := &recordingDispatches{}
	sweep := NewAutoFetchSweep(AutoFetchSweepDeps{
		Matches:    sweepMatches(),
		Queue:      queue,
		Dispatches: dispatches,
		Logger:     logging.NewNop(),
	})
	sweep.now = func() time.Time { return sweepNow }

	_, err := sweep.Sweep(context.Background())
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "qstash down"))
	require.Len(t, dispatches.events, 1)
	require.Equal(t, jobscheduler.StatusFailed, dispatches.events[0].Status)
}

func TestAutoFetchSweep_InlineStopsWhenQuotaGuarded(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{
		reports: map[int64]EnsureReport{
			1: {Fetched: []enrichment.DataType{enrichment.TypeHeadToHead, enrichment.TypeStandings}},
			3: {QuotaGuarded: true},
		},
		errs: map[int64]error{2: ErrCircuitOpen},
	}
	sweep := NewAutoFetchSweep(AutoFetchSweepDeps{
		Matches: memory.NewMatchRepository(
			match.Match{ID: 1, KickoffAt: sweepNow.Add(time.Hour)},
			match.Match{ID: 2, KickoffAt: sweepNow.Add(2 * time.Hour)},
			match.Match{ID: 3, KickoffAt: sweepNow.Add(3 * time.Hour)},
			match.Match{ID: 6, KickoffAt: sweepNow.Add(4 * time.Hour)},
		),
		Runner: runner,
		Logger: logging.NewNop(),
	})
	sweep.now = func() time.Time { return sweepNow }

	result, err := sweep.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, "inline", result.Mode)
	require.Equal(t, []int64{1, 2, 3}, runner.calls)
	require.Equal(t, 2, result.FetchedCount)
	require.Equal(t, 1, result.FailedCount)
	require.True(t, result.QuotaGuarded)
}

func TestAutoFetchSweep_RunMatchRecordsCompletion(t *testing.T) {
	t.Parallel()

	dispatches := &recordingDispatches{}
	runner := &scriptedRunner{errs: map[int64]error{9: ErrQuotaExhausted}}
	sweep := NewAutoFetchSweep(AutoFetchSweepDeps{
		Matches:    sweepMatches(),
		Runner:     runner,
		Queue:      &recordingQueue{},
		Dispatches: dispatches,
		Logger:     logging.NewNop(),
	})

	_, err := sweep.RunMatch(context.Background(), 1, "d-1")
	require.NoError(t, err)
	_, err = sweep.RunMatch(context.Background(), 9, "d-9")
	require.ErrorIs(t, err, ErrQuotaExhausted)
	_, err = sweep.RunMatch(context.Background(), 0, "d-0")
	require.ErrorIs(t, err, ErrInvalidInput)

	require.Len(t, dispatches.events, 2)
	require.Equal(t, jobscheduler.StatusCompleted, dispatches.events[0].Status)
	require.Equal(t, jobscheduler.StatusFailed, dispatches.events[1].Status)
	require.Equal(t, "match:9", dispatches.events[1].Scope)
}

func TestAutoFetchSweep_RunResultSync(t *testing.T) {
	t.Parallel()

	queue := &recordingQueue{}
	sweep := NewAutoFetchSweep(AutoFetchSweepDeps{
		Matches: sweepMatches(),
		Queue:   queue,
		Logger:  logging.NewNop(),
	})
	sweep.now = func() time.Time { return sweepNow }

	_, queued, err := sweep.RunResultSync(context.Background(), true)
	require.NoError(t, err)
	require.True(t, queued)
	require.Len(t, queue.jobs, 1)
	require.Equal(t, JobPathResultSync, queue.jobs[0].path)

	_, _, err = sweep.RunResultSync(context.Background(), false)
	require.ErrorIs(t, err, ErrDependencyUnavailable)
}
