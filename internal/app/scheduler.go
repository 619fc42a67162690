package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/config"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/logging"
)

const scheduledJobTimeout = 10 * time.Minute

// Scheduler runs the periodic sweep, result sync and cache purge in-process.
type Scheduler struct {
	cron   *cron.Cron
	logger *logging.Logger
}

// NewScheduler registers the jobs configured in cfg. An empty schedule
// disables that job.
func (a *App) NewScheduler(cfg config.JobsConfig) (*Scheduler, error) {
	logger := a.logger.Named("scheduler")
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger{logger: logger}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger: logger})),
	)
	s := &Scheduler{cron: c, logger: logger}

	jobs := []struct {
		name     string
		schedule string
		run      func(ctx context.Context) error
	}{
		{name: "enrichment_sweep", schedule: cfg.SweepSchedule, run: func(ctx context.Context) error {
			result, err := a.Jobs.Sweep(ctx)
			if err != nil {
				return err
			}
			logger.InfoContext(ctx, "sweep finished", "result", result)
			return nil
		}},
		{name: "result_sync", schedule: cfg.ResultSyncSchedule, run: func(ctx context.Context) error {
			report, queued, err := a.Jobs.RunResultSync(ctx, true)
			if err != nil {
				return err
			}
			if queued {
				logger.InfoContext(ctx, "result sync queued")
				return nil
			}
			logger.InfoContext(ctx, "result sync finished", "report", report)
			return nil
		}},
		{name: "cache_purge", schedule: cfg.CachePurgeSchedule, run: func(ctx context.Context) error {
			purged, err := a.PurgeCache(ctx)
			if err != nil {
				return err
			}
			logger.InfoContext(ctx, "provider cache purged", "entries", purged)
			return nil
		}},
	}

	for _, job := range jobs {
		if job.schedule == "" {
			continue
		}
		if _, err := c.AddFunc(job.schedule, s.wrap(job.name, job.run)); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", job.name, job.schedule, err)
		}
		logger.Info("job scheduled", "job", job.name, "schedule", job.schedule)
	}

	return s, nil
}

func (s *Scheduler) wrap(name string, run func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), scheduledJobTimeout)
		defer cancel()

		started := time.Now()
		if err := run(ctx); err != nil {
			s.logger.ErrorContext(ctx, "scheduled job failed", "job", name, "duration_ms", time.Since(started).Milliseconds(), "error", err)
		}
	}
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	return nil
}

type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron "+msg, append(keysAndValues, "error", err)...)
}
