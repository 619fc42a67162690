package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/usage"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/resilience"
)

// ProviderStatus is the operator view of the provider integration.
type ProviderStatus struct {
	Health     ProviderHealth  `json:"health"`
	UsageToday usage.Summary   `json:"usage_today"`
	Enrichment EnrichmentStats `json:"enrichment"`
	CheckedAt  time.Time       `json:"checked_at"`
}

type enrichmentStatsSource interface {
	Stats(ctx context.Context) (EnrichmentStats, error)
}

type ProviderStatusService struct {
	monitor    ProviderMonitor
	usageRepo  usage.Repository
	enrichment enrichmentStatsSource
	now        func() time.Time
}

func NewProviderStatusService(monitor ProviderMonitor, usageRepo usage.Repository, enrichment enrichmentStatsSource) *ProviderStatusService {
	return &ProviderStatusService{
		monitor:    monitor,
		usageRepo:  usageRepo,
		enrichment: enrichment,
		now:        time.Now,
	}
}

func (s *ProviderStatusService) Get(ctx context.Context) (ProviderStatus, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProviderStatusService.Get")
	defer span.End()

	if s.monitor == nil {
		return ProviderStatus{}, fmt.Errorf("%w: provider is not configured", ErrDependencyUnavailable)
	}

	now := s.now().UTC()
	status := ProviderStatus{
		Health:    s.monitor.Health(),
		CheckedAt: now,
	}

	if s.usageRepo != nil {
		summary, err := s.usageRepo.Summarize(ctx, resilience.StartOfUTCDay(now))
		if err != nil {
			return ProviderStatus{}, fmt.Errorf("summarize provider usage: %w", err)
		}
		status.UsageToday = summary
	}
	if s.enrichment != nil {
		stats, err := s.enrichment.Stats(ctx)
		if err != nil {
			return ProviderStatus{}, fmt.Errorf("load enrichment stats: %w", err)
		}
		status.Enrichment = stats
	}

	return status, nil
}
