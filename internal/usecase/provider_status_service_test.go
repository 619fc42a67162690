package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/usage"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/infrastructure/repository/memory"
)

func TestProviderStatusService_CountsOnlyToday(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 4, 18, 9, 30, 0, 0, time.UTC)
	repo := memory.NewUsageRepository(
		usage.Record{Endpoint: "/fixtures", Kind: usage.KindNetwork, StatusCode: 200, Timestamp: now.Add(-24 * time.Hour)},
		usage.Record{Endpoint: "/fixtures", Kind: usage.KindNetwork, StatusCode: 200, LatencyMs: 100, Timestamp: now.Add(-time.Hour)},
		usage.Record{Endpoint: "/fixtures", Kind: usage.KindCacheHit, Cached: true, Timestamp: now.Add(-time.Minute)},
	)
	provider := newFakeProvider()

	svc := NewProviderStatusService(provider, repo, nil)
	svc.now = func() time.Time { return now }

	status, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, status.UsageToday.Network)
	require.Equal(t, 1, status.UsageToday.CacheHits)
	require.Equal(t, 100, status.Health.Quota.Limit)
	require.Equal(t, now, status.CheckedAt)
}

func TestProviderStatusService_RequiresProvider(t *testing.T) {
	t.Parallel()

	_, err := NewProviderStatusService(nil, nil, nil).Get(context.Background())
	require.ErrorIs(t, err, ErrDependencyUnavailable)
}
