package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transition struct{ from, to CircuitState }

func newTestBreaker(threshold int, openTimeout time.Duration) (*CircuitBreaker, *time.Time, *[]transition) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var seen []transition
	b := NewCircuitBreaker(
		CircuitBreakerConfig{Enabled: true, FailureThreshold: threshold, OpenTimeout: openTimeout, HalfOpenMaxReq: 1},
		WithStateHook(func(from, to CircuitState) { seen = append(seen, transition{from, to}) }),
	)
	b.now = func() time.Time { return now }
	return b, &now, &seen
}

func TestCircuitBreaker_FullCycle(t *testing.T) {
	b, now, seen := newTestBreaker(2, 5*time.Second)

	require.NoError(t, b.Allow())
	b.RecordFailure()
	assert.Equal(t, CircuitStateClosed, b.State())

	b.RecordFailure()
	assert.Equal(t, CircuitStateOpen, b.State())
	require.ErrorIs(t, b.Allow(), ErrCircuitOpen)

	*now = now.Add(6 * time.Second)
	assert.Equal(t, CircuitStateHalfOpen, b.State(), "state reports half-open once the timeout elapsed")
	require.NoError(t, b.Allow())

	b.RecordSuccess()
	assert.Equal(t, CircuitStateClosed, b.State())
	assert.Equal(t, []transition{
		{CircuitStateClosed, CircuitStateOpen},
		{CircuitStateOpen, CircuitStateHalfOpen},
		{CircuitStateHalfOpen, CircuitStateClosed},
	}, *seen)
}

func TestCircuitBreaker_OpensAfterExactlyThreshold(t *testing.T) {
	b, _, _ := newTestBreaker(5, time.Minute)

	for i := 1; i < 5; i++ {
		b.RecordFailure()
		require.Equal(t, CircuitStateClosed, b.State(), "after %d failures", i)
	}
	b.RecordFailure()
	assert.Equal(t, CircuitStateOpen, b.State())
}

func TestCircuitBreaker_SuccessResetsFailureStreak(t *testing.T) {
	b, _, _ := newTestBreaker(3, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()

	assert.Equal(t, CircuitStateClosed, b.State())
	assert.Equal(t, 2, b.Snapshot().ConsecutiveFailures)
}

func TestCircuitBreaker_StaysOpenUntilTimeout(t *testing.T) {
	b, now, _ := newTestBreaker(1, 30*time.Second)
	b.RecordFailure()

	*now = now.Add(29 * time.Second)
	require.ErrorIs(t, b.Allow(), ErrCircuitOpen)

	*now = now.Add(time.Second)
	require.NoError(t, b.Allow(), "trial call admitted at timeout")
	require.ErrorIs(t, b.Allow(), ErrCircuitOpen, "second concurrent trial call rejected")
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	b, now, seen := newTestBreaker(1, 10*time.Second)
	b.RecordFailure()

	*now = now.Add(11 * time.Second)
	require.NoError(t, b.Allow())
	b.RecordFailure()

	assert.Equal(t, CircuitStateOpen, b.State())
	snap := b.Snapshot()
	require.NotNil(t, snap.LastFailureAt)
	assert.True(t, snap.LastFailureAt.Equal(*now))
	require.NotNil(t, snap.OpenedAt)
	assert.True(t, snap.OpenedAt.Equal(*now))
	assert.Equal(t, transition{CircuitStateHalfOpen, CircuitStateOpen}, (*seen)[len(*seen)-1])
}

func TestCircuitBreaker_FailureWhileOpenExtendsCooldown(t *testing.T) {
	b, now, _ := newTestBreaker(1, 10*time.Second)
	b.RecordFailure()

	*now = now.Add(8 * time.Second)
	b.RecordFailure()

	*now = now.Add(5 * time.Second)
	require.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}

func TestCircuitBreaker_ReleaseFreesHalfOpenSlot(t *testing.T) {
	b, now, _ := newTestBreaker(1, time.Second)
	b.RecordFailure()
	*now = now.Add(2 * time.Second)

	require.NoError(t, b.Allow())
	require.Error(t, b.Allow())
	b.Release()
	require.NoError(t, b.Allow())
}

func TestCircuitBreaker_DisabledIsNil(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	require.Nil(t, b)

	require.NoError(t, b.Allow())
	b.RecordFailure()
	b.RecordSuccess()
	b.Release()
	assert.Equal(t, CircuitStateClosed, b.State())
	assert.Equal(t, CircuitStateClosed, b.Snapshot().State)
}

func TestNormalizeCircuitBreakerConfig(t *testing.T) {
	cfg := NormalizeCircuitBreakerConfig(CircuitBreakerConfig{Enabled: true})
	assert.Equal(t, DefaultCircuitBreakerConfig(), cfg)

	rl := NormalizeRateLimitConfig(RateLimitConfig{MinInterval: -time.Second})
	assert.Equal(t, 30, rl.RequestsPerMinute)
	assert.Zero(t, rl.MinInterval)
}
