package resilience

import (
	"context"
	"time"
)

// BackoffSchedule lists the wait before each retry. Attempts past the end
// reuse the last delay.
type BackoffSchedule []time.Duration

var (
	RateLimitedBackoff = BackoffSchedule{30 * time.Second, 60 * time.Second, 120 * time.Second}
	ServerErrorBackoff = BackoffSchedule{1 * time.Second, 2 * time.Second, 4 * time.Second}
)

// Delay returns the wait before retry number attempt (1-based).
func (s BackoffSchedule) Delay(attempt int) time.Duration {
	if len(s) == 0 || attempt < 1 {
		return 0
	}
	if attempt > len(s) {
		return s[len(s)-1]
	}
	return s[attempt-1]
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
