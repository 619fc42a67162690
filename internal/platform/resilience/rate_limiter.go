package resilience

import (
	"context"
	"sync"
	"time"
)

const rateLimitWindow = time.Minute

// RateLimiter admits at most RequestsPerMinute calls in any sliding 60s window
// and keeps at least MinInterval between two consecutive admissions.
type RateLimiter struct {
	mu sync.Mutex

	limit       int
	minInterval time.Duration
	admitted    []time.Time
	last        time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	cfg = NormalizeRateLimitConfig(cfg)
	return &RateLimiter{
		limit:       cfg.RequestsPerMinute,
		minInterval: cfg.MinInterval,
		admitted:    make([]time.Time, 0, cfg.RequestsPerMinute),
		now:         time.Now,
		sleep:       Sleep,
	}
}

// Wait blocks until a slot is available or ctx is done.
func (l *RateLimiter) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		delay := l.reserve()
		if delay <= 0 {
			return nil
		}
		if err := l.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// InWindow reports how many admissions fall inside the current window.
func (l *RateLimiter) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(l.now())
	return len(l.admitted)
}

func (l *RateLimiter) Limit() int {
	return l.limit
}

// reserve admits the caller and returns zero, or returns how long to wait
// before trying again.
func (l *RateLimiter) reserve() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)

	var wait time.Duration
	if len(l.admitted) >= l.limit {
		wait = l.admitted[0].Add(rateLimitWindow).Sub(now)
	}
	if !l.last.IsZero() && l.minInterval > 0 {
		if spacing := l.last.Add(l.minInterval).Sub(now); spacing > wait {
			wait = spacing
		}
	}
	if wait > 0 {
		return wait
	}

	l.admitted = append(l.admitted, now)
	l.last = now
	return 0
}

func (l *RateLimiter) pruneLocked(now time.Time) {
	cutoff := now.Add(-rateLimitWindow)
	idx := 0
	for idx < len(l.admitted) && !l.admitted[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		l.admitted = append(l.admitted[:0], l.admitted[idx:]...)
	}
}
