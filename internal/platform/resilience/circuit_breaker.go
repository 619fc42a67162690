package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "CLOSED"
	CircuitStateOpen     CircuitState = "OPEN"
	CircuitStateHalfOpen CircuitState = "HALF_OPEN"
)

// StateHook observes breaker transitions. It runs outside the breaker lock.
type StateHook func(from, to CircuitState)

type BreakerOption func(*CircuitBreaker)

func WithStateHook(hook StateHook) BreakerOption {
	return func(b *CircuitBreaker) { b.hook = hook }
}

// CircuitBreaker guards one upstream dependency. State is process-local, so
// every instance of the service trips independently. A nil *CircuitBreaker
// is a disabled breaker: it admits everything and records nothing.
type CircuitBreaker struct {
	mu   sync.Mutex
	cfg  CircuitBreakerConfig
	now  func() time.Time
	hook StateHook

	state       CircuitState
	failures    int
	lastFailure time.Time
	openedAt    time.Time
	trials      int // admitted half-open trials not yet settled
	trialWins   int
}

// BreakerSnapshot is a point-in-time copy of the breaker for health reporting.
type BreakerSnapshot struct {
	State               CircuitState `json:"state"`
	ConsecutiveFailures int          `json:"consecutive_failures"`
	FailureThreshold    int          `json:"failure_threshold"`
	OpenTimeout         string       `json:"open_timeout"`
	LastFailureAt       *time.Time   `json:"last_failure_at,omitempty"`
	OpenedAt            *time.Time   `json:"opened_at,omitempty"`
}

// NewCircuitBreaker returns nil when cfg is disabled. Zero thresholds fall
// back to the defaults.
func NewCircuitBreaker(cfg CircuitBreakerConfig, opts ...BreakerOption) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	b := &CircuitBreaker{
		cfg:   NormalizeCircuitBreakerConfig(cfg),
		now:   time.Now,
		state: CircuitStateClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Allow admits a call. Once the open timeout has elapsed the breaker moves
// to half-open and admits up to HalfOpenMaxReq concurrent trial calls.
func (b *CircuitBreaker) Allow() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	from := b.state
	err := b.admitLocked()
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
	return err
}

func (b *CircuitBreaker) admitLocked() error {
	if b.state == CircuitStateOpen {
		if !b.cooledDownLocked() {
			return ErrCircuitOpen
		}
		b.state = CircuitStateHalfOpen
		b.trials, b.trialWins = 0, 0
	}
	if b.state == CircuitStateHalfOpen {
		if b.trials >= b.cfg.HalfOpenMaxReq {
			return ErrCircuitOpen
		}
		b.trials++
	}
	return nil
}

func (b *CircuitBreaker) RecordSuccess() {
	if b == nil {
		return
	}
	b.mu.Lock()
	from := b.state
	switch b.state {
	case CircuitStateClosed:
		b.failures = 0
	case CircuitStateHalfOpen:
		b.settleTrialLocked()
		b.trialWins++
		if b.trialWins >= b.cfg.HalfOpenMaxReq && b.trials == 0 {
			b.closeLocked()
		}
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

func (b *CircuitBreaker) RecordFailure() {
	if b == nil {
		return
	}
	b.mu.Lock()
	from := b.state
	b.lastFailure = b.now()
	b.failures++
	switch b.state {
	case CircuitStateClosed:
		if b.failures >= b.cfg.FailureThreshold {
			b.openLocked()
		}
	case CircuitStateHalfOpen:
		b.openLocked()
	case CircuitStateOpen:
		// Critical-path calls bypass Allow and may still fail while open.
		b.openedAt = b.lastFailure
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

// Release returns a half-open trial slot reserved by Allow but never used.
func (b *CircuitBreaker) Release() {
	if b == nil {
		return
	}
	b.mu.Lock()
	if b.state == CircuitStateHalfOpen {
		b.settleTrialLocked()
	}
	b.mu.Unlock()
}

// State reports HALF_OPEN as soon as the open timeout has elapsed, even
// before the next Allow performs the transition.
func (b *CircuitBreaker) State() CircuitState {
	if b == nil {
		return CircuitStateClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.effectiveStateLocked()
}

func (b *CircuitBreaker) Snapshot() BreakerSnapshot {
	if b == nil {
		return BreakerSnapshot{State: CircuitStateClosed}
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := BreakerSnapshot{
		State:               b.effectiveStateLocked(),
		ConsecutiveFailures: b.failures,
		FailureThreshold:    b.cfg.FailureThreshold,
		OpenTimeout:         b.cfg.OpenTimeout.String(),
		LastFailureAt:       timePtr(b.lastFailure),
		OpenedAt:            timePtr(b.openedAt),
	}
	return snap
}

func (b *CircuitBreaker) effectiveStateLocked() CircuitState {
	if b.state == CircuitStateOpen && b.cooledDownLocked() {
		return CircuitStateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) cooledDownLocked() bool {
	return b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout
}

func (b *CircuitBreaker) settleTrialLocked() {
	if b.trials > 0 {
		b.trials--
	}
}

func (b *CircuitBreaker) openLocked() {
	b.state = CircuitStateOpen
	b.openedAt = b.now()
	b.trials, b.trialWins = 0, 0
}

func (b *CircuitBreaker) closeLocked() {
	b.state = CircuitStateClosed
	b.failures = 0
	b.trials, b.trialWins = 0, 0
	b.openedAt = time.Time{}
}

func (b *CircuitBreaker) notify(from, to CircuitState) {
	if from != to && b.hook != nil {
		b.hook(from, to)
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
