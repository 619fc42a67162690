package resilience

import "time"

// CircuitBreakerConfig is disabled unless Enabled is set.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

const (
	defaultFailureThreshold  = 5
	defaultOpenTimeout       = time.Minute
	defaultHalfOpenMaxReq    = 1
	defaultRequestsPerMinute = 30
	defaultMinInterval       = 250 * time.Millisecond
)

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: defaultFailureThreshold,
		OpenTimeout:      defaultOpenTimeout,
		HalfOpenMaxReq:   defaultHalfOpenMaxReq,
	}
}

func NormalizeCircuitBreakerConfig(cfg CircuitBreakerConfig) CircuitBreakerConfig {
	cfg.FailureThreshold = atLeastOne(cfg.FailureThreshold, defaultFailureThreshold)
	cfg.HalfOpenMaxReq = atLeastOne(cfg.HalfOpenMaxReq, defaultHalfOpenMaxReq)
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaultOpenTimeout
	}
	return cfg
}

// RateLimitConfig bounds calls to RequestsPerMinute in any sliding 60s window,
// with at least MinInterval between consecutive calls.
type RateLimitConfig struct {
	RequestsPerMinute int
	MinInterval       time.Duration
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: defaultRequestsPerMinute,
		MinInterval:       defaultMinInterval,
	}
}

func NormalizeRateLimitConfig(cfg RateLimitConfig) RateLimitConfig {
	cfg.RequestsPerMinute = atLeastOne(cfg.RequestsPerMinute, defaultRequestsPerMinute)
	cfg.MinInterval = max(cfg.MinInterval, 0)
	return cfg
}

func atLeastOne(v, fallback int) int {
	if v < 1 {
		return fallback
	}
	return v
}
