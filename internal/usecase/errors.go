package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// Provider failure taxonomy. Every kind is a dependency failure from the
// caller's point of view.
var (
	ErrCircuitOpen         = fmt.Errorf("%w: provider circuit open", ErrDependencyUnavailable)
	ErrQuotaExhausted      = fmt.Errorf("%w: provider daily quota exhausted", ErrDependencyUnavailable)
	ErrUpstreamClient      = fmt.Errorf("%w: provider rejected request", ErrDependencyUnavailable)
	ErrUpstreamRateLimited = fmt.Errorf("%w: provider rate limited", ErrDependencyUnavailable)
	ErrUpstreamServer      = fmt.Errorf("%w: provider server error", ErrDependencyUnavailable)
	ErrProviderPayload     = fmt.Errorf("%w: provider payload malformed", ErrDependencyUnavailable)
)
