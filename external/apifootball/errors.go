package apifootball

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/usecase"
)

type ErrorKind string

const (
	KindClient      ErrorKind = "client"
	KindRateLimited ErrorKind = "rate_limited"
	KindServer      ErrorKind = "server"
	KindPayload     ErrorKind = "payload"
)

// errTransient marks failures that count against the circuit breaker.
var errTransient = crerr.New("api-football transient failure")

// UpstreamError is a failed provider exchange. It unwraps to the usecase
// sentinel for its kind so callers can use errors.Is.
type UpstreamError struct {
	Kind       ErrorKind
	StatusCode int
	Endpoint   string
	Message    string
	RetryAfter time.Duration
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("api-football %s failure endpoint=%s status=%d: %s", e.Kind, e.Endpoint, e.StatusCode, e.Message)
}

func (e *UpstreamError) Unwrap() []error {
	sentinel := usecase.ErrUpstreamServer
	switch e.Kind {
	case KindClient:
		sentinel = usecase.ErrUpstreamClient
	case KindRateLimited:
		sentinel = usecase.ErrUpstreamRateLimited
	case KindPayload:
		sentinel = usecase.ErrProviderPayload
	}
	if e.transient() {
		return []error{sentinel, errTransient}
	}
	return []error{sentinel}
}

func (e *UpstreamError) transient() bool {
	return e.Kind == KindServer || e.Kind == KindRateLimited
}

// Retryable reports whether the retry loop may try again.
func (e *UpstreamError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Kind == KindServer
}

func newStatusError(endpoint string, status int, body string, header http.Header) *UpstreamError {
	kind := KindClient
	switch {
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status >= http.StatusInternalServerError:
		kind = KindServer
	}
	return &UpstreamError{
		Kind:       kind,
		StatusCode: status,
		Endpoint:   endpoint,
		Message:    "body=" + body,
		RetryAfter: parseRetryAfter(header),
	}
}

func parseRetryAfter(header http.Header) time.Duration {
	if header == nil {
		return 0
	}
	raw := strings.TrimSpace(header.Get("Retry-After"))
	if raw == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(raw); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func isCircuitFailure(err error) bool {
	return err != nil && crerr.Is(err, errTransient)
}
