// Package jobqueue publishes delayed job callbacks through Upstash QStash.
package jobqueue

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/logging"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/resilience"
)

const (
	defaultPublishTimeout = 10 * time.Second
	maxLoggedBody         = 4096
	mask                  = "***"
)

type QStashPublisherConfig struct {
	BaseURL          string
	Token            string
	TargetBaseURL    string
	Retries          int
	InternalJobToken string
	Timeout          time.Duration
	CircuitBreaker   resilience.CircuitBreakerConfig
}

// PublishError is a failed publish. Transient failures (transport errors,
// 408, 429 and 5xx) count against the circuit breaker.
type PublishError struct {
	Path      string
	Status    int
	Body      string
	Transient bool
	cause     error
}

func (e *PublishError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("publish job path=%s: %v", e.Path, e.cause)
	}
	return fmt.Sprintf("publish job path=%s status=%d body=%s", e.Path, e.Status, e.Body)
}

func (e *PublishError) Unwrap() error { return e.cause }

// IsTransient reports whether err is a publish failure worth retrying later.
func IsTransient(err error) bool {
	var pubErr *PublishError
	return errors.As(err, &pubErr) && pubErr.Transient
}

// QStashPublisher schedules job callbacks into this service. QStash holds
// the job until its delay passes and then POSTs the payload to the target.
type QStashPublisher struct {
	client     *http.Client
	publishURL string
	targetURL  string
	token      string
	jobToken   string
	retries    int
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
}

func NewQStashPublisher(cfg QStashPublisherConfig, logger *logging.Logger) (*QStashPublisher, error) {
	publishBase, err := httpBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid QSTASH_BASE_URL")
	}
	targetBase, err := httpBaseURL(cfg.TargetBaseURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid QSTASH_TARGET_BASE_URL")
	}
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}

	logger = logger.Named("qstash")
	return &QStashPublisher{
		client:     &http.Client{Timeout: timeout},
		publishURL: publishBase + "/v2/publish/",
		targetURL:  targetBase,
		token:      strings.TrimSpace(cfg.Token),
		jobToken:   strings.TrimSpace(cfg.InternalJobToken),
		retries:    cfg.Retries,
		logger:     logger,
		breaker: resilience.NewCircuitBreaker(cfg.CircuitBreaker, resilience.WithStateHook(func(from, to resilience.CircuitState) {
			logger.Warn("qstash circuit breaker state changed", "from", from, "to", to)
		})),
	}, nil
}

type header struct {
	name, value string
	secret      bool
}

type publishCall struct {
	path    string
	target  string
	headers []header
	body    []byte
}

func (p *QStashPublisher) Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error {
	call, err := p.prepare(path, payload, delay, deduplicationID)
	if err != nil {
		return err
	}
	if err := p.breaker.Allow(); err != nil {
		p.logger.WarnContext(ctx, "qstash circuit breaker rejected job", "state", p.breaker.State(), "path", call.path)
		return fmt.Errorf("qstash is temporarily unavailable: %w", err)
	}

	preview := p.curlPreview(call)
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.String("qstash.target_url", call.target),
			attribute.String("qstash.path", call.path),
			attribute.String("qstash.request_curl_preview", preview),
		)
	}
	p.logger.DebugContext(ctx, "qstash publish request", "path", call.path, "curl_preview", preview)

	if err := p.send(ctx, call); err != nil {
		if IsTransient(err) {
			p.breaker.RecordFailure()
		} else {
			p.breaker.RecordSuccess()
		}
		return err
	}
	p.breaker.RecordSuccess()
	p.logger.InfoContext(ctx, "qstash job published", "path", call.path, "delay", delaySeconds(delay), "deduplication_id", deduplicationID)
	return nil
}

func (p *QStashPublisher) prepare(path string, payload any, delay time.Duration, deduplicationID string) (publishCall, error) {
	path = "/" + strings.Trim(strings.TrimSpace(path), "/")
	if path == "/" {
		return publishCall{}, crerr.New("job path is required")
	}
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := sonic.Marshal(payload)
	if err != nil {
		return publishCall{}, crerr.Wrap(err, "marshal job payload")
	}

	headers := []header{
		{name: "Authorization", value: "Bearer " + p.token, secret: true},
		{name: "Content-Type", value: "application/json"},
		{name: "Upstash-Method", value: http.MethodPost},
	}
	optional := []header{
		{name: "Upstash-Retries", value: positiveString(p.retries)},
		{name: "Upstash-Delay", value: delayHeader(delay)},
		{name: "Upstash-Deduplication-Id", value: strings.TrimSpace(deduplicationID)},
		{name: "Upstash-Forward-X-Internal-Job-Token", value: p.jobToken, secret: true},
	}
	for _, h := range optional {
		if h.value != "" {
			headers = append(headers, h)
		}
	}

	return publishCall{path: path, target: p.targetURL + path, headers: headers, body: body}, nil
}

func (p *QStashPublisher) send(ctx context.Context, call publishCall) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.publishURL+call.target, bytes.NewReader(call.body))
	if err != nil {
		return crerr.Wrap(err, "create qstash request")
	}
	for _, h := range call.headers {
		req.Header.Set(h.name, h.value)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return &PublishError{Path: call.path, Transient: true, cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
	return &PublishError{
		Path:   call.path,
		Status: resp.StatusCode,
		Body:   strings.TrimSpace(string(raw)),
		Transient: resp.StatusCode == http.StatusRequestTimeout ||
			resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode >= http.StatusInternalServerError,
	}
}

// curlPreview renders the publish call as a shell command with secrets masked.
func (p *QStashPublisher) curlPreview(call publishCall) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("curl -X POST " + shellQuote(p.publishURL+call.target))
	for _, h := range call.headers {
		value := h.value
		if h.secret {
			value = mask
			if h.name == "Authorization" {
				value = "Bearer " + mask
			}
		}
		_, _ = buf.WriteString(" -H " + shellQuote(h.name+": "+value))
	}
	body := string(call.body)
	if len(body) > maxLoggedBody {
		body = body[:maxLoggedBody] + "...(truncated)"
	}
	_, _ = buf.WriteString(" -d " + shellQuote(body))
	return buf.String()
}

func httpBaseURL(raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return "", crerr.New("value is empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", raw)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", raw, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", crerr.Newf("%q has empty host", raw)
	}
	return raw, nil
}

// delaySeconds formats delay in whole seconds, the unit Upstash-Delay takes.
func delaySeconds(delay time.Duration) string {
	if delay <= 0 {
		return "0s"
	}
	return strconv.Itoa(int(delay.Round(time.Second).Seconds())) + "s"
}

func delayHeader(delay time.Duration) string {
	if delay <= 0 {
		return ""
	}
	return delaySeconds(delay)
}

func positiveString(v int) string {
	if v <= 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}
