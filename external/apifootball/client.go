package apifootball

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	sonic "github.com/bytedance/sonic"
	"golang.org/x/sync/singleflight"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/usage"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/cache"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/logging"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/metrics"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/resilience"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/usecase"
)

const (
	defaultMaxRetries = 3
	maxBodyBytes      = 6 << 20
)

type ClientConfig struct {
	HTTPClient     *http.Client
	Auth           AuthConfig
	Timeout        time.Duration
	MaxRetries     int
	RateLimit      resilience.RateLimitConfig
	CircuitBreaker resilience.CircuitBreakerConfig
	DailyLimit     int
	Cache          *cache.Tiered
	Usage          usage.Repository
	Metrics        *metrics.Recorder
	Logger         *logging.Logger
}

// RequestOptions tunes a single Get.
type RequestOptions struct {
	// TTL overrides the endpoint default; zero keeps the default.
	TTL time.Duration
	// Critical requests bypass an open circuit breaker. They still respect
	// the rate limiter and the daily quota.
	Critical bool
	// SkipCache forces a network call. The fresh body is still written back.
	SkipCache bool
}

// Response is a decoded-on-demand provider envelope.
type Response struct {
	Endpoint string
	Body     []byte
	Results  int
	Paging   Paging
	// Empty means the provider answered successfully with no data.
	Empty  bool
	Cached bool
	Tier   cache.Tier
}

type Client struct {
	httpClient *http.Client
	creds      credentials
	maxRetries int
	logger     *logging.Logger
	metrics    *metrics.Recorder
	usage      usage.Repository
	cache      *cache.Tiered
	breaker    *resilience.CircuitBreaker
	limiter    *resilience.RateLimiter
	quota      *resilience.QuotaGovernor
	flight     singleflight.Group
	// flightTimeout bounds a shared fetch that no longer follows any caller.
	flightTimeout time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg ClientConfig) (*Client, error) {
	creds, err := resolveCredentials(cfg.Auth)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	if cfg.MaxRetries == 0 {
		maxRetries = defaultMaxRetries
	}

	return &Client{
		httpClient:    httpClient,
		creds:         creds,
		maxRetries:    maxRetries,
		logger:        logger.Named("apifootball"),
		metrics:       cfg.Metrics,
		usage:         cfg.Usage,
		cache:         cfg.Cache,
		breaker:       resilience.NewCircuitBreaker(cfg.CircuitBreaker, resilience.WithStateHook(breakerHook(logger, cfg.Metrics))),
		limiter:       resilience.NewRateLimiter(cfg.RateLimit),
		quota:         resilience.NewQuotaGovernor(cfg.DailyLimit),
		flightTimeout: flightBudget(httpClient.Timeout, maxRetries),
		now:           time.Now,
		sleep:         resilience.Sleep,
	}, nil
}

// flightBudget covers every attempt, the longest backoff before each retry
// and a minute of rate limiter queueing.
func flightBudget(attemptTimeout time.Duration, maxRetries int) time.Duration {
	budget := time.Minute
	for attempt := 0; attempt <= maxRetries; attempt++ {
		budget += attemptTimeout + resilience.RateLimitedBackoff.Delay(attempt)
	}
	return budget
}

func (c *Client) AuthMode() AuthMode {
	return c.creds.mode
}

// Get runs one logical provider call through the cache, breaker, quota,
// rate limiter and retry policy. Exactly one usage record is written.
func (c *Client) Get(ctx context.Context, endpoint string, params map[string]string, opts RequestOptions) (Response, error) {
	key := cache.NewKey(endpoint, params)

	if !opts.SkipCache && c.cache != nil {
		if body, tier, ok := c.cache.Lookup(ctx, key); ok {
			header, err := decodeEnvelopeHeader(body)
			if err == nil {
				c.metrics.RecordCacheLookup(string(tier))
				c.recordCacheHit(ctx, key.Endpoint, nil)
				return Response{
					Endpoint: key.Endpoint,
					Body:     body,
					Results:  header.Results,
					Paging:   header.Paging,
					Cached:   true,
					Tier:     tier,
				}, nil
			}
			c.cache.Invalidate(ctx, key)
		}
	}

	if !opts.Critical && c.breaker != nil && c.breaker.State() == resilience.CircuitStateOpen {
		return Response{}, c.reject(ctx, key.Endpoint, usecase.ErrCircuitOpen)
	}
	if err := c.quota.Check(); err != nil {
		return Response{}, c.reject(ctx, key.Endpoint, usecase.ErrQuotaExhausted)
	}
	if !opts.Critical && c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			return Response{}, c.reject(ctx, key.Endpoint, usecase.ErrCircuitOpen)
		}
	}

	flightKey := key.Canonical()
	if opts.SkipCache {
		flightKey = "fresh|" + flightKey
	}
	// The shared fetch is detached from the caller that started it, so one
	// cancelled caller cannot fail the others waiting on the same key.
	var led atomic.Bool
	results := c.flight.DoChan(flightKey, func() (any, error) {
		led.Store(true)
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.flightTimeout)
		defer cancel()
		return c.fetch(flightCtx, key, opts)
	})

	select {
	case res := <-results:
		if !led.Load() {
			c.settleFollower(ctx, key.Endpoint, opts, res.Err)
		}
		if res.Err != nil {
			return Response{}, res.Err
		}
		resp, ok := res.Val.(Response)
		if !ok {
			return Response{}, fmt.Errorf("unexpected response payload type %T", res.Val)
		}
		return resp, nil
	case <-ctx.Done():
		// Book this caller once the shared fetch settles; only then is it
		// known whether it ran the fetch itself.
		go func() {
			<-results
			if !led.Load() {
				c.settleFollower(ctx, key.Endpoint, opts, ctx.Err())
			}
		}()
		return Response{}, ctx.Err()
	}
}

// settleFollower books a caller that joined another caller's fetch. It never
// reached the network, so it returns its breaker slot and logs a cache hit.
func (c *Client) settleFollower(ctx context.Context, endpoint string, opts RequestOptions, err error) {
	if !opts.Critical && c.breaker != nil {
		c.breaker.Release()
	}
	c.recordCacheHit(ctx, endpoint, err)
}

func (c *Client) fetch(ctx context.Context, key cache.Key, opts RequestOptions) (Response, error) {
	fullURL := c.creds.baseURL + key.Endpoint
	if query := key.Query(); query != "" {
		fullURL += "?" + query
	}

	started := c.now()
	raw, status, attempts, reqErr := c.executeRequest(ctx, key.Endpoint, fullURL)
	latency := c.now().Sub(started)

	if attempts == 0 {
		// Nothing was sent, so the daily quota is untouched.
		if !opts.Critical && c.breaker != nil {
			c.breaker.Release()
		}
		c.metrics.RecordProviderCall(key.Endpoint, metrics.OutcomeRejected, 0)
		c.appendUsage(ctx, usage.Record{
			Endpoint: key.Endpoint,
			Kind:     usage.KindRejected,
			Error:    reqErr.Error(),
		})
		return Response{}, reqErr
	}

	if reqErr != nil && ctx.Err() != nil {
		// Cancellation says nothing about provider health.
		if !opts.Critical && c.breaker != nil {
			c.breaker.Release()
		}
		c.quota.Record()
		c.appendUsage(ctx, usage.Record{
			Endpoint:   key.Endpoint,
			StatusCode: status,
			LatencyMs:  latency.Milliseconds(),
			Kind:       usage.KindNetwork,
			Error:      ctx.Err().Error(),
		})
		return Response{}, ctx.Err()
	}

	resp, err := c.classify(key.Endpoint, raw, reqErr)
	c.signalBreaker(opts, err)
	c.quota.Record()
	c.metrics.SetQuotaUsed(c.quota.Snapshot().Used)

	record := usage.Record{
		Endpoint:   key.Endpoint,
		StatusCode: status,
		LatencyMs:  latency.Milliseconds(),
		Kind:       usage.KindNetwork,
	}
	switch {
	case err != nil:
		record.Error = c.creds.redact(err.Error())
		c.metrics.RecordProviderCall(key.Endpoint, metrics.OutcomeError, latency)
		c.logger.WarnContext(ctx, "api-football request failed",
			"endpoint", key.Endpoint,
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"error", record.Error,
		)
	case resp.Empty:
		c.metrics.RecordProviderCall(key.Endpoint, metrics.OutcomeEmpty, latency)
	default:
		c.metrics.RecordProviderCall(key.Endpoint, metrics.OutcomeSuccess, latency)
		if c.cache != nil {
			c.cache.Save(ctx, key, raw, c.ttlFor(key.Endpoint, opts))
		}
	}
	c.appendUsage(ctx, record)

	if err != nil {
		return Response{}, err
	}
	return resp, nil
}

// classify turns a transport result into a Response or a typed error.
func (c *Client) classify(endpoint string, raw []byte, reqErr error) (Response, error) {
	if reqErr != nil {
		return Response{}, reqErr
	}

	header, err := decodeEnvelopeHeader(raw)
	if err != nil {
		return Response{}, &UpstreamError{Kind: KindPayload, StatusCode: http.StatusOK, Endpoint: endpoint, Message: err.Error()}
	}
	if messages := envelopeErrors(header.Errors); len(messages) > 0 {
		kind := envelopeErrorKind(header.Errors)
		if kind == KindRateLimited {
			c.metrics.RecordRateLimit()
		}
		return Response{}, &UpstreamError{
			Kind:       kind,
			StatusCode: http.StatusOK,
			Endpoint:   endpoint,
			Message:    c.creds.redact(strings.Join(messages, "; ")),
		}
	}

	return Response{
		Endpoint: endpoint,
		Body:     raw,
		Results:  header.Results,
		Paging:   header.Paging,
		Empty:    header.Results <= 0 && !hasResponseData(raw),
	}, nil
}

// executeRequest also reports how many requests were handed to the
// transport.
func (c *Client) executeRequest(ctx context.Context, endpoint, fullURL string) ([]byte, int, int, error) {
	var (
		lastErr    error
		lastStatus int
		attempts   int
	)
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, lastStatus, attempts, err
		}

		attempts++
		raw, status, err := c.doOnce(ctx, endpoint, fullURL)
		lastStatus = status
		if err == nil {
			return raw, status, attempts, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, status, attempts, ctx.Err()
		}

		var upstream *UpstreamError
		if !stderrors.As(err, &upstream) || !upstream.Retryable() || attempt == c.maxRetries {
			break
		}

		wait := resilience.ServerErrorBackoff.Delay(attempt + 1)
		if upstream.StatusCode == http.StatusTooManyRequests {
			wait = resilience.RateLimitedBackoff.Delay(attempt + 1)
			if upstream.RetryAfter > wait {
				wait = upstream.RetryAfter
			}
		}
		c.logger.DebugContext(ctx, "retrying api-football request",
			"endpoint", endpoint,
			"attempt", attempt+1,
			"status", status,
			"wait", wait.String(),
		)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, status, attempts, err
		}
	}

	if lastErr == nil {
		lastErr = &UpstreamError{Kind: KindServer, Endpoint: endpoint, Message: "provider request failed"}
	}
	return nil, lastStatus, attempts, lastErr
}

func (c *Client) doOnce(ctx context.Context, endpoint, fullURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	c.creds.apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &UpstreamError{
			Kind:     KindServer,
			Endpoint: endpoint,
			Message:  "send request: " + c.creds.redact(redactURLError(err)),
		}
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, resp.StatusCode, &UpstreamError{
			Kind:       KindServer,
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Message:    "read response body: " + readErr.Error(),
		}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, resp.StatusCode, nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		c.metrics.RecordRateLimit()
	}
	return nil, resp.StatusCode, newStatusError(endpoint, resp.StatusCode, c.creds.redact(abbreviateBody(raw)), resp.Header)
}

func (c *Client) signalBreaker(opts RequestOptions, err error) {
	if c.breaker == nil {
		return
	}
	if isCircuitFailure(err) {
		c.breaker.RecordFailure()
	} else if !opts.Critical || c.breaker.State() != resilience.CircuitStateOpen {
		c.breaker.RecordSuccess()
	}
}

func breakerHook(logger *logging.Logger, rec *metrics.Recorder) resilience.StateHook {
	logger = logger.Named("apifootball")
	return func(from, to resilience.CircuitState) {
		rec.SetBreakerState(string(to))
		if to == resilience.CircuitStateOpen {
			logger.Warn("circuit breaker opened", "from", from)
			return
		}
		logger.Info("circuit breaker state changed", "from", from, "to", to)
	}
}

func (c *Client) reject(ctx context.Context, endpoint string, reason error) error {
	c.metrics.RecordProviderCall(endpoint, metrics.OutcomeRejected, 0)
	c.appendUsage(ctx, usage.Record{
		Endpoint: endpoint,
		Kind:     usage.KindRejected,
		Error:    reason.Error(),
	})
	c.logger.WarnContext(ctx, "api-football request rejected locally", "endpoint", endpoint, "reason", reason.Error())
	return fmt.Errorf("%w: endpoint=%s", reason, endpoint)
}

func (c *Client) recordCacheHit(ctx context.Context, endpoint string, shared error) {
	c.metrics.RecordProviderCall(endpoint, metrics.OutcomeCacheHit, 0)
	record := usage.Record{
		Endpoint:   endpoint,
		StatusCode: http.StatusOK,
		Cached:     true,
		Kind:       usage.KindCacheHit,
	}
	if shared != nil {
		record.StatusCode = 0
		record.Error = c.creds.redact(shared.Error())
	}
	c.appendUsage(ctx, record)
}

// appendUsage never fails the call; a lost usage row only skews reporting.
func (c *Client) appendUsage(ctx context.Context, record usage.Record) {
	if c.usage == nil {
		return
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = c.now().UTC()
	}
	if err := c.usage.Append(context.WithoutCancel(ctx), record); err != nil {
		c.logger.WarnContext(ctx, "append provider usage failed", "endpoint", record.Endpoint, "error", err)
	}
}

func (c *Client) ttlFor(endpoint string, opts RequestOptions) time.Duration {
	if opts.TTL > 0 {
		return opts.TTL
	}
	return DefaultTTL(endpoint)
}

// RestoreQuota rebuilds today's counter from the usage log so a restart does
// not hand out a fresh daily budget.
func (c *Client) RestoreQuota(ctx context.Context) error {
	if c.usage == nil {
		return nil
	}
	now := c.now().UTC()
	count, err := c.usage.CountNetworkSince(ctx, resilience.StartOfUTCDay(now))
	if err != nil {
		return fmt.Errorf("restore provider quota: %w", err)
	}
	c.quota.Seed(now, count)
	c.metrics.SetQuotaUsed(count)
	c.logger.InfoContext(ctx, "provider quota restored", "date", resilience.UTCDay(now), "used", count)
	return nil
}

func (c *Client) QuotaSnapshot() resilience.QuotaSnapshot {
	return c.quota.Snapshot()
}

func (c *Client) Health() usecase.ProviderHealth {
	out := usecase.ProviderHealth{
		AuthMode: string(c.creds.mode),
		Quota:    c.quota.Snapshot(),
		RateLimit: usecase.RateLimitHealth{
			InWindow:          c.limiter.InWindow(),
			RequestsPerMinute: c.limiter.Limit(),
		},
		Calls: c.metrics.Snapshot(),
	}
	if c.breaker != nil {
		snapshot := c.breaker.Snapshot()
		out.Breaker = &snapshot
	}
	if c.cache != nil {
		out.CacheEntries = c.cache.MemoryEntries()
	}
	return out
}

// decodeResponse unpacks the response field of a successful envelope.
func decodeResponse[T any](resp Response) (T, error) {
	var body envelope[T]
	if err := sonic.Unmarshal(resp.Body, &body); err != nil {
		var zero T
		return zero, &UpstreamError{
			Kind:       KindPayload,
			StatusCode: http.StatusOK,
			Endpoint:   resp.Endpoint,
			Message:    "decode response: " + err.Error(),
		}
	}
	return body.Response, nil
}

func redactURLError(err error) string {
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) {
		return urlErr.Op + " " + stripQuery(urlErr.URL) + ": " + urlErr.Err.Error()
	}
	return err.Error()
}

func stripQuery(raw string) string {
	if idx := strings.IndexByte(raw, '?'); idx >= 0 {
		return raw[:idx]
	}
	return raw
}
