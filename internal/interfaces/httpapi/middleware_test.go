package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/logging"
)

func TestRequireInternalJobToken(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) })

	cases := []struct {
		name       string
		configured string
		sent       string
		want       int
	}{
		{name: "valid", configured: "secret", sent: "secret", want: http.StatusAccepted},
		{name: "padded header", configured: "secret", sent: " secret ", want: http.StatusAccepted},
		{name: "wrong token", configured: "secret", sent: "guess", want: http.StatusUnauthorized},
		{name: "missing header", configured: "secret", want: http.StatusUnauthorized},
		{name: "not configured", configured: "", sent: "anything", want: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/results/sync", nil)
			if tc.sent != "" {
				req.Header.Set(internalJobTokenHeader, tc.sent)
			}
			rec := httptest.NewRecorder()
			RequireInternalJobToken(tc.configured, ok).ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRecoverPanic_WritesInternalError(t *testing.T) {
	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("nil map") })

	rec := httptest.NewRecorder()
	recoverPanic(logging.NewNop(), boom).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/enrichment/stats", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internalError")
}

func TestRequestLogging_RecordsRouteAndSize(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := logging.FromZap(zap.New(core))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/matches/{matchID}/enrichment", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hello"))
	})

	rec := httptest.NewRecorder()
	RequestLogging(logger, mux).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/matches/42/enrichment", nil))

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET /v1/matches/{matchID}/enrichment", fields["route"])
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
	assert.Equal(t, int64(5), fields["bytes"])
}

func TestCaptureRequestBody(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	ctx, span := provider.Tracer("test").Start(context.Background(), "request")

	var seen string
	h := CaptureRequestBody(8, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		seen = string(raw)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/result-sync", strings.NewReader(`{"match_id":42}`)).WithContext(ctx)
	h.ServeHTTP(httptest.NewRecorder(), req)
	span.End()

	assert.Equal(t, `{"match_id":42}`, seen, "handler reads the whole body")
	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Contains(t, ended[0].Attributes(), attribute.String("http.request.body", `{"match_`))
}

func TestCaptureRequestBody_DisabledPassesThrough(t *testing.T) {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	h := CaptureRequestBody(0, next)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	const dashboard = "https://dashboard.example.com"
	cases := []struct {
		name       string
		origins    []string
		method     string
		wantOrigin string
		wantStatus int
	}{
		{name: "configured origin", origins: []string{dashboard}, method: http.MethodGet, wantOrigin: dashboard, wantStatus: http.StatusOK},
		{name: "wildcard preflight", origins: []string{"*"}, method: http.MethodOptions, wantOrigin: "*", wantStatus: http.StatusNoContent},
		{name: "other origin", origins: []string{"https://allowed.example.com"}, method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "blank config passes through", origins: []string{" ", ""}, method: http.MethodGet, wantStatus: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := CORS(tc.origins, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(tc.method, "/v1/enrichment/stats", nil)
			req.Header.Set("Origin", dashboard)
			if tc.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestShouldTraceRequest(t *testing.T) {
	for _, path := range []string{"/healthz", "/health", "/livez", "/readyz", "/metrics", " /healthz "} {
		assert.False(t, shouldTraceRequest(path), path)
	}
	for _, path := range []string{"/v1/enrichment/stats", "/v1/matches/1/enrichment", "/", "/docs"} {
		assert.True(t, shouldTraceRequest(path), path)
	}
}
