package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/usecase"
)

func decodeResponseEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body envelope
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apiVersion, body.APIVersion)
	return body
}

func TestWriteSuccess_DataOnly(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusCreated, map[string]int{"match_id": 7})

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeResponseEnvelope(t, rec)
	assert.Nil(t, body.Error)
	assert.Equal(t, map[string]any{"match_id": float64(7)}, body.Data)
}

func TestWriteError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("%w: bad payload", usecase.ErrInvalidInput))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeResponseEnvelope(t, rec)
	assert.Nil(t, body.Data)
	require.NotNil(t, body.Error)
	assert.Equal(t, http.StatusBadRequest, body.Error.Code)
	assert.Equal(t, "INVALID_ARGUMENT", body.Error.Status)
	assert.Contains(t, body.Error.Message, "bad payload")
	require.Len(t, body.Error.Errors, 1)
	assert.Equal(t, errorItem{Domain: errorDomain, Reason: "invalidInput", Message: body.Error.Message}, body.Error.Errors[0])
}

func TestWriteError_HidesUnmappedMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, errors.New("pq: connection refused to 10.0.0.4"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeResponseEnvelope(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "internal server error", body.Error.Message)
	assert.NotContains(t, rec.Body.String(), "10.0.0.4")
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		reason string
	}{
		{fmt.Errorf("fixtures: %w", usecase.ErrUpstreamRateLimited), http.StatusTooManyRequests, "upstreamRateLimited"},
		{usecase.ErrQuotaExhausted, http.StatusServiceUnavailable, "quotaExhausted"},
		{fmt.Errorf("odds: %w", usecase.ErrCircuitOpen), http.StatusServiceUnavailable, "circuitOpen"},
		{usecase.ErrUpstreamServer, http.StatusBadGateway, "upstreamError"},
		{usecase.ErrUpstreamClient, http.StatusBadGateway, "upstreamError"},
		{usecase.ErrProviderPayload, http.StatusBadGateway, "upstreamError"},
		{usecase.ErrDependencyUnavailable, http.StatusServiceUnavailable, "dependencyUnavailable"},
		{usecase.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{fmt.Errorf("%w: match id=1", usecase.ErrNotFound), http.StatusNotFound, "notFound"},
		{errors.New("boom"), http.StatusInternalServerError, "internalError"},
	}

	for _, tt := range tests {
		got := mapError(tt.err)
		assert.Equal(t, tt.status, got.HTTPStatus, tt.err.Error())
		assert.Equal(t, tt.reason, got.Reason, tt.err.Error())
	}
}
