package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_NoPath(t *testing.T) {
	h := NewErrorHandler(nil, false)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/causal_discovery", nil)

	h.Handle(rec, req, "req-9", NewNoPathError([]string{"PM2.5"}, []string{"CRP"}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "req-9", body.RequestID)
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "NO_CAUSAL_PATH", body.Error.Code)
	assert.Equal(t, []interface{}{"PM2.5"}, body.Error.Details["attempted_sources"])
}

func TestErrorHandler_NoPathLoggedAtInfo(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := NewErrorHandler(zap.New(core), false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/causal_discovery", nil)

	h.Handle(httptest.NewRecorder(), req, "r1", NewNoPathError([]string{"PM2.5"}, []string{"CRP"}))
	h.Handle(httptest.NewRecorder(), req, "r2", NewInvalidRequestError("sources required"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestErrorHandler_CodeFallsBackToType(t *testing.T) {
	h := NewErrorHandler(nil, false)
	rec := httptest.NewRecorder()

	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil), "r", NewTimeoutError("discovery"))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "TIMEOUT", decodeEnvelope(t, rec).Error.Code)
}

func TestErrorHandler_PlainErrorHidesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	NewErrorHandler(nil, false).Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil), "r", fmt.Errorf("db password wrong"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "INTERNAL", body.Error.Code)
	assert.NotContains(t, body.Error.Message, "password")

	rec = httptest.NewRecorder()
	NewErrorHandler(nil, true).Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil), "r", fmt.Errorf("db password wrong"))
	assert.Contains(t, decodeEnvelope(t, rec).Error.Message, "password")
}

func TestErrorHandler_MiddlewareRecoversPanic(t *testing.T) {
	h := NewErrorHandler(nil, false)
	panicking := h.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	panicking.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL", decodeEnvelope(t, rec).Error.Code)
}
