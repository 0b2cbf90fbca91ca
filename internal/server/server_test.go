package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workorder-intake-go/internal/actionable"
	"workorder-intake-go/internal/config"
	"workorder-intake-go/internal/extractor"
	"workorder-intake-go/internal/logger"
	"workorder-intake-go/internal/metrics"
	"workorder-intake-go/internal/processor"
	"workorder-intake-go/internal/types"
)

func newTestServer(t *testing.T) (http.Handler, *prometheus.Registry) {
	t.Helper()
	t.Setenv("ENVIRONMENT", "test")
	log := logger.NewWithWriter(&bytes.Buffer{})
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	orch := extractor.NewOrchestrator(nil, nil,
		extractor.WithClock(func() time.Time { return now }),
		extractor.WithLogger(log.Component("orchestrator")),
		extractor.WithMetrics(m),
	)
	cfg := config.Default()
	cfg.Primary.APIKey = "secret-key"
	p := processor.New(orch, time.Second, 1, log.Entry)
	return New(p, log, cfg, reg).Handler(), reg
}

type decoded struct {
	types.ExtractResponse
	Routing *actionable.Routing `json:"routing"`
}

func TestExtract_Success(t *testing.T) {
	h, _ := newTestServer(t)

	body := `{"raw_text":"Schedule for January 5. Leaking pipe, call 555.123.4567. Budget $1,200 to $3,500"}`
	req := httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader(body))
	req.Header.Set(logger.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(logger.RequestIDHeader))

	var got decoded
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Success)
	require.NotNil(t, got.Data)
	assert.Equal(t, types.SourceHeuristic, got.Source)
	assert.Equal(t, "2026-01-05T09:00:00", got.Data.ScheduledStart)
	assert.Equal(t, "(555) 123-4567", got.Data.ContactPhone)
	assert.Equal(t, 1200.0, got.Data.BudgetMin)
	assert.Equal(t, 3500.0, got.Data.BudgetMax)
	assert.Len(t, got.FieldConfidence, len(types.RecordFields))
	assert.LessOrEqual(t, got.Confidence, 0.7)
	require.NotNil(t, got.Routing)
	assert.Equal(t, actionable.ManualReview, got.Routing.Decision)
}

func TestExtract_BadRequests(t *testing.T) {
	h, _ := newTestServer(t)

	for _, body := range []string{`{"raw_text":""}`, `{"raw_text":"   "}`, `{}`, `not json`, ``} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		var got types.ExtractResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.False(t, got.Success)
		assert.NotEmpty(t, got.Error)
		assert.Nil(t, got.Data)
	}
}

func TestExtract_MethodNotAllowed(t *testing.T) {
	h, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/extract", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	h, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(logger.RequestIDHeader))
}

func TestConfig_HidesSecrets(t *testing.T) {
	h, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/config", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-key")

	var got config.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Primary.Enabled)
	assert.False(t, got.Secondary.Enabled)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader(`{"raw_text":"fix sink"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `workorder_extractions_total{source="heuristic"} 1`)
}
