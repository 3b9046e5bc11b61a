package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/surge-forecast-service/internal/adapter/http"
	"github.com/couchcryptid/surge-forecast-service/internal/domain"
	"github.com/couchcryptid/surge-forecast-service/internal/observability"
	"github.com/couchcryptid/surge-forecast-service/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, nil, nil, discardLogger())
}

func newAPIServer(t *testing.T) (*httpadapter.Server, *observability.Metrics) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, time.October, 20, 9, 30, 0, 0, time.UTC))
	engine := pipeline.NewEngine(domain.DefaultParams(), pipeline.WithClock(clock))
	metrics := observability.NewMetricsForTesting()
	return httpadapter.NewServer(":0", &mockReadiness{}, engine, metrics, discardLogger()), metrics
}

func post(srv http.Handler, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("not ready yet"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAPIDisabledWithoutService(t *testing.T) {
	rec := post(newTestServer(nil), "/v1/risk", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRiskEndpoint(t *testing.T) {
	srv, metrics := newAPIServer(t)

	rec := post(srv, "/v1/risk", `{"context": {"aqi": 350, "temperature": 25, "humidity": 50, "icu_occupancy": 0.5}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.RiskAssessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 29, got.Index)
	assert.Equal(t, domain.RiskLow, got.Level)
	assert.Equal(t, 100, got.Breakdown.AQI)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.APIRequests.WithLabelValues("/v1/risk", "200")), 0)
}

func TestForecastEndpoint(t *testing.T) {
	srv, _ := newAPIServer(t)

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
		wantDays int
	}{
		{"default horizon", "/v1/forecast", "", http.StatusOK, pipeline.DefaultForecastDays},
		{"query days", "/v1/forecast?days=3", `{}`, http.StatusOK, 3},
		{"body days", "/v1/forecast", `{"forecast_days": 5}`, http.StatusOK, 5},
		{"query overrides body", "/v1/forecast?days=2", `{"forecast_days": 5}`, http.StatusOK, 2},
		{"days zero", "/v1/forecast?days=0", `{}`, http.StatusBadRequest, 0},
		{"days too large", "/v1/forecast?days=15", `{}`, http.StatusBadRequest, 0},
		{"days not a number", "/v1/forecast?days=week", `{}`, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(srv, tt.path, tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.wantCode != http.StatusOK {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.NotEmpty(t, body["error"])
				return
			}
			var body struct {
				Days     int                  `json:"days"`
				Forecast []domain.ForecastDay `json:"forecast"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantDays, body.Days)
			assert.Len(t, body.Forecast, tt.wantDays)
			assert.Equal(t, "2025-10-20", body.Forecast[0].Date.String())
		})
	}
}

func TestStaffingEndpoint(t *testing.T) {
	srv, _ := newAPIServer(t)

	rec := post(srv, "/v1/staffing", `{"context": {"aqi": 320, "icu_occupancy": 0.9}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.StaffingPlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	b := got.Breakdown
	assert.Equal(t, b.ICU.Doctors+b.ER.Doctors+b.General.Doctors, got.Doctors)
	assert.Equal(t, b.ICU.Nurses+b.ER.Nurses+b.General.Nurses, got.Nurses)
	assert.Equal(t, "Hospital Wide", got.Department)
}

func TestSuppliesEndpoint(t *testing.T) {
	srv, _ := newAPIServer(t)

	rec := post(srv, "/v1/supplies", `{"current_stock": {"oxygen": 500, "masks": 0}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Supplies []domain.SupplyRequirement `json:"supplies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Supplies, 5)
	assert.Equal(t, domain.ItemOxygen, body.Supplies[0].Key)
	assert.Equal(t, domain.SupplyOK, body.Supplies[0].Status)
	assert.Equal(t, domain.SupplyLow, body.Supplies[1].Status)
}

func TestReportEndpoint(t *testing.T) {
	srv, _ := newAPIServer(t)

	rec := post(srv, "/v1/report", `{"hospital_id": "city-general", "forecast_days": 3, "context": {"aqi": 260}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.SurgeReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "city-general", got.HospitalID)
	assert.Len(t, got.Forecast, 3)
	assert.Len(t, got.Supplies, 5)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", got.ID.String())
	require.NotEmpty(t, got.Alerts)
	assert.Equal(t, domain.AlertPollutionWarning, got.Alerts[0].Type)
}

func TestBadRequests(t *testing.T) {
	srv, metrics := newAPIServer(t)

	tests := []struct {
		name    string
		path    string
		body    string
		wantErr string
	}{
		{"malformed JSON", "/v1/risk", `{"context":`, "decode surge request"},
		{"invalid festival date", "/v1/report", `{"context": {"festivals": [{"date": "next week"}]}}`, "decode surge request"},
		{"horizon out of range", "/v1/report", `{"forecast_days": 40}`, "forecast days out of range"},
		{"negative stock", "/v1/supplies", `{"current_stock": {"ppe": -5}}`, "validate surge request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(srv, tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.wantErr)
		})
	}
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.APIRequests.WithLabelValues("/v1/risk", "400")), 0)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newAPIServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/risk", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
