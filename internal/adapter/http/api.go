package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/couchcryptid/surge-forecast-service/internal/domain"
	"github.com/couchcryptid/surge-forecast-service/internal/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// SurgeService is the planning surface the API exposes.
type SurgeService interface {
	Assess(pc domain.PredictionContext) domain.RiskAssessment
	Forecast(pc domain.PredictionContext, days int) ([]domain.ForecastDay, error)
	Staffing(pc domain.PredictionContext) domain.StaffingPlan
	Supplies(pc domain.PredictionContext, stock map[string]int) []domain.SupplyRequirement
	Report(req domain.SurgeRequest) (domain.SurgeReport, error)
}

// APIHandler serves the /v1 planning routes. Every route accepts a
// SurgeRequest body; an empty body means all baselines.
type APIHandler struct {
	svc      SurgeService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAPIHandler creates an APIHandler backed by svc.
func NewAPIHandler(svc SurgeService, logger *slog.Logger) *APIHandler {
	return &APIHandler{svc: svc, validate: validator.New(), logger: logger}
}

// RegisterRoutes mounts the planning routes on r.
func (h *APIHandler) RegisterRoutes(r chi.Router) {
	r.Post("/risk", h.handleRisk)
	r.Post("/forecast", h.handleForecast)
	r.Post("/staffing", h.handleStaffing)
	r.Post("/supplies", h.handleSupplies)
	r.Post("/report", h.handleReport)
}

func (h *APIHandler) handleRisk(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Assess(req.Context))
}

func (h *APIHandler) handleForecast(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	days := req.ForecastDays
	if q := r.URL.Query().Get("days"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid days %q", q))
			return
		}
		if n == 0 {
			h.fail(w, fmt.Errorf("%w: 0", domain.ErrInvalidDays))
			return
		}
		days = n
	}

	forecast, err := h.svc.Forecast(req.Context, days)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": len(forecast), "forecast": forecast})
}

func (h *APIHandler) handleStaffing(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Staffing(req.Context))
}

func (h *APIHandler) handleSupplies(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"supplies": h.svc.Supplies(req.Context, req.CurrentStock)})
}

func (h *APIHandler) handleReport(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	report, err := h.svc.Report(req)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.logger.Info("surge report served",
		"hospital_id", report.HospitalID,
		"risk_level", report.Risk.Level,
		"alerts", len(report.Alerts),
	)
	writeJSON(w, http.StatusOK, report)
}

// decode reads and validates the request body, writing a 400 on failure.
func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request) (domain.SurgeRequest, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body: "+err.Error())
		return domain.SurgeRequest{}, false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	req, err := domain.DecodeSurgeRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return domain.SurgeRequest{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validate surge request: "+err.Error())
		return domain.SurgeRequest{}, false
	}
	return req, true
}

func (h *APIHandler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrInvalidDays) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Error("planning request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// requestMetrics counts API requests by route pattern and status.
func requestMetrics(m *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if m == nil {
				return
			}
			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.APIRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		})
	}
}
