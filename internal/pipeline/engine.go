package pipeline

import (
	"fmt"

	"github.com/couchcryptid/surge-forecast-service/internal/domain"
	"github.com/couchcryptid/surge-forecast-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// DefaultForecastDays is the horizon used when a request does not name one.
const DefaultForecastDays = 7

// Engine wires the four planning units into one report. The units never call
// each other; Engine passes forecast day one and the risk sub-scores between them.
type Engine struct {
	risk     domain.RiskScorer
	forecast domain.LoadForecaster
	staffing domain.StaffingPlanner
	supply   domain.SupplyPlanner

	clock   clockwork.Clock
	days    int
	newID   func() uuid.UUID
	metrics *observability.Metrics
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithClock sets the clock used for generated_at and for contexts without an
// observation time.
func WithClock(c clockwork.Clock) EngineOption {
	return func(e *Engine) { e.clock = c }
}

// WithForecastDays sets the default forecast horizon.
func WithForecastDays(days int) EngineOption {
	return func(e *Engine) { e.days = days }
}

// WithIDGenerator sets the report ID source.
func WithIDGenerator(fn func() uuid.UUID) EngineOption {
	return func(e *Engine) { e.newID = fn }
}

// WithMetrics records report-level metrics for every assembled report.
func WithMetrics(m *observability.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine builds an Engine whose units all share params p.
func NewEngine(p domain.Params, opts ...EngineOption) *Engine {
	e := &Engine{
		risk:     domain.NewRiskScorer(p),
		forecast: domain.NewLoadForecaster(p),
		staffing: domain.NewStaffingPlanner(p),
		supply:   domain.NewSupplyPlanner(p),
		clock:    clockwork.NewRealClock(),
		days:     DefaultForecastDays,
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Assess scores the context.
func (e *Engine) Assess(pc domain.PredictionContext) domain.RiskAssessment {
	return e.risk.Assess(e.resolve(pc))
}

// Forecast returns a days-long forecast. Zero selects the default horizon;
// anything else outside [1, max] is rejected with domain.ErrInvalidDays.
func (e *Engine) Forecast(pc domain.PredictionContext, days int) ([]domain.ForecastDay, error) {
	days, err := e.horizon(days)
	if err != nil {
		return nil, err
	}
	return e.forecast.Forecast(e.resolve(pc), days), nil
}

// Staffing plans day-one staffing from the context.
func (e *Engine) Staffing(pc domain.PredictionContext) domain.StaffingPlan {
	pc = e.resolve(pc)
	risk := e.risk.Assess(pc)
	day := e.forecast.Forecast(pc, 1)[0]
	return e.staffing.Recommend(staffingInput(pc, risk, day))
}

// Supplies plans day-one supplies from the context and the stock on hand.
func (e *Engine) Supplies(pc domain.PredictionContext, stock map[string]int) []domain.SupplyRequirement {
	pc = e.resolve(pc)
	risk := e.risk.Assess(pc)
	day := e.forecast.Forecast(pc, 1)[0]
	return e.supply.Recommend(supplyInput(pc, risk, &day, stock))
}

// Report assembles the full surge report for one request.
func (e *Engine) Report(req domain.SurgeRequest) (domain.SurgeReport, error) {
	days, err := e.horizon(req.ForecastDays)
	if err != nil {
		return domain.SurgeReport{}, err
	}

	pc := e.resolve(req.Context)
	risk := e.risk.Assess(pc)
	forecast := e.forecast.Forecast(pc, days)
	staffing := e.staffing.Recommend(staffingInput(pc, risk, forecast[0]))
	supplies := e.supply.Recommend(supplyInput(pc, risk, &forecast[0], req.CurrentStock))

	report := domain.SurgeReport{
		ID:          e.newID(),
		HospitalID:  req.HospitalID,
		GeneratedAt: e.clock.Now().UTC(),
		Risk:        risk,
		Forecast:    forecast,
		Staffing:    staffing,
		Supplies:    supplies,
		Alerts:      domain.OperationalAlerts(pc, risk, staffing),
	}
	e.observe(report)
	return report, nil
}

// Validate reports whether the default horizon fits the forecaster's limit.
func (e *Engine) Validate() error {
	if err := e.forecast.ValidateDays(e.days); err != nil {
		return fmt.Errorf("default forecast horizon: %w", err)
	}
	return nil
}

// ForecastDays returns the default horizon.
func (e *Engine) ForecastDays() int { return e.days }

func (e *Engine) horizon(days int) (int, error) {
	if days == 0 {
		days = e.days
	}
	if err := e.forecast.ValidateDays(days); err != nil {
		return 0, fmt.Errorf("forecast horizon: %w", err)
	}
	return days, nil
}

// resolve normalizes pc and anchors it to the clock when it carries no
// observation time.
func (e *Engine) resolve(pc domain.PredictionContext) domain.PredictionContext {
	if pc.ObservedAt.IsZero() {
		pc.ObservedAt = e.clock.Now()
	}
	return pc.Normalize()
}

func (e *Engine) observe(r domain.SurgeReport) {
	if e.metrics == nil {
		return
	}
	e.metrics.ReportsGenerated.WithLabelValues(string(r.Risk.Level)).Inc()
	e.metrics.RiskIndex.Observe(float64(r.Risk.Index))
	e.metrics.ForecastPeakPatients.Set(float64(r.PeakPatients()))
	for _, a := range r.Alerts {
		e.metrics.OperationalAlerts.WithLabelValues(a.Type).Inc()
	}
}

func staffingInput(pc domain.PredictionContext, risk domain.RiskAssessment, day domain.ForecastDay) domain.StaffingInput {
	return domain.StaffingInput{
		Date:              day.Date,
		PredictedPatients: day.TotalPatients,
		ICURisk:           float64(risk.Breakdown.ICU),
		EpidemicIndex:     pc.EpidemicIndex,
		AQI:               pc.AQI,
		RespiratoryCases:  day.Breakdown.Respiratory,
	}
}

func supplyInput(pc domain.PredictionContext, risk domain.RiskAssessment, day *domain.ForecastDay, stock map[string]int) domain.SupplyInput {
	return domain.SupplyInput{
		Forecast:       day,
		CurrentStock:   stock,
		FestivalWindow: risk.FestivalNearby,
		AQI:            pc.AQI,
		EpidemicIndex:  pc.EpidemicIndex,
	}
}
