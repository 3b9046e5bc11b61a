package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/surge-forecast-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

// SurgeTransformer implements Transformer by decoding a SurgeRequest from the
// message value and running it through the Engine.
type SurgeTransformer struct {
	engine   *Engine
	validate *validator.Validate
	logger   *slog.Logger
}

// NewTransformer creates a SurgeTransformer backed by engine.
func NewTransformer(engine *Engine, logger *slog.Logger) *SurgeTransformer {
	return &SurgeTransformer{
		engine:   engine,
		validate: validator.New(),
		logger:   logger,
	}
}

// Transform decodes raw into a request and assembles its report. Messages
// without a hospital_id fall back to the message key.
func (t *SurgeTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.SurgeReport, error) {
	req, err := domain.DecodeSurgeRequest(raw.Value)
	if err != nil {
		return domain.SurgeReport{}, err
	}
	if req.HospitalID == "" {
		req.HospitalID = string(raw.Key)
	}
	if err := t.validate.Struct(req); err != nil {
		return domain.SurgeReport{}, fmt.Errorf("validate surge request: %w", err)
	}

	report, err := t.engine.Report(req)
	if err != nil {
		return domain.SurgeReport{}, err
	}

	t.logger.Debug("surge report assembled",
		"hospital_id", report.HospitalID,
		"risk_index", report.Risk.Index,
		"risk_level", report.Risk.Level,
		"peak_patients", report.PeakPatients(),
	)
	return report, nil
}
