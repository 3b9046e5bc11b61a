package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SurgeRequest is the inbound envelope: one hospital's context plus optional
// planning inputs.
type SurgeRequest struct {
	HospitalID string            `json:"hospital_id" validate:"max=128"`
	Context    PredictionContext `json:"context"`
	// ForecastDays of zero selects the configured default horizon.
	ForecastDays int            `json:"forecast_days,omitempty" validate:"omitempty,min=1"`
	CurrentStock map[string]int `json:"current_stock,omitempty" validate:"omitempty,dive,gte=0"`
}

// DecodeSurgeRequest parses a SurgeRequest. A missing context, like any
// missing context field, takes the documented baselines.
func DecodeSurgeRequest(data []byte) (SurgeRequest, error) {
	req := SurgeRequest{Context: DefaultContext()}
	if err := json.Unmarshal(data, &req); err != nil {
		return SurgeRequest{}, fmt.Errorf("decode surge request: %w", err)
	}
	req.Context = req.Context.Normalize()
	return req, nil
}

// SurgeReport is the outbound envelope combining all four planning results.
type SurgeReport struct {
	ID          uuid.UUID           `json:"id"`
	HospitalID  string              `json:"hospital_id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Risk        RiskAssessment      `json:"risk"`
	Forecast    []ForecastDay       `json:"forecast"`
	Staffing    StaffingPlan        `json:"staffing"`
	Supplies    []SupplyRequirement `json:"supplies"`
	Alerts      []OperationalAlert  `json:"alerts"`
}

// PeakPatients returns the highest daily total in the forecast.
func (r SurgeReport) PeakPatients() int {
	peak := 0
	for _, d := range r.Forecast {
		peak = max(peak, d.TotalPatients)
	}
	return peak
}
