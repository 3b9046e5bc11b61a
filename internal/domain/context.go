package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Baseline values used when a signal is missing from the input.
const (
	DefaultAQI             = 100
	DefaultTemperatureC    = 25.0
	DefaultHumidityPct     = 50.0
	DefaultPatientSlope    = 1.0
	DefaultICUOccupancy    = 0.5
	DefaultCurrentPatients = 150
)

// aqiIndexScale maps the 1-5 OpenWeather air quality index onto the 0-500 AQI scale.
var aqiIndexScale = map[int]int{1: 50, 2: 100, 3: 200, 4: 300, 5: 400}

// FestivalEvent is a calendar event that may drive trauma and respiratory volume.
type FestivalEvent struct {
	Date Date   `json:"date"`
	Name string `json:"name"`
	// HighRisk is nil when the upstream calendar did not classify the event;
	// the name is then matched against the high-risk keyword list.
	HighRisk *bool `json:"high_risk,omitempty"`
}

// IsHighRisk reports whether the festival counts as high risk. An explicit flag
// wins; otherwise the name is matched case-insensitively against keywords.
func (f FestivalEvent) IsHighRisk(keywords []string) bool {
	if f.HighRisk != nil {
		return *f.HighRisk
	}
	return MatchesHighRiskKeyword(f.Name, keywords)
}

// MatchesHighRiskKeyword reports whether name contains any of the keywords.
func MatchesHighRiskKeyword(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// PredictionContext is the resolved set of environmental and operational signals
// for one hospital at one point in time. Callers assemble it from upstream data
// providers; the forecasting units only read it.
type PredictionContext struct {
	AQI int `json:"aqi"`
	// AQIIndex is the optional 1-5 provider index. When set it overrides AQI.
	AQIIndex        int             `json:"aqi_index,omitempty"`
	PM25            float64         `json:"pm2_5"`
	PM10            float64         `json:"pm10"`
	TemperatureC    float64         `json:"temperature"`
	HumidityPct     float64         `json:"humidity"`
	PatientSlope6h  float64         `json:"patient_slope_6h"`
	PatientSlope24h float64         `json:"patient_slope_24h"`
	EpidemicIndex   float64         `json:"epidemic_index"`
	ICUOccupancy    float64         `json:"icu_occupancy"`
	CurrentPatients int             `json:"current_patients"`
	FestivalNearby  bool            `json:"festival_nearby"`
	Festivals       []FestivalEvent `json:"festivals,omitempty"`
	// ObservedAt is when the signals were sampled. Its calendar day is "today"
	// for forecasting and festival proximity. The domain units do not default a
	// zero value; pipeline.Engine fills it from its clock.
	ObservedAt time.Time `json:"observed_at"`
}

// DefaultContext returns a context holding every documented baseline.
func DefaultContext() PredictionContext {
	return PredictionContext{
		AQI:             DefaultAQI,
		TemperatureC:    DefaultTemperatureC,
		HumidityPct:     DefaultHumidityPct,
		PatientSlope6h:  DefaultPatientSlope,
		PatientSlope24h: DefaultPatientSlope,
		ICUOccupancy:    DefaultICUOccupancy,
		CurrentPatients: DefaultCurrentPatients,
	}
}

// DecodeContext parses a JSON context. Fields absent from the payload keep
// their baseline values, and the result is normalized.
func DecodeContext(data []byte) (PredictionContext, error) {
	pc := DefaultContext()
	if err := json.Unmarshal(data, &pc); err != nil {
		return PredictionContext{}, fmt.Errorf("decode prediction context: %w", err)
	}
	return pc.Normalize(), nil
}

// UnmarshalJSON decodes on top of the baselines so that missing fields default
// rather than zero out.
func (pc *PredictionContext) UnmarshalJSON(data []byte) error {
	type plain PredictionContext
	base := plain(DefaultContext())
	if err := json.Unmarshal(data, &base); err != nil {
		return err
	}
	*pc = PredictionContext(base)
	return nil
}

// Today returns the reference calendar day of the context.
func (pc PredictionContext) Today() Date { return DateOf(pc.ObservedAt) }

// Normalize clamps every signal into its declared domain. It never fails:
// non-finite values fall back to baselines and out-of-range values snap to the
// nearest bound.
func (pc PredictionContext) Normalize() PredictionContext {
	if mapped, ok := aqiIndexScale[pc.AQIIndex]; ok {
		pc.AQI = mapped
	}
	pc.AQIIndex = 0
	pc.AQI = min(max(pc.AQI, 0), 500)
	pc.PM25 = clampFloat(pc.PM25, 0, math.MaxFloat64, 0)
	pc.PM10 = clampFloat(pc.PM10, 0, math.MaxFloat64, 0)
	pc.TemperatureC = clampFloat(pc.TemperatureC, -90, 60, DefaultTemperatureC)
	pc.HumidityPct = clampFloat(pc.HumidityPct, 0, 100, DefaultHumidityPct)
	pc.PatientSlope6h = clampFloat(pc.PatientSlope6h, 0, 10, DefaultPatientSlope)
	pc.PatientSlope24h = clampFloat(pc.PatientSlope24h, 0, 10, DefaultPatientSlope)
	pc.EpidemicIndex = clampFloat(pc.EpidemicIndex, 0, 10, 0)
	pc.ICUOccupancy = clampFloat(pc.ICUOccupancy, 0, 1, DefaultICUOccupancy)
	pc.CurrentPatients = max(pc.CurrentPatients, 0)
	return pc
}

// clampFloat bounds v to [lo, hi]; NaN and infinities become fallback first.
func clampFloat(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = fallback
	}
	return math.Min(math.Max(v, lo), hi)
}
