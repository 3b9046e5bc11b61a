package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// RiskBreakdown holds the six sub-scores, each truncated to an int in [0,100].
type RiskBreakdown struct {
	AQI      int `json:"aqi_risk"`
	Slope    int `json:"slope_risk"`
	Epidemic int `json:"epidemic_risk"`
	Festival int `json:"festival_risk"`
	ICU      int `json:"icu_risk"`
	Seasonal int `json:"seasonal_risk"`
}

// DepartmentRisks are fixed linear blends of sub-scores per department.
type DepartmentRisks struct {
	Emergency   int `json:"Emergency"`
	ICU         int `json:"ICU"`
	Pulmonology int `json:"Pulmonology"`
	Pediatrics  int `json:"Pediatrics"`
	GeneralWard int `json:"General_Ward"`
}

// SupplyRisks are coarse supply-pressure hints derived from sub-scores.
type SupplyRisks struct {
	OxygenCylinders Priority `json:"oxygen_cylinders"`
	N95Masks        Priority `json:"n95_masks"`
	ICUBeds         Priority `json:"icu_beds"`
	Ventilators     Priority `json:"ventilators"`
}

// EpidemicSummary grades the epidemic index on its own.
type EpidemicSummary struct {
	Index  float64   `json:"epidemic_index"`
	Level  RiskLevel `json:"level"`
	Reason string    `json:"reason"`
}

// RiskAssessment is the output of RiskScorer.Assess.
type RiskAssessment struct {
	Timestamp           time.Time       `json:"timestamp"`
	Index               int             `json:"index"`
	Level               RiskLevel       `json:"level"`
	Breakdown           RiskBreakdown   `json:"breakdown"`
	ContributingFactors []string        `json:"contributing_factors"`
	DepartmentRisks     DepartmentRisks `json:"department_risks"`
	SupplyRisks         SupplyRisks     `json:"supply_risks"`
	Recommendations     []string        `json:"recommendations"`
	Explanations        []string        `json:"explanations"`
	BurnoutHighCount    int             `json:"burnout_high_count"`
	BurnoutNote         string          `json:"burnout_note"`
	Epidemic            EpidemicSummary `json:"epidemic"`
	Festival            FestivalWindow  `json:"festival"`
	// FestivalNearby is the effective festival flag: the explicit override or
	// a high-risk festival inside the look-ahead window.
	FestivalNearby bool `json:"festival_nearby"`
}

// RiskScorer combines environmental and operational signals into a composite
// hospital risk index.
type RiskScorer struct {
	risk     RiskParams
	weather  WeatherBands
	festival FestivalParams
}

// NewRiskScorer returns a scorer using the risk, weather and festival parts of p.
func NewRiskScorer(p Params) RiskScorer {
	return RiskScorer{risk: p.Risk, weather: p.Weather, festival: p.Festival}
}

// Assess scores ctx. It never fails; ctx is normalized first. The assessment
// timestamp is ctx.ObservedAt, which callers must set.
func (s RiskScorer) Assess(ctx PredictionContext) RiskAssessment {
	ctx = ctx.Normalize()
	window := s.festival.Window(ctx.Festivals, ctx.Today())
	festivalNearby := ctx.FestivalNearby || window.HighRiskWindow

	b := RiskBreakdown{
		AQI:      truncate(s.aqiScore(float64(ctx.AQI))),
		Slope:    truncate(s.slopeScore(ctx.PatientSlope6h)),
		Epidemic: truncate(math.Min(100, ctx.EpidemicIndex*s.risk.EpidemicScale)),
		ICU:      truncate(s.icuScore(ctx.ICUOccupancy)),
		Seasonal: truncate(s.seasonalScore(ctx.TemperatureC, ctx.HumidityPct)),
	}
	if festivalNearby {
		b.Festival = 100
	}

	index := s.Composite(b)
	burnout := burnoutCount(ctx.CurrentPatients, ctx.ICUOccupancy)

	return RiskAssessment{
		Timestamp:           ctx.ObservedAt.UTC(),
		Index:               index,
		Level:               RiskLevelFor(index),
		Breakdown:           b,
		ContributingFactors: s.factors(ctx, festivalNearby),
		DepartmentRisks:     departmentRisks(b),
		SupplyRisks:         supplyRisks(b, ctx.CurrentPatients),
		Recommendations:     recommendations(index),
		Explanations:        explanations(ctx, festivalNearby),
		BurnoutHighCount:    burnout,
		BurnoutNote:         burnoutNote(burnout),
		Epidemic:            epidemicSummary(ctx.EpidemicIndex),
		Festival:            window,
		FestivalNearby:      festivalNearby,
	}
}

// Composite returns the weighted sum of b truncated and clamped to [0,100].
func (s RiskScorer) Composite(b RiskBreakdown) int {
	w := s.risk.Weights
	sum := w.AQI*float64(b.AQI) + w.Slope*float64(b.Slope) +
		w.Epidemic*float64(b.Epidemic) + w.Festival*float64(b.Festival) +
		w.ICU*float64(b.ICU) + w.Seasonal*float64(b.Seasonal)
	// The epsilon absorbs binary representation error, e.g. 0.15*20 = 2.9999...
	return min(max(truncate(sum+1e-9), 0), 100)
}

func (s RiskScorer) aqiScore(aqi float64) float64 {
	return piecewise(aqi, s.risk.AQIHigh, s.risk.AQICritical)
}

func (s RiskScorer) icuScore(occupancy float64) float64 {
	return piecewise(occupancy, s.risk.ICUHigh, s.risk.ICUCritical)
}

// piecewise scales linearly to 60 at high and to 100 at critical.
func piecewise(v, high, critical float64) float64 {
	switch {
	case v >= critical:
		return 100
	case v >= high:
		return 60 + (v-high)/(critical-high)*40
	default:
		return math.Max(0, v/high*60)
	}
}

func (s RiskScorer) slopeScore(slope float64) float64 {
	if slope <= s.risk.SlopeDecline {
		return 0
	}
	return s.risk.SlopeSteps.At(slope, s.risk.SlopeBaseline)
}

func (s RiskScorer) seasonalScore(temp, humidity float64) float64 {
	var score float64
	switch {
	case s.weather.SevereTemperature.Outside(temp):
		score += s.risk.SevereTemperaturePenalty
	case s.weather.MildTemperature.Outside(temp):
		score += s.risk.MildTemperaturePenalty
	}
	switch {
	case s.weather.SevereHumidity.Outside(humidity):
		score += s.risk.SevereHumidityPenalty
	case s.weather.MildHumidity.Outside(humidity):
		score += s.risk.MildHumidityPenalty
	}
	return math.Min(100, score)
}

func (s RiskScorer) factors(ctx PredictionContext, festival bool) []string {
	var out []string

	switch aqi := float64(ctx.AQI); {
	case aqi >= s.risk.AQICritical:
		out = append(out, fmt.Sprintf("Critical AQI (%d) - Severe Air Pollution", ctx.AQI))
	case aqi >= s.risk.AQIHigh:
		out = append(out, fmt.Sprintf("High AQI (%d) - Poor Air Quality", ctx.AQI))
	}
	if ctx.PatientSlope6h >= 1.2 {
		out = append(out, fmt.Sprintf("Patient Surge Detected (+%d%% in 6h)", percent(ctx.PatientSlope6h-1)))
	}
	if festival {
		out = append(out, "Major Festival Period - Increased Trauma/Burn Cases")
	}
	switch {
	case ctx.ICUOccupancy >= s.risk.ICUCritical:
		out = append(out, fmt.Sprintf("ICU Critical (%d%% Occupancy)", percent(ctx.ICUOccupancy)))
	case ctx.ICUOccupancy >= s.risk.ICUHigh:
		out = append(out, fmt.Sprintf("ICU High Pressure (%d%% Occupancy)", percent(ctx.ICUOccupancy)))
	}
	switch {
	case ctx.EpidemicIndex >= 7:
		out = append(out, fmt.Sprintf("Active Epidemic Alert (Severity: %s/10)", formatNumber(ctx.EpidemicIndex)))
	case ctx.EpidemicIndex >= 4:
		out = append(out, fmt.Sprintf("Elevated Disease Activity (Severity: %s/10)", formatNumber(ctx.EpidemicIndex)))
	}
	switch {
	case ctx.TemperatureC > s.weather.SevereTemperature.High:
		out = append(out, fmt.Sprintf("Extreme Heat (%s°C) - Heat-related Cases Expected", formatNumber(ctx.TemperatureC)))
	case ctx.TemperatureC < s.weather.SevereTemperature.Low:
		out = append(out, fmt.Sprintf("Cold Wave (%s°C) - Respiratory Cases Rising", formatNumber(ctx.TemperatureC)))
	}

	if len(out) == 0 {
		out = append(out, "Normal Operating Conditions")
	}
	return out
}

func departmentRisks(b RiskBreakdown) DepartmentRisks {
	aqi, epi, fest := float64(b.AQI), float64(b.Epidemic), float64(b.Festival)
	return DepartmentRisks{
		Emergency:   truncate(0.3*aqi + 0.4*fest + 0.3*epi + 1e-9),
		ICU:         b.ICU,
		Pulmonology: truncate(0.7*aqi + 0.3*epi + 1e-9),
		Pediatrics:  truncate(0.5*epi + 0.3*fest + 0.2*aqi + 1e-9),
		GeneralWard: truncate(0.4*fest + 0.4*epi + 0.2*aqi + 1e-9),
	}
}

func supplyRisks(b RiskBreakdown, patients int) SupplyRisks {
	r := SupplyRisks{
		OxygenCylinders: PriorityLow,
		N95Masks:        PriorityLow,
		ICUBeds:         PriorityLow,
		Ventilators:     PriorityMedium,
	}
	switch {
	case b.AQI > 70:
		r.OxygenCylinders = PriorityHigh
	case b.AQI > 40:
		r.OxygenCylinders = PriorityMedium
	}
	switch {
	case b.AQI > 60 || b.Epidemic > 50:
		r.N95Masks = PriorityHigh
	case b.AQI > 30:
		r.N95Masks = PriorityMedium
	}
	switch {
	case patients > 200:
		r.ICUBeds = PriorityHigh
	case patients > 150:
		r.ICUBeds = PriorityMedium
	}
	if b.AQI > 80 && b.Epidemic > 60 {
		r.Ventilators = PriorityHigh
	}
	return r
}

func recommendations(index int) []string {
	switch {
	case index >= 80:
		return []string{
			"ACTIVATE LEVEL 3 EMERGENCY PROTOCOL",
			"Request additional staff from partner hospitals",
			"Defer all non-urgent procedures",
		}
	case index >= 60:
		return []string{
			"Activate Level 2 Surge Protocol",
			"Increase staff on next shift",
			"Expedite supply orders",
		}
	case index >= 40:
		return []string{"Monitor situation closely", "Prepare surge capacity"}
	default:
		return []string{"Maintain standard operations"}
	}
}

func explanations(ctx PredictionContext, festival bool) []string {
	var out []string

	switch {
	case ctx.AQI > 150:
		out = append(out, fmt.Sprintf("AQI is %d (+%d respiratory cases estimated)", ctx.AQI, truncate(float64(ctx.AQI-100)*0.2)))
	case ctx.AQI > 100:
		out = append(out, fmt.Sprintf("AQI is %d (Moderate respiratory impact)", ctx.AQI))
	}
	if ctx.PM25 > 60 {
		out = append(out, fmt.Sprintf("PM2.5 spike overnight (+%d ER visits)", truncate((ctx.PM25-60)*0.3)+5))
	}
	if festival {
		out = append(out, "Major Festival today (+15 trauma cases)")
	}
	switch {
	case ctx.TemperatureC < 18:
		out = append(out, fmt.Sprintf("Temperature drop to %s°C (+%d flu cases)",
			formatNumber(ctx.TemperatureC), truncate((18-ctx.TemperatureC)*1.5)))
	case ctx.TemperatureC > 35:
		out = append(out, fmt.Sprintf("High temperature %s°C (+%d heat stress cases)",
			formatNumber(ctx.TemperatureC), truncate((ctx.TemperatureC-35)*2)))
	}
	if ctx.EpidemicIndex > 2 {
		out = append(out, fmt.Sprintf("Epidemic multiplier increased (+%d cases)", truncate(ctx.EpidemicIndex*4)))
	}
	if ctx.ICUOccupancy > 0.7 {
		out = append(out, fmt.Sprintf("ICU occupancy %d%% (resource pressure)", percent(ctx.ICUOccupancy)))
	}

	if len(out) == 0 {
		out = append(out, "Risk factors are within normal limits")
	}
	return out
}

// burnoutCount estimates staff at high burnout risk from load and ICU pressure.
func burnoutCount(patients int, icu float64) int {
	switch {
	case patients > 200 && icu > 0.8:
		return 5
	case patients > 180 && icu > 0.7:
		return 3
	case patients > 160 || icu > 0.75:
		return 2
	case patients > 140:
		return 1
	default:
		return 0
	}
}

func burnoutNote(count int) string {
	switch count {
	case 0:
		return "All staff within normal workload limits"
	case 1:
		return "1 staff member showing signs of burnout based on shift load"
	default:
		return fmt.Sprintf("%d staff members showing signs of burnout based on shift load", count)
	}
}

func epidemicSummary(index float64) EpidemicSummary {
	level := RiskLow
	switch {
	case index >= 8:
		level = RiskCritical
	case index >= 6:
		level = RiskHigh
	case index >= 4:
		level = RiskModerate
	}
	normalized := index
	if index > 1 {
		normalized = index / 10
	}
	return EpidemicSummary{
		Index:  normalized,
		Level:  level,
		Reason: "Epidemic index at " + formatNumber(index),
	}
}

// truncate drops the fractional part toward zero.
func truncate(f float64) int { return int(math.Trunc(f)) }

// percent renders a ratio as a whole percentage.
func percent(ratio float64) int { return int(math.Round(ratio * 100)) }

// formatNumber prints v with the fewest digits that round-trip, e.g. 7 or 7.5.
func formatNumber(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
