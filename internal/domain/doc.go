// Package domain models hospital surge risk and the resource plans derived
// from it.
//
// # Planning Units
//
// Four stateless units turn a resolved [PredictionContext] into records:
//
//	RiskScorer       context -> RiskAssessment (composite 0-100 index)
//	LoadForecaster   context, days -> []ForecastDay
//	StaffingPlanner  StaffingInput -> StaffingPlan
//	SupplyPlanner    SupplyInput -> []SupplyRequirement
//
// No unit calls another. The caller wires day one of the forecast and the ICU
// sub-score into the staffing planner, and day one plus the festival window
// into the supply planner. Every unit is built from a [Params] value and holds
// no mutable state, so a single instance is safe for concurrent use.
//
// # Input Conventions
//
// Missing fields take baselines (AQI 100, 25°C, 50% humidity, slopes 1.0,
// ICU occupancy 0.5, 150 current patients). Out-of-range values are clamped
// rather than rejected:
//
//	AQI 0-500 | epidemic index 0-10 | ICU occupancy 0-1 | humidity 0-100
//
// A provider "aqi_index" on the 1-5 scale maps to 50/100/200/300/400.
//
// # Risk Index
//
// Sub-scores are truncated to ints before weighting, so the index is exactly
// the documented weighted sum of the published breakdown:
//
//	aqi .20 | slope .15 | epidemic .20 | festival .15 | icu .15 | seasonal .15
//
//	>=80 CRITICAL | >=60 HIGH | >=40 MODERATE | >=20 LOW | else MINIMAL
//
// # Forecast Variance
//
// Each day total is shifted by a deterministic amount in [-v, v) where
// v = trunc(0.05 * total), taken from the 32-bit FNV-1a hash of the
// YYYY-MM-DD date string. Identical inputs always reproduce identical output.
//
// # Festivals
//
// A festival without an explicit high_risk flag is classified by matching its
// name against [FestivalParams.Keywords] (Diwali, Holi, Eid, ...).
package domain
