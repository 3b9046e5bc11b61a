package domain

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gopkg.in/yaml.v3"
)

// Step maps an inclusive lower bound to a value.
type Step struct {
	Min   float64 `yaml:"min"`
	Value float64 `yaml:"value"`
}

// Steps is a step function. Order does not matter: At selects the step with
// the largest Min that v reaches.
type Steps []Step

// At returns the value of the highest step whose Min is <= v, or fallback
// when v is below every step.
func (s Steps) At(v, fallback float64) float64 {
	out, best := fallback, math.Inf(-1)
	for _, st := range s {
		if v >= st.Min && st.Min > best {
			best, out = st.Min, st.Value
		}
	}
	return out
}

// Threshold maps an exclusive lower bound to a value.
type Threshold struct {
	Above float64 `yaml:"above"`
	Value float64 `yaml:"value"`
}

// Thresholds is a step function over strict comparisons.
type Thresholds []Threshold

// At returns the value of the highest threshold that v strictly exceeds, or
// fallback when v exceeds none of them.
func (t Thresholds) At(v, fallback float64) float64 {
	out, best := fallback, math.Inf(-1)
	for _, th := range t {
		if v > th.Above && th.Above > best {
			best, out = th.Above, th.Value
		}
	}
	return out
}

// Band is a comfortable range. Values strictly outside it are extreme.
type Band struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// Outside reports whether v falls strictly below Low or above High.
func (b Band) Outside(v float64) bool { return v < b.Low || v > b.High }

// WeatherBands are the temperature and humidity ranges shared by the risk
// scorer and the load forecaster.
type WeatherBands struct {
	SevereTemperature Band `yaml:"severe_temperature"`
	MildTemperature   Band `yaml:"mild_temperature"`
	SevereHumidity    Band `yaml:"severe_humidity"`
	MildHumidity      Band `yaml:"mild_humidity"`
}

// RiskWeights are the composite index weights. They must sum to 1.
type RiskWeights struct {
	AQI      float64 `yaml:"aqi"`
	Slope    float64 `yaml:"slope"`
	Epidemic float64 `yaml:"epidemic"`
	Festival float64 `yaml:"festival"`
	ICU      float64 `yaml:"icu"`
	Seasonal float64 `yaml:"seasonal"`
}

// Sum returns the total weight.
func (w RiskWeights) Sum() float64 {
	return w.AQI + w.Slope + w.Epidemic + w.Festival + w.ICU + w.Seasonal
}

func (w RiskWeights) values() []float64 {
	return []float64{w.AQI, w.Slope, w.Epidemic, w.Festival, w.ICU, w.Seasonal}
}

// RiskParams configures the RiskScorer.
type RiskParams struct {
	Weights     RiskWeights `yaml:"weights"`
	AQIHigh     float64     `yaml:"aqi_high"`
	AQICritical float64     `yaml:"aqi_critical"`
	ICUHigh     float64     `yaml:"icu_high"`
	ICUCritical float64     `yaml:"icu_critical"`
	// SlopeSteps score rising inflow. Slopes at or below SlopeDecline score 0;
	// anything else that reaches no step scores SlopeBaseline.
	SlopeSteps    Steps   `yaml:"slope_steps"`
	SlopeDecline  float64 `yaml:"slope_decline"`
	SlopeBaseline float64 `yaml:"slope_baseline"`
	EpidemicScale float64 `yaml:"epidemic_scale"`

	SevereTemperaturePenalty float64 `yaml:"severe_temperature_penalty"`
	MildTemperaturePenalty   float64 `yaml:"mild_temperature_penalty"`
	SevereHumidityPenalty    float64 `yaml:"severe_humidity_penalty"`
	MildHumidityPenalty      float64 `yaml:"mild_humidity_penalty"`
}

// DayOfWeek holds one load multiplier per weekday.
type DayOfWeek struct {
	Monday    float64 `yaml:"monday"`
	Tuesday   float64 `yaml:"tuesday"`
	Wednesday float64 `yaml:"wednesday"`
	Thursday  float64 `yaml:"thursday"`
	Friday    float64 `yaml:"friday"`
	Saturday  float64 `yaml:"saturday"`
	Sunday    float64 `yaml:"sunday"`
}

// For returns the multiplier of wd.
func (d DayOfWeek) For(wd time.Weekday) float64 {
	switch wd {
	case time.Monday:
		return d.Monday
	case time.Tuesday:
		return d.Tuesday
	case time.Wednesday:
		return d.Wednesday
	case time.Thursday:
		return d.Thursday
	case time.Friday:
		return d.Friday
	case time.Saturday:
		return d.Saturday
	default:
		return d.Sunday
	}
}

// ProximityStep applies Factor when the nearest high-risk festival is at most
// WithinDays away.
type ProximityStep struct {
	WithinDays int     `yaml:"within_days"`
	Factor     float64 `yaml:"factor"`
}

// CategoryMix holds the base share of each patient category. Other is the
// remainder and is not configured.
type CategoryMix struct {
	Respiratory   float64 `yaml:"respiratory"`
	Trauma        float64 `yaml:"trauma"`
	Viral         float64 `yaml:"viral_infectious"`
	Cardiac       float64 `yaml:"cardiac"`
	Pediatric     float64 `yaml:"pediatric"`
	ICUCandidates float64 `yaml:"icu_candidates"`
}

func (m CategoryMix) sum() float64 {
	return m.Respiratory + m.Trauma + m.Viral + m.Cardiac + m.Pediatric + m.ICUCandidates
}

// MixAdjustments shift the category mix under adverse conditions.
type MixAdjustments struct {
	// RespiratoryByAQI adds share when AQI strictly exceeds a threshold.
	RespiratoryByAQI Thresholds `yaml:"respiratory_by_aqi"`
	EpidemicAbove    float64    `yaml:"epidemic_above"`
	EpidemicViral    float64    `yaml:"epidemic_viral"`
	EpidemicICU      float64    `yaml:"epidemic_icu"`
	FestivalTrauma   float64    `yaml:"festival_trauma"`
	FestivalCardiac  float64    `yaml:"festival_cardiac"`
}

// StaffRatios are patients per staff member used for forecast staff demand.
type StaffRatios struct {
	ICUPerDoctor     int `yaml:"icu_per_doctor"`
	ICUPerNurse      int `yaml:"icu_per_nurse"`
	GeneralPerDoctor int `yaml:"general_per_doctor"`
	GeneralPerNurse  int `yaml:"general_per_nurse"`
	PerSupport       int `yaml:"per_support"`
}

// ConfidenceParams shape the per-day forecast confidence.
type ConfidenceParams struct {
	Base         float64    `yaml:"base"`
	DecayPerDay  float64    `yaml:"decay_per_day"`
	Floor        float64    `yaml:"floor"`
	Ceiling      float64    `yaml:"ceiling"`
	EpidemicCuts Thresholds `yaml:"epidemic_cuts"`
	FestivalCuts Thresholds `yaml:"festival_cuts"`
}

// ForecastAlertLimits trigger the string alerts of a forecast day.
type ForecastAlertLimits struct {
	SurgeTotal     int     `yaml:"surge_total"`
	Respiratory    int     `yaml:"respiratory"`
	ICUCandidates  int     `yaml:"icu_candidates"`
	FestivalFactor float64 `yaml:"festival_factor"`
}

// ForecastParams configures the LoadForecaster.
type ForecastParams struct {
	BaseLoad            float64             `yaml:"base_load"`
	MaxDays             int                 `yaml:"max_days"`
	DayOfWeek           DayOfWeek           `yaml:"day_of_week"`
	AQISteps            Steps               `yaml:"aqi_steps"`
	SevereWeatherFactor float64             `yaml:"severe_weather_factor"`
	MildWeatherFactor   float64             `yaml:"mild_weather_factor"`
	HumidityFactor      float64             `yaml:"humidity_factor"`
	EpidemicPerPoint    float64             `yaml:"epidemic_per_point"`
	FestivalProximity   []ProximityStep     `yaml:"festival_proximity"`
	MomentumDecay       float64             `yaml:"momentum_decay"`
	Variance            float64             `yaml:"variance"`
	Mix                 CategoryMix         `yaml:"mix"`
	Adjustments         MixAdjustments      `yaml:"adjustments"`
	Staff               StaffRatios         `yaml:"staff"`
	Confidence          ConfidenceParams    `yaml:"confidence"`
	Alerts              ForecastAlertLimits `yaml:"alerts"`
}

// Segment staffs one care area: Headroom staff on top of the ratio, never
// fewer than the minimums.
type Segment struct {
	PatientsPerDoctor int `yaml:"patients_per_doctor"`
	PatientsPerNurse  int `yaml:"patients_per_nurse"`
	Headroom          int `yaml:"headroom"`
	MinDoctors        int `yaml:"min_doctors"`
	MinNurses         int `yaml:"min_nurses"`
}

// StaffingParams configures the StaffingPlanner.
type StaffingParams struct {
	ICUShare           float64    `yaml:"icu_share"`
	ERShare            float64    `yaml:"er_share"`
	ERByAQI            Thresholds `yaml:"er_by_aqi"`
	ERByEpidemic       Thresholds `yaml:"er_by_epidemic"`
	ICU                Segment    `yaml:"icu"`
	ER                 Segment    `yaml:"er"`
	General            Segment    `yaml:"general"`
	PatientsPerSupport int        `yaml:"patients_per_support"`
	MinSupport         int        `yaml:"min_support"`
	VolumeTiers        Thresholds `yaml:"volume_tiers"`
	VolumeBase         float64    `yaml:"volume_base"`
	ICUPivot           float64    `yaml:"icu_pivot"`
	ICUWeight          float64    `yaml:"icu_weight"`
	EpidemicWeight     float64    `yaml:"epidemic_weight"`
	AQIBonus           Thresholds `yaml:"aqi_bonus"`
	ICUCallOut         int        `yaml:"icu_call_out"`
	ERCallOut          int        `yaml:"er_call_out"`
	RespiratoryCallOut int        `yaml:"respiratory_call_out"`
}

// SupplyRates are units consumed per patient (or per respiratory case).
type SupplyRates struct {
	OxygenPerRespiratory     float64 `yaml:"oxygen_per_respiratory"`
	MasksPerPatient          float64 `yaml:"masks_per_patient"`
	IVFluidsPerPatient       float64 `yaml:"iv_fluids_per_patient"`
	NebulizersPerRespiratory float64 `yaml:"nebulizers_per_respiratory"`
	PPEPerPatient            float64 `yaml:"ppe_per_patient"`
}

// SupplyParams configures the SupplyPlanner.
type SupplyParams struct {
	SafetyBuffer     float64     `yaml:"safety_buffer"`
	FestivalBuffer   float64     `yaml:"festival_buffer"`
	AQISteps         Steps       `yaml:"aqi_steps"`
	EpidemicPerPoint float64     `yaml:"epidemic_per_point"`
	Rates            SupplyRates `yaml:"rates"`
	// OKRatio and MediumRatio grade stock against the requirement.
	OKRatio     float64 `yaml:"ok_ratio"`
	MediumRatio float64 `yaml:"medium_ratio"`
	// Placeholder bands used when no stock figures are supplied.
	DemoLowAbove    int `yaml:"demo_low_above"`
	DemoMediumAbove int `yaml:"demo_medium_above"`

	HighPriorityAQI      int     `yaml:"high_priority_aqi"`
	MaskEpidemicAbove    float64 `yaml:"mask_epidemic_above"`
	NebulizerRespiratory int     `yaml:"nebulizer_respiratory"`
	PPEEpidemicAbove     float64 `yaml:"ppe_epidemic_above"`
}

// FestivalParams configures festival classification and proximity windows.
type FestivalParams struct {
	Keywords   []string `yaml:"keywords"`
	WindowDays int      `yaml:"window_days"`
}

// Params is the complete, injectable formula set of the four planning units.
type Params struct {
	Weather  WeatherBands   `yaml:"weather"`
	Risk     RiskParams     `yaml:"risk"`
	Forecast ForecastParams `yaml:"forecast"`
	Staffing StaffingParams `yaml:"staffing"`
	Supply   SupplyParams   `yaml:"supply"`
	Festival FestivalParams `yaml:"festival"`
}

// DefaultParams returns the canonical formula set.
func DefaultParams() Params {
	return Params{
		Weather: WeatherBands{
			SevereTemperature: Band{Low: 15, High: 38},
			MildTemperature:   Band{Low: 18, High: 35},
			SevereHumidity:    Band{Low: 25, High: 85},
			MildHumidity:      Band{Low: 35, High: 75},
		},
		Risk: RiskParams{
			Weights: RiskWeights{
				AQI: 0.20, Slope: 0.15, Epidemic: 0.20,
				Festival: 0.15, ICU: 0.15, Seasonal: 0.15,
			},
			AQIHigh:       200,
			AQICritical:   300,
			ICUHigh:       0.70,
			ICUCritical:   0.85,
			SlopeSteps:    Steps{{Min: 1.5, Value: 100}, {Min: 1.2, Value: 70}, {Min: 1.1, Value: 40}},
			SlopeDecline:  0.9,
			SlopeBaseline: 20,
			EpidemicScale: 10,

			SevereTemperaturePenalty: 50,
			MildTemperaturePenalty:   30,
			SevereHumidityPenalty:    50,
			MildHumidityPenalty:      20,
		},
		Forecast: ForecastParams{
			BaseLoad: 150,
			MaxDays:  14,
			DayOfWeek: DayOfWeek{
				Monday: 1.15, Tuesday: 1.05, Wednesday: 1.00, Thursday: 1.00,
				Friday: 1.10, Saturday: 0.85, Sunday: 0.80,
			},
			AQISteps: Steps{
				{Min: 300, Value: 1.5}, {Min: 200, Value: 1.3},
				{Min: 150, Value: 1.15}, {Min: 100, Value: 1.05},
			},
			SevereWeatherFactor: 1.2,
			MildWeatherFactor:   1.1,
			HumidityFactor:      1.1,
			EpidemicPerPoint:    0.08,
			FestivalProximity: []ProximityStep{
				{WithinDays: 0, Factor: 1.8},
				{WithinDays: 1, Factor: 1.4},
				{WithinDays: 3, Factor: 1.2},
			},
			MomentumDecay: 0.85,
			Variance:      0.05,
			Mix: CategoryMix{
				Respiratory: 0.15, Trauma: 0.10, Viral: 0.12,
				Cardiac: 0.08, Pediatric: 0.20, ICUCandidates: 0.05,
			},
			Adjustments: MixAdjustments{
				RespiratoryByAQI: Thresholds{{Above: 200, Value: 0.15}, {Above: 150, Value: 0.08}},
				EpidemicAbove:    5,
				EpidemicViral:    0.15,
				EpidemicICU:      0.03,
				FestivalTrauma:   0.15,
				FestivalCardiac:  0.05,
			},
			Staff: StaffRatios{
				ICUPerDoctor: 3, ICUPerNurse: 2,
				GeneralPerDoctor: 15, GeneralPerNurse: 6,
				PerSupport: 20,
			},
			Confidence: ConfidenceParams{
				Base:         95,
				DecayPerDay:  3,
				Floor:        60,
				Ceiling:      95,
				EpidemicCuts: Thresholds{{Above: 7, Value: 10}, {Above: 4, Value: 5}},
				FestivalCuts: Thresholds{{Above: 1.5, Value: 8}, {Above: 1.2, Value: 4}},
			},
			Alerts: ForecastAlertLimits{
				SurgeTotal: 250, Respiratory: 60, ICUCandidates: 15, FestivalFactor: 1.5,
			},
		},
		Staffing: StaffingParams{
			ICUShare:           0.15,
			ERShare:            0.3,
			ERByAQI:            Thresholds{{Above: 300, Value: 1.5}, {Above: 200, Value: 1.3}},
			ERByEpidemic:       Thresholds{{Above: 7, Value: 1.3}, {Above: 4, Value: 1.15}},
			ICU:                Segment{PatientsPerDoctor: 3, PatientsPerNurse: 2, Headroom: 1, MinDoctors: 2, MinNurses: 3},
			ER:                 Segment{PatientsPerDoctor: 10, PatientsPerNurse: 5, Headroom: 1, MinDoctors: 3, MinNurses: 5},
			General:            Segment{PatientsPerDoctor: 15, PatientsPerNurse: 6, MinDoctors: 4, MinNurses: 8},
			PatientsPerSupport: 20,
			MinSupport:         10,
			VolumeTiers:        Thresholds{{Above: 250, Value: 90}, {Above: 200, Value: 70}, {Above: 150, Value: 50}},
			VolumeBase:         30,
			ICUPivot:           50,
			ICUWeight:          0.3,
			EpidemicWeight:     2,
			AQIBonus:           Thresholds{{Above: 300, Value: 15}, {Above: 200, Value: 10}},
			ICUCallOut:         15,
			ERCallOut:          50,
			RespiratoryCallOut: 60,
		},
		Supply: SupplyParams{
			SafetyBuffer:     1.2,
			FestivalBuffer:   1.5,
			AQISteps:         Steps{{Min: 300, Value: 1.8}, {Min: 200, Value: 1.4}, {Min: 150, Value: 1.2}},
			EpidemicPerPoint: 0.05,
			Rates: SupplyRates{
				OxygenPerRespiratory:     2.5,
				MasksPerPatient:          3,
				IVFluidsPerPatient:       0.8,
				NebulizersPerRespiratory: 0.5,
				PPEPerPatient:            0.5,
			},
			OKRatio:              1.5,
			MediumRatio:          1.0,
			DemoLowAbove:         300,
			DemoMediumAbove:      200,
			HighPriorityAQI:      200,
			MaskEpidemicAbove:    5,
			NebulizerRespiratory: 50,
			PPEEpidemicAbove:     7,
		},
		Festival: FestivalParams{
			Keywords: []string{
				"diwali", "deepavali", "holi", "ganesh", "chaturthi",
				"ganapati", "navratri", "durga puja", "eid", "dussehra",
				"dasara", "pongal", "makar sankranti", "christmas", "new year",
			},
			WindowDays: 7,
		},
	}
}

// ParseParams decodes a YAML parameter document on top of DefaultParams and
// validates the result. Keys missing from the document keep their defaults;
// list-valued keys replace the default list.
func ParseParams(data []byte) (Params, error) {
	p := DefaultParams()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Params{}, fmt.Errorf("parse model params: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// ErrInvalidParams wraps every parameter validation failure.
var ErrInvalidParams = errors.New("invalid model params")

// Validate checks the structural constraints the formulas rely on.
func (p Params) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidParams}, args...)...))
	}

	for _, w := range p.Risk.Weights.values() {
		if w < 0 {
			fail("risk weights must be non-negative")
			break
		}
	}
	if math.Abs(p.Risk.Weights.Sum()-1) > 0.001 {
		fail("risk weights must sum to 1, got %.3f", p.Risk.Weights.Sum())
	}
	if p.Risk.AQIHigh <= 0 || p.Risk.AQICritical <= p.Risk.AQIHigh {
		fail("risk aqi knees must satisfy 0 < aqi_high < aqi_critical")
	}
	if p.Risk.ICUHigh <= 0 || p.Risk.ICUCritical <= p.Risk.ICUHigh {
		fail("risk icu knees must satisfy 0 < icu_high < icu_critical")
	}
	if p.Forecast.BaseLoad <= 0 {
		fail("forecast base_load must be positive")
	}
	if p.Forecast.MaxDays < 1 {
		fail("forecast max_days must be at least 1")
	}
	if p.Forecast.MomentumDecay < 0 || p.Forecast.MomentumDecay > 1 {
		fail("forecast momentum_decay must be within [0,1]")
	}
	if p.Forecast.Variance < 0 || p.Forecast.Variance >= 1 {
		fail("forecast variance must be within [0,1)")
	}
	if p.Forecast.Mix.sum() <= 0 {
		fail("forecast mix must have a positive total")
	}
	if c := p.Forecast.Confidence; c.Floor > c.Ceiling {
		fail("forecast confidence floor must not exceed ceiling")
	}
	s := p.Forecast.Staff
	if s.ICUPerDoctor <= 0 || s.ICUPerNurse <= 0 || s.GeneralPerDoctor <= 0 ||
		s.GeneralPerNurse <= 0 || s.PerSupport <= 0 {
		fail("forecast staff ratios must be positive")
	}
	segments := []struct {
		name string
		seg  Segment
	}{{"icu", p.Staffing.ICU}, {"er", p.Staffing.ER}, {"general", p.Staffing.General}}
	for _, s := range segments {
		if s.seg.PatientsPerDoctor <= 0 || s.seg.PatientsPerNurse <= 0 {
			fail("staffing %s ratios must be positive", s.name)
		}
	}
	if p.Staffing.PatientsPerSupport <= 0 {
		fail("staffing patients_per_support must be positive")
	}
	if p.Supply.SafetyBuffer <= 0 || p.Supply.FestivalBuffer <= 0 {
		fail("supply buffers must be positive")
	}
	if p.Supply.MediumRatio <= 0 || p.Supply.OKRatio < p.Supply.MediumRatio {
		fail("supply ratios must satisfy 0 < medium_ratio <= ok_ratio")
	}
	if p.Festival.WindowDays < 0 {
		fail("festival window_days must not be negative")
	}

	return errors.Join(errs...)
}
