package domain

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math"
)

// ErrInvalidDays is returned when a requested horizon is outside [1, max_days].
var ErrInvalidDays = errors.New("forecast days out of range")

// CategoryBreakdown splits a day's total by patient type. Values sum to the
// day total exactly.
type CategoryBreakdown struct {
	Respiratory   int `json:"respiratory"`
	Trauma        int `json:"trauma"`
	Viral         int `json:"viral_infectious"`
	Cardiac       int `json:"cardiac"`
	Pediatric     int `json:"pediatric"`
	ICUCandidates int `json:"icu_candidates"`
	Other         int `json:"other"`
}

// Total returns the sum of all categories.
func (c CategoryBreakdown) Total() int {
	return c.Respiratory + c.Trauma + c.Viral + c.Cardiac + c.Pediatric + c.ICUCandidates + c.Other
}

// StaffDemand is the headcount implied by a forecast day.
type StaffDemand struct {
	Doctors        int `json:"doctors"`
	Nurses         int `json:"nurses"`
	SupportStaff   int `json:"support_staff"`
	ICUSpecialists int `json:"icu_specialists"`
}

// ForecastFactors are the multipliers applied to the base load, rounded to
// two decimals.
type ForecastFactors struct {
	DayOfWeek float64 `json:"day_of_week_impact"`
	AQI       float64 `json:"aqi_impact"`
	Weather   float64 `json:"weather_impact"`
	Epidemic  float64 `json:"epidemic_impact"`
	Festival  float64 `json:"festival_impact"`
}

// ForecastDay is one day of a patient-load forecast.
type ForecastDay struct {
	Date          Date              `json:"date"`
	DayOfWeek     string            `json:"day_of_week"`
	TotalPatients int               `json:"total_patients"`
	Breakdown     CategoryBreakdown `json:"breakdown"`
	StaffDemand   StaffDemand       `json:"staff_demand"`
	Confidence    float64           `json:"confidence"`
	Factors       ForecastFactors   `json:"factors"`
	Alerts        []string          `json:"alerts"`
}

// LoadForecaster projects daily patient volume from a prediction context.
type LoadForecaster struct {
	p        ForecastParams
	weather  WeatherBands
	festival FestivalParams
}

// NewLoadForecaster returns a forecaster using the forecast, weather and
// festival parts of p.
func NewLoadForecaster(p Params) LoadForecaster {
	return LoadForecaster{p: p.Forecast, weather: p.Weather, festival: p.Festival}
}

// MaxDays returns the longest supported horizon.
func (f LoadForecaster) MaxDays() int { return f.p.MaxDays }

// ValidateDays reports whether days is a supported horizon.
func (f LoadForecaster) ValidateDays(days int) error {
	if days < 1 || days > f.p.MaxDays {
		return fmt.Errorf("%w: %d not in [1,%d]", ErrInvalidDays, days, f.p.MaxDays)
	}
	return nil
}

// Forecast returns one ForecastDay per day starting at ctx's reference day.
// days is clamped to [1, MaxDays]. ctx.ObservedAt must be set; a zero time has
// no meaningful reference day.
func (f LoadForecaster) Forecast(ctx PredictionContext, days int) []ForecastDay {
	ctx = ctx.Normalize()
	days = min(max(days, 1), f.p.MaxDays)

	aqiFactor := f.p.AQISteps.At(float64(ctx.AQI), 1)
	weatherFactor := f.weatherFactor(ctx.TemperatureC, ctx.HumidityPct)
	epidemicFactor := 1 + ctx.EpidemicIndex*f.p.EpidemicPerPoint

	today := ctx.Today()
	out := make([]ForecastDay, 0, days)
	confidence := f.p.Confidence.Ceiling

	for d := range days {
		date := today.AddDays(d)
		dowFactor := f.p.DayOfWeek.For(date.Weekday())
		festivalFactor := f.festivalFactor(ctx.Festivals, date)
		momentum := 1 + (ctx.PatientSlope24h-1)*math.Pow(f.p.MomentumDecay, float64(d))

		total := truncate(f.p.BaseLoad * dowFactor * aqiFactor * weatherFactor *
			epidemicFactor * festivalFactor * momentum)
		total = max(f.applyVariance(total, date), 0)

		breakdown := f.breakdown(total, ctx.AQI, ctx.EpidemicIndex, festivalFactor > 1)
		confidence = math.Min(confidence, f.confidence(d, ctx.EpidemicIndex, festivalFactor))

		out = append(out, ForecastDay{
			Date:          date,
			DayOfWeek:     date.Weekday().String(),
			TotalPatients: total,
			Breakdown:     breakdown,
			StaffDemand:   f.staffDemand(total, breakdown),
			Confidence:    confidence,
			Factors: ForecastFactors{
				DayOfWeek: round2(dowFactor),
				AQI:       round2(aqiFactor),
				Weather:   round2(weatherFactor),
				Epidemic:  round2(epidemicFactor),
				Festival:  round2(festivalFactor),
			},
			Alerts: f.alerts(total, breakdown, festivalFactor),
		})
	}
	return out
}

func (f LoadForecaster) weatherFactor(temp, humidity float64) float64 {
	factor := 1.0
	switch {
	case f.weather.SevereTemperature.Outside(temp):
		factor *= f.p.SevereWeatherFactor
	case f.weather.MildTemperature.Outside(temp):
		factor *= f.p.MildWeatherFactor
	}
	if f.weather.SevereHumidity.Outside(humidity) {
		factor *= f.p.HumidityFactor
	}
	return factor
}

// festivalFactor uses only the nearest high-risk festival to date.
func (f LoadForecaster) festivalFactor(festivals []FestivalEvent, date Date) float64 {
	distance, ok := f.festival.NearestHighRisk(festivals, date)
	if !ok {
		return 1
	}
	factor, best := 1.0, math.MaxInt
	for _, step := range f.p.FestivalProximity {
		if distance <= step.WithinDays && step.WithinDays < best {
			factor, best = step.Factor, step.WithinDays
		}
	}
	return factor
}

// applyVariance shifts total by a deterministic amount in [-v, v) where
// v = trunc(variance * total), keyed on the FNV-1a hash of the date string.
func (f LoadForecaster) applyVariance(total int, date Date) int {
	v := truncate(float64(total) * f.p.Variance)
	if v <= 0 {
		return total
	}
	return total + int(dateHash(date)%uint32(2*v)) - v
}

func dateHash(date Date) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(date.String()))
	return h.Sum32()
}

func (f LoadForecaster) breakdown(total, aqi int, epidemic float64, festival bool) CategoryBreakdown {
	mix := f.p.Mix
	adj := f.p.Adjustments

	mix.Respiratory += adj.RespiratoryByAQI.At(float64(aqi), 0)
	if epidemic > adj.EpidemicAbove {
		mix.Viral += adj.EpidemicViral
		mix.ICUCandidates += adj.EpidemicICU
	}
	if festival {
		mix.Trauma += adj.FestivalTrauma
		mix.Cardiac += adj.FestivalCardiac
	}

	// Other takes 1-sum when the configured shares leave room; otherwise the
	// shares are scaled down to sum to 1.
	denom := math.Max(1, mix.sum())
	share := func(pct float64) int { return truncate(float64(total) * pct / denom) }

	b := CategoryBreakdown{
		Respiratory:   share(mix.Respiratory),
		Trauma:        share(mix.Trauma),
		Viral:         share(mix.Viral),
		Cardiac:       share(mix.Cardiac),
		Pediatric:     share(mix.Pediatric),
		ICUCandidates: share(mix.ICUCandidates),
	}
	b.Other = total - (b.Respiratory + b.Trauma + b.Viral + b.Cardiac + b.Pediatric + b.ICUCandidates)
	return b
}

func (f LoadForecaster) staffDemand(total int, b CategoryBreakdown) StaffDemand {
	r := f.p.Staff
	icu := b.ICUCandidates
	general := total - icu
	icuDoctors := ceilDiv(icu, r.ICUPerDoctor)
	return StaffDemand{
		Doctors:        icuDoctors + ceilDiv(general, r.GeneralPerDoctor),
		Nurses:         ceilDiv(icu, r.ICUPerNurse) + ceilDiv(general, r.GeneralPerNurse),
		SupportStaff:   ceilDiv(total, r.PerSupport),
		ICUSpecialists: icuDoctors,
	}
}

func (f LoadForecaster) confidence(d int, epidemic, festivalFactor float64) float64 {
	c := f.p.Confidence
	v := c.Base - c.DecayPerDay*float64(d)
	v -= c.EpidemicCuts.At(epidemic, 0)
	v -= c.FestivalCuts.At(festivalFactor, 0)
	return math.Max(c.Floor, math.Min(c.Ceiling, v))
}

func (f LoadForecaster) alerts(total int, b CategoryBreakdown, festivalFactor float64) []string {
	lim := f.p.Alerts
	out := []string{}
	if total > lim.SurgeTotal {
		out = append(out, "SURGE ALERT: Predicted load exceeds capacity")
	}
	if b.Respiratory > lim.Respiratory {
		out = append(out, "High respiratory case volume - Check oxygen supply")
	}
	if b.ICUCandidates > lim.ICUCandidates {
		out = append(out, "ICU capacity warning - Prepare additional beds")
	}
	if festivalFactor > lim.FestivalFactor {
		out = append(out, "Festival surge - Trauma team on standby")
	}
	return out
}

// ceilDiv returns ceil(n/d) for n >= 0 and d > 0.
func ceilDiv(n, d int) int {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
