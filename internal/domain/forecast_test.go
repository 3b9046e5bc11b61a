package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatParams disables the date-keyed variance so totals are exact.
func flatParams() Params {
	p := DefaultParams()
	p.Forecast.Variance = 0
	return p
}

func TestLoadForecaster_ScenarioB(t *testing.T) {
	ctx := DefaultContext()
	ctx.ObservedAt = monday

	days := NewLoadForecaster(DefaultParams()).Forecast(ctx, 1)
	require.Len(t, days, 1)
	day := days[0]

	// trunc(150 * 1.15 * 1.05) = 181, v = 9, fnv1a("2025-10-20") % 18 = 3
	assert.Equal(t, 175, day.TotalPatients)
	assert.GreaterOrEqual(t, day.TotalPatients, 172)
	assert.LessOrEqual(t, day.TotalPatients, 190)
	assert.Equal(t, "2025-10-20", day.Date.String())
	assert.Equal(t, "Monday", day.DayOfWeek)
	assert.Equal(t, CategoryBreakdown{
		Respiratory: 26, Trauma: 17, Viral: 21, Cardiac: 14,
		Pediatric: 35, ICUCandidates: 8, Other: 54,
	}, day.Breakdown)
	assert.Equal(t, day.TotalPatients, day.Breakdown.Total())
	assert.Equal(t, StaffDemand{Doctors: 15, Nurses: 32, SupportStaff: 9, ICUSpecialists: 3}, day.StaffDemand)
	assert.Equal(t, ForecastFactors{DayOfWeek: 1.15, AQI: 1.05, Weather: 1, Epidemic: 1, Festival: 1}, day.Factors)
	assert.Equal(t, 95.0, day.Confidence)
	assert.NotNil(t, day.Alerts)
	assert.Empty(t, day.Alerts)
}

func TestLoadForecaster_DaysClamped(t *testing.T) {
	f := NewLoadForecaster(DefaultParams())
	ctx := DefaultContext()
	ctx.ObservedAt = monday

	tests := []struct {
		days int
		want int
	}{
		{-3, 1}, {0, 1}, {1, 1}, {7, 7}, {14, 14}, {20, 14},
	}
	for _, tt := range tests {
		assert.Len(t, f.Forecast(ctx, tt.days), tt.want, "days %d", tt.days)
	}
}

func TestLoadForecaster_ValidateDays(t *testing.T) {
	f := NewLoadForecaster(DefaultParams())

	require.NoError(t, f.ValidateDays(1))
	require.NoError(t, f.ValidateDays(14))
	assert.ErrorIs(t, f.ValidateDays(0), ErrInvalidDays)
	assert.ErrorIs(t, f.ValidateDays(15), ErrInvalidDays)
}

func TestLoadForecaster_Properties(t *testing.T) {
	f := NewLoadForecaster(DefaultParams())
	contexts := map[string]func(*PredictionContext){
		"baseline": func(*PredictionContext) {},
		"severe air and epidemic": func(c *PredictionContext) {
			c.AQI, c.EpidemicIndex, c.PatientSlope24h = 420, 8, 1.4
		},
		"festival mid-horizon": func(c *PredictionContext) {
			c.Festivals = []FestivalEvent{{Date: NewDate(2025, 10, 25), Name: "Diwali"}}
		},
		"heat and humidity": func(c *PredictionContext) {
			c.TemperatureC, c.HumidityPct, c.PatientSlope24h = 41, 90, 0.7
		},
		"shares overflow": func(c *PredictionContext) {
			c.AQI, c.EpidemicIndex = 250, 9
			c.Festivals = []FestivalEvent{{Date: NewDate(2025, 10, 20), Name: "Holi"}}
		},
	}

	for name, mut := range contexts {
		t.Run(name, func(t *testing.T) {
			ctx := DefaultContext()
			ctx.ObservedAt = monday
			mut(&ctx)

			days := f.Forecast(ctx, 14)
			require.Len(t, days, 14)

			prev := 100.0
			for i, d := range days {
				assert.Equal(t, d.TotalPatients, d.Breakdown.Total(), "day %d breakdown", i)
				assert.GreaterOrEqual(t, d.Breakdown.Other, 0, "day %d other", i)
				assert.GreaterOrEqual(t, d.Confidence, 60.0)
				assert.LessOrEqual(t, d.Confidence, 95.0)
				assert.LessOrEqual(t, d.Confidence, prev, "day %d confidence rose", i)
				assert.Equal(t, d.StaffDemand.ICUSpecialists, ceilDiv(d.Breakdown.ICUCandidates, 3))
				assert.Equal(t, NewDate(2025, 10, 20).AddDays(i), d.Date)
				prev = d.Confidence
			}

			assert.Equal(t, days, f.Forecast(ctx, 14), "forecast must be reproducible")
		})
	}
}

func TestLoadForecaster_FestivalProximity(t *testing.T) {
	f := NewLoadForecaster(flatParams())
	ctx := DefaultContext()
	ctx.ObservedAt = monday
	ctx.Festivals = []FestivalEvent{{Date: NewDate(2025, 10, 22), Name: "Dussehra"}}

	days := f.Forecast(ctx, 7)

	want := []float64{1.2, 1.4, 1.8, 1.4, 1.2, 1.2, 1.0}
	for i, d := range days {
		assert.Equal(t, want[i], d.Factors.Festival, "day %d", i)
	}
	assert.Contains(t, days[2].Alerts, "Festival surge - Trauma team on standby")
	assert.Equal(t, 88.0, days[1].Confidence, "95 - 1*3 - 4")
	assert.Equal(t, 81.0, days[2].Confidence, "95 - 2*3 - 8")
}

func TestLoadForecaster_NearestFestivalOnly(t *testing.T) {
	f := NewLoadForecaster(flatParams())
	ctx := DefaultContext()
	ctx.ObservedAt = monday
	ctx.Festivals = []FestivalEvent{
		{Date: NewDate(2025, 10, 23), Name: "Diwali"},
		{Date: NewDate(2025, 10, 20), Name: "Local fair", HighRisk: boolPtr(false)},
		{Date: NewDate(2025, 10, 21), Name: "Eid", HighRisk: boolPtr(true)},
	}

	days := f.Forecast(ctx, 1)

	assert.Equal(t, 1.4, days[0].Factors.Festival)
}

func TestLoadForecaster_Momentum(t *testing.T) {
	f := NewLoadForecaster(flatParams())
	ctx := DefaultContext()
	ctx.ObservedAt = monday
	ctx.PatientSlope24h = 1.5

	days := f.Forecast(ctx, 2)

	// Monday: trunc(150 * 1.15 * 1.05 * 1.5)
	assert.Equal(t, 271, days[0].TotalPatients)
	assert.Contains(t, days[0].Alerts, "SURGE ALERT: Predicted load exceeds capacity")
	// Tuesday: trunc(150 * 1.05 * 1.05 * (1 + 0.5*0.85))
	assert.Equal(t, 235, days[1].TotalPatients)
}

func TestLoadForecaster_SevereConditions(t *testing.T) {
	f := NewLoadForecaster(flatParams())
	ctx := DefaultContext()
	ctx.ObservedAt = monday
	ctx.AQI = 320
	ctx.EpidemicIndex = 8
	ctx.TemperatureC = 40
	ctx.HumidityPct = 90

	day := f.Forecast(ctx, 1)[0]

	assert.Equal(t, 1.5, day.Factors.AQI)
	assert.Equal(t, 1.32, day.Factors.Weather)
	assert.Equal(t, 1.64, day.Factors.Epidemic)
	assert.Equal(t, 85.0, day.Confidence)
	assert.Equal(t, day.TotalPatients, day.Breakdown.Total())
	assert.Contains(t, day.Alerts, "SURGE ALERT: Predicted load exceeds capacity")
	assert.Contains(t, day.Alerts, "High respiratory case volume - Check oxygen supply")
	assert.Contains(t, day.Alerts, "ICU capacity warning - Prepare additional beds")
}

func TestDateHash(t *testing.T) {
	assert.Equal(t, uint32(3914765229), dateHash(NewDate(2025, 10, 20)))
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, 0, ceilDiv(0, 3))
	assert.Equal(t, 1, ceilDiv(1, 3))
	assert.Equal(t, 1, ceilDiv(3, 3))
	assert.Equal(t, 2, ceilDiv(4, 3))
}
