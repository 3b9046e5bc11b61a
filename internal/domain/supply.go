package domain

import "math"

// Supply item keys, used to look up current stock.
const (
	ItemOxygen     = "oxygen"
	ItemMasks      = "masks"
	ItemIVFluids   = "iv_fluids"
	ItemNebulizers = "nebulizers"
	ItemPPE        = "ppe"
)

// SupplyInput is the day-one forecast and risk context consumed by the planner.
type SupplyInput struct {
	// Forecast is the first forecast day. When nil the default supply list is
	// returned.
	Forecast *ForecastDay `json:"forecast,omitempty"`
	// CurrentStock maps item keys to units on hand. An empty map selects the
	// placeholder status bands.
	CurrentStock   map[string]int `json:"current_stock,omitempty"`
	FestivalWindow bool           `json:"festival_window"`
	AQI            int            `json:"aqi" validate:"gte=0,lte=500"`
	EpidemicIndex  float64        `json:"epidemic_index" validate:"gte=0,lte=10"`
}

// SupplyRequirement is the projected need for one consumable.
type SupplyRequirement struct {
	Item     string       `json:"item"`
	Key      string       `json:"key"`
	Required int          `json:"required"`
	Status   SupplyStatus `json:"status"`
	Priority Priority     `json:"priority"`
	Notes    string       `json:"notes"`
}

// SupplyPlanner converts a forecast day into consumable requirements.
type SupplyPlanner struct {
	p SupplyParams
}

// NewSupplyPlanner returns a planner using the supply part of p.
func NewSupplyPlanner(p Params) SupplyPlanner {
	return SupplyPlanner{p: p.Supply}
}

// Recommend returns one requirement per tracked item, in a fixed order.
func (s SupplyPlanner) Recommend(in SupplyInput) []SupplyRequirement {
	if in.Forecast == nil {
		return DefaultSupplies()
	}
	aqi := float64(min(max(in.AQI, 0), 500))
	epidemic := clampFloat(in.EpidemicIndex, 0, 10, 0)
	total := float64(max(in.Forecast.TotalPatients, 0))
	respiratory := float64(max(in.Forecast.Breakdown.Respiratory, 0))

	base := s.p.SafetyBuffer
	if in.FestivalWindow {
		base *= s.p.FestivalBuffer
	}
	aqiMultiplier := s.p.AQISteps.At(aqi, 1)
	epidemicMultiplier := 1 + epidemic*s.p.EpidemicPerPoint
	r := s.p.Rates

	highAQI := aqi > float64(s.p.HighPriorityAQI)
	items := []struct {
		key, name string
		amount    float64
		priority  Priority
	}{
		{ItemOxygen, "Oxygen Cylinders", respiratory * r.OxygenPerRespiratory * base * aqiMultiplier,
			pick(highAQI, PriorityHigh, PriorityMedium)},
		{ItemMasks, "N95 Masks", total * r.MasksPerPatient * base * aqiMultiplier,
			pick(highAQI || epidemic > s.p.MaskEpidemicAbove, PriorityHigh, PriorityMedium)},
		{ItemIVFluids, "IV Fluids", total * r.IVFluidsPerPatient * base * epidemicMultiplier,
			PriorityMedium},
		{ItemNebulizers, "Nebulizers", respiratory * r.NebulizersPerRespiratory * base * aqiMultiplier,
			pick(respiratory > float64(s.p.NebulizerRespiratory), PriorityHigh, PriorityMedium)},
		{ItemPPE, "PPE Kits", total * r.PPEPerPatient * epidemicMultiplier,
			pick(epidemic > s.p.PPEEpidemicAbove, PriorityHigh, PriorityLow)},
	}

	out := make([]SupplyRequirement, 0, len(items))
	for _, it := range items {
		// The epsilon keeps exact products such as 30*2.5*1.2 from flooring to 89.
		required := int(math.Floor(it.amount + 1e-9))
		req := SupplyRequirement{
			Item:     it.name,
			Key:      it.key,
			Required: required,
			Priority: it.priority,
		}
		if required == 0 {
			req.Status = SupplyOK
			req.Notes = "No projected demand for " + it.name
		} else {
			req.Status = s.status(it.key, required, in.CurrentStock)
			req.Notes = supplyNote(it.name, req.Status, req.Priority, in.FestivalWindow)
		}
		out = append(out, req)
	}
	return out
}

func (s SupplyPlanner) status(key string, required int, stock map[string]int) SupplyStatus {
	if len(stock) == 0 {
		switch {
		case required > s.p.DemoLowAbove:
			return SupplyLow
		case required > s.p.DemoMediumAbove:
			return SupplyMedium
		default:
			return SupplyOK
		}
	}
	current := float64(stock[key])
	switch need := float64(required); {
	case current >= need*s.p.OKRatio:
		return SupplyOK
	case current >= need*s.p.MediumRatio:
		return SupplyMedium
	default:
		return SupplyLow
	}
}

func supplyNote(item string, status SupplyStatus, priority Priority, festival bool) string {
	switch status {
	case SupplyLow:
		if priority == PriorityHigh {
			return "URGENT: Order " + item + " immediately"
		}
		return "Order " + item + " within 24 hours"
	case SupplyMedium:
		if festival {
			return "Restock " + item + " before festival surge"
		}
		return "Monitor " + item + " levels"
	default:
		return "Stock adequate"
	}
}

// DefaultSupplies is the baseline list used when no forecast is available.
func DefaultSupplies() []SupplyRequirement {
	return []SupplyRequirement{
		{Item: "Oxygen Cylinders", Key: ItemOxygen, Required: 30, Status: SupplyOK, Priority: PriorityMedium, Notes: "Stock adequate"},
		{Item: "N95 Masks", Key: ItemMasks, Required: 200, Status: SupplyOK, Priority: PriorityMedium, Notes: "Stock adequate"},
		{Item: "IV Fluids", Key: ItemIVFluids, Required: 100, Status: SupplyOK, Priority: PriorityMedium, Notes: "Stock adequate"},
		{Item: "Nebulizers", Key: ItemNebulizers, Required: 15, Status: SupplyOK, Priority: PriorityLow, Notes: "Stock adequate"},
		{Item: "PPE Kits", Key: ItemPPE, Required: 50, Status: SupplyOK, Priority: PriorityLow, Notes: "Stock adequate"},
	}
}

func pick[T any](cond bool, yes, no T) T {
	if cond {
		return yes
	}
	return no
}
