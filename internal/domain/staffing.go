package domain

import (
	"fmt"
	"math"
)

// StaffingInput is the day-one load and risk context consumed by the planner.
type StaffingInput struct {
	Date              Date    `json:"date"`
	PredictedPatients int     `json:"predicted_patients" validate:"gte=0"`
	ICURisk           float64 `json:"icu_risk" validate:"gte=0,lte=100"`
	EpidemicIndex     float64 `json:"epidemic_index" validate:"gte=0,lte=10"`
	AQI               int     `json:"aqi" validate:"gte=0,lte=500"`
	RespiratoryCases  int     `json:"respiratory_cases" validate:"gte=0"`
}

// SegmentStaff is the staffing of one care area.
type SegmentStaff struct {
	Patients int `json:"patients"`
	Doctors  int `json:"doctors"`
	Nurses   int `json:"nurses"`
}

// StaffingBreakdown splits a plan by care area.
type StaffingBreakdown struct {
	ICU     SegmentStaff `json:"icu"`
	ER      SegmentStaff `json:"er"`
	General SegmentStaff `json:"general"`
}

// StaffingPlan is the hospital-wide staffing requirement for one day. Doctors
// and Nurses always equal the sum of the three segments.
type StaffingPlan struct {
	Date       Date              `json:"date"`
	ShiftLabel string            `json:"shift_label"`
	Department string            `json:"department"`
	Doctors    int               `json:"doctors"`
	Nurses     int               `json:"nurses"`
	Support    int               `json:"support"`
	Breakdown  StaffingBreakdown `json:"breakdown"`
	Risk       int               `json:"risk"`
	Notes      []string          `json:"notes"`
}

// StaffingPlanner converts a predicted load into staff counts.
type StaffingPlanner struct {
	p StaffingParams
}

// NewStaffingPlanner returns a planner using the staffing part of p.
func NewStaffingPlanner(p Params) StaffingPlanner {
	return StaffingPlanner{p: p.Staffing}
}

// Recommend plans staffing for in. Out-of-range inputs are clamped.
func (s StaffingPlanner) Recommend(in StaffingInput) StaffingPlan {
	in = in.normalize()
	patients := float64(in.PredictedPatients)

	icuPatients := truncate(patients * (in.ICURisk / 100) * s.p.ICUShare)
	erMultiplier := s.p.ERByAQI.At(float64(in.AQI), 1) * s.p.ERByEpidemic.At(in.EpidemicIndex, 1)
	erPatients := truncate(patients * s.p.ERShare * erMultiplier)
	// ER growth under adverse conditions can exceed what is left after ICU.
	generalPatients := max(in.PredictedPatients-icuPatients-erPatients, 0)

	b := StaffingBreakdown{
		ICU:     staffSegment(s.p.ICU, icuPatients),
		ER:      staffSegment(s.p.ER, erPatients),
		General: staffSegment(s.p.General, generalPatients),
	}
	risk := s.pressure(in)

	return StaffingPlan{
		Date:       in.Date,
		ShiftLabel: "Today (24h)",
		Department: "Hospital Wide",
		Doctors:    b.ICU.Doctors + b.ER.Doctors + b.General.Doctors,
		Nurses:     b.ICU.Nurses + b.ER.Nurses + b.General.Nurses,
		Support:    max(s.p.MinSupport, in.PredictedPatients/s.p.PatientsPerSupport),
		Breakdown:  b,
		Risk:       risk,
		Notes:      s.notes(risk, icuPatients, erPatients, in.RespiratoryCases),
	}
}

func staffSegment(seg Segment, patients int) SegmentStaff {
	return SegmentStaff{
		Patients: patients,
		Doctors:  max(seg.MinDoctors, patients/seg.PatientsPerDoctor+seg.Headroom),
		Nurses:   max(seg.MinNurses, patients/seg.PatientsPerNurse+seg.Headroom),
	}
}

// pressure scores staffing strain in [0,100].
func (s StaffingPlanner) pressure(in StaffingInput) int {
	score := s.p.VolumeTiers.At(float64(in.PredictedPatients), s.p.VolumeBase)
	score += (in.ICURisk - s.p.ICUPivot) * s.p.ICUWeight
	score += in.EpidemicIndex * s.p.EpidemicWeight
	score += s.p.AQIBonus.At(float64(in.AQI), 0)
	return truncate(math.Min(100, math.Max(0, score)))
}

func (s StaffingPlanner) notes(risk, icuPatients, erPatients, respiratory int) []string {
	var out []string
	switch {
	case risk >= 80:
		out = append(out, "CRITICAL: Call in additional staff immediately", "Consider activating disaster protocol")
	case risk >= 60:
		out = append(out, "HIGH PRESSURE: Increase staff on next shift", "Prepare for potential surge")
	case risk >= 40:
		out = append(out, "MODERATE: Monitor staffing levels closely")
	default:
		out = append(out, "Normal staffing levels adequate")
	}
	if icuPatients > s.p.ICUCallOut {
		out = append(out, fmt.Sprintf("ICU at capacity (%d patients) - prioritize critical care staff", icuPatients))
	}
	if erPatients > s.p.ERCallOut {
		out = append(out, fmt.Sprintf("ER surge expected (%d patients) - reinforce ER team", erPatients))
	}
	if respiratory > s.p.RespiratoryCallOut {
		out = append(out, fmt.Sprintf("High respiratory load (%d cases) - add pulmonology cover", respiratory))
	}
	return out
}

func (in StaffingInput) normalize() StaffingInput {
	in.PredictedPatients = max(in.PredictedPatients, 0)
	in.ICURisk = clampFloat(in.ICURisk, 0, 100, 0)
	in.EpidemicIndex = clampFloat(in.EpidemicIndex, 0, 10, 0)
	in.AQI = min(max(in.AQI, 0), 500)
	in.RespiratoryCases = max(in.RespiratoryCases, 0)
	return in
}
