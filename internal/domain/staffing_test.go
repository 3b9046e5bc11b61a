package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaffingPlanner_ScenarioD(t *testing.T) {
	plan := NewStaffingPlanner(DefaultParams()).Recommend(StaffingInput{
		Date:              NewDate(2025, 10, 20),
		PredictedPatients: 300,
		ICURisk:           90,
		EpidemicIndex:     2,
		AQI:               100,
	})

	assert.Equal(t, StaffingBreakdown{
		ICU:     SegmentStaff{Patients: 40, Doctors: 14, Nurses: 21},
		ER:      SegmentStaff{Patients: 90, Doctors: 10, Nurses: 19},
		General: SegmentStaff{Patients: 170, Doctors: 11, Nurses: 28},
	}, plan.Breakdown)
	assert.Equal(t, 35, plan.Doctors)
	assert.Equal(t, 68, plan.Nurses)
	assert.Equal(t, 15, plan.Support)
	assert.Equal(t, 100, plan.Risk)
	assert.Equal(t, "Today (24h)", plan.ShiftLabel)
	assert.Equal(t, "Hospital Wide", plan.Department)
	assert.Equal(t, []string{
		"CRITICAL: Call in additional staff immediately",
		"Consider activating disaster protocol",
		"ICU at capacity (40 patients) - prioritize critical care staff",
		"ER surge expected (90 patients) - reinforce ER team",
	}, plan.Notes)
}

func TestStaffingPlanner_Floors(t *testing.T) {
	plan := NewStaffingPlanner(DefaultParams()).Recommend(StaffingInput{PredictedPatients: 10})

	assert.Equal(t, SegmentStaff{Patients: 0, Doctors: 2, Nurses: 3}, plan.Breakdown.ICU)
	assert.Equal(t, SegmentStaff{Patients: 3, Doctors: 3, Nurses: 5}, plan.Breakdown.ER)
	assert.Equal(t, SegmentStaff{Patients: 7, Doctors: 4, Nurses: 8}, plan.Breakdown.General)
	assert.Equal(t, 10, plan.Support)
	// 30 + (0-50)*0.3 = 15
	assert.Equal(t, 15, plan.Risk)
	assert.Equal(t, []string{"Normal staffing levels adequate"}, plan.Notes)
}

func TestStaffingPlanner_Invariants(t *testing.T) {
	planner := NewStaffingPlanner(DefaultParams())
	inputs := []StaffingInput{
		{},
		{PredictedPatients: 150, ICURisk: 42, AQI: 100},
		{PredictedPatients: 220, ICURisk: 70, EpidemicIndex: 5, AQI: 250, RespiratoryCases: 40},
		{PredictedPatients: 400, ICURisk: 100, EpidemicIndex: 9, AQI: 450, RespiratoryCases: 120},
		{PredictedPatients: -20, ICURisk: 500, EpidemicIndex: -1, AQI: 9000},
	}

	for _, in := range inputs {
		plan := planner.Recommend(in)
		b := plan.Breakdown

		assert.Equal(t, b.ICU.Doctors+b.ER.Doctors+b.General.Doctors, plan.Doctors)
		assert.Equal(t, b.ICU.Nurses+b.ER.Nurses+b.General.Nurses, plan.Nurses)
		assert.GreaterOrEqual(t, b.ICU.Doctors, 2)
		assert.GreaterOrEqual(t, b.ICU.Nurses, 3)
		assert.GreaterOrEqual(t, b.ER.Doctors, 3)
		assert.GreaterOrEqual(t, b.ER.Nurses, 5)
		assert.GreaterOrEqual(t, b.General.Doctors, 4)
		assert.GreaterOrEqual(t, b.General.Nurses, 8)
		assert.GreaterOrEqual(t, plan.Support, 10)
		assert.GreaterOrEqual(t, b.General.Patients, 0)
		assert.GreaterOrEqual(t, plan.Risk, 0)
		assert.LessOrEqual(t, plan.Risk, 100)
		assert.NotEmpty(t, plan.Notes)
	}
}

func TestStaffingPlanner_PressureTiers(t *testing.T) {
	planner := NewStaffingPlanner(DefaultParams())
	tests := []struct {
		name  string
		in    StaffingInput
		risk  int
		first string
	}{
		{"normal", StaffingInput{PredictedPatients: 140, ICURisk: 50}, 30, "Normal staffing levels adequate"},
		{"moderate", StaffingInput{PredictedPatients: 160, ICURisk: 50}, 50, "MODERATE: Monitor staffing levels closely"},
		{"high", StaffingInput{PredictedPatients: 210, ICURisk: 50}, 70, "HIGH PRESSURE: Increase staff on next shift"},
		{"aqi bonus", StaffingInput{PredictedPatients: 160, ICURisk: 50, AQI: 350}, 65, "HIGH PRESSURE: Increase staff on next shift"},
		{"epidemic", StaffingInput{PredictedPatients: 160, ICURisk: 50, EpidemicIndex: 5}, 60, "HIGH PRESSURE: Increase staff on next shift"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := planner.Recommend(tt.in)
			assert.Equal(t, tt.risk, plan.Risk)
			assert.Equal(t, tt.first, plan.Notes[0])
		})
	}
}

func TestStaffingPlanner_ERMultiplier(t *testing.T) {
	planner := NewStaffingPlanner(DefaultParams())

	plain := planner.Recommend(StaffingInput{PredictedPatients: 200, AQI: 100})
	smog := planner.Recommend(StaffingInput{PredictedPatients: 200, AQI: 350, EpidemicIndex: 8})

	assert.Equal(t, 60, plain.Breakdown.ER.Patients)
	// 200 * 0.3 * 1.5 * 1.3
	assert.Equal(t, 117, smog.Breakdown.ER.Patients)
}

func TestStaffingPlanner_RespiratoryNote(t *testing.T) {
	plan := NewStaffingPlanner(DefaultParams()).Recommend(StaffingInput{
		PredictedPatients: 150, ICURisk: 40, RespiratoryCases: 75,
	})

	assert.Contains(t, plan.Notes, "High respiratory load (75 cases) - add pulmonology cover")
}
