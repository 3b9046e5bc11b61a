package domain

import "fmt"

// Operational alert types.
const (
	AlertPollutionWarning = "POLLUTION_WARNING"
	AlertSurgeRisk        = "SURGE_RISK"
	AlertStaffShortage    = "STAFF_SHORTAGE"
)

// Alert trigger limits. Each fires when its value is strictly exceeded.
const (
	pollutionAlertAQI    = 200
	surgeAlertIndex      = 70
	staffingAlertDoctors = 20
)

// OperationalAlert is a report-level notice meant for automation workflows.
type OperationalAlert struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// OperationalAlerts derives report-level alerts from the assembled results.
// The returned slice is never nil.
func OperationalAlerts(ctx PredictionContext, risk RiskAssessment, staffing StaffingPlan) []OperationalAlert {
	out := []OperationalAlert{}
	if ctx.AQI > pollutionAlertAQI {
		out = append(out, OperationalAlert{
			Type:     AlertPollutionWarning,
			Severity: string(RiskHigh),
			Message:  fmt.Sprintf("High AQI detected (%d). Respiratory surge expected.", ctx.AQI),
		})
	}
	if risk.Index > surgeAlertIndex {
		out = append(out, OperationalAlert{
			Type:     AlertSurgeRisk,
			Severity: string(RiskCritical),
			Message:  fmt.Sprintf("Hospital Risk Index is %d. Activate surge protocols.", risk.Index),
		})
	}
	if staffing.Doctors > staffingAlertDoctors {
		out = append(out, OperationalAlert{
			Type:     AlertStaffShortage,
			Severity: string(PriorityMedium),
			Message:  "High doctor requirement detected for next shift.",
		})
	}
	return out
}
