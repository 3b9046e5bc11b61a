package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationalAlerts(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		got := OperationalAlerts(DefaultContext(), RiskAssessment{Index: 30}, StaffingPlan{Doctors: 20})
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("all", func(t *testing.T) {
		ctx := DefaultContext()
		ctx.AQI = 320

		got := OperationalAlerts(ctx, RiskAssessment{Index: 71}, StaffingPlan{Doctors: 21})

		assert.Equal(t, []OperationalAlert{
			{Type: AlertPollutionWarning, Severity: "HIGH", Message: "High AQI detected (320). Respiratory surge expected."},
			{Type: AlertSurgeRisk, Severity: "CRITICAL", Message: "Hospital Risk Index is 71. Activate surge protocols."},
			{Type: AlertStaffShortage, Severity: "MEDIUM", Message: "High doctor requirement detected for next shift."},
		}, got)
	})

	t.Run("thresholds are exclusive", func(t *testing.T) {
		ctx := DefaultContext()
		ctx.AQI = 200

		got := OperationalAlerts(ctx, RiskAssessment{Index: 70}, StaffingPlan{Doctors: 20})
		assert.Empty(t, got)
	})
}
