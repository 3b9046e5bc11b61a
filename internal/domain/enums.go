package domain

// RiskLevel is the discrete severity band of a composite risk index.
type RiskLevel string

const (
	RiskMinimal  RiskLevel = "MINIMAL"
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// RiskLevelFor maps an index onto its level. Thresholds are inclusive lower
// bounds: 80 CRITICAL, 60 HIGH, 40 MODERATE, 20 LOW.
func RiskLevelFor(index int) RiskLevel {
	switch {
	case index >= 80:
		return RiskCritical
	case index >= 60:
		return RiskHigh
	case index >= 40:
		return RiskModerate
	case index >= 20:
		return RiskLow
	default:
		return RiskMinimal
	}
}

// SupplyStatus describes stock adequacy against a requirement.
type SupplyStatus string

const (
	SupplyOK     SupplyStatus = "OK"
	SupplyMedium SupplyStatus = "MEDIUM"
	SupplyLow    SupplyStatus = "LOW"
)

// Priority ranks how urgently an item needs attention. It is also used for
// the coarse supply-risk hints of a risk assessment.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)
