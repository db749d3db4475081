package models

// RiskLevel is the three-step ordinal used to rank structures and exit
// scenarios.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Ordinal maps the level to a sortable rank (low = 1).
func (r RiskLevel) Ordinal() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	default:
		return 2
	}
}
