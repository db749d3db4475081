package finance

import (
	"math"

	"hcre_deal_engine/pkg/models"
)

// MonthlyPayment computes the level payment for a fully-amortizing loan.
// Standard annuity formula on a monthly rate. A zero rate degenerates to
// straight-line principal.
func MonthlyPayment(principal, annualRate float64, amortizationYears int) float64 {
	if principal <= 0 || amortizationYears <= 0 {
		return 0
	}
	n := float64(amortizationYears * 12)
	if annualRate == 0 {
		return principal / n
	}
	r := annualRate / 12.0
	return principal * r * math.Pow(1.0+r, n) / (math.Pow(1.0+r, n) - 1.0)
}

// PrincipalFromPayment inverts the annuity formula: the largest principal
// a given monthly payment can amortize at the stated rate and term.
func PrincipalFromPayment(monthlyPayment, annualRate float64, amortizationYears int) float64 {
	if monthlyPayment <= 0 || amortizationYears <= 0 {
		return 0
	}
	n := float64(amortizationYears * 12)
	if annualRate == 0 {
		return monthlyPayment * n
	}
	r := annualRate / 12.0
	return monthlyPayment * (math.Pow(1.0+r, n) - 1.0) / (r * math.Pow(1.0+r, n))
}

// TerminalValue prices an exit via direct capitalization, net of selling
// costs: NOI / exitCapRate * (1 - sellingCostPct).
func TerminalValue(noi, exitCapRate, sellingCostPct float64) (float64, error) {
	if exitCapRate <= 0 {
		return 0, models.InvalidParameterf("exit cap rate must be positive, got %.4f", exitCapRate)
	}
	return noi / exitCapRate * (1.0 - sellingCostPct), nil
}

// SafeRatio divides numerator by denominator, returning 0 for a zero
// denominator. "No obligation" (zero rent, zero debt service) is a valid
// state, not an error.
func SafeRatio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
