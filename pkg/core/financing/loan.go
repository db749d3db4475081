// Package financing models conventional bank debt: sizing off LTV,
// fixed and variable rate amortization, coverage testing, and the all-in
// effective borrowing cost net of fees.
package financing

import (
	"hcre_deal_engine/pkg/core/finance"
	"hcre_deal_engine/pkg/models"
)

// LoanTerms describes one conventional loan quote.
type LoanTerms struct {
	PurchasePrice     float64 `json:"purchase_price"`
	LTV               float64 `json:"ltv"`
	AnnualRate        float64 `json:"annual_rate"`
	AmortizationYears int     `json:"amortization_years"`
	LoanTermYears     int     `json:"loan_term_years"` // balloon at term; 0 = fully amortizing

	OriginationFeePct float64 `json:"origination_fee_pct"`
	ClosingCosts      float64 `json:"closing_costs"`

	// Variable-rate terms. When Variable is set the effective rate for
	// year N is IndexRates[N] + Spread, clamped to [RateFloor, RateCap];
	// the last index value carries forward past the end of the slice.
	Variable   bool      `json:"variable"`
	IndexRates []float64 `json:"index_rates,omitempty"`
	Spread     float64   `json:"spread,omitempty"`
	RateFloor  float64   `json:"rate_floor,omitempty"`
	RateCap    float64   `json:"rate_cap,omitempty"`
}

// LoanScheduleRow is one year of the amortization schedule.
type LoanScheduleRow struct {
	Year             int     `json:"year"`
	BeginningBalance float64 `json:"beginning_balance"`
	Payment          float64 `json:"payment"`
	Principal        float64 `json:"principal"`
	Interest         float64 `json:"interest"`
	EndingBalance    float64 `json:"ending_balance"`
	Rate             float64 `json:"rate"`
}

// FinancingResult is the full conventional-debt analysis for one facility.
type FinancingResult struct {
	LoanAmount        float64 `json:"loan_amount"`
	Equity            float64 `json:"equity"`
	MonthlyPayment    float64 `json:"monthly_payment"`
	AnnualDebtService float64 `json:"annual_debt_service"`

	DSCR        float64 `json:"dscr"`
	MinimumDSCR float64 `json:"minimum_dscr"`
	DSCRPass    bool    `json:"dscr_pass"`

	CashOnCash     float64 `json:"cash_on_cash"`
	AllInRate      float64 `json:"all_in_rate"`
	BalloonBalance float64 `json:"balloon_balance"`

	Schedule []LoanScheduleRow `json:"schedule"`
}

// MinimumDSCR returns the underwriting floor for the asset class.
// Skilled nursing carries more operational risk than ALF/ILF.
func MinimumDSCR(assetType models.AssetType) float64 {
	switch assetType {
	case models.AssetSNF:
		return 1.25
	default:
		return 1.20
	}
}

// Analyze sizes the loan, builds the schedule, and tests coverage.
func Analyze(metrics models.FacilityMetrics, terms LoanTerms) (*FinancingResult, error) {
	if terms.PurchasePrice <= 0 {
		return nil, models.InvalidParameterf("purchase price must be positive, got %.2f", terms.PurchasePrice)
	}
	if terms.LTV < 0 || terms.LTV > 1 {
		return nil, models.InvalidParameterf("LTV must be within [0,1], got %.4f", terms.LTV)
	}
	if terms.AmortizationYears <= 0 {
		return nil, models.InvalidParameterf("amortization years must be positive, got %d", terms.AmortizationYears)
	}

	loanAmount := terms.PurchasePrice * terms.LTV
	equity := terms.PurchasePrice - loanAmount

	schedule := BuildSchedule(loanAmount, terms)

	result := &FinancingResult{
		LoanAmount:  loanAmount,
		Equity:      equity,
		MinimumDSCR: MinimumDSCR(metrics.AssetType),
		Schedule:    schedule,
	}

	if len(schedule) > 0 {
		first := schedule[0]
		result.AnnualDebtService = first.Payment
		result.MonthlyPayment = first.Payment / 12.0
		result.BalloonBalance = schedule[len(schedule)-1].EndingBalance
	}

	// All-cash has no debt service; DSCR reported as 0, not infinity.
	result.DSCR = finance.SafeRatio(metrics.NOI, result.AnnualDebtService)
	result.DSCRPass = result.AnnualDebtService == 0 || result.DSCR >= result.MinimumDSCR

	result.CashOnCash = finance.SafeRatio(metrics.NOI-result.AnnualDebtService, equity)
	result.AllInRate = allInRate(loanAmount, result.MonthlyPayment, result.BalloonBalance, terms)

	return result, nil
}

// BuildSchedule produces the year-by-year amortization table by simulating
// 12 monthly sub-periods per year. For variable loans the payment is
// re-amortized each year at that year's effective rate over the remaining
// term, so rate changes land exactly where they occur instead of being
// smeared across annual averages.
func BuildSchedule(loanAmount float64, terms LoanTerms) []LoanScheduleRow {
	if loanAmount <= 0 || terms.AmortizationYears <= 0 {
		return nil
	}

	years := terms.LoanTermYears
	if years <= 0 || years > terms.AmortizationYears {
		years = terms.AmortizationYears
	}

	schedule := make([]LoanScheduleRow, 0, years)
	balance := loanAmount

	for year := 1; year <= years; year++ {
		rate := effectiveRate(terms, year-1)
		remainingYears := terms.AmortizationYears - (year - 1)
		pmt := finance.MonthlyPayment(balance, rate, remainingYears)

		row := LoanScheduleRow{
			Year:             year,
			BeginningBalance: balance,
			Rate:             rate,
		}

		monthlyRate := rate / 12.0
		for m := 0; m < 12; m++ {
			interest := balance * monthlyRate
			principal := pmt - interest
			if principal > balance {
				principal = balance
			}
			balance -= principal

			row.Payment += interest + principal
			row.Interest += interest
			row.Principal += principal

			if balance <= 0 {
				balance = 0
				break
			}
		}
		row.EndingBalance = balance
		schedule = append(schedule, row)

		if balance == 0 {
			break
		}
	}
	return schedule
}

// effectiveRate returns the rate in force for a 0-based year index.
func effectiveRate(terms LoanTerms, yearIdx int) float64 {
	if !terms.Variable {
		return terms.AnnualRate
	}

	index := terms.AnnualRate
	if len(terms.IndexRates) > 0 {
		if yearIdx < len(terms.IndexRates) {
			index = terms.IndexRates[yearIdx]
		} else {
			index = terms.IndexRates[len(terms.IndexRates)-1]
		}
	}

	rate := index + terms.Spread
	if terms.RateFloor > 0 && rate < terms.RateFloor {
		rate = terms.RateFloor
	}
	if terms.RateCap > 0 && rate > terms.RateCap {
		rate = terms.RateCap
	}
	return rate
}

// allInRate finds the effective annual borrowing cost: the borrower
// receives the loan net of origination and closing costs but pays the
// full stated payment stream. The monthly IRR of that stream, annualized,
// is the true cost of funds. Reuses the engine's Newton/bisection solver.
func allInRate(loanAmount, monthlyPayment, balloon float64, terms LoanTerms) float64 {
	if loanAmount <= 0 || monthlyPayment <= 0 {
		return 0
	}

	netProceeds := loanAmount - loanAmount*terms.OriginationFeePct - terms.ClosingCosts
	if netProceeds <= 0 {
		return 0
	}

	years := terms.LoanTermYears
	if years <= 0 || years > terms.AmortizationYears {
		years = terms.AmortizationYears
	}
	months := years * 12

	flows := make([]float64, months+1)
	flows[0] = netProceeds
	for m := 1; m <= months; m++ {
		flows[m] = -monthlyPayment
	}
	flows[months] -= balloon

	return finance.InternalRateOfReturn(flows) * 12.0
}
