// Package exit compares disposition paths from a given holding point
// forward: outright sale, cash-out refinance, and continued hold. All
// three share the finance package's IRR engine so returns are directly
// comparable.
package exit

import (
	"fmt"

	"hcre_deal_engine/pkg/core/finance"
	"hcre_deal_engine/pkg/models"
)

// Kind tags one disposition scenario.
type Kind string

const (
	KindSale      Kind = "sale"
	KindRefinance Kind = "refinance"
	KindHold      Kind = "hold"
)

// refiForwardHoldYears is the assumed hold after a refinance before the
// eventual sale that closes out the forward IRR.
const refiForwardHoldYears = 5

// Inputs describes the position at the analysis point.
type Inputs struct {
	InitialEquity float64 `json:"initial_equity"`

	CurrentNOI float64 `json:"current_noi"`
	NOIGrowth  float64 `json:"noi_growth"`

	CurrentLoanBalance float64 `json:"current_loan_balance"`
	LoanRate           float64 `json:"loan_rate"`
	AnnualDebtService  float64 `json:"annual_debt_service"`

	ExitYear  int `json:"exit_year"`  // sale / refinance point
	HoldYears int `json:"hold_years"` // horizon for the hold scenario

	ExitCapRate          float64 `json:"exit_cap_rate"`
	SellingCostPct       float64 `json:"selling_cost_pct"`
	PrepaymentPenaltyPct float64 `json:"prepayment_penalty_pct"`

	RefiLTV        float64 `json:"refi_ltv"`
	RefiRate       float64 `json:"refi_rate"`
	RefiAmortYears int     `json:"refi_amort_years"`
	RefiCostPct    float64 `json:"refi_cost_pct"`
}

// Scenario is one evaluated disposition path.
type Scenario struct {
	Kind Kind             `json:"kind"`
	Risk models.RiskLevel `json:"risk"`

	IRR         float64 `json:"irr"`
	NetProceeds float64 `json:"net_proceeds,omitempty"` // sale
	CashOut     float64 `json:"cash_out,omitempty"`     // refinance

	CashFlows []float64 `json:"cash_flows"`
	Summary   string    `json:"summary"`
}

// Comparison ranks the three scenarios.
type Comparison struct {
	Scenarios   []Scenario `json:"scenarios"`
	Recommended Kind       `json:"recommended"`
	Rationale   string     `json:"rationale"`
}

// Analyze evaluates sale, refinance, and hold, then ranks by IRR with the
// risk veto: a high-risk winner yields to a lower-risk runner-up whose
// IRR is within 85% of the top.
func Analyze(in Inputs) (*Comparison, error) {
	if in.ExitYear <= 0 {
		return nil, models.InvalidParameterf("exit year must be positive, got %d", in.ExitYear)
	}
	if in.ExitCapRate <= 0 {
		return nil, models.InvalidParameterf("exit cap rate must be positive, got %.4f", in.ExitCapRate)
	}
	if in.HoldYears <= in.ExitYear {
		in.HoldYears = in.ExitYear + 5
	}

	sale := analyzeSale(in)
	refi := analyzeRefinance(in)
	hold := analyzeHold(in)

	cmp := &Comparison{Scenarios: []Scenario{sale, refi, hold}}

	best, runner := rankByIRR(cmp.Scenarios)
	cmp.Recommended = best.Kind
	cmp.Rationale = fmt.Sprintf("%s offers the highest IRR (%.1f%%)", best.Kind, best.IRR*100)

	// Risk veto
	if best.Risk == models.RiskHigh && runner != nil &&
		runner.Risk.Ordinal() < best.Risk.Ordinal() && runner.IRR >= best.IRR*0.85 {
		cmp.Recommended = runner.Kind
		cmp.Rationale = fmt.Sprintf("%s IRR (%.1f%%) is within 85%% of the high-risk leader %s (%.1f%%) at lower risk",
			runner.Kind, runner.IRR*100, best.Kind, best.IRR*100)
	}
	return cmp, nil
}

// analyzeSale projects NOI to the exit year, prices the asset off the
// exit cap rate, and nets out selling costs, prepayment penalty, and the
// loan payoff.
func analyzeSale(in Inputs) Scenario {
	flows := make([]float64, in.ExitYear+1)
	flows[0] = -in.InitialEquity

	noi := in.CurrentNOI
	balance := in.CurrentLoanBalance
	for y := 1; y <= in.ExitYear; y++ {
		noi *= 1.0 + in.NOIGrowth
		flows[y] = noi - in.AnnualDebtService
		balance = declineBalance(balance, in.LoanRate, in.AnnualDebtService)
	}

	gross := noi / in.ExitCapRate
	net := gross -
		gross*in.SellingCostPct -
		balance*in.PrepaymentPenaltyPct -
		balance
	flows[in.ExitYear] += net

	return Scenario{
		Kind:        KindSale,
		Risk:        models.RiskMedium,
		IRR:         finance.InternalRateOfReturn(flows),
		NetProceeds: net,
		CashFlows:   flows,
		Summary:     fmt.Sprintf("sell in year %d for %.0f gross, %.0f net of costs and payoff", in.ExitYear, gross, net),
	}
}

// analyzeRefinance sizes a new loan by LTV against the projected value at
// the refinance point, takes cash out, and measures the forward IRR over
// a subsequent 5-year hold ending in a sale.
func analyzeRefinance(in Inputs) Scenario {
	noi := in.CurrentNOI
	balance := in.CurrentLoanBalance
	for y := 1; y <= in.ExitYear; y++ {
		noi *= 1.0 + in.NOIGrowth
		balance = declineBalance(balance, in.LoanRate, in.AnnualDebtService)
	}

	value := noi / in.ExitCapRate
	newLoan := value * in.RefiLTV
	cashOut := newLoan - balance - newLoan*in.RefiCostPct

	newDebtService := finance.MonthlyPayment(newLoan, in.RefiRate, in.RefiAmortYears) * 12.0

	// Forward position: equity left in the deal after the cash-out
	flows := make([]float64, refiForwardHoldYears+1)
	flows[0] = -(value - newLoan)

	fwdNOI := noi
	fwdBalance := newLoan
	for y := 1; y <= refiForwardHoldYears; y++ {
		fwdNOI *= 1.0 + in.NOIGrowth
		flows[y] = fwdNOI - newDebtService
		fwdBalance = declineBalance(fwdBalance, in.RefiRate, newDebtService)
	}
	fwdValue := fwdNOI / in.ExitCapRate
	flows[refiForwardHoldYears] += fwdValue - fwdValue*in.SellingCostPct - fwdBalance

	return Scenario{
		Kind:      KindRefinance,
		Risk:      models.RiskHigh,
		IRR:       finance.InternalRateOfReturn(flows),
		CashOut:   cashOut,
		CashFlows: flows,
		Summary:   fmt.Sprintf("refinance in year %d at %.0f value, %.0f cash out, hold %d more years", in.ExitYear, value, cashOut, refiForwardHoldYears),
	}
}

// analyzeHold extends the operating projection to the full hold horizon
// with a declining-balance approximation of the existing debt, exiting
// via the cap rate at the end.
func analyzeHold(in Inputs) Scenario {
	flows := make([]float64, in.HoldYears+1)
	flows[0] = -in.InitialEquity

	noi := in.CurrentNOI
	balance := in.CurrentLoanBalance
	for y := 1; y <= in.HoldYears; y++ {
		noi *= 1.0 + in.NOIGrowth
		flows[y] = noi - in.AnnualDebtService
		balance = declineBalance(balance, in.LoanRate, in.AnnualDebtService)
	}

	value := noi / in.ExitCapRate
	flows[in.HoldYears] += value - value*in.SellingCostPct - balance

	return Scenario{
		Kind:      KindHold,
		Risk:      models.RiskLow,
		IRR:       finance.InternalRateOfReturn(flows),
		CashFlows: flows,
		Summary:   fmt.Sprintf("hold %d years and exit at a %.2f%% cap", in.HoldYears, in.ExitCapRate*100),
	}
}

// declineBalance applies one year of the declining-balance approximation:
// principal reduction = debt service less interest on the balance.
func declineBalance(balance, rate, debtService float64) float64 {
	if balance <= 0 {
		return 0
	}
	principal := debtService - balance*rate
	if principal < 0 {
		principal = 0
	}
	balance -= principal
	if balance < 0 {
		return 0
	}
	return balance
}

// rankByIRR returns the top scenario and the best lower-risk alternative.
func rankByIRR(scenarios []Scenario) (*Scenario, *Scenario) {
	best := &scenarios[0]
	for i := range scenarios {
		if scenarios[i].IRR > best.IRR {
			best = &scenarios[i]
		}
	}

	var runner *Scenario
	for i := range scenarios {
		s := &scenarios[i]
		if s == best || s.Risk.Ordinal() >= best.Risk.Ordinal() {
			continue
		}
		if runner == nil || s.IRR > runner.IRR {
			runner = s
		}
	}
	return best, runner
}
