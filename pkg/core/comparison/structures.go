package comparison

import (
	"hcre_deal_engine/pkg/core/finance"
	"hcre_deal_engine/pkg/core/financing"
	"hcre_deal_engine/pkg/core/leaseback"
	"hcre_deal_engine/pkg/models"
)

// buildCash models an unlevered purchase: full price in at period 0,
// NOI out every year, capitalized exit at the end of the hold.
func buildCash(in Input) (*StructureAnalysis, error) {
	price := in.Metrics.NOI / in.Params.CapRate
	years := in.Params.HoldingPeriodYears

	noiSeries := projectSeries(in.Metrics.NOI, in.NOIGrowth, years)
	terminal, err := finance.TerminalValue(noiSeries[years-1], in.Params.ExitCapRate, in.Params.SellingCostPct)
	if err != nil {
		return nil, err
	}

	flows := make([]float64, years+1)
	flows[0] = -price
	copy(flows[1:], noiSeries)
	flows[years] += terminal

	a := &StructureAnalysis{
		Structure:        StructureCash,
		CapitalRequired:  price,
		CoverageBasis:    CoverageNone,
		CoveragePass:     true, // no obligation to cover
		TerminalProceeds: terminal,
		CashFlows:        flows,
		Risk:             models.RiskLow,
		Pros: []string{
			"no financing contingency or lender approval",
			"full NOI retained with zero debt service",
			"owns all residual real-estate upside",
		},
		Cons: []string{
			"largest capital requirement of any structure",
			"no leverage amplification of returns",
		},
	}
	finishAnalysis(a, in.Params.DiscountRate)
	return a, nil
}

// buildConventional models a bank-financed purchase: equity in, NOI net
// of debt service out, exit net of the balloon payoff.
func buildConventional(in Input) (*StructureAnalysis, error) {
	price := in.Metrics.NOI / in.Params.CapRate
	years := in.Params.HoldingPeriodYears

	ltv := in.Params.LTV
	if ltv == 0 {
		ltv = 0.70
	}
	amort := in.Params.AmortizationYears
	if amort == 0 {
		amort = 25
	}
	term := in.Params.LoanTermYears
	if term == 0 {
		term = years
	}

	fin, err := financing.Analyze(in.Metrics, financing.LoanTerms{
		PurchasePrice:     price,
		LTV:               ltv,
		AnnualRate:        in.Params.InterestRate,
		AmortizationYears: amort,
		LoanTermYears:     term,
	})
	if err != nil {
		return nil, err
	}

	noiSeries := projectSeries(in.Metrics.NOI, in.NOIGrowth, years)
	terminal, err := finance.TerminalValue(noiSeries[years-1], in.Params.ExitCapRate, in.Params.SellingCostPct)
	if err != nil {
		return nil, err
	}

	flows := make([]float64, years+1)
	flows[0] = -fin.Equity
	for y := 1; y <= years; y++ {
		flows[y] = noiSeries[y-1] - fin.AnnualDebtService
	}

	// Exit nets out the remaining balance at the end of the hold
	payoff := fin.BalloonBalance
	if years-1 < len(fin.Schedule) {
		payoff = fin.Schedule[years-1].EndingBalance
	}
	flows[years] += terminal - payoff

	a := &StructureAnalysis{
		Structure:        StructureConventional,
		CapitalRequired:  fin.Equity,
		CoverageBasis:    CoverageDSCR,
		CoverageRatio:    fin.DSCR,
		CoveragePass:     fin.DSCRPass,
		TerminalProceeds: terminal - payoff,
		CashFlows:        flows,
		Risk:             models.RiskMedium,
		Detail:           StructureDetail{Conventional: fin},
		Pros: []string{
			"leverage amplifies equity returns",
			"retains real-estate upside at a fraction of the price",
		},
		Cons: []string{
			"debt service claims cash flow in down years",
			"balloon refinancing risk at loan maturity",
		},
	}
	finishAnalysis(a, in.Params.DiscountRate)
	return a, nil
}

// buildLeaseback models the operator side of a sale-leaseback: modest
// working capital at closing, EBITDAR net of rent every year, and no
// terminal real-estate proceeds since the buyer owns the building. REIT
// buyers take a tighter yield than private leaseback capital.
func buildLeaseback(in Input, reit bool) (*StructureAnalysis, error) {
	terms := leaseback.Terms{
		CapRate:         in.Params.CapRate,
		BuyerYield:      in.Params.BuyerYield,
		MinimumCoverage: in.Params.MinimumCoverage,
		RentEscalation:  in.Params.RentEscalation,
	}
	if terms.BuyerYield == 0 {
		terms.BuyerYield = in.Params.CapRate
	}

	structure := StructureSaleLeaseback
	risk := models.RiskHigh // escalating rent against a fixed asset base, no residual
	if reit {
		structure = StructureREITLeaseback
		terms.BuyerYield -= in.REITYieldDiscount
		risk = models.RiskMedium // institutional landlord, tighter yield, longer paper
	}

	lb, err := leaseback.Analyze(in.Metrics, terms)
	if err != nil {
		return nil, err
	}

	years := in.Params.HoldingPeriodYears
	equity := lb.PurchasePrice * in.WorkingCapitalPct
	ebitdarSeries := projectSeries(in.Metrics.EBITDAR, in.NOIGrowth, years)

	flows := make([]float64, years+1)
	flows[0] = -equity
	for y := 1; y <= years; y++ {
		rent := leaseback.ProjectedRent(lb.AnnualRent, terms.RentEscalation, y)
		flows[y] = ebitdarSeries[y-1] - rent
	}
	// Working capital comes back at lease end
	flows[years] += equity

	pros := []string{
		"frees the real-estate capital for operations",
		"smallest equity requirement of any structure",
	}
	cons := []string{
		"rent escalates against the operating margin",
		"no participation in real-estate appreciation",
	}
	if reit {
		pros = append(pros, "institutional landlord with long-dated paper")
	} else {
		cons = append(cons, "private leaseback capital prices at a wider yield")
	}

	a := &StructureAnalysis{
		Structure:        structure,
		CapitalRequired:  equity,
		CoverageBasis:    CoverageRent,
		CoverageRatio:    lb.CoverageRatio,
		CoveragePass:     lb.Passes,
		TerminalProceeds: equity,
		CashFlows:        flows,
		Risk:             risk,
		Detail:           StructureDetail{Leaseback: lb},
		Pros:             pros,
		Cons:             cons,
	}
	finishAnalysis(a, in.Params.DiscountRate)
	return a, nil
}

// buildLeaseBuyout models buying out an in-place lease to own the
// facility: the buyout (priced at a discount to the cap-rate value of
// the leased asset) goes in at period 0, the operator keeps full NOI
// thereafter, and exits as an owner.
func buildLeaseBuyout(in Input) (*StructureAnalysis, error) {
	// Only meaningful when there is a lease to buy out.
	if in.Metrics.CurrentRent <= 0 {
		return nil, nil
	}
	price := in.Metrics.NOI / in.Params.CapRate
	buyoutPrice := price * (1.0 - in.BuyoutDiscountPct)
	years := in.Params.HoldingPeriodYears

	noiSeries := projectSeries(in.Metrics.NOI, in.NOIGrowth, years)
	terminal, err := finance.TerminalValue(noiSeries[years-1], in.Params.ExitCapRate, in.Params.SellingCostPct)
	if err != nil {
		return nil, err
	}

	flows := make([]float64, years+1)
	flows[0] = -buyoutPrice
	copy(flows[1:], noiSeries)
	flows[years] += terminal

	a := &StructureAnalysis{
		Structure:        StructureLeaseBuyout,
		CapitalRequired:  buyoutPrice,
		CoverageBasis:    CoverageNone,
		CoveragePass:     true,
		TerminalProceeds: terminal,
		CashFlows:        flows,
		Risk:             models.RiskMedium,
		Pros: []string{
			"entry below the open-market cap-rate value",
			"extinguishes the escalating lease obligation",
		},
		Cons: []string{
			"requires a willing landlord and lease-specific negotiation",
			"full purchase capital without financing in place",
		},
	}
	finishAnalysis(a, in.Params.DiscountRate)
	return a, nil
}
