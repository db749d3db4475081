package comparison

import (
	"fmt"
	"sort"

	"hcre_deal_engine/pkg/core/finance"
	"hcre_deal_engine/pkg/models"
)

// Defaults applied when the corresponding Input field is zero.
const (
	defaultNOIGrowth         = 0.025
	defaultREITYieldDiscount = 0.0075
	defaultWorkingCapitalPct = 0.05
	defaultBuyoutDiscountPct = 0.10
	defaultHoldingYears      = 10
	defaultSellingCostPct    = 0.02
)

// Compare evaluates every enabled structure on a comparable cash-flow
// basis and scores a recommendation.
func Compare(in Input) (*Result, error) {
	if in.Params.CapRate <= 0 {
		return nil, models.InvalidParameterf("cap rate must be positive, got %.4f", in.Params.CapRate)
	}
	applyDefaults(&in)

	structures := in.Structures
	if len(structures) == 0 {
		structures = AllStructures
	}

	res := &Result{}
	for _, st := range structures {
		analysis, err := buildStructure(in, st)
		if err != nil {
			return nil, fmt.Errorf("structure %s: %w", st, err)
		}
		if analysis != nil {
			res.Analyses = append(res.Analyses, *analysis)
		}
	}
	if len(res.Analyses) == 0 {
		return nil, models.InvalidParameterf("no structure could be analyzed")
	}

	res.Rankings = rank(res.Analyses)
	res.Scores = score(res.Analyses, res.Rankings)
	recommend(res)
	return res, nil
}

func applyDefaults(in *Input) {
	if in.NOIGrowth == 0 {
		in.NOIGrowth = defaultNOIGrowth
	}
	if in.REITYieldDiscount == 0 {
		in.REITYieldDiscount = defaultREITYieldDiscount
	}
	if in.WorkingCapitalPct == 0 {
		in.WorkingCapitalPct = defaultWorkingCapitalPct
	}
	if in.BuyoutDiscountPct == 0 {
		in.BuyoutDiscountPct = defaultBuyoutDiscountPct
	}
	if in.Params.HoldingPeriodYears <= 0 {
		in.Params.HoldingPeriodYears = defaultHoldingYears
	}
	if in.Params.ExitCapRate == 0 {
		in.Params.ExitCapRate = in.Params.CapRate
	}
	if in.Params.SellingCostPct == 0 {
		in.Params.SellingCostPct = defaultSellingCostPct
	}
	if in.Params.DiscountRate == 0 {
		in.Params.DiscountRate = 0.10
	}
}

// rank orders the analyses on every axis. Descending axes break ties by
// declaration order via stable sort over the declaration-ordered input.
func rank(analyses []StructureAnalysis) Rankings {
	names := func(idx []int) []StructureType {
		out := make([]StructureType, len(idx))
		for i, j := range idx {
			out[i] = analyses[j].Structure
		}
		return out
	}

	order := func(less func(i, j int) bool) []int {
		idx := make([]int, len(analyses))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool { return less(idx[a], idx[b]) })
		return idx
	}

	return Rankings{
		ByIRR:            names(order(func(i, j int) bool { return analyses[i].IRR > analyses[j].IRR })),
		ByEquityMultiple: names(order(func(i, j int) bool { return analyses[i].EquityMultiple > analyses[j].EquityMultiple })),
		ByCashOnCash:     names(order(func(i, j int) bool { return analyses[i].CashOnCash > analyses[j].CashOnCash })),
		ByEquityRequired: names(order(func(i, j int) bool { return analyses[i].CapitalRequired < analyses[j].CapitalRequired })),
		ByRisk:           names(order(func(i, j int) bool { return analyses[i].Risk.Ordinal() < analyses[j].Risk.Ordinal() })),
	}
}

// score applies the fixed recommendation table: 3/2/1 points for IRR rank
// (1st/2nd/other), 2/1/0 for risk rank, and 2 for passing coverage.
func score(analyses []StructureAnalysis, rankings Rankings) []StructureScore {
	irrRank := rankIndex(rankings.ByIRR)
	riskRank := rankIndex(rankings.ByRisk)

	scores := make([]StructureScore, 0, len(analyses))
	for _, a := range analyses {
		s := StructureScore{Structure: a.Structure}

		switch irrRank[a.Structure] {
		case 0:
			s.IRRPoints = 3
		case 1:
			s.IRRPoints = 2
		default:
			s.IRRPoints = 1
		}

		switch riskRank[a.Structure] {
		case 0:
			s.RiskPoints = 2
		case 1:
			s.RiskPoints = 1
		}

		if a.CoveragePass {
			s.CoveragePoints = 2
		}

		s.Total = s.IRRPoints + s.RiskPoints + s.CoveragePoints
		scores = append(scores, s)
	}
	return scores
}

func rankIndex(order []StructureType) map[StructureType]int {
	m := make(map[StructureType]int, len(order))
	for i, st := range order {
		m[st] = i
	}
	return m
}

// recommend picks the highest total score; scores iterate in declaration
// order, so ties resolve to the earlier structure.
func recommend(res *Result) {
	best := res.Scores[0]
	for _, s := range res.Scores[1:] {
		if s.Total > best.Total {
			best = s
		}
	}
	res.Recommended = best.Structure

	var winner *StructureAnalysis
	for i := range res.Analyses {
		if res.Analyses[i].Structure == best.Structure {
			winner = &res.Analyses[i]
		}
	}
	res.Rationale = fmt.Sprintf(
		"%s scores %d points: %.1f%% IRR on %.0f of equity (%s risk, coverage %s)",
		best.Structure, best.Total, winner.IRR*100, winner.CapitalRequired,
		winner.Risk, passWord(winner.CoveragePass))
}

func passWord(pass bool) string {
	if pass {
		return "passes"
	}
	return "fails"
}

// projectSeries grows a starting annual figure across the hold.
func projectSeries(start, growth float64, years int) []float64 {
	out := make([]float64, years)
	v := start
	for i := 0; i < years; i++ {
		v *= 1.0 + growth
		out[i] = v
	}
	return out
}

// finishAnalysis fills the derived return metrics shared by every
// structure from its assembled cash-flow series.
func finishAnalysis(a *StructureAnalysis, discountRate float64) {
	a.IRR = finance.InternalRateOfReturn(a.CashFlows)
	a.NPV = finance.NetPresentValue(a.CashFlows, discountRate)

	inflows := 0.0
	for _, cf := range a.CashFlows[1:] {
		inflows += cf
	}
	a.TotalCashFlow = inflows
	a.EquityMultiple = finance.SafeRatio(inflows, a.CapitalRequired)
	if len(a.CashFlows) > 1 {
		a.CashOnCash = finance.SafeRatio(a.CashFlows[1], a.CapitalRequired)
	}
}

// buildStructure dispatches one structure type.
func buildStructure(in Input, st StructureType) (*StructureAnalysis, error) {
	switch st {
	case StructureCash:
		return buildCash(in)
	case StructureConventional:
		return buildConventional(in)
	case StructureSaleLeaseback:
		return buildLeaseback(in, false)
	case StructureREITLeaseback:
		return buildLeaseback(in, true)
	case StructureLeaseBuyout:
		return buildLeaseBuyout(in)
	default:
		return nil, models.InvalidParameterf("unknown structure type %q", st)
	}
}
