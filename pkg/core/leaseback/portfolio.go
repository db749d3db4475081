package leaseback

import (
	"math"
	"sort"

	"hcre_deal_engine/pkg/core/finance"
	"hcre_deal_engine/pkg/models"
)

// Recommendation is the all-or-nothing decision for a portfolio.
type Recommendation string

const (
	RecommendProceed     Recommendation = "proceed"
	RecommendNegotiate   Recommendation = "negotiate"
	RecommendExcludeWeak Recommendation = "exclude_weak"
	RecommendPass        Recommendation = "pass"
)

// GroupBreakdown aggregates one slice of the portfolio (a state or an
// asset class).
type GroupBreakdown struct {
	Key           string  `json:"key"`
	FacilityCount int     `json:"facility_count"`
	PurchasePrice float64 `json:"purchase_price"`
	AnnualRent    float64 `json:"annual_rent"`
	EBITDAR       float64 `json:"ebitdar"`
	ShareOfPrice  float64 `json:"share_of_price"`
}

// PortfolioResult is the multi-facility rollup. Totals are true
// aggregates: blended coverage is total EBITDAR over total rent, never an
// average of per-facility ratios.
type PortfolioResult struct {
	Facilities []Result `json:"facilities"`

	TotalPurchasePrice float64 `json:"total_purchase_price"`
	TotalAnnualRent    float64 `json:"total_annual_rent"`
	TotalEBITDAR       float64 `json:"total_ebitdar"`
	TotalNOI           float64 `json:"total_noi"`
	TotalBeds          int     `json:"total_beds"`

	BlendedCoverage float64 `json:"blended_coverage"`
	BlendedCapRate  float64 `json:"blended_cap_rate"`
	MinimumCoverage float64 `json:"minimum_coverage"`
	Passes          bool    `json:"passes"`

	ByState     []GroupBreakdown `json:"by_state"`
	ByAssetType []GroupBreakdown `json:"by_asset_type"`

	LargestFacilityName  string  `json:"largest_facility_name"`
	LargestFacilityShare float64 `json:"largest_facility_share"`
	DiversificationScore float64 `json:"diversification_score"`

	// All-or-nothing analysis
	FailingCount   int            `json:"failing_count"`
	WeakestName    string         `json:"weakest_name"`
	DragEffect     float64        `json:"drag_effect"`
	Recommendation Recommendation `json:"recommendation"`
	Rationale      string         `json:"rationale"`
}

// AnalyzePortfolio rolls up a multi-facility sale-leaseback under shared
// terms. Per-facility coverage minimums follow each facility's asset
// class unless Terms overrides them.
func AnalyzePortfolio(facilities []models.FacilityMetrics, terms Terms) (*PortfolioResult, error) {
	if len(facilities) == 0 {
		return nil, models.InvalidParameterf("portfolio requires at least one facility")
	}

	res := &PortfolioResult{Facilities: make([]Result, 0, len(facilities))}

	minCoverage := 0.0
	for _, m := range facilities {
		fr, err := Analyze(m, terms)
		if err != nil {
			return nil, err
		}
		res.Facilities = append(res.Facilities, *fr)

		res.TotalPurchasePrice += fr.PurchasePrice
		res.TotalAnnualRent += fr.AnnualRent
		res.TotalEBITDAR += fr.EBITDAR
		res.TotalNOI += m.NOI
		res.TotalBeds += m.Beds

		// Portfolio floor is the strictest facility floor present.
		if fr.MinimumCoverage > minCoverage {
			minCoverage = fr.MinimumCoverage
		}
	}

	res.MinimumCoverage = minCoverage
	res.BlendedCoverage = finance.SafeRatio(res.TotalEBITDAR, res.TotalAnnualRent)
	res.BlendedCapRate = finance.SafeRatio(res.TotalNOI, res.TotalPurchasePrice)
	res.Passes = res.BlendedCoverage >= minCoverage

	res.ByState = breakdown(facilities, res.Facilities, res.TotalPurchasePrice, func(m models.FacilityMetrics) string { return m.State })
	res.ByAssetType = breakdown(facilities, res.Facilities, res.TotalPurchasePrice, func(m models.FacilityMetrics) string { return string(m.AssetType) })

	// Concentration
	for _, fr := range res.Facilities {
		share := finance.SafeRatio(fr.PurchasePrice, res.TotalPurchasePrice)
		if share > res.LargestFacilityShare {
			res.LargestFacilityShare = share
			res.LargestFacilityName = fr.FacilityName
		}
	}

	res.DiversificationScore = diversificationScore(res)
	allOrNothing(res)
	return res, nil
}

func breakdown(metrics []models.FacilityMetrics, results []Result, totalPrice float64, keyFn func(models.FacilityMetrics) string) []GroupBreakdown {
	byKey := make(map[string]*GroupBreakdown)
	for i, m := range metrics {
		key := keyFn(m)
		g, ok := byKey[key]
		if !ok {
			g = &GroupBreakdown{Key: key}
			byKey[key] = g
		}
		g.FacilityCount++
		g.PurchasePrice += results[i].PurchasePrice
		g.AnnualRent += results[i].AnnualRent
		g.EBITDAR += results[i].EBITDAR
	}

	out := make([]GroupBreakdown, 0, len(byKey))
	for _, g := range byKey {
		g.ShareOfPrice = finance.SafeRatio(g.PurchasePrice, totalPrice)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchasePrice > out[j].PurchasePrice })
	return out
}

// diversificationScore grades the portfolio 0-100 across four equally
// weighted dimensions (25 points each): facility count, geographic
// spread, asset-class mix, and size distribution.
func diversificationScore(res *PortfolioResult) float64 {
	// Facility count: full credit at 10+
	countScore := math.Min(float64(len(res.Facilities)), 10) / 10.0 * 25.0

	// Geographic spread: full credit at 5+ states
	geoScore := math.Min(float64(len(res.ByState)), 5) / 5.0 * 25.0

	// Asset mix: full credit with all three classes present
	mixScore := math.Min(float64(len(res.ByAssetType)), 3) / 3.0 * 25.0

	// Size distribution: penalize concentration above an even split
	evenShare := 1.0 / float64(len(res.Facilities))
	excess := res.LargestFacilityShare - evenShare
	sizeScore := 25.0 * (1.0 - math.Min(excess/(1.0-evenShare+1e-12), 1.0))
	if len(res.Facilities) == 1 {
		sizeScore = 0
	}

	return countScore + geoScore + mixScore + sizeScore
}

// allOrNothing finds the weakest facility, measures how much the failing
// facilities drag blended coverage, and applies the decision table.
func allOrNothing(res *PortfolioResult) {
	weakest := -1
	passEBITDAR, passRent := 0.0, 0.0
	for i, fr := range res.Facilities {
		if !fr.Passes {
			res.FailingCount++
		} else {
			passEBITDAR += fr.EBITDAR
			passRent += fr.AnnualRent
		}
		if weakest < 0 || fr.CoverageRatio < res.Facilities[weakest].CoverageRatio {
			weakest = i
		}
	}
	res.WeakestName = res.Facilities[weakest].FacilityName

	// Coverage with the weak facilities carved out, minus the blended
	// portfolio coverage: how much the weak assets cost the strong ones.
	if res.FailingCount > 0 && passRent > 0 {
		res.DragEffect = passEBITDAR/passRent - res.BlendedCoverage
	}

	switch {
	case res.FailingCount == 0:
		res.Recommendation = RecommendProceed
		res.Rationale = "every facility clears its coverage floor"
	case res.Passes && res.FailingCount <= 2:
		res.Recommendation = RecommendNegotiate
		res.Rationale = "blended coverage holds but a small number of facilities fail individually; reprice or re-tenant the weak assets"
	case res.Passes:
		res.Recommendation = RecommendExcludeWeak
		res.Rationale = "blended coverage holds only on the strength of the strong assets; carve out the failing facilities"
	case res.FailingCount*2 < len(res.Facilities):
		res.Recommendation = RecommendExcludeWeak
		res.Rationale = "portfolio fails blended coverage but a minority of facilities cause it; exclude them and re-run"
	default:
		res.Recommendation = RecommendPass
		res.Rationale = "majority of facilities fail coverage; the portfolio does not support the rent"
	}
}
