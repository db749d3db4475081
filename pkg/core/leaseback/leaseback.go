// Package leaseback implements sale-leaseback deal pricing: cap-rate
// purchase valuation, yield-based rent setting, EBITDAR coverage testing,
// portfolio rollups, and parameter sensitivity sweeps.
package leaseback

import (
	"hcre_deal_engine/pkg/core/finance"
	"hcre_deal_engine/pkg/models"
)

// Terms are the buyer-side underwriting parameters for one leaseback.
type Terms struct {
	CapRate         float64 `json:"cap_rate"`
	BuyerYield      float64 `json:"buyer_yield"`
	MinimumCoverage float64 `json:"minimum_coverage"` // 0 = asset-type default
	LeaseTermYears  int     `json:"lease_term_years"`
	RentEscalation  float64 `json:"rent_escalation"`
}

// Result is the leaseback analysis for a single facility.
type Result struct {
	FacilityName string           `json:"facility_name"`
	AssetType    models.AssetType `json:"asset_type"`

	PurchasePrice float64 `json:"purchase_price"`
	PricePerBed   float64 `json:"price_per_bed"`
	AnnualRent    float64 `json:"annual_rent"`
	EBITDAR       float64 `json:"ebitdar"`

	CoverageRatio   float64 `json:"coverage_ratio"`
	MinimumCoverage float64 `json:"minimum_coverage"`
	Passes          bool    `json:"passes"`
}

// DefaultMinimumCoverage returns the rent-coverage floor by asset class.
// SNF operators need more cushion against census and reimbursement swings.
func DefaultMinimumCoverage(assetType models.AssetType) float64 {
	switch assetType {
	case models.AssetSNF:
		return 1.40
	case models.AssetALF:
		return 1.35
	default:
		return 1.30
	}
}

// Analyze prices one facility and tests coverage.
//
// purchasePrice = NOI / capRate
// annualRent    = purchasePrice * buyerYield
// coverage      = EBITDAR / annualRent, pass iff >= minimum (inclusive)
func Analyze(m models.FacilityMetrics, terms Terms) (*Result, error) {
	if terms.CapRate <= 0 {
		return nil, models.InvalidParameterf("cap rate must be positive, got %.4f", terms.CapRate)
	}

	minCoverage := terms.MinimumCoverage
	if minCoverage == 0 {
		minCoverage = DefaultMinimumCoverage(m.AssetType)
	}

	price := m.NOI / terms.CapRate
	rent := price * terms.BuyerYield
	coverage := finance.SafeRatio(m.EBITDAR, rent)

	res := &Result{
		FacilityName:    m.Name,
		AssetType:       m.AssetType,
		PurchasePrice:   price,
		AnnualRent:      rent,
		EBITDAR:         m.EBITDAR,
		CoverageRatio:   coverage,
		MinimumCoverage: minCoverage,
		Passes:          coverage >= minCoverage,
	}
	if m.Beds > 0 {
		res.PricePerBed = price / float64(m.Beds)
	}
	return res, nil
}

// ProjectedRent returns the escalated rent for a 1-based lease year.
func ProjectedRent(baseRent, escalation float64, year int) float64 {
	rent := baseRent
	for y := 1; y < year; y++ {
		rent *= 1.0 + escalation
	}
	return rent
}
