// Package assumption holds the underwriting defaults applied to deals
// that do not specify their own parameters. Defaults load from a YAML
// book so the underwriting desk can tune floors without a rebuild.
package assumption

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"hcre_deal_engine/pkg/models"
)

// Floors are the per-asset-type underwriting minimums.
type Floors struct {
	Coverage float64 `yaml:"coverage" json:"coverage"`
	DSCR     float64 `yaml:"dscr" json:"dscr"`
}

// FinancingDefaults seed conventional-loan terms.
type FinancingDefaults struct {
	LTV               float64 `yaml:"ltv" json:"ltv"`
	InterestRate      float64 `yaml:"interest_rate" json:"interest_rate"`
	AmortizationYears int     `yaml:"amortization_years" json:"amortization_years"`
	LoanTermYears     int     `yaml:"loan_term_years" json:"loan_term_years"`
}

// Book is the full set of underwriting defaults.
type Book struct {
	CapRate           float64 `yaml:"cap_rate" json:"cap_rate"`
	BuyerYield        float64 `yaml:"buyer_yield" json:"buyer_yield"`
	REITYieldDiscount float64 `yaml:"reit_yield_discount" json:"reit_yield_discount"`
	RentEscalation    float64 `yaml:"rent_escalation" json:"rent_escalation"`
	LeaseTermYears    int     `yaml:"lease_term_years" json:"lease_term_years"`

	HoldingPeriodYears int     `yaml:"holding_period_years" json:"holding_period_years"`
	DiscountRate       float64 `yaml:"discount_rate" json:"discount_rate"`
	ExitCapRate        float64 `yaml:"exit_cap_rate" json:"exit_cap_rate"`
	SellingCostPct     float64 `yaml:"selling_cost_pct" json:"selling_cost_pct"`

	Financing FinancingDefaults `yaml:"financing" json:"financing"`

	// Keyed by asset type (snf, alf, ilf).
	Floors map[string]Floors `yaml:"floors" json:"floors"`
}

// Default returns the house underwriting book.
func Default() *Book {
	return &Book{
		CapRate:            0.125,
		BuyerYield:         0.125,
		REITYieldDiscount:  0.0075,
		RentEscalation:     0.02,
		LeaseTermYears:     15,
		HoldingPeriodYears: 10,
		DiscountRate:       0.10,
		SellingCostPct:     0.02,
		Financing: FinancingDefaults{
			LTV:               0.70,
			InterestRate:      0.07,
			AmortizationYears: 25,
			LoanTermYears:     10,
		},
		Floors: map[string]Floors{
			string(models.AssetSNF): {Coverage: 1.40, DSCR: 1.25},
			string(models.AssetALF): {Coverage: 1.35, DSCR: 1.20},
			string(models.AssetILF): {Coverage: 1.30, DSCR: 1.20},
		},
	}
}

// Load reads a YAML book from path, layered over Default so a partial
// file only overrides what it names.
func Load(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assumption book: %w", err)
	}
	book := Default()
	if err := yaml.Unmarshal(data, book); err != nil {
		return nil, fmt.Errorf("parse assumption book: %w", err)
	}
	return book, nil
}

// FloorsFor returns the floors for an asset type, falling back to the
// SNF floors (the strictest) for unknown types.
func (b *Book) FloorsFor(assetType models.AssetType) Floors {
	if f, ok := b.Floors[string(assetType)]; ok {
		return f
	}
	return Floors{Coverage: 1.40, DSCR: 1.25}
}

// Apply fills the zero fields of params from the book. Explicit values
// in params always win.
func (b *Book) Apply(params *models.DealParameters, assetType models.AssetType) {
	if params.CapRate == 0 {
		params.CapRate = b.CapRate
	}
	if params.BuyerYield == 0 {
		params.BuyerYield = b.BuyerYield
	}
	if params.MinimumCoverage == 0 {
		params.MinimumCoverage = b.FloorsFor(assetType).Coverage
	}
	if params.MinimumDSCR == 0 {
		params.MinimumDSCR = b.FloorsFor(assetType).DSCR
	}
	if params.LeaseTermYears == 0 {
		params.LeaseTermYears = b.LeaseTermYears
	}
	if params.RentEscalation == 0 {
		params.RentEscalation = b.RentEscalation
	}
	if params.LTV == 0 {
		params.LTV = b.Financing.LTV
	}
	if params.InterestRate == 0 {
		params.InterestRate = b.Financing.InterestRate
	}
	if params.AmortizationYears == 0 {
		params.AmortizationYears = b.Financing.AmortizationYears
	}
	if params.LoanTermYears == 0 {
		params.LoanTermYears = b.Financing.LoanTermYears
	}
	if params.HoldingPeriodYears == 0 {
		params.HoldingPeriodYears = b.HoldingPeriodYears
	}
	if params.DiscountRate == 0 {
		params.DiscountRate = b.DiscountRate
	}
	if params.ExitCapRate == 0 {
		if b.ExitCapRate != 0 {
			params.ExitCapRate = b.ExitCapRate
		} else {
			params.ExitCapRate = params.CapRate
		}
	}
	if params.SellingCostPct == 0 {
		params.SellingCostPct = b.SellingCostPct
	}
}
