// Package models defines the shared data contracts between the deal engine
// and its collaborators (intake, API, persistence). Facility snapshots are
// produced upstream by the document-extraction workflow and are treated as
// immutable inputs here.
package models

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter indicates a caller configuration mistake (e.g. a
// non-positive cap rate). It is not recoverable by the engine.
var ErrInvalidParameter = errors.New("invalid parameter")

// InvalidParameterf wraps ErrInvalidParameter with context.
func InvalidParameterf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidParameter}, args...)...)
}

// AssetType classifies a senior-housing facility.
type AssetType string

const (
	AssetSNF AssetType = "SNF" // Skilled Nursing Facility
	AssetALF AssetType = "ALF" // Assisted Living Facility
	AssetILF AssetType = "ILF" // Independent Living Facility
)

// FacilityMetrics is an immutable operating snapshot of one facility.
// All downstream calculations read from it; nothing in the engine writes
// to it.
type FacilityMetrics struct {
	Name      string    `json:"name"`
	AssetType AssetType `json:"asset_type"`
	State     string    `json:"state"`
	City      string    `json:"city"`

	Beds      int     `json:"beds"`
	Occupancy float64 `json:"occupancy"` // decimal, e.g. 0.87

	Revenue  float64 `json:"revenue"` // annual
	Expenses float64 `json:"expenses"`
	NOI      float64 `json:"noi"`
	EBITDAR  float64 `json:"ebitdar"`

	// Lease context (zero when the facility is owned)
	CurrentRent          float64 `json:"current_rent,omitempty"`
	RemainingLeaseYears  float64 `json:"remaining_lease_years,omitempty"`
	RentEscalationAnnual float64 `json:"rent_escalation_annual,omitempty"`
}

// EBITDARMargin returns EBITDAR as a share of revenue, 0 when revenue is 0.
func (f FacilityMetrics) EBITDARMargin() float64 {
	if f.Revenue == 0 {
		return 0
	}
	return f.EBITDAR / f.Revenue
}

// RevenuePerBed returns annual revenue per licensed bed, 0 when beds is 0.
func (f FacilityMetrics) RevenuePerBed() float64 {
	if f.Beds == 0 {
		return 0
	}
	return f.Revenue / float64(f.Beds)
}

// DealParameters carries the user-adjustable underwriting inputs supplied
// by the UI layer. Zero values mean "use the configured default".
type DealParameters struct {
	// Pricing
	CapRate    float64 `json:"cap_rate"`
	BuyerYield float64 `json:"buyer_yield"`

	// Coverage
	MinimumCoverage float64 `json:"minimum_coverage"`
	MinimumDSCR     float64 `json:"minimum_dscr"`

	// Lease terms
	LeaseTermYears int     `json:"lease_term_years"`
	RentEscalation float64 `json:"rent_escalation"`

	// Debt terms
	LTV               float64 `json:"ltv"`
	InterestRate      float64 `json:"interest_rate"`
	AmortizationYears int     `json:"amortization_years"`
	LoanTermYears     int     `json:"loan_term_years"`

	// Analysis horizon
	HoldingPeriodYears int     `json:"holding_period_years"`
	DiscountRate       float64 `json:"discount_rate"`
	ExitCapRate        float64 `json:"exit_cap_rate"`
	SellingCostPct     float64 `json:"selling_cost_pct"`
}
