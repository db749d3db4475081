// Package comparison orchestrates the structure calculators into a
// side-by-side analysis: one result per financing structure on a
// comparable cash-flow basis, ranked and scored into a recommendation.
package comparison

import (
	"hcre_deal_engine/pkg/core/financing"
	"hcre_deal_engine/pkg/core/leaseback"
	"hcre_deal_engine/pkg/models"
)

// StructureType tags one acquisition/financing structure.
type StructureType string

const (
	StructureCash          StructureType = "cash"
	StructureConventional  StructureType = "conventional"
	StructureSaleLeaseback StructureType = "sale_leaseback"
	StructureREITLeaseback StructureType = "reit_leaseback"
	StructureLeaseBuyout   StructureType = "lease_buyout"
)

// AllStructures is the declaration order, which also breaks scoring ties.
var AllStructures = []StructureType{
	StructureCash,
	StructureConventional,
	StructureSaleLeaseback,
	StructureREITLeaseback,
	StructureLeaseBuyout,
}

// CoverageBasis names which ratio backs a structure's coverage test.
type CoverageBasis string

const (
	CoverageDSCR CoverageBasis = "dscr"
	CoverageRent CoverageBasis = "rent"
	CoverageNone CoverageBasis = "none"
)

// StructureDetail is the discriminated payload: exactly one pointer is
// set, matching the Structure tag, so consumers can handle each variant
// exhaustively.
type StructureDetail struct {
	Conventional *financing.FinancingResult `json:"conventional,omitempty"`
	Leaseback    *leaseback.Result          `json:"leaseback,omitempty"`
}

// StructureAnalysis is one structure's full result. Derived once, never
// mutated afterward.
type StructureAnalysis struct {
	Structure StructureType `json:"structure"`

	CapitalRequired float64 `json:"capital_required"`

	IRR            float64 `json:"irr"`
	EquityMultiple float64 `json:"equity_multiple"`
	CashOnCash     float64 `json:"cash_on_cash"`
	NPV            float64 `json:"npv"`

	CoverageBasis CoverageBasis `json:"coverage_basis"`
	CoverageRatio float64       `json:"coverage_ratio"`
	CoveragePass  bool          `json:"coverage_pass"`

	TotalCashFlow    float64   `json:"total_cash_flow"`
	TerminalProceeds float64   `json:"terminal_proceeds"`
	CashFlows        []float64 `json:"cash_flows"`

	Risk models.RiskLevel `json:"risk"`

	Pros []string `json:"pros"`
	Cons []string `json:"cons"`

	Detail StructureDetail `json:"detail"`
}

// Rankings lists structures best-first on each axis.
type Rankings struct {
	ByIRR            []StructureType `json:"by_irr"`
	ByEquityMultiple []StructureType `json:"by_equity_multiple"`
	ByCashOnCash     []StructureType `json:"by_cash_on_cash"`
	ByEquityRequired []StructureType `json:"by_equity_required"` // ascending
	ByRisk           []StructureType `json:"by_risk"`            // ascending
}

// StructureScore is one structure's recommendation arithmetic.
type StructureScore struct {
	Structure StructureType `json:"structure"`
	IRRPoints int           `json:"irr_points"`
	RiskPoints int          `json:"risk_points"`
	CoveragePoints int      `json:"coverage_points"`
	Total     int           `json:"total"`
}

// Result is the complete comparison.
type Result struct {
	Analyses    []StructureAnalysis `json:"analyses"`
	Rankings    Rankings            `json:"rankings"`
	Scores      []StructureScore    `json:"scores"`
	Recommended StructureType       `json:"recommended"`
	Rationale   string              `json:"rationale"`
}

// Input configures one comparison run.
type Input struct {
	Metrics models.FacilityMetrics `json:"metrics"`
	Params  models.DealParameters  `json:"params"`

	// Structures to evaluate; empty means all five.
	Structures []StructureType `json:"structures,omitempty"`

	// Growth applied to NOI/EBITDAR across the hold.
	NOIGrowth float64 `json:"noi_growth"`

	// REIT buyers accept a tighter yield than private leaseback capital.
	REITYieldDiscount float64 `json:"reit_yield_discount"`

	// Operator working capital posted at closing of a leaseback.
	WorkingCapitalPct float64 `json:"working_capital_pct"`

	// Lease buyout priced at a discount to the cap-rate value.
	BuyoutDiscountPct float64 `json:"buyout_discount_pct"`
}
