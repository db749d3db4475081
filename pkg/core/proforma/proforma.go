// Package proforma generates multi-year operating projections for a
// facility: census ramp, rate and wage inflation, agency-labor burn-down,
// and the resulting coverage and cash-flow trajectory. The projection is
// a strict linear recurrence: each year derives only from the prior
// year's ending state plus the static assumptions.
package proforma

import (
	"math"

	"hcre_deal_engine/pkg/core/finance"
	"hcre_deal_engine/pkg/models"
)

// Assumptions are the static drivers applied to every projected year.
type Assumptions struct {
	Years int `json:"years"`

	// Census ramp: occupancy climbs by the annual increment until it
	// reaches (and holds at) the target.
	TargetOccupancy     float64 `json:"target_occupancy"`
	OccupancyRampAnnual float64 `json:"occupancy_ramp_annual"`

	// Revenue drivers. Half of a rate increase reaches the top line;
	// the rest is absorbed by payer mix and concessions.
	BaseRevenueGrowth float64 `json:"base_revenue_growth"`
	RateIncrease      float64 `json:"rate_increase"`

	// Expense drivers
	WageInflation         float64 `json:"wage_inflation"`
	AgencyLaborPct        float64 `json:"agency_labor_pct"` // share of revenue at year 0
	AgencyReductionAnnual float64 `json:"agency_reduction_annual"`
	AgencyFloorPct        float64 `json:"agency_floor_pct"`

	ManagementFeePct float64 `json:"management_fee_pct"` // of revenue

	// Fixed obligations for coverage testing
	AnnualRent        float64 `json:"annual_rent"`
	RentEscalation    float64 `json:"rent_escalation"`
	AnnualDebtService float64 `json:"annual_debt_service"`
}

// Year is one projected year's operating and financial snapshot.
type Year struct {
	Year      int     `json:"year"`
	Occupancy float64 `json:"occupancy"`

	Revenue       float64 `json:"revenue"`
	Expenses      float64 `json:"expenses"`
	AgencyPct     float64 `json:"agency_pct"`
	ManagementFee float64 `json:"management_fee"`
	Rent          float64 `json:"rent"`

	EBITDAR float64 `json:"ebitdar"`
	EBITDA  float64 `json:"ebitda"`
	NOI     float64 `json:"noi"`

	DSCR                float64 `json:"dscr"`
	RentCoverage        float64 `json:"rent_coverage"`
	FixedChargeCoverage float64 `json:"fixed_charge_coverage"`

	CashFlow float64 `json:"cash_flow"`
}

// Result bundles the projection with its summary statistics.
type Result struct {
	Years []Year `json:"years"`

	// First projection year at which occupancy reaches the target;
	// 0 when the ramp never gets there within the horizon.
	YearToStabilization int `json:"year_to_stabilization"`

	RevenueCAGR float64 `json:"revenue_cagr"`
	ExpenseCAGR float64 `json:"expense_cagr"`
	NOICAGR     float64 `json:"noi_cagr"`
	EBITDARCAGR float64 `json:"ebitdar_cagr"`
}

// Generate projects the facility forward. Operating expenses here exclude
// rent and management fee, so EBITDAR = revenue - expenses, EBITDA =
// EBITDAR - rent, NOI = EBITDAR - management fee.
func Generate(m models.FacilityMetrics, a Assumptions) (*Result, error) {
	if a.Years <= 0 {
		return nil, models.InvalidParameterf("projection years must be positive, got %d", a.Years)
	}
	if a.TargetOccupancy > 1.0 || a.TargetOccupancy < 0 {
		return nil, models.InvalidParameterf("target occupancy must be within [0,1], got %.4f", a.TargetOccupancy)
	}

	res := &Result{Years: make([]Year, 0, a.Years)}

	occupancy := m.Occupancy
	revenue := m.Revenue
	// Starting expense base: revenue less EBITDAR
	expenses := m.Revenue - m.EBITDAR
	agencyPct := a.AgencyLaborPct
	rent := a.AnnualRent

	for yr := 1; yr <= a.Years; yr++ {
		// 1. Census ramp (capped at the target)
		prevOccupancy := occupancy
		if occupancy < a.TargetOccupancy {
			occupancy = math.Min(occupancy+a.OccupancyRampAnnual, a.TargetOccupancy)
		}
		occupancyLift := 0.0
		if prevOccupancy > 0 {
			occupancyLift = (occupancy - prevOccupancy) / prevOccupancy
		}

		// 2. Revenue: census lift + base growth + half of rate increases
		growth := occupancyLift + a.BaseRevenueGrowth + a.RateIncrease/2.0
		revenue *= 1.0 + growth

		// 3. Expenses: wage inflation less agency-labor savings
		prevAgency := agencyPct
		agencyPct = math.Max(agencyPct-a.AgencyReductionAnnual, a.AgencyFloorPct)
		agencySavings := (prevAgency - agencyPct) * revenue
		expenses = expenses*(1.0+a.WageInflation) - agencySavings

		// 4. Rent escalation
		if yr > 1 {
			rent *= 1.0 + a.RentEscalation
		}

		mgmtFee := revenue * a.ManagementFeePct
		ebitdar := revenue - expenses
		ebitda := ebitdar - rent
		noi := ebitdar - mgmtFee

		year := Year{
			Year:          yr,
			Occupancy:     occupancy,
			Revenue:       revenue,
			Expenses:      expenses,
			AgencyPct:     agencyPct,
			ManagementFee: mgmtFee,
			Rent:          rent,
			EBITDAR:       ebitdar,
			EBITDA:        ebitda,
			NOI:           noi,

			DSCR:                finance.SafeRatio(noi, a.AnnualDebtService),
			RentCoverage:        finance.SafeRatio(ebitdar, rent),
			FixedChargeCoverage: finance.SafeRatio(ebitdar, rent+a.AnnualDebtService),

			CashFlow: noi - rent - a.AnnualDebtService,
		}
		res.Years = append(res.Years, year)

		if res.YearToStabilization == 0 && occupancy >= a.TargetOccupancy {
			res.YearToStabilization = yr
		}
	}

	first := res.Years[0]
	last := res.Years[len(res.Years)-1]
	span := len(res.Years) - 1
	res.RevenueCAGR = cagr(first.Revenue, last.Revenue, span)
	res.ExpenseCAGR = cagr(first.Expenses, last.Expenses, span)
	res.NOICAGR = cagr(first.NOI, last.NOI, span)
	res.EBITDARCAGR = cagr(first.EBITDAR, last.EBITDAR, span)

	return res, nil
}

// cagr is the compound annual growth rate between two endpoints. Zero or
// sign-flipping endpoints have no meaningful CAGR and return 0.
func cagr(start, end float64, years int) float64 {
	if years <= 0 || start <= 0 || end <= 0 {
		return 0
	}
	return math.Pow(end/start, 1.0/float64(years)) - 1.0
}
