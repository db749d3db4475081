package leaseback

import (
	"hcre_deal_engine/pkg/core/finance"
	"hcre_deal_engine/pkg/models"
)

// variableCostRatio is the share of a revenue change that flows through
// to EBITDAR after variable costs: occupancy swings do not move fixed
// costs, so only ~70% of marginal revenue is retained.
const variableCostRatio = 0.70

// SweepPoint is one cell of a single-parameter sweep.
type SweepPoint struct {
	Value         float64 `json:"value"`
	PurchasePrice float64 `json:"purchase_price"`
	AnnualRent    float64 `json:"annual_rent"`
	CoverageRatio float64 `json:"coverage_ratio"`
	Passes        bool    `json:"passes"`
}

// MatrixCell is one cell of the two-way cap-rate x yield matrix.
type MatrixCell struct {
	CapRate       float64 `json:"cap_rate"`
	BuyerYield    float64 `json:"buyer_yield"`
	PurchasePrice float64 `json:"purchase_price"`
	CoverageRatio float64 `json:"coverage_ratio"`
	Passes        bool    `json:"passes"`
}

// OccupancyPoint shows how an occupancy move reshapes coverage through
// the partial flow-through model.
type OccupancyPoint struct {
	Occupancy     float64 `json:"occupancy"`
	Revenue       float64 `json:"revenue"`
	EBITDAR       float64 `json:"ebitdar"`
	CoverageRatio float64 `json:"coverage_ratio"`
	Passes        bool    `json:"passes"`
}

// EscalationKind selects a rent-escalation regime.
type EscalationKind string

const (
	EscalationFlat  EscalationKind = "flat"
	EscalationCPI   EscalationKind = "cpi"
	EscalationFixed EscalationKind = "fixed_tiers"
)

// EscalationScenario projects rent and coverage under one regime at the
// 1/5/10-year checkpoints.
type EscalationScenario struct {
	Kind       EscalationKind `json:"kind"`
	Rates      []float64      `json:"rates"` // per-year escalation applied
	RentYear1  float64        `json:"rent_year_1"`
	RentYear5  float64        `json:"rent_year_5"`
	RentYear10 float64        `json:"rent_year_10"`

	CoverageYear1  float64 `json:"coverage_year_1"`
	CoverageYear5  float64 `json:"coverage_year_5"`
	CoverageYear10 float64 `json:"coverage_year_10"`
}

// SweepCapRate re-prices the deal across a cap-rate range, holding yield
// and minimum coverage fixed. Rent moves with price, so coverage falls as
// cap rates compress.
func SweepCapRate(m models.FacilityMetrics, terms Terms, from, to, step float64) ([]SweepPoint, error) {
	if from <= 0 || to < from || step <= 0 {
		return nil, models.InvalidParameterf("cap rate sweep requires 0 < from <= to and step > 0")
	}

	points := make([]SweepPoint, 0)
	for cap := from; cap <= to+1e-12; cap += step {
		t := terms
		t.CapRate = cap
		r, err := Analyze(m, t)
		if err != nil {
			return nil, err
		}
		points = append(points, SweepPoint{
			Value:         cap,
			PurchasePrice: r.PurchasePrice,
			AnnualRent:    r.AnnualRent,
			CoverageRatio: r.CoverageRatio,
			Passes:        r.Passes,
		})
	}
	return points, nil
}

// SweepYield varies the buyer's yield requirement at a fixed cap rate.
// Coverage is strictly decreasing in yield.
func SweepYield(m models.FacilityMetrics, terms Terms, from, to, step float64) ([]SweepPoint, error) {
	if from <= 0 || to < from || step <= 0 {
		return nil, models.InvalidParameterf("yield sweep requires 0 < from <= to and step > 0")
	}

	points := make([]SweepPoint, 0)
	for y := from; y <= to+1e-12; y += step {
		t := terms
		t.BuyerYield = y
		r, err := Analyze(m, t)
		if err != nil {
			return nil, err
		}
		points = append(points, SweepPoint{
			Value:         y,
			PurchasePrice: r.PurchasePrice,
			AnnualRent:    r.AnnualRent,
			CoverageRatio: r.CoverageRatio,
			Passes:        r.Passes,
		})
	}
	return points, nil
}

// SweepMatrix crosses cap rates with yields into a two-way grid.
func SweepMatrix(m models.FacilityMetrics, terms Terms, capRates, yields []float64) ([]MatrixCell, error) {
	cells := make([]MatrixCell, 0, len(capRates)*len(yields))
	for _, cap := range capRates {
		for _, y := range yields {
			t := terms
			t.CapRate = cap
			t.BuyerYield = y
			r, err := Analyze(m, t)
			if err != nil {
				return nil, err
			}
			cells = append(cells, MatrixCell{
				CapRate:       cap,
				BuyerYield:    y,
				PurchasePrice: r.PurchasePrice,
				CoverageRatio: r.CoverageRatio,
				Passes:        r.Passes,
			})
		}
	}
	return cells, nil
}

// SweepOccupancy models coverage at alternative census levels. Revenue
// scales proportionally with occupancy; EBITDAR moves by the revenue
// delta times the EBITDAR margin times the 70% variable-cost ratio.
func SweepOccupancy(m models.FacilityMetrics, terms Terms, occupancies []float64) ([]OccupancyPoint, error) {
	base, err := Analyze(m, terms)
	if err != nil {
		return nil, err
	}

	points := make([]OccupancyPoint, 0, len(occupancies))
	for _, occ := range occupancies {
		revenue := m.Revenue
		if m.Occupancy > 0 {
			revenue = m.Revenue * occ / m.Occupancy
		}
		deltaRev := revenue - m.Revenue
		ebitdar := m.EBITDAR + deltaRev*m.EBITDARMargin()*variableCostRatio

		coverage := finance.SafeRatio(ebitdar, base.AnnualRent)
		points = append(points, OccupancyPoint{
			Occupancy:     occ,
			Revenue:       revenue,
			EBITDAR:       ebitdar,
			CoverageRatio: coverage,
			Passes:        coverage >= base.MinimumCoverage,
		})
	}
	return points, nil
}

// EscalationScenarios projects rent under three regimes: flat (no
// escalation), CPI-linked (a constant assumed inflation rate), and fixed
// tiers (a declared per-year schedule, last tier carrying forward).
// EBITDAR is held at the snapshot level, which isolates the escalation
// risk in the coverage trajectory.
func EscalationScenarios(m models.FacilityMetrics, terms Terms, cpiRate float64, fixedTiers []float64) ([]EscalationScenario, error) {
	base, err := Analyze(m, terms)
	if err != nil {
		return nil, err
	}

	build := func(kind EscalationKind, rateFor func(year int) float64) EscalationScenario {
		s := EscalationScenario{Kind: kind}
		rent := base.AnnualRent
		for year := 1; year <= 10; year++ {
			if year > 1 {
				rate := rateFor(year)
				s.Rates = append(s.Rates, rate)
				rent *= 1.0 + rate
			}
			coverage := finance.SafeRatio(m.EBITDAR, rent)
			switch year {
			case 1:
				s.RentYear1, s.CoverageYear1 = rent, coverage
			case 5:
				s.RentYear5, s.CoverageYear5 = rent, coverage
			case 10:
				s.RentYear10, s.CoverageYear10 = rent, coverage
			}
		}
		return s
	}

	scenarios := []EscalationScenario{
		build(EscalationFlat, func(int) float64 { return 0 }),
		build(EscalationCPI, func(int) float64 { return cpiRate }),
	}
	if len(fixedTiers) > 0 {
		scenarios = append(scenarios, build(EscalationFixed, func(year int) float64 {
			idx := year - 2 // first escalation lands in year 2
			if idx >= len(fixedTiers) {
				idx = len(fixedTiers) - 1
			}
			return fixedTiers[idx]
		}))
	}
	return scenarios, nil
}
