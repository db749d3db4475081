// Package buyout models lease buyouts: allocating a lump-sum buyout
// across leased facilities, amortizing it like debt on top of base rent,
// and projecting the resulting coverage trajectory.
package buyout

import (
	"math"

	"hcre_deal_engine/pkg/core/finance"
	"hcre_deal_engine/pkg/models"
)

// AllocationBasis selects how the lump sum is spread across facilities.
type AllocationBasis string

const (
	AllocateByRent    AllocationBasis = "rent"
	AllocateByEBITDAR AllocationBasis = "ebitdar"
	AllocateByBeds    AllocationBasis = "beds"
	AllocateEqual     AllocationBasis = "equal"
)

// Terms describes the buyout being priced.
type Terms struct {
	BuyoutAmount    float64         `json:"buyout_amount"`
	Basis           AllocationBasis `json:"basis"`
	AnnualRate      float64         `json:"annual_rate"`
	TermYears       int             `json:"term_years"`
	RentEscalation  float64         `json:"rent_escalation"`
	EBITDARGrowth   float64         `json:"ebitdar_growth"`
	ProjectionYears int             `json:"projection_years"` // 0 = amortization term
}

// FacilityAllocation is one facility's slice of the buyout.
type FacilityAllocation struct {
	FacilityName string  `json:"facility_name"`
	Amount       float64 `json:"amount"`
	Share        float64 `json:"share"`
}

// CoverageYear is one year of the post-buyout coverage trajectory.
type CoverageYear struct {
	Year          int     `json:"year"`
	BaseRent      float64 `json:"base_rent"`
	BuyoutPayment float64 `json:"buyout_payment"`
	TotalRent     float64 `json:"total_rent"`
	EBITDAR       float64 `json:"ebitdar"`
	CoverageRatio float64 `json:"coverage_ratio"`
}

// Result is the full buyout analysis.
type Result struct {
	BuyoutAmount      float64              `json:"buyout_amount"`
	AmortizationYears int                  `json:"amortization_years"`
	AnnualAmortized   float64              `json:"annual_amortized"`
	Allocations       []FacilityAllocation `json:"allocations"`

	BaseRent     float64        `json:"base_rent"`
	NewTotalRent float64        `json:"new_total_rent"`
	Schedule     []CoverageYear `json:"schedule"`

	Year1Coverage float64 `json:"year_1_coverage"`
}

// Allocate splits the lump sum pro-rata by the chosen basis. Facilities
// with a zero basis weight receive nothing; if every weight is zero the
// split falls back to equal shares.
func Allocate(facilities []models.FacilityMetrics, amount float64, basis AllocationBasis) []FacilityAllocation {
	weights := make([]float64, len(facilities))
	total := 0.0
	for i, m := range facilities {
		switch basis {
		case AllocateByRent:
			weights[i] = m.CurrentRent
		case AllocateByEBITDAR:
			weights[i] = m.EBITDAR
		case AllocateByBeds:
			weights[i] = float64(m.Beds)
		default:
			weights[i] = 1
		}
		total += weights[i]
	}

	if total == 0 {
		for i := range weights {
			weights[i] = 1
		}
		total = float64(len(facilities))
	}

	out := make([]FacilityAllocation, len(facilities))
	for i, m := range facilities {
		share := weights[i] / total
		out[i] = FacilityAllocation{
			FacilityName: m.Name,
			Amount:       amount * share,
			Share:        share,
		}
	}
	return out
}

// Analyze amortizes the buyout across the portfolio and projects the
// combined rent-plus-amortization coverage year by year.
func Analyze(facilities []models.FacilityMetrics, terms Terms) (*Result, error) {
	if len(facilities) == 0 {
		return nil, models.InvalidParameterf("buyout requires at least one facility")
	}
	if terms.BuyoutAmount <= 0 {
		return nil, models.InvalidParameterf("buyout amount must be positive, got %.2f", terms.BuyoutAmount)
	}
	if terms.TermYears <= 0 {
		return nil, models.InvalidParameterf("term years must be positive, got %d", terms.TermYears)
	}

	// Amortize over the shorter of the stated term and the average
	// remaining lease life; paying off a buyout past lease expiry makes
	// no sense.
	amortYears := terms.TermYears
	if avg := averageRemainingLease(facilities); avg > 0 && int(math.Floor(avg)) < amortYears {
		amortYears = int(math.Floor(avg))
	}

	monthly := finance.MonthlyPayment(terms.BuyoutAmount, terms.AnnualRate, amortYears)
	annualAmortized := monthly * 12.0

	baseRent := 0.0
	totalEBITDAR := 0.0
	for _, m := range facilities {
		baseRent += m.CurrentRent
		totalEBITDAR += m.EBITDAR
	}

	res := &Result{
		BuyoutAmount:      terms.BuyoutAmount,
		AmortizationYears: amortYears,
		AnnualAmortized:   annualAmortized,
		Allocations:       Allocate(facilities, terms.BuyoutAmount, terms.Basis),
		BaseRent:          baseRent,
		NewTotalRent:      baseRent + annualAmortized,
	}

	years := terms.ProjectionYears
	if years <= 0 {
		years = amortYears
	}

	rent := baseRent
	ebitdar := totalEBITDAR
	for year := 1; year <= years; year++ {
		if year > 1 {
			rent *= 1.0 + terms.RentEscalation
			ebitdar *= 1.0 + terms.EBITDARGrowth
		}

		payment := annualAmortized
		if year > amortYears {
			payment = 0 // buyout fully amortized
		}

		totalRent := rent + payment
		res.Schedule = append(res.Schedule, CoverageYear{
			Year:          year,
			BaseRent:      rent,
			BuyoutPayment: payment,
			TotalRent:     totalRent,
			EBITDAR:       ebitdar,
			CoverageRatio: finance.SafeRatio(ebitdar, totalRent),
		})
	}
	res.Year1Coverage = res.Schedule[0].CoverageRatio

	return res, nil
}

// MaxBuyoutForCoverage inverts the annuity: the largest buyout whose
// amortization, stacked on base rent, still leaves the portfolio at the
// target coverage ratio in year one.
func MaxBuyoutForCoverage(facilities []models.FacilityMetrics, targetCoverage, annualRate float64, termYears int) (float64, error) {
	if targetCoverage <= 0 {
		return 0, models.InvalidParameterf("target coverage must be positive, got %.4f", targetCoverage)
	}
	if termYears <= 0 {
		return 0, models.InvalidParameterf("term years must be positive, got %d", termYears)
	}

	baseRent := 0.0
	totalEBITDAR := 0.0
	for _, m := range facilities {
		baseRent += m.CurrentRent
		totalEBITDAR += m.EBITDAR
	}

	amortYears := termYears
	if avg := averageRemainingLease(facilities); avg > 0 && int(math.Floor(avg)) < amortYears {
		amortYears = int(math.Floor(avg))
	}

	// EBITDAR / (baseRent + x) = target  =>  x = EBITDAR/target - baseRent
	maxAnnualPayment := totalEBITDAR/targetCoverage - baseRent
	if maxAnnualPayment <= 0 {
		return 0, nil // already at or below target on base rent alone
	}

	return finance.PrincipalFromPayment(maxAnnualPayment/12.0, annualRate, amortYears), nil
}

func averageRemainingLease(facilities []models.FacilityMetrics) float64 {
	sum, n := 0.0, 0
	for _, m := range facilities {
		if m.RemainingLeaseYears > 0 {
			sum += m.RemainingLeaseYears
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
