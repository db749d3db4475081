package proforma

import (
	"math"
	"testing"

	"hcre_deal_engine/pkg/models"
)

func turnaroundFacility() models.FacilityMetrics {
	// Under-occupied SNF with heavy agency usage
	return models.FacilityMetrics{
		Name:      "Lakeview SNF",
		AssetType: models.AssetSNF,
		Beds:      100,
		Occupancy: 0.78,
		Revenue:   9000000,
		EBITDAR:   900000, // expenses 8.1M
		NOI:       750000,
	}
}

func baseAssumptions() Assumptions {
	return Assumptions{
		Years:                 5,
		TargetOccupancy:       0.88,
		OccupancyRampAnnual:   0.04,
		BaseRevenueGrowth:     0.02,
		RateIncrease:          0.03,
		WageInflation:         0.03,
		AgencyLaborPct:        0.08,
		AgencyReductionAnnual: 0.02,
		AgencyFloorPct:        0.02,
		ManagementFeePct:      0.05,
		AnnualRent:            600000,
		RentEscalation:        0.02,
		AnnualDebtService:     250000,
	}
}

func TestGenerateOccupancyRamp(t *testing.T) {
	res, err := Generate(turnaroundFacility(), baseAssumptions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(res.Years) != 5 {
		t.Fatalf("Expected 5 years, got %d", len(res.Years))
	}

	// 0.78 -> 0.82 -> 0.86 -> 0.88 (capped) -> 0.88
	wantOcc := []float64{0.82, 0.86, 0.88, 0.88, 0.88}
	for i, want := range wantOcc {
		if math.Abs(res.Years[i].Occupancy-want) > 1e-9 {
			t.Errorf("Year %d: expected occupancy %.2f, got %.4f", i+1, want, res.Years[i].Occupancy)
		}
	}

	// Target reached in year 3
	if res.YearToStabilization != 3 {
		t.Errorf("Expected stabilization in year 3, got %d", res.YearToStabilization)
	}
}

func TestGenerateRevenueRecurrence(t *testing.T) {
	res, err := Generate(turnaroundFacility(), baseAssumptions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Year 1 growth: lift (0.82/0.78 - 1) + 0.02 base + 0.015 half-rate
	lift := 0.82/0.78 - 1.0
	wantRev := 9000000 * (1 + lift + 0.02 + 0.015)
	if math.Abs(res.Years[0].Revenue-wantRev) > 1e-4 {
		t.Errorf("Expected year-1 revenue %f, got %f", wantRev, res.Years[0].Revenue)
	}

	// Once stabilized (years 4-5) growth is just base + half-rate = 3.5%
	y4, y5 := res.Years[3], res.Years[4]
	if math.Abs(y5.Revenue/y4.Revenue-(1.035)) > 1e-9 {
		t.Errorf("Expected 3.5%% stabilized growth, got %f", y5.Revenue/y4.Revenue-1)
	}
}

func TestGenerateAgencyBurnDown(t *testing.T) {
	res, err := Generate(turnaroundFacility(), baseAssumptions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// 8% -> 6% -> 4% -> 2% (floor) -> 2%
	wantAgency := []float64{0.06, 0.04, 0.02, 0.02, 0.02}
	for i, want := range wantAgency {
		if math.Abs(res.Years[i].AgencyPct-want) > 1e-9 {
			t.Errorf("Year %d: expected agency %.2f, got %.4f", i+1, want, res.Years[i].AgencyPct)
		}
	}

	// Year 1 expenses: 8.1M inflated at 3% minus 2pts of agency savings
	y1 := res.Years[0]
	wantExp := 8100000*1.03 - 0.02*y1.Revenue
	if math.Abs(y1.Expenses-wantExp) > 1e-4 {
		t.Errorf("Expected year-1 expenses %f, got %f", wantExp, y1.Expenses)
	}
}

func TestGenerateCoverageAndIdentities(t *testing.T) {
	res, err := Generate(turnaroundFacility(), baseAssumptions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, y := range res.Years {
		// EBITDAR = revenue - expenses; EBITDA = EBITDAR - rent;
		// NOI = EBITDAR - management fee
		if math.Abs(y.EBITDAR-(y.Revenue-y.Expenses)) > 1e-6 {
			t.Errorf("Year %d EBITDAR identity broken", y.Year)
		}
		if math.Abs(y.EBITDA-(y.EBITDAR-y.Rent)) > 1e-6 {
			t.Errorf("Year %d EBITDA identity broken", y.Year)
		}
		if math.Abs(y.NOI-(y.EBITDAR-y.ManagementFee)) > 1e-6 {
			t.Errorf("Year %d NOI identity broken", y.Year)
		}
		if math.Abs(y.RentCoverage-y.EBITDAR/y.Rent) > 1e-9 {
			t.Errorf("Year %d rent coverage mismatch", y.Year)
		}
		if math.Abs(y.FixedChargeCoverage-y.EBITDAR/(y.Rent+250000)) > 1e-9 {
			t.Errorf("Year %d fixed-charge coverage mismatch", y.Year)
		}
	}
}

func TestGenerateCAGR(t *testing.T) {
	res, err := Generate(turnaroundFacility(), baseAssumptions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	first, last := res.Years[0], res.Years[4]
	wantRevCAGR := math.Pow(last.Revenue/first.Revenue, 0.25) - 1
	if math.Abs(res.RevenueCAGR-wantRevCAGR) > 1e-9 {
		t.Errorf("Expected revenue CAGR %f, got %f", wantRevCAGR, res.RevenueCAGR)
	}

	// A turnaround at ramping census must grow NOI faster than revenue
	if res.NOICAGR <= res.RevenueCAGR {
		t.Errorf("Expected NOI CAGR (%f) above revenue CAGR (%f)", res.NOICAGR, res.RevenueCAGR)
	}
}

func TestGenerateZeroDebtServiceDSCR(t *testing.T) {
	a := baseAssumptions()
	a.AnnualDebtService = 0
	res, err := Generate(turnaroundFacility(), a)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// DSCR reported as 0 when there is no debt, never NaN
	if res.Years[0].DSCR != 0 {
		t.Errorf("Expected DSCR 0 with no debt, got %f", res.Years[0].DSCR)
	}
}

func TestGenerateStabilizationNeverReached(t *testing.T) {
	a := baseAssumptions()
	a.Years = 2 // ramp needs 3 years
	res, err := Generate(turnaroundFacility(), a)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.YearToStabilization != 0 {
		t.Errorf("Expected 0 (not stabilized), got %d", res.YearToStabilization)
	}
}

func TestGenerateRejectsBadAssumptions(t *testing.T) {
	if _, err := Generate(turnaroundFacility(), Assumptions{Years: 0}); err == nil {
		t.Error("Expected error for zero years")
	}
	a := baseAssumptions()
	a.TargetOccupancy = 1.2
	if _, err := Generate(turnaroundFacility(), a); err == nil {
		t.Error("Expected error for occupancy above 1")
	}
}
