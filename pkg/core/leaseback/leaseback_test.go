package leaseback

import (
	"math"
	"testing"

	"hcre_deal_engine/pkg/models"
)

func testFacility() models.FacilityMetrics {
	return models.FacilityMetrics{
		Name:      "Cedar Ridge SNF",
		AssetType: models.AssetSNF,
		State:     "OH",
		City:      "Columbus",
		Beds:      100,
		Occupancy: 0.85,
		Revenue:   10000000,
		NOI:       1000000,
		EBITDAR:   1400000,
	}
}

func TestAnalyzeCoreScenario(t *testing.T) {
	// NOI $1M at 12.5% cap -> $8M price
	// 12.5% yield -> $1M rent
	// EBITDAR $1.4M -> 1.40x coverage -> passes a 1.40 floor (inclusive)
	res, err := Analyze(testFacility(), Terms{CapRate: 0.125, BuyerYield: 0.125})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if math.Abs(res.PurchasePrice-8000000) > 1e-6 {
		t.Errorf("Expected price 8,000,000, got %f", res.PurchasePrice)
	}
	if math.Abs(res.AnnualRent-1000000) > 1e-6 {
		t.Errorf("Expected rent 1,000,000, got %f", res.AnnualRent)
	}
	if math.Abs(res.CoverageRatio-1.40) > 1e-9 {
		t.Errorf("Expected coverage 1.40, got %f", res.CoverageRatio)
	}
	if res.MinimumCoverage != 1.40 {
		t.Errorf("Expected SNF default floor 1.40, got %f", res.MinimumCoverage)
	}
	if !res.Passes {
		t.Error("Coverage exactly at the floor must pass (inclusive boundary)")
	}
	if math.Abs(res.PricePerBed-80000) > 1e-6 {
		t.Errorf("Expected 80,000/bed, got %f", res.PricePerBed)
	}
}

func TestAnalyzeRejectsNonPositiveCapRate(t *testing.T) {
	if _, err := Analyze(testFacility(), Terms{CapRate: 0, BuyerYield: 0.12}); err == nil {
		t.Error("Expected InvalidParameter for zero cap rate")
	}
	if _, err := Analyze(testFacility(), Terms{CapRate: -0.05, BuyerYield: 0.12}); err == nil {
		t.Error("Expected InvalidParameter for negative cap rate")
	}
}

func TestPurchasePriceDecreasingInCapRate(t *testing.T) {
	m := testFacility()
	prev := math.Inf(1)
	for _, cap := range []float64{0.08, 0.10, 0.12, 0.14} {
		res, err := Analyze(m, Terms{CapRate: cap, BuyerYield: 0.12})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if res.PurchasePrice >= prev {
			t.Errorf("Price must strictly decrease in cap rate; at %.2f got %f >= %f", cap, res.PurchasePrice, prev)
		}
		prev = res.PurchasePrice
	}
}

func TestCoverageDecreasingInYield(t *testing.T) {
	m := testFacility()
	prev := math.Inf(1)
	for _, y := range []float64{0.10, 0.11, 0.12, 0.13} {
		res, err := Analyze(m, Terms{CapRate: 0.125, BuyerYield: y})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if res.CoverageRatio >= prev {
			t.Errorf("Coverage must strictly decrease in yield; at %.2f got %f >= %f", y, res.CoverageRatio, prev)
		}
		prev = res.CoverageRatio
	}
}

func TestZeroRentCoverageIsZero(t *testing.T) {
	// Zero yield -> zero rent -> coverage 0, never NaN
	res, err := Analyze(testFacility(), Terms{CapRate: 0.125, BuyerYield: 0})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.CoverageRatio != 0 {
		t.Errorf("Expected coverage 0 for zero rent, got %f", res.CoverageRatio)
	}
}

func TestDefaultMinimumCoverageByClass(t *testing.T) {
	cases := []struct {
		at   models.AssetType
		want float64
	}{
		{models.AssetSNF, 1.40},
		{models.AssetALF, 1.35},
		{models.AssetILF, 1.30},
	}
	for _, c := range cases {
		if got := DefaultMinimumCoverage(c.at); got != c.want {
			t.Errorf("%s: expected %f, got %f", c.at, c.want, got)
		}
	}
}

func TestProjectedRent(t *testing.T) {
	// 2% escalation: year 1 is base, year 3 is base * 1.02^2
	rent := ProjectedRent(1000000, 0.02, 3)
	if math.Abs(rent-1000000*1.02*1.02) > 1e-6 {
		t.Errorf("Expected escalated rent, got %f", rent)
	}
}
