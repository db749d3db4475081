package leaseback

import (
	"math"
	"testing"

	"hcre_deal_engine/pkg/models"
)

func portfolioFixture() []models.FacilityMetrics {
	// Two strong SNFs and one weak ALF in a second state
	return []models.FacilityMetrics{
		{Name: "Alpha SNF", AssetType: models.AssetSNF, State: "OH", Beds: 120, Revenue: 12000000, NOI: 1200000, EBITDAR: 1900000, Occupancy: 0.88},
		{Name: "Bravo SNF", AssetType: models.AssetSNF, State: "OH", Beds: 100, Revenue: 10000000, NOI: 1000000, EBITDAR: 1600000, Occupancy: 0.86},
		{Name: "Charlie ALF", AssetType: models.AssetALF, State: "PA", Beds: 80, Revenue: 6000000, NOI: 550000, EBITDAR: 640000, Occupancy: 0.80},
	}
}

func TestPortfolioBlendedAggregates(t *testing.T) {
	terms := Terms{CapRate: 0.10, BuyerYield: 0.095}
	res, err := AnalyzePortfolio(portfolioFixture(), terms)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Prices: 12M, 10M, 5.5M = 27.5M; rent = 27.5M * 0.095 = 2.6125M
	if math.Abs(res.TotalPurchasePrice-27500000) > 1e-6 {
		t.Errorf("Expected total price 27,500,000, got %f", res.TotalPurchasePrice)
	}
	if math.Abs(res.TotalAnnualRent-2612500) > 1e-6 {
		t.Errorf("Expected total rent 2,612,500, got %f", res.TotalAnnualRent)
	}

	// Blended coverage is a true aggregate: 4,140,000 / 2,612,500 = 1.5847
	wantCoverage := 4140000.0 / 2612500.0
	if math.Abs(res.BlendedCoverage-wantCoverage) > 1e-9 {
		t.Errorf("Expected blended coverage %f, got %f", wantCoverage, res.BlendedCoverage)
	}

	// Blended cap rate: 2.75M NOI / 27.5M = 10%
	if math.Abs(res.BlendedCapRate-0.10) > 1e-9 {
		t.Errorf("Expected blended cap rate 0.10, got %f", res.BlendedCapRate)
	}

	// Not an average of ratios: per-facility coverages are 1.667, 1.684,
	// 1.225; their mean (~1.52) must differ from the blend
	mean := 0.0
	for _, f := range res.Facilities {
		mean += f.CoverageRatio
	}
	mean /= float64(len(res.Facilities))
	if math.Abs(mean-res.BlendedCoverage) < 1e-6 {
		t.Error("Blended coverage must not equal the average of ratios")
	}
}

func TestPortfolioBreakdownsAndConcentration(t *testing.T) {
	res, err := AnalyzePortfolio(portfolioFixture(), Terms{CapRate: 0.10, BuyerYield: 0.095})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(res.ByState) != 2 {
		t.Errorf("Expected 2 states, got %d", len(res.ByState))
	}
	if len(res.ByAssetType) != 2 {
		t.Errorf("Expected 2 asset classes, got %d", len(res.ByAssetType))
	}
	// Largest slice first
	if res.ByState[0].Key != "OH" {
		t.Errorf("Expected OH first by price, got %s", res.ByState[0].Key)
	}

	// Largest facility: Alpha at 12/27.5
	if res.LargestFacilityName != "Alpha SNF" {
		t.Errorf("Expected Alpha SNF as largest, got %s", res.LargestFacilityName)
	}
	if math.Abs(res.LargestFacilityShare-12.0/27.5) > 1e-9 {
		t.Errorf("Expected share %f, got %f", 12.0/27.5, res.LargestFacilityShare)
	}

	if res.DiversificationScore <= 0 || res.DiversificationScore > 100 {
		t.Errorf("Diversification score out of range: %f", res.DiversificationScore)
	}
}

func TestPortfolioAllOrNothing(t *testing.T) {
	// Charlie ALF: coverage 640,000 / 522,500 = 1.225 < 1.35 -> fails.
	// Blend passes, one failing facility -> negotiate.
	res, err := AnalyzePortfolio(portfolioFixture(), Terms{CapRate: 0.10, BuyerYield: 0.095})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if res.FailingCount != 1 {
		t.Fatalf("Expected 1 failing facility, got %d", res.FailingCount)
	}
	if res.WeakestName != "Charlie ALF" {
		t.Errorf("Expected weakest Charlie ALF, got %s", res.WeakestName)
	}
	if res.Recommendation != RecommendNegotiate {
		t.Errorf("Expected negotiate, got %s", res.Recommendation)
	}

	// Drag effect: coverage without Charlie minus blended coverage.
	// Strong-only: 3,500,000 / 2,090,000 = 1.6746; blend = 1.5847
	want := 3500000.0/2090000.0 - res.BlendedCoverage
	if math.Abs(res.DragEffect-want) > 1e-9 {
		t.Errorf("Expected drag %f, got %f", want, res.DragEffect)
	}
}

func TestPortfolioAllPassing(t *testing.T) {
	facilities := portfolioFixture()[:2]
	res, err := AnalyzePortfolio(facilities, Terms{CapRate: 0.10, BuyerYield: 0.095})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.FailingCount != 0 {
		t.Fatalf("Expected no failures, got %d", res.FailingCount)
	}
	if res.Recommendation != RecommendProceed {
		t.Errorf("Expected proceed, got %s", res.Recommendation)
	}
	if res.DragEffect != 0 {
		t.Errorf("Expected zero drag with no failures, got %f", res.DragEffect)
	}
}

func TestPortfolioMajorityFailing(t *testing.T) {
	// Price every facility so rich that rent swamps EBITDAR
	res, err := AnalyzePortfolio(portfolioFixture(), Terms{CapRate: 0.06, BuyerYield: 0.11})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.FailingCount != 3 {
		t.Fatalf("Expected all 3 failing, got %d", res.FailingCount)
	}
	if res.Recommendation != RecommendPass {
		t.Errorf("Expected pass (walk away), got %s", res.Recommendation)
	}
}

func TestPortfolioRequiresFacilities(t *testing.T) {
	if _, err := AnalyzePortfolio(nil, Terms{CapRate: 0.10, BuyerYield: 0.095}); err == nil {
		t.Error("Expected error for empty portfolio")
	}
}
