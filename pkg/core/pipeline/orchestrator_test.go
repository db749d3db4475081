package pipeline

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"hcre_deal_engine/pkg/core/buyout"
	"hcre_deal_engine/pkg/core/comparison"
	"hcre_deal_engine/pkg/core/intake"
	"hcre_deal_engine/pkg/core/proforma"
	"hcre_deal_engine/pkg/models"
)

func singleFacilityDeal() *intake.DealFile {
	return &intake.DealFile{
		ID:   "deal-1",
		Name: "Maple Grove Acquisition",
		Facilities: []models.FacilityMetrics{
			{
				Name: "Maple Grove SNF", AssetType: models.AssetSNF, State: "OH",
				Beds: 120, Occupancy: 0.88,
				Revenue: 12_000_000, Expenses: 10_600_000,
				NOI: 1_000_000, EBITDAR: 1_400_000, CurrentRent: 900_000,
			},
		},
	}
}

func TestRunSingleFacility(t *testing.T) {
	o := NewOrchestrator(nil, nil, zerolog.Nop())

	res, err := o.Run(context.Background(), singleFacilityDeal())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Facilities) != 1 {
		t.Fatalf("facilities = %d, want 1", len(res.Facilities))
	}
	// NOI $1M at the house 12.5% cap
	if res.Facilities[0].PurchasePrice != 8_000_000 {
		t.Errorf("purchase price = %.0f, want 8,000,000", res.Facilities[0].PurchasePrice)
	}
	if res.Portfolio != nil {
		t.Error("portfolio result for a single facility")
	}
	if res.Comparison == nil || res.Comparison.Recommended == "" {
		t.Fatal("comparison missing or unrecommended")
	}
	if res.Exit == nil || len(res.Exit.Scenarios) != 3 {
		t.Fatal("exit scenarios missing")
	}
	if res.Waterfall != nil {
		t.Error("waterfall produced with no partners")
	}
}

func TestRunPortfolioWithPartners(t *testing.T) {
	deal := &intake.DealFile{
		ID:   "deal-2",
		Name: "Two-State Portfolio",
		Facilities: []models.FacilityMetrics{
			{Name: "A", AssetType: models.AssetSNF, State: "OH", Beds: 100, Occupancy: 0.90,
				Revenue: 10_000_000, Expenses: 8_800_000, NOI: 900_000, EBITDAR: 1_200_000},
			{Name: "B", AssetType: models.AssetALF, State: "PA", Beds: 80, Occupancy: 0.85,
				Revenue: 6_000_000, Expenses: 5_200_000, NOI: 600_000, EBITDAR: 800_000},
		},
		Partners: []intake.PartnerSpec{
			{Name: "Fund I", Type: "LP", Contribution: 2_000_000, OwnershipShare: 0.90},
			{Name: "Sponsor", Type: "GP", Contribution: 0, OwnershipShare: 0.10},
		},
	}

	o := NewOrchestrator(nil, nil, zerolog.Nop())
	res, err := o.Run(context.Background(), deal)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Portfolio == nil {
		t.Fatal("portfolio result missing")
	}
	if res.Portfolio.TotalPurchasePrice <= 0 {
		t.Errorf("portfolio price = %.0f", res.Portfolio.TotalPurchasePrice)
	}
	if res.Waterfall == nil {
		t.Fatal("waterfall missing despite partners")
	}
	if len(res.Waterfall.Partners) != 2 {
		t.Errorf("waterfall partners = %d, want 2", len(res.Waterfall.Partners))
	}
}

func TestRunRespectsStructureSubset(t *testing.T) {
	deal := singleFacilityDeal()
	deal.Structures = []string{string(comparison.StructureCash)}

	o := NewOrchestrator(nil, nil, zerolog.Nop())
	res, err := o.Run(context.Background(), deal)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Comparison.Analyses) != 1 || res.Comparison.Analyses[0].Structure != comparison.StructureCash {
		t.Fatalf("analyses = %+v, want cash only", res.Comparison.Analyses)
	}
	// No conventional structure, no exit scenarios.
	if res.Exit != nil {
		t.Error("exit produced without a conventional structure")
	}
}

func TestRunOptionalModules(t *testing.T) {
	deal := singleFacilityDeal()
	deal.ProForma = &proforma.Assumptions{
		Years:               5,
		TargetOccupancy:     0.92,
		OccupancyRampAnnual: 0.02,
		BaseRevenueGrowth:   0.02,
		WageInflation:       0.03,
		ManagementFeePct:    0.05,
		AnnualRent:          900_000,
		RentEscalation:      0.02,
	}
	deal.Buyout = &buyout.Terms{
		BuyoutAmount: 1_500_000,
		Basis:        buyout.AllocateByRent,
		AnnualRate:   0.08,
		TermYears:    10,
	}
	deal.Facilities[0].RemainingLeaseYears = 12

	o := NewOrchestrator(nil, nil, zerolog.Nop())
	res, err := o.Run(context.Background(), deal)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ProForma == nil || len(res.ProForma.Years) != 5 {
		t.Fatal("pro forma missing")
	}
	if res.Buyout == nil || res.Buyout.NewTotalRent <= res.Buyout.BaseRent {
		t.Fatal("buyout missing or rent did not increase")
	}
}

func TestAggregateMetrics(t *testing.T) {
	agg := aggregateMetrics("P", []models.FacilityMetrics{
		{Name: "A", Beds: 100, Occupancy: 0.90, NOI: 900_000, EBITDAR: 1_200_000},
		{Name: "B", Beds: 50, Occupancy: 0.60, NOI: 300_000, EBITDAR: 400_000},
	})
	if agg.NOI != 1_200_000 || agg.EBITDAR != 1_600_000 || agg.Beds != 150 {
		t.Errorf("aggregate = %+v", agg)
	}
	// (0.90*100 + 0.60*50) / 150 = 0.80
	if agg.Occupancy != 0.80 {
		t.Errorf("weighted occupancy = %.4f, want 0.80", agg.Occupancy)
	}
}
