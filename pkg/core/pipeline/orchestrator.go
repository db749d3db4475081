// Package pipeline runs the end-to-end analysis for a parsed deal:
// per-facility leaseback underwriting, portfolio aggregation, structure
// comparison, exit scenarios, and the equity waterfall when the deal
// names partners.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"hcre_deal_engine/pkg/core/assumption"
	"hcre_deal_engine/pkg/core/buyout"
	"hcre_deal_engine/pkg/core/comparison"
	"hcre_deal_engine/pkg/core/exit"
	"hcre_deal_engine/pkg/core/intake"
	"hcre_deal_engine/pkg/core/leaseback"
	"hcre_deal_engine/pkg/core/proforma"
	"hcre_deal_engine/pkg/core/waterfall"
	"hcre_deal_engine/pkg/models"
)

// Promote terms applied when a deal names partners but no tiers.
const (
	defaultPreferredReturn = 0.08
	defaultPromoteLPShare  = 0.80
	defaultPromoteGPShare  = 0.20
)

// DealAnalysis bundles every result the engine produces for one deal.
type DealAnalysis struct {
	DealID   string `json:"deal_id"`
	DealName string `json:"deal_name"`

	Facilities []leaseback.Result         `json:"facilities"`
	Portfolio  *leaseback.PortfolioResult `json:"portfolio,omitempty"`
	Comparison *comparison.Result         `json:"comparison"`
	Exit       *exit.Comparison           `json:"exit,omitempty"`
	Waterfall  *waterfall.Result          `json:"waterfall,omitempty"`
	ProForma   *proforma.Result           `json:"pro_forma,omitempty"`
	Buyout     *buyout.Result             `json:"buyout,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Repository is the persistence surface the orchestrator needs.
type Repository interface {
	Save(ctx context.Context, deal *intake.DealFile, analysis interface{}) error
}

// Orchestrator manages the analysis flow for parsed deals.
type Orchestrator struct {
	book   *assumption.Book
	repo   Repository // nil disables persistence
	logger zerolog.Logger
}

// NewOrchestrator creates an orchestrator. A nil book falls back to the
// house defaults; a nil repo skips persistence.
func NewOrchestrator(book *assumption.Book, repo Repository, logger zerolog.Logger) *Orchestrator {
	if book == nil {
		book = assumption.Default()
	}
	return &Orchestrator{book: book, repo: repo, logger: logger}
}

// Run analyzes one deal end to end and persists the result when a
// repository is configured.
func (o *Orchestrator) Run(ctx context.Context, deal *intake.DealFile) (*DealAnalysis, error) {
	start := time.Now()
	o.logger.Info().Str("deal_id", deal.ID).Str("deal", deal.Name).
		Int("facilities", len(deal.Facilities)).Msg("analysis started")

	params := deal.Parameters
	o.applyDefaults(&params, deal.Facilities)

	result := &DealAnalysis{
		DealID:      deal.ID,
		DealName:    deal.Name,
		GeneratedAt: start,
	}

	// 1. Per-facility leaseback underwriting
	for _, f := range deal.Facilities {
		lb, err := leaseback.Analyze(f, leasebackTerms(params))
		if err != nil {
			return nil, fmt.Errorf("facility %s: %w", f.Name, err)
		}
		result.Facilities = append(result.Facilities, *lb)
	}

	// 2. Portfolio aggregation for multi-facility deals
	if len(deal.Facilities) > 1 {
		pf, err := leaseback.AnalyzePortfolio(deal.Facilities, leasebackTerms(params))
		if err != nil {
			return nil, fmt.Errorf("portfolio: %w", err)
		}
		result.Portfolio = pf
	}

	// 3. Structure comparison on the aggregate facility
	aggregate := aggregateMetrics(deal.Name, deal.Facilities)
	cmp, err := comparison.Compare(comparison.Input{
		Metrics:           aggregate,
		Params:            params,
		Structures:        structureTypes(deal.Structures),
		REITYieldDiscount: o.book.REITYieldDiscount,
	})
	if err != nil {
		return nil, fmt.Errorf("comparison: %w", err)
	}
	result.Comparison = cmp

	// 4. Exit scenarios off the conventional structure when it was run
	if conv := findConventional(cmp); conv != nil {
		ex, err := exit.Analyze(exitInputs(aggregate, params, conv))
		if err != nil {
			return nil, fmt.Errorf("exit: %w", err)
		}
		result.Exit = ex
	}

	// 5. Operator pro forma when the deal supplies ramp assumptions
	if deal.ProForma != nil {
		pf, err := proforma.Generate(aggregate, *deal.ProForma)
		if err != nil {
			return nil, fmt.Errorf("pro forma: %w", err)
		}
		result.ProForma = pf
	}

	// 6. Lease buyout proposal when the deal includes one
	if deal.Buyout != nil {
		bo, err := buyout.Analyze(deal.Facilities, *deal.Buyout)
		if err != nil {
			return nil, fmt.Errorf("buyout: %w", err)
		}
		result.Buyout = bo
	}

	// 7. Waterfall when the deal names partners
	if len(deal.Partners) > 0 {
		wf, err := waterfall.Distribute(o.waterfallInput(deal, cmp))
		if err != nil {
			return nil, fmt.Errorf("waterfall: %w", err)
		}
		result.Waterfall = wf
	}

	if o.repo != nil {
		if err := o.repo.Save(ctx, deal, result); err != nil {
			// Persistence is best effort; the analysis itself succeeded.
			o.logger.Warn().Err(err).Str("deal_id", deal.ID).Msg("failed to persist analysis")
		}
	}

	o.logger.Info().Str("deal_id", deal.ID).
		Str("recommended", string(cmp.Recommended)).
		Dur("elapsed", time.Since(start)).Msg("analysis complete")
	return result, nil
}

// applyDefaults layers the book under the deal's parameters. For mixed
// portfolios the coverage and DSCR floors stay per-asset-type, so the
// book only fills them on single-facility deals.
func (o *Orchestrator) applyDefaults(params *models.DealParameters, facilities []models.FacilityMetrics) {
	coverage, dscr := params.MinimumCoverage, params.MinimumDSCR
	assetType := models.AssetSNF
	if len(facilities) > 0 {
		assetType = facilities[0].AssetType
	}
	o.book.Apply(params, assetType)
	if len(facilities) > 1 {
		params.MinimumCoverage = coverage
		params.MinimumDSCR = dscr
	}
}

func leasebackTerms(params models.DealParameters) leaseback.Terms {
	return leaseback.Terms{
		CapRate:         params.CapRate,
		BuyerYield:      params.BuyerYield,
		MinimumCoverage: params.MinimumCoverage,
		LeaseTermYears:  params.LeaseTermYears,
		RentEscalation:  params.RentEscalation,
	}
}

// aggregateMetrics sums the facilities into one portfolio-level set of
// metrics. Occupancy is bed-weighted; lease context sums across the
// leased facilities.
func aggregateMetrics(name string, facilities []models.FacilityMetrics) models.FacilityMetrics {
	if len(facilities) == 1 {
		return facilities[0]
	}

	agg := models.FacilityMetrics{Name: name, AssetType: facilities[0].AssetType}
	weightedOcc := 0.0
	for _, f := range facilities {
		agg.Beds += f.Beds
		agg.Revenue += f.Revenue
		agg.Expenses += f.Expenses
		agg.NOI += f.NOI
		agg.EBITDAR += f.EBITDAR
		agg.CurrentRent += f.CurrentRent
		weightedOcc += f.Occupancy * float64(f.Beds)
	}
	if agg.Beds > 0 {
		agg.Occupancy = weightedOcc / float64(agg.Beds)
	}
	return agg
}

func structureTypes(names []string) []comparison.StructureType {
	out := make([]comparison.StructureType, 0, len(names))
	for _, n := range names {
		out = append(out, comparison.StructureType(n))
	}
	return out
}

func findConventional(cmp *comparison.Result) *comparison.StructureAnalysis {
	for i := range cmp.Analyses {
		if cmp.Analyses[i].Structure == comparison.StructureConventional {
			return &cmp.Analyses[i]
		}
	}
	return nil
}

func exitInputs(m models.FacilityMetrics, params models.DealParameters, conv *comparison.StructureAnalysis) exit.Inputs {
	fin := conv.Detail.Conventional
	return exit.Inputs{
		InitialEquity:      fin.Equity,
		CurrentNOI:         m.NOI,
		CurrentLoanBalance: fin.LoanAmount,
		LoanRate:           params.InterestRate,
		AnnualDebtService:  fin.AnnualDebtService,
		ExitYear:           params.HoldingPeriodYears,
		ExitCapRate:        params.ExitCapRate,
		SellingCostPct:     params.SellingCostPct,
		RefiLTV:            params.LTV,
		RefiRate:           params.InterestRate,
		RefiAmortYears:     params.AmortizationYears,
	}
}

// waterfallInput maps the deal's partners onto the recommended
// structure's cash flows with the house promote: capital back first,
// then profit split 80/20 over an 8% preferred return.
func (o *Orchestrator) waterfallInput(deal *intake.DealFile, cmp *comparison.Result) waterfall.Input {
	partners := make([]waterfall.Partner, 0, len(deal.Partners))
	for _, p := range deal.Partners {
		partners = append(partners, waterfall.Partner{
			Name:               p.Name,
			Type:               waterfall.PartnerType(p.Type),
			CapitalCommitment:  p.Contribution,
			CapitalContributed: p.Contribution,
			OwnershipPercent:   p.OwnershipShare,
		})
	}

	var recommended *comparison.StructureAnalysis
	for i := range cmp.Analyses {
		if cmp.Analyses[i].Structure == cmp.Recommended {
			recommended = &cmp.Analyses[i]
		}
	}

	var periods []float64
	if recommended != nil {
		for _, cf := range recommended.CashFlows[1:] {
			if cf > 0 {
				periods = append(periods, cf)
			} else {
				periods = append(periods, 0)
			}
		}
	}

	return waterfall.Input{
		Partners:        partners,
		PreferredReturn: defaultPreferredReturn,
		Periods:         periods,
		Tiers: []waterfall.Tier{
			{Threshold: 1.0, ThresholdType: waterfall.ThresholdMultiple, LPShare: 1.0},
			{Threshold: defaultPreferredReturn, ThresholdType: waterfall.ThresholdIRR,
				LPShare: defaultPromoteLPShare, GPShare: defaultPromoteGPShare},
		},
	}
}
