// Package waterfall implements multi-tier equity distribution for JV and
// partnership structures: preferred return accrual, return of capital,
// and promote splits folded over a series of distribution periods.
package waterfall

import "hcre_deal_engine/pkg/models"

// ThresholdType selects how a tier's hurdle is measured.
type ThresholdType string

const (
	ThresholdMultiple ThresholdType = "multiple"
	ThresholdIRR      ThresholdType = "irr"
)

// Tier is one rung of the waterfall, evaluated in declared order. A tier
// consumes distributable cash until its threshold is satisfied before the
// next tier activates.
//
// IRR-threshold tiers distribute all remaining cash in the tier rather
// than solving for the exact crossing point; exact IRR-gated sizing is a
// documented simplification carried over from the underwriting model.
type Tier struct {
	Threshold     float64       `json:"threshold"`
	ThresholdType ThresholdType `json:"threshold_type"`
	LPShare       float64       `json:"lp_share"`
	GPShare       float64       `json:"gp_share"`
	IsCatchUp     bool          `json:"is_catch_up"`
}

// PartnerType distinguishes capital partners from the sponsor.
type PartnerType string

const (
	PartnerLP PartnerType = "LP"
	PartnerGP PartnerType = "GP"
)

// Partner is one participant's static position. Mutable tracking state
// (capital balance, accrued preferred, cumulative distributions) lives in
// the per-run accumulator, never here.
type Partner struct {
	Name               string      `json:"name"`
	Type               PartnerType `json:"type"`
	CapitalCommitment  float64     `json:"capital_commitment"`
	CapitalContributed float64     `json:"capital_contributed"`
	OwnershipPercent   float64     `json:"ownership_percent"`
}

// Input is one full waterfall run.
type Input struct {
	Partners        []Partner `json:"partners"`
	Tiers           []Tier    `json:"tiers"`
	PreferredReturn float64   `json:"preferred_return"` // periodic rate on LP capital
	Periods         []float64 `json:"periods"`          // distributable cash per period
}

// TierDistribution is one tier's slice of one period.
type TierDistribution struct {
	TierIndex int     `json:"tier_index"`
	Amount    float64 `json:"amount"`
	LPAmount  float64 `json:"lp_amount"`
	GPAmount  float64 `json:"gp_amount"`
}

// PeriodResult records how one period's cash moved through the tiers.
type PeriodResult struct {
	Period            int                `json:"period"`
	DistributableCash float64            `json:"distributable_cash"`
	LPTotal           float64            `json:"lp_total"`
	GPTotal           float64            `json:"gp_total"`
	Undistributed     float64            `json:"undistributed"`
	Tiers             []TierDistribution `json:"tiers"`
}

// PartnerResult is one partner's final accounting, with returns derived
// from their individual cash-flow vector (contribution outflow followed
// by periodic inflows).
type PartnerResult struct {
	Name string      `json:"name"`
	Type PartnerType `json:"type"`

	Contributed        float64 `json:"contributed"`
	PreferredPaid      float64 `json:"preferred_paid"`
	CapitalReturned    float64 `json:"capital_returned"`
	ProfitPaid         float64 `json:"profit_paid"`
	TotalDistributions float64 `json:"total_distributions"`

	RemainingCapital float64 `json:"remaining_capital"`
	AccruedPreferred float64 `json:"accrued_preferred"` // unpaid at end

	IRR            float64   `json:"irr"`
	EquityMultiple float64   `json:"equity_multiple"`
	CashFlows      []float64 `json:"cash_flows"`
}

// Result is the full waterfall output.
type Result struct {
	Partners []PartnerResult `json:"partners"`
	Periods  []PeriodResult  `json:"periods"`

	TotalDistributed float64 `json:"total_distributed"`
	TotalLP          float64 `json:"total_lp"`
	TotalGP          float64 `json:"total_gp"`
	Undistributed    float64 `json:"undistributed"`
}

func validate(in Input) error {
	if len(in.Partners) == 0 {
		return models.InvalidParameterf("waterfall requires at least one partner")
	}
	if len(in.Tiers) == 0 {
		return models.InvalidParameterf("waterfall requires at least one tier")
	}
	for i, tier := range in.Tiers {
		sum := tier.LPShare + tier.GPShare
		if sum < 0.999999 || sum > 1.000001 {
			return models.InvalidParameterf("tier %d shares must sum to 1.0, got %.6f", i, sum)
		}
		if tier.ThresholdType != ThresholdMultiple && tier.ThresholdType != ThresholdIRR {
			return models.InvalidParameterf("tier %d has unknown threshold type %q", i, tier.ThresholdType)
		}
	}
	hasLP := false
	for _, p := range in.Partners {
		if p.Type == PartnerLP && p.CapitalContributed > 0 {
			hasLP = true
		}
	}
	if !hasLP {
		return models.InvalidParameterf("waterfall requires at least one funded LP")
	}
	return nil
}
