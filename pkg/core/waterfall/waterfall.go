package waterfall

import (
	"hcre_deal_engine/pkg/core/finance"
)

// partnerState is one partner's tracking balance inside the fold. It is
// copied, never shared, so every period's accumulator is independently
// auditable.
type partnerState struct {
	capitalOutstanding float64
	accruedPreferred   float64

	preferredPaid   float64
	capitalReturned float64
	profitPaid      float64
}

// accumulator is the fold state threaded through the periods. step()
// returns a fresh value; the engine never mutates a prior period's state.
type accumulator struct {
	partners         []partnerState
	totalDistributed float64
	periodFlows      [][]float64 // [period][partner] inflow
	periods          []PeriodResult
}

// Distribute runs the full waterfall over every period and derives the
// per-partner return metrics.
func Distribute(in Input) (*Result, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	acc := accumulator{partners: make([]partnerState, len(in.Partners))}
	for i, p := range in.Partners {
		acc.partners[i] = partnerState{capitalOutstanding: p.CapitalContributed}
	}

	for periodIdx, cash := range in.Periods {
		acc = step(acc, in, periodIdx, cash)
	}

	return assemble(acc, in), nil
}

// step processes one period: accrue preferred, walk the tiers in order,
// and return the successor accumulator.
func step(prev accumulator, in Input, periodIdx int, cash float64) accumulator {
	acc := clone(prev)

	// 1. Preferred accrual: simple periodic accrual on each LP's
	// outstanding capital, not compounded within the period.
	for i, p := range in.Partners {
		if p.Type == PartnerLP {
			acc.partners[i].accruedPreferred += acc.partners[i].capitalOutstanding * in.PreferredReturn
		}
	}

	totalCapital := 0.0
	for _, p := range in.Partners {
		totalCapital += p.CapitalContributed
	}

	period := PeriodResult{Period: periodIdx + 1, DistributableCash: cash}
	flows := make([]float64, len(in.Partners))
	remaining := cash

	// 2. Walk the tiers. A multiple tier absorbs cash until cumulative
	// distributions reach threshold x total capital; an IRR tier takes
	// everything left (documented simplification).
	for tierIdx, tier := range in.Tiers {
		if remaining <= 0 {
			break
		}

		amount := remaining
		if tier.ThresholdType == ThresholdMultiple {
			capacity := tier.Threshold*totalCapital - acc.totalDistributed
			if capacity <= 0 {
				continue
			}
			if amount > capacity {
				amount = capacity
			}
		}

		lpAmount := amount * tier.LPShare
		gpAmount := amount * tier.GPShare

		allocateLP(&acc, in, lpAmount, flows)
		allocateGP(&acc, in, gpAmount, flows)

		acc.totalDistributed += amount
		remaining -= amount
		period.LPTotal += lpAmount
		period.GPTotal += gpAmount
		period.Tiers = append(period.Tiers, TierDistribution{
			TierIndex: tierIdx,
			Amount:    amount,
			LPAmount:  lpAmount,
			GPAmount:  gpAmount,
		})
	}

	period.Undistributed = remaining
	acc.periods = append(acc.periods, period)
	acc.periodFlows = append(acc.periodFlows, flows)
	return acc
}

// allocateLP splits the LP amount pro-rata by ownership and applies each
// LP's slice in strict order: outstanding preferred, then return of
// capital, then profit.
func allocateLP(acc *accumulator, in Input, amount float64, flows []float64) {
	if amount <= 0 {
		return
	}

	totalOwnership := 0.0
	for _, p := range in.Partners {
		if p.Type == PartnerLP {
			totalOwnership += p.OwnershipPercent
		}
	}
	if totalOwnership == 0 {
		return
	}

	for i, p := range in.Partners {
		if p.Type != PartnerLP {
			continue
		}
		slice := amount * p.OwnershipPercent / totalOwnership
		st := &acc.partners[i]

		pref := min(slice, st.accruedPreferred)
		st.accruedPreferred -= pref
		st.preferredPaid += pref
		slice -= pref

		roc := min(slice, st.capitalOutstanding)
		st.capitalOutstanding -= roc
		st.capitalReturned += roc
		slice -= roc

		st.profitPaid += slice

		flows[i] += pref + roc + slice
	}
}

// allocateGP books the GP amount as promote/profit, split pro-rata when
// more than one GP participates.
func allocateGP(acc *accumulator, in Input, amount float64, flows []float64) {
	if amount <= 0 {
		return
	}

	totalOwnership := 0.0
	gpCount := 0
	for _, p := range in.Partners {
		if p.Type == PartnerGP {
			totalOwnership += p.OwnershipPercent
			gpCount++
		}
	}
	if gpCount == 0 {
		return
	}

	for i, p := range in.Partners {
		if p.Type != PartnerGP {
			continue
		}
		share := 1.0 / float64(gpCount)
		if totalOwnership > 0 {
			share = p.OwnershipPercent / totalOwnership
		}
		slice := amount * share
		acc.partners[i].profitPaid += slice
		flows[i] += slice
	}
}

// assemble derives the final per-partner accounting and return metrics
// from each partner's own cash-flow vector.
func assemble(acc accumulator, in Input) *Result {
	res := &Result{}

	for i, p := range in.Partners {
		st := acc.partners[i]

		cashFlows := make([]float64, len(in.Periods)+1)
		cashFlows[0] = -p.CapitalContributed
		total := 0.0
		for periodIdx := range in.Periods {
			inflow := acc.periodFlows[periodIdx][i]
			cashFlows[periodIdx+1] = inflow
			total += inflow
		}

		pr := PartnerResult{
			Name:               p.Name,
			Type:               p.Type,
			Contributed:        p.CapitalContributed,
			PreferredPaid:      st.preferredPaid,
			CapitalReturned:    st.capitalReturned,
			ProfitPaid:         st.profitPaid,
			TotalDistributions: total,
			RemainingCapital:   st.capitalOutstanding,
			AccruedPreferred:   st.accruedPreferred,
			IRR:                finance.InternalRateOfReturn(cashFlows),
			EquityMultiple:     finance.SafeRatio(total, p.CapitalContributed),
			CashFlows:          cashFlows,
		}
		res.Partners = append(res.Partners, pr)

		if p.Type == PartnerLP {
			res.TotalLP += total
		} else {
			res.TotalGP += total
		}
	}

	res.Periods = acc.periods
	res.TotalDistributed = acc.totalDistributed
	for _, period := range acc.periods {
		res.Undistributed += period.Undistributed
	}
	return res
}

func clone(acc accumulator) accumulator {
	next := acc
	next.partners = append([]partnerState(nil), acc.partners...)
	return next
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
