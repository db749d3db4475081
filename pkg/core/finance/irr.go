// Package finance provides the discounted-cash-flow primitives shared by
// every structure calculator: NPV, IRR root-finding, MIRR, payback, and
// annuity math. All functions are pure; a cash-flow series is an ordered
// slice of per-period net flows with index 0 holding the initial outlay
// (negative by convention).
package finance

import (
	"math"
)

const (
	// Newton-Raphson convergence settings. The rate is clamped each step
	// so a bad derivative cannot fling the search out of the search band.
	irrTolerance  = 1e-7
	irrMaxIters   = 1000
	irrRateFloor  = -0.99
	irrRateCeil   = 10.0
	irrFirstGuess = 0.10
)

// NetPresentValue discounts the series at the given periodic rate.
// NPV = sum( cf_i / (1+rate)^i ).
func NetPresentValue(cashFlows []float64, rate float64) float64 {
	npv := 0.0
	for i, cf := range cashFlows {
		npv += cf / math.Pow(1.0+rate, float64(i))
	}
	return npv
}

// npvDerivative is d(NPV)/d(rate), used by the Newton step.
func npvDerivative(cashFlows []float64, rate float64) float64 {
	d := 0.0
	for i, cf := range cashFlows {
		if i == 0 {
			continue
		}
		d -= float64(i) * cf / math.Pow(1.0+rate, float64(i+1))
	}
	return d
}

// InternalRateOfReturn solves NPV(rate) = 0 for the series.
//
// Strategy: Newton-Raphson from a 10% guess with the rate clamped to
// [-0.99, 10] each step. If Newton fails to converge within 1000
// iterations (flat derivative, oscillation), it falls back to bisection
// over the same band, which is guaranteed to converge for series with a
// single sign change. The function never errors: a non-convergent input
// still yields the best bounded estimate.
//
// Series shorter than 2 entries, or with no sign change, have no
// well-defined IRR and return 0.
func InternalRateOfReturn(cashFlows []float64) float64 {
	if len(cashFlows) < 2 || !hasSignChange(cashFlows) {
		return 0
	}

	// 1. Newton-Raphson
	rate := irrFirstGuess
	for i := 0; i < irrMaxIters; i++ {
		npv := NetPresentValue(cashFlows, rate)
		if math.Abs(npv) < irrTolerance {
			return rate
		}
		deriv := npvDerivative(cashFlows, rate)
		if deriv == 0 || math.IsNaN(deriv) || math.IsInf(deriv, 0) {
			break
		}
		rate -= npv / deriv
		rate = clampRate(rate)
	}

	// 2. Bisection fallback
	return bisectIRR(cashFlows)
}

// bisectIRR halves the [-0.99, 10] band on the sign of NPV. Always
// returns a bounded estimate even when the tolerance is not met.
func bisectIRR(cashFlows []float64) float64 {
	lo, hi := irrRateFloor, irrRateCeil
	npvLo := NetPresentValue(cashFlows, lo)

	mid := (lo + hi) / 2.0
	for i := 0; i < irrMaxIters; i++ {
		mid = (lo + hi) / 2.0
		npvMid := NetPresentValue(cashFlows, mid)
		if math.Abs(npvMid) < irrTolerance || (hi-lo)/2.0 < irrTolerance {
			return mid
		}
		if (npvLo < 0) == (npvMid < 0) {
			lo = mid
			npvLo = npvMid
		} else {
			hi = mid
		}
	}
	return mid
}

// ModifiedIRR separates financing of outflows from reinvestment of
// inflows: PV of negatives at financeRate, FV of positives at
// reinvestRate. Returns 0 for degenerate input (no net outflow).
func ModifiedIRR(cashFlows []float64, financeRate, reinvestRate float64) float64 {
	n := len(cashFlows)
	if n < 2 {
		return 0
	}

	pvOut := 0.0
	fvIn := 0.0
	for i, cf := range cashFlows {
		if cf < 0 {
			pvOut += cf / math.Pow(1.0+financeRate, float64(i))
		} else {
			fvIn += cf * math.Pow(1.0+reinvestRate, float64(n-1-i))
		}
	}

	if pvOut >= 0 || fvIn <= 0 {
		return 0
	}

	return math.Pow(fvIn/(-pvOut), 1.0/float64(n-1)) - 1.0
}

// PaybackPeriod returns the number of periods until cumulative cash flow
// turns non-negative, interpolating linearly inside the crossing period.
// A series that never recovers its outlay returns len(cashFlows) as the
// "did not pay back" sentinel.
func PaybackPeriod(cashFlows []float64) float64 {
	if len(cashFlows) == 0 {
		return 0
	}

	cumulative := 0.0
	for i, cf := range cashFlows {
		prev := cumulative
		cumulative += cf
		if cumulative >= 0 && i > 0 {
			if cf == 0 {
				return float64(i)
			}
			// Fraction of the period needed to cover the remaining deficit
			return float64(i-1) + (-prev)/cf
		}
	}
	return float64(len(cashFlows))
}

func hasSignChange(cashFlows []float64) bool {
	hasNeg, hasPos := false, false
	for _, cf := range cashFlows {
		if cf < 0 {
			hasNeg = true
		} else if cf > 0 {
			hasPos = true
		}
	}
	return hasNeg && hasPos
}

func clampRate(r float64) float64 {
	if r < irrRateFloor {
		return irrRateFloor
	}
	if r > irrRateCeil {
		return irrRateCeil
	}
	return r
}
