package risk

import (
	"math"

	"github.com/rzzdr/options-risk-engine/pkg/models"
)

// Implied volatility bisection bounds and tolerances
const (
	ivLowerBound = 1e-6
	ivUpperBound = 5.0
	ivTolerance  = 1e-6
	ivMaxIter    = 80
)

// ImpliedVol backs out the Black-Scholes volatility that reproduces an
// observed option price, using bisection over [1e-6, 5.0]. A target price
// outside the achievable range is clamped to the nearest bound rather than
// failing. Once the inputs validate, the solver always produces a value:
// after exhausting iterations it returns the bracket midpoint.
func ImpliedVol(S, K, T, r, price float64, right models.OptionRight) (float64, bool) {
	if !positiveFinite(S) || !positiveFinite(K) || T <= 0 || !positiveFinite(price) {
		return 0, false
	}

	lo, hi := ivLowerBound, ivUpperBound
	plo, okLo := PriceGreeks(S, K, T, r, lo, right)
	phi, okHi := PriceGreeks(S, K, T, r, hi, right)
	if !okLo || !okHi {
		return 0, false
	}
	if price <= plo.Price {
		return lo, true
	}
	if price >= phi.Price {
		return hi, true
	}

	for i := 0; i < ivMaxIter; i++ {
		mid := 0.5 * (lo + hi)
		pm, ok := PriceGreeks(S, K, T, r, mid, right)
		if !ok {
			return 0, false
		}
		if math.Abs(pm.Price-price) < ivTolerance || hi-lo < ivTolerance {
			return mid, true
		}
		if pm.Price > price {
			hi = mid
		} else {
			lo = mid
		}
	}
	return 0.5 * (lo + hi), true
}

// positiveFinite reports whether v is a finite number > 0
func positiveFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
