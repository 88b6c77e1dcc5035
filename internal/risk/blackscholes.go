package risk

import (
	"math"

	"github.com/rzzdr/options-risk-engine/pkg/models"
)

// DefaultRiskFreeRate is the flat annual rate used when pricing. The engine
// deliberately does not fetch live rates.
const DefaultRiskFreeRate = 0.05

// BSResult holds the full output of one Black-Scholes evaluation.
// Delta/gamma/vega/theta are per share of the underlying; vega is expressed
// per one full volatility point and theta per calendar day, matching broker
// convention.
type BSResult struct {
	Price float64
	Delta float64
	Gamma float64
	Vega  float64
	Theta float64
	D1    float64
	D2    float64
}

// PriceGreeks prices a European option and computes its Greeks. It returns
// ok=false when the inputs cannot produce a result (expired, zero vol,
// missing spot or strike); callers fall through to the next resolution tier
// rather than treating that as an error.
func PriceGreeks(S, K, T, r, sigma float64, right models.OptionRight) (BSResult, bool) {
	if !positiveFinite(T) || !positiveFinite(sigma) || !positiveFinite(S) || !positiveFinite(K) {
		return BSResult{}, false
	}

	sqrtT := math.Sqrt(T)
	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT
	discK := K * math.Exp(-r*T)

	res := BSResult{D1: d1, D2: d2}
	if right.IsCall() {
		res.Delta = normalCDF(d1)
		res.Price = S*normalCDF(d1) - discK*normalCDF(d2)
		res.Theta = -S*normalPDF(d1)*sigma/(2*sqrtT) - r*discK*normalCDF(d2)
	} else {
		res.Delta = -normalCDF(-d1)
		res.Price = discK*normalCDF(-d2) - S*normalCDF(-d1)
		res.Theta = -S*normalPDF(d1)*sigma/(2*sqrtT) + r*discK*normalCDF(-d2)
	}

	res.Gamma = normalPDF(d1) / (S * sigma * sqrtT)
	res.Vega = S * normalPDF(d1) * sqrtT / 100
	res.Theta /= 365

	return res, true
}

// normalCDF is the standard normal cumulative distribution function
func normalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// normalPDF is the standard normal probability density function
func normalPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}
