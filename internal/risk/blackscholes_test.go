package risk_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/options-risk-engine/internal/risk"
	"github.com/rzzdr/options-risk-engine/pkg/models"
)

func TestPriceGreeksKnownValues(t *testing.T) {
	// ATM quarter-year option, r=5%, sigma=20%
	call, ok := risk.PriceGreeks(100, 100, 0.25, 0.05, 0.2, models.RightCall)
	require.True(t, ok)
	assert.InDelta(t, 4.614997, call.Price, 1e-5)
	assert.InDelta(t, 0.569460, call.Delta, 1e-5)
	assert.InDelta(t, 0.039288, call.Gamma, 1e-5)
	assert.InDelta(t, 0.196440, call.Vega, 1e-5)
	assert.InDelta(t, -0.028696, call.Theta, 1e-5)

	put, ok := risk.PriceGreeks(100, 100, 0.25, 0.05, 0.2, models.RightPut)
	require.True(t, ok)
	assert.InDelta(t, 3.372777, put.Price, 1e-5)
	assert.InDelta(t, -0.430540, put.Delta, 1e-5)
	assert.InDelta(t, 0.039288, put.Gamma, 1e-5)
	assert.InDelta(t, 0.196440, put.Vega, 1e-5)
	assert.InDelta(t, -0.015168, put.Theta, 1e-5)
}

func TestPriceGreeksPutCallParity(t *testing.T) {
	S, K, T, r, sigma := 105.0, 95.0, 0.5, 0.05, 0.35

	call, ok := risk.PriceGreeks(S, K, T, r, sigma, models.RightCall)
	require.True(t, ok)
	put, ok := risk.PriceGreeks(S, K, T, r, sigma, models.RightPut)
	require.True(t, ok)

	assert.InDelta(t, S-K*math.Exp(-r*T), call.Price-put.Price, 1e-9)

	// call and put deltas differ by exactly one share
	assert.InDelta(t, 1.0, call.Delta-put.Delta, 1e-9)
	assert.InDelta(t, call.Gamma, put.Gamma, 1e-12)
	assert.InDelta(t, call.Vega, put.Vega, 1e-12)
}

func TestPriceGreeksRanges(t *testing.T) {
	for _, strike := range []float64{50, 80, 100, 120, 200} {
		call, ok := risk.PriceGreeks(100, strike, 0.3, 0.05, 0.25, models.RightCall)
		require.True(t, ok)
		assert.GreaterOrEqual(t, call.Delta, 0.0)
		assert.LessOrEqual(t, call.Delta, 1.0)
		assert.GreaterOrEqual(t, call.Gamma, 0.0)
		assert.GreaterOrEqual(t, call.Vega, 0.0)
		assert.GreaterOrEqual(t, call.Price, 0.0)

		put, ok := risk.PriceGreeks(100, strike, 0.3, 0.05, 0.25, models.RightPut)
		require.True(t, ok)
		assert.GreaterOrEqual(t, put.Delta, -1.0)
		assert.LessOrEqual(t, put.Delta, 0.0)
	}
}

func TestPriceGreeksDeepMoneyness(t *testing.T) {
	// deep ITM call behaves like stock, deep OTM like nothing
	itm, ok := risk.PriceGreeks(100, 10, 0.1, 0.05, 0.2, models.RightCall)
	require.True(t, ok)
	assert.InDelta(t, 1.0, itm.Delta, 1e-6)

	otm, ok := risk.PriceGreeks(100, 1000, 0.1, 0.05, 0.2, models.RightCall)
	require.True(t, ok)
	assert.InDelta(t, 0.0, otm.Delta, 1e-6)
}

func TestPriceGreeksUnavailable(t *testing.T) {
	tests := []struct {
		name           string
		S, K, T, sigma float64
	}{
		{"expired", 100, 100, 0, 0.2},
		{"negative time", 100, 100, -0.1, 0.2},
		{"zero vol", 100, 100, 0.25, 0},
		{"negative vol", 100, 100, 0.25, -0.5},
		{"no spot", 0, 100, 0.25, 0.2},
		{"NaN spot", math.NaN(), 100, 0.25, 0.2},
		{"no strike", 100, 0, 0.25, 0.2},
		{"negative strike", 100, -100, 0.25, 0.2},
		{"NaN strike", 100, math.NaN(), 0.25, 0.2},
		{"infinite strike", 100, math.Inf(1), 0.25, 0.2},
		{"NaN vol", 100, 100, 0.25, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := risk.PriceGreeks(tt.S, tt.K, tt.T, 0.05, tt.sigma, models.RightCall)
			assert.False(t, ok)
			assert.False(t, math.IsNaN(res.Delta))
			assert.False(t, math.IsNaN(res.Price))
		})
	}
}
