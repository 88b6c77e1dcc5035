package risk_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/options-risk-engine/internal/risk"
	"github.com/rzzdr/options-risk-engine/pkg/models"
)

func f(v float64) models.OptFloat { return models.Float64(v) }

func TestResolvePrefersQuotedIV(t *testing.T) {
	r := risk.NewResolver(0.05)

	q := &models.Quote{
		ImpliedVol: f(0.25),
		// broker bundle present but must lose to the quoted IV
		ModelGreeks: &models.GreekQuote{Delta: f(0.99)},
	}

	g, ok := r.Resolve(q, f(100), 100, 0.25, models.RightCall)
	require.True(t, ok)
	assert.Equal(t, models.SourceQuotedIV, g.Source)

	bs, bok := risk.PriceGreeks(100, 100, 0.25, 0.05, 0.25, models.RightCall)
	require.True(t, bok)
	assert.InDelta(t, bs.Delta, g.Delta, 1e-12)
	assert.InDelta(t, bs.Price, g.Price.Float, 1e-12)
	assert.Equal(t, 0.25, g.ImpliedVol.Float)
}

func TestResolveQuotedIVFromBundle(t *testing.T) {
	r := risk.NewResolver(0.05)

	// no top-level IV, but the model bundle carries one: still the first tier
	q := &models.Quote{
		ModelGreeks: &models.GreekQuote{ImpliedVol: f(0.30)},
	}

	g, ok := r.Resolve(q, f(100), 100, 0.25, models.RightCall)
	require.True(t, ok)
	assert.Equal(t, models.SourceQuotedIV, g.Source)
	assert.Equal(t, 0.30, g.ImpliedVol.Float)
}

func TestResolveBrokerBundleOrder(t *testing.T) {
	r := risk.NewResolver(0.05)

	// no IV anywhere and no spot: self-computation impossible, broker bundles win
	q := &models.Quote{
		LastGreeks: &models.GreekQuote{Delta: f(0.61), Gamma: f(0.04), UndPrice: f(101)},
		BidGreeks:  &models.GreekQuote{Delta: f(0.58)},
	}

	g, ok := r.Resolve(q, models.NoFloat(), 100, 0.25, models.RightCall)
	require.True(t, ok)
	assert.Equal(t, models.SourceBrokerLast, g.Source)
	assert.Equal(t, 0.61, g.Delta)
	assert.Equal(t, 0.04, g.Gamma)
	assert.Equal(t, 101.0, g.UndPrice.Float)
	// absent greeks in the chosen bundle default to zero
	assert.Zero(t, g.Vega)
	assert.Zero(t, g.Theta)
}

func TestResolveBundleWithoutDeltaSkipped(t *testing.T) {
	r := risk.NewResolver(0.05)

	q := &models.Quote{
		ModelGreeks: &models.GreekQuote{Gamma: f(0.05)},
		AskGreeks:   &models.GreekQuote{Delta: f(-0.4)},
	}

	g, ok := r.Resolve(q, models.NoFloat(), 100, 0.25, models.RightPut)
	require.True(t, ok)
	assert.Equal(t, models.SourceBrokerAsk, g.Source)
	assert.Equal(t, -0.4, g.Delta)
}

func TestResolveBacksolvesFromMid(t *testing.T) {
	r := risk.NewResolver(0.05)

	truth, ok := risk.PriceGreeks(100, 105, 0.4, 0.05, 0.35, models.RightCall)
	require.True(t, ok)

	q := &models.Quote{
		Bid: f(truth.Price - 0.01),
		Ask: f(truth.Price + 0.01),
	}

	g, ok := r.Resolve(q, f(100), 105, 0.4, models.RightCall)
	require.True(t, ok)
	assert.Equal(t, models.SourceBacksolvedIV, g.Source)
	assert.InDelta(t, 0.35, g.ImpliedVol.Float, 1e-3)
	assert.InDelta(t, truth.Delta, g.Delta, 1e-3)
}

func TestResolveNothingUsable(t *testing.T) {
	r := risk.NewResolver(0.05)

	_, ok := r.Resolve(&models.Quote{}, f(100), 100, 0.25, models.RightCall)
	assert.False(t, ok)

	_, ok = r.Resolve(nil, f(100), 100, 0.25, models.RightCall)
	assert.False(t, ok)

	// a price quote alone cannot help an already-expired contract
	q := &models.Quote{Bid: f(1), Ask: f(1.2)}
	_, ok = r.Resolve(q, f(100), 100, 0, models.RightCall)
	assert.False(t, ok)
}

func TestResolveMissingStrikeSkipped(t *testing.T) {
	r := risk.NewResolver(0.05)

	// a quoted IV with no strike must not price as delta-one stock
	q := &models.Quote{ImpliedVol: f(0.2)}
	_, ok := r.Resolve(q, f(100), 0, 0.25, models.RightCall)
	assert.False(t, ok)

	_, ok = r.Resolve(q, f(100), math.NaN(), 0.25, models.RightCall)
	assert.False(t, ok)
}

func TestProbITM(t *testing.T) {
	// d2 = 0.075 for these inputs
	pCall, ok := risk.ProbITM(100, 100, 0.25, 0.05, 0.2, models.RightCall)
	require.True(t, ok)
	assert.InDelta(t, 0.529893, pCall, 1e-5)

	pPut, ok := risk.ProbITM(100, 100, 0.25, 0.05, 0.2, models.RightPut)
	require.True(t, ok)
	assert.InDelta(t, 0.470107, pPut, 1e-5)
	assert.InDelta(t, 1.0, pCall+pPut, 1e-9)

	_, ok = risk.ProbITM(100, 100, 0.25, 0.05, 0, models.RightCall)
	assert.False(t, ok)
}

func TestPctMoveToITM(t *testing.T) {
	// OTM call: strike above spot, positive move required
	m, ok := risk.PctMoveToITM(100, 110, models.RightCall)
	require.True(t, ok)
	assert.InDelta(t, 10.0, m, 1e-9)

	// ITM call clamps at zero
	m, ok = risk.PctMoveToITM(100, 90, models.RightCall)
	require.True(t, ok)
	assert.Zero(t, m)

	// OTM put: strike below spot, negative move required
	m, ok = risk.PctMoveToITM(100, 90, models.RightPut)
	require.True(t, ok)
	assert.InDelta(t, -10.0, m, 1e-9)

	// ITM put clamps at zero
	m, ok = risk.PctMoveToITM(100, 110, models.RightPut)
	require.True(t, ok)
	assert.Zero(t, m)
}

func TestPctMoveToDouble(t *testing.T) {
	// quadratic solve: 0.5*gamma_c*dS^2 + |delta_c|*dS = price_c
	m, ok := risk.PctMoveToDouble(2.0, 0.5, 0.04, 100, 100, models.RightCall)
	require.True(t, ok)
	// per contract: price 200, delta 50, gamma 4
	// dS = (-50 + sqrt(2500 + 1600)) / 4 = 3.5078 on a 100 spot
	assert.InDelta(t, 3.50781, m, 1e-4)
	assert.Positive(t, m)

	// puts double on a downward move
	m, ok = risk.PctMoveToDouble(2.0, -0.5, 0.04, 100, 100, models.RightPut)
	require.True(t, ok)
	assert.InDelta(t, -3.50781, m, 1e-4)

	// gamma unusable: linear fallback price/|delta|
	m, ok = risk.PctMoveToDouble(2.0, 0.5, 0, 100, 100, models.RightCall)
	require.True(t, ok)
	assert.InDelta(t, 4.0, m, 1e-9)

	// no delta and no gamma: no estimate
	_, ok = risk.PctMoveToDouble(2.0, 0, 0, 100, 100, models.RightCall)
	assert.False(t, ok)
}
