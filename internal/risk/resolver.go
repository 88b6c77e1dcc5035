package risk

import (
	"math"

	"github.com/rzzdr/options-risk-engine/pkg/models"
	"github.com/rzzdr/options-risk-engine/pkg/utils/logger"
)

// Resolver decides which Greeks to use for an option position. Strategies are
// tried in a fixed priority order, each returning either a result or "try
// next"; self-computed Greeks from a quoted IV win over broker-supplied
// bundles because they keep price and Greeks internally consistent.
type Resolver struct {
	riskFree float64
	log      *logger.Logger
}

// NewResolver creates a resolver pricing at the given flat risk-free rate
func NewResolver(riskFree float64) *Resolver {
	if riskFree <= 0 {
		riskFree = DefaultRiskFreeRate
	}
	return &Resolver{
		riskFree: riskFree,
		log:      logger.GetLogger("risk.resolver"),
	}
}

// resolveInput carries everything one resolution attempt needs
type resolveInput struct {
	quote  *models.Quote
	spot   models.OptFloat
	strike float64
	tYears float64
	right  models.OptionRight
}

// Resolve runs the strategy chain for one option position. ok=false means the
// position has no usable Greeks this cycle and is skipped from aggregation;
// that is expected when markets are closed or the contract is illiquid.
func (r *Resolver) Resolve(q *models.Quote, spot models.OptFloat, strike, tYears float64, right models.OptionRight) (models.ResolvedGreeks, bool) {
	if q == nil {
		return models.ResolvedGreeks{}, false
	}
	in := resolveInput{quote: q, spot: spot, strike: strike, tYears: tYears, right: right}

	strategies := []func(resolveInput) (models.ResolvedGreeks, bool){
		r.fromQuotedIV,
		r.fromBrokerGreeks,
		r.fromBacksolvedIV,
	}
	for _, strategy := range strategies {
		if g, ok := strategy(in); ok {
			return g, true
		}
	}
	return models.ResolvedGreeks{}, false
}

// quotedIV returns the first positive-finite implied vol across the quote's
// own IV field and the model/last/bid/ask Greek bundles
func quotedIV(q *models.Quote) models.OptFloat {
	sources := []models.OptFloat{q.ImpliedVol}
	for _, g := range []*models.GreekQuote{q.ModelGreeks, q.LastGreeks, q.BidGreeks, q.AskGreeks} {
		if g != nil {
			sources = append(sources, g.ImpliedVol)
		}
	}
	for _, iv := range sources {
		if iv.Positive() {
			return iv
		}
	}
	return models.NoFloat()
}

// fromQuotedIV computes Greeks ourselves from a broker-quoted IV
func (r *Resolver) fromQuotedIV(in resolveInput) (models.ResolvedGreeks, bool) {
	iv := quotedIV(in.quote)
	if !iv.Positive() || !in.spot.Positive() || in.tYears <= 0 {
		return models.ResolvedGreeks{}, false
	}
	bs, ok := PriceGreeks(in.spot.Float, in.strike, in.tYears, r.riskFree, iv.Float, in.right)
	if !ok {
		return models.ResolvedGreeks{}, false
	}
	return resolvedFromBS(bs, iv.Float, in.spot.Float, models.SourceQuotedIV), true
}

// fromBrokerGreeks takes the first broker bundle with a usable delta, in
// model → last → bid → ask order
func (r *Resolver) fromBrokerGreeks(in resolveInput) (models.ResolvedGreeks, bool) {
	bundles := []struct {
		g      *models.GreekQuote
		source models.GreekSource
	}{
		{in.quote.ModelGreeks, models.SourceBrokerModel},
		{in.quote.LastGreeks, models.SourceBrokerLast},
		{in.quote.BidGreeks, models.SourceBrokerBid},
		{in.quote.AskGreeks, models.SourceBrokerAsk},
	}
	for _, b := range bundles {
		if b.g == nil || !b.g.Delta.Valid {
			continue
		}
		und := b.g.UndPrice
		if !und.Positive() {
			und = in.spot
		}
		return models.ResolvedGreeks{
			Delta:      b.g.Delta.Float,
			Gamma:      b.g.Gamma.Or(0),
			Vega:       b.g.Vega.Or(0),
			Theta:      b.g.Theta.Or(0),
			ImpliedVol: b.g.ImpliedVol,
			UndPrice:   und,
			Source:     b.source,
		}, true
	}
	return models.ResolvedGreeks{}, false
}

// fromBacksolvedIV reconstructs a mid price, backs out IV by bisection and
// prices from that
func (r *Resolver) fromBacksolvedIV(in resolveInput) (models.ResolvedGreeks, bool) {
	mid := midPrice(in.quote)
	if !mid.Positive() || !in.spot.Positive() || in.strike <= 0 || in.tYears <= 0 {
		return models.ResolvedGreeks{}, false
	}
	iv, ok := ImpliedVol(in.spot.Float, in.strike, in.tYears, r.riskFree, mid.Float, in.right)
	if !ok || iv <= 0 {
		return models.ResolvedGreeks{}, false
	}
	bs, ok := PriceGreeks(in.spot.Float, in.strike, in.tYears, r.riskFree, iv, in.right)
	if !ok {
		return models.ResolvedGreeks{}, false
	}
	r.log.Debugf("backsolved IV %.4f from mid price %.4f", iv, mid.Float)
	return resolvedFromBS(bs, iv, in.spot.Float, models.SourceBacksolvedIV), true
}

func resolvedFromBS(bs BSResult, iv, spot float64, source models.GreekSource) models.ResolvedGreeks {
	return models.ResolvedGreeks{
		Delta:      bs.Delta,
		Gamma:      bs.Gamma,
		Vega:       bs.Vega,
		Theta:      bs.Theta,
		ImpliedVol: models.Float64(iv),
		UndPrice:   models.Float64(spot),
		Price:      models.Float64(bs.Price),
		Source:     source,
	}
}

// midPrice reconstructs an option price from the quote: bid/ask mid, else
// last, else previous close
func midPrice(q *models.Quote) models.OptFloat {
	if mid := q.Mid(); mid.Positive() {
		return mid
	}
	if q.Last.Positive() {
		return q.Last
	}
	if q.Close.Positive() {
		return q.Close
	}
	return models.NoFloat()
}

// spotPrice picks a usable underlying price from a quote: last, close,
// market price, then bid/ask mid
func spotPrice(q *models.Quote) models.OptFloat {
	if q == nil {
		return models.NoFloat()
	}
	for _, v := range []models.OptFloat{q.Last, q.Close, q.MarketPrice, q.Mid()} {
		if v.Positive() {
			return v
		}
	}
	return models.NoFloat()
}

// ProbITM is the risk-neutral probability the option finishes in the money:
// Φ(d2) for calls, Φ(−d2) for puts.
func ProbITM(S, K, T, r, iv float64, right models.OptionRight) (float64, bool) {
	if !positiveFinite(S) || !positiveFinite(K) || !positiveFinite(iv) || T <= 0 {
		return 0, false
	}
	sqrtT := math.Sqrt(T)
	d1 := (math.Log(S/K) + (r+0.5*iv*iv)*T) / (iv * sqrtT)
	d2 := d1 - iv*sqrtT
	if right.IsCall() {
		return normalCDF(d2), true
	}
	return normalCDF(-d2), true
}

// PctMoveToITM is the signed percent underlying move required to reach the
// strike: clamped to ≥0 for calls and ≤0 for puts, 0 when already ITM.
func PctMoveToITM(S, K float64, right models.OptionRight) (float64, bool) {
	if !positiveFinite(S) || !positiveFinite(K) {
		return 0, false
	}
	raw := (K - S) / S * 100
	if right.IsCall() {
		return math.Max(0, raw), true
	}
	return math.Min(0, raw), true
}

// PctMoveToDouble estimates the percent underlying move needed to double the
// option value, solving 0.5·Γ·ΔS² + |Δ|·ΔS − price = 0 on per-contract
// values, with a linear fallback when gamma is unusable. The sign of the move
// follows the option side.
func PctMoveToDouble(pricePerShare, delta, gamma, multiplier, S float64, right models.OptionRight) (float64, bool) {
	if !positiveFinite(pricePerShare) || !positiveFinite(S) {
		return 0, false
	}
	priceContract := pricePerShare * multiplier
	deltaContract := delta * multiplier
	gammaContract := gamma * multiplier

	var dS float64
	switch {
	case gammaContract > 0 && priceContract > 0:
		disc := deltaContract*deltaContract + 2*gammaContract*priceContract
		dS = (-math.Abs(deltaContract) + math.Sqrt(disc)) / gammaContract
	case deltaContract != 0:
		dS = priceContract / math.Abs(deltaContract)
	default:
		return 0, false
	}
	if !right.IsCall() {
		dS = -dS
	}
	return dS / S * 100, true
}
