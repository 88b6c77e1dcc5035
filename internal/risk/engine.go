package risk

import (
	"time"

	"github.com/rzzdr/options-risk-engine/pkg/models"
	"github.com/rzzdr/options-risk-engine/pkg/utils/logger"
)

// DefaultExpiryGraceWindow keeps just-expired options in the snapshot for a
// while so the upstream feed has time to zero out their quantities.
const DefaultExpiryGraceWindow = 2 * time.Hour

// EngineConfig configures one computation engine
type EngineConfig struct {
	RiskFreeRate      float64
	ExpiryGraceWindow time.Duration
	Analyzer          AnalyzerConfig
}

// Engine turns one position/quote snapshot into exposures and a risk
// assessment. It is stateless across cycles: every call to Cycle is a pure
// function of the snapshot and the beta-override mapping passed in.
type Engine struct {
	cfg      EngineConfig
	resolver *Resolver
	analyzer *Analyzer
	log      *logger.Logger
}

// NewEngine creates an engine with the given configuration
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.RiskFreeRate <= 0 {
		cfg.RiskFreeRate = DefaultRiskFreeRate
	}
	if cfg.ExpiryGraceWindow <= 0 {
		cfg.ExpiryGraceWindow = DefaultExpiryGraceWindow
	}
	return &Engine{
		cfg:      cfg,
		resolver: NewResolver(cfg.RiskFreeRate),
		analyzer: NewAnalyzer(cfg.Analyzer),
		log:      logger.GetLogger("risk.engine"),
	}
}

// Cycle computes per-position exposures, per-underlying and portfolio
// aggregates and the risk summary for one snapshot. Individual positions
// without usable data are skipped; the cycle itself never fails.
func (e *Engine) Cycle(snap *models.Snapshot, betaOverrides map[string]float64) *models.CycleResult {
	now := snap.Time
	if now.IsZero() {
		now = time.Now().UTC()
	}

	res := &models.CycleResult{
		Timestamp:   now,
		Account:     snap.Account,
		Underlyings: make(map[string]*models.ExposureBucket),
	}

	bucket := func(symbol string) *models.ExposureBucket {
		b, ok := res.Underlyings[symbol]
		if !ok {
			b = &models.ExposureBucket{}
			res.Underlyings[symbol] = b
		}
		return b
	}

	var cashTotal float64
	haveCash := false

	for i := range snap.Positions {
		pos := &snap.Positions[i]
		if pos.Quantity == 0 {
			continue
		}

		if pos.SecType.IsOption() {
			rec, ok := e.optionPosition(snap, pos, now)
			if !ok {
				res.SkippedOptions++
				continue
			}
			b := bucket(pos.Symbol)
			b.DeltaShares += rec.Delta
			b.DeltaDollars += rec.DeltaDollars
			b.Gamma1PctDelta += rec.gamma1PctDelta
			b.GammaDollar1Pct += rec.gammaDollar1Pct
			b.VegaDollar1VolPt += rec.Vega
			b.ThetaDollarDay += rec.Theta
			b.Spot = rec.Spot.Or(0)
			res.Options = append(res.Options, rec.OptionRecord)
			continue
		}

		rec := e.stockPosition(snap, pos)
		if rec.DeltaShares.Valid {
			b := bucket(pos.Symbol)
			b.DeltaShares += rec.DeltaShares.Float
			if rec.Spot.Positive() {
				b.DeltaDollars += rec.DeltaShares.Float * rec.Spot.Float
				b.Spot = rec.Spot.Float
			}
		}
		res.Stocks = append(res.Stocks, rec)
	}

	for _, cash := range snap.Cash {
		cashTotal += cash.Amount
		haveCash = true
		res.Stocks = append(res.Stocks, models.StockRecord{
			Symbol:       cash.Currency,
			Type:         "cash",
			Account:      cash.Account,
			Multiplier:   1,
			DeltaDollars: models.Float64(cash.Amount),
		})
	}

	for _, b := range res.Underlyings {
		res.Portfolio.Add(b)
	}

	cashOpt := models.NoFloat()
	if haveCash {
		cashOpt = models.Float64(cashTotal)
	}
	res.Summary = e.analyzer.Summarize(now, res.Options, res.Stocks, cashOpt, betaOverrides)

	return res
}

// optionExposure pairs the emitted record with the bucket-only derived fields
type optionExposure struct {
	models.OptionRecord
	gamma1PctDelta  float64
	gammaDollar1Pct float64
}

// optionPosition resolves one option position into a scaled exposure record.
// ok=false means the position is skipped this cycle: quote missing, past the
// expiry grace window, or no resolution tier succeeded.
func (e *Engine) optionPosition(snap *models.Snapshot, pos *models.Position, now time.Time) (optionExposure, bool) {
	q, ok := snap.Quotes[pos.ContractID]
	if !ok || q == nil {
		return optionExposure{}, false
	}

	var close time.Time
	tYears := 0.0
	var daysToExp *int
	if !pos.Expiry.IsZero() {
		close = ExpiryCloseUTC(pos.Expiry)
		if now.Sub(close) > e.cfg.ExpiryGraceWindow {
			return optionExposure{}, false
		}
		tYears = TimeToExpiry(close, now)
		d := DaysToExpiry(close, now)
		daysToExp = &d
	}

	spot := spotPrice(snap.UnderlyingQuote(pos.Symbol))
	g, ok := e.resolver.Resolve(q, spot, pos.Strike, tYears, pos.Right)
	if !ok {
		e.log.Debugf("no Greeks or IV for %s %s%.2f, skipping", pos.Symbol, pos.Right, pos.Strike)
		return optionExposure{}, false
	}

	undPrice := g.UndPrice
	if !undPrice.Positive() {
		undPrice = spot
	}
	und := undPrice.Or(0)

	qty := pos.Quantity
	mult := pos.EffectiveMultiplier()
	delta := g.Delta * qty * mult
	gamma := g.Gamma * qty * mult
	vega := g.Vega * qty * mult
	theta := g.Theta * qty * mult

	ivFinal := e.finalIV(q, g, spot, pos.Strike, tYears, pos.Right)
	price := e.optionPrice(q, g, spot, pos.Strike, tYears, ivFinal, pos.Right)

	rec := optionExposure{
		OptionRecord: models.OptionRecord{
			Symbol:       pos.Symbol,
			Strike:       pos.Strike,
			Expiry:       pos.Expiry.Display(),
			Right:        pos.Right,
			Qty:          qty,
			Multiplier:   mult,
			Delta:        delta,
			DeltaDollars: delta * und,
			Gamma:        gamma,
			Vega:         vega,
			Theta:        theta,
			Spot:         undPrice,
			DaysToExp:    daysToExp,
			IV:           ivFinal,
			OptionPrice:  price,
			Source:       g.Source,
		},
		gamma1PctDelta:  gamma * (und * 0.01),
		gammaDollar1Pct: 0.5 * g.Gamma * (und * 0.01) * (und * 0.01) * qty * mult,
	}

	if ivFinal.Positive() && und > 0 {
		if p, ok := ProbITM(und, pos.Strike, tYears, e.cfg.RiskFreeRate, ivFinal.Float, pos.Right); ok {
			rec.ProbITM = models.Float64(p)
		}
	}
	if m, ok := PctMoveToITM(und, pos.Strike, pos.Right); ok {
		rec.PctMoveToITM = models.Float64(m)
	}
	if price.Positive() && und > 0 {
		if m, ok := PctMoveToDouble(price.Float, g.Delta, g.Gamma, mult, und, pos.Right); ok {
			rec.PctMoveToDouble = models.Float64(m)
		}
	}

	return rec, true
}

// finalIV picks the implied vol reported alongside the position: the quoted
// IV when present, then whatever the resolver produced, then a backsolve from
// the reconstructed option price as a last resort.
func (e *Engine) finalIV(q *models.Quote, g models.ResolvedGreeks, spot models.OptFloat, strike, tYears float64, right models.OptionRight) models.OptFloat {
	if iv := quotedIV(q); iv.Positive() {
		return iv
	}
	if g.ImpliedVol.Positive() {
		return g.ImpliedVol
	}
	mid := midPrice(q)
	if mid.Positive() && spot.Positive() && strike > 0 && tYears > 0 {
		if iv, ok := ImpliedVol(spot.Float, strike, tYears, e.cfg.RiskFreeRate, mid.Float, right); ok && iv > 0 {
			return models.Float64(iv)
		}
	}
	return models.NoFloat()
}

// optionPrice picks the best per-share option price: the theoretical price
// when Greeks were self-computed, then last, bid/ask mid, previous close,
// and finally a Black-Scholes price from the final IV.
func (e *Engine) optionPrice(q *models.Quote, g models.ResolvedGreeks, spot models.OptFloat, strike, tYears float64, ivFinal models.OptFloat, right models.OptionRight) models.OptFloat {
	if g.Price.Positive() {
		return g.Price
	}
	if q.Last.Positive() {
		return q.Last
	}
	if mid := q.Mid(); mid.Positive() {
		return mid
	}
	if q.Close.Positive() {
		return q.Close
	}
	if ivFinal.Positive() && spot.Positive() && tYears > 0 {
		if bs, ok := PriceGreeks(spot.Float, strike, tYears, e.cfg.RiskFreeRate, ivFinal.Float, right); ok {
			return models.Float64(bs.Price)
		}
	}
	return models.NoFloat()
}

// stockPosition converts a stock or future position into a delta-only record
func (e *Engine) stockPosition(snap *models.Snapshot, pos *models.Position) models.StockRecord {
	typ := "stock"
	if pos.SecType == models.SecurityFuture {
		typ = "future"
	}

	mult := pos.EffectiveMultiplier()
	deltaShares := pos.Quantity * mult

	rec := models.StockRecord{
		Symbol:      pos.Symbol,
		Type:        typ,
		Account:     pos.Account,
		Qty:         models.Float64(pos.Quantity),
		Multiplier:  mult,
		DeltaShares: models.Float64(deltaShares),
		ContractID:  pos.ContractID,
	}

	if q := snap.ContractQuote(pos); q != nil && q.Last.Positive() {
		rec.Spot = q.Last
		rec.DeltaDollars = models.Float64(deltaShares * q.Last.Float)
	}
	return rec
}
