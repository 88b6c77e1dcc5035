package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/rzzdr/options-risk-engine/pkg/models"
	"github.com/rzzdr/options-risk-engine/pkg/utils/logger"
)

// AnalyzerConfig carries the policy constants for risk assessment. The
// defaults reproduce long-standing desk policy; they are named and
// overridable here rather than re-derived.
type AnalyzerConfig struct {
	// ReferenceIndexPrice translates percent index moves into beta-equivalent
	// dollar moves in stress scenarios.
	ReferenceIndexPrice float64
	// ConcentrationFlagPct flags any single symbol above this share of gross
	// beta-weighted exposure.
	ConcentrationFlagPct float64
	// DeltaFlagShares flags |beta-weighted delta| above this many
	// index-equivalent shares.
	DeltaFlagShares float64
	// ThetaFlagPerDay flags beta-weighted theta below this many dollars/day.
	ThetaFlagPerDay float64
	// Betas and Sectors replace the built-in tables when non-nil.
	Betas   map[string]float64
	Sectors map[string]string
}

// DefaultAnalyzerConfig returns the standard policy constants
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		ReferenceIndexPrice:  637.0,
		ConcentrationFlagPct: 30,
		DeltaFlagShares:      2000,
		ThetaFlagPerDay:      -1000,
	}
}

// stressScenario defines one fixed what-if: a percent index move and a
// fractional volatility change applied to beta-weighted exposures
type stressScenario struct {
	key         string
	description string
	indexMove   float64
	volChange   float64
}

var stressScenarios = []stressScenario{
	{"market_correction_10", "Market correction (-10% index, vol +50%)", -10.0, 0.5},
	{"market_rally_5", "Market rally (+5% index, vol -20%)", 5.0, -0.2},
	{"volatility_crush", "Volatility crush (flat market, vol -30%)", 0.0, -0.3},
	{"volatility_spike", "Volatility spike (flat market, vol +80%)", 0.0, 0.8},
}

// Analyzer produces the per-cycle risk assessment. It is a pure function of
// its inputs; the beta-override mapping is supplied by the caller each cycle
// and never mutated here.
type Analyzer struct {
	cfg     AnalyzerConfig
	betas   map[string]float64
	sectors map[string]string
	log     *logger.Logger
}

// NewAnalyzer creates a risk analyzer with the given policy configuration
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	def := DefaultAnalyzerConfig()
	if cfg.ReferenceIndexPrice <= 0 {
		cfg.ReferenceIndexPrice = def.ReferenceIndexPrice
	}
	if cfg.ConcentrationFlagPct <= 0 {
		cfg.ConcentrationFlagPct = def.ConcentrationFlagPct
	}
	if cfg.DeltaFlagShares <= 0 {
		cfg.DeltaFlagShares = def.DeltaFlagShares
	}
	if cfg.ThetaFlagPerDay >= 0 {
		cfg.ThetaFlagPerDay = def.ThetaFlagPerDay
	}
	betas := cfg.Betas
	if betas == nil {
		betas = DefaultBetas
	}
	sectors := cfg.Sectors
	if sectors == nil {
		sectors = DefaultSectors
	}
	return &Analyzer{
		cfg:     cfg,
		betas:   betas,
		sectors: sectors,
		log:     logger.GetLogger("risk.analyzer"),
	}
}

// betaFor resolves a symbol's beta: runtime override, then the default table,
// then 1.0
func (a *Analyzer) betaFor(symbol string, overrides map[string]float64) float64 {
	if overrides != nil {
		if b, ok := overrides[symbol]; ok {
			return b
		}
	}
	if b, ok := a.betas[symbol]; ok {
		return b
	}
	return 1.0
}

// weightedPosition is one position's Greeks after beta scaling
type weightedPosition struct {
	symbol  string
	bwDelta float64
}

// Summarize computes the full risk assessment over one cycle's option and
// stock exposures. A cycle with no resolvable options still yields a valid
// summary over stock exposure alone.
func (a *Analyzer) Summarize(ts time.Time, options []models.OptionRecord, stocks []models.StockRecord, cashTotal models.OptFloat, betaOverrides map[string]float64) *models.RiskSummary {
	var raw, weighted models.GreekTotals
	positions := make([]weightedPosition, 0, len(options)+len(stocks))
	stockCount := 0

	for i := range stocks {
		s := &stocks[i]
		if s.Type == "cash" || !s.DeltaShares.Valid || s.DeltaShares.Float == 0 {
			continue
		}
		stockCount++
		beta := a.betaFor(s.Symbol, betaOverrides)
		raw.Delta += s.DeltaShares.Float
		weighted.Delta += s.DeltaShares.Float * beta
		positions = append(positions, weightedPosition{symbol: s.Symbol, bwDelta: s.DeltaShares.Float * beta})
	}

	for i := range options {
		o := &options[i]
		beta := a.betaFor(o.Symbol, betaOverrides)
		raw.Delta += o.Delta
		raw.Gamma += o.Gamma
		raw.Vega += o.Vega
		raw.Theta += o.Theta
		weighted.Delta += o.Delta * beta
		weighted.Gamma += o.Gamma * beta
		weighted.Vega += o.Vega * beta
		weighted.Theta += o.Theta * beta
		positions = append(positions, weightedPosition{symbol: o.Symbol, bwDelta: o.Delta * beta})
	}

	summary := &models.RiskSummary{
		Timestamp:          ts,
		RawTotals:          raw,
		BetaWeightedTotals: weighted,
		Concentration:      a.concentration(positions),
		StressScenarios:    a.stress(weighted.Delta, weighted.Vega),
		Composition:        a.composition(options, stocks, cashTotal),
		LongShort:          a.longShort(options, stocks),
		PositionCount: models.PositionCount{
			Total:   stockCount + len(options),
			Options: len(options),
			Stocks:  stockCount,
		},
	}
	summary.AmplificationFactor = 1.0
	if raw.Delta != 0 {
		summary.AmplificationFactor = math.Abs(weighted.Delta) / math.Abs(raw.Delta)
	}
	summary.RiskFlags = a.flags(summary)
	return summary
}

// concentration computes gross beta-weighted delta-dollar shares per symbol
// and sector plus the Herfindahl index. Shares are percentages that sum to
// 100 when total exposure is nonzero; by convention everything is 0 when it
// is zero.
func (a *Analyzer) concentration(positions []weightedPosition) models.Concentration {
	var total float64
	for _, p := range positions {
		total += math.Abs(p.bwDelta)
	}

	bySymbol := make(map[string]float64)
	bySector := make(map[string]float64)
	for _, p := range positions {
		bySymbol[p.symbol] += math.Abs(p.bwDelta)
		sector, ok := a.sectors[p.symbol]
		if !ok {
			sector = "Unknown"
		}
		bySector[sector] += math.Abs(p.bwDelta)
	}

	var herfindahl float64
	for sym, exposure := range bySymbol {
		pct := 0.0
		if total != 0 {
			pct = exposure / total * 100
		}
		bySymbol[sym] = pct
		herfindahl += pct * pct
	}
	for sector, exposure := range bySector {
		if total != 0 {
			bySector[sector] = exposure / total * 100
		} else {
			bySector[sector] = 0
		}
	}

	return models.Concentration{
		TotalBetaWeightedDelta: total,
		BySymbol:               bySymbol,
		BySector:               bySector,
		HerfindahlIndex:        herfindahl / 10000,
	}
}

// stress evaluates the fixed scenario set against beta-weighted delta and vega
func (a *Analyzer) stress(bwDelta, bwVega float64) map[string]models.ScenarioResult {
	results := make(map[string]models.ScenarioResult, len(stressScenarios))
	for _, sc := range stressScenarios {
		indexDollarMove := sc.indexMove * a.cfg.ReferenceIndexPrice / 100
		deltaPnL := bwDelta * indexDollarMove / 100
		vegaPnL := bwVega * sc.volChange
		results[sc.key] = models.ScenarioResult{
			Description: sc.description,
			DeltaPnL:    deltaPnL,
			VegaPnL:     vegaPnL,
			TotalPnL:    deltaPnL + vegaPnL,
		}
	}
	return results
}

// composition splits invested capital into options premium, equity market
// value and cash when supplied
func (a *Analyzer) composition(options []models.OptionRecord, stocks []models.StockRecord, cashTotal models.OptFloat) models.Composition {
	var optionsNotional, equitiesNotional float64
	for i := range options {
		o := &options[i]
		if o.OptionPrice.Valid {
			optionsNotional += math.Abs(o.OptionPrice.Float * o.Multiplier * o.Qty)
		}
	}
	for i := range stocks {
		s := &stocks[i]
		if s.Type == "cash" {
			continue
		}
		if s.DeltaShares.Valid && s.Spot.Valid {
			equitiesNotional += math.Abs(s.DeltaShares.Float * s.Spot.Float)
		}
	}

	comp := models.Composition{
		OptionsNotional:  optionsNotional,
		EquitiesNotional: equitiesNotional,
		TotalInvested:    optionsNotional + equitiesNotional,
	}
	denom := comp.TotalInvested
	if cashTotal.Valid && cashTotal.Float != 0 {
		denom += cashTotal.Float
		if denom > 0 {
			comp.PctCash = models.Float64(cashTotal.Float / denom * 100)
		}
	}
	if denom > 0 {
		comp.PctOptions = optionsNotional / denom * 100
		comp.PctEquities = equitiesNotional / denom * 100
	}
	return comp
}

// longShort buckets positions by the sign of their delta-dollar exposure
func (a *Analyzer) longShort(options []models.OptionRecord, stocks []models.StockRecord) models.LongShort {
	optionDDs := make([]float64, 0, len(options))
	for i := range options {
		optionDDs = append(optionDDs, options[i].Delta*options[i].Spot.Or(0))
	}
	equityDDs := make([]float64, 0, len(stocks))
	for i := range stocks {
		s := &stocks[i]
		if s.Type == "cash" {
			continue
		}
		equityDDs = append(equityDDs, s.DeltaShares.Or(0)*s.Spot.Or(0))
	}
	combined := append(append([]float64{}, optionDDs...), equityDDs...)
	return models.LongShort{
		Options:   bucketize(optionDDs),
		Equities:  bucketize(equityDDs),
		Portfolio: bucketize(combined),
	}
}

func bucketize(dds []float64) models.LongShortBucket {
	var b models.LongShortBucket
	for _, dd := range dds {
		switch {
		case dd > 0:
			b.LongDD += dd
			b.NumLong++
		case dd < 0:
			b.ShortDD += -dd
			b.NumShort++
		}
	}
	b.NetDD = b.LongDD - b.ShortDD
	b.GrossDD = b.LongDD + b.ShortDD
	if b.GrossDD != 0 {
		b.PctLong = b.LongDD / b.GrossDD * 100
		b.PctShort = b.ShortDD / b.GrossDD * 100
	}
	return b
}

// flags generates textual risk warnings from fixed policy thresholds
func (a *Analyzer) flags(s *models.RiskSummary) []string {
	flags := make([]string, 0, 3)

	topSymbol, topPct := "", 0.0
	for sym, pct := range s.Concentration.BySymbol {
		if pct > topPct {
			topSymbol, topPct = sym, pct
		}
	}
	if topPct > a.cfg.ConcentrationFlagPct {
		flags = append(flags, fmt.Sprintf("HIGH CONCENTRATION: %s = %.1f%% of portfolio", topSymbol, topPct))
	}
	if math.Abs(s.BetaWeightedTotals.Delta) > a.cfg.DeltaFlagShares {
		flags = append(flags, fmt.Sprintf("HIGH BETA-WEIGHTED DELTA: %.0f index-equivalent shares", s.BetaWeightedTotals.Delta))
	}
	if s.BetaWeightedTotals.Theta < a.cfg.ThetaFlagPerDay {
		flags = append(flags, fmt.Sprintf("HIGH THETA BURN: $%.0f/day decay", math.Abs(s.BetaWeightedTotals.Theta)))
	}
	return flags
}
