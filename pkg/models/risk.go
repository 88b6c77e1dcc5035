package models

import (
	"time"
)

// GreekSource names the resolution-policy tier that produced a position's Greeks
type GreekSource string

const (
	SourceQuotedIV     GreekSource = "quoted_iv"
	SourceBrokerModel  GreekSource = "broker_model"
	SourceBrokerLast   GreekSource = "broker_last"
	SourceBrokerBid    GreekSource = "broker_bid"
	SourceBrokerAsk    GreekSource = "broker_ask"
	SourceBacksolvedIV GreekSource = "backsolved_iv"
)

// ResolvedGreeks holds per-share Greeks for one option position after the
// resolution policy has run. Delta/Gamma/Vega/Theta are always set; implied
// vol, underlying price and theoretical price may be absent when the Greeks
// came straight from a broker bundle.
type ResolvedGreeks struct {
	Delta      float64
	Gamma      float64
	Vega       float64
	Theta      float64
	ImpliedVol OptFloat
	UndPrice   OptFloat
	Price      OptFloat
	Source     GreekSource
}

// OptionRecord is the per-position emission for one option, with Greeks
// scaled to position size and the auxiliary analytics for display.
type OptionRecord struct {
	Symbol          string      `json:"symbol"`
	Strike          float64     `json:"strike"`
	Expiry          string      `json:"expiry"`
	Right           OptionRight `json:"right"`
	Qty             float64     `json:"qty"`
	Multiplier      float64     `json:"multiplier"`
	Delta           float64     `json:"delta"`
	DeltaDollars    float64     `json:"delta_dollars"`
	Gamma           float64     `json:"gamma"`
	Vega            float64     `json:"vega"`
	Theta           float64     `json:"theta"`
	Spot            OptFloat    `json:"spot"`
	DaysToExp       *int        `json:"days_to_exp"`
	IV              OptFloat    `json:"iv"`
	ProbITM         OptFloat    `json:"prob_itm"`
	PctMoveToITM    OptFloat    `json:"pct_move_to_itm"`
	PctMoveToDouble OptFloat    `json:"pct_move_to_double"`
	OptionPrice     OptFloat    `json:"option_price"`
	Source          GreekSource `json:"-"`
}

// StockRecord is the per-position emission for a stock, future or cash balance
type StockRecord struct {
	Symbol       string   `json:"symbol"`
	Type         string   `json:"type"`
	Account      string   `json:"account,omitempty"`
	Qty          OptFloat `json:"qty"`
	Multiplier   float64  `json:"multiplier"`
	DeltaShares  OptFloat `json:"delta_shares"`
	DeltaDollars OptFloat `json:"delta_dollars"`
	Spot         OptFloat `json:"spot"`
	ContractID   int64    `json:"con_id,omitempty"`
}

// ExposureBucket accumulates position exposures for one underlying.
// Spot is the most recently observed value; last write wins within a cycle.
type ExposureBucket struct {
	DeltaShares      float64 `json:"delta_shares"`
	DeltaDollars     float64 `json:"delta_dollars"`
	Gamma1PctDelta   float64 `json:"gamma_1pct_delta"`
	GammaDollar1Pct  float64 `json:"gamma_dollar_1pct"`
	VegaDollar1VolPt float64 `json:"vega_dollar_1volpt"`
	ThetaDollarDay   float64 `json:"theta_dollar_day"`
	Spot             float64 `json:"spot,omitempty"`
}

// Add accumulates another bucket's exposures without touching Spot
func (b *ExposureBucket) Add(o *ExposureBucket) {
	b.DeltaShares += o.DeltaShares
	b.DeltaDollars += o.DeltaDollars
	b.Gamma1PctDelta += o.Gamma1PctDelta
	b.GammaDollar1Pct += o.GammaDollar1Pct
	b.VegaDollar1VolPt += o.VegaDollar1VolPt
	b.ThetaDollarDay += o.ThetaDollarDay
}

// GreekTotals are portfolio-level sums of position Greeks
type GreekTotals struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
}

// Concentration describes gross beta-weighted delta-dollar exposure shares
type Concentration struct {
	TotalBetaWeightedDelta float64            `json:"total_beta_weighted_delta"`
	BySymbol               map[string]float64 `json:"by_symbol"`
	BySector               map[string]float64 `json:"by_sector"`
	HerfindahlIndex        float64            `json:"herfindahl_index"`
}

// ScenarioResult is the P&L of one stress scenario
type ScenarioResult struct {
	Description string  `json:"description"`
	DeltaPnL    float64 `json:"delta_pnl"`
	VegaPnL     float64 `json:"vega_pnl"`
	TotalPnL    float64 `json:"total_pnl"`
}

// Composition splits invested capital across options, equities and cash
type Composition struct {
	OptionsNotional  float64  `json:"options_notional"`
	EquitiesNotional float64  `json:"equities_notional"`
	TotalInvested    float64  `json:"total_invested"`
	PctOptions       float64  `json:"pct_options"`
	PctEquities      float64  `json:"pct_equities"`
	PctCash          OptFloat `json:"pct_cash"`
}

// LongShortBucket decomposes delta-dollar exposure by sign
type LongShortBucket struct {
	LongDD   float64 `json:"long_dd"`
	ShortDD  float64 `json:"short_dd"`
	NetDD    float64 `json:"net_dd"`
	GrossDD  float64 `json:"gross_dd"`
	NumLong  int     `json:"num_long"`
	NumShort int     `json:"num_short"`
	PctLong  float64 `json:"pct_long"`
	PctShort float64 `json:"pct_short"`
}

// LongShort holds the decomposition per asset class and combined
type LongShort struct {
	Options   LongShortBucket `json:"options"`
	Equities  LongShortBucket `json:"equities"`
	Portfolio LongShortBucket `json:"portfolio"`
}

// PositionCount tallies the positions that entered the risk summary
type PositionCount struct {
	Total   int `json:"total"`
	Options int `json:"options"`
	Stocks  int `json:"stocks"`
}

// RiskSummary is the multi-dimensional risk assessment recomputed each cycle.
// It owns no state across cycles.
type RiskSummary struct {
	Timestamp           time.Time                 `json:"timestamp"`
	RawTotals           GreekTotals               `json:"raw_totals"`
	BetaWeightedTotals  GreekTotals               `json:"beta_weighted_totals"`
	AmplificationFactor float64                   `json:"amplification_factor"`
	Concentration       Concentration             `json:"concentration"`
	StressScenarios     map[string]ScenarioResult `json:"stress_scenarios"`
	Composition         Composition               `json:"composition"`
	LongShort           LongShort                 `json:"long_short"`
	RiskFlags           []string                  `json:"risk_flags"`
	PositionCount       PositionCount             `json:"position_count"`
}

// CycleResult is everything one snapshot cycle produces, handed to sinks
type CycleResult struct {
	Timestamp   time.Time
	Account     string
	Underlyings map[string]*ExposureBucket
	Portfolio   ExposureBucket
	Options     []OptionRecord
	Stocks      []StockRecord
	Summary     *RiskSummary
	// SkippedOptions counts option positions excluded this cycle because no
	// resolution tier produced usable Greeks
	SkippedOptions int
}
