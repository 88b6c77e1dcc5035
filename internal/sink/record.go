package sink

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/rzzdr/options-risk-engine/pkg/models"
)

// Scope tags on emitted records
const (
	ScopeUnderlying = "underlying"
	ScopeOption     = "option"
	ScopeStock      = "stock"
	ScopePortfolio  = "portfolio"
	ScopeRisk       = "risk_assessment"
)

// EncodedRecord is one emission-ready JSON record
type EncodedRecord struct {
	Scope string
	Key   string
	Data  []byte
}

type recordHeader struct {
	Timestamp time.Time `json:"timestamp"`
	Scope     string    `json:"scope"`
	Account   string    `json:"account,omitempty"`
}

type underlyingRecord struct {
	recordHeader
	Symbol string `json:"symbol"`
	models.ExposureBucket
}

type optionRecord struct {
	recordHeader
	models.OptionRecord
}

type stockRecord struct {
	recordHeader
	models.StockRecord
}

type portfolioRecord struct {
	recordHeader
	models.ExposureBucket
}

// riskRecord leans on the summary's own timestamp field to avoid a duplicate
// key in the emitted JSON
type riskRecord struct {
	Scope   string `json:"scope"`
	Account string `json:"account,omitempty"`
	*models.RiskSummary
}

// Encode flattens a cycle result into the emission records: one per
// underlying, one per option and stock position, one portfolio total and one
// risk assessment, all sharing the cycle timestamp. Underlyings are sorted by
// symbol so output is deterministic.
func Encode(res *models.CycleResult) ([]EncodedRecord, error) {
	header := func(scope string) recordHeader {
		return recordHeader{Timestamp: res.Timestamp, Scope: scope, Account: res.Account}
	}

	out := make([]EncodedRecord, 0, len(res.Underlyings)+len(res.Options)+len(res.Stocks)+2)
	appendRec := func(scope, key string, v interface{}) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		out = append(out, EncodedRecord{Scope: scope, Key: key, Data: data})
		return nil
	}

	symbols := make([]string, 0, len(res.Underlyings))
	for sym := range res.Underlyings {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		rec := underlyingRecord{
			recordHeader:   header(ScopeUnderlying),
			Symbol:         sym,
			ExposureBucket: roundBucket(*res.Underlyings[sym]),
		}
		if err := appendRec(ScopeUnderlying, sym, rec); err != nil {
			return nil, err
		}
	}

	for i := range res.Options {
		rec := optionRecord{recordHeader: header(ScopeOption), OptionRecord: roundOption(res.Options[i])}
		if err := appendRec(ScopeOption, rec.Symbol, rec); err != nil {
			return nil, err
		}
	}

	for i := range res.Stocks {
		rec := stockRecord{recordHeader: header(ScopeStock), StockRecord: roundStock(res.Stocks[i])}
		if err := appendRec(ScopeStock, rec.Symbol, rec); err != nil {
			return nil, err
		}
	}

	if err := appendRec(ScopePortfolio, "portfolio", portfolioRecord{
		recordHeader:   header(ScopePortfolio),
		ExposureBucket: roundBucket(res.Portfolio),
	}); err != nil {
		return nil, err
	}

	if res.Summary != nil {
		if err := appendRec(ScopeRisk, "risk", riskRecord{
			Scope:       ScopeRisk,
			Account:     res.Account,
			RiskSummary: res.Summary,
		}); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// roundOption rounds the position-scaled greeks to 6 decimals for emission
func roundOption(o models.OptionRecord) models.OptionRecord {
	o.Delta = round6(o.Delta)
	o.DeltaDollars = round6(o.DeltaDollars)
	o.Gamma = round6(o.Gamma)
	o.Vega = round6(o.Vega)
	o.Theta = round6(o.Theta)
	return o
}

// roundStock rounds the delta exposures to 6 decimals for emission
func roundStock(s models.StockRecord) models.StockRecord {
	s.DeltaShares = round6Opt(s.DeltaShares)
	s.DeltaDollars = round6Opt(s.DeltaDollars)
	return s
}

// roundBucket rounds exposure values to 6 decimals for emission
func roundBucket(b models.ExposureBucket) models.ExposureBucket {
	b.DeltaShares = round6(b.DeltaShares)
	b.DeltaDollars = round6(b.DeltaDollars)
	b.Gamma1PctDelta = round6(b.Gamma1PctDelta)
	b.GammaDollar1Pct = round6(b.GammaDollar1Pct)
	b.VegaDollar1VolPt = round6(b.VegaDollar1VolPt)
	b.ThetaDollarDay = round6(b.ThetaDollarDay)
	return b
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func round6Opt(v models.OptFloat) models.OptFloat {
	if !v.Valid {
		return v
	}
	return models.Float64(round6(v.Float))
}
