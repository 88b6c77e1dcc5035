package models

import (
	"fmt"
	"time"
)

// SecurityType identifies the kind of instrument a position holds
type SecurityType string

const (
	SecurityStock        SecurityType = "stock"
	SecurityFuture       SecurityType = "future"
	SecurityOption       SecurityType = "option"
	SecurityFutureOption SecurityType = "future_option"
)

// IsOption reports whether the security is an option on a stock or a future
func (s SecurityType) IsOption() bool {
	return s == SecurityOption || s == SecurityFutureOption
}

// OptionRight is the side of an option contract
type OptionRight string

const (
	RightCall OptionRight = "C"
	RightPut  OptionRight = "P"
)

// IsCall reports whether the right is a call. Anything that is not a put is
// treated as a call, matching broker feeds that send "C"/"CALL" loosely.
func (r OptionRight) IsCall() bool {
	return r != RightPut && r != "P" && r != "PUT"
}

// Date is a calendar date with no time component, used for option expiries
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses YYYYMMDD or YYMMDD expiry strings as sent by brokers
func ParseDate(s string) (Date, error) {
	if len(s) == 6 {
		s = "20" + s
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid expiry date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// IsZero reports whether the date is unset
func (d Date) IsZero() bool {
	return d.Year == 0
}

// Display formats the date as MM/DD/YY for emitted records
func (d Date) Display() string {
	return fmt.Sprintf("%02d/%02d/%02d", int(d.Month), d.Day, d.Year%100)
}

// String returns the date in YYYYMMDD wire form
func (d Date) String() string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, int(d.Month), d.Day)
}

// MarshalJSON encodes the date in wire form
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON parses wire-form dates, accepting empty as unset
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' {
		return fmt.Errorf("invalid date literal %s", s)
	}
	s = s[1 : len(s)-1]
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// GreekQuote is a broker-supplied bundle of option Greeks derived from one
// price source (model, last, bid or ask). Any field may be absent.
type GreekQuote struct {
	Delta      OptFloat `json:"delta"`
	Gamma      OptFloat `json:"gamma"`
	Vega       OptFloat `json:"vega"`
	Theta      OptFloat `json:"theta"`
	ImpliedVol OptFloat `json:"implied_vol"`
	UndPrice   OptFloat `json:"und_price"`
}

// Quote is a per-contract market data snapshot. All fields are optional;
// the resolution policy decides what is usable.
type Quote struct {
	Bid         OptFloat    `json:"bid"`
	Ask         OptFloat    `json:"ask"`
	Last        OptFloat    `json:"last"`
	Close       OptFloat    `json:"close"`
	MarketPrice OptFloat    `json:"market_price"`
	ImpliedVol  OptFloat    `json:"implied_vol"`
	ModelGreeks *GreekQuote `json:"model_greeks,omitempty"`
	LastGreeks  *GreekQuote `json:"last_greeks,omitempty"`
	BidGreeks   *GreekQuote `json:"bid_greeks,omitempty"`
	AskGreeks   *GreekQuote `json:"ask_greeks,omitempty"`
}

// Mid returns the bid/ask midpoint when both sides are positive
func (q *Quote) Mid() OptFloat {
	if q.Bid.Positive() && q.Ask.Positive() {
		return Float64(0.5 * (q.Bid.Float + q.Ask.Float))
	}
	return NoFloat()
}

// Position is a single holding supplied by the connectivity layer
type Position struct {
	Account    string       `json:"account,omitempty"`
	ContractID int64        `json:"con_id"`
	Symbol     string       `json:"symbol"`
	SecType    SecurityType `json:"sec_type"`
	Quantity   float64      `json:"qty"`
	Multiplier float64      `json:"multiplier,omitempty"`
	Strike     float64      `json:"strike,omitempty"`
	Right      OptionRight  `json:"right,omitempty"`
	Expiry     Date         `json:"expiry,omitempty"`
}

// EffectiveMultiplier returns the contract multiplier, defaulting to 100 for
// options and 1 for everything else when the feed does not supply one.
func (p *Position) EffectiveMultiplier() float64 {
	if p.Multiplier > 0 {
		return p.Multiplier
	}
	if p.SecType.IsOption() {
		return 100
	}
	return 1
}

// CashBalance is an account cash amount in one currency
type CashBalance struct {
	Account  string  `json:"account"`
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

// Snapshot is one coherent capture of positions and quotes handed to the
// engine for a single cycle. Quotes is keyed by contract ID; Underlyings is
// keyed by underlying symbol and supplies spot prices for option positions.
type Snapshot struct {
	Time        time.Time         `json:"time"`
	Account     string            `json:"account,omitempty"`
	Positions   []Position        `json:"positions"`
	Quotes      map[int64]*Quote  `json:"quotes"`
	Underlyings map[string]*Quote `json:"underlyings"`
	Cash        []CashBalance     `json:"cash,omitempty"`
}

// UnderlyingQuote returns the quote for an underlying symbol, if present
func (s *Snapshot) UnderlyingQuote(symbol string) *Quote {
	if s.Underlyings == nil {
		return nil
	}
	return s.Underlyings[symbol]
}

// ContractQuote returns the quote for a contract, falling back to the
// underlying table for stocks and futures quoted at the symbol level.
func (s *Snapshot) ContractQuote(p *Position) *Quote {
	if q, ok := s.Quotes[p.ContractID]; ok {
		return q
	}
	if !p.SecType.IsOption() {
		return s.UnderlyingQuote(p.Symbol)
	}
	return nil
}
