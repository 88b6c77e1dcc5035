package models_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/options-risk-engine/pkg/models"
)

func TestOptFloatSanitizesNonFinite(t *testing.T) {
	assert.True(t, models.Float64(1.5).Valid)
	assert.False(t, models.Float64(math.NaN()).Valid)
	assert.False(t, models.Float64(math.Inf(1)).Valid)
	assert.False(t, models.Float64(math.Inf(-1)).Valid)
	assert.False(t, models.NoFloat().Valid)
}

func TestOptFloatPositiveAndOr(t *testing.T) {
	assert.True(t, models.Float64(0.1).Positive())
	assert.False(t, models.Float64(0).Positive())
	assert.False(t, models.Float64(-1).Positive())
	assert.False(t, models.NoFloat().Positive())

	assert.Equal(t, 2.0, models.Float64(2).Or(9))
	assert.Equal(t, 9.0, models.NoFloat().Or(9))
	// zero is a present value, not an absence
	assert.Equal(t, 0.0, models.Float64(0).Or(9))
}

func TestOptFloatJSON(t *testing.T) {
	out, err := json.Marshal(models.Float64(1.25))
	require.NoError(t, err)
	assert.Equal(t, "1.25", string(out))

	out, err = json.Marshal(models.NoFloat())
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	var v models.OptFloat
	require.NoError(t, json.Unmarshal([]byte("null"), &v))
	assert.False(t, v.Valid)

	require.NoError(t, json.Unmarshal([]byte(`"NaN"`), &v))
	assert.False(t, v.Valid)

	require.NoError(t, json.Unmarshal([]byte("3.5"), &v))
	require.True(t, v.Valid)
	assert.Equal(t, 3.5, v.Float)

	assert.Error(t, json.Unmarshal([]byte(`"oops"`), &v))
}

func TestParseDate(t *testing.T) {
	d, err := models.ParseDate("20250718")
	require.NoError(t, err)
	assert.Equal(t, models.Date{Year: 2025, Month: time.July, Day: 18}, d)

	// six-digit broker form assumes the 2000s
	d, err = models.ParseDate("250718")
	require.NoError(t, err)
	assert.Equal(t, 2025, d.Year)

	_, err = models.ParseDate("2025-07-18")
	assert.Error(t, err)
	_, err = models.ParseDate("20251345")
	assert.Error(t, err)
}

func TestDateFormats(t *testing.T) {
	d := models.Date{Year: 2025, Month: time.July, Day: 8}
	assert.Equal(t, "07/08/25", d.Display())
	assert.Equal(t, "20250708", d.String())
	assert.True(t, models.Date{}.IsZero())

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"20250708"`, string(out))

	var back models.Date
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, d, back)

	require.NoError(t, json.Unmarshal([]byte(`""`), &back))
	assert.True(t, back.IsZero())
}

func TestOptionRightIsCall(t *testing.T) {
	assert.True(t, models.RightCall.IsCall())
	assert.True(t, models.OptionRight("CALL").IsCall())
	assert.False(t, models.RightPut.IsCall())
	assert.False(t, models.OptionRight("PUT").IsCall())
}

func TestSecurityTypeIsOption(t *testing.T) {
	assert.True(t, models.SecurityOption.IsOption())
	assert.True(t, models.SecurityFutureOption.IsOption())
	assert.False(t, models.SecurityStock.IsOption())
	assert.False(t, models.SecurityFuture.IsOption())
}

func TestQuoteMid(t *testing.T) {
	q := &models.Quote{Bid: models.Float64(1), Ask: models.Float64(2)}
	mid := q.Mid()
	require.True(t, mid.Valid)
	assert.Equal(t, 1.5, mid.Float)

	// a one-sided market has no mid
	q = &models.Quote{Bid: models.Float64(1)}
	assert.False(t, q.Mid().Valid)
	q = &models.Quote{Bid: models.Float64(0), Ask: models.Float64(2)}
	assert.False(t, q.Mid().Valid)
}

func TestEffectiveMultiplier(t *testing.T) {
	opt := &models.Position{SecType: models.SecurityOption}
	assert.Equal(t, 100.0, opt.EffectiveMultiplier())

	opt.Multiplier = 50
	assert.Equal(t, 50.0, opt.EffectiveMultiplier())

	stk := &models.Position{SecType: models.SecurityStock}
	assert.Equal(t, 1.0, stk.EffectiveMultiplier())
}

func TestSnapshotQuoteLookups(t *testing.T) {
	snap := &models.Snapshot{
		Quotes: map[int64]*models.Quote{
			7: {Last: models.Float64(200)},
		},
		Underlyings: map[string]*models.Quote{
			"TSLA": {Last: models.Float64(201)},
		},
	}

	assert.NotNil(t, snap.UnderlyingQuote("TSLA"))
	assert.Nil(t, snap.UnderlyingQuote("ZZZZ"))

	// contract quote wins; stocks fall back to the underlying table
	stock := &models.Position{ContractID: 7, Symbol: "TSLA", SecType: models.SecurityStock}
	assert.Equal(t, 200.0, snap.ContractQuote(stock).Last.Float)

	stock.ContractID = 8
	assert.Equal(t, 201.0, snap.ContractQuote(stock).Last.Float)

	// options never fall back to the underlying quote
	opt := &models.Position{ContractID: 8, Symbol: "TSLA", SecType: models.SecurityOption}
	assert.Nil(t, snap.ContractQuote(opt))
}

func TestSnapshotJSONRoundTrip(t *testing.T) {
	raw := `{
		"time": "2025-06-02T14:30:00Z",
		"account": "U1234567",
		"positions": [
			{"con_id": 42, "symbol": "XYZ", "sec_type": "option", "qty": -1,
			 "strike": 100, "right": "C", "expiry": "20250718"}
		],
		"quotes": {"42": {"bid": 1.2, "ask": 1.4, "implied_vol": null}},
		"underlyings": {"XYZ": {"last": 100.5}},
		"cash": [{"account": "U1234567", "currency": "USD", "amount": 2500}]
	}`

	var snap models.Snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))

	require.Len(t, snap.Positions, 1)
	pos := snap.Positions[0]
	assert.Equal(t, models.SecurityOption, pos.SecType)
	assert.Equal(t, models.RightCall, pos.Right)
	assert.Equal(t, models.Date{Year: 2025, Month: time.July, Day: 18}, pos.Expiry)

	q := snap.Quotes[42]
	require.NotNil(t, q)
	assert.Equal(t, 1.2, q.Bid.Float)
	assert.False(t, q.ImpliedVol.Valid)

	assert.Equal(t, 100.5, snap.UnderlyingQuote("XYZ").Last.Float)
	require.Len(t, snap.Cash, 1)
	assert.Equal(t, 2500.0, snap.Cash[0].Amount)
}
