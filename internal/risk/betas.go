package risk

// DefaultBetas are index-relative beta coefficients for common underlyings.
// Symbols without an entry default to 1.0. Callers can supply runtime
// overrides per cycle; overrides win over this table.
var DefaultBetas = map[string]float64{
	"NVDA": 1.8,
	"PLTR": 2.2,
	"META": 1.3,
	"TSLA": 2.0,
	"AMZN": 1.4,
	"XYZ":  1.0,
	"SPY":  1.0,
	"GLD":  -0.1,
	"BLK":  1.5,
	"SNOW": 1.8,
	"QQQ":  1.0,
	"IWM":  1.2,
	"VTI":  1.0,
}

// DefaultSectors classifies underlyings for concentration analysis.
// Unclassified symbols fall into "Unknown".
var DefaultSectors = map[string]string{
	"NVDA": "Technology",
	"PLTR": "Technology",
	"META": "Technology",
	"TSLA": "Consumer Discretionary",
	"AMZN": "Consumer Discretionary",
	"XYZ":  "Unknown",
	"SPY":  "Broad Market",
	"GLD":  "Commodities",
	"BLK":  "Financials",
	"SNOW": "Technology",
	"QQQ":  "Technology ETF",
	"IWM":  "Small Cap ETF",
	"VTI":  "Broad Market ETF",
}
