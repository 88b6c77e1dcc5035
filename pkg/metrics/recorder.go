package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rzzdr/options-risk-engine/pkg/models"
)

// Recorder handles metrics recording and exposure
type Recorder struct {
	// Cycle metrics
	cycleCounter     prometheus.Counter
	cycleLatency     prometheus.Histogram
	positionsGauge   *prometheus.GaugeVec
	skippedPositions prometheus.Counter

	// Greeks resolution metrics
	resolutionCounter *prometheus.CounterVec

	// Portfolio exposure gauges
	portfolioGreeks    *prometheus.GaugeVec
	betaWeightedGreeks *prometheus.GaugeVec
	riskFlagsGauge     prometheus.Gauge

	// Sink metrics
	sinkErrorCounter *prometheus.CounterVec

	// API metrics
	apiRequestCounter *prometheus.CounterVec
	apiRequestLatency *prometheus.HistogramVec
}

// NewRecorder creates and registers all engine metrics
func NewRecorder() *Recorder {
	return &Recorder{
		cycleCounter: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "risk_engine_cycles_total",
				Help: "The total number of completed snapshot cycles",
			},
		),
		cycleLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "risk_engine_cycle_latency_seconds",
				Help:    "Snapshot cycle computation latency distribution",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
			},
		),
		positionsGauge: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "risk_engine_positions",
				Help: "Positions included in the latest cycle",
			},
			[]string{"kind"},
		),
		skippedPositions: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "risk_engine_positions_skipped_total",
				Help: "Option positions skipped because no Greeks could be resolved",
			},
		),
		resolutionCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_engine_greeks_resolutions_total",
				Help: "Greeks resolutions by source tier",
			},
			[]string{"source"},
		),
		portfolioGreeks: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "risk_engine_portfolio_greek",
				Help: "Raw portfolio greek totals from the latest cycle",
			},
			[]string{"greek"},
		),
		betaWeightedGreeks: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "risk_engine_beta_weighted_greek",
				Help: "Beta-weighted portfolio greek totals from the latest cycle",
			},
			[]string{"greek"},
		),
		riskFlagsGauge: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "risk_engine_risk_flags",
				Help: "Risk flags raised by the latest cycle",
			},
		),
		sinkErrorCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_engine_sink_errors_total",
				Help: "Cycle emissions that failed per sink",
			},
			[]string{"sink"},
		),
		apiRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_engine_api_requests_total",
				Help: "API requests by method, path and status code",
			},
			[]string{"method", "path", "status"},
		),
		apiRequestLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "risk_engine_api_request_latency_seconds",
				Help:    "API request latency distribution",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// RecordCycle records the outcome of one snapshot cycle
func (r *Recorder) RecordCycle(duration time.Duration, res *models.CycleResult) {
	r.cycleCounter.Inc()
	r.cycleLatency.Observe(duration.Seconds())

	for i := range res.Options {
		r.resolutionCounter.WithLabelValues(string(res.Options[i].Source)).Inc()
	}
	if res.SkippedOptions > 0 {
		r.skippedPositions.Add(float64(res.SkippedOptions))
	}

	if s := res.Summary; s != nil {
		r.positionsGauge.WithLabelValues("options").Set(float64(s.PositionCount.Options))
		r.positionsGauge.WithLabelValues("stocks").Set(float64(s.PositionCount.Stocks))
		r.portfolioGreeks.WithLabelValues("delta").Set(s.RawTotals.Delta)
		r.portfolioGreeks.WithLabelValues("gamma").Set(s.RawTotals.Gamma)
		r.portfolioGreeks.WithLabelValues("vega").Set(s.RawTotals.Vega)
		r.portfolioGreeks.WithLabelValues("theta").Set(s.RawTotals.Theta)
		r.betaWeightedGreeks.WithLabelValues("delta").Set(s.BetaWeightedTotals.Delta)
		r.betaWeightedGreeks.WithLabelValues("gamma").Set(s.BetaWeightedTotals.Gamma)
		r.betaWeightedGreeks.WithLabelValues("vega").Set(s.BetaWeightedTotals.Vega)
		r.betaWeightedGreeks.WithLabelValues("theta").Set(s.BetaWeightedTotals.Theta)
		r.riskFlagsGauge.Set(float64(len(s.RiskFlags)))
	}
}

// RecordSinkError counts a failed emission for one sink
func (r *Recorder) RecordSinkError(sink string) {
	r.sinkErrorCounter.WithLabelValues(sink).Inc()
}

// RecordAPIRequest captures one served API request
func (r *Recorder) RecordAPIRequest(method, path string, status int, latency time.Duration) {
	r.apiRequestCounter.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.apiRequestLatency.WithLabelValues(method, path).Observe(latency.Seconds())
}
