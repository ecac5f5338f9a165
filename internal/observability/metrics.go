// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric when no namespace is given.
const DefaultNamespace = "solana_signal_lab"

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Sweep metrics
	SweepTuplesTotal *prometheus.CounterVec
	SweepDuration    prometheus.Histogram
	SweepResults     *prometheus.CounterVec

	// Backtest metrics
	BacktestsRun    prometheus.Counter
	TradesSimulated prometheus.Counter
	BarsEvaluated   prometheus.Counter

	// Regime metrics
	RegimeRefreshes   *prometheus.CounterVec
	RegimeTransitions *prometheus.CounterVec
	RegimeScore       *prometheus.GaugeVec
	RegimeLoadLatency prometheus.Histogram

	// Live map metrics
	LiveMapReloads *prometheus.CounterVec
	LiveMapEntries prometheus.Gauge

	// Health metrics
	LastSuccessfulSweep   prometheus.Gauge
	LastSuccessfulRefresh prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered with reg.
// A nil reg registers with the Prometheus default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Sweep metrics
		SweepTuplesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "tuples_total",
			Help:      "Total number of sweep tuples evaluated by template and status",
		}, []string{"template", "status"}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "duration_seconds",
			Help:      "Sweep execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}),
		SweepResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "results_total",
			Help:      "Total number of sweep results by eligibility",
		}, []string{"eligible"}),

		// Backtest metrics
		BacktestsRun: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtests run",
		}),
		TradesSimulated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_simulated_total",
			Help:      "Total number of trades simulated",
		}),
		BarsEvaluated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "bars_evaluated_total",
			Help:      "Total number of bars evaluated",
		}),

		// Regime metrics
		RegimeRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "regime",
			Name:      "refreshes_total",
			Help:      "Total number of regime refreshes by status",
		}, []string{"status"}),
		RegimeTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "regime",
			Name:      "transitions_total",
			Help:      "Total number of confirmed regime transitions",
		}, []string{"from", "to"}),
		RegimeScore: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "regime",
			Name:      "trend_score",
			Help:      "Latest trend score by mint",
		}, []string{"mint"}),
		RegimeLoadLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "regime",
			Name:      "load_latency_seconds",
			Help:      "Historical candle load latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Live map metrics
		LiveMapReloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "livemap",
			Name:      "reloads_total",
			Help:      "Total number of live strategy map reloads by status",
		}, []string{"status"}),
		LiveMapEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "livemap",
			Name:      "entries",
			Help:      "Number of entries in the loaded live strategy map",
		}),

		// Health metrics
		LastSuccessfulSweep: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_sweep_timestamp",
			Help:      "Unix timestamp of last successful sweep",
		}),
		LastSuccessfulRefresh: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of last successful regime refresh",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
// A nil gatherer serves the Prometheus default gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordSweepTuple records one evaluated sweep tuple.
func (m *Metrics) RecordSweepTuple(template string, err error) {
	if m == nil {
		return
	}
	m.SweepTuplesTotal.WithLabelValues(template, status(err)).Inc()
}

// RecordSweep records a finished sweep.
func (m *Metrics) RecordSweep(d time.Duration, eligible, ineligible int) {
	if m == nil {
		return
	}
	m.SweepDuration.Observe(d.Seconds())
	m.SweepResults.WithLabelValues("true").Add(float64(eligible))
	m.SweepResults.WithLabelValues("false").Add(float64(ineligible))
	m.LastSuccessfulSweep.SetToCurrentTime()
}

// RecordBacktest records one backtest run.
func (m *Metrics) RecordBacktest(trades, bars int) {
	if m == nil {
		return
	}
	m.BacktestsRun.Inc()
	m.TradesSimulated.Add(float64(trades))
	m.BarsEvaluated.Add(float64(bars))
}

// RecordRegimeRefresh records a regime refresh for mint.
func (m *Metrics) RecordRegimeRefresh(mint string, score float64, err error) {
	if m == nil {
		return
	}
	m.RegimeRefreshes.WithLabelValues(status(err)).Inc()
	if err != nil {
		return
	}
	m.RegimeScore.WithLabelValues(mint).Set(score)
	m.LastSuccessfulRefresh.SetToCurrentTime()
}

// RecordRegimeTransition records a confirmed regime change.
func (m *Metrics) RecordRegimeTransition(from, to string) {
	if m == nil {
		return
	}
	m.RegimeTransitions.WithLabelValues(from, to).Inc()
}

// ObserveRegimeLoad records the latency of one historical load.
func (m *Metrics) ObserveRegimeLoad(d time.Duration) {
	if m == nil {
		return
	}
	m.RegimeLoadLatency.Observe(d.Seconds())
}

// RecordLiveMapReload records a live strategy map reload.
func (m *Metrics) RecordLiveMapReload(entries int, err error) {
	if m == nil {
		return
	}
	m.LiveMapReloads.WithLabelValues(status(err)).Inc()
	if err == nil {
		m.LiveMapEntries.Set(float64(entries))
	}
}
