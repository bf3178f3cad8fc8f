// Package metrics exposes the trading engine's Prometheus instrumentation:
//
//   - engine_signals_total{kind}        – order/position signals routed
//   - engine_trades_opened_total        – entry orders submitted
//   - engine_trades_closed_total{result} – closed trades by result (win|loss|breakeven)
//   - engine_active_trades              – current active trade count (gauge)
//   - engine_check_results_total{result} – bulk reconciliation outcomes
//   - engine_realized_profit_rate       – cumulative realized profit rate (gauge)
//
// The HTTP handler serving these at /metrics is started by the runner.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the engine's collectors. A nil *Metrics is a valid no-op
// recorder, so wiring metrics stays optional.
type Metrics struct {
	signals      *prometheus.CounterVec
	tradesOpened prometheus.Counter
	tradesClosed *prometheus.CounterVec
	activeTrades prometheus.Gauge
	checkResults *prometheus.CounterVec
	profitRate   prometheus.Gauge
}

// New creates and registers the engine collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		signals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_signals_total",
				Help: "Broker signals routed to trades",
			},
			[]string{"kind"}, // order|position
		),
		tradesOpened: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "engine_trades_opened_total",
				Help: "Entry orders submitted",
			},
		),
		tradesClosed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_trades_closed_total",
				Help: "Closed trades by result",
			},
			[]string{"result"}, // win|loss|breakeven
		),
		activeTrades: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "engine_active_trades",
				Help: "Trades currently tracked by the trader",
			},
		),
		checkResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_check_results_total",
				Help: "Out-of-band reconciliation outcomes",
			},
			[]string{"result"}, // retry|fixed|consistent
		),
		profitRate: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "engine_realized_profit_rate",
				Help: "Cumulative realized profit rate, net of fees",
			},
		),
	}
	reg.MustRegister(m.signals, m.tradesOpened, m.tradesClosed,
		m.activeTrades, m.checkResults, m.profitRate)
	return m
}

func (m *Metrics) SignalRouted(kind string) {
	if m == nil {
		return
	}
	m.signals.WithLabelValues(kind).Inc()
}

func (m *Metrics) TradeOpened() {
	if m == nil {
		return
	}
	m.tradesOpened.Inc()
}

func (m *Metrics) TradeClosed(result string) {
	if m == nil {
		return
	}
	m.tradesClosed.WithLabelValues(result).Inc()
}

func (m *Metrics) SetActiveTrades(n int) {
	if m == nil {
		return
	}
	m.activeTrades.Set(float64(n))
}

func (m *Metrics) CheckResult(result string) {
	if m == nil {
		return
	}
	m.checkResults.WithLabelValues(result).Inc()
}

func (m *Metrics) SetRealizedProfitRate(rate float64) {
	if m == nil {
		return
	}
	m.profitRate.Set(rate)
}
