package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the engine's operational counters and gauges. All
// methods are safe on a nil receiver so wiring stays optional.
type Metrics struct {
	registry    *prometheus.Registry
	opens       prometheus.Counter
	rejects     *prometheus.CounterVec
	exits       *prometheus.CounterVec
	signalDrops prometheus.Counter

	equity      prometheus.Gauge
	peakEquity  prometheus.Gauge
	drawdown    prometheus.Gauge
	lossStreak  prometheus.Gauge
	activeCount prometheus.Gauge
}

// NewMetrics registers the collectors on a fresh registry and returns the
// metrics handle.
func NewMetrics() *Metrics {
	m := &Metrics{
		opens: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scalper_positions_opened_total",
			Help: "Positions opened",
		}),
		rejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scalper_open_rejects_total",
			Help: "Open attempts rejected, split by reason",
		}, []string{"reason"}),
		exits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scalper_exits_total",
			Help: "Positions closed, split by reason",
		}, []string{"reason"}),
		signalDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scalper_signal_drops_total",
			Help: "Momentum signals dropped on a full queue",
		}),
		equity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scalper_equity_quote",
			Help: "Total balance in quote units",
		}),
		peakEquity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scalper_peak_equity_quote",
			Help: "Peak balance in quote units",
		}),
		drawdown: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scalper_drawdown_pct",
			Help: "Current drawdown from peak, percent",
		}),
		lossStreak: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scalper_consecutive_losses",
			Help: "Consecutive non-profitable closes",
		}),
		activeCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scalper_active_positions",
			Help: "Currently open positions",
		}),
	}
	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(
		m.opens, m.rejects, m.exits, m.signalDrops,
		m.equity, m.peakEquity, m.drawdown, m.lossStreak, m.activeCount,
	)
	return m
}

// IncOpened counts one opened position.
func (m *Metrics) IncOpened() {
	if m == nil {
		return
	}
	m.opens.Inc()
}

// IncReject counts one rejected open attempt.
func (m *Metrics) IncReject(reason string) {
	if m == nil {
		return
	}
	m.rejects.WithLabelValues(reason).Inc()
}

// IncExit counts one close by reason.
func (m *Metrics) IncExit(reason string) {
	if m == nil {
		return
	}
	m.exits.WithLabelValues(reason).Inc()
}

// IncSignalDrop counts one dropped signal.
func (m *Metrics) IncSignalDrop() {
	if m == nil {
		return
	}
	m.signalDrops.Inc()
}

// SetEquity updates the balance gauges.
func (m *Metrics) SetEquity(total, peak float64) {
	if m == nil {
		return
	}
	m.equity.Set(total)
	m.peakEquity.Set(peak)
}

// SetRisk updates the drawdown and loss streak gauges.
func (m *Metrics) SetRisk(drawdownPct float64, consecutiveLosses int) {
	if m == nil {
		return
	}
	m.drawdown.Set(drawdownPct)
	m.lossStreak.Set(float64(consecutiveLosses))
}

// SetActive updates the open position gauge.
func (m *Metrics) SetActive(n int) {
	if m == nil {
		return
	}
	m.activeCount.Set(float64(n))
}

// Handler serves the registry in Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
