// Package metrics exposes Prometheus instrumentation for the trading cycle
// and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alejandrodnm/polyclaw/internal/application/engine"
	"github.com/alejandrodnm/polyclaw/internal/domain"
)

// Metrics owns its registry so tests and multiple instances do not collide
// on the global default one.
type Metrics struct {
	reg *prometheus.Registry

	cycles        prometheus.Counter
	cycleFailures *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	entries       *prometheus.CounterVec
	exits         *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	triggers      prometheus.Counter
	balance       prometheus.Gauge
	positions     prometheus.Gauge
	totalValue    prometheus.Gauge
	markets       prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		cycles: f.NewCounter(prometheus.CounterOpts{
			Name: "polyclaw_cycles_total",
			Help: "Completed trading cycles",
		}),
		cycleFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "polyclaw_cycle_failures_total",
			Help: "Aborted trading cycles by stage",
		}, []string{"stage"}),
		cycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "polyclaw_cycle_duration_seconds",
			Help:    "Trading cycle duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		entries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "polyclaw_entries_total",
			Help: "Positions opened by strategy",
		}, []string{"strategy"}),
		exits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "polyclaw_exits_total",
			Help: "Positions closed by strategy and reason",
		}, []string{"strategy", "reason"}),
		rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "polyclaw_risk_rejections_total",
			Help: "Candidates rejected by the risk gate",
		}, []string{"reason"}),
		triggers: f.NewCounter(prometheus.CounterOpts{
			Name: "polyclaw_triggers_processed_total",
			Help: "Momentum triggers consumed",
		}),
		balance: f.NewGauge(prometheus.GaugeOpts{
			Name: "polyclaw_balance_usd",
			Help: "Cash balance after the last cycle",
		}),
		positions: f.NewGauge(prometheus.GaugeOpts{
			Name: "polyclaw_open_positions",
			Help: "Open positions after the last cycle",
		}),
		totalValue: f.NewGauge(prometheus.GaugeOpts{
			Name: "polyclaw_portfolio_value_usd",
			Help: "Cash plus marked-to-market positions after the last cycle",
		}),
		markets: f.NewGauge(prometheus.GaugeOpts{
			Name: "polyclaw_markets_scanned",
			Help: "Markets in the last snapshot",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "polyclaw_http_requests_total",
			Help: "HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "polyclaw_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"method", "path"}),
	}
}

// ObserveCycle implements engine.Recorder.
func (m *Metrics) ObserveCycle(res *engine.CycleResult, took time.Duration) {
	m.cycles.Inc()
	m.cycleDuration.Observe(took.Seconds())
	for _, a := range res.Actions {
		switch a.Kind {
		case domain.ActionEntry:
			m.entries.WithLabelValues(string(a.Strategy)).Inc()
		case domain.ActionExit:
			m.exits.WithLabelValues(string(a.Strategy), string(a.Reason)).Inc()
		}
	}
	for reason, n := range res.Rejections {
		m.rejections.WithLabelValues(reason).Add(float64(n))
	}
	if res.TriggerProcessed {
		m.triggers.Inc()
	}
	m.balance.Set(res.Balance)
	m.positions.Set(float64(res.PositionCount))
	m.totalValue.Set(res.Report.TotalValue)
	m.markets.Set(float64(res.Markets))
}

// CycleFailed implements engine.Recorder.
func (m *Metrics) CycleFailed(stage string) {
	m.cycleFailures.WithLabelValues(stage).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Middleware records request count and latency. path should be the route
// pattern, not the raw URL, to keep label cardinality bounded.
func (m *Metrics) Middleware(path func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			p := path(r)
			m.httpRequests.WithLabelValues(r.Method, p, strconv.Itoa(sw.status)).Inc()
			m.httpDuration.WithLabelValues(r.Method, p).Observe(time.Since(start).Seconds())
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

var _ engine.Recorder = (*Metrics)(nil)
