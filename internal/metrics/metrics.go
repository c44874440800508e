// Package metrics provides Prometheus metrics for the console: import runs,
// rows and provisioned accounts (through core.Observer) and HTTP requests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/masterconsole/internal/core"
)

const namespace = "masterconsole"

// Metrics holds every collector on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	importsTotal    *prometheus.CounterVec
	importDuration  *prometheus.HistogramVec
	importsInFlight *prometheus.GaugeVec
	rowsWritten     *prometheus.CounterVec
	rowsSkipped     *prometheus.CounterVec
	accountsCreated *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers the collectors, plus the Go runtime and process collectors,
// on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		importsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "import",
				Name:      "runs_total",
				Help:      "Total number of finished import runs by entity and phase",
			},
			[]string{"entity", "phase"},
		),
		importDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "import",
				Name:      "run_duration_seconds",
				Help:      "Duration of import runs in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"entity"},
		),
		importsInFlight: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "import",
				Name:      "runs_in_flight",
				Help:      "Number of import runs currently executing",
			},
			[]string{"entity"},
		),
		rowsWritten: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "import",
				Name:      "rows_written_total",
				Help:      "Total number of documents upserted by imports",
			},
			[]string{"entity"},
		),
		rowsSkipped: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "import",
				Name:      "rows_skipped_total",
				Help:      "Total number of rows skipped for a missing code or required value",
			},
			[]string{"entity"},
		),
		accountsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "identity",
				Name:      "accounts_created_total",
				Help:      "Total number of sign-in accounts created by imports",
			},
			[]string{"entity"},
		),

		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests by route and status",
			},
			[]string{"method", "route", "status_code"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ImportStarted(entity string) {
	m.importsInFlight.WithLabelValues(entity).Inc()
}

func (m *Metrics) ImportFinished(entity string, phase core.Phase, d time.Duration) {
	m.importsInFlight.WithLabelValues(entity).Dec()
	m.importsTotal.WithLabelValues(entity, string(phase)).Inc()
	m.importDuration.WithLabelValues(entity).Observe(d.Seconds())
}

func (m *Metrics) RowsWritten(entity string, n int) {
	m.rowsWritten.WithLabelValues(entity).Add(float64(n))
}

func (m *Metrics) RowsSkipped(entity string, n int) {
	m.rowsSkipped.WithLabelValues(entity).Add(float64(n))
}

func (m *Metrics) AccountsCreated(entity string, n int) {
	m.accountsCreated.WithLabelValues(entity).Add(float64(n))
}

var _ core.Observer = (*Metrics)(nil)

// Middleware records request counts and latency keyed by the chi route
// pattern, so /list/{entity} is one series rather than one per entity.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Unwrap exposes the underlying writer so http.ResponseController can
// flush event streams.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Flush forwards to the underlying writer when it supports flushing.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
