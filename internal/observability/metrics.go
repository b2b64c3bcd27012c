package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exported on /metrics.
type Metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	errors        *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	stockUsed     *prometheus.CounterVec
	stockRefilled *prometheus.CounterVec
	depletions    *prometheus.CounterVec
	importRows    *prometheus.CounterVec
}

// NewMetrics registers collectors on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Error envelopes rendered by code.",
		}, []string{"route", "method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		stockUsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_usage_units_total",
			Help: "Units debited from stock items.",
		}, []string{"department"}),
		stockRefilled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_refills_total",
			Help: "Refill operations applied to stock items.",
		}, []string{"department"}),
		depletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_depletions_total",
			Help: "Debits that left an item at zero.",
		}, []string{"department"}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_import_rows_total",
			Help: "Bulk import rows by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.errors, m.latency,
		m.stockUsed, m.stockRefilled, m.depletions, m.importRows,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordUsage counts a successful debit.
func (m *Metrics) RecordUsage(department string, amount int64, depleted bool) {
	if m == nil {
		return
	}
	m.stockUsed.WithLabelValues(department).Add(float64(amount))
	if depleted {
		m.depletions.WithLabelValues(department).Inc()
	}
}

// RecordRefill counts a refill.
func (m *Metrics) RecordRefill(department string) {
	if m == nil {
		return
	}
	m.stockRefilled.WithLabelValues(department).Inc()
}

// RecordImportRow counts one bulk import row outcome.
func (m *Metrics) RecordImportRow(kind, outcome string) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues(kind, outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
