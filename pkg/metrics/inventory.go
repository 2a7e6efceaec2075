package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "caskettrack"

// InventoryMetrics records scan, order and notification outcomes.
type InventoryMetrics struct {
	scans        *prometheus.CounterVec
	retries      *prometheus.CounterVec
	failures     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	orders       *prometheus.CounterVec
	notifyFailed *prometheus.CounterVec
}

// NewInventoryMetrics registers the inventory metrics on the provided registerer.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	scans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scans_total",
		Help:      "Barcode scans applied, by resulting action.",
	}, []string{"action"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "storage_retries_total",
		Help:      "Transactions retried after write-lock contention.",
	}, []string{"operation"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "storage_failures_total",
		Help:      "Storage operations that failed, by kind.",
	}, []string{"operation", "kind"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Duration of inventory operations including retries.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_total",
		Help:      "Order placements, by result.",
	}, []string{"result"})
	notifyFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_failed_total",
		Help:      "Inventory events that could not be published.",
	}, []string{"driver"})
	reg.MustRegister(scans, retries, failures, duration, orders, notifyFailed)
	return &InventoryMetrics{
		scans:        scans,
		retries:      retries,
		failures:     failures,
		duration:     duration,
		orders:       orders,
		notifyFailed: notifyFailed,
	}
}

// IncScan counts an applied scan.
func (m *InventoryMetrics) IncScan(action string) {
	if m == nil || m.scans == nil {
		return
	}
	m.scans.WithLabelValues(normalizeLabel(action)).Inc()
}

// IncRetry counts a contention retry of operation.
func (m *InventoryMetrics) IncRetry(operation string) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncFailure counts a failed operation; kind is "contention" or "persistence".
func (m *InventoryMetrics) IncFailure(operation, kind string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(operation), normalizeLabel(kind)).Inc()
}

// ObserveDuration records how long operation took.
func (m *InventoryMetrics) ObserveDuration(operation string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(d.Seconds())
}

// IncOrder counts an order placement result.
func (m *InventoryMetrics) IncOrder(result string) {
	if m == nil || m.orders == nil {
		return
	}
	m.orders.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncNotifyFailure counts an event a notification driver failed to publish.
func (m *InventoryMetrics) IncNotifyFailure(driver string) {
	if m == nil || m.notifyFailed == nil {
		return
	}
	m.notifyFailed.WithLabelValues(normalizeLabel(driver)).Inc()
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler exposes reg in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
