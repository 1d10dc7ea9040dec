// Package metrics wires up gridview's Prometheus instrumentation,
// grounded on dd0wney-graphdb's pkg/metrics.Registry: a struct of
// promauto-registered collectors built in a constructor, with small
// Record* convenience methods instead of scattering label calls
// through business logic.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every metric gridview exposes.
type Registry struct {
	registry *prometheus.Registry

	SliceRequestsTotal   *prometheus.CounterVec
	SliceRequestDuration *prometheus.HistogramVec
	SliceRowsServed      prometheus.Histogram

	DispatchErrorsTotal *prometheus.CounterVec

	IndexRebuildsTotal   *prometheus.CounterVec
	IndexRebuildDuration prometheus.Histogram
	OpenFilesGauge       prometheus.Gauge

	WSConnectionsActive prometheus.Gauge
}

// NewRegistry builds a fresh Registry with its own prometheus.Registry
// (never the global default — multiple gridview instances in one
// process, as in tests, must not collide).
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{registry: reg}

	r.SliceRequestsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridview_slice_requests_total",
			Help: "Total number of slice requests handled, by outcome.",
		},
		[]string{"outcome"},
	)

	r.SliceRequestDuration = promauto.With(reg).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridview_slice_request_duration_seconds",
			Help:    "Slice request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	r.SliceRowsServed = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gridview_slice_rows_served",
			Help:    "Number of rows returned per slice request.",
			Buckets: []float64{1, 10, 50, 100, 250, 500, 1000},
		},
	)

	r.DispatchErrorsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridview_dispatch_errors_total",
			Help: "Total number of malformed or failed dispatcher requests, by reason.",
		},
		[]string{"reason"},
	)

	r.IndexRebuildsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridview_index_rebuilds_total",
			Help: "Total number of sparse row index rebuilds, by outcome.",
		},
		[]string{"outcome"},
	)

	r.IndexRebuildDuration = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gridview_index_rebuild_duration_seconds",
			Help:    "Time taken to rebuild a sparse row index.",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 300},
		},
	)

	r.OpenFilesGauge = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "gridview_open_files",
			Help: "Number of data files currently tracked in the catalog.",
		},
	)

	r.WSConnectionsActive = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "gridview_ws_connections_active",
			Help: "Number of currently open WebSocket connections.",
		},
	)

	return r
}

// PrometheusRegistry exposes the underlying registry for use with an
// HTTP handler (e.g. promhttp.HandlerFor).
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// RecordSlice records a completed slice request.
func (r *Registry) RecordSlice(outcome string, duration time.Duration, rows int) {
	r.SliceRequestsTotal.WithLabelValues(outcome).Inc()
	r.SliceRequestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	r.SliceRowsServed.Observe(float64(rows))
}

// RecordDispatchError records a malformed or failed dispatch.
func (r *Registry) RecordDispatchError(reason string) {
	r.DispatchErrorsTotal.WithLabelValues(reason).Inc()
}

// RecordRebuild records a completed index rebuild.
func (r *Registry) RecordRebuild(outcome string, duration time.Duration) {
	r.IndexRebuildsTotal.WithLabelValues(outcome).Inc()
	r.IndexRebuildDuration.Observe(duration.Seconds())
}

// SetOpenFiles sets the current open-file gauge.
func (r *Registry) SetOpenFiles(n int) {
	r.OpenFilesGauge.Set(float64(n))
}
