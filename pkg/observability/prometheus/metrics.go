package prometheus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/stokerio/stoker/pkg/pool"
)

var (
	// DefaultRegistry is the registry served by the ops endpoint.
	DefaultRegistry = prometheus.NewRegistry()

	// DefaultRegisterer labels everything with the service name.
	DefaultRegisterer = prometheus.WrapRegistererWith(prometheus.Labels{"service": "stoker"}, DefaultRegistry)

	metricsOnce sync.Once
	metrics     *Metrics
)

// Metrics holds all Prometheus metrics for the pool and the frontend.
type Metrics struct {
	// Frontend request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Pool metrics (synced from pool.Stats)
	PoolWorkers       prometheus.Gauge
	PoolQueueDepth    prometheus.Gauge
	PoolJobsSubmitted prometheus.Gauge
	PoolJobsCompleted prometheus.Gauge
	PoolJobFaults     prometheus.Gauge
}

// GetMetrics returns the global metrics instance.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = NewMetrics(DefaultRegisterer)
	})
	return metrics
}

// NewMetrics creates and registers the metrics collection.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = DefaultRegisterer
	}

	return &Metrics{
		RequestsTotal: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "stoker_requests_total",
				Help: "Total number of handled connections",
			},
			[]string{"route", "status"},
		),
		RequestDuration: promauto.With(registerer).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stoker_request_duration_seconds",
				Help:    "Connection handling duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "status"},
		),
		PoolWorkers: promauto.With(registerer).NewGauge(
			prometheus.GaugeOpts{
				Name: "stoker_pool_workers",
				Help: "Fixed number of pool workers",
			},
		),
		PoolQueueDepth: promauto.With(registerer).NewGauge(
			prometheus.GaugeOpts{
				Name: "stoker_pool_queue_depth",
				Help: "Messages currently waiting on the shared queue",
			},
		),
		PoolJobsSubmitted: promauto.With(registerer).NewGauge(
			prometheus.GaugeOpts{
				Name: "stoker_pool_jobs_submitted",
				Help: "Total jobs accepted by the pool",
			},
		),
		PoolJobsCompleted: promauto.With(registerer).NewGauge(
			prometheus.GaugeOpts{
				Name: "stoker_pool_jobs_completed",
				Help: "Total jobs run to completion",
			},
		),
		PoolJobFaults: promauto.With(registerer).NewGauge(
			prometheus.GaugeOpts{
				Name: "stoker_pool_job_faults",
				Help: "Total jobs that panicked (isolated)",
			},
		),
	}
}

// RecordRequest records the outcome of one handled connection.
func (m *Metrics) RecordRequest(route string, status string, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(route, status).Inc()
	m.RequestDuration.WithLabelValues(route, status).Observe(elapsed.Seconds())
}

// SyncPoolStats publishes a pool stats snapshot.
func (m *Metrics) SyncPoolStats(s pool.Stats) {
	m.PoolWorkers.Set(float64(s.Workers))
	m.PoolQueueDepth.Set(float64(s.QueuedJobs))
	m.PoolJobsSubmitted.Set(float64(s.SubmittedJobs))
	m.PoolJobsCompleted.Set(float64(s.CompletedJobs))
	m.PoolJobFaults.Set(float64(s.FaultedJobs))
}
