package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Pipeline Metrics
	PhaseDuration  *prometheus.HistogramVec
	PhaseRunsTotal *prometheus.CounterVec
	LastRunSuccess prometheus.Gauge

	// Network Metrics
	EntitiesTotal        *prometheus.GaugeVec
	JunctionsLinkedTotal *prometheus.CounterVec
	OrphanStreams        prometheus.Gauge
	FanOutStreams        prometheus.Gauge

	// Export Metrics
	SinkWritesTotal  *prometheus.CounterVec
	SinkWriteSeconds *prometheus.HistogramVec

	// System Metrics
	LastRunTimestamp prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.Mutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initPipelineMetrics()
	r.initNetworkMetrics()
	r.initExportMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
