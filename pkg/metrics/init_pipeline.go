package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPipelineMetrics() {
	r.PhaseDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flownet_phase_duration_seconds",
			Help:    "Duration of pipeline phases in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"phase"}, // units, capacities, streams, link, report, export
	)

	r.PhaseRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flownet_phase_runs_total",
			Help: "Total number of pipeline phase executions",
		},
		[]string{"phase", "status"}, // success, error
	)

	r.LastRunSuccess = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "flownet_last_run_success",
			Help: "Whether the last pipeline run succeeded (1=yes, 0=no)",
		},
	)
}

func (r *Registry) initNetworkMetrics() {
	r.EntitiesTotal = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flownet_entities_total",
			Help: "Number of entities registered in the network store",
		},
		[]string{"entity"}, // unit, stream
	)

	r.JunctionsLinkedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flownet_junctions_linked_total",
			Help: "Total number of junction rows linked",
		},
		[]string{"direction"}, // output, input
	)

	r.OrphanStreams = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "flownet_orphan_streams",
			Help: "Number of streams with no producer and no consumer",
		},
	)

	r.FanOutStreams = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "flownet_fanout_streams",
			Help: "Number of streams consumed by more than one unit",
		},
	)
}
