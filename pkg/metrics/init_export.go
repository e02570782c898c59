package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initExportMetrics() {
	r.SinkWritesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flownet_sink_writes_total",
			Help: "Total number of report sink writes",
		},
		[]string{"sink", "status"},
	)

	r.SinkWriteSeconds = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flownet_sink_write_duration_seconds",
			Help:    "Duration of report sink writes in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sink"},
	)
}
