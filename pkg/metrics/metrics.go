package metrics

import (
	"fmt"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// RecordPhase records one pipeline phase execution
func (r *Registry) RecordPhase(phase string, duration time.Duration, err error) {
	r.PhaseRunsTotal.WithLabelValues(phase, status(err)).Inc()
	r.PhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordNetwork records the size of a linked network and its query results
func (r *Registry) RecordNetwork(units, streams, orphans, fanOut int) {
	r.EntitiesTotal.WithLabelValues("unit").Set(float64(units))
	r.EntitiesTotal.WithLabelValues("stream").Set(float64(streams))
	r.OrphanStreams.Set(float64(orphans))
	r.FanOutStreams.Set(float64(fanOut))
}

// RecordLink records linked junction counts by direction
func (r *Registry) RecordLink(outputs, inputs int) {
	r.JunctionsLinkedTotal.WithLabelValues("output").Add(float64(outputs))
	r.JunctionsLinkedTotal.WithLabelValues("input").Add(float64(inputs))
}

// RecordSinkWrite records a report sink write
func (r *Registry) RecordSinkWrite(sink string, duration time.Duration, err error) {
	r.SinkWritesTotal.WithLabelValues(sink, status(err)).Inc()
	r.SinkWriteSeconds.WithLabelValues(sink).Observe(duration.Seconds())
}

// RecordRun marks the end of a pipeline run
func (r *Registry) RecordRun(finished time.Time, err error) {
	if err != nil {
		r.LastRunSuccess.Set(0)
	} else {
		r.LastRunSuccess.Set(1)
	}
	r.LastRunTimestamp.Set(float64(finished.Unix()))
	r.UpdateSystemMetrics()
}

// UpdateSystemMetrics samples runtime statistics
func (r *Registry) UpdateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
}

// WriteTextfile writes every metric to path in the text exposition format,
// for pickup by the node exporter textfile collector. The file is replaced
// atomically.
func (r *Registry) WriteTextfile(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
