package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var metric dto.Metric
	if err := g.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Gauge.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.PhaseDuration == nil || r.PhaseRunsTotal == nil {
		t.Error("pipeline metrics not initialized")
	}
	if r.EntitiesTotal == nil || r.OrphanStreams == nil || r.FanOutStreams == nil {
		t.Error("network metrics not initialized")
	}
	if r.SinkWritesTotal == nil {
		t.Error("SinkWritesTotal not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordPhase(t *testing.T) {
	r := NewRegistry()

	r.RecordPhase("link", 10*time.Millisecond, nil)
	r.RecordPhase("link", 20*time.Millisecond, nil)
	r.RecordPhase("link", 5*time.Millisecond, errors.New("dangling"))

	if got := counterValue(t, r.PhaseRunsTotal.WithLabelValues("link", StatusSuccess)); got != 2 {
		t.Errorf("success counter = %v, want 2", got)
	}
	if got := counterValue(t, r.PhaseRunsTotal.WithLabelValues("link", StatusError)); got != 1 {
		t.Errorf("error counter = %v, want 1", got)
	}

	histogram, err := r.PhaseDuration.GetMetricWithLabelValues("link")
	if err != nil {
		t.Fatalf("Failed to get histogram: %v", err)
	}
	var metric dto.Metric
	if err := histogram.(prometheus.Histogram).Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 3 {
		t.Errorf("Sample count = %v, want 3", metric.Histogram.GetSampleCount())
	}
	sum := metric.Histogram.GetSampleSum()
	if sum < 0.034 || sum > 0.036 {
		t.Errorf("Sample sum = %v, want ~0.035", sum)
	}
}

func TestRecordNetwork(t *testing.T) {
	r := NewRegistry()
	r.RecordNetwork(2, 3, 1, 0)

	if got := gaugeValue(t, r.EntitiesTotal.WithLabelValues("unit")); got != 2 {
		t.Errorf("units = %v, want 2", got)
	}
	if got := gaugeValue(t, r.EntitiesTotal.WithLabelValues("stream")); got != 3 {
		t.Errorf("streams = %v, want 3", got)
	}
	if got := gaugeValue(t, r.OrphanStreams); got != 1 {
		t.Errorf("orphans = %v, want 1", got)
	}

	r.RecordNetwork(2, 3, 0, 4)
	if got := gaugeValue(t, r.FanOutStreams); got != 4 {
		t.Errorf("fan-out = %v, want 4", got)
	}
}

func TestRecordLink(t *testing.T) {
	r := NewRegistry()
	r.RecordLink(2, 3)
	r.RecordLink(1, 0)

	if got := counterValue(t, r.JunctionsLinkedTotal.WithLabelValues("output")); got != 3 {
		t.Errorf("outputs = %v, want 3", got)
	}
	if got := counterValue(t, r.JunctionsLinkedTotal.WithLabelValues("input")); got != 3 {
		t.Errorf("inputs = %v, want 3", got)
	}
}

func TestRecordSinkWrite(t *testing.T) {
	r := NewRegistry()
	r.RecordSinkWrite("orphans", time.Millisecond, nil)
	r.RecordSinkWrite("workbook", time.Millisecond, errors.New("disk full"))

	if got := counterValue(t, r.SinkWritesTotal.WithLabelValues("orphans", StatusSuccess)); got != 1 {
		t.Errorf("orphans success = %v, want 1", got)
	}
	if got := counterValue(t, r.SinkWritesTotal.WithLabelValues("workbook", StatusError)); got != 1 {
		t.Errorf("workbook error = %v, want 1", got)
	}
}

func TestRecordRun(t *testing.T) {
	r := NewRegistry()
	finished := time.Unix(1700000000, 0)

	r.RecordRun(finished, nil)
	if got := gaugeValue(t, r.LastRunSuccess); got != 1 {
		t.Errorf("LastRunSuccess = %v, want 1", got)
	}
	if got := gaugeValue(t, r.LastRunTimestamp); got != 1700000000 {
		t.Errorf("LastRunTimestamp = %v", got)
	}
	if gaugeValue(t, r.GoRoutines) <= 0 {
		t.Error("GoRoutines should be positive")
	}

	r.RecordRun(finished, errors.New("boom"))
	if got := gaugeValue(t, r.LastRunSuccess); got != 0 {
		t.Errorf("LastRunSuccess = %v, want 0", got)
	}
}

func TestMetricNaming(t *testing.T) {
	r := NewRegistry()
	r.RecordPhase("units", time.Millisecond, nil)

	metrics, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	if len(metrics) == 0 {
		t.Fatal("No metrics registered")
	}
	for _, m := range metrics {
		if !strings.HasPrefix(m.GetName(), "flownet_") {
			t.Errorf("Metric %s does not have flownet_ prefix", m.GetName())
		}
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.RecordNetwork(2, 3, 1, 0)
	r.RecordPhase("link", time.Millisecond, nil)

	path := filepath.Join(t.TempDir(), "flownet.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`flownet_orphan_streams 1`,
		`flownet_entities_total{entity="stream"} 3`,
		`flownet_phase_runs_total{phase="link",status="success"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("textfile missing %q", want)
		}
	}

	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				r.RecordSinkWrite("console", time.Microsecond, nil)
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	if got := counterValue(t, r.SinkWritesTotal.WithLabelValues("console", StatusSuccess)); got != 1000 {
		t.Errorf("Counter = %v, want 1000", got)
	}
}

func BenchmarkRecordPhase(b *testing.B) {
	r := NewRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RecordPhase("link", time.Millisecond, nil)
	}
}
