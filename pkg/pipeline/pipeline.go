// Package pipeline runs one load, link, analyze and export pass over a
// process network.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-flownet/pkg/analytics"
	"github.com/dd0wney/cluso-flownet/pkg/export"
	"github.com/dd0wney/cluso-flownet/pkg/logging"
	"github.com/dd0wney/cluso-flownet/pkg/metrics"
	"github.com/dd0wney/cluso-flownet/pkg/network"
	"github.com/dd0wney/cluso-flownet/pkg/source"
)

// Phase names, also used as metric labels.
const (
	PhaseUnits      = "units"
	PhaseCapacities = "capacities"
	PhaseStreams    = "streams"
	PhaseLink       = "link"
	PhaseReport     = "report"
	PhaseExport     = "export"
)

var ErrNoSource = errors.New("pipeline: no source configured")

// Options configures a run. Logger and Metrics may be nil.
type Options struct {
	Source  source.Source
	Sinks   []export.Sink
	Logger  logging.Logger
	Metrics *metrics.Registry
	RunID   string
}

type runner struct {
	src     source.Source
	logger  logging.Logger
	metrics *metrics.Registry
	store   *network.Store
	loader  *network.Loader
	sinks   []export.Sink
	report  *analytics.Report
	closed  bool
}

// Run loads units, capacities and streams from the source, links the
// junctions, builds the report and hands it to every sink. A load or link
// failure aborts the run before any sink is written. The source is closed
// once the junction rows are read, before linking, and on any earlier
// failure.
func Run(ctx context.Context, opts Options) (_ *analytics.Report, err error) {
	if opts.Source == nil {
		return nil, ErrNoSource
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.With(logging.RunID(runID), logging.Component("pipeline"))
	reg := opts.Metrics
	if reg == nil {
		reg = metrics.NewRegistry()
	}

	store := network.NewStore()
	r := &runner{
		src:     opts.Source,
		logger:  logger,
		metrics: reg,
		store:   store,
		loader:  network.NewLoader(store),
		sinks:   opts.Sinks,
	}

	run := logging.StartTimer(logger, "run")
	defer func() {
		r.closeSource()
		reg.RecordRun(time.Now(), err)
		if err != nil {
			run.EndError(err)
		} else {
			run.End()
		}
	}()

	steps := []struct {
		phase string
		fn    func(context.Context) (int, error)
	}{
		{PhaseUnits, r.loadUnits},
		{PhaseCapacities, r.loadCapacities},
		{PhaseStreams, r.loadStreams},
		{PhaseLink, r.link},
		{PhaseReport, r.buildReport},
		{PhaseExport, r.export},
	}

	for _, step := range steps {
		if err = r.phase(ctx, step.phase, step.fn); err != nil {
			return nil, err
		}
	}
	return r.report, nil
}

func (r *runner) phase(ctx context.Context, name string, fn func(context.Context) (int, error)) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	timer := logging.StartTimer(r.logger, "phase "+name, logging.Phase(name))
	n, err := fn(ctx)
	r.metrics.RecordPhase(name, timer.Elapsed(), err)
	if err != nil {
		timer.EndError(err)
		return fmt.Errorf("%s: %w", name, err)
	}
	timer.End(logging.Count(n))
	return nil
}

func (r *runner) loadUnits(ctx context.Context) (int, error) {
	rows, err := r.src.Units(ctx)
	if err != nil {
		return 0, err
	}
	if err := r.loader.LoadUnits(rows); err != nil {
		return 0, err
	}
	r.debugUnits()
	return len(rows), nil
}

func (r *runner) loadCapacities(ctx context.Context) (int, error) {
	rows, err := r.src.Capacities(ctx)
	if err != nil {
		return 0, err
	}
	if err := r.loader.LoadCapacities(rows); err != nil {
		return 0, err
	}
	r.debugUnits()
	return len(rows), nil
}

func (r *runner) loadStreams(ctx context.Context) (int, error) {
	rows, err := r.src.Streams(ctx)
	if err != nil {
		return 0, err
	}
	if err := r.loader.LoadStreams(rows); err != nil {
		return 0, err
	}
	r.debugStreams()
	return len(rows), nil
}

func (r *runner) link(ctx context.Context) (int, error) {
	rows, err := r.src.Junctions(ctx)
	r.closeSource()
	if err != nil {
		return 0, err
	}
	stats, err := network.NewLinker(r.store).Link(rows)
	if err != nil {
		return 0, err
	}
	r.metrics.RecordLink(stats.Outputs, stats.Inputs)
	r.logger.Debug("junctions linked",
		logging.Int("outputs", stats.Outputs),
		logging.Int("inputs", stats.Inputs))
	r.debugUnits()
	r.debugStreams()
	return len(rows), nil
}

// closeSource releases the source at most once. A close failure does not
// fail the run.
func (r *runner) closeSource() {
	if r.closed {
		return
	}
	r.closed = true
	if err := r.src.Close(); err != nil {
		r.logger.Warn("source close failed", logging.Error(err))
	}
}

func (r *runner) debugUnits() {
	if !r.logger.Enabled(logging.DebugLevel) {
		return
	}
	for _, u := range r.store.Units() {
		r.logger.Debug("unit", logging.Unit(u.Name), logging.String("detail", u.String()))
	}
}

func (r *runner) debugStreams() {
	if !r.logger.Enabled(logging.DebugLevel) {
		return
	}
	for _, s := range r.store.Streams() {
		r.logger.Debug("stream", logging.Stream(s.Name), logging.String("detail", s.String()))
	}
}

func (r *runner) buildReport(context.Context) (int, error) {
	engine, err := analytics.New(r.store)
	if err != nil {
		return 0, err
	}
	report := engine.Report()
	r.report = report
	r.metrics.RecordNetwork(report.UnitCount, report.StreamCount, len(report.Orphans), len(report.FanOut))

	if len(report.Orphans) > 0 {
		r.logger.Warn("orphan streams found", logging.Count(len(report.Orphans)))
	}
	return report.UnitCount + report.StreamCount, nil
}

func (r *runner) export(ctx context.Context) (int, error) {
	wrapped := make([]export.Sink, len(r.sinks))
	for i, s := range r.sinks {
		wrapped[i] = &instrumentedSink{Sink: s, logger: r.logger, metrics: r.metrics}
	}
	return len(wrapped), export.WriteAll(ctx, r.report, wrapped...)
}

// instrumentedSink records a metric and a log entry for every write
type instrumentedSink struct {
	export.Sink
	logger  logging.Logger
	metrics *metrics.Registry
}

func (s *instrumentedSink) Write(ctx context.Context, report *analytics.Report) error {
	timer := logging.StartTimer(s.logger, "sink write", logging.Sink(s.Name()))
	err := s.Sink.Write(ctx, report)
	s.metrics.RecordSinkWrite(s.Name(), timer.Elapsed(), err)
	if err != nil {
		timer.EndError(err)
		return err
	}
	timer.End()
	return nil
}
