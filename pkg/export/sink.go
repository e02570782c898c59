package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-flownet/pkg/analytics"
)

// Sink renders one view of a report. Sinks must not modify the report.
type Sink interface {
	Name() string
	Write(ctx context.Context, report *analytics.Report) error
}

// WriteAll runs every sink concurrently and returns the first error.
func WriteAll(ctx context.Context, report *analytics.Report, sinks ...Sink) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, sink := range sinks {
		g.Go(func() error {
			if err := sink.Write(ctx, report); err != nil {
				return fmt.Errorf("sink %s: %w", sink.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// writeArtifact creates name on target, runs fn and closes the writer. A
// close error is reported when fn succeeded.
func writeArtifact(ctx context.Context, target Target, name string, fn func(io.Writer) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	w, err := target.Create(ctx, name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(w)
}

// OrphanCSVSink writes orphaned streams as "id<delim>name" rows without a
// header.
type OrphanCSVSink struct {
	Target    Target
	File      string
	Delimiter rune
}

func (s *OrphanCSVSink) Name() string { return "orphans" }

func (s *OrphanCSVSink) Write(ctx context.Context, report *analytics.Report) error {
	return writeArtifact(ctx, s.Target, s.File, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if s.Delimiter != 0 {
			cw.Comma = s.Delimiter
		}
		for _, o := range report.Orphans {
			if err := cw.Write([]string{strconv.FormatInt(o.ID, 10), o.Name}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// FanOutJSONSink writes the fan-out map as a JSON object keyed by stream name
type FanOutJSONSink struct {
	Target Target
	File   string
}

func (s *FanOutJSONSink) Name() string { return "fanout" }

func (s *FanOutJSONSink) Write(ctx context.Context, report *analytics.Report) error {
	fanOut := report.FanOut
	if fanOut == nil {
		fanOut = map[string][]string{}
	}
	return writeArtifact(ctx, s.Target, s.File, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(fanOut)
	})
}
