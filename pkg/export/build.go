package export

import (
	"context"
	"io"
	"unicode/utf8"

	"github.com/dd0wney/cluso-flownet/pkg/config"
)

// NewTarget builds the artifact target named by cfg.Target
func NewTarget(ctx context.Context, cfg config.ExportConfig) (Target, error) {
	if cfg.Target == config.TargetS3 {
		client, err := NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return NewS3Target(client, cfg.S3.Bucket, cfg.S3.Prefix), nil
	}
	return NewDirTarget(cfg.Dir), nil
}

// NewSinks builds the sinks enabled in cfg, in the order they are listed.
// Repeated names are ignored. Console output goes to console.
func NewSinks(cfg config.ExportConfig, target Target, console io.Writer) []Sink {
	delim, _ := utf8.DecodeRuneInString(cfg.Delimiter)
	if delim == utf8.RuneError {
		delim = ';'
	}

	sinks := make([]Sink, 0, len(cfg.Sinks))
	seen := make(map[string]bool, len(cfg.Sinks))
	for _, name := range cfg.Sinks {
		if seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case config.SinkOrphans:
			sinks = append(sinks, &OrphanCSVSink{Target: target, File: cfg.OrphansFile, Delimiter: delim})
		case config.SinkFanOut:
			sinks = append(sinks, &FanOutJSONSink{Target: target, File: cfg.FanOutFile})
		case config.SinkWorkbook:
			sinks = append(sinks, &WorkbookSink{Target: target, File: cfg.WorkbookFile})
		case config.SinkConsole:
			sinks = append(sinks, &ConsoleSink{Out: console})
		}
	}
	return sinks
}
