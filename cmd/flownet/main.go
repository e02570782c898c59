// Command flownet loads a process network snapshot, links it, and writes the
// orphan, fan-out and per-unit reports.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dd0wney/cluso-flownet/pkg/config"
	"github.com/dd0wney/cluso-flownet/pkg/export"
	"github.com/dd0wney/cluso-flownet/pkg/health"
	"github.com/dd0wney/cluso-flownet/pkg/logging"
	"github.com/dd0wney/cluso-flownet/pkg/metrics"
	"github.com/dd0wney/cluso-flownet/pkg/pipeline"
	"github.com/dd0wney/cluso-flownet/pkg/source"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.LookupEnv); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "flownet: %v\n", err)
		}
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	envFile     string
	snapshot    string
	databaseURL string
	outDir      string
	sinks       string
	logLevel    string
	textfile    string
	dump        string
	check       bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("flownet", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&opts.envFile, "env", ".env", "dotenv file loaded before the environment is read")
	fs.StringVar(&opts.snapshot, "snapshot", "", "read rows from this YAML snapshot")
	fs.StringVar(&opts.databaseURL, "database-url", "", "read rows from this PostgreSQL database")
	fs.StringVar(&opts.outDir, "out", "", "output directory for report files")
	fs.StringVar(&opts.sinks, "sinks", "", "comma-separated sinks: orphans,fanout,workbook,console")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&opts.textfile, "metrics-textfile", "", "write Prometheus metrics to this file after the run")
	fs.StringVar(&opts.dump, "dump", "", "write the source rows to this YAML snapshot and exit")
	fs.BoolVar(&opts.check, "check", false, "run preflight checks, print them as JSON and exit")
	err := fs.Parse(args)
	return opts, err
}

// loadConfig layers defaults, the config file, the environment and flags, in
// that order.
func loadConfig(opts options, lookup func(string) (string, bool)) (config.Config, error) {
	if err := config.LoadEnv(opts.envFile); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv(lookup)

	if opts.snapshot != "" {
		cfg.Source.Kind = config.SourceSnapshot
		cfg.Source.Snapshot = opts.snapshot
	}
	if opts.databaseURL != "" {
		cfg.Source.Kind = config.SourcePostgres
		cfg.Source.DatabaseURL = opts.databaseURL
	}
	if opts.outDir != "" {
		cfg.Export.Target = config.TargetDir
		cfg.Export.Dir = opts.outDir
	}
	if opts.sinks != "" {
		cfg.Export.Sinks = splitList(opts.sinks)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.textfile != "" {
		cfg.Metrics.Textfile = opts.textfile
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, lookup func(string) (string, bool)) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts, lookup)
	if err != nil {
		return err
	}

	logger := logging.NewJSONLogger(stderr, logging.ParseLevel(cfg.Log.Level)).
		With(logging.Component("flownet"))

	src, err := source.Open(ctx, cfg.Source)
	if err != nil {
		logger.Error("failed to open source", logging.String("kind", cfg.Source.Kind), logging.Error(err))
		return err
	}
	defer src.Close()

	if opts.dump != "" {
		return dumpSnapshot(ctx, src, opts.dump, logger)
	}
	if opts.check {
		return preflight(ctx, cfg, src, stdout)
	}

	target, err := export.NewTarget(ctx, cfg.Export)
	if err != nil {
		logger.Error("failed to create export target", logging.String("target", cfg.Export.Target), logging.Error(err))
		return err
	}

	reg := metrics.DefaultRegistry()
	_, runErr := pipeline.Run(ctx, pipeline.Options{
		Source:  src,
		Sinks:   export.NewSinks(cfg.Export, target, stdout),
		Logger:  logger,
		Metrics: reg,
	})

	if cfg.Metrics.Textfile != "" {
		if err := reg.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("failed to write metrics", logging.Path(cfg.Metrics.Textfile), logging.Error(err))
		}
	}
	return runErr
}

func dumpSnapshot(ctx context.Context, src source.Source, path string, logger logging.Logger) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := source.Dump(ctx, src, f); err != nil {
		return err
	}
	logger.Info("snapshot written", logging.Path(path))
	return nil
}

func preflight(ctx context.Context, cfg config.Config, src source.Source, stdout io.Writer) error {
	checker := health.NewChecker()
	if pg, ok := src.(*source.PostgresSource); ok {
		checker.Register("database", health.PingCheck(pg.Ping))
	}
	checker.Register("units", health.CountCheck(func(ctx context.Context) (int, error) {
		rows, err := src.Units(ctx)
		return len(rows), err
	}))
	checker.Register("streams", health.CountCheck(func(ctx context.Context) (int, error) {
		rows, err := src.Streams(ctx)
		return len(rows), err
	}))
	if cfg.Export.Target == config.TargetDir {
		checker.Register("output", health.DirWritableCheck(cfg.Export.Dir))
	}

	resp := checker.Run(ctx)
	if err := resp.WriteJSON(stdout); err != nil {
		return err
	}
	if !resp.Healthy() {
		return fmt.Errorf("preflight checks failed: %s", resp.Status)
	}
	return nil
}
