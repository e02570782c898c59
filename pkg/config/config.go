// Package config loads the run configuration from YAML, the environment and
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-flownet/pkg/validation"
)

const (
	SourcePostgres = "postgres"
	SourceSnapshot = "snapshot"

	TargetDir = "dir"
	TargetS3  = "s3"

	SinkOrphans  = "orphans"
	SinkFanOut   = "fanout"
	SinkWorkbook = "workbook"
	SinkConsole  = "console"
)

// Config is the complete run configuration
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Export  ExportConfig  `yaml:"export"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// SourceConfig selects where rows come from
type SourceConfig struct {
	Kind        string `yaml:"kind" validate:"required,oneof=postgres snapshot"`
	DatabaseURL string `yaml:"database_url"`
	MaxConns    int32  `yaml:"max_conns" validate:"min=0,max=64"`
	Snapshot    string `yaml:"snapshot"`
}

// ExportConfig selects sinks and where their files go
type ExportConfig struct {
	Target       string   `yaml:"target" validate:"required,oneof=dir s3"`
	Dir          string   `yaml:"dir"`
	S3           S3Config `yaml:"s3"`
	Sinks        []string `yaml:"sinks" validate:"dive,oneof=orphans fanout workbook console"`
	OrphansFile  string   `yaml:"orphans_file" validate:"required"`
	FanOutFile   string   `yaml:"fanout_file" validate:"required"`
	WorkbookFile string   `yaml:"workbook_file" validate:"required"`
	Delimiter    string   `yaml:"delimiter" validate:"len=1"`
}

// S3Config addresses an S3-compatible bucket
type S3Config struct {
	Bucket    string `yaml:"bucket" validate:"omitempty,bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// LogConfig controls the logger
type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`
}

// MetricsConfig controls metric output. An empty Textfile disables it.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Default returns the configuration used when no file is given. File names
// match the historical report names.
func Default() Config {
	return Config{
		Source: SourceConfig{
			Kind:     SourceSnapshot,
			MaxConns: 4,
			Snapshot: "snapshot.yaml",
		},
		Export: ExportConfig{
			Target:       TargetDir,
			Dir:          ".",
			Sinks:        []string{SinkConsole, SinkOrphans, SinkFanOut, SinkWorkbook},
			OrphansFile:  "task_4.csv",
			FanOutFile:   "task_5.json",
			WorkbookFile: "task_6.xlsx",
			Delimiter:    ";",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads a YAML file on top of the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; existing variables win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from environment variables looked up with lookup.
// Pass os.LookupEnv in production.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set("FLOWNET_DATABASE_URL", &c.Source.DatabaseURL)
	set("FLOWNET_SNAPSHOT", &c.Source.Snapshot)
	set("FLOWNET_OUTPUT_DIR", &c.Export.Dir)
	set("FLOWNET_S3_BUCKET", &c.Export.S3.Bucket)
	set("FLOWNET_S3_PREFIX", &c.Export.S3.Prefix)
	set("AWS_REGION", &c.Export.S3.Region)
	set("AWS_ENDPOINT", &c.Export.S3.Endpoint)
	set("AWS_ACCESS_KEY", &c.Export.S3.AccessKey)
	set("AWS_SECRET_KEY", &c.Export.S3.SecretKey)
	set("LOG_LEVEL", &c.Log.Level)
	set("FLOWNET_METRICS_TEXTFILE", &c.Metrics.Textfile)
}

// Validate checks struct tags and cross-field rules
func (c *Config) Validate() error {
	return validation.NewConfigValidator("Config").
		Struct("Source", c.Source).
		Struct("Export", c.Export).
		Struct("Log", c.Log).
		When(c.Source.Kind == SourcePostgres, func(cv *validation.ConfigValidator) {
			cv.Required("Source.DatabaseURL", c.Source.DatabaseURL)
		}).
		When(c.Source.Kind == SourceSnapshot, func(cv *validation.ConfigValidator) {
			cv.Required("Source.Snapshot", c.Source.Snapshot)
		}).
		When(c.Export.Target == TargetDir, func(cv *validation.ConfigValidator) {
			cv.Required("Export.Dir", c.Export.Dir)
		}).
		When(c.Export.Target == TargetS3, func(cv *validation.ConfigValidator) {
			cv.Required("Export.S3.Bucket", c.Export.S3.Bucket)
			cv.Required("Export.S3.Region", c.Export.S3.Region)
		}).
		Validate()
}

// Enabled reports whether sink is listed in Export.Sinks
func (c *ExportConfig) Enabled(sink string) bool {
	for _, s := range c.Sinks {
		if s == sink {
			return true
		}
	}
	return false
}
