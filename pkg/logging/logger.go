// Package logging provides the structured JSON logger used by the pipeline
// and the command line tool.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Level represents a log level
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of a log level
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string to a Level. Unknown values map to InfoLevel.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Logger is the interface for structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With creates a child logger with the given fields pre-set
	With(fields ...Field) Logger
	// Enabled reports whether messages at level are written
	Enabled(level Level) bool
}

// Entry is one JSON log line
type Entry struct {
	Time    string         `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// JSONLogger writes one JSON object per line. Child loggers created with
// With share the parent's writer and lock.
type JSONLogger struct {
	out    *syncWriter
	level  Level
	fields []Field
	now    func() time.Time
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewJSONLogger creates a logger that writes entries at or above level to w
func NewJSONLogger(w io.Writer, level Level) *JSONLogger {
	return &JSONLogger{
		out:   &syncWriter{w: w},
		level: level,
		now:   time.Now,
	}
}

func (l *JSONLogger) log(level Level, msg string, fields []Field) {
	if !l.Enabled(level) {
		return
	}

	entry := Entry{
		Time:    l.now().UTC().Format(time.RFC3339Nano),
		Level:   level.String(),
		Message: msg,
	}
	if n := len(l.fields) + len(fields); n > 0 {
		entry.Fields = make(map[string]any, n)
		for _, f := range l.fields {
			entry.Fields[f.Key] = f.Value
		}
		for _, f := range fields {
			entry.Fields[f.Key] = f.Value
		}
	}

	data, err := json.Marshal(entry)

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	if err != nil {
		fmt.Fprintf(l.out.w, "[ERROR] failed to marshal log entry %q: %v\n", msg, err)
		return
	}
	l.out.w.Write(append(data, '\n'))
}

func (l *JSONLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *JSONLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields) }
func (l *JSONLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields) }
func (l *JSONLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

// Enabled reports whether messages at level are written
func (l *JSONLogger) Enabled(level Level) bool {
	return level >= l.level
}

// With creates a child logger with the given fields pre-set
func (l *JSONLogger) With(fields ...Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &JSONLogger{
		out:    l.out,
		level:  l.level,
		fields: merged,
		now:    l.now,
	}
}

// NopLogger discards everything. Useful in tests.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field)     {}
func (NopLogger) Info(string, ...Field)      {}
func (NopLogger) Warn(string, ...Field)      {}
func (NopLogger) Error(string, ...Field)     {}
func (n NopLogger) With(...Field) Logger     { return n }
func (NopLogger) Enabled(Level) bool         { return false }

// NewNopLogger creates a logger that discards all output
func NewNopLogger() Logger {
	return NopLogger{}
}

// TimedOperation measures the duration of a pipeline step
type TimedOperation struct {
	logger Logger
	msg    string
	start  time.Time
	fields []Field
}

// StartTimer begins timing an operation
func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{
		logger: logger,
		msg:    msg,
		start:  time.Now(),
		fields: fields,
	}
}

// Elapsed returns the time since the operation started
func (t *TimedOperation) Elapsed() time.Duration {
	return time.Since(t.start)
}

// End logs the operation at info level with its latency and returns it
func (t *TimedOperation) End(fields ...Field) time.Duration {
	elapsed := t.Elapsed()
	t.logger.Info(t.msg, t.collect(elapsed, fields)...)
	return elapsed
}

// EndError logs the operation as failed with its latency and returns it
func (t *TimedOperation) EndError(err error, fields ...Field) time.Duration {
	elapsed := t.Elapsed()
	t.logger.Error(t.msg+" failed", t.collect(elapsed, append(fields, Error(err)))...)
	return elapsed
}

func (t *TimedOperation) collect(elapsed time.Duration, extra []Field) []Field {
	all := make([]Field, 0, len(t.fields)+len(extra)+1)
	all = append(all, t.fields...)
	all = append(all, extra...)
	return append(all, Latency(elapsed))
}
