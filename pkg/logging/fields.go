package logging

import (
	"time"
)

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Domain field helpers

func Component(name string) Field { return String("component", name) }
func RunID(id string) Field       { return String("run_id", id) }
func Phase(name string) Field     { return String("phase", name) }
func Unit(name string) Field      { return String("unit", name) }
func Stream(name string) Field    { return String("stream", name) }
func Sink(name string) Field      { return String("sink", name) }
func Count(n int) Field           { return Int("count", n) }
func Path(p string) Field         { return String("path", p) }

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}
