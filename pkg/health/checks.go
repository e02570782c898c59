package health

import (
	"context"
	"os"
)

// PingCheck reports unhealthy when ping fails
func PingCheck(ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) Check {
		if err := ping(ctx); err != nil {
			return Check{Status: StatusUnhealthy, Message: err.Error()}
		}
		return Check{Status: StatusHealthy, Message: "Connected"}
	}
}

// CountCheck reports the size of a row batch. An empty batch is degraded
// since the run would produce empty reports.
func CountCheck(count func(ctx context.Context) (int, error)) CheckFunc {
	return func(ctx context.Context) Check {
		n, err := count(ctx)
		if err != nil {
			return Check{Status: StatusUnhealthy, Message: err.Error()}
		}
		check := Check{Status: StatusHealthy, Details: map[string]any{"rows": n}}
		if n == 0 {
			check.Status = StatusDegraded
			check.Message = "No rows"
		}
		return check
	}
}

// DirWritableCheck verifies that files can be created in dir
func DirWritableCheck(dir string) CheckFunc {
	return func(context.Context) Check {
		check := Check{Details: map[string]any{"dir": dir}}
		if err := os.MkdirAll(dir, 0755); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}
		f, err := os.CreateTemp(dir, ".flownet-check-*")
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}
		name := f.Name()
		f.Close()
		os.Remove(name)

		check.Status = StatusHealthy
		check.Message = "Writable"
		return check
	}
}
