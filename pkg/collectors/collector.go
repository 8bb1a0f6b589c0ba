// Package collectors defines the interfaces, registry, and runner for
// telegrid data collectors. Each collector (sysmetrics, kubernetes,
// tailscale, synthetic) implements the Collector interface and is
// orchestrated by a Runner that fans results into a single updates channel
// consumed by the table.
package collectors

import (
	"context"
	"time"

	"gitlab.com/tinyland/lab/telegrid/pkg/telemetry"
)

// Collector is the interface all data sources implement. Implementations live
// in sub-packages (e.g., pkg/collectors/sysmetrics) and are registered with
// the Registry at startup.
type Collector interface {
	// Name returns a unique identifier for this collector (e.g., "sysmetrics").
	// It is also the Source of every datum the collector produces.
	Name() string

	// Collect performs one collection cycle and returns the samples taken.
	// A collector may return samples together with a non-nil error when
	// only part of the cycle failed.
	Collect(ctx context.Context) ([]telemetry.Datum, error)

	// Interval returns how often this collector should run. The runner uses
	// this to configure a per-collector ticker.
	Interval() time.Duration

	// Healthy returns whether the collector is functioning. A collector that
	// has never run or whose last run succeeded is considered healthy.
	Healthy() bool
}

// CollectorStatus tracks the runtime state of a single collector. The runner
// updates this after every collection cycle.
type CollectorStatus struct {
	Name        string
	Healthy     bool
	LastRun     time.Time
	LastError   error
	RunCount    int64
	ErrorCount  int64
	Samples     int64
	LastLatency time.Duration
}

// Update carries the result of a single collection cycle from a collector
// goroutine to the consumer (typically the TUI event loop).
type Update struct {
	Source    string
	Data      []telemetry.Datum
	Timestamp time.Time
	Error     error
}

// stamp fills in the source and timestamp of samples that left them unset.
func stamp(source string, at time.Time, data []telemetry.Datum) {
	for i := range data {
		if data[i].Source == "" {
			data[i].Source = source
		}
		if data[i].Time.IsZero() {
			data[i].Time = at
		}
	}
}
