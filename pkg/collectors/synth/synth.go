// Package synth generates synthetic telemetry: a fixed set of series, each a
// seeded random walk. It feeds the table when no real collectors are
// reachable and drives the -synthetic demo mode.
package synth

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/telegrid/pkg/telemetry"
)

// Name is the collector name and the Source of its samples.
const Name = "synthetic"

// Defaults applied by New.
const (
	DefaultInterval = 250 * time.Millisecond
	DefaultSeries   = 32
)

// Config configures the generator.
type Config struct {
	Interval time.Duration
	Series   int     // number of independent series
	Seed     uint64  // identical seeds produce identical walks
	Step     float64 // standard deviation of each step; zero means 1
}

// Collector produces one sample per series on every Collect.
type Collector struct {
	cfg Config

	mu     sync.Mutex
	rng    *rand.Rand
	values []float64
}

// New returns a generator. Series start at evenly spaced levels between 0
// and 100.
func New(cfg Config) *Collector {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Series <= 0 {
		cfg.Series = DefaultSeries
	}
	if cfg.Step <= 0 {
		cfg.Step = 1
	}
	values := make([]float64, cfg.Series)
	for i := range values {
		values[i] = 100 * float64(i) / float64(cfg.Series)
	}
	return &Collector{
		cfg:    cfg,
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		values: values,
	}
}

func (c *Collector) Name() string            { return Name }
func (c *Collector) Interval() time.Duration { return c.cfg.Interval }
func (c *Collector) Healthy() bool           { return true }

// Collect advances every series one step. Values are clamped to [0, 100].
func (c *Collector) Collect(ctx context.Context) ([]telemetry.Datum, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]telemetry.Datum, len(c.values))
	for i := range c.values {
		v := c.values[i] + c.rng.NormFloat64()*c.cfg.Step
		v = math.Max(0, math.Min(100, v))
		c.values[i] = v
		out[i] = telemetry.Datum{
			Name:  fmt.Sprintf("series.%03d", i),
			Value: v,
			Unit:  "%",
		}
	}
	return out, nil
}
