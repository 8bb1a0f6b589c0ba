package collectors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/telegrid/pkg/telemetry"
)

// DefaultUpdateBufferSize is the recommended capacity of the updates channel.
const DefaultUpdateBufferSize = 64

// minInterval bounds how often a collector may run.
const minInterval = 10 * time.Millisecond

// ErrRunnerStarted is returned by Start when the runner is already running.
var ErrRunnerStarted = errors.New("collectors: runner already started")

// Runner drives every collector in a registry on its own ticker and fans the
// results into one channel.
type Runner struct {
	registry *Registry
	updates  chan<- Update
	log      *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewRunner creates a runner that reports to updates. The channel is never
// closed by the runner.
func NewRunner(r *Registry, updates chan<- Update) *Runner {
	return &Runner{
		registry: r,
		updates:  updates,
		log:      slog.Default(),
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *slog.Logger) {
	if l != nil {
		r.log = l
	}
}

// Start launches one goroutine per registered collector. Each collects
// immediately and then once per Interval until ctx is cancelled or Stop is
// called.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrRunnerStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	for _, c := range r.registry.Collectors() {
		r.wg.Add(1)
		go r.loop(ctx, c)
	}
	r.log.Debug("collector runner started", "collectors", r.registry.List())
	return nil
}

// Stop cancels every collector goroutine and waits for them to exit. It is
// safe to call more than once.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.running = false
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

// RunOnce runs the named collector a single time outside its schedule. The
// result updates the collector's status but is not sent on the channel.
func (r *Runner) RunOnce(ctx context.Context, name string) ([]telemetry.Datum, error) {
	c, ok := r.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("collector %q not registered", name)
	}
	u := r.collect(ctx, c)
	return u.Data, u.Error
}

// Health returns the health of each registered collector keyed by name.
func (r *Runner) Health() map[string]bool {
	statuses := r.registry.AllStatus()
	out := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		out[s.Name] = s.Healthy
	}
	return out
}

func (r *Runner) loop(ctx context.Context, c Collector) {
	defer r.wg.Done()

	interval := c.Interval()
	if interval < minInterval {
		interval = minInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		u := r.collect(ctx, c)
		if ctx.Err() != nil {
			return
		}
		select {
		case r.updates <- u:
		case <-ctx.Done():
			return
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (r *Runner) collect(ctx context.Context, c Collector) Update {
	name := c.Name()
	start := time.Now()
	data, err := c.Collect(ctx)
	latency := time.Since(start)
	stamp(name, start, data)

	r.registry.updateStatus(name, func(s *CollectorStatus) {
		s.LastRun = start
		s.LastLatency = latency
		s.LastError = err
		s.RunCount++
		s.Samples += int64(len(data))
		s.Healthy = err == nil
		if err != nil {
			s.ErrorCount++
		}
	})
	if err != nil && ctx.Err() == nil {
		r.log.Warn("collector failed", "collector", name, "error", err, "samples", len(data))
	}

	return Update{
		Source:    name,
		Data:      data,
		Timestamp: start,
		Error:     err,
	}
}
