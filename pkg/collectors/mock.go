package collectors

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"gitlab.com/tinyland/lab/telegrid/pkg/telemetry"
)

// MockCollector implements Collector for testing. It returns a fixed batch
// of samples (or an error) and tracks how many times Collect has been called.
type MockCollector struct {
	name     string
	interval time.Duration
	data     []telemetry.Datum
	err      error
	healthy  bool

	mu        sync.RWMutex
	callCount atomic.Int64

	// CollectFunc, if set, overrides the default Collect behavior.
	CollectFunc func(ctx context.Context) ([]telemetry.Datum, error)
}

// MockCollectorOption configures a MockCollector.
type MockCollectorOption func(*MockCollector)

// WithData sets the samples returned by Collect.
func WithData(data ...telemetry.Datum) MockCollectorOption {
	return func(m *MockCollector) { m.data = data }
}

// WithError sets the error returned by Collect.
func WithError(err error) MockCollectorOption {
	return func(m *MockCollector) { m.err = err }
}

// WithHealthy sets the Healthy() return value.
func WithHealthy(healthy bool) MockCollectorOption {
	return func(m *MockCollector) { m.healthy = healthy }
}

// WithCollectFunc sets a custom function for Collect.
func WithCollectFunc(fn func(ctx context.Context) ([]telemetry.Datum, error)) MockCollectorOption {
	return func(m *MockCollector) { m.CollectFunc = fn }
}

// NewMockCollector creates a mock collector with the given name, interval,
// and options.
func NewMockCollector(name string, interval time.Duration, opts ...MockCollectorOption) *MockCollector {
	m := &MockCollector{
		name:     name,
		interval: interval,
		healthy:  true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the collector name.
func (m *MockCollector) Name() string { return m.name }

// Interval returns the configured collection interval.
func (m *MockCollector) Interval() time.Duration { return m.interval }

// Healthy returns the configured health status.
func (m *MockCollector) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthy
}

// SetHealthy updates the health status.
func (m *MockCollector) SetHealthy(h bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthy = h
}

// SetData replaces the returned samples.
func (m *MockCollector) SetData(data ...telemetry.Datum) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
}

// SetError updates the returned error.
func (m *MockCollector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Collect increments the call counter and returns a copy of the configured
// samples and error, or delegates to CollectFunc if set.
func (m *MockCollector) Collect(ctx context.Context) ([]telemetry.Datum, error) {
	m.callCount.Add(1)

	if m.CollectFunc != nil {
		return m.CollectFunc(ctx)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.data), m.err
}

// CallCount returns how many times Collect has been called.
func (m *MockCollector) CallCount() int64 {
	return m.callCount.Load()
}
