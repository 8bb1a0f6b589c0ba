// Package sysmetrics provides a cross-platform system metrics collector for
// telegrid. It uses gopsutil to gather CPU, memory, disk, load, and uptime
// data on both Darwin and Linux without /proc dependencies, and flattens
// each snapshot into telemetry samples.
package sysmetrics

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	"gitlab.com/tinyland/lab/telegrid/pkg/telemetry"
)

// Name is the collector name and the Source of its samples.
const Name = "sysmetrics"

// Config controls the SysMetrics collector behaviour.
type Config struct {
	// FastInterval is the polling rate for CPU, memory and load (default 2s).
	FastInterval time.Duration

	// SlowInterval is how often disks are re-enumerated (default 60s).
	// Between enumerations the last disk readings are repeated.
	SlowInterval time.Duration

	// MonitoredMounts restricts disk collection to these mount paths.
	// An empty slice means "collect all non-virtual partitions".
	MonitoredMounts []string

	// PerCore adds one sample per logical CPU.
	PerCore bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		FastInterval: 2 * time.Second,
		SlowInterval: 60 * time.Second,
	}
}

// CPUMetrics holds per-core and aggregate CPU utilisation.
type CPUMetrics struct {
	Cores []float64
	Total float64
}

// MemoryMetrics holds physical and swap memory statistics.
type MemoryMetrics struct {
	Total           uint64
	Used            uint64
	Available       uint64
	UsedPercent     float64
	SwapTotal       uint64
	SwapUsedPercent float64
}

// DiskMetrics holds usage data for a single mount point.
type DiskMetrics struct {
	Path        string
	Used        uint64
	UsedPercent float64
}

// LoadMetrics holds system load averages.
type LoadMetrics struct {
	Load1  float64
	Load5  float64
	Load15 float64
}

// Metrics is one raw snapshot of the host. Absent sections are left at
// their zero value and flagged in Has.
type Metrics struct {
	CPU    CPUMetrics
	Memory MemoryMetrics
	Disks  []DiskMetrics
	Load   LoadMetrics
	Uptime time.Duration

	HasCPU, HasMemory, HasLoad, HasUptime bool
}

// Collector gathers system metrics via gopsutil. It satisfies the
// pkg/collectors.Collector interface (Name, Collect, Interval, Healthy).
type Collector struct {
	cfg Config
	now func() time.Time

	mu       sync.Mutex
	healthy  bool
	disks    []DiskMetrics
	lastDisk time.Time
}

// New creates a Collector with the given configuration. Zero-value fields
// in cfg are replaced with defaults.
func New(cfg Config) *Collector {
	if cfg.FastInterval <= 0 {
		cfg.FastInterval = DefaultConfig().FastInterval
	}
	if cfg.SlowInterval <= 0 {
		cfg.SlowInterval = DefaultConfig().SlowInterval
	}
	return &Collector{
		cfg:     cfg,
		now:     time.Now,
		healthy: true,
	}
}

// Name returns the collector's unique identifier.
func (c *Collector) Name() string { return Name }

// Interval returns the fast polling interval.
func (c *Collector) Interval() time.Duration { return c.cfg.FastInterval }

// Healthy reports whether the last collection produced any data.
func (c *Collector) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.healthy
}

func (c *Collector) setHealthy(h bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.healthy = h
}

// Collect takes one snapshot and returns it as samples. If individual
// sub-collectors fail the method still returns as much data as possible;
// errors are aggregated. A cancelled context returns immediately.
func (c *Collector) Collect(ctx context.Context) ([]telemetry.Datum, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	at := c.now()
	m, err := c.snapshot(ctx, at)
	data := Datums(m, c.cfg.PerCore)
	for i := range data {
		data[i].Time = at
	}

	if len(data) == 0 {
		c.setHealthy(false)
		if err == nil {
			err = fmt.Errorf("sysmetrics: no data")
		}
		return nil, err
	}
	c.setHealthy(true)
	return data, err
}

// snapshot queries every sub-collector. Only a total failure is reported as
// "all sub-collectors failed"; anything less is a partial error.
func (c *Collector) snapshot(ctx context.Context, at time.Time) (Metrics, error) {
	var m Metrics
	var errs []string

	steps := []struct {
		name string
		fn   func(context.Context, *Metrics) error
	}{
		{"cpu", collectCPU},
		{"memory", collectMemory},
		{"load", collectLoad},
		{"uptime", collectUptime},
	}
	for _, s := range steps {
		if err := s.fn(ctx, &m); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", s.name, err))
		}
	}

	disks, err := c.diskUsage(ctx, at)
	if err != nil {
		errs = append(errs, fmt.Sprintf("disk: %v", err))
	}
	m.Disks = disks

	switch {
	case len(errs) == len(steps)+1:
		return m, fmt.Errorf("sysmetrics: all sub-collectors failed: %s", strings.Join(errs, "; "))
	case len(errs) > 0:
		return m, fmt.Errorf("sysmetrics: partial errors: %s", strings.Join(errs, "; "))
	}
	return m, nil
}

// Datums flattens a snapshot into samples. Time and Source are left for the
// caller to fill.
func Datums(m Metrics, perCore bool) []telemetry.Datum {
	var out []telemetry.Datum
	add := func(name string, v float64, unit string) {
		out = append(out, telemetry.Datum{Name: name, Value: v, Unit: unit})
	}

	if m.HasCPU {
		add("cpu.total", m.CPU.Total, "%")
		if perCore {
			for i, pct := range m.CPU.Cores {
				add(fmt.Sprintf("cpu.core%d", i), pct, "%")
			}
		}
	}
	if m.HasMemory {
		add("mem.used", m.Memory.UsedPercent, "%")
		add("mem.available", float64(m.Memory.Available), "B")
		if m.Memory.SwapTotal > 0 {
			add("swap.used", m.Memory.SwapUsedPercent, "%")
		}
	}
	if m.HasLoad {
		add("load.1", m.Load.Load1, "")
		add("load.5", m.Load.Load5, "")
		add("load.15", m.Load.Load15, "")
	}
	for _, d := range m.Disks {
		add("disk."+d.Path, d.UsedPercent, "%")
	}
	if m.HasUptime {
		add("uptime", m.Uptime.Seconds(), "s")
	}
	return out
}

// --- sub-collectors ---

func collectCPU(ctx context.Context, m *Metrics) error {
	// interval=0 means instantaneous snapshot since the previous call.
	perCore, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		return err
	}
	total, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return err
	}

	m.CPU.Cores = perCore
	if len(total) > 0 {
		m.CPU.Total = total[0]
	}
	m.HasCPU = true
	return nil
}

func collectMemory(ctx context.Context, m *Metrics) error {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return err
	}
	m.Memory.Total = vm.Total
	m.Memory.Used = vm.Used
	m.Memory.Available = vm.Available
	m.Memory.UsedPercent = vm.UsedPercent
	m.HasMemory = true

	// Swap might not be available; treat as non-fatal.
	if sw, err := mem.SwapMemoryWithContext(ctx); err == nil && sw.Total > 0 {
		m.Memory.SwapTotal = sw.Total
		m.Memory.SwapUsedPercent = sw.UsedPercent
	}
	return nil
}

func collectLoad(ctx context.Context, m *Metrics) error {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return err
	}
	m.Load = LoadMetrics{Load1: avg.Load1, Load5: avg.Load5, Load15: avg.Load15}
	m.HasLoad = true
	return nil
}

func collectUptime(ctx context.Context, m *Metrics) error {
	secs, err := host.UptimeWithContext(ctx)
	if err != nil {
		return err
	}
	m.Uptime = time.Duration(secs) * time.Second
	m.HasUptime = true
	return nil
}

// diskUsage returns cached disk readings until SlowInterval has passed.
func (c *Collector) diskUsage(ctx context.Context, at time.Time) ([]DiskMetrics, error) {
	c.mu.Lock()
	if !c.lastDisk.IsZero() && at.Sub(c.lastDisk) < c.cfg.SlowInterval {
		disks := c.disks
		c.mu.Unlock()
		return disks, nil
	}
	c.mu.Unlock()

	disks, err := c.enumerateDisks(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.disks = disks
	c.lastDisk = at
	c.mu.Unlock()
	return disks, nil
}

func (c *Collector) enumerateDisks(ctx context.Context) ([]DiskMetrics, error) {
	mounts := c.cfg.MonitoredMounts
	if len(mounts) == 0 {
		parts, err := disk.PartitionsWithContext(ctx, false)
		if err != nil {
			return nil, err
		}
		for _, p := range parts {
			if !isVirtualFS(p.Fstype) {
				mounts = append(mounts, p.Mountpoint)
			}
		}
	}

	var out []DiskMetrics
	for _, mp := range mounts {
		usage, err := disk.UsageWithContext(ctx, mp)
		if err != nil {
			continue // skip mounts that fail
		}
		out = append(out, DiskMetrics{
			Path:        usage.Path,
			Used:        usage.Used,
			UsedPercent: usage.UsedPercent,
		})
	}
	return out, nil
}

// isVirtualFS returns true for filesystem types that do not represent real
// storage and should be skipped during enumeration.
func isVirtualFS(fstype string) bool {
	switch fstype {
	case "devfs", "devtmpfs", "tmpfs", "sysfs", "proc", "cgroup", "cgroup2",
		"autofs", "mqueue", "hugetlbfs", "debugfs", "tracefs", "securityfs",
		"pstore", "bpf", "fusectl", "configfs", "ramfs", "rpc_pipefs",
		"nfsd", "map", "devpts", "squashfs", "nsfs":
		return true
	}
	return false
}
