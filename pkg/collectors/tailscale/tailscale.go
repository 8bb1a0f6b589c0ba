// Package tailscale provides a collector that gathers Tailscale network status
// from the local tailscaled daemon via the LocalAPI unix socket. Each peer
// becomes a handful of telemetry samples (reachability and traffic counters).
package tailscale

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tailscale.com/ipn/ipnstate"

	"gitlab.com/tinyland/lab/telegrid/pkg/telemetry"
)

// Name is the collector name and the Source of its samples.
const Name = "tailscale"

// DefaultInterval is used when Config.Interval is zero.
const DefaultInterval = 10 * time.Second

// StatusClient abstracts the local Tailscale daemon API for testability.
// The real implementation is tailscale.com/client/local.Client, whose
// Status method satisfies this interface.
type StatusClient interface {
	Status(ctx context.Context) (*ipnstate.Status, error)
}

// Config holds the configuration for the Tailscale collector.
type Config struct {
	// Interval is how often collection runs. Zero uses DefaultInterval.
	Interval time.Duration

	// SocketPath is an optional custom tailscaled socket path.
	// When empty, the platform default is used.
	SocketPath string

	// IncludeOffline adds samples for offline peers too.
	IncludeOffline bool
}

// PeerInfo contains summarised information about a single Tailscale peer.
type PeerInfo struct {
	ID       string
	Hostname string
	Online   bool
	ExitNode bool
	RxBytes  int64
	TxBytes  int64
}

// label is the name a peer's samples are filed under.
func (p PeerInfo) label() string {
	if p.Hostname != "" {
		return p.Hostname
	}
	return p.ID
}

// Collector gathers Tailscale network status from the local daemon.
type Collector struct {
	client         StatusClient
	interval       time.Duration
	includeOffline bool

	mu      sync.Mutex
	healthy bool
}

// New creates a new Tailscale collector. The caller must provide a
// StatusClient; in production this is NewLocalClient(cfg.SocketPath).
func New(cfg Config, client StatusClient) *Collector {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Collector{
		client:         client,
		interval:       interval,
		includeOffline: cfg.IncludeOffline,
		healthy:        true,
	}
}

// Name returns the collector identifier.
func (c *Collector) Name() string { return Name }

// Interval returns how often this collector should run.
func (c *Collector) Interval() time.Duration { return c.interval }

// Healthy returns whether the last collection succeeded.
func (c *Collector) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.healthy
}

func (c *Collector) setHealthy(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.healthy = v
}

// Collect calls the local Tailscale daemon and returns the tailnet as samples.
func (c *Collector) Collect(ctx context.Context) ([]telemetry.Datum, error) {
	st, err := c.client.Status(ctx)
	if err != nil {
		c.setHealthy(false)
		return nil, fmt.Errorf("tailscale status: %w", err)
	}
	if st == nil {
		c.setHealthy(false)
		return nil, fmt.Errorf("tailscale status: nil response")
	}

	c.setHealthy(true)
	return c.datums(st), nil
}

func (c *Collector) datums(st *ipnstate.Status) []telemetry.Datum {
	var out []telemetry.Datum
	add := func(name string, v float64, unit string) {
		out = append(out, telemetry.Datum{Name: name, Value: v, Unit: unit})
	}

	if st.Self != nil {
		self := mapPeerStatus(st.Self)
		add("self.rx", float64(self.RxBytes), "B")
		add("self.tx", float64(self.TxBytes), "B")
	}

	online, total := 0, 0
	// Peers() returns keys in a stable order.
	for _, pub := range st.Peers() {
		ps := st.Peer[pub]
		if ps == nil {
			continue
		}
		p := mapPeerStatus(ps)
		total++
		if p.Online {
			online++
		} else if !c.includeOffline {
			continue
		}

		name := "peer/" + p.label()
		add(name+".online", boolValue(p.Online), "")
		add(name+".rx", float64(p.RxBytes), "B")
		add(name+".tx", float64(p.TxBytes), "B")
		if p.ExitNode {
			add(name+".exit_node", 1, "")
		}
	}

	add("peers.online", float64(online), "")
	add("peers.total", float64(total), "")
	return out
}

// mapPeerStatus converts a single ipnstate.PeerStatus into our PeerInfo.
func mapPeerStatus(ps *ipnstate.PeerStatus) PeerInfo {
	return PeerInfo{
		ID:       string(ps.ID),
		Hostname: ps.HostName,
		Online:   ps.Online,
		ExitNode: ps.ExitNode,
		RxBytes:  ps.RxBytes,
		TxBytes:  ps.TxBytes,
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// NewLocalClient creates a StatusClient backed by the real Tailscale local
// daemon. The underlying client is built on first use.
func NewLocalClient(socketPath string) StatusClient {
	return &localClientAdapter{socketPath: socketPath}
}

// localClientAdapter lazily constructs a tailscale.com/client/local.Client.
type localClientAdapter struct {
	socketPath string
	once       sync.Once
	client     StatusClient
}

func (a *localClientAdapter) Status(ctx context.Context) (*ipnstate.Status, error) {
	a.once.Do(func() {
		a.client = newRealClient(a.socketPath)
	})
	return a.client.Status(ctx)
}
