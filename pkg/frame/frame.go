// Package frame provides deferred, coalesced tasks tied to rendering frames.
//
// A Scheduler runs a task at the next frame boundary. Clock is the manual
// implementation: the host decides when a frame ends by calling Tick. The
// bubbletea integration arms a single tea.Tick per frame while work is
// pending, so an idle UI does not spin.
package frame

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultInterval is roughly one frame at 60Hz.
const DefaultInterval = 16 * time.Millisecond

// Scheduler defers a task to the next frame boundary.
type Scheduler interface {
	Schedule(task func())
}

// Clock is a manually advanced frame clock. Tasks scheduled during a frame
// run together when Tick is called; tasks scheduled from inside a running
// task wait for the following Tick. It is safe for concurrent use.
type Clock struct {
	mu     sync.Mutex
	queue  []func()
	frames uint64
	armed  bool
}

// NewClock returns a Clock with no pending work.
func NewClock() *Clock {
	return &Clock{}
}

// Schedule queues task for the next Tick.
func (c *Clock) Schedule(task func()) {
	if task == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, task)
}

// Tick ends the current frame: it runs every task queued before the call and
// returns how many ran.
func (c *Clock) Tick() int {
	c.mu.Lock()
	tasks := c.queue
	c.queue = nil
	c.frames++
	c.armed = false
	c.mu.Unlock()

	for _, task := range tasks {
		task()
	}
	return len(tasks)
}

// Pending returns the number of tasks waiting for the next Tick.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Frames returns how many times Tick has been called.
func (c *Clock) Frames() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

// Msg marks a frame boundary inside a bubbletea program. The model should
// call Tick on its Clock when it receives one.
type Msg struct {
	Time time.Time
}

// Cmd returns a command that delivers a Msg after interval, or nil when no
// task is pending or a frame is already armed. At most one Msg is in flight
// per frame.
func (c *Clock) Cmd(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		interval = DefaultInterval
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 || c.armed {
		return nil
	}
	c.armed = true
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return Msg{Time: t}
	})
}

// Immediate runs every task synchronously. It disables coalescing and is
// meant for hosts without a frame loop, such as one-shot rendering.
type Immediate struct{}

// Schedule runs task right away.
func (Immediate) Schedule(task func()) {
	if task != nil {
		task()
	}
}
