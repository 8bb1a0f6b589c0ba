// Package table keeps a bounded window of rows from a large, changing data
// source materialized for a scrolling viewport.
//
// A Controller listens to the source's change events and to scroll
// notifications from the host. Data changes recompute the window
// immediately; scroll notifications are coalesced to one recomputation per
// frame through a frame.Scheduler. The renderer reads the result through
// VisibleSlice and TotalHeight.
//
// A Controller is not safe for concurrent use. Drive it from a single
// goroutine, such as the bubbletea update loop.
package table

import (
	"errors"
	"log/slog"
	"math"
	"slices"

	"gitlab.com/tinyland/lab/telegrid/pkg/events"
	"gitlab.com/tinyland/lab/telegrid/pkg/frame"
	"gitlab.com/tinyland/lab/telegrid/pkg/viewport"
)

// Defaults used when Config leaves a field at zero.
const (
	DefaultRowHeight  = 17
	DefaultWindowSize = 100
)

var (
	// ErrInvalidRowHeight is returned for a negative, NaN or infinite row height.
	ErrInvalidRowHeight = errors.New("table: row height must be positive")

	// ErrInvalidWindowSize is returned for a negative window size.
	ErrInvalidWindowSize = errors.New("table: window size must be positive")

	// ErrNilSource is returned when no data source is given.
	ErrNilSource = errors.New("table: nil source")

	// ErrNilScheduler is returned when no frame scheduler is given.
	ErrNilScheduler = errors.New("table: nil scheduler")
)

// Source is the data-source collaborator: an ordered, filtered and sorted
// row sequence with change notifications. R is the row type and H the
// column descriptor type; the controller never looks inside either.
type Source[R, H any] interface {
	Rows() []R
	Headers() []H
	On(name events.Name, fn events.Handler) events.Subscription
	Off(sub events.Subscription)
	SortBy(key string)
}

// ScrollContainer is the host's scrolling element. Both values are read at
// recomputation time and never cached.
type ScrollContainer interface {
	ScrollTop() float64
	ViewportHeight() float64
}

// Change is the kind of data mutation reported to OnDataChanged.
type Change int

const (
	ChangeAdded Change = iota
	ChangeRemoved
	ChangeSorted
	ChangeFiltered
)

func (c Change) String() string {
	switch c {
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	case ChangeSorted:
		return "sorted"
	case ChangeFiltered:
		return "filtered"
	}
	return "unknown"
}

// changeEvents maps source events onto data changes.
var changeEvents = []struct {
	name   events.Name
	change Change
}{
	{events.Added, ChangeAdded},
	{events.Removed, ChangeRemoved},
	{events.Sorted, ChangeSorted},
	{events.Filtered, ChangeFiltered},
}

// Row is a source row annotated with its layout for the current window.
type Row[R any] struct {
	Index int     // position in the full sequence
	Top   float64 // Index * row height
	Width float64 // percentage width of each column
	Data  R
}

// Config configures a Controller.
type Config struct {
	// RowHeight is the fixed height of every row. Zero selects
	// DefaultRowHeight.
	RowHeight float64

	// WindowSize is the number of rows kept materialized. Zero selects
	// DefaultWindowSize.
	WindowSize int

	// Scheduler coalesces scroll recomputations to frame boundaries.
	Scheduler frame.Scheduler

	// Logger receives debug output. Nil uses slog.Default().
	Logger *slog.Logger
}

type scrollState int

const (
	scrollIdle scrollState = iota
	scrollPending
)

// Stats counts controller activity.
type Stats struct {
	Refreshes       int // window recomputations
	ScrollRequests  int // OnScroll calls accepted
	ScrollCoalesced int // OnScroll calls absorbed by a pending frame
}

// Controller is the windowed table controller.
type Controller[R, H any] struct {
	src       Source[R, H]
	sched     frame.Scheduler
	log       *slog.Logger
	rowHeight float64
	size      int

	headers   []H
	width     float64
	container ScrollContainer

	win         viewport.Window
	totalHeight float64
	slice       []Row[R]

	scroll   scrollState
	subs     []events.Subscription
	disposed bool
	stats    Stats
}

// New creates a Controller bound to src and subscribes to its events. The
// header set is read once from the source; the window is computed on the
// first data change or when a container is attached.
func New[R, H any](src Source[R, H], cfg Config) (*Controller[R, H], error) {
	if src == nil {
		return nil, ErrNilSource
	}
	if cfg.Scheduler == nil {
		return nil, ErrNilScheduler
	}
	if cfg.RowHeight < 0 || math.IsNaN(cfg.RowHeight) || math.IsInf(cfg.RowHeight, 0) {
		return nil, ErrInvalidRowHeight
	}
	if cfg.WindowSize < 0 {
		return nil, ErrInvalidWindowSize
	}
	if cfg.RowHeight == 0 {
		cfg.RowHeight = DefaultRowHeight
	}
	if cfg.WindowSize == 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := &Controller[R, H]{
		src:       src,
		sched:     cfg.Scheduler,
		log:       cfg.Logger,
		rowHeight: cfg.RowHeight,
		size:      cfg.WindowSize,
	}
	c.SetHeaders(src.Headers())

	c.subs = append(c.subs, src.On(events.HeadersChanged, func(events.Name) {
		if c.disposed {
			return
		}
		c.SetHeaders(c.src.Headers())
	}))
	for _, ev := range changeEvents {
		change := ev.change
		c.subs = append(c.subs, src.On(ev.name, func(events.Name) {
			c.OnDataChanged(change)
		}))
	}
	return c, nil
}

// Attach supplies the scroll container once the host has mounted it and
// computes the initial window.
func (c *Controller[R, H]) Attach(container ScrollContainer) {
	if c.disposed {
		return
	}
	c.container = container
	c.refresh()
}

// SetHeaders replaces the header set. The new column width applies from the
// next refresh.
func (c *Controller[R, H]) SetHeaders(headers []H) {
	if c.disposed {
		return
	}
	c.headers = slices.Clone(headers)
	c.width = viewport.ColumnWidth(len(c.headers))
}

// OnDataChanged recomputes the window immediately: the source's indices
// have shifted and a stale slice must never be observable.
func (c *Controller[R, H]) OnDataChanged(change Change) {
	if c.disposed {
		return
	}
	c.log.Debug("table data changed", "change", change)
	c.refresh()
}

// OnScroll requests a recomputation at the next frame boundary. Requests
// made while one is pending are absorbed; the pending recomputation reads
// the scroll position when it runs.
func (c *Controller[R, H]) OnScroll() {
	if c.disposed {
		return
	}
	if c.scroll == scrollPending {
		c.stats.ScrollCoalesced++
		return
	}
	c.scroll = scrollPending
	c.stats.ScrollRequests++
	c.sched.Schedule(c.flushScroll)
}

func (c *Controller[R, H]) flushScroll() {
	c.scroll = scrollIdle
	if c.disposed {
		return
	}
	c.refresh()
}

// ScrollPending reports whether a frame-deferred recomputation is queued.
func (c *Controller[R, H]) ScrollPending() bool {
	return c.scroll == scrollPending
}

// SortBy forwards a sort request to the source. The source's Sorted event
// triggers the recomputation.
func (c *Controller[R, H]) SortBy(key string) {
	if c.disposed {
		return
	}
	c.src.SortBy(key)
}

// VisibleSlice returns the annotated rows of the current window in order.
// The slice is owned by the controller and replaced on every refresh.
func (c *Controller[R, H]) VisibleSlice() []Row[R] {
	return c.slice
}

// Window returns the current [start, end) window.
func (c *Controller[R, H]) Window() viewport.Window {
	return c.win
}

// TotalHeight returns the height of the full scrollable region.
func (c *Controller[R, H]) TotalHeight() float64 {
	return c.totalHeight
}

// RowHeight returns the fixed row height.
func (c *Controller[R, H]) RowHeight() float64 {
	return c.rowHeight
}

// WindowSize returns the configured window size.
func (c *Controller[R, H]) WindowSize() int {
	return c.size
}

// Headers returns the current header set.
func (c *Controller[R, H]) Headers() []H {
	return c.headers
}

// HeaderCount returns the number of headers.
func (c *Controller[R, H]) HeaderCount() int {
	return len(c.headers)
}

// ColumnWidth returns the percentage width applied to each column.
func (c *Controller[R, H]) ColumnWidth() float64 {
	return c.width
}

// Stats returns activity counters.
func (c *Controller[R, H]) Stats() Stats {
	return c.stats
}

// Disposed reports whether Dispose has been called.
func (c *Controller[R, H]) Disposed() bool {
	return c.disposed
}

// Dispose releases every subscription on the source and drops the scroll
// container. Later events are ignored. Calling Dispose twice is harmless.
func (c *Controller[R, H]) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	for _, sub := range c.subs {
		c.src.Off(sub)
	}
	c.subs = nil
	c.container = nil
	c.log.Debug("table controller disposed", "refreshes", c.stats.Refreshes)
}

// refresh recomputes the window against the source's current sequence and
// the container's current scroll state.
func (c *Controller[R, H]) refresh() {
	rows := c.src.Rows()

	var top, height float64
	if c.container != nil {
		top = c.container.ScrollTop()
		height = c.container.ViewportHeight()
	}

	c.win = viewport.Compute(top, height, c.rowHeight, len(rows), c.size)
	c.totalHeight = viewport.TotalHeight(c.rowHeight, len(rows))

	slice := make([]Row[R], 0, c.win.Len())
	for i := c.win.Start; i < c.win.End; i++ {
		slice = append(slice, Row[R]{
			Index: i,
			Top:   float64(i) * c.rowHeight,
			Width: c.width,
			Data:  rows[i],
		})
	}
	c.slice = slice
	c.stats.Refreshes++
}
