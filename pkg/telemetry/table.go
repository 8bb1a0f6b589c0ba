package telemetry

import (
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/telegrid/pkg/events"
)

// Config controls a Table.
type Config struct {
	// Columns is the initial header set. Nil means DefaultColumns().
	Columns []Column

	// MaxRows bounds the number of stored rows; the oldest arrivals are
	// evicted first. Zero means 10000, negative means unbounded.
	MaxRows int

	// Retention is the maximum age kept by Prune. Zero disables age based
	// pruning.
	Retention time.Duration

	// SortKey is the initial sort column. Empty means KeyTime.
	SortKey string

	// SortDesc selects descending initial order.
	SortDesc bool
}

func (c Config) defaults() Config {
	if c.Columns == nil {
		c.Columns = DefaultColumns()
	}
	if c.MaxRows == 0 {
		c.MaxRows = 10000
	}
	if c.SortKey == "" {
		c.SortKey = KeyTime
	}
	return c
}

// Table stores telemetry datums and exposes a filtered, sorted view of them.
// It is safe for concurrent use: mutations never write into a view slice
// already handed out by Rows. Events are emitted after the lock has been
// released, so handlers may read the table.
type Table struct {
	mu      sync.RWMutex
	emitter events.Emitter

	cfg     Config
	columns []Column
	nextID  uint64

	all  []Datum // arrival order
	view []Datum // filtered + sorted

	sortKey  string
	sortDesc bool
	filter   string // lower-cased
}

// NewTable creates an empty Table.
func NewTable(cfg Config) *Table {
	cfg = cfg.defaults()
	return &Table{
		cfg:      cfg,
		columns:  slices.Clone(cfg.Columns),
		sortKey:  cfg.SortKey,
		sortDesc: cfg.SortDesc,
	}
}

// On subscribes fn to the named table event.
func (t *Table) On(name events.Name, fn events.Handler) events.Subscription {
	return t.emitter.On(name, fn)
}

// Off releases a subscription obtained from On.
func (t *Table) Off(sub events.Subscription) {
	t.emitter.Off(sub)
}

// Subscribers returns the number of handlers registered for name.
func (t *Table) Subscribers(name events.Name) int {
	return t.emitter.Count(name)
}

// Rows returns the current filtered and sorted view without copying. The
// slice is shared and must be treated as read-only; later mutations replace
// the view rather than modify it, so it stays a consistent snapshot.
func (t *Table) Rows() []Datum {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.view
}

// Len returns the number of rows in the view.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.view)
}

// Total returns the number of stored rows, ignoring the filter.
func (t *Table) Total() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.all)
}

// All returns a copy of every stored row in arrival order, ignoring the
// filter.
func (t *Table) All() []Datum {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.all)
}

// Headers returns a copy of the current columns.
func (t *Table) Headers() []Column {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.columns)
}

// SetColumns replaces the header set and emits HeadersChanged.
func (t *Table) SetColumns(cols []Column) {
	t.mu.Lock()
	t.columns = slices.Clone(cols)
	t.mu.Unlock()
	t.emitter.Emit(events.HeadersChanged)
}

// Sort returns the active sort column and direction.
func (t *Table) Sort() (key string, desc bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sortKey, t.sortDesc
}

// Filter returns the active filter query.
func (t *Table) Filter() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.filter
}

// Add stores ds, assigning IDs, and inserts the matching ones into the view
// at their sorted position. It emits Added when anything was stored, then
// Removed if the row bound evicted older rows.
func (t *Table) Add(ds ...Datum) {
	if len(ds) == 0 {
		return
	}
	t.mu.Lock()
	less := t.lessLocked()
	view := slices.Clone(t.view)
	for _, d := range ds {
		t.nextID++
		d.ID = t.nextID
		t.all = append(t.all, d)
		if !d.Matches(t.filter) {
			continue
		}
		// Upper bound keeps equal keys in arrival order.
		i := sort.Search(len(view), func(i int) bool { return less(d, view[i]) })
		view = slices.Insert(view, i, d)
	}
	t.view = view
	evicted := t.evictLocked()
	t.mu.Unlock()

	t.emitter.Emit(events.Added)
	if evicted > 0 {
		t.emitter.Emit(events.Removed)
	}
}

// Remove deletes every stored row for which drop returns true and emits
// Removed when at least one row went away. It returns the count removed.
func (t *Table) Remove(drop func(Datum) bool) int {
	t.mu.Lock()
	n := t.removeLocked(drop)
	t.mu.Unlock()

	if n > 0 {
		t.emitter.Emit(events.Removed)
	}
	return n
}

// Prune removes rows older than the configured retention relative to now.
func (t *Table) Prune(now time.Time) int {
	if t.cfg.Retention <= 0 {
		return 0
	}
	cutoff := now.Add(-t.cfg.Retention)
	return t.Remove(func(d Datum) bool { return d.Time.Before(cutoff) })
}

// Clear removes every row.
func (t *Table) Clear() int {
	return t.Remove(func(Datum) bool { return true })
}

// SortBy orders the view by column key. Requesting the active column again
// flips the direction. It emits Sorted.
func (t *Table) SortBy(key string) {
	t.mu.Lock()
	if key == t.sortKey {
		t.sortDesc = !t.sortDesc
	} else {
		t.sortKey = key
		t.sortDesc = false
	}
	t.view = slices.Clone(t.view)
	t.sortLocked()
	t.mu.Unlock()

	t.emitter.Emit(events.Sorted)
}

// SetFilter restricts the view to rows containing query in any column,
// case-insensitively. An empty query shows everything. It emits Filtered
// when the query changed.
func (t *Table) SetFilter(query string) {
	query = strings.ToLower(strings.TrimSpace(query))
	t.mu.Lock()
	if query == t.filter {
		t.mu.Unlock()
		return
	}
	t.filter = query
	t.view = t.view[:0:0]
	for _, d := range t.all {
		if d.Matches(query) {
			t.view = append(t.view, d)
		}
	}
	t.sortLocked()
	t.mu.Unlock()

	t.emitter.Emit(events.Filtered)
}

// lessLocked returns the strict ordering for the active sort.
func (t *Table) lessLocked() func(a, b Datum) bool {
	compare := compareBy(t.sortKey)
	if t.sortDesc {
		return func(a, b Datum) bool { return compare(a, b) > 0 }
	}
	return func(a, b Datum) bool { return compare(a, b) < 0 }
}

// sortLocked sorts the view in place; callers must own its backing array.
func (t *Table) sortLocked() {
	compare := compareBy(t.sortKey)
	if t.sortDesc {
		slices.SortFunc(t.view, func(a, b Datum) int { return compare(b, a) })
		return
	}
	slices.SortFunc(t.view, compare)
}

// evictLocked trims the oldest arrivals beyond MaxRows.
func (t *Table) evictLocked() int {
	if t.cfg.MaxRows < 0 || len(t.all) <= t.cfg.MaxRows {
		return 0
	}
	over := len(t.all) - t.cfg.MaxRows
	// all is in arrival order, so the first over rows carry the lowest IDs.
	limit := t.all[over-1].ID
	return t.removeLocked(func(d Datum) bool { return d.ID <= limit })
}

func (t *Table) removeLocked(drop func(Datum) bool) int {
	before := len(t.all)
	t.all = slices.DeleteFunc(t.all, drop)
	if len(t.all) == before {
		return 0
	}
	t.view = slices.DeleteFunc(slices.Clone(t.view), drop)
	return before - len(t.all)
}
