// Package tui is the interactive telemetry table. It owns the row store
// view, drives a windowed table controller from keyboard and mouse
// scrolling, and feeds collector updates into the store as they arrive.
package tui

import (
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"gitlab.com/tinyland/lab/telegrid/pkg/collectors"
	"gitlab.com/tinyland/lab/telegrid/pkg/events"
	"gitlab.com/tinyland/lab/telegrid/pkg/frame"
	"gitlab.com/tinyland/lab/telegrid/pkg/table"
	"gitlab.com/tinyland/lab/telegrid/pkg/telemetry"
	"gitlab.com/tinyland/lab/telegrid/pkg/theme"
)

// headerLines is the header row plus the rule under it.
const headerLines = 2

// wheelStep is how many lines one mouse wheel notch scrolls.
const wheelStep = 3

// ErrNilTable is returned by New when no table is given.
var ErrNilTable = errors.New("tui: nil table")

// Options configures a Model.
type Options struct {
	Table   *telemetry.Table
	Updates <-chan collectors.Update

	// RowHeight is the height of one row in lines, rounded to a whole
	// number. Zero means one line.
	RowHeight float64

	// WindowSize is the number of rows the controller keeps materialized.
	WindowSize int

	// FrameInterval is the scroll coalescing period.
	FrameInterval time.Duration

	// Follow starts the view pinned to the last row.
	Follow bool

	Theme  theme.Theme
	Logger *slog.Logger
}

// Controller is the table controller specialised for telemetry rows.
type Controller = table.Controller[telemetry.Datum, telemetry.Column]

// Model is the bubbletea model for the telemetry table.
type Model struct {
	tbl     *telemetry.Table
	ctrl    *Controller
	clock   *frame.Clock
	scroll  *scroller
	zone    *zone.Manager
	updates <-chan collectors.Update
	subs    []events.Subscription
	log     *slog.Logger

	frameInterval time.Duration
	styles        theme.Styles
	keys          keyMap
	help          help.Model
	filter        textinput.Model

	sources map[string]sourceState

	width     int
	height    int
	ready     bool
	showHelp  bool
	filtering bool
	closed    bool
}

// New builds a Model over opts.Table and attaches its controller.
func New(opts Options) (Model, error) {
	if opts.Table == nil {
		return Model{}, ErrNilTable
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	rh := math.Max(1, math.Round(opts.RowHeight))
	if math.IsNaN(opts.RowHeight) {
		rh = 1
	}
	if opts.Theme.Name == "" {
		opts.Theme = theme.GetOrDefault("")
	}

	tbl := opts.Table
	sc := &scroller{rowHeight: rh, follow: opts.Follow}
	clock := frame.NewClock()

	// Registered ahead of the controller so it reads the synced position.
	var subs []events.Subscription
	for _, n := range []events.Name{events.Added, events.Removed, events.Filtered} {
		subs = append(subs, tbl.On(n, func(events.Name) { sc.sync(tbl.Len()) }))
	}

	ctrl, err := table.New[telemetry.Datum, telemetry.Column](tbl, table.Config{
		RowHeight:  rh,
		WindowSize: opts.WindowSize,
		Scheduler:  clock,
		Logger:     log,
	})
	if err != nil {
		for _, s := range subs {
			tbl.Off(s)
		}
		return Model{}, err
	}
	sc.sync(tbl.Len())
	ctrl.Attach(sc)

	st := theme.NewStyles(opts.Theme)
	h := help.New()
	h.Styles.ShortKey = st.HelpKey
	h.Styles.ShortDesc = st.HelpDesc
	h.Styles.FullKey = st.HelpKey
	h.Styles.FullDesc = st.HelpDesc

	return Model{
		tbl:           tbl,
		ctrl:          ctrl,
		clock:         clock,
		scroll:        sc,
		zone:          zone.New(),
		updates:       opts.Updates,
		subs:          subs,
		log:           log,
		frameInterval: opts.FrameInterval,
		styles:        st,
		keys:          defaultKeyMap(),
		help:          h,
		filter:        newFilterInput(st),
		sources:       make(map[string]sourceState),
	}, nil
}

// Init starts listening for collector updates.
func (m Model) Init() tea.Cmd {
	return listenCmd(m.updates)
}

// Update handles a message and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.filter.Width = max(msg.Width-2, 1)
		return m, m.relayout()

	case frame.Msg:
		m.clock.Tick()
		return m, m.clock.Cmd(m.frameInterval)

	case UpdateMsg:
		m.apply(msg.Update)
		return m, tea.Batch(listenCmd(m.updates), m.clock.Cmd(m.frameInterval))

	case updatesClosedMsg:
		m.closed = true
		m.log.Info("collector updates closed")
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, m.relayout()

	case key.Matches(msg, m.keys.Escape):
		if m.showHelp {
			m.showHelp = false
			m.help.ShowAll = false
			return m, m.relayout()
		}
		if m.tbl.Filter() != "" {
			m.filter.SetValue("")
			m.tbl.SetFilter("")
		}
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		return m, m.filter.Focus()

	case key.Matches(msg, m.keys.Up):
		return m.scrolled(m.scroll.moveCursor(-1))
	case key.Matches(msg, m.keys.Down):
		return m.scrolled(m.scroll.moveCursor(1))
	case key.Matches(msg, m.keys.PageUp):
		return m.scrolled(m.scroll.moveCursor(-m.scroll.pageRows()))
	case key.Matches(msg, m.keys.PageDown):
		return m.scrolled(m.scroll.moveCursor(m.scroll.pageRows()))
	case key.Matches(msg, m.keys.Top):
		return m.scrolled(m.scroll.moveCursor(-m.scroll.rows))
	case key.Matches(msg, m.keys.Bottom):
		return m.scrolled(m.scroll.moveCursor(m.scroll.rows))

	case key.Matches(msg, m.keys.Follow):
		m.scroll.follow = !m.scroll.follow
		if !m.scroll.follow {
			return m, nil
		}
		top := m.scroll.top
		m.scroll.sync(m.tbl.Len())
		return m.scrolled(top != m.scroll.top)

	case key.Matches(msg, m.keys.SortNext):
		m.ctrl.SortBy(m.nextSortKey())
	case key.Matches(msg, m.keys.SortReverse):
		k, _ := m.tbl.Sort()
		m.ctrl.SortBy(k)
	case key.Matches(msg, m.keys.SortColumn):
		n := int(msg.String()[0] - '1')
		if headers := m.ctrl.Headers(); n < len(headers) {
			m.ctrl.SortBy(headers[n].Key)
		}

	case key.Matches(msg, m.keys.Clear):
		if n := m.tbl.Clear(); n > 0 {
			m.log.Debug("cleared rows", "rows", n)
		}
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		return m.scrolled(m.scroll.scrollBy(-wheelStep))
	case msg.Button == tea.MouseButtonWheelDown:
		return m.scrolled(m.scroll.scrollBy(wheelStep))
	case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		if msg.Y == 0 {
			for _, col := range m.ctrl.Headers() {
				if z := m.zone.Get(sortZone(col.Key)); z != nil && z.InBounds(msg) {
					m.ctrl.SortBy(col.Key)
					break
				}
			}
			return m, nil
		}
		if idx := m.scroll.rowAt(msg.Y - headerLines); idx >= 0 {
			m.scroll.cursor = idx
			m.scroll.follow = false
		}
	}
	return m, nil
}

// scrolled notifies the controller after the viewport moved and arms a
// frame to flush the deferred recomputation.
func (m Model) scrolled(moved bool) (tea.Model, tea.Cmd) {
	if moved {
		m.ctrl.OnScroll()
	}
	return m, m.clock.Cmd(m.frameInterval)
}

// relayout recomputes the viewport height after a resize or a footer
// change. The controller picks it up on the next frame.
func (m Model) relayout() tea.Cmd {
	body := m.height - headerLines - m.footerHeight()
	m.scroll.height = float64(max(body, 0))
	m.scroll.sync(m.tbl.Len())
	m.ctrl.OnScroll()
	return m.clock.Cmd(m.frameInterval)
}

func (m Model) footerHeight() int {
	if m.showHelp {
		return 1 + lipgloss.Height(m.help.FullHelpView(m.keys.FullHelp()))
	}
	return 2
}

// apply stores an update's samples, records the source's health and drops
// rows that fell out of retention.
func (m Model) apply(u collectors.Update) {
	m.sources[u.Source] = sourceState{samples: len(u.Data), err: u.Error}
	if u.Error != nil {
		m.log.Warn("collector update failed", "source", u.Source, "error", u.Error)
	}
	if len(u.Data) > 0 {
		m.tbl.Add(u.Data...)
	}
	if !u.Timestamp.IsZero() {
		if n := m.tbl.Prune(u.Timestamp); n > 0 {
			m.log.Debug("pruned rows", "rows", n)
		}
	}
}

// nextSortKey returns the column after the current sort column.
func (m Model) nextSortKey() string {
	headers := m.ctrl.Headers()
	cur, _ := m.tbl.Sort()
	if len(headers) == 0 {
		return cur
	}
	for i, h := range headers {
		if h.Key == cur {
			return headers[(i+1)%len(headers)].Key
		}
	}
	return headers[0].Key
}

// View renders the table and footer.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	sortKey, desc := m.tbl.Sort()
	g := newGrid(m.styles, m.ctrl.Headers(), m.ctrl.ColumnWidth(), m.width, sortKey, desc)

	lines := make([]string, 0, m.height)
	lines = append(lines, g.header(m.zone.Mark), g.rule())
	lines = append(lines, g.body(m.ctrl.VisibleSlice(), m.scroll.top, int(m.scroll.height),
		m.scroll.rowHeight, m.scroll.rows, m.scroll.cursor)...)

	if m.filtering {
		lines = append(lines, m.filter.View())
	} else {
		lines = append(lines, statusLine(m.styles, m.width, statusInfo{
			rows:    m.tbl.Len(),
			total:   m.tbl.Total(),
			window:  m.ctrl.Window(),
			sortKey: sortKey,
			desc:    desc,
			follow:  m.scroll.follow,
			filter:  m.tbl.Filter(),
			sources: m.sources,
			closed:  m.closed,
		}))
	}
	lines = append(lines, m.help.View(m.keys))
	return m.zone.Scan(strings.Join(lines, "\n"))
}

// Close disposes the controller and releases the model's table
// subscriptions. It is safe to call more than once.
func (m Model) Close() {
	m.ctrl.Dispose()
	for _, s := range m.subs {
		m.tbl.Off(s)
	}
}

// Width returns the terminal width.
func (m Model) Width() int { return m.width }

// Height returns the terminal height.
func (m Model) Height() int { return m.height }

// Ready reports whether the first WindowSizeMsg has arrived.
func (m Model) Ready() bool { return m.ready }

// ShowHelp reports whether the full help is shown.
func (m Model) ShowHelp() bool { return m.showHelp }

// Filtering reports whether the filter input has focus.
func (m Model) Filtering() bool { return m.filtering }

// FilterQuery returns the text in the filter input.
func (m Model) FilterQuery() string { return m.filter.Value() }

// Following reports whether the view is pinned to the last row.
func (m Model) Following() bool { return m.scroll.follow }

// Cursor returns the index of the highlighted row.
func (m Model) Cursor() int { return m.scroll.cursor }

// ScrollTop returns the first visible line.
func (m Model) ScrollTop() float64 { return m.scroll.top }

// ViewportHeight returns the number of body lines.
func (m Model) ViewportHeight() float64 { return m.scroll.height }

// Controller returns the table controller.
func (m Model) Controller() *Controller { return m.ctrl }

// UpdatesClosed reports whether the update channel was closed.
func (m Model) UpdatesClosed() bool { return m.closed }
