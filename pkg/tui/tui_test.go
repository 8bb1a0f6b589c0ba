package tui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/telegrid/pkg/collectors"
	"gitlab.com/tinyland/lab/telegrid/pkg/events"
	"gitlab.com/tinyland/lab/telegrid/pkg/frame"
	"gitlab.com/tinyland/lab/telegrid/pkg/telemetry"
	"gitlab.com/tinyland/lab/telegrid/pkg/viewport"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// helper to send a message through Update and return the updated Model.
func tuiUpdate(m Model, msg tea.Msg) (Model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func series(from, n int) []telemetry.Datum {
	ds := make([]telemetry.Datum, n)
	for i := range ds {
		ds[i] = telemetry.Datum{
			Time:   base.Add(time.Duration(from+i) * time.Second),
			Source: "synthetic",
			Name:   fmt.Sprintf("series.%04d", from+i),
			Value:  float64(from + i),
			Unit:   "%",
		}
	}
	return ds
}

// newTestModel returns a 100x14 model over n rows sorted by name. The body
// is 10 lines tall and the controller keeps 20 rows.
func newTestModel(t *testing.T, n int, opts ...func(*Options)) (Model, *telemetry.Table) {
	t.Helper()
	tbl := telemetry.NewTable(telemetry.Config{SortKey: telemetry.KeyName})
	tbl.Add(series(0, n)...)
	o := Options{Table: tbl, WindowSize: 20}
	for _, fn := range opts {
		fn(&o)
	}
	m, err := New(o)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m, _ = tuiUpdate(m, tea.WindowSizeMsg{Width: 100, Height: 14})
	m, _ = tuiUpdate(m, frame.Msg{})
	return m, tbl
}

func TestNewRejectsNilTable(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ErrNilTable) {
		t.Errorf("New(nil table) err = %v, want ErrNilTable", err)
	}
}

func TestNewPropagatesControllerErrors(t *testing.T) {
	tbl := telemetry.NewTable(telemetry.Config{})
	if _, err := New(Options{Table: tbl, WindowSize: -1}); err == nil {
		t.Fatal("expected error for negative window size")
	}
	if n := tbl.Subscribers(events.Added); n != 0 {
		t.Errorf("failed New left %d subscribers behind", n)
	}
}

func TestWindowSizeMsgSetsReady(t *testing.T) {
	m, _ := newTestModel(t, 100)

	if m.Width() != 100 || m.Height() != 14 {
		t.Errorf("size = %dx%d, want 100x14", m.Width(), m.Height())
	}
	if !m.Ready() {
		t.Error("expected ready after WindowSizeMsg")
	}
	if m.ViewportHeight() != 10 {
		t.Errorf("ViewportHeight = %v, want 10", m.ViewportHeight())
	}
}

func TestViewBeforeReady(t *testing.T) {
	tbl := telemetry.NewTable(telemetry.Config{})
	m, err := New(Options{Table: tbl})
	if err != nil {
		t.Fatal(err)
	}
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View before ready = %q", got)
	}
}

func TestInitialWindowCoversHead(t *testing.T) {
	m, _ := newTestModel(t, 100)

	if got := m.Controller().Window(); got != (viewport.Window{Start: 0, End: 20}) {
		t.Errorf("Window = %+v, want {0 20}", got)
	}
	if m.Controller().ScrollPending() {
		t.Error("frame should have flushed the resize")
	}
}

func TestScrollIsCoalescedUntilFrame(t *testing.T) {
	m, _ := newTestModel(t, 100)
	before := m.Controller().Stats()

	for range 15 {
		m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyDown})
	}

	if m.Cursor() != 15 {
		t.Fatalf("Cursor = %d, want 15", m.Cursor())
	}
	if m.ScrollTop() != 6 {
		t.Fatalf("ScrollTop = %v, want 6", m.ScrollTop())
	}
	stats := m.Controller().Stats()
	if got := stats.ScrollRequests - before.ScrollRequests; got != 1 {
		t.Errorf("scroll requests = %d, want 1", got)
	}
	if stats.ScrollCoalesced == before.ScrollCoalesced {
		t.Error("expected later scrolls to be coalesced")
	}
	if !m.Controller().ScrollPending() {
		t.Fatal("expected a pending scroll")
	}
	if got := m.Controller().Window(); got != (viewport.Window{Start: 0, End: 20}) {
		t.Errorf("window moved before the frame: %+v", got)
	}

	m, _ = tuiUpdate(m, frame.Msg{})

	if got := m.Controller().Window(); got != (viewport.Window{Start: 1, End: 21}) {
		t.Errorf("Window after frame = %+v, want {1 21}", got)
	}
}

func TestBottomKeyFollowsTail(t *testing.T) {
	m, _ := newTestModel(t, 100)

	m, _ = tuiUpdate(m, runes("G"))
	if !m.Following() {
		t.Error("jumping to the last row should enable follow")
	}
	if m.ScrollTop() != 90 || m.Cursor() != 99 {
		t.Errorf("top=%v cursor=%d, want 90 and 99", m.ScrollTop(), m.Cursor())
	}

	m, _ = tuiUpdate(m, frame.Msg{})
	if got := m.Controller().Window(); got != (viewport.Window{Start: 81, End: 100}) {
		t.Errorf("tail Window = %+v, want {81 100}", got)
	}

	m, _ = tuiUpdate(m, runes("k"))
	if m.Following() {
		t.Error("moving up should leave follow mode")
	}

	m, _ = tuiUpdate(m, runes("g"))
	if m.Cursor() != 0 || m.ScrollTop() != 0 {
		t.Errorf("top key: cursor=%d top=%v", m.Cursor(), m.ScrollTop())
	}
}

func TestPageKeysMoveByViewport(t *testing.T) {
	m, _ := newTestModel(t, 100)

	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyPgDown})
	if m.Cursor() != 10 {
		t.Errorf("Cursor after pgdown = %d, want 10", m.Cursor())
	}
	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyPgUp})
	if m.Cursor() != 0 {
		t.Errorf("Cursor after pgup = %d, want 0", m.Cursor())
	}
}

func TestPlaceholderUntilFrameRefreshes(t *testing.T) {
	m, _ := newTestModel(t, 100)

	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyEnd})
	if strings.Contains(m.View(), "series.0099") {
		t.Error("row outside the stale window was rendered")
	}

	m, _ = tuiUpdate(m, frame.Msg{})
	if !strings.Contains(m.View(), "series.0099") {
		t.Error("last row missing after the frame")
	}
}

func TestFollowPinsToArrivingRows(t *testing.T) {
	m, _ := newTestModel(t, 100, func(o *Options) { o.Follow = true })

	if m.ScrollTop() != 90 || m.Cursor() != 99 {
		t.Fatalf("follow start: top=%v cursor=%d", m.ScrollTop(), m.Cursor())
	}

	m, _ = tuiUpdate(m, UpdateMsg{collectors.Update{Source: "synthetic", Data: series(100, 5)}})

	if m.ScrollTop() != 95 || m.Cursor() != 104 {
		t.Errorf("after update: top=%v cursor=%d, want 95 and 104", m.ScrollTop(), m.Cursor())
	}
	if got := m.Controller().Window(); got != (viewport.Window{Start: 86, End: 105}) {
		t.Errorf("Window = %+v, want {86 105}", got)
	}
	if m.Controller().ScrollPending() {
		t.Error("data changes must not wait for a frame")
	}
}

func TestFollowToggle(t *testing.T) {
	m, _ := newTestModel(t, 100)

	m, _ = tuiUpdate(m, runes("f"))
	if !m.Following() || m.ScrollTop() != 90 {
		t.Errorf("follow on: following=%v top=%v", m.Following(), m.ScrollTop())
	}
	m, _ = tuiUpdate(m, runes("f"))
	if m.Following() {
		t.Error("second f should turn follow off")
	}
}

func TestUpdateMsgRecordsSourceHealth(t *testing.T) {
	m, tbl := newTestModel(t, 0)

	m, _ = tuiUpdate(m, UpdateMsg{collectors.Update{Source: "synthetic", Data: series(0, 3), Timestamp: base}})
	m, _ = tuiUpdate(m, UpdateMsg{collectors.Update{Source: "kubernetes", Error: errors.New("unreachable"), Timestamp: base}})

	if tbl.Len() != 3 {
		t.Errorf("Len = %d, want 3", tbl.Len())
	}
	view := m.View()
	for _, want := range []string{"● synthetic", "✗ kubernetes", "3/3 rows"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestUpdateMsgPrunesExpiredRows(t *testing.T) {
	tbl := telemetry.NewTable(telemetry.Config{Retention: time.Minute})
	tbl.Add(series(0, 5)...)
	m, err := New(Options{Table: tbl})
	if err != nil {
		t.Fatal(err)
	}

	fresh := series(200, 1)
	m, _ = tuiUpdate(m, UpdateMsg{collectors.Update{Source: "synthetic", Data: fresh, Timestamp: fresh[0].Time}})

	if tbl.Len() != 1 || tbl.Rows()[0].Name != "series.0200" {
		t.Errorf("rows after prune = %v", tbl.Rows())
	}
}

func TestListenCmd(t *testing.T) {
	if listenCmd(nil) != nil {
		t.Error("nil channel should yield no command")
	}

	ch := make(chan collectors.Update, 1)
	ch <- collectors.Update{Source: "synthetic"}
	msg, ok := listenCmd(ch)().(UpdateMsg)
	if !ok || msg.Source != "synthetic" {
		t.Errorf("listen returned %#v", msg)
	}

	close(ch)
	if _, ok := listenCmd(ch)().(updatesClosedMsg); !ok {
		t.Error("closed channel should yield updatesClosedMsg")
	}

	m, _ := newTestModel(t, 1)
	m, _ = tuiUpdate(m, updatesClosedMsg{})
	if !m.UpdatesClosed() {
		t.Error("model should record the closed channel")
	}
	if !strings.Contains(m.View(), "stopped") {
		t.Error("status line should show stopped collectors")
	}
}

func TestSortKeys(t *testing.T) {
	m, tbl := newTestModel(t, 10)

	m, _ = tuiUpdate(m, runes("s"))
	if k, desc := tbl.Sort(); k != telemetry.KeyValue || desc {
		t.Errorf("after s: sort = %q desc=%v, want value ascending", k, desc)
	}

	m, _ = tuiUpdate(m, runes("r"))
	if k, desc := tbl.Sort(); k != telemetry.KeyValue || !desc {
		t.Errorf("after r: sort = %q desc=%v, want value descending", k, desc)
	}
	if got := m.Controller().VisibleSlice()[0].Data.Name; got != "series.0009" {
		t.Errorf("first row after descending sort = %q", got)
	}

	m, _ = tuiUpdate(m, runes("1"))
	if k, _ := tbl.Sort(); k != telemetry.KeyTime {
		t.Errorf("after 1: sort = %q, want time", k)
	}

	_, _ = tuiUpdate(m, runes("9"))
	if k, _ := tbl.Sort(); k != telemetry.KeyTime {
		t.Errorf("out of range column changed sort to %q", k)
	}
}

func TestFilterMode(t *testing.T) {
	m, tbl := newTestModel(t, 100)

	m, _ = tuiUpdate(m, runes("/"))
	if !m.Filtering() {
		t.Fatal("expected filter mode after /")
	}

	m, _ = tuiUpdate(m, runes("series.009"))
	if m.FilterQuery() != "series.009" {
		t.Errorf("FilterQuery = %q", m.FilterQuery())
	}
	if tbl.Len() != 10 {
		t.Errorf("filtered Len = %d, want 10", tbl.Len())
	}

	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Filtering() {
		t.Error("enter should leave filter mode")
	}
	if tbl.Filter() != "series.009" {
		t.Errorf("filter dropped on enter: %q", tbl.Filter())
	}

	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyEsc})
	if tbl.Len() != 100 || m.FilterQuery() != "" {
		t.Errorf("esc should clear the filter: Len=%d query=%q", tbl.Len(), m.FilterQuery())
	}
}

func TestEscInFilterModeClears(t *testing.T) {
	m, tbl := newTestModel(t, 100)

	m, _ = tuiUpdate(m, runes("/"))
	m, _ = tuiUpdate(m, runes("0001"))
	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyEsc})

	if m.Filtering() || tbl.Filter() != "" || tbl.Len() != 100 {
		t.Errorf("filtering=%v filter=%q len=%d", m.Filtering(), tbl.Filter(), tbl.Len())
	}
}

func TestQInFilterModeTypesQ(t *testing.T) {
	m, _ := newTestModel(t, 1)

	m, _ = tuiUpdate(m, runes("/"))
	m, _ = tuiUpdate(m, runes("q"))

	if !m.Filtering() {
		t.Error("q in filter mode should not leave the input")
	}
	if m.FilterQuery() != "q" {
		t.Errorf("FilterQuery = %q, want q", m.FilterQuery())
	}
	if m.Controller().Disposed() {
		t.Error("q in filter mode must not quit")
	}
}

func TestQuitDisposesController(t *testing.T) {
	m, tbl := newTestModel(t, 5)

	m, cmd := tuiUpdate(m, runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should produce tea.QuitMsg")
	}
	if !m.Controller().Disposed() {
		t.Error("controller not disposed on quit")
	}
	for _, n := range []events.Name{events.HeadersChanged, events.Added, events.Removed, events.Sorted, events.Filtered} {
		if got := tbl.Subscribers(n); got != 0 {
			t.Errorf("%s has %d subscribers after quit", n, got)
		}
	}
	m.Close()
}

func TestCtrlCQuits(t *testing.T) {
	m, _ := newTestModel(t, 1)
	_, cmd := tuiUpdate(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should produce tea.QuitMsg")
	}
}

func TestHelpToggleResizesViewport(t *testing.T) {
	m, _ := newTestModel(t, 100)

	m, _ = tuiUpdate(m, runes("?"))
	if !m.ShowHelp() {
		t.Fatal("expected help after ?")
	}
	if m.ViewportHeight() >= 10 {
		t.Errorf("full help should take body lines, height = %v", m.ViewportHeight())
	}

	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.ShowHelp() {
		t.Error("esc should close help")
	}
	if m.ViewportHeight() != 10 {
		t.Errorf("ViewportHeight = %v, want 10", m.ViewportHeight())
	}
}

func TestViewLayout(t *testing.T) {
	m, _ := newTestModel(t, 100)
	view := m.View()

	for _, want := range []string{"Metric", "Value", "▲", "series.0000", "series.0009", "100/100 rows", "win 0-20"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "series.0010") {
		t.Error("row below the viewport was rendered")
	}

	lines := strings.Split(view, "\n")
	if len(lines) != 14 {
		t.Errorf("view has %d lines, want 14", len(lines))
	}
	for i, l := range lines {
		if w := lipgloss.Width(l); w > 100 {
			t.Errorf("line %d is %d cells wide", i, w)
		}
	}
}

func TestClearRows(t *testing.T) {
	m, tbl := newTestModel(t, 50)

	m, _ = tuiUpdate(m, runes("G"))
	m, _ = tuiUpdate(m, runes("x"))

	if tbl.Len() != 0 {
		t.Errorf("Len = %d after clear", tbl.Len())
	}
	if m.Cursor() != 0 || m.ScrollTop() != 0 {
		t.Errorf("cursor=%d top=%v after clear", m.Cursor(), m.ScrollTop())
	}
	if !strings.Contains(m.View(), "0/0 rows") {
		t.Error("status should show an empty table")
	}
}

func TestMouseWheelScrolls(t *testing.T) {
	m, _ := newTestModel(t, 100)

	m, _ = tuiUpdate(m, tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	if m.ScrollTop() != wheelStep {
		t.Errorf("ScrollTop = %v, want %d", m.ScrollTop(), wheelStep)
	}
	if !m.Controller().ScrollPending() {
		t.Error("wheel should request a frame")
	}

	m, _ = tuiUpdate(m, tea.MouseMsg{Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress})
	if m.ScrollTop() != 0 {
		t.Errorf("ScrollTop = %v after wheel up", m.ScrollTop())
	}
}

func TestMouseClickSelectsRow(t *testing.T) {
	m, _ := newTestModel(t, 100)

	m, _ = tuiUpdate(m, tea.MouseMsg{X: 5, Y: 4, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if m.Cursor() != 2 {
		t.Errorf("Cursor = %d, want 2", m.Cursor())
	}

	m, _ = tuiUpdate(m, tea.MouseMsg{X: 5, Y: 13, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if m.Cursor() != 2 {
		t.Errorf("click in the footer moved the cursor to %d", m.Cursor())
	}
}
