package tui

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"gitlab.com/tinyland/lab/telegrid/pkg/table"
	"gitlab.com/tinyland/lab/telegrid/pkg/telemetry"
	"gitlab.com/tinyland/lab/telegrid/pkg/theme"
	"gitlab.com/tinyland/lab/telegrid/pkg/viewport"
)

const ellipsis = "…"

// grid lays out the header, rule and rows of the table at a fixed width.
type grid struct {
	styles  theme.Styles
	columns []telemetry.Column
	widths  []int
	sortKey string
	desc    bool
}

// newGrid converts the controller's percentage column width into cell
// widths. The last column absorbs the rounding remainder.
func newGrid(st theme.Styles, cols []telemetry.Column, percent float64, width int, sortKey string, desc bool) grid {
	g := grid{styles: st, columns: cols, sortKey: sortKey, desc: desc}
	if len(cols) == 0 || width <= 0 {
		return g
	}
	g.widths = make([]int, len(cols))
	used := 0
	for i := range cols {
		w := int(math.Floor(percent / 100 * float64(width)))
		if i == len(cols)-1 {
			w = width - used
		}
		g.widths[i] = max(w, 1)
		used += g.widths[i]
	}
	return g
}

func (g grid) width() int {
	total := 0
	for _, w := range g.widths {
		total += w
	}
	return total
}

// header renders the column titles. mark wraps each cell so a mouse click
// can be mapped back to its column; it may be nil.
func (g grid) header(mark func(id, s string) string) string {
	var b strings.Builder
	for i, col := range g.columns {
		if i >= len(g.widths) {
			break
		}
		title := col.Title
		marker := ""
		if col.Key == g.sortKey {
			marker = " ▲"
			if g.desc {
				marker = " ▼"
			}
		}
		w := g.widths[i]
		room := max(w-1-ansi.StringWidth(marker), 0)
		text := ansi.Truncate(title, room, ellipsis)
		cell := g.styles.Header.Render(text) + g.styles.SortMarker.Render(marker)
		if pad := w - ansi.StringWidth(text) - ansi.StringWidth(marker); pad > 0 {
			cell += strings.Repeat(" ", pad)
		}
		if mark != nil {
			cell = mark(sortZone(col.Key), cell)
		}
		b.WriteString(cell)
	}
	return b.String()
}

func (g grid) rule() string {
	return g.styles.Rule.Render(strings.Repeat("─", g.width()))
}

// row renders one datum as plain cells, then applies style to the whole
// line so backgrounds span every column.
func (g grid) row(d telemetry.Datum, style lipgloss.Style) string {
	var b strings.Builder
	for i, col := range g.columns {
		if i >= len(g.widths) {
			break
		}
		b.WriteString(fit(d.Field(col.Key), g.widths[i]-1, col.Key == telemetry.KeyValue))
		b.WriteByte(' ')
	}
	return style.Render(b.String())
}

// body renders height lines of the viewport starting at line top. Rows are
// taken from slice; positions outside the materialized window render as a
// placeholder until the next frame refreshes the window.
func (g grid) body(slice []table.Row[telemetry.Datum], top float64, height int, rowHeight float64, rows, cursor int) []string {
	lines := make([]string, 0, height)
	blank := strings.Repeat(" ", g.width())
	first := -1
	if len(slice) > 0 {
		first = slice[0].Index
	}
	for l := range height {
		y := top + float64(l)
		idx := int(math.Floor(y / rowHeight))
		if idx >= rows || y-float64(idx)*rowHeight >= 1 {
			lines = append(lines, blank)
			continue
		}
		if first < 0 || idx < first || idx >= first+len(slice) {
			lines = append(lines, g.styles.Unit.Render(fit(ellipsis, g.width(), false)))
			continue
		}
		style := g.styles.Row
		switch {
		case idx == cursor:
			style = g.styles.Cursor
		case idx%2 == 1:
			style = g.styles.RowAlt
		}
		lines = append(lines, g.row(slice[idx-first].Data, style))
	}
	return lines
}

// fit truncates s to w cells and pads it back out to exactly w.
func fit(s string, w int, right bool) string {
	if w <= 0 {
		return ""
	}
	s = ansi.Truncate(s, w, ellipsis)
	pad := w - ansi.StringWidth(s)
	if pad <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", pad) + s
	}
	return s + strings.Repeat(" ", pad)
}

func sortZone(key string) string { return "sort:" + key }

// sourceState is the last known outcome for one collector.
type sourceState struct {
	samples int
	err     error
}

// statusLine renders the one-line summary under the table.
func statusLine(st theme.Styles, width int, s statusInfo) string {
	if width <= 0 {
		return ""
	}
	parts := []string{fmt.Sprintf("%d/%d rows", s.rows, s.total)}
	if s.rows > 0 {
		parts = append(parts, fmt.Sprintf("win %d-%d", s.window.Start, s.window.End))
	}
	arrow := "▲"
	if s.desc {
		arrow = "▼"
	}
	parts = append(parts, "sort "+s.sortKey+arrow)
	if s.follow {
		parts = append(parts, "follow")
	}
	left := st.Status.Render(strings.Join(parts, "  "))
	if s.filter != "" {
		left += "  " + st.Filter.Render("/"+s.filter)
	}

	names := make([]string, 0, len(s.sources))
	for name := range s.sources {
		names = append(names, name)
	}
	slices.Sort(names)
	var right []string
	for _, name := range names {
		if s.sources[name].err != nil {
			right = append(right, st.Error.Render("✗ "+name))
		} else {
			right = append(right, st.OK.Render("● "+name))
		}
	}
	if s.closed {
		right = append(right, st.Warn.Render("stopped"))
	}
	line := left
	if len(right) > 0 {
		r := strings.Join(right, " ")
		gap := width - ansi.StringWidth(left) - ansi.StringWidth(r)
		line = left + strings.Repeat(" ", max(gap, 2)) + r
	}
	return fit(line, width, false)
}

// statusInfo is everything statusLine shows.
type statusInfo struct {
	rows, total int
	window      viewport.Window
	sortKey     string
	desc        bool
	follow      bool
	filter      string
	sources     map[string]sourceState
	closed      bool
}
