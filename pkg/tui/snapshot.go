package tui

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"gitlab.com/tinyland/lab/telegrid/pkg/frame"
	"gitlab.com/tinyland/lab/telegrid/pkg/table"
	"gitlab.com/tinyland/lab/telegrid/pkg/telemetry"
	"gitlab.com/tinyland/lab/telegrid/pkg/theme"
)

// SnapshotOptions configures Snapshot.
type SnapshotOptions struct {
	Width int

	// Height bounds the output in lines, header included. Zero or less
	// prints every row.
	Height int

	RowHeight  float64
	WindowSize int
	Theme      theme.Theme
	Logger     *slog.Logger
}

// Snapshot writes the first page of tbl as text. It renders through the
// same controller and grid as the interactive view, with scroll work run
// synchronously.
func Snapshot(w io.Writer, tbl *telemetry.Table, opts SnapshotOptions) error {
	if tbl == nil {
		return ErrNilTable
	}
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.Theme.Name == "" {
		opts.Theme = theme.GetOrDefault("")
	}
	rh := math.Max(1, math.Round(opts.RowHeight))
	if math.IsNaN(opts.RowHeight) {
		rh = 1
	}

	n := tbl.Len()
	body := opts.Height - headerLines
	if opts.Height <= 0 {
		body = int(float64(n) * rh)
		opts.WindowSize = max(opts.WindowSize, n)
	}
	body = min(max(body, 0), int(float64(n)*rh))

	ctrl, err := table.New[telemetry.Datum, telemetry.Column](tbl, table.Config{
		RowHeight:  rh,
		WindowSize: opts.WindowSize,
		Scheduler:  frame.Immediate{},
		Logger:     opts.Logger,
	})
	if err != nil {
		return err
	}
	defer ctrl.Dispose()

	sc := &scroller{rowHeight: rh, height: float64(body)}
	sc.sync(n)
	ctrl.Attach(sc)

	sortKey, desc := tbl.Sort()
	g := newGrid(theme.NewStyles(opts.Theme), ctrl.Headers(), ctrl.ColumnWidth(), opts.Width, sortKey, desc)
	lines := []string{g.header(nil), g.rule()}
	lines = append(lines, g.body(ctrl.VisibleSlice(), 0, body, rh, n, -1)...)
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	_, err = fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}
