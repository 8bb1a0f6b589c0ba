// Package viewport computes which rows of a fixed-row-height collection must
// be materialized for a scrolling viewport. Everything here is pure: the same
// inputs always produce the same Window.
package viewport

import "math"

// Window is a half-open [Start, End) range of row indices.
type Window struct {
	Start int
	End   int
}

// Len returns the number of rows in the window.
func (w Window) Len() int {
	return w.End - w.Start
}

// Contains reports whether row index i falls inside the window.
func (w Window) Contains(i int) bool {
	return i >= w.Start && i < w.End
}

// Compute returns the window of rows to materialize for a viewport scrolled
// to scrollTop with the given height. The visible rows are padded
// symmetrically with buffer rows until the window holds size rows, then the
// range is clamped to [0, total).
//
// At the tail the window deliberately ends one row short (start = total -
// size + 1) while the head clamp keeps the full size. Both edges are kept
// as-is because they decide which row sits at the boundary while flinging.
func Compute(scrollTop, viewportHeight, rowHeight float64, total, size int) Window {
	if total <= 0 {
		return Window{}
	}
	if size <= 0 {
		return Window{}
	}
	if total <= size {
		return Window{Start: 0, End: total}
	}
	if !(rowHeight > 0) || math.IsInf(rowHeight, 1) {
		return Window{Start: 0, End: min(size, total)}
	}

	scrollTop = sanitize(scrollTop)
	viewportHeight = sanitize(viewportHeight)

	firstVisible := rowIndex(scrollTop/rowHeight, total)
	lastVisible := rowIndex((scrollTop+viewportHeight)/rowHeight, total+size)
	visible := lastVisible - firstVisible

	var start, end int
	if visible > size {
		// The viewport alone shows more rows than the window may hold.
		start, end = firstVisible, firstVisible+size
	} else {
		slack := size - visible
		start = firstVisible - slack/2
		end = lastVisible + (slack+1)/2
	}

	switch {
	case start < 0:
		start = 0
		end = min(size, total)
	case end >= total:
		end = total
		start = end - size + 1
	}
	return Window{Start: start, End: end}
}

// TotalHeight returns the height of the full scrollable region. The product
// is trimmed by one unit; an empty collection has zero height.
func TotalHeight(rowHeight float64, total int) float64 {
	if total <= 0 || !(rowHeight > 0) {
		return 0
	}
	return math.Max(0, rowHeight*float64(total)-1)
}

// ColumnWidth returns the percentage width of each of n equal columns, or 0
// when there are no columns.
func ColumnWidth(n int) float64 {
	if n <= 0 {
		return 0
	}
	return 100 / float64(n)
}

// sanitize maps NaN and negative offsets to zero.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// rowIndex floors f and caps it at limit so offsets far past the end of the
// collection cannot overflow int.
func rowIndex(f float64, limit int) int {
	f = math.Floor(f)
	if f > float64(limit) {
		return limit
	}
	return int(f)
}
