package tui

import "math"

// scroller is the model's scroll container. It lives behind a pointer so
// the table controller and every copy of the Model see the same position.
// Positions are measured in terminal lines.
type scroller struct {
	top       float64
	height    float64
	rowHeight float64
	rows      int
	cursor    int
	follow    bool
}

func (s *scroller) ScrollTop() float64      { return s.top }
func (s *scroller) ViewportHeight() float64 { return s.height }

func (s *scroller) maxTop() float64 {
	return math.Max(0, float64(s.rows)*s.rowHeight-s.height)
}

// setTop clamps top into range and reports whether the position moved.
func (s *scroller) setTop(top float64) bool {
	top = math.Min(math.Max(0, top), s.maxTop())
	if top == s.top {
		return false
	}
	s.top = top
	return true
}

// sync adopts a new row count. In follow mode the cursor and viewport jump
// to the last row; otherwise both are clamped.
func (s *scroller) sync(rows int) {
	s.rows = rows
	if s.follow {
		s.cursor = rows - 1
		s.top = s.maxTop()
	}
	s.cursor = min(s.cursor, rows-1)
	s.cursor = max(s.cursor, 0)
	s.top = math.Min(s.top, s.maxTop())
}

// pageRows is the number of whole rows that fit in the viewport.
func (s *scroller) pageRows() int {
	return max(1, int(s.height/s.rowHeight))
}

// moveCursor moves the cursor by delta rows and scrolls just enough to keep
// it visible. Reaching the last row turns follow on; moving up turns it off.
func (s *scroller) moveCursor(delta int) bool {
	if s.rows == 0 {
		return false
	}
	s.cursor = min(max(s.cursor+delta, 0), s.rows-1)
	s.follow = s.cursor == s.rows-1 && delta > 0
	return s.reveal()
}

func (s *scroller) reveal() bool {
	rowTop := float64(s.cursor) * s.rowHeight
	top := s.top
	switch {
	case rowTop < top:
		top = rowTop
	case rowTop+s.rowHeight > top+s.height:
		top = rowTop + s.rowHeight - s.height
	}
	return s.setTop(top)
}

// scrollBy moves the viewport by delta lines without touching the cursor.
func (s *scroller) scrollBy(delta float64) bool {
	moved := s.setTop(s.top + delta)
	if delta < 0 {
		s.follow = false
	}
	return moved
}

// rowAt maps a line offset inside the viewport to a row index, or -1.
func (s *scroller) rowAt(line int) int {
	if line < 0 || float64(line) >= s.height {
		return -1
	}
	idx := int(math.Floor((s.top + float64(line)) / s.rowHeight))
	if idx >= s.rows {
		return -1
	}
	return idx
}
