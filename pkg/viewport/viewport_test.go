package viewport

import (
	"math"
	"testing"
)

const (
	testRowHeight = 17
	testSize      = 100
)

func TestComputeScenarios(t *testing.T) {
	tests := []struct {
		name           string
		scrollTop      float64
		viewportHeight float64
		total          int
		want           Window
	}{
		{"head of large collection", 0, 340, 1000, Window{0, 100}},
		{"near the bottom", 16490, 340, 1000, Window{901, 1000}},
		{"small collection at top", 0, 340, 50, Window{0, 50}},
		{"small collection scrolled", 5000, 340, 50, Window{0, 50}},
		{"empty collection", 0, 340, 0, Window{0, 0}},
		{"exactly window size", 1200, 340, 100, Window{0, 100}},
		{"middle of collection", 17 * 500, 340, 1000, Window{460, 560}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.scrollTop, tt.viewportHeight, testRowHeight, tt.total, testSize)
			if got != tt.want {
				t.Errorf("Compute(%v, %v, %d) = %+v, want %+v",
					tt.scrollTop, tt.viewportHeight, tt.total, got, tt.want)
			}
		})
	}
}

func TestComputeBounds(t *testing.T) {
	totals := []int{0, 1, 99, 100, 101, 250, 1000, 10000}
	offsets := []float64{-50, 0, 1, 16, 17, 340, 1699, 16490, 16999, 1e6, math.NaN()}
	heights := []float64{0, 17, 340, 1700, 5000}

	for _, total := range totals {
		for _, top := range offsets {
			for _, vh := range heights {
				w := Compute(top, vh, testRowHeight, total, testSize)
				if w.Start < 0 || w.Start > w.End || w.End > total {
					t.Fatalf("total=%d top=%v vh=%v: window %+v out of bounds", total, top, vh, w)
				}
				if w.Len() > testSize {
					t.Fatalf("total=%d top=%v vh=%v: window %+v larger than %d", total, top, vh, w, testSize)
				}
			}
		}
	}
}

func TestComputeSmallCollectionIgnoresScroll(t *testing.T) {
	for total := 0; total <= testSize; total += 7 {
		for _, top := range []float64{0, 100, 1e5} {
			w := Compute(top, 340, testRowHeight, total, testSize)
			if w != (Window{0, total}) {
				t.Errorf("total=%d top=%v: got %+v, want {0 %d}", total, top, w, total)
			}
		}
	}
}

func TestComputeWindowSizeCap(t *testing.T) {
	const total = 1000

	t.Run("head clamp keeps full size", func(t *testing.T) {
		w := Compute(17*10, 340, testRowHeight, total, testSize)
		if w.Start != 0 || w.Len() != testSize {
			t.Errorf("got %+v, want start 0 and %d rows", w, testSize)
		}
	})

	t.Run("tail clamp is one row short", func(t *testing.T) {
		w := Compute(17*990, 340, testRowHeight, total, testSize)
		if w.End != total || w.Len() != testSize-1 {
			t.Errorf("got %+v, want end %d and %d rows", w, total, testSize-1)
		}
	})

	t.Run("unclamped windows hold exactly size rows", func(t *testing.T) {
		for row := 50; row < 930; row += 13 {
			w := Compute(float64(row*testRowHeight), 340, testRowHeight, total, testSize)
			if w.Len() != testSize {
				t.Fatalf("row %d: got %+v (%d rows), want %d", row, w, w.Len(), testSize)
			}
		}
	})
}

func TestComputeMonotonicScroll(t *testing.T) {
	const total = 1000
	maxTop := float64(testRowHeight*total) - 340

	prev := -1
	for top := 0.0; top <= maxTop; top += 3.5 {
		w := Compute(top, 340, testRowHeight, total, testSize)
		if w.Start < prev {
			t.Fatalf("start went backwards at scrollTop=%v: %d < %d", top, w.Start, prev)
		}
		prev = w.Start
	}
}

func TestComputeViewportLargerThanWindow(t *testing.T) {
	// 200 visible rows with a window of 100.
	w := Compute(17*300, 17*200, testRowHeight, 1000, testSize)
	if w != (Window{300, 400}) {
		t.Errorf("got %+v, want {300 400}", w)
	}
	if w.Len() > testSize {
		t.Errorf("window %+v exceeds size %d", w, testSize)
	}
}

func TestComputeDegenerateRowHeight(t *testing.T) {
	for _, rh := range []float64{0, -17, math.NaN(), math.Inf(1)} {
		w := Compute(5000, 340, rh, 1000, testSize)
		if w != (Window{0, testSize}) {
			t.Errorf("rowHeight=%v: got %+v, want head window", rh, w)
		}
	}
}

func TestComputeDegenerateWindowSize(t *testing.T) {
	if w := Compute(0, 340, testRowHeight, 1000, 0); w != (Window{}) {
		t.Errorf("size 0: got %+v, want empty", w)
	}
	if w := Compute(0, 340, testRowHeight, 1000, -5); w != (Window{}) {
		t.Errorf("size -5: got %+v, want empty", w)
	}
}

func TestTotalHeight(t *testing.T) {
	tests := []struct {
		rowHeight float64
		total     int
		want      float64
	}{
		{17, 1000, 16999},
		{17, 1, 16},
		{17, 0, 0},
		{1, 1, 0},
		{0, 10, 0},
		{-3, 10, 0},
	}
	for _, tt := range tests {
		if got := TotalHeight(tt.rowHeight, tt.total); got != tt.want {
			t.Errorf("TotalHeight(%v, %d) = %v, want %v", tt.rowHeight, tt.total, got, tt.want)
		}
	}
}

func TestColumnWidth(t *testing.T) {
	if got := ColumnWidth(4); got != 25 {
		t.Errorf("ColumnWidth(4) = %v, want 25", got)
	}
	if got := ColumnWidth(0); got != 0 {
		t.Errorf("ColumnWidth(0) = %v, want 0", got)
	}
	if got := ColumnWidth(-1); got != 0 {
		t.Errorf("ColumnWidth(-1) = %v, want 0", got)
	}
}

func TestWindowContains(t *testing.T) {
	w := Window{Start: 10, End: 20}
	if !w.Contains(10) || !w.Contains(19) {
		t.Error("expected 10 and 19 inside [10,20)")
	}
	if w.Contains(9) || w.Contains(20) {
		t.Error("expected 9 and 20 outside [10,20)")
	}
}
