// Package telemetry is the row store behind the windowed table. A Table keeps
// telemetry datums in arrival order, maintains a filtered and sorted view of
// them, enforces retention, and emits change events for every mutation of
// that view.
package telemetry

import (
	"cmp"
	"strconv"
	"strings"
	"time"
)

// Datum is a single telemetry sample. ID is assigned by the Table on insert
// and increases with arrival order.
type Datum struct {
	ID     uint64    `json:"id"`
	Time   time.Time `json:"time"`
	Source string    `json:"source"` // collector that produced the sample
	Name   string    `json:"name"`   // metric name, e.g. "cpu.total"
	Value  float64   `json:"value"`
	Unit   string    `json:"unit,omitempty"`
}

// Builtin column keys.
const (
	KeyTime   = "time"
	KeySource = "source"
	KeyName   = "name"
	KeyValue  = "value"
	KeyUnit   = "unit"
)

// TimeFormat is used when rendering the time column.
const TimeFormat = "15:04:05.000"

// Column describes one table column.
type Column struct {
	Key   string
	Title string
}

// DefaultColumns returns the builtin column set in display order.
func DefaultColumns() []Column {
	return []Column{
		{Key: KeyTime, Title: "Time"},
		{Key: KeySource, Title: "Source"},
		{Key: KeyName, Title: "Metric"},
		{Key: KeyValue, Title: "Value"},
		{Key: KeyUnit, Title: "Unit"},
	}
}

// KnownKey reports whether key names a builtin column.
func KnownKey(key string) bool {
	switch key {
	case KeyTime, KeySource, KeyName, KeyValue, KeyUnit:
		return true
	}
	return false
}

// ColumnsFor builds columns for the given keys using the builtin titles.
// Unknown keys keep the key as their title.
func ColumnsFor(keys []string) []Column {
	titles := make(map[string]string)
	for _, c := range DefaultColumns() {
		titles[c.Key] = c.Title
	}
	cols := make([]Column, 0, len(keys))
	for _, k := range keys {
		title, ok := titles[k]
		if !ok {
			title = k
		}
		cols = append(cols, Column{Key: k, Title: title})
	}
	return cols
}

// Field renders the value of column key for display. Unknown keys render
// empty.
func (d Datum) Field(key string) string {
	switch key {
	case KeyTime:
		if d.Time.IsZero() {
			return ""
		}
		return d.Time.Format(TimeFormat)
	case KeySource:
		return d.Source
	case KeyName:
		return d.Name
	case KeyValue:
		return strconv.FormatFloat(d.Value, 'f', 2, 64)
	case KeyUnit:
		return d.Unit
	}
	return ""
}

// Matches reports whether any builtin field contains query,
// case-insensitively. The query must already be lower-cased.
func (d Datum) Matches(query string) bool {
	if query == "" {
		return true
	}
	for _, key := range []string{KeySource, KeyName, KeyValue, KeyUnit, KeyTime} {
		if strings.Contains(strings.ToLower(d.Field(key)), query) {
			return true
		}
	}
	return false
}

// compareBy returns a three-way comparison on column key. Ties, and unknown
// keys, fall back to arrival order so sorting is total and stable.
func compareBy(key string) func(a, b Datum) int {
	var primary func(a, b Datum) int
	switch key {
	case KeyTime:
		primary = func(a, b Datum) int { return a.Time.Compare(b.Time) }
	case KeySource:
		primary = func(a, b Datum) int { return strings.Compare(a.Source, b.Source) }
	case KeyName:
		primary = func(a, b Datum) int { return strings.Compare(a.Name, b.Name) }
	case KeyValue:
		primary = func(a, b Datum) int { return cmp.Compare(a.Value, b.Value) }
	case KeyUnit:
		primary = func(a, b Datum) int { return strings.Compare(a.Unit, b.Unit) }
	default:
		primary = func(a, b Datum) int { return 0 }
	}
	return func(a, b Datum) int {
		if c := primary(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	}
}
