package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gitlab.com/tinyland/lab/telegrid/pkg/telemetry"
)

// Validate reports every problem found, each wrapped in ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if _, err := c.General.Level(); err != nil {
		bad("general.log_level %q", c.General.LogLevel)
	}

	t := c.Table
	if !(t.RowHeight > 0) || math.IsInf(t.RowHeight, 0) {
		bad("table.row_height must be positive, got %v", t.RowHeight)
	}
	if t.WindowSize <= 0 {
		bad("table.window_size must be positive, got %d", t.WindowSize)
	}
	for _, k := range t.ColumnKeys() {
		if !telemetry.KnownKey(k) {
			bad("table.columns: unknown column %q", k)
		}
	}
	if t.Retention.Duration < 0 {
		bad("table.retention must not be negative")
	}
	if t.Sort != "" && !telemetry.KnownKey(t.Sort) {
		bad("table.sort: unknown column %q", t.Sort)
	}

	if c.TUI.FrameInterval.Duration <= 0 {
		bad("tui.frame_interval must be positive")
	}

	if c.Collectors.Synthetic.Series < 0 {
		bad("collectors.synthetic.series must not be negative")
	}
	if c.Collectors.Synthetic.Step < 0 {
		bad("collectors.synthetic.step must not be negative")
	}

	return errors.Join(errs...)
}

// Level parses LogLevel. An empty level means info.
func (g GeneralConfig) Level() (slog.Level, error) {
	var l slog.Level
	if g.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	err := l.UnmarshalText([]byte(g.LogLevel))
	return l, err
}
