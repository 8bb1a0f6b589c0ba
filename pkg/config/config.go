// Package config provides TOML and YAML configuration for telegrid.
package config

// Config is the complete telegrid configuration.
type Config struct {
	General    GeneralConfig    `toml:"general" yaml:"general"`
	Table      TableConfig      `toml:"table" yaml:"table"`
	TUI        TUIConfig        `toml:"tui" yaml:"tui"`
	Collectors CollectorsConfig `toml:"collectors" yaml:"collectors"`
}

// GeneralConfig holds process-wide settings.
type GeneralConfig struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// LogFile receives logs while the TUI owns the terminal.
	LogFile string `toml:"log_file" yaml:"log_file"`

	// CacheDir holds rows saved between runs.
	CacheDir string `toml:"cache_dir" yaml:"cache_dir"`
}

// TableConfig controls the telemetry table and its window.
type TableConfig struct {
	// RowHeight is the height of one row in terminal lines.
	RowHeight float64 `toml:"row_height" yaml:"row_height"`

	// WindowSize is the number of rows kept materialized.
	WindowSize int `toml:"window_size" yaml:"window_size"`

	// MaxRows bounds retained rows; zero uses the table default and a
	// negative value disables the bound.
	MaxRows int `toml:"max_rows" yaml:"max_rows"`

	// Retention drops rows older than this on every update. Zero keeps rows
	// until MaxRows evicts them.
	Retention Duration `toml:"retention" yaml:"retention"`

	// Preset names a column set (see ColumnPreset). Columns overrides it.
	Preset  string   `toml:"preset" yaml:"preset"`
	Columns []string `toml:"columns" yaml:"columns"`

	Sort     string `toml:"sort" yaml:"sort"`
	SortDesc bool   `toml:"sort_desc" yaml:"sort_desc"`

	// Persist saves rows to the cache on exit and restores them on start.
	Persist bool `toml:"persist" yaml:"persist"`
}

// TUIConfig controls the interactive terminal UI.
type TUIConfig struct {
	// FrameInterval is the scroll coalescing period.
	FrameInterval Duration `toml:"frame_interval" yaml:"frame_interval"`

	// Follow pins the viewport to the newest rows until the user scrolls.
	Follow bool `toml:"follow" yaml:"follow"`

	Mouse     bool   `toml:"mouse" yaml:"mouse"`
	Theme     string `toml:"theme" yaml:"theme"`
	ThemeFile string `toml:"theme_file" yaml:"theme_file"`
}

// CollectorsConfig enables and tunes each collector.
type CollectorsConfig struct {
	SysMetrics SysMetricsCollectorConfig `toml:"sysmetrics" yaml:"sysmetrics"`
	Kubernetes K8sCollectorConfig        `toml:"kubernetes" yaml:"kubernetes"`
	Tailscale  TailscaleCollectorConfig  `toml:"tailscale" yaml:"tailscale"`
	Synthetic  SyntheticCollectorConfig  `toml:"synthetic" yaml:"synthetic"`
}

// SysMetricsCollectorConfig configures host metrics.
type SysMetricsCollectorConfig struct {
	Enabled      bool     `toml:"enabled" yaml:"enabled"`
	Interval     Duration `toml:"interval" yaml:"interval"`
	DiskInterval Duration `toml:"disk_interval" yaml:"disk_interval"`
	Mounts       []string `toml:"mounts" yaml:"mounts"`
	PerCore      bool     `toml:"per_core" yaml:"per_core"`
}

// K8sCollectorConfig configures cluster metrics.
type K8sCollectorConfig struct {
	Enabled    bool     `toml:"enabled" yaml:"enabled"`
	Interval   Duration `toml:"interval" yaml:"interval"`
	Kubeconfig string   `toml:"kubeconfig" yaml:"kubeconfig"`
	Contexts   []string `toml:"contexts" yaml:"contexts"`
	Namespaces []string `toml:"namespaces" yaml:"namespaces"`
}

// TailscaleCollectorConfig configures tailnet metrics.
type TailscaleCollectorConfig struct {
	Enabled        bool     `toml:"enabled" yaml:"enabled"`
	Interval       Duration `toml:"interval" yaml:"interval"`
	Socket         string   `toml:"socket" yaml:"socket"`
	IncludeOffline bool     `toml:"include_offline" yaml:"include_offline"`
}

// SyntheticCollectorConfig configures the random-walk generator.
type SyntheticCollectorConfig struct {
	Enabled  bool     `toml:"enabled" yaml:"enabled"`
	Interval Duration `toml:"interval" yaml:"interval"`
	Series   int      `toml:"series" yaml:"series"`
	Seed     uint64   `toml:"seed" yaml:"seed"`
	Step     float64  `toml:"step" yaml:"step"`
}

// ColumnKeys returns the configured column keys: the explicit list when
// set, otherwise the preset's.
func (t TableConfig) ColumnKeys() []string {
	if len(t.Columns) > 0 {
		return t.Columns
	}
	return ColumnPreset(t.Preset)
}
