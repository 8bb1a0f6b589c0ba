package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation and override failure.
var ErrInvalid = errors.New("invalid config")

// Load reads configuration from the standard config path.
// Search order:
//  1. $XDG_CONFIG_HOME/telegrid/config.toml
//  2. ~/.config/telegrid/config.toml
//
// If no file exists, returns DefaultConfig() with environment overrides.
func Load() (*Config, error) {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return LoadFromFile(p)
		}
	}
	cfg := DefaultConfig()
	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path. Files ending
// in .yaml or .yml are parsed as YAML, everything else as TOML. A missing
// file yields the defaults.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			if err := finish(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(f)
	default:
		return LoadFromReader(f)
	}
}

// LoadFromReader reads TOML configuration from an io.Reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		slog.Warn("unknown config keys ignored", "keys", keys)
	}
	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadYAML reads YAML configuration from an io.Reader. Unknown keys are an
// error.
func LoadYAML(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func finish(cfg *Config) error {
	if err := applyEnvOverrides(cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

// DefaultConfig returns the default configuration with sensible defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
			LogFile:  filepath.Join(xdgStateHome(home), "telegrid", "telegrid.log"),
			CacheDir: filepath.Join(xdgCacheHome(home), "telegrid"),
		},
		Table: TableConfig{
			RowHeight:  1,
			WindowSize: 100,
			MaxRows:    10000,
			Retention:  Duration{10 * time.Minute},
			Preset:     "default",
			Sort:       "time",
			Persist:    true,
		},
		TUI: TUIConfig{
			FrameInterval: Duration{16 * time.Millisecond},
			Follow:        true,
			Mouse:         true,
			Theme:         "default",
		},
		Collectors: CollectorsConfig{
			SysMetrics: SysMetricsCollectorConfig{
				Enabled:      true,
				Interval:     Duration{2 * time.Second},
				DiskInterval: Duration{60 * time.Second},
			},
			Kubernetes: K8sCollectorConfig{
				Enabled:  false,
				Interval: Duration{15 * time.Second},
			},
			Tailscale: TailscaleCollectorConfig{
				Enabled:  false,
				Interval: Duration{10 * time.Second},
			},
			Synthetic: SyntheticCollectorConfig{
				Enabled:  false,
				Interval: Duration{250 * time.Millisecond},
				Series:   32,
				Seed:     1,
				Step:     1,
			},
		},
	}
}

// applyEnvOverrides checks environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("TELEGRID_THEME"); v != "" {
		cfg.TUI.Theme = v
	}
	if v := os.Getenv("TELEGRID_LOG_LEVEL"); v != "" {
		cfg.General.LogLevel = v
	}
	if v := os.Getenv("TELEGRID_WINDOW_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: TELEGRID_WINDOW_SIZE=%q: %v", ErrInvalid, v, err)
		}
		cfg.Table.WindowSize = n
	}
	if v := os.Getenv("KUBECONFIG"); v != "" && cfg.Collectors.Kubernetes.Kubeconfig == "" {
		// KUBECONFIG may hold a path list; client-go merges it when
		// Kubeconfig is empty, so only a single path is pinned here.
		if !strings.Contains(v, string(os.PathListSeparator)) {
			cfg.Collectors.Kubernetes.Kubeconfig = v
		}
	}
	if v := os.Getenv("TELEGRID_TAILSCALE_SOCKET"); v != "" {
		cfg.Collectors.Tailscale.Socket = v
	}
	return nil
}

// configSearchPaths returns the ordered list of config file paths to try.
func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	var paths []string

	xdg := xdgConfigHome(home)
	paths = append(paths, filepath.Join(xdg, "telegrid", "config.toml"))

	// If XDG_CONFIG_HOME was explicitly set, also try the fallback default.
	defaultXDG := filepath.Join(home, ".config")
	if xdg != defaultXDG {
		paths = append(paths, filepath.Join(defaultXDG, "telegrid", "config.toml"))
	}

	return paths
}

// xdgConfigHome returns XDG_CONFIG_HOME or ~/.config as fallback.
func xdgConfigHome(home string) string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".config")
}

// xdgStateHome returns XDG_STATE_HOME or ~/.local/state as fallback.
func xdgStateHome(home string) string {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".local", "state")
}

// xdgCacheHome returns XDG_CACHE_HOME or ~/.cache as fallback.
func xdgCacheHome(home string) string {
	if v := os.Getenv("XDG_CACHE_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".cache")
}
