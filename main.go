// telegrid is a live telemetry table for the terminal.
//
// It polls host metrics, Kubernetes clusters, the local tailnet and an
// optional synthetic generator, and shows every sample in one scrollable,
// sortable and filterable table. Only a window of rows around the viewport
// is materialized, so the table stays responsive with tens of thousands of
// rows.
//
// Usage:
//
//	telegrid [flags]
//
// Flags:
//
//	-config string   Path to configuration file (default: ~/.config/telegrid/config.toml)
//	-theme string    Color theme name
//	-themes          List available themes and exit
//	-synthetic       Enable the synthetic generator
//	-seed uint       Seed for the synthetic generator
//	-dump            Print one snapshot instead of starting the TUI
//	-rows int        Rows to print in dump mode (0 = fit the terminal)
//	-width int       Width in dump mode (0 = auto-detect)
//	-verbose         Enable debug logging
//	-version         Print version and exit
//
// When stdout is not a terminal telegrid behaves as if -dump was given.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"gitlab.com/tinyland/lab/telegrid/pkg/cache"
	"gitlab.com/tinyland/lab/telegrid/pkg/collectors"
	"gitlab.com/tinyland/lab/telegrid/pkg/collectors/k8s"
	"gitlab.com/tinyland/lab/telegrid/pkg/collectors/synth"
	"gitlab.com/tinyland/lab/telegrid/pkg/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/telegrid/pkg/collectors/tailscale"
	"gitlab.com/tinyland/lab/telegrid/pkg/config"
	"gitlab.com/tinyland/lab/telegrid/pkg/telemetry"
	"gitlab.com/tinyland/lab/telegrid/pkg/theme"
	"gitlab.com/tinyland/lab/telegrid/pkg/tui"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

// Dump-mode fallbacks when the terminal size cannot be detected.
const (
	fallbackWidth  = 120
	fallbackHeight = 40
)

type flags struct {
	configPath string
	themeName  string
	listThemes bool
	synthetic  bool
	seed       uint64
	dump       bool
	rows       int
	width      int
	verbose    bool
	version    bool
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&f.themeName, "theme", "", "Color theme name")
	flag.BoolVar(&f.listThemes, "themes", false, "List available themes and exit")
	flag.BoolVar(&f.synthetic, "synthetic", false, "Enable the synthetic generator")
	flag.Uint64Var(&f.seed, "seed", 0, "Seed for the synthetic generator (0 = config)")
	flag.BoolVar(&f.dump, "dump", false, "Print one snapshot instead of starting the TUI")
	flag.IntVar(&f.rows, "rows", 0, "Rows to print in dump mode (0 = fit the terminal)")
	flag.IntVar(&f.width, "width", 0, "Width in dump mode (0 = auto-detect)")
	flag.BoolVar(&f.verbose, "verbose", false, "Enable debug logging")
	flag.BoolVar(&f.version, "version", false, "Print version and exit")
	flag.Parse()

	if f.version {
		fmt.Printf("telegrid %s (%s) built %s\n", version, commit, date)
		return
	}
	if f.listThemes {
		fmt.Println(strings.Join(theme.Names(), "\n"))
		return
	}

	if err := run(f); err != nil {
		fmt.Fprintf(os.Stderr, "telegrid: %v\n", err)
		os.Exit(1)
	}
}

func run(f flags) error {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg, f)

	th, err := resolveTheme(cfg.TUI)
	if err != nil {
		return err
	}

	interactive := !f.dump && isatty.IsTerminal(os.Stdout.Fd())

	level, err := cfg.General.Level()
	if err != nil {
		return err
	}
	if f.verbose {
		level = slog.LevelDebug
	}
	logger, closeLog, err := newLogger(cfg.General.LogFile, level, interactive)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := buildRegistry(cfg.Collectors)
	if err != nil {
		return err
	}
	tbl := telemetry.NewTable(tableConfig(cfg.Table))

	if !interactive {
		return runDump(ctx, f, cfg, th, reg, tbl, logger)
	}
	return runTUI(ctx, cfg, th, reg, tbl, logger)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromFile(path)
}

// applyFlags lets command line flags override the loaded configuration.
func applyFlags(cfg *config.Config, f flags) {
	if f.themeName != "" {
		cfg.TUI.Theme = f.themeName
	}
	if f.synthetic {
		cfg.Collectors.Synthetic.Enabled = true
	}
	if f.seed != 0 {
		cfg.Collectors.Synthetic.Seed = f.seed
	}
}

// resolveTheme registers the configured theme file, if any, and returns the
// active theme.
func resolveTheme(c config.TUIConfig) (theme.Theme, error) {
	if c.ThemeFile != "" {
		t, err := theme.LoadFile(c.ThemeFile)
		if err != nil {
			return theme.Theme{}, fmt.Errorf("load theme: %w", err)
		}
		return t, nil
	}
	return theme.GetOrDefault(c.Theme), nil
}

// newLogger logs to stderr in dump mode. While the TUI owns the terminal
// logs go to the configured file, or nowhere when none is set.
func newLogger(logFile string, level slog.Level, interactive bool) (*slog.Logger, func(), error) {
	opts := &slog.HandlerOptions{Level: level}
	if !interactive {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), func() {}, nil
	}
	if logFile == "" {
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}, nil
	}
	if err := ensureLogDir(logFile); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(file, opts)), func() { file.Close() }, nil
}

func ensureLogDir(logFile string) error {
	return os.MkdirAll(filepath.Dir(logFile), 0755)
}

// buildRegistry registers every enabled collector.
func buildRegistry(c config.CollectorsConfig) (*collectors.Registry, error) {
	reg := collectors.NewRegistry()
	var errs []error
	if c.SysMetrics.Enabled {
		errs = append(errs, reg.Register(sysmetrics.New(sysmetrics.Config{
			FastInterval:    c.SysMetrics.Interval.Duration,
			SlowInterval:    c.SysMetrics.DiskInterval.Duration,
			MonitoredMounts: c.SysMetrics.Mounts,
			PerCore:         c.SysMetrics.PerCore,
		})))
	}
	if c.Kubernetes.Enabled {
		errs = append(errs, reg.Register(k8s.New(k8s.Config{
			Interval:   c.Kubernetes.Interval.Duration,
			Kubeconfig: c.Kubernetes.Kubeconfig,
			Contexts:   c.Kubernetes.Contexts,
			Namespaces: c.Kubernetes.Namespaces,
		})))
	}
	if c.Tailscale.Enabled {
		errs = append(errs, reg.Register(tailscale.New(tailscale.Config{
			Interval:       c.Tailscale.Interval.Duration,
			SocketPath:     c.Tailscale.Socket,
			IncludeOffline: c.Tailscale.IncludeOffline,
		}, tailscale.NewLocalClient(c.Tailscale.Socket))))
	}
	if c.Synthetic.Enabled {
		errs = append(errs, reg.Register(synth.New(synth.Config{
			Interval: c.Synthetic.Interval.Duration,
			Series:   c.Synthetic.Series,
			Seed:     c.Synthetic.Seed,
			Step:     c.Synthetic.Step,
		})))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return reg, nil
}

func tableConfig(t config.TableConfig) telemetry.Config {
	return telemetry.Config{
		Columns:   telemetry.ColumnsFor(t.ColumnKeys()),
		MaxRows:   t.MaxRows,
		Retention: t.Retention.Duration,
		SortKey:   t.Sort,
		SortDesc:  t.SortDesc,
	}
}

func runTUI(ctx context.Context, cfg *config.Config, th theme.Theme, reg *collectors.Registry, tbl *telemetry.Table, logger *slog.Logger) error {
	updates := make(chan collectors.Update, collectors.DefaultUpdateBufferSize)
	runner := collectors.NewRunner(reg, updates)
	runner.SetLogger(logger)
	if err := runner.Start(ctx); err != nil {
		return err
	}
	defer runner.Stop()

	store := openCache(cfg, logger)
	if store != nil {
		restoreRows(store, tbl, logger)
	}

	model, err := tui.New(tui.Options{
		Table:         tbl,
		Updates:       updates,
		RowHeight:     cfg.Table.RowHeight,
		WindowSize:    cfg.Table.WindowSize,
		FrameInterval: cfg.TUI.FrameInterval.Duration,
		Follow:        cfg.TUI.Follow,
		Theme:         th,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if cfg.TUI.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	logger.Info("starting telegrid", "collectors", reg.List(), "theme", th.Name)

	final, err := tea.NewProgram(model, opts...).Run()
	if m, ok := final.(tui.Model); ok {
		m.Close()
	}
	if store != nil {
		if err := cache.SaveRows(store, tbl.All()); err != nil {
			logger.Warn("failed to save rows", "error", err)
		}
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// openCache returns the row cache, or nil when persistence is off or the
// cache directory is unusable.
func openCache(cfg *config.Config, logger *slog.Logger) *cache.Store {
	if !cfg.Table.Persist || cfg.General.CacheDir == "" {
		return nil
	}
	ttl := cfg.Table.Retention.Duration
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	store, err := cache.NewStore(cache.StoreConfig{Dir: cfg.General.CacheDir, DefaultTTL: ttl})
	if err != nil {
		logger.Warn("row cache disabled", "error", err)
		return nil
	}
	return store
}

// restoreRows loads rows saved by a previous run and drops those that have
// aged out of retention since.
func restoreRows(store *cache.Store, tbl *telemetry.Table, logger *slog.Logger) {
	rows, ok := cache.LoadRows(store)
	if !ok {
		return
	}
	tbl.Add(rows...)
	pruned := tbl.Prune(time.Now())
	logger.Info("restored rows", "rows", len(rows)-pruned)
}

// runDump collects once from every collector and prints the head of the
// table.
func runDump(ctx context.Context, f flags, cfg *config.Config, th theme.Theme, reg *collectors.Registry, tbl *telemetry.Table, logger *slog.Logger) error {
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	width, height := dumpSize(fd, f)

	runner := collectors.NewRunner(reg, nil)
	runner.SetLogger(logger)
	for _, name := range reg.List() {
		data, err := runner.RunOnce(ctx, name)
		if err != nil {
			logger.Warn("collection failed", "collector", name, "error", err)
		}
		tbl.Add(data...)
	}

	return tui.Snapshot(os.Stdout, tbl, tui.SnapshotOptions{
		Width:      width,
		Height:     height,
		RowHeight:  cfg.Table.RowHeight,
		WindowSize: cfg.Table.WindowSize,
		Theme:      th,
		Logger:     logger,
	})
}

// dumpSize picks the snapshot size: flags first, then the terminal, then
// fixed fallbacks. -rows counts table rows; two more lines hold the header.
func dumpSize(fd uintptr, f flags) (width, height int) {
	w, h, err := term.GetSize(fd)
	if err != nil || w <= 0 || h <= 0 {
		w, h = fallbackWidth, fallbackHeight
	}
	if f.width > 0 {
		w = f.width
	}
	if f.rows > 0 {
		h = f.rows + 2
	}
	return w, h
}
