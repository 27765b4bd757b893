package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/ffd/internal/config"
	"github.com/bamsammich/ffd/internal/engine"
	"github.com/bamsammich/ffd/internal/event"
	"github.com/bamsammich/ffd/internal/filter"
	"github.com/bamsammich/ffd/internal/platform"
	"github.com/bamsammich/ffd/internal/stats"
	"github.com/bamsammich/ffd/internal/ui"
	"github.com/bamsammich/ffd/internal/ui/tui"
	"github.com/bamsammich/ffd/internal/usn"
)

// app is one ffd session: the resolved settings, the logger and the
// catalog of indexed volumes.
type app struct {
	opts    *options
	theme   ui.Theme
	labels  []string
	logger  *slog.Logger
	stats   *stats.Collector
	catalog *engine.Catalog
	isTTY   bool
	color   bool
	errW    io.Writer
	closers []io.Closer
}

// newApp merges config file defaults into opts, configures logging and
// resolves the drives to index. Nothing is opened yet.
//
//nolint:gocyclo // cyclomatic: flag/config resolution is a flat sequence of checks
func newApp(cmd *cobra.Command, opts *options) (*app, error) {
	// Load optional config file.
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config", "error", err)
	}

	// Apply config defaults for flags not explicitly set on CLI.
	applyConfigDefaults(cmd.Flags(), cfg.Defaults, opts)
	for _, pattern := range cfg.Defaults.Exclude {
		// Config rules go after the CLI ones so the command line wins.
		if err := opts.chain.AddExclude(pattern); err != nil {
			return nil, fmt.Errorf("config exclude %q: %w", pattern, err)
		}
	}

	a := &app{
		opts:  opts,
		theme: ui.DefaultTheme().With(cfg.Theme),
		stats: stats.NewCollector(),
		isTTY: ui.IsTTY(os.Stdout.Fd()) && ui.IsTTY(os.Stdin.Fd()),
		color: ui.ColorEnabled(os.Stdout.Fd(), opts.noColor),
		errW:  os.Stderr,
	}

	logger, logCloser, err := newLogger(opts)
	if err != nil {
		return nil, err
	}
	if logCloser != nil {
		a.closers = append(a.closers, logCloser)
	}
	a.logger = logger
	slog.SetDefault(logger)

	for _, key := range cfg.Unknown {
		logger.Warn("unknown config key", "key", key, "file", config.Path())
	}

	bufSize, err := filter.ParseSize(opts.bufferSize)
	if err != nil {
		return nil, fmt.Errorf("invalid --buffer-size: %w", err)
	}
	if bufSize < minBufferSize || bufSize > maxBufferSize {
		return nil, fmt.Errorf("invalid --buffer-size: %s is outside %d..%d bytes",
			opts.bufferSize, minBufferSize, maxBufferSize)
	}
	if opts.workers < 0 {
		return nil, fmt.Errorf("invalid --workers: must not be negative, got %d", opts.workers)
	}
	if opts.maxResults < 0 {
		return nil, fmt.Errorf("invalid --max-results: must not be negative, got %d", opts.maxResults)
	}

	// Load filter file if specified.
	if opts.filterFile != "" {
		if err := opts.chain.LoadFile(opts.filterFile); err != nil {
			return nil, fmt.Errorf("load filter file: %w", err)
		}
	}

	a.labels, err = resolveDrives(opts.drives)
	if err != nil {
		return nil, err
	}

	a.catalog = engine.NewCatalog(engine.CatalogConfig{
		Config: engine.Config{
			BufferSize: int(bufSize),
			Logger:     logger,
			Stats:      a.stats,
		},
		Workers: opts.workers,
		Open:    openDevice,
	})

	logger.Debug("starting",
		"drives", a.labels,
		"buffer_size", bufSize,
		"workers", opts.workers,
		"max_results", opts.maxResults,
		"filters", !opts.chain.Empty(),
	)
	return a, nil
}

// Bounds for --buffer-size. The floor leaves room for the cursor prefix
// and one record with a maximal 255-unit name; the control calls take a
// uint32 length.
const (
	minBufferSize = 1 << 10
	maxBufferSize = 64 << 20
)

// newLogger configures slog the way every ffd command does: text on stderr,
// plus a JSON file at debug level when --log is given.
func newLogger(opts *options) (*slog.Logger, io.Closer, error) {
	logLevel := slog.LevelWarn
	if opts.verbose {
		logLevel = slog.LevelDebug
	} else if opts.quiet {
		logLevel = slog.LevelError
	}
	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	if opts.logFile == "" {
		return slog.New(textHandler), nil, nil
	}

	lf, err := os.Create(opts.logFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return slog.New(ui.NewMultiHandler(textHandler, jsonHandler)), lf, nil
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(fs *pflag.FlagSet, defaults config.DefaultsConfig, opts *options) {
	if !fs.Changed("drive") && len(defaults.Drives) > 0 {
		opts.drives = slices.Clone(defaults.Drives)
	}
	if !fs.Changed("buffer-size") && defaults.BufferSize != nil {
		opts.bufferSize = *defaults.BufferSize
	}
	if !fs.Changed("workers") && defaults.Workers != nil {
		opts.workers = *defaults.Workers
	}
	if !fs.Changed("no-color") && defaults.Color != nil {
		opts.noColor = !*defaults.Color
	}
	if !fs.Changed("tui") && defaults.TUI != nil {
		opts.tui = *defaults.TUI
	}
	if !fs.Changed("max-results") && defaults.MaxResults != nil {
		opts.maxResults = *defaults.MaxResults
	}
}

// resolveDrives normalizes the requested labels, or discovers the
// searchable drives when none were requested.
func resolveDrives(requested []string) ([]string, error) {
	if len(requested) == 0 {
		drives, err := platform.Drives()
		if err != nil {
			return nil, fmt.Errorf("discover drives: %w", err)
		}
		labels := platform.SearchableDrives(drives)
		if len(labels) == 0 {
			return nil, &exitError{code: 2, err: errors.New("no drives to index; pass --drive")}
		}
		return labels, nil
	}

	var labels []string
	for _, d := range requested {
		label := config.NormalizeDrive(d)
		if len(label) != 2 || label[1] != ':' || label[0] < 'A' || label[0] > 'Z' {
			return nil, fmt.Errorf("invalid --drive %q: want a drive label like C:", d)
		}
		if !slices.Contains(labels, label) {
			labels = append(labels, label)
		}
	}
	return labels, nil
}

// openDevice adapts platform.OpenVolume to engine.OpenFunc.
func openDevice(label string) (usn.Device, error) {
	v, err := platform.OpenVolume(label)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// watch routes catalog events to a fresh presenter. The returned function
// detaches it, waits for it to drain and returns it for its summary.
func (a *app) watch() func() ui.Presenter {
	events := make(chan event.Event, 256)
	p := ui.NewPresenter(ui.Config{
		ErrWriter: a.errW,
		Stats:     a.stats,
		Logger:    a.logger,
		Quiet:     a.opts.quiet,
		Verbose:   a.opts.verbose,
	})
	a.catalog.SetEvents(events)

	done := make(chan error, 1)
	go func() { done <- p.Run(events) }()

	return func() ui.Presenter {
		a.catalog.SetEvents(nil)
		close(events)
		if err := <-done; err != nil {
			fmt.Fprintf(a.errW, "presenter: %v\n", err)
		}
		return p
	}
}

// open bootstraps every drive. Individual failures are reported and
// skipped; it fails only when no volume could be indexed.
func (a *app) open(ctx context.Context) error {
	stop := a.watch()
	err := a.catalog.Open(ctx, a.labels)
	presenter := stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if len(a.catalog.Volumes()) == 0 {
		return &exitError{code: 2, err: fmt.Errorf("no volume could be indexed: %w", err)}
	}
	if !a.opts.quiet {
		if summary := presenter.Summary(); summary != "" {
			fmt.Fprintln(a.errW, summary)
		}
	}
	return nil
}

func (a *app) session(out io.Writer) *session {
	return &session{
		catalog:    a.catalog,
		stats:      a.stats,
		chain:      a.opts.chain,
		printer:    ui.NewPrinter(out, a.theme, a.color),
		maxResults: a.opts.maxResults,
		logger:     a.logger,
	}
}

// repl runs the prompt loop on in until EOF, :quit or cancellation.
func (a *app) repl(ctx context.Context, in io.Reader) error {
	stop := a.watch()
	defer stop()
	return a.session(os.Stdout).repl(ctx, in)
}

// interactive runs the full-screen search and prints the chosen path.
func (a *app) interactive(ctx context.Context) error {
	maxResults := a.opts.maxResults
	if maxResults == 0 {
		maxResults = tui.DefaultMaxResults
	}

	// The TUI reads events itself; a presenter would write over the screen.
	events := make(chan event.Event, 64)
	a.catalog.SetEvents(events)

	selected, err := tui.Run(ctx, tui.Config{
		Searcher:   a.catalog,
		Filter:     a.opts.chain,
		MaxResults: maxResults,
		Theme:      a.theme,
		Events:     events,
	})
	if err != nil {
		return err
	}
	if selected != "" {
		fmt.Fprintln(os.Stdout, selected)
	}
	return nil
}

func (a *app) close() {
	if err := a.catalog.Close(); err != nil {
		a.logger.Warn("close volumes", "error", err)
	}
	if a.opts.verbose {
		fmt.Fprintln(a.errW, a.stats.Snapshot().String())
	}
	for _, c := range a.closers {
		_ = c.Close()
	}
}
