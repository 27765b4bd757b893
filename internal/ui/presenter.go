package ui

import (
	"io"
	"log/slog"

	"github.com/bamsammich/ffd/internal/stats"
)

// Presenter consumes engine events and reports them to the user.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan Event) error
	// Summary returns the final summary line.
	Summary() string
}

// Config configures a Presenter.
type Config struct {
	ErrWriter io.Writer
	Stats     *stats.Collector
	Logger    *slog.Logger
	Quiet     bool
	Verbose   bool
}

// NewPresenter creates the appropriate presenter based on configuration.
//
//nolint:ireturn // factory function returns interface by design
func NewPresenter(cfg Config) Presenter {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if cfg.Quiet {
		return &quietPresenter{stats: cfg.Stats, log: log}
	}
	return &plainPresenter{
		errW:    cfg.ErrWriter,
		stats:   cfg.Stats,
		log:     log,
		verbose: cfg.Verbose,
	}
}

// logEvent tees an engine event into the debug log.
func logEvent(log *slog.Logger, ev Event) {
	attrs := []any{"type", ev.Type.String(), "volume", ev.Volume}
	if ev.Path != "" {
		attrs = append(attrs, "path", ev.Path)
	}
	if ev.OldName != "" {
		attrs = append(attrs, "old_name", ev.OldName)
	}
	if ev.Total != 0 {
		attrs = append(attrs, "total", ev.Total)
	}
	if ev.Error != nil {
		attrs = append(attrs, "error", ev.Error)
	}
	log.Debug("ffd.event", attrs...)
}
