package ui

import (
	"log/slog"

	"github.com/bamsammich/ffd/internal/stats"
)

// quietPresenter consumes events but produces no output beyond the log.
type quietPresenter struct {
	stats *stats.Collector
	log   *slog.Logger
}

func (p *quietPresenter) Run(events <-chan Event) error {
	for ev := range events {
		logEvent(p.log, ev)
	}
	return nil
}

func (p *quietPresenter) Summary() string {
	return ""
}
