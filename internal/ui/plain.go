package ui

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bamsammich/ffd/internal/stats"
)

const (
	progressEvery = 5  // ticks between scan progress lines
	sparkWidth    = 10 // seconds of scan rate shown on a progress line
)

// plainPresenter reports volume lifecycle on stderr, and individual
// changes when verbose.
type plainPresenter struct {
	errW    io.Writer
	stats   *stats.Collector
	log     *slog.Logger
	verbose bool

	scanning int // volumes between ScanStarted and ScanComplete/VolumeFailed
	ticks    int
}

func (p *plainPresenter) Run(events <-chan Event) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-ticker.C:
			p.tick()
		}
	}
}

func (p *plainPresenter) handleEvent(ev Event) {
	logEvent(p.log, ev)
	switch ev.Type {
	case ScanStarted:
		p.scanning++
		if p.verbose {
			fmt.Fprintf(p.errW, "indexing %s...\n", ev.Volume)
		}
	case ScanComplete:
		p.scanning = max(0, p.scanning-1)
		fmt.Fprintf(p.errW, "%s  %s\n", ev.Volume, Plural(ev.Total, "entry", "entries"))
	case VolumeRebuilt:
		fmt.Fprintf(p.errW, "%s  journal reset, re-indexed %s\n", ev.Volume, Plural(ev.Total, "entry", "entries"))
	case VolumeFailed:
		p.scanning = max(0, p.scanning-1)
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		fmt.Fprintf(p.errW, "%s  failed: %s\n", ev.Volume, errMsg)
	case EntryCreated:
		if p.verbose {
			fmt.Fprintf(p.errW, "+ %s\n", ev.Path)
		}
	case EntryDeleted:
		if p.verbose {
			fmt.Fprintf(p.errW, "- %s\n", ev.Path)
		}
	case EntryRenamed:
		if p.verbose {
			fmt.Fprintf(p.errW, "~ %s (was %s)\n", ev.Path, ev.OldName)
		}
	case SyncComplete:
		// silent; counted by the collector
	}
}

func (p *plainPresenter) tick() {
	if p.stats == nil {
		return
	}
	p.stats.Tick()
	if p.scanning == 0 {
		p.ticks = 0
		return
	}
	p.ticks++
	if p.ticks%progressEvery != 0 {
		return
	}
	snap := p.stats.Snapshot()
	fmt.Fprintf(p.errW, "scanning: %s records  %s  %s\n",
		FormatCount(snap.RecordsScanned),
		FormatRate(p.stats.RollingRate(progressEvery)),
		Sparkline(p.stats.History(sparkWidth), sparkWidth),
	)
}

func (p *plainPresenter) Summary() string {
	if p.stats == nil {
		return ""
	}
	return CompletionSummary(p.stats.Snapshot())
}
