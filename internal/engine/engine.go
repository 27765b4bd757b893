// Package engine builds and maintains per-volume indexes from the NTFS
// change journal.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bamsammich/ffd/internal/event"
	"github.com/bamsammich/ffd/internal/index"
	"github.com/bamsammich/ffd/internal/stats"
	"github.com/bamsammich/ffd/internal/usn"
)

// ErrJournalDiscontinuity means the index no longer matches the volume's
// journal (it was recreated, or entries past the cursor were purged) and
// the volume must be rebuilt from a full scan.
var ErrJournalDiscontinuity = errors.New("journal discontinuity")

// initialCapacity sizes a fresh index for a typical system volume.
const initialCapacity = 1 << 16

// Config controls how a volume is scanned and synced.
type Config struct {
	BufferSize int // control buffer size; <= 0 uses usn.DefaultBufferSize
	Logger     *slog.Logger
	Stats      *stats.Collector   // optional
	Events     chan<- event.Event // optional; sends block until received or ctx ends
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c Config) emit(ctx context.Context, ev event.Event) {
	if c.Events == nil {
		return
	}
	ev.Timestamp = time.Now()
	select {
	case c.Events <- ev:
	case <-ctx.Done():
	}
}

// Bootstrap builds a new index for dev from a full MFT enumeration.
func Bootstrap(ctx context.Context, dev usn.Device, cfg Config) (*index.Index, error) {
	idx := index.New(dev.Label(), 0)
	if err := Rebuild(ctx, idx, dev, cfg); err != nil {
		return nil, err
	}
	return idx, nil
}

// Rebuild replaces the contents of idx with a full MFT enumeration of dev.
// The journal position is captured before the scan so that changes racing
// the scan are replayed by the next Sync. If the scan fails, idx keeps its
// previous entries and journal position.
func Rebuild(ctx context.Context, idx *index.Index, dev usn.Device, cfg Config) error {
	label := dev.Label()
	log := cfg.logger().With("volume", label)

	jd, err := dev.QueryUSNJournal()
	if err != nil {
		return fmt.Errorf("query journal on %s: %w", label, err)
	}

	log.Debug("scan starting", "journal", jd.ID, "cursor", jd.NextUsn)
	cfg.emit(ctx, event.Event{Type: event.ScanStarted, Volume: label})
	start := time.Now()

	// Scan into a staging index so an interrupted scan leaves idx, and the
	// journal position it is pinned to, untouched.
	staged := index.New(idx.Root(), max(idx.Len(), initialCapacity))
	err = staged.Update(func(w *index.Writer) error {
		w.Reset(jd.ID, jd.NextUsn)
		s := usn.NewFileScanner(ctx, dev, cfg.BufferSize)
		for s.Next() {
			rec := s.Record()
			if cfg.Stats != nil {
				cfg.Stats.AddRecordsScanned(1)
			}
			// The volume root is its own parent; leaving it out keeps it
			// the boundary where path walks stop.
			if rec.ID == rec.Parent {
				continue
			}
			w.Insert(rec.ID, rec.Parent, rec.Name, rec.IsDir())
		}
		return s.Err()
	})
	if err != nil {
		return fmt.Errorf("scan %s: %w", label, err)
	}
	_ = idx.Update(func(w *index.Writer) error {
		w.Replace(staged)
		return nil
	})

	n := idx.Len()
	log.Info("volume indexed", "entries", n, "elapsed", time.Since(start).Round(time.Millisecond))
	cfg.emit(ctx, event.Event{Type: event.ScanComplete, Volume: label, Total: int64(n)})
	return nil
}
