package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/bamsammich/ffd/internal/event"
	"github.com/bamsammich/ffd/internal/index"
	"github.com/bamsammich/ffd/internal/usn"
)

// SyncResult summarizes one drain of the change journal.
type SyncResult struct {
	Created int
	Deleted int
	Renamed int
	Ignored int   // records whose reason was not exactly one of the above
	From    int64 // cursor before the sync
	To      int64 // cursor after the sync
}

// Applied returns the number of records that changed the index.
func (r SyncResult) Applied() int { return r.Created + r.Deleted + r.Renamed }

// Sync applies every closed create, delete and rename recorded since the
// index cursor, then advances the cursor to the journal head. The index
// write lock is held for the whole drain. If the drain fails part way the
// cursor is left unchanged, so the next Sync replays the same records.
func Sync(ctx context.Context, idx *index.Index, dev usn.Device, cfg Config) (SyncResult, error) {
	label := dev.Label()
	log := cfg.logger().With("volume", label)

	jd, err := dev.QueryUSNJournal()
	if err != nil {
		return SyncResult{}, fmt.Errorf("query journal on %s: %w", label, err)
	}

	var res SyncResult
	err = idx.Update(func(w *index.Writer) error {
		id, cursor := w.Journal()
		res.From, res.To = cursor, cursor
		if jd.ID != id {
			return fmt.Errorf("%w: %s journal %#x replaced by %#x", ErrJournalDiscontinuity, label, id, jd.ID)
		}
		if cursor < jd.FirstUsn {
			return fmt.Errorf("%w: %s cursor %d before first usn %d", ErrJournalDiscontinuity, label, cursor, jd.FirstUsn)
		}

		s := usn.NewJournalScanner(ctx, dev, cfg.BufferSize, id, cursor)
		for s.Next() {
			cfg.apply(ctx, w, label, s.Record(), &res)
		}
		if err := s.Err(); err != nil {
			if errors.Is(err, usn.ErrJournalEntryDeleted) {
				return fmt.Errorf("%w: %s: %w", ErrJournalDiscontinuity, label, err)
			}
			return fmt.Errorf("read journal on %s: %w", label, err)
		}
		res.To = s.Cursor()
		return w.Advance(res.To)
	})
	if err != nil {
		return res, err
	}

	if cfg.Stats != nil {
		cfg.Stats.AddSyncs(1)
		cfg.Stats.AddEntriesCreated(int64(res.Created))
		cfg.Stats.AddEntriesDeleted(int64(res.Deleted))
		cfg.Stats.AddEntriesRenamed(int64(res.Renamed))
		cfg.Stats.AddRecordsIgnored(int64(res.Ignored))
	}
	if res.Applied() > 0 {
		log.Debug("journal synced",
			"created", res.Created, "deleted", res.Deleted, "renamed", res.Renamed,
			"ignored", res.Ignored, "cursor", res.To)
	}
	cfg.emit(ctx, event.Event{Type: event.SyncComplete, Volume: label, Total: int64(res.Applied())})
	return res, nil
}

// apply folds one journal record into the index. Only a record whose reason
// is exactly Close plus one of create, delete or rename-new-name is acted
// on; anything carrying extra reason bits is counted as ignored.
func (c Config) apply(ctx context.Context, w *index.Writer, label string, rec usn.Record, res *SyncResult) {
	switch rec.Reason ^ usn.ReasonClose {
	case usn.ReasonFileCreate:
		w.Insert(rec.ID, rec.Parent, rec.Name, rec.IsDir())
		res.Created++
		if c.Events != nil {
			path, _ := w.PathOf(rec.ID)
			c.emit(ctx, event.Event{Type: event.EntryCreated, Volume: label, ID: rec.ID, Path: path})
		}
	case usn.ReasonFileDelete:
		var path string
		if c.Events != nil {
			path, _ = w.PathOf(rec.ID)
		}
		w.Remove(rec.ID)
		res.Deleted++
		c.emit(ctx, event.Event{Type: event.EntryDeleted, Volume: label, ID: rec.ID, Path: path})
	case usn.ReasonRenameNewName:
		prev, _ := w.Get(rec.ID)
		w.Insert(rec.ID, rec.Parent, rec.Name, rec.IsDir())
		res.Renamed++
		if c.Events != nil {
			path, _ := w.PathOf(rec.ID)
			c.emit(ctx, event.Event{
				Type: event.EntryRenamed, Volume: label, ID: rec.ID, Path: path, OldName: prev.Name,
			})
		}
	default:
		res.Ignored++
	}
}
