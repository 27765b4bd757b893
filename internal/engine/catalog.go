package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bamsammich/ffd/internal/event"
	"github.com/bamsammich/ffd/internal/index"
	"github.com/bamsammich/ffd/internal/usn"
)

// Volume is one indexed drive.
type Volume struct {
	Label  string
	Device usn.Device
	Index  *index.Index
}

// OpenFunc opens the device behind a drive label such as "C:".
type OpenFunc func(label string) (usn.Device, error)

// CatalogConfig configures a Catalog.
type CatalogConfig struct {
	Config
	Workers int // volumes bootstrapped or synced at once; <= 0 means all
	Open    OpenFunc
}

// Catalog owns the indexes of every active volume. A volume that fails is
// logged and dropped; the others keep working.
type Catalog struct {
	cfg     CatalogConfig
	mu      sync.RWMutex
	volumes []*Volume
}

// NewCatalog returns an empty catalog.
func NewCatalog(cfg CatalogConfig) *Catalog {
	return &Catalog{cfg: cfg}
}

// Open opens and bootstraps labels concurrently. Volumes that succeed are
// added in label order. The returned error joins the failures, if any; it
// is non-nil even when some volumes were added.
func (c *Catalog) Open(ctx context.Context, labels []string) error {
	vols := make([]*Volume, len(labels))
	errs := make([]error, len(labels))

	var g errgroup.Group
	g.SetLimit(c.limit())
	for i, label := range labels {
		g.Go(func() error {
			v, err := c.openVolume(ctx, label)
			if err != nil {
				errs[i] = err
				c.failed(ctx, label, err)
				return nil
			}
			vols[i] = v
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	c.mu.Lock()
	for _, v := range vols {
		if v != nil {
			c.volumes = append(c.volumes, v)
		}
	}
	c.mu.Unlock()
	return errors.Join(errs...)
}

func (c *Catalog) openVolume(ctx context.Context, label string) (*Volume, error) {
	if c.cfg.Open == nil {
		return nil, fmt.Errorf("open %s: no volume opener configured", label)
	}
	dev, err := c.cfg.Open(label)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", label, err)
	}
	idx, err := Bootstrap(ctx, dev, c.config())
	if err != nil {
		_ = closeDevice(dev)
		return nil, err
	}
	return &Volume{Label: label, Device: dev, Index: idx}, nil
}

// Sync brings every active volume up to date with its journal. A volume
// whose journal is discontinuous is rebuilt in place. A volume that fails
// any other way, or fails to rebuild, is closed and dropped. The returned
// error joins the per-volume failures.
func (c *Catalog) Sync(ctx context.Context) error {
	vols := c.Volumes()
	errs := make([]error, len(vols))
	drop := make([]bool, len(vols))

	var g errgroup.Group
	g.SetLimit(c.limit())
	for i, v := range vols {
		g.Go(func() error {
			err := c.syncVolume(ctx, v)
			if err == nil {
				return nil
			}
			errs[i] = err
			if ctx.Err() != nil {
				// Interrupted, not broken. A cancelled Sync leaves the cursor
				// where it was and a cancelled Rebuild leaves the old index
				// in place, so the next Sync resumes or rebuilds again.
				return nil
			}
			drop[i] = true
			c.failed(ctx, v.Label, err)
			return nil
		})
	}
	_ = g.Wait()

	var dropped []*Volume
	for i, v := range vols {
		if drop[i] {
			dropped = append(dropped, v)
		}
	}
	if len(dropped) > 0 {
		c.mu.Lock()
		c.volumes = slices.DeleteFunc(c.volumes, func(v *Volume) bool {
			return slices.Contains(dropped, v)
		})
		c.mu.Unlock()
		for _, v := range dropped {
			_ = closeDevice(v.Device)
		}
	}
	return errors.Join(errs...)
}

func (c *Catalog) syncVolume(ctx context.Context, v *Volume) error {
	cfg := c.config()
	_, err := Sync(ctx, v.Index, v.Device, cfg)
	if !errors.Is(err, ErrJournalDiscontinuity) {
		return err
	}

	cfg.logger().Warn("journal discontinuity, rebuilding", "volume", v.Label, "error", err)
	if err := Rebuild(ctx, v.Index, v.Device, cfg); err != nil {
		return fmt.Errorf("rebuild %s: %w", v.Label, err)
	}
	if cfg.Stats != nil {
		cfg.Stats.AddRebuilds(1)
	}
	cfg.emit(ctx, event.Event{Type: event.VolumeRebuilt, Volume: v.Label, Total: int64(v.Index.Len())})
	return nil
}

func (c *Catalog) failed(ctx context.Context, label string, err error) {
	cfg := c.config()
	cfg.logger().Error("volume failed", "volume", label, "error", err)
	if cfg.Stats != nil {
		cfg.Stats.AddVolumesFailed(1)
	}
	cfg.emit(ctx, event.Event{Type: event.VolumeFailed, Volume: label, Error: err})
}

// SetEvents redirects engine events to ch (nil discards them). It must not
// be called while Open or Sync is running.
func (c *Catalog) SetEvents(ch chan<- event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.Events = ch
}

func (c *Catalog) config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.Config
}

// Search chains the searches of every active volume, in volume order.
// Each volume's read lock is held while its matches are being yielded.
func (c *Catalog) Search(query string) iter.Seq[index.Match] {
	return func(yield func(index.Match) bool) {
		st := c.config().Stats
		if st != nil {
			st.AddSearches(1)
		}
		for _, v := range c.Volumes() {
			for m := range v.Index.Search(query) {
				if st != nil {
					st.AddMatches(1)
				}
				if !yield(m) {
					return
				}
			}
		}
	}
}

// Volumes returns a snapshot of the active volumes.
func (c *Catalog) Volumes() []*Volume {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.volumes)
}

// Len returns the number of entries across all active volumes.
func (c *Catalog) Len() int {
	n := 0
	for _, v := range c.Volumes() {
		n += v.Index.Len()
	}
	return n
}

// Close releases every volume handle. The catalog is empty afterwards.
func (c *Catalog) Close() error {
	c.mu.Lock()
	vols := c.volumes
	c.volumes = nil
	c.mu.Unlock()

	var errs []error
	for _, v := range vols {
		if err := closeDevice(v.Device); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", v.Label, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Catalog) limit() int {
	if c.cfg.Workers <= 0 {
		return -1
	}
	return c.cfg.Workers
}

func closeDevice(dev usn.Device) error {
	if cl, ok := dev.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
