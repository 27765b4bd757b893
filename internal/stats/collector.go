package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Collector tracks indexing and search statistics using lock-free atomic counters.
type Collector struct {
	recordsScanned atomic.Int64
	entriesCreated atomic.Int64
	entriesDeleted atomic.Int64
	entriesRenamed atomic.Int64
	recordsIgnored atomic.Int64
	syncs          atomic.Int64
	rebuilds       atomic.Int64
	volumesFailed  atomic.Int64
	searches       atomic.Int64
	matches        atomic.Int64
	startTime      time.Time

	// Ring buffer, written only by Tick.
	mu          sync.Mutex
	recordsRing [ringSize]int64 // records delta per second
	ringIdx     int
	ringCount   int // samples written, capped at ringSize
	lastRecords int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	RecordsScanned int64
	EntriesCreated int64
	EntriesDeleted int64
	EntriesRenamed int64
	RecordsIgnored int64
	Syncs          int64
	Rebuilds       int64
	VolumesFailed  int64
	Searches       int64
	Matches        int64
	Elapsed        time.Duration
}

func (c *Collector) AddRecordsScanned(n int64) { c.recordsScanned.Add(n) }
func (c *Collector) AddEntriesCreated(n int64) { c.entriesCreated.Add(n) }
func (c *Collector) AddEntriesDeleted(n int64) { c.entriesDeleted.Add(n) }
func (c *Collector) AddEntriesRenamed(n int64) { c.entriesRenamed.Add(n) }
func (c *Collector) AddRecordsIgnored(n int64) { c.recordsIgnored.Add(n) }
func (c *Collector) AddSyncs(n int64)          { c.syncs.Add(n) }
func (c *Collector) AddRebuilds(n int64)       { c.rebuilds.Add(n) }
func (c *Collector) AddVolumesFailed(n int64)  { c.volumesFailed.Add(n) }
func (c *Collector) AddSearches(n int64)       { c.searches.Add(n) }
func (c *Collector) AddMatches(n int64)        { c.matches.Add(n) }

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		RecordsScanned: c.recordsScanned.Load(),
		EntriesCreated: c.entriesCreated.Load(),
		EntriesDeleted: c.entriesDeleted.Load(),
		EntriesRenamed: c.entriesRenamed.Load(),
		RecordsIgnored: c.recordsIgnored.Load(),
		Syncs:          c.syncs.Load(),
		Rebuilds:       c.rebuilds.Load(),
		VolumesFailed:  c.volumesFailed.Load(),
		Searches:       c.searches.Load(),
		Matches:        c.matches.Load(),
		Elapsed:        c.Elapsed(),
	}
}

// Tick records the scanned-records delta since the previous Tick.
// Called once per second by the progress reporter.
func (c *Collector) Tick() {
	current := c.recordsScanned.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.recordsRing[c.ringIdx] = current - c.lastRecords
	c.lastRecords = current
	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingRate returns average scanned records/sec over the last n samples.
func (c *Collector) RollingRate(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(seconds, c.ringCount)
	if count <= 0 {
		return 0
	}
	var sum int64
	for i := range count {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += c.recordsRing[idx]
	}
	return float64(sum) / float64(count)
}

// History returns up to n per-second record counts, oldest first.
func (c *Collector) History(n int) []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(n, c.ringCount)
	if count <= 0 {
		return nil
	}
	out := make([]int64, count)
	for i := range count {
		out[count-1-i] = c.recordsRing[(c.ringIdx-1-i+ringSize)%ringSize]
	}
	return out
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"scanned=%d created=%d deleted=%d renamed=%d ignored=%d syncs=%d rebuilds=%d failed=%d searches=%d matches=%d",
		s.RecordsScanned, s.EntriesCreated, s.EntriesDeleted, s.EntriesRenamed,
		s.RecordsIgnored, s.Syncs, s.Rebuilds, s.VolumesFailed, s.Searches, s.Matches,
	)
}
