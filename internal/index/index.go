// Package index holds the in-memory name index for one volume: a map from
// file reference number to (parent, name), with path reconstruction and
// case-insensitive substring search over names.
//
// An Index is safe for concurrent use. Mutations made through Update are
// exclusive; Search and PathOf take a shared lock.
package index

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/zeebo/blake3"
)

// MaxDepth bounds the parent walk in PathOf. NTFS paths top out at 32767
// UTF-16 units, so no real chain comes close; hitting the bound means the
// parent links form a cycle.
const MaxDepth = 4096

// Separator joins path components.
const Separator = `\`

// ErrCursorRegression is returned when a caller tries to move the journal
// cursor backwards without resetting the index.
var ErrCursorRegression = errors.New("journal cursor moved backwards")

// Entry is what the index knows about one file or directory.
type Entry struct {
	Parent uint64
	Name   string
	Dir    bool
}

// Index maps file reference numbers to entries for a single volume.
type Index struct {
	mu        sync.RWMutex
	root      string
	entries   map[uint64]Entry
	journalID uint64
	cursor    int64
}

// New returns an empty index whose paths start with root (e.g. "C:").
func New(root string, capacity int) *Index {
	return &Index{
		root:    root,
		entries: make(map[uint64]Entry, capacity),
	}
}

// Root returns the label paths are rooted at.
func (x *Index) Root() string { return x.root }

// Len returns the number of entries.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Journal returns the journal identity and cursor the index is current to.
func (x *Index) Journal() (id uint64, cursor int64) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.journalID, x.cursor
}

// Get returns the entry for id.
func (x *Index) Get(id uint64) (Entry, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	e, ok := x.entries[id]
	return e, ok
}

// Insert adds or overwrites id as a single locked step. Batches of changes
// belong in Update.
func (x *Index) Insert(id, parent uint64, name string, dir bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries[id] = Entry{Parent: parent, Name: name, Dir: dir}
}

// Remove deletes id as a single locked step and returns what was stored,
// if anything. Batches of changes belong in Update.
func (x *Index) Remove(id uint64) (Entry, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	e, ok := x.entries[id]
	delete(x.entries, id)
	return e, ok
}

// Update runs fn with exclusive access. Searches block until fn returns.
func (x *Index) Update(fn func(w *Writer) error) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return fn(&Writer{x: x})
}

// Writer mutates an index inside Update. It must not escape fn.
type Writer struct {
	x *Index
}

// Insert adds or overwrites id.
func (w *Writer) Insert(id, parent uint64, name string, dir bool) {
	w.x.entries[id] = Entry{Parent: parent, Name: name, Dir: dir}
}

// Remove deletes id and returns what was stored, if anything.
func (w *Writer) Remove(id uint64) (Entry, bool) {
	e, ok := w.x.entries[id]
	delete(w.x.entries, id)
	return e, ok
}

// Get returns the entry for id.
func (w *Writer) Get(id uint64) (Entry, bool) {
	e, ok := w.x.entries[id]
	return e, ok
}

// Journal returns the journal identity and cursor.
func (w *Writer) Journal() (id uint64, cursor int64) {
	return w.x.journalID, w.x.cursor
}

// Reset empties the index and pins it to a fresh journal position.
func (w *Writer) Reset(journalID uint64, cursor int64) {
	clear(w.x.entries)
	w.x.journalID = journalID
	w.x.cursor = cursor
}

// Replace swaps in the entries and journal position of src, which must not
// be used afterwards.
func (w *Writer) Replace(src *Index) {
	w.x.entries = src.entries
	w.x.journalID = src.journalID
	w.x.cursor = src.cursor
	src.entries = nil
}

// Advance moves the journal cursor forward.
func (w *Writer) Advance(cursor int64) error {
	if cursor < w.x.cursor {
		return fmt.Errorf("%w: %d -> %d", ErrCursorRegression, w.x.cursor, cursor)
	}
	w.x.cursor = cursor
	return nil
}

// Digest returns a BLAKE3 digest of the entries, independent of map order.
// Two indexes with equal digests hold the same entries.
func (x *Index) Digest() string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	ids := make([]uint64, 0, len(x.entries))
	for id := range x.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	h := blake3.New()
	var buf []byte
	for _, id := range ids {
		e := x.entries[id]
		buf = binary.LittleEndian.AppendUint64(buf[:0], id)
		buf = binary.LittleEndian.AppendUint64(buf, e.Parent)
		if e.Dir {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.Name))) //nolint:gosec // G115: names are short
		buf = append(buf, e.Name...)
		_, _ = h.Write(buf) //nolint:errcheck // hash writes never fail
	}
	return hex.EncodeToString(h.Sum(nil))
}
