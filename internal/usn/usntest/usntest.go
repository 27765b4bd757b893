// Package usntest provides an in-memory journal-capable volume for tests.
package usntest

import (
	"encoding/binary"
	"errors"
	"slices"
	"sync"
	"time"

	"golang.org/x/text/encoding/unicode"

	"github.com/bamsammich/ffd/internal/usn"
)

// errInvalidParameter mirrors ERROR_INVALID_PARAMETER, returned by the
// driver when a read names a journal id that is not current.
const errInvalidParameter = 87

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// AppendRecord appends r encoded as a USN_RECORD_V2 to b. The record length
// is rounded up to 8 bytes like the driver does.
func AppendRecord(b []byte, r usn.Record) []byte {
	name, err := utf16le.NewEncoder().Bytes([]byte(r.Name))
	if err != nil {
		panic("usntest: encode name: " + err.Error())
	}
	length := (usn.RecordHeaderSize + len(name) + 7) &^ 7

	rec := make([]byte, length)
	le := binary.LittleEndian
	le.PutUint32(rec[0:], uint32(length))
	le.PutUint16(rec[4:], 2)
	le.PutUint64(rec[8:], r.ID)
	le.PutUint64(rec[16:], r.Parent)
	le.PutUint64(rec[24:], uint64(r.Usn))
	if !r.Timestamp.IsZero() {
		ft := r.Timestamp.UnixNano()/100 + 116444736000000000
		le.PutUint64(rec[32:], uint64(ft))
	}
	le.PutUint32(rec[40:], uint32(r.Reason))
	le.PutUint32(rec[52:], r.Attributes)
	le.PutUint16(rec[56:], uint16(len(name)))
	le.PutUint16(rec[58:], usn.RecordHeaderSize)
	copy(rec[usn.RecordHeaderSize:], name)
	return append(b, rec...)
}

// Batch builds a full fetch result: cursor followed by records.
func Batch(cursor uint64, recs ...usn.Record) []byte {
	b := binary.LittleEndian.AppendUint64(nil, cursor)
	for _, r := range recs {
		b = AppendRecord(b, r)
	}
	return b
}

// Device is a fake volume. The zero value is not usable; use NewDevice.
type Device struct {
	mu        sync.Mutex
	label     string
	files     map[uint64]usn.Record
	journalID uint64
	firstUsn  int64
	nextUsn   int64
	journal   []usn.Record

	// MaxPerBatch bounds how many journal entries one read examines,
	// including ones filtered out. Zero means unbounded.
	MaxPerBatch int

	// Err, when set, is returned from every control call.
	Err error

	EnumCalls  int
	ReadCalls  int
	QueryCalls int
}

// NewDevice returns an empty fake volume with journal id 1.
func NewDevice(label string) *Device {
	return &Device{
		label:     label,
		files:     make(map[uint64]usn.Record),
		journalID: 1,
		firstUsn:  0,
		nextUsn:   0,
	}
}

// Label implements usn.Device.
func (d *Device) Label() string { return d.label }

// AddFile places an entry on the volume without journaling it.
func (d *Device) AddFile(id, parent uint64, name string, dir bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var attrs uint32
	if dir {
		attrs = usn.AttributeDirectory
	}
	d.files[id] = usn.Record{ID: id, Parent: parent, Name: name, Attributes: attrs}
}

// Emit appends a raw journal record and returns its USN.
func (d *Device) Emit(r usn.Record) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.emitLocked(r)
}

func (d *Device) emitLocked(r usn.Record) int64 {
	r.Usn = d.nextUsn
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	d.journal = append(d.journal, r)
	d.nextUsn += int64(len(AppendRecord(nil, r)))
	return r.Usn
}

// Create adds an entry and journals a closed create.
func (d *Device) Create(id, parent uint64, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec := usn.Record{ID: id, Parent: parent, Name: name}
	d.files[id] = rec
	rec.Reason = usn.ReasonFileCreate | usn.ReasonClose
	d.emitLocked(rec)
}

// Delete removes an entry and journals a closed delete.
func (d *Device) Delete(id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec := d.files[id]
	delete(d.files, id)
	rec.ID = id
	rec.Reason = usn.ReasonFileDelete | usn.ReasonClose
	d.emitLocked(rec)
}

// Rename moves an entry and journals a closed rename.
func (d *Device) Rename(id, parent uint64, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec := d.files[id]
	rec.ID, rec.Parent, rec.Name = id, parent, name
	d.files[id] = rec
	rec.Reason = usn.ReasonRenameNewName | usn.ReasonClose
	d.emitLocked(rec)
}

// RecreateJournal discards the journal and assigns a new identity.
func (d *Device) RecreateJournal() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.journalID++
	d.journal = nil
	d.firstUsn = d.nextUsn
}

// PurgeJournal drops all journal entries before the current head, as the
// driver does when the journal exceeds its maximum size.
func (d *Device) PurgeJournal() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.journal = nil
	d.firstUsn = d.nextUsn
}

// QueryUSNJournal implements usn.Device.
func (d *Device) QueryUSNJournal() (usn.JournalData, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.QueryCalls++
	if d.Err != nil {
		return usn.JournalData{}, d.Err
	}
	return usn.JournalData{
		ID:             d.journalID,
		FirstUsn:       d.firstUsn,
		NextUsn:        d.nextUsn,
		LowestValidUsn: d.firstUsn,
		MaxUsn:         1 << 62,
	}, nil
}

// EnumUSNData implements usn.Fetcher. Records are returned in id order.
func (d *Device) EnumUSNData(req usn.EnumRequest, out []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.EnumCalls++
	if d.Err != nil {
		return 0, d.Err
	}

	ids := make([]uint64, 0, len(d.files))
	for id := range d.files {
		if id >= req.StartID {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, usn.ErrEndOfData
	}
	slices.Sort(ids)

	var body []byte
	next := req.StartID
	for _, id := range ids {
		enc := AppendRecord(nil, d.files[id])
		if 8+len(body)+len(enc) > len(out) {
			if len(body) == 0 {
				// Not even one record fits; hand back what does.
				next = id + 1
				body = enc[:max(0, len(out)-8)]
			}
			break
		}
		body = append(body, enc...)
		next = id + 1
	}
	return fill(out, next, body), nil
}

// ReadUSNJournal implements usn.Fetcher, honoring the reason mask and
// return-only-on-close flag.
func (d *Device) ReadUSNJournal(req usn.ReadJournalRequest, out []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ReadCalls++
	if d.Err != nil {
		return 0, d.Err
	}
	if req.JournalID != d.journalID {
		return 0, &usn.DeviceError{
			Op:   "read usn journal",
			Code: errInvalidParameter,
			Err:  errors.New("journal id mismatch"),
		}
	}
	if req.StartUsn < d.firstUsn {
		return 0, usn.ErrJournalEntryDeleted
	}

	var body []byte
	next := req.StartUsn
	examined := 0
	for _, r := range d.journal {
		if r.Usn < req.StartUsn {
			continue
		}
		if d.MaxPerBatch > 0 && examined == d.MaxPerBatch {
			break
		}
		if req.ReturnOnlyOnClose && r.Reason&usn.ReasonClose == 0 {
			examined++
			next = r.Usn + 1
			continue
		}
		if r.Reason&req.ReasonMask == 0 {
			examined++
			next = r.Usn + 1
			continue
		}
		enc := AppendRecord(nil, r)
		if 8+len(body)+len(enc) > len(out) {
			break
		}
		body = append(body, enc...)
		examined++
		next = r.Usn + 1
	}
	if next > req.StartUsn && examined == countFrom(d.journal, req.StartUsn) {
		next = d.nextUsn
	}
	return fill(out, uint64(next), body), nil
}

func countFrom(journal []usn.Record, start int64) int {
	n := 0
	for _, r := range journal {
		if r.Usn >= start {
			n++
		}
	}
	return n
}

func fill(out []byte, cursor uint64, body []byte) int {
	binary.LittleEndian.PutUint64(out, cursor)
	return 8 + copy(out[8:], body)
}
