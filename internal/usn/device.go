package usn

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Fetcher is the privileged capability the scanners drive: one call per
// batch, filling out with an 8-byte continuation cursor followed by packed
// records. Implementations return ErrEndOfData when nothing is left.
type Fetcher interface {
	EnumUSNData(req EnumRequest, out []byte) (int, error)
	ReadUSNJournal(req ReadJournalRequest, out []byte) (int, error)
}

// Device is a journal-capable volume.
type Device interface {
	Fetcher
	QueryUSNJournal() (JournalData, error)
	Label() string
}

// EnumRequest mirrors MFT_ENUM_DATA_V1.
type EnumRequest struct {
	StartID         uint64
	LowUsn          int64
	HighUsn         int64
	MinMajorVersion uint16
	MaxMajorVersion uint16
}

// EnumRequestSize is sizeof(MFT_ENUM_DATA_V1) including tail padding.
const EnumRequestSize = 32

// NewEnumRequest returns a request for every record from start onward,
// regardless of change state, restricted to USN_RECORD_V2.
func NewEnumRequest(start uint64) EnumRequest {
	return EnumRequest{
		StartID:         start,
		LowUsn:          0,
		HighUsn:         math.MaxInt64,
		MinMajorVersion: 2,
		MaxMajorVersion: 2,
	}
}

// MarshalBinary encodes the request in its native little-endian layout.
func (r EnumRequest) MarshalBinary() ([]byte, error) {
	b := make([]byte, EnumRequestSize)
	le := binary.LittleEndian
	le.PutUint64(b[0:], r.StartID)
	le.PutUint64(b[8:], uint64(r.LowUsn))  //nolint:gosec // G115: bit pattern copy
	le.PutUint64(b[16:], uint64(r.HighUsn)) //nolint:gosec // G115: bit pattern copy
	le.PutUint16(b[24:], r.MinMajorVersion)
	le.PutUint16(b[26:], r.MaxMajorVersion)
	return b, nil
}

// JournalReasonMask selects the events the index cares about.
const JournalReasonMask = ReasonFileCreate | ReasonFileDelete | ReasonRenameNewName | ReasonClose

// ReadJournalRequest mirrors READ_USN_JOURNAL_DATA_V0.
type ReadJournalRequest struct {
	StartUsn          int64
	ReasonMask        Reason
	ReturnOnlyOnClose bool
	Timeout           uint64
	BytesToWaitFor    uint64
	JournalID         uint64
}

// ReadJournalRequestSize is sizeof(READ_USN_JOURNAL_DATA_V0).
const ReadJournalRequestSize = 40

// NewReadJournalRequest returns a non-blocking request for closed
// create/delete/rename events starting at start.
func NewReadJournalRequest(journalID uint64, start int64) ReadJournalRequest {
	return ReadJournalRequest{
		StartUsn:          start,
		ReasonMask:        JournalReasonMask,
		ReturnOnlyOnClose: true,
		JournalID:         journalID,
	}
}

// MarshalBinary encodes the request in its native little-endian layout.
func (r ReadJournalRequest) MarshalBinary() ([]byte, error) {
	b := make([]byte, ReadJournalRequestSize)
	le := binary.LittleEndian
	le.PutUint64(b[0:], uint64(r.StartUsn)) //nolint:gosec // G115: bit pattern copy
	le.PutUint32(b[8:], uint32(r.ReasonMask))
	if r.ReturnOnlyOnClose {
		le.PutUint32(b[12:], 1)
	}
	le.PutUint64(b[16:], r.Timeout)
	le.PutUint64(b[24:], r.BytesToWaitFor)
	le.PutUint64(b[32:], r.JournalID)
	return b, nil
}

// JournalData mirrors USN_JOURNAL_DATA_V0.
type JournalData struct {
	ID              uint64
	FirstUsn        int64
	NextUsn         int64
	LowestValidUsn  int64
	MaxUsn          int64
	MaximumSize     uint64
	AllocationDelta uint64
}

// JournalDataSize is sizeof(USN_JOURNAL_DATA_V0).
const JournalDataSize = 56

// ParseJournalData decodes a USN_JOURNAL_DATA_V0 buffer.
func ParseJournalData(b []byte) (JournalData, error) {
	if len(b) < JournalDataSize {
		return JournalData{}, fmt.Errorf("journal data: short buffer (%d bytes)", len(b))
	}
	le := binary.LittleEndian
	//nolint:gosec // G115: USN values are signed 64-bit on disk
	return JournalData{
		ID:              le.Uint64(b[0:]),
		FirstUsn:        int64(le.Uint64(b[8:])),
		NextUsn:         int64(le.Uint64(b[16:])),
		LowestValidUsn:  int64(le.Uint64(b[24:])),
		MaxUsn:          int64(le.Uint64(b[32:])),
		MaximumSize:     le.Uint64(b[40:]),
		AllocationDelta: le.Uint64(b[48:]),
	}, nil
}
