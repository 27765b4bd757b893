package usn

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
)

// Reason is the USN_REASON_* bitmask attached to a journal record.
type Reason uint32

const (
	ReasonDataOverwrite       Reason = 0x00000001
	ReasonDataExtend          Reason = 0x00000002
	ReasonDataTruncation      Reason = 0x00000004
	ReasonNamedDataOverwrite  Reason = 0x00000010
	ReasonNamedDataExtend     Reason = 0x00000020
	ReasonNamedDataTruncation Reason = 0x00000040
	ReasonFileCreate          Reason = 0x00000100
	ReasonFileDelete          Reason = 0x00000200
	ReasonEAChange            Reason = 0x00000400
	ReasonSecurityChange      Reason = 0x00000800
	ReasonRenameOldName       Reason = 0x00001000
	ReasonRenameNewName       Reason = 0x00002000
	ReasonIndexableChange     Reason = 0x00004000
	ReasonBasicInfoChange     Reason = 0x00008000
	ReasonHardLinkChange      Reason = 0x00010000
	ReasonCompressionChange   Reason = 0x00020000
	ReasonEncryptionChange    Reason = 0x00040000
	ReasonObjectIDChange      Reason = 0x00080000
	ReasonReparsePointChange  Reason = 0x00100000
	ReasonStreamChange        Reason = 0x00200000
	ReasonClose               Reason = 0x80000000
)

var reasonNames = []struct {
	bit  Reason
	name string
}{
	{ReasonDataOverwrite, "DataOverwrite"},
	{ReasonDataExtend, "DataExtend"},
	{ReasonDataTruncation, "DataTruncation"},
	{ReasonNamedDataOverwrite, "NamedDataOverwrite"},
	{ReasonNamedDataExtend, "NamedDataExtend"},
	{ReasonNamedDataTruncation, "NamedDataTruncation"},
	{ReasonFileCreate, "FileCreate"},
	{ReasonFileDelete, "FileDelete"},
	{ReasonEAChange, "EAChange"},
	{ReasonSecurityChange, "SecurityChange"},
	{ReasonRenameOldName, "RenameOldName"},
	{ReasonRenameNewName, "RenameNewName"},
	{ReasonIndexableChange, "IndexableChange"},
	{ReasonBasicInfoChange, "BasicInfoChange"},
	{ReasonHardLinkChange, "HardLinkChange"},
	{ReasonCompressionChange, "CompressionChange"},
	{ReasonEncryptionChange, "EncryptionChange"},
	{ReasonObjectIDChange, "ObjectIDChange"},
	{ReasonReparsePointChange, "ReparsePointChange"},
	{ReasonStreamChange, "StreamChange"},
	{ReasonClose, "Close"},
}

func (r Reason) String() string {
	if r == 0 {
		return "0"
	}
	var parts []string
	rest := r
	for _, rn := range reasonNames {
		if r&rn.bit != 0 {
			parts = append(parts, rn.name)
			rest &^= rn.bit
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// AttributeDirectory is FILE_ATTRIBUTE_DIRECTORY.
const AttributeDirectory = 0x10

// Record is one decoded USN_RECORD_V2.
type Record struct {
	ID         uint64
	Parent     uint64
	Name       string
	Reason     Reason
	Usn        int64
	Timestamp  time.Time
	Attributes uint32
}

// IsDir reports whether the record describes a directory.
func (r Record) IsDir() bool { return r.Attributes&AttributeDirectory != 0 }

// USN_RECORD_V2 layout.
const (
	offRecordLength   = 0
	offMajorVersion   = 4
	offFileRef        = 8
	offParentRef      = 16
	offUsn            = 24
	offTimestamp      = 32
	offReason         = 40
	offAttributes     = 52
	offFileNameLength = 56
	offFileNameOffset = 58

	// RecordHeaderSize is the fixed part of a record before the name.
	RecordHeaderSize = 60
)

// errTruncated is returned when a record does not fit in the bytes the
// device returned. The stream decides whether that means the buffer is too
// small or the data is corrupt.
var errTruncated = errors.New("record truncated")

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// decodeRecord decodes the record starting at off and returns it together
// with its on-disk length.
func decodeRecord(buf []byte, off int) (Record, int, error) {
	if off < 0 || off+RecordHeaderSize > len(buf) {
		return Record{}, 0, errTruncated
	}
	b := buf[off:]
	le := binary.LittleEndian

	length := int(le.Uint32(b[offRecordLength:]))
	if length < RecordHeaderSize {
		return Record{}, 0, fmt.Errorf("%w: record length %d", ErrCorruptRecord, length)
	}
	if length > len(b) {
		return Record{}, 0, errTruncated
	}
	if major := le.Uint16(b[offMajorVersion:]); major != 2 {
		return Record{}, 0, fmt.Errorf("%w: major version %d", ErrCorruptRecord, major)
	}

	nameLen := int(le.Uint16(b[offFileNameLength:]))
	nameOff := int(le.Uint16(b[offFileNameOffset:]))
	if nameLen%2 != 0 || nameOff < RecordHeaderSize || nameOff+nameLen > length {
		return Record{}, 0, fmt.Errorf("%w: name at %d+%d exceeds record length %d",
			ErrCorruptRecord, nameOff, nameLen, length)
	}

	name, err := decodeName(b[nameOff : nameOff+nameLen])
	if err != nil {
		return Record{}, 0, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}

	return Record{
		ID:         le.Uint64(b[offFileRef:]),
		Parent:     le.Uint64(b[offParentRef:]),
		Name:       name,
		Reason:     Reason(le.Uint32(b[offReason:])),
		Usn:        int64(le.Uint64(b[offUsn:])), //nolint:gosec // G115: USN is a signed 64-bit value on disk
		Timestamp:  filetime(int64(le.Uint64(b[offTimestamp:]))), //nolint:gosec // G115: FILETIME fits int64
		Attributes: le.Uint32(b[offAttributes:]),
	}, length, nil
}

// decodeName transcodes UTF-16LE to UTF-8, replacing unpaired surrogates
// with U+FFFD.
func decodeName(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	out, err := utf16le.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// filetimeEpochDelta is the number of 100ns intervals between 1601-01-01
// and 1970-01-01.
const filetimeEpochDelta = 116444736000000000

func filetime(ft int64) time.Time {
	if ft == 0 {
		return time.Time{}
	}
	ft -= filetimeEpochDelta
	return time.Unix(ft/1e7, (ft%1e7)*100).UTC()
}
