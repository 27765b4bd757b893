package usn

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFilesystem is returned when a volume is not NTFS.
	ErrUnsupportedFilesystem = errors.New("unsupported filesystem")

	// ErrUnsupportedPlatform is returned by device openers on systems
	// without an NTFS change journal.
	ErrUnsupportedPlatform = errors.New("change journal access is only supported on windows")

	// ErrBufferTooSmall means a fetch returned data but not a single whole
	// record fit in the buffer. Retrying with the same buffer size cannot help.
	ErrBufferTooSmall = errors.New("record buffer too small")

	// ErrCorruptRecord means a record's declared lengths disagree with the
	// bytes actually returned.
	ErrCorruptRecord = errors.New("corrupt usn record")

	// ErrEndOfData is the device's "no more records" signal. Scanners treat
	// it as normal termination; it never escapes a scanner.
	ErrEndOfData = errors.New("end of data")
)

// DeviceError wraps a failed control call with the platform error code.
type DeviceError struct {
	Op   string
	Code uint32
	Err  error
}

func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v (code %d)", e.Op, e.Err, e.Code)
	}
	return fmt.Sprintf("%s: device error code %d", e.Op, e.Code)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// ErrJournalEntryDeleted means the requested start sequence number has
// already been purged from the journal, so changes were lost.
var ErrJournalEntryDeleted = errors.New("journal entries at cursor were deleted")
