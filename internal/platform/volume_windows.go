//go:build windows

package platform

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/windows"

	"github.com/bamsammich/ffd/internal/usn"
)

// Filesystem control codes from winioctl.h.
const (
	fsctlEnumUSNData     = 0x000900b3
	fsctlReadUSNJournal  = 0x000900bb
	fsctlQueryUSNJournal = 0x000900f4
)

// Win32 error codes the scanners treat specially.
const (
	errHandleEOF           = windows.Errno(38)
	errJournalEntryDeleted = windows.Errno(1181)
)

// Volume is an open NTFS volume. It owns its handle; Close releases it
// exactly once.
type Volume struct {
	label  string
	handle windows.Handle

	closeOnce sync.Once
	closeErr  error
}

var _ usn.Device = (*Volume)(nil)

// OpenVolume opens \\.\<label> for reading after checking that the volume
// is NTFS. Requires administrator rights.
func OpenVolume(label string) (*Volume, error) {
	fs, err := FilesystemName(label)
	if err != nil {
		return nil, fmt.Errorf("volume %s: %w", label, err)
	}
	if fs != "NTFS" {
		return nil, fmt.Errorf("volume %s: %w: %s", label, usn.ErrUnsupportedFilesystem, fs)
	}

	path, err := windows.UTF16PtrFromString(`\\.\` + label)
	if err != nil {
		return nil, fmt.Errorf("volume %s: %w", label, err)
	}
	h, err := windows.CreateFile(
		path,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("open volume %s: %w", label, err)
	}
	return &Volume{label: label, handle: h}, nil
}

// Label implements usn.Device.
func (v *Volume) Label() string { return v.label }

// Control issues one synchronous DeviceIoControl call and returns the
// number of bytes written to out.
func (v *Volume) Control(code uint32, in, out []byte) (int, error) {
	var inPtr, outPtr *byte
	if len(in) > 0 {
		inPtr = &in[0]
	}
	if len(out) > 0 {
		outPtr = &out[0]
	}
	var n uint32
	//nolint:gosec // G115: buffer sizes are bounded by the configured buffer size
	err := windows.DeviceIoControl(
		v.handle, code,
		inPtr, uint32(len(in)),
		outPtr, uint32(len(out)),
		&n, nil,
	)
	return int(n), err
}

// EnumUSNData implements usn.Fetcher with FSCTL_ENUM_USN_DATA.
func (v *Volume) EnumUSNData(req usn.EnumRequest, out []byte) (int, error) {
	in, err := req.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := v.Control(fsctlEnumUSNData, in, out)
	if err != nil {
		return 0, controlError("enum usn data", err)
	}
	return n, nil
}

// ReadUSNJournal implements usn.Fetcher with FSCTL_READ_USN_JOURNAL.
func (v *Volume) ReadUSNJournal(req usn.ReadJournalRequest, out []byte) (int, error) {
	in, err := req.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := v.Control(fsctlReadUSNJournal, in, out)
	if err != nil {
		return 0, controlError("read usn journal", err)
	}
	return n, nil
}

// QueryUSNJournal implements usn.Device with FSCTL_QUERY_USN_JOURNAL.
func (v *Volume) QueryUSNJournal() (usn.JournalData, error) {
	out := make([]byte, usn.JournalDataSize)
	n, err := v.Control(fsctlQueryUSNJournal, nil, out)
	if err != nil {
		return usn.JournalData{}, controlError("query usn journal", err)
	}
	return usn.ParseJournalData(out[:n])
}

// Close releases the volume handle.
func (v *Volume) Close() error {
	v.closeOnce.Do(func() {
		v.closeErr = windows.CloseHandle(v.handle)
	})
	return v.closeErr
}

// controlError maps a DeviceIoControl failure onto the usn error kinds.
func controlError(op string, err error) error {
	var errno windows.Errno
	if !errors.As(err, &errno) {
		return &usn.DeviceError{Op: op, Err: err}
	}
	switch errno {
	case errHandleEOF:
		return usn.ErrEndOfData
	case errJournalEntryDeleted:
		return fmt.Errorf("%s: %w", op, usn.ErrJournalEntryDeleted)
	default:
		return &usn.DeviceError{Op: op, Code: uint32(errno), Err: err}
	}
}

// FilesystemName returns the filesystem of the volume mounted at label,
// e.g. "NTFS" or "FAT32".
func FilesystemName(label string) (string, error) {
	root, err := windows.UTF16PtrFromString(label + `\`)
	if err != nil {
		return "", err
	}
	name := make([]uint16, windows.MAX_PATH+1)
	//nolint:gosec // G115: fixed small buffer
	err = windows.GetVolumeInformation(root, nil, 0, nil, nil, nil, &name[0], uint32(len(name)))
	if err != nil {
		return "", fmt.Errorf("get volume information: %w", err)
	}
	return windows.UTF16ToString(name), nil
}

// Drives lists every mounted drive letter with its type.
func Drives() ([]Drive, error) {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil, fmt.Errorf("get logical drives: %w", err)
	}
	var drives []Drive
	for _, label := range labelsFromMask(mask) {
		root, err := windows.UTF16PtrFromString(label + `\`)
		if err != nil {
			continue
		}
		drives = append(drives, Drive{Label: label, Type: DriveType(windows.GetDriveType(root))})
	}
	return drives, nil
}
