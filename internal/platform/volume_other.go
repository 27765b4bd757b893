//go:build !windows

package platform

import (
	"fmt"

	"github.com/bamsammich/ffd/internal/usn"
)

// Volume is unavailable off Windows; OpenVolume always fails.
type Volume struct{ label string }

var _ usn.Device = (*Volume)(nil)

// OpenVolume reports usn.ErrUnsupportedPlatform.
func OpenVolume(label string) (*Volume, error) {
	return nil, fmt.Errorf("volume %s: %w", label, usn.ErrUnsupportedPlatform)
}

// Label implements usn.Device.
func (v *Volume) Label() string { return v.label }

// Control reports usn.ErrUnsupportedPlatform.
func (*Volume) Control(uint32, []byte, []byte) (int, error) {
	return 0, usn.ErrUnsupportedPlatform
}

// EnumUSNData implements usn.Device; it always fails.
func (*Volume) EnumUSNData(usn.EnumRequest, []byte) (int, error) {
	return 0, usn.ErrUnsupportedPlatform
}

// ReadUSNJournal implements usn.Device; it always fails.
func (*Volume) ReadUSNJournal(usn.ReadJournalRequest, []byte) (int, error) {
	return 0, usn.ErrUnsupportedPlatform
}

// QueryUSNJournal implements usn.Device; it always fails.
func (*Volume) QueryUSNJournal() (usn.JournalData, error) {
	return usn.JournalData{}, usn.ErrUnsupportedPlatform
}

// Close implements io.Closer. There is no handle to release.
func (*Volume) Close() error { return nil }

// FilesystemName reports usn.ErrUnsupportedPlatform.
func FilesystemName(string) (string, error) {
	return "", usn.ErrUnsupportedPlatform
}

// Drives returns no drives; there are no drive letters to discover.
func Drives() ([]Drive, error) {
	return nil, nil
}
