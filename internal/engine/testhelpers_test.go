package engine_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bamsammich/ffd/internal/event"
	"github.com/bamsammich/ffd/internal/usn"
	"github.com/bamsammich/ffd/internal/usn/usntest"
)

// File reference numbers of the standard test volume.
const (
	rootID   = 5
	usersID  = 10
	aliceID  = 11
	reportID = 12
	notesID  = 13
	bobID    = 14
)

// newTestVolume returns a fake volume populated with:
//
//	C:\Users\alice\Report.docx
//	C:\Users\alice\notes.txt
//	C:\Users\bob
func newTestVolume(t *testing.T, label string) *usntest.Device {
	t.Helper()

	dev := usntest.NewDevice(label)
	dev.AddFile(rootID, rootID, ".", true)
	dev.AddFile(usersID, rootID, "Users", true)
	dev.AddFile(aliceID, usersID, "alice", true)
	dev.AddFile(reportID, aliceID, "Report.docx", false)
	dev.AddFile(notesID, aliceID, "notes.txt", false)
	dev.AddFile(bobID, usersID, "bob", true)
	return dev
}

// closingDevice counts Close calls.
type closingDevice struct {
	*usntest.Device
	closed atomic.Int32
}

func (d *closingDevice) Close() error {
	d.closed.Add(1)
	return nil
}

// racingDevice runs hook once, right after the first journal query, to
// model changes landing between the cursor capture and the MFT scan.
type racingDevice struct {
	*usntest.Device
	once sync.Once
	hook func()
}

func (d *racingDevice) QueryUSNJournal() (usn.JournalData, error) {
	jd, err := d.Device.QueryUSNJournal()
	d.once.Do(d.hook)
	return jd, err
}

// cancelingDevice cancels a context after the next MFT batch it returns,
// interrupting a scan partway.
type cancelingDevice struct {
	*usntest.Device
	mu     sync.Mutex
	cancel context.CancelFunc
}

func (d *cancelingDevice) cancelAfterNextBatch(cancel context.CancelFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancel = cancel
}

func (d *cancelingDevice) EnumUSNData(req usn.EnumRequest, out []byte) (int, error) {
	n, err := d.Device.EnumUSNData(req, out)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	return n, err
}

// failingReader fails every journal read with err.
type failingReader struct {
	*usntest.Device
	err error
}

func (d *failingReader) ReadUSNJournal(usn.ReadJournalRequest, []byte) (int, error) {
	return 0, d.err
}

// drain collects everything currently buffered on ch.
func drain(ch <-chan event.Event) []event.Event {
	var out []event.Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventTypes(evs []event.Event) []event.Type {
	types := make([]event.Type, len(evs))
	for i, ev := range evs {
		types[i] = ev.Type
	}
	return types
}

func requirePath(t *testing.T, want string, got string, ok bool) {
	t.Helper()
	require.True(t, ok, "path of %q did not resolve", want)
	require.Equal(t, want, got)
}
