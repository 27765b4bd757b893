package usn_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/ffd/internal/usn"
	"github.com/bamsammich/ffd/internal/usn/usntest"
)

// funcFetcher replays canned batches and records the requests it saw.
type funcFetcher struct {
	batches  [][]byte
	errs     []error
	calls    int
	enumReqs []usn.EnumRequest
	readReqs []usn.ReadJournalRequest
}

func (f *funcFetcher) next(out []byte) (int, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return 0, f.errs[i]
	}
	if i >= len(f.batches) {
		return 0, usn.ErrEndOfData
	}
	return copy(out, f.batches[i]), nil
}

func (f *funcFetcher) EnumUSNData(req usn.EnumRequest, out []byte) (int, error) {
	f.enumReqs = append(f.enumReqs, req)
	return f.next(out)
}

func (f *funcFetcher) ReadUSNJournal(req usn.ReadJournalRequest, out []byte) (int, error) {
	f.readReqs = append(f.readReqs, req)
	return f.next(out)
}

func collect(t *testing.T, s interface {
	Next() bool
	Record() usn.Record
}) []usn.Record {
	t.Helper()
	var out []usn.Record
	for s.Next() {
		out = append(out, s.Record())
	}
	return out
}

func synthetic(n int) []usn.Record {
	recs := make([]usn.Record, n)
	for i := range recs {
		recs[i] = usn.Record{
			ID:         uint64(100 + i),
			Parent:     uint64(5 + i%3),
			Name:       fmt.Sprintf("file-%03d.txt", i),
			Reason:     usn.ReasonFileCreate | usn.ReasonClose,
			Usn:        int64(i * 96),
			Attributes: uint32(i%2) * usn.AttributeDirectory,
		}
	}
	return recs
}

func TestFileScanner_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 17, 250} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			t.Parallel()
			want := synthetic(n)
			f := &funcFetcher{batches: [][]byte{usntest.Batch(1000, want...)}}

			s := usn.NewFileScanner(context.Background(), f, 1<<20)
			got := collect(t, s)
			require.NoError(t, s.Err())
			require.Len(t, got, n)
			for i := range want {
				assert.Equal(t, want[i].ID, got[i].ID)
				assert.Equal(t, want[i].Parent, got[i].Parent)
				assert.Equal(t, want[i].Name, got[i].Name)
				assert.Equal(t, want[i].Reason, got[i].Reason)
				assert.Equal(t, want[i].Usn, got[i].Usn)
				assert.Equal(t, want[i].IsDir(), got[i].IsDir())
			}
		})
	}
}

func TestFileScanner_MultipleBatchesAdvanceCursor(t *testing.T) {
	t.Parallel()

	recs := synthetic(4)
	f := &funcFetcher{batches: [][]byte{
		usntest.Batch(102, recs[:2]...),
		usntest.Batch(104, recs[2:]...),
	}}

	s := usn.NewFileScanner(context.Background(), f, 4096)
	got := collect(t, s)
	require.NoError(t, s.Err())
	assert.Len(t, got, 4)

	require.Len(t, f.enumReqs, 3, "third call reports end of data")
	assert.Equal(t, uint64(0), f.enumReqs[0].StartID)
	assert.Equal(t, uint64(102), f.enumReqs[1].StartID)
	assert.Equal(t, uint64(104), f.enumReqs[2].StartID)
	assert.Equal(t, uint16(2), f.enumReqs[0].MinMajorVersion)
	assert.Equal(t, uint16(2), f.enumReqs[0].MaxMajorVersion)
}

func TestFileScanner_EndOfDataIsNotAnError(t *testing.T) {
	t.Parallel()

	f := &funcFetcher{}
	s := usn.NewFileScanner(context.Background(), f, 0)
	assert.False(t, s.Next())
	assert.NoError(t, s.Err())
}

func TestFileScanner_DeviceErrorEndsStream(t *testing.T) {
	t.Parallel()

	devErr := &usn.DeviceError{Op: "enum usn data", Code: 5, Err: errors.New("access denied")}
	f := &funcFetcher{
		batches: [][]byte{usntest.Batch(101, synthetic(1)...)},
		errs:    []error{nil, devErr},
	}
	s := usn.NewFileScanner(context.Background(), f, 0)
	got := collect(t, s)
	assert.Len(t, got, 1)

	var de *usn.DeviceError
	require.ErrorAs(t, s.Err(), &de)
	assert.Equal(t, uint32(5), de.Code)
}

func TestFileScanner_ShortRefillEnds(t *testing.T) {
	t.Parallel()

	f := &funcFetcher{batches: [][]byte{{1, 2, 3}}}
	s := usn.NewFileScanner(context.Background(), f, 0)
	assert.False(t, s.Next())
	assert.NoError(t, s.Err())
}

func TestFileScanner_BufferTooSmall(t *testing.T) {
	t.Parallel()

	full := usntest.Batch(200, usn.Record{ID: 1, Name: "a-rather-long-file-name.txt"})

	// The device fills the whole (too small) buffer.
	size := len(full) - 10
	f := &funcFetcher{batches: [][]byte{full[:size]}}
	s := usn.NewFileScanner(context.Background(), f, size)

	assert.False(t, s.Next())
	require.ErrorIs(t, s.Err(), usn.ErrBufferTooSmall)
}

func TestFileScanner_BufferTooSmall_PartialHeader(t *testing.T) {
	t.Parallel()

	full := usntest.Batch(200, usn.Record{ID: 1, Name: "x"})
	f := &funcFetcher{batches: [][]byte{full[:8+20]}}
	s := usn.NewFileScanner(context.Background(), f, 28)

	assert.False(t, s.Next())
	require.ErrorIs(t, s.Err(), usn.ErrBufferTooSmall)
	assert.Equal(t, usn.Record{}, s.Record(), "no partial record is produced")
}

func TestFileScanner_TruncatedLaterRecordIsCorrupt(t *testing.T) {
	t.Parallel()

	full := usntest.Batch(200, synthetic(2)...)
	f := &funcFetcher{batches: [][]byte{full[:len(full)-4]}}
	s := usn.NewFileScanner(context.Background(), f, 4096)

	require.True(t, s.Next())
	assert.False(t, s.Next())
	require.ErrorIs(t, s.Err(), usn.ErrCorruptRecord)
}

func TestFileScanner_StalledCursorEnds(t *testing.T) {
	t.Parallel()

	f := &funcFetcher{batches: [][]byte{usntest.Batch(0, synthetic(1)...)}}
	s := usn.NewFileScanner(context.Background(), f, 0)
	assert.False(t, s.Next())
	assert.NoError(t, s.Err())
	assert.Equal(t, 1, f.calls)
}

func TestFileScanner_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &funcFetcher{batches: [][]byte{usntest.Batch(101, synthetic(1)...)}}
	s := usn.NewFileScanner(ctx, f, 0)
	assert.False(t, s.Next())
	require.ErrorIs(t, s.Err(), context.Canceled)
	assert.Equal(t, 0, f.calls)
}

func TestFileScanner_All(t *testing.T) {
	t.Parallel()

	f := &funcFetcher{
		batches: [][]byte{usntest.Batch(102, synthetic(2)...)},
		errs:    []error{nil, errors.New("boom")},
	}
	var names []string
	var lastErr error
	for rec, err := range usn.NewFileScanner(context.Background(), f, 0).All() {
		if err != nil {
			lastErr = err
			break
		}
		names = append(names, rec.Name)
	}
	assert.Equal(t, []string{"file-000.txt", "file-001.txt"}, names)
	assert.EqualError(t, lastErr, "boom")
}

func TestJournalScanner_DrainsToHead(t *testing.T) {
	t.Parallel()

	recs := synthetic(3)
	f := &funcFetcher{batches: [][]byte{
		usntest.Batch(600, recs[:2]...),
		usntest.Batch(900, recs[2:]...),
		usntest.Batch(900),
	}}

	s := usn.NewJournalScanner(context.Background(), f, 4096, 77, 300)
	got := collect(t, s)
	require.NoError(t, s.Err())
	assert.Len(t, got, 3)
	assert.Equal(t, int64(900), s.Cursor())

	require.Len(t, f.readReqs, 3)
	for i, want := range []int64{300, 600, 900} {
		req := f.readReqs[i]
		assert.Equal(t, want, req.StartUsn)
		assert.Equal(t, uint64(77), req.JournalID)
		assert.Equal(t, usn.JournalReasonMask, req.ReasonMask)
		assert.True(t, req.ReturnOnlyOnClose)
		assert.Zero(t, req.Timeout)
		assert.Zero(t, req.BytesToWaitFor)
	}
}

func TestJournalScanner_AlreadyAtHead(t *testing.T) {
	t.Parallel()

	f := &funcFetcher{batches: [][]byte{usntest.Batch(512)}}
	s := usn.NewJournalScanner(context.Background(), f, 0, 1, 512)
	assert.False(t, s.Next())
	assert.NoError(t, s.Err())
	assert.Equal(t, int64(512), s.Cursor())
}

func TestJournalScanner_HeaderOnlyBatchRefills(t *testing.T) {
	t.Parallel()

	// A batch whose records were all filtered out still advances the cursor.
	f := &funcFetcher{batches: [][]byte{
		usntest.Batch(200),
		usntest.Batch(300, synthetic(1)...),
		usntest.Batch(300),
	}}
	s := usn.NewJournalScanner(context.Background(), f, 0, 1, 100)
	got := collect(t, s)
	require.NoError(t, s.Err())
	assert.Len(t, got, 1)
	assert.Equal(t, int64(300), s.Cursor())
}

func TestJournalScanner_FakeDevice(t *testing.T) {
	t.Parallel()

	dev := usntest.NewDevice("C:")
	dev.Create(10, 5, "a.txt")
	dev.Emit(usn.Record{ID: 11, Parent: 5, Name: "open.tmp", Reason: usn.ReasonFileCreate})
	dev.Rename(10, 5, "b.txt")
	dev.Delete(10)

	jd, err := dev.QueryUSNJournal()
	require.NoError(t, err)

	s := usn.NewJournalScanner(context.Background(), dev, 0, jd.ID, 0)
	got := collect(t, s)
	require.NoError(t, s.Err())
	require.Len(t, got, 3, "records without the close bit are withheld")
	assert.Equal(t, usn.ReasonFileCreate|usn.ReasonClose, got[0].Reason)
	assert.Equal(t, "b.txt", got[1].Name)
	assert.Equal(t, usn.ReasonFileDelete|usn.ReasonClose, got[2].Reason)
	assert.Equal(t, jd.NextUsn, s.Cursor())
}

func TestJournalScanner_FakeDeviceSmallBatches(t *testing.T) {
	t.Parallel()

	dev := usntest.NewDevice("C:")
	dev.MaxPerBatch = 1
	dev.Emit(usn.Record{ID: 1, Parent: 5, Name: "x", Reason: usn.ReasonDataExtend})
	dev.Create(2, 5, "y")

	s := usn.NewJournalScanner(context.Background(), dev, 0, 1, 0)
	got := collect(t, s)
	require.NoError(t, s.Err())
	require.Len(t, got, 1)
	assert.Equal(t, "y", got[0].Name)
	assert.Equal(t, 3, dev.ReadCalls)
}
