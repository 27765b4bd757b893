package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	ScanStarted Type = iota + 1
	ScanComplete
	EntryCreated
	EntryDeleted
	EntryRenamed
	SyncComplete
	VolumeRebuilt
	VolumeFailed
)

var typeNames = [...]string{
	ScanStarted:   "ScanStarted",
	ScanComplete:  "ScanComplete",
	EntryCreated:  "EntryCreated",
	EntryDeleted:  "EntryDeleted",
	EntryRenamed:  "EntryRenamed",
	SyncComplete:  "SyncComplete",
	VolumeRebuilt: "VolumeRebuilt",
	VolumeFailed:  "VolumeFailed",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event is a single notification from the engine about one volume.
type Event struct {
	Type      Type
	Timestamp time.Time
	Volume    string // drive label
	Path      string // full path, empty when unresolvable
	OldName   string // previous name (EntryRenamed)
	ID        uint64 // file reference number
	Total     int64  // entries indexed (ScanComplete) or records applied (SyncComplete)
	Error     error
}
