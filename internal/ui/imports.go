package ui

import "github.com/bamsammich/ffd/internal/event"

// Event is re-exported for presenters.
type Event = event.Event

// Re-export event types for convenience.
const (
	ScanStarted   = event.ScanStarted
	ScanComplete  = event.ScanComplete
	EntryCreated  = event.EntryCreated
	EntryDeleted  = event.EntryDeleted
	EntryRenamed  = event.EntryRenamed
	SyncComplete  = event.SyncComplete
	VolumeRebuilt = event.VolumeRebuilt
	VolumeFailed  = event.VolumeFailed
)
