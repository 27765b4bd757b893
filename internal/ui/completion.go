package ui

import (
	"fmt"
	"strings"

	"github.com/bamsammich/ffd/internal/stats"
)

// CompletionSummary builds the line printed once indexing finishes.
// Format: ready ✓  records 1,204,332  time 4s
func CompletionSummary(snap stats.Snapshot) string {
	icon := "✓"
	if snap.VolumesFailed > 0 {
		icon = "✗"
	}

	base := fmt.Sprintf("ready %s  records %s  time %s",
		icon,
		FormatCount(snap.RecordsScanned),
		FormatDuration(snap.Elapsed),
	)
	if snap.VolumesFailed > 0 {
		base += fmt.Sprintf("  failed %d", snap.VolumesFailed)
	}
	return base
}

// StatsSummary renders the session counters for the :stats command.
func StatsSummary(snap stats.Snapshot, volumes, entries int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "volumes %d  entries %s  uptime %s\n",
		volumes, FormatCount(int64(entries)), FormatDuration(snap.Elapsed))
	fmt.Fprintf(&b, "searches %s  matches %s  syncs %s  rebuilds %s\n",
		FormatCount(snap.Searches), FormatCount(snap.Matches),
		FormatCount(snap.Syncs), FormatCount(snap.Rebuilds))
	fmt.Fprintf(&b, "created %s  deleted %s  renamed %s  ignored %s",
		FormatCount(snap.EntriesCreated), FormatCount(snap.EntriesDeleted),
		FormatCount(snap.EntriesRenamed), FormatCount(snap.RecordsIgnored))
	return b.String()
}
