package platform

// DriveType is the GetDriveTypeW classification of a volume root.
type DriveType uint32

const (
	DriveUnknown   DriveType = iota
	DriveNoRootDir           // no volume mounted at the path
	DriveRemovable
	DriveFixed
	DriveRemote
	DriveCDROM
	DriveRAMDisk
)

func (t DriveType) String() string {
	switch t {
	case DriveUnknown:
		return "unknown"
	case DriveNoRootDir:
		return "no_root_dir"
	case DriveRemovable:
		return "removable"
	case DriveFixed:
		return "fixed"
	case DriveRemote:
		return "remote"
	case DriveCDROM:
		return "cdrom"
	case DriveRAMDisk:
		return "ramdisk"
	default:
		return "unknown"
	}
}

// Searchable reports whether volumes of this type are worth indexing.
// Remote volumes can block control calls indefinitely and optical media has
// no change journal.
func (t DriveType) Searchable() bool {
	switch t {
	case DriveFixed, DriveRemovable, DriveRAMDisk:
		return true
	default:
		return false
	}
}

// Drive is a mounted volume found by discovery.
type Drive struct {
	Label string // "C:"
	Type  DriveType
}

// labelsFromMask expands a GetLogicalDrives bitmask into "A:".."Z:" labels.
func labelsFromMask(mask uint32) []string {
	var labels []string
	for i := range 26 {
		if mask&(1<<i) != 0 {
			labels = append(labels, string(rune('A'+i))+":")
		}
	}
	return labels
}

// SearchableDrives filters drives down to the ones the indexer should open.
func SearchableDrives(drives []Drive) []string {
	var labels []string
	for _, d := range drives {
		if d.Type.Searchable() {
			labels = append(labels, d.Label)
		}
	}
	return labels
}
