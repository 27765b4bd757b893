package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/ffd/internal/platform"
)

func TestPrintDrives(t *testing.T) {
	t.Parallel()

	drives := []platform.Drive{
		{Label: "C:", Type: platform.DriveFixed},
		{Label: "D:", Type: platform.DriveCDROM},
		{Label: "E:", Type: platform.DriveRemovable},
		{Label: "F:", Type: platform.DriveFixed},
	}
	fsName := func(label string) (string, error) {
		switch label {
		case "C:":
			return "NTFS", nil
		case "E:":
			return "FAT32", nil
		default:
			return "", errors.New("access denied")
		}
	}

	var out bytes.Buffer
	require.NoError(t, printDrives(&out, drives, fsName))

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 4)
	assert.Equal(t, "C:  fixed      NTFS   indexed", string(lines[0]))
	assert.Equal(t, "D:  cdrom      -      skipped", string(lines[1]))
	assert.Equal(t, "E:  removable  FAT32  not NTFS", string(lines[2]))
	assert.Equal(t, "F:  fixed      -      error: access denied", string(lines[3]))
}
