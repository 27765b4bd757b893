package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bamsammich/ffd/internal/platform"
)

func newDrivesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drives",
		Short: "List mounted drives and whether ffd can index them",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			drives, err := platform.Drives()
			if err != nil {
				return fmt.Errorf("discover drives: %w", err)
			}
			if len(drives) == 0 {
				fmt.Fprintln(os.Stderr, "no drives found")
				return nil
			}
			return printDrives(os.Stdout, drives, platform.FilesystemName)
		},
	}
}

// printDrives writes one line per drive: label, type, filesystem and
// whether it would be indexed by default.
func printDrives(w io.Writer, drives []platform.Drive, fsName func(string) (string, error)) error {
	for _, d := range drives {
		fs := "-"
		status := "skipped"
		if d.Type.Searchable() {
			name, err := fsName(d.Label)
			switch {
			case err != nil:
				status = "error: " + err.Error()
			case name != "NTFS":
				fs = name
				status = "not NTFS"
			default:
				fs = name
				status = "indexed"
			}
		}
		if _, err := fmt.Fprintf(w, "%-3s %-10s %-6s %s\n", d.Label, d.Type, fs, status); err != nil {
			return err
		}
	}
	return nil
}
