package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// newDocsCmd renders man pages or markdown for every ffd command. Output is
// reproducible: no generation timestamps, and the man page date comes from
// SOURCE_DATE_EPOCH when set.
func newDocsCmd() *cobra.Command {
	var dir, format string
	cmd := &cobra.Command{
		Use:    "gen-docs",
		Short:  "Write ffd's man pages or markdown reference",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return genDocs(cmd.Root(), dir, format)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "docs", "output directory")
	cmd.Flags().StringVar(&format, "format", "man", "output format: man or markdown")
	return cmd
}

func genDocs(root *cobra.Command, dir, format string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	root.DisableAutoGenTag = true

	switch format {
	case "man":
		date, err := sourceDate()
		if err != nil {
			return err
		}
		return doc.GenManTree(root, &doc.GenManHeader{
			Title:   "FFD",
			Section: "1",
			Source:  "ffd " + version,
			Manual:  "ffd manual",
			Date:    &date,
		}, dir)
	case "markdown":
		// Title each page after its command line, e.g. "ffd search".
		front := func(filename string) string {
			name := strings.TrimSuffix(filepath.Base(filename), ".md")
			return "# " + strings.ReplaceAll(name, "_", " ") + "\n\n"
		}
		link := func(name string) string { return name }
		return doc.GenMarkdownTreeCustom(root, dir, front, link)
	default:
		return fmt.Errorf("unknown format %q (use man or markdown)", format)
	}
}

func sourceDate() (time.Time, error) {
	epoch := os.Getenv("SOURCE_DATE_EPOCH")
	if epoch == "" {
		return time.Now().UTC(), nil
	}
	secs, err := strconv.ParseInt(epoch, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("SOURCE_DATE_EPOCH %q: want unix seconds", epoch)
	}
	return time.Unix(secs, 0).UTC(), nil
}
