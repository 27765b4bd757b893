package main

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/bamsammich/ffd/internal/engine"
	"github.com/bamsammich/ffd/internal/filter"
	"github.com/bamsammich/ffd/internal/stats"
	"github.com/bamsammich/ffd/internal/ui"
)

// session answers queries against an opened catalog.
type session struct {
	catalog    *engine.Catalog
	stats      *stats.Collector
	chain      *filter.Chain
	printer    *ui.Printer
	maxResults int // 0 means unlimited
	logger     *slog.Logger
}

// query syncs every volume, then prints the matches for q. It returns the
// number of lines printed. A failed sync drops the volume and searches the
// rest.
func (s *session) query(ctx context.Context, q string) (int, error) {
	if strings.TrimSpace(q) == "" {
		return 0, nil
	}
	if err := s.catalog.Sync(ctx); err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		s.logger.Warn("sync failed", "error", err)
	}

	n := 0
	for m := range s.catalog.Search(q) {
		if !s.chain.Match(m.Path, m.Dir) {
			continue
		}
		if s.maxResults > 0 && n == s.maxResults {
			return n, s.printer.Note("(first %d shown)", n)
		}
		if err := s.printer.Match(m); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// repl reads queries from in, one per line. ":stats" prints the session
// counters; ":quit" and EOF end the loop.
func (s *session) repl(ctx context.Context, in io.Reader) error {
	lines, scanErr := readLines(ctx, in)
	for {
		if err := s.printer.Prompt(); err != nil {
			return err
		}

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			return <-scanErr
		}

		switch strings.TrimSpace(line) {
		case "":
			continue
		case ":quit", ":q":
			return nil
		case ":stats":
			snap := s.stats.Snapshot()
			if err := s.printer.Note("%s", ui.StatsSummary(snap, len(s.catalog.Volumes()), s.catalog.Len())); err != nil {
				return err
			}
			continue
		}

		if _, err := s.query(ctx, line); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// readLines feeds lines from r to a channel so the prompt loop can also
// wait on ctx. The error channel receives the scanner's error once lines
// is closed.
func readLines(ctx context.Context, r io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- strings.TrimRight(sc.Text(), "\r"):
			case <-ctx.Done():
				errc <- nil
				return
			}
		}
		errc <- sc.Err()
	}()
	return lines, errc
}
