package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bamsammich/ffd/internal/filter"
	"github.com/bamsammich/ffd/internal/ui/tui"
)

var version = "dev"

func main() {
	os.Exit(run())
}

// filterFlag is a custom pflag.Value that preserves CLI ordering of
// --exclude and --include rules by appending to a shared filter.Chain.
type filterFlag struct {
	chain   *filter.Chain
	include bool
}

func (*filterFlag) String() string { return "" }
func (*filterFlag) Type() string   { return "string" }

func (f *filterFlag) Set(val string) error {
	if f.include {
		return f.chain.AddInclude(val)
	}
	return f.chain.AddExclude(val)
}

// options holds the flags shared by the root command and its subcommands.
type options struct {
	drives     []string
	noColor    bool
	verbose    bool
	quiet      bool
	logFile    string
	bufferSize string
	workers    int
	maxResults int
	filterFile string
	tui        bool
	chain      *filter.Chain
}

func run() int {
	if err := newRootCmd().Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			if exitErr.err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr.err)
			}
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	return 0
}

// newRootCmd builds the ffd command tree.
func newRootCmd() *cobra.Command {
	opts := &options{chain: filter.NewChain()}
	var showVersion bool

	rootCmd := &cobra.Command{
		Use:   "ffd [flags]",
		Short: "Instant file name search backed by the NTFS change journal",
		Long: "ffd indexes every file name on the selected NTFS volumes from the " +
			"master file table, then answers substring queries from memory. " +
			"Before each query the index catches up with the volume's change journal.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "ffd %s\n", version)
				return nil
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.open(ctx); err != nil {
				return err
			}

			if opts.tui {
				if !a.isTTY {
					a.logger.Warn("--tui requires a terminal, falling back to the prompt")
				} else {
					return a.interactive(ctx)
				}
			}
			return a.repl(ctx, os.Stdin)
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")
	rootCmd.Flags().
		BoolVar(&opts.tui, "tui", false, "full-screen interactive search (Bubble Tea)")

	pf := rootCmd.PersistentFlags()
	pf.StringSliceVarP(&opts.drives, "drive", "d", nil,
		"index DRIVE, e.g. C: (repeatable; default: every fixed or removable drive)")
	pf.BoolVar(&opts.noColor, "no-color", false, "disable match highlighting")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress all output except results and errors")
	pf.StringVar(&opts.logFile, "log", "", "write structured JSON log to FILE")
	pf.StringVar(&opts.bufferSize, "buffer-size", "64K", "control buffer SIZE for journal reads (e.g. 64K, 1M)")
	pf.IntVarP(&opts.workers, "workers", "n", 0, "volumes indexed at once (default: all)")
	pf.IntVar(&opts.maxResults, "max-results", 0,
		fmt.Sprintf("stop after N matches per query (default: unlimited, %d with --tui)", tui.DefaultMaxResults))

	// Filter flags append to one chain so CLI ordering is kept.
	pf.Var(&filterFlag{chain: opts.chain, include: false}, "exclude", "hide results matching PATTERN (repeatable)")
	pf.Var(&filterFlag{chain: opts.chain, include: true}, "include", "show results matching PATTERN (repeatable)")
	pf.StringVar(&opts.filterFile, "filter", "", "read filter rules from FILE")

	rootCmd.AddCommand(newDrivesCmd())
	rootCmd.AddCommand(newSearchCmd(opts))
	rootCmd.AddCommand(newDocsCmd())

	return rootCmd
}

type exitError struct {
	code int
	err  error // printed before exiting; nil for a silent exit
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit code %d", e.code)
}

func (e *exitError) Unwrap() error { return e.err }
