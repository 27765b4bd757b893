package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func newSearchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Index the drives, print the matches for one query and exit",
		Long: "search runs a single query without the prompt. Words are joined " +
			"with spaces. The exit code is 1 when nothing matched, like grep.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			n, err := a.session(os.Stdout).query(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if n == 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}
