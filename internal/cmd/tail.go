package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wethinkt/thinkt-live/internal/cli"
	"github.com/wethinkt/thinkt-live/internal/live"
	"github.com/wethinkt/thinkt-live/internal/stream"
	"github.com/wethinkt/thinkt-live/internal/transcript"
	"github.com/wethinkt/thinkt-live/internal/view"
)

var (
	tailSession string
	tailFile    string
	tailWidth   int
	tailNoColor bool
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print live events as plain lines",
	Long: `Print the history of a session followed by its live events, one line per
row. Lines are prefixed with "+" for a new row, "^" for a row that sorts
before rows already printed, and "~" for a row updated in place.

Examples:
  thinkt-live tail                       # every session
  thinkt-live tail --session abc123      # one session
  thinkt-live tail --file session.jsonl  # a local transcript
  thinkt-live tail --no-color | grep Tool`,
	Args: cobra.NoArgs,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().StringVarP(&tailSession, "session", "s", "", "session to follow (default: all sessions)")
	tailCmd.Flags().StringVarP(&tailFile, "file", "f", "", "follow a local JSONL transcript instead of a collector")
	tailCmd.Flags().StringVar(&fileFormat, "format", "auto", fileFormatHelp)
	tailCmd.Flags().IntVarP(&tailWidth, "width", "w", 0, "truncate lines to this width (default: terminal width)")
	tailCmd.Flags().BoolVar(&tailNoColor, "no-color", false, "disable colored labels")
}

func runTail(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher, feed, target, err := openSource(ctx, tailFile)
	if err != nil {
		return err
	}

	popts := cli.TailOptions{
		Width:       tailWidth,
		ShowSession: tailSession == "" || tailSession == transcript.AllSessions,
	}
	if tailNoColor {
		off := false
		popts.Color = &off
	}
	printer := cli.NewTailPrinter(cmd.OutOrStdout(), popts)

	stderr := cmd.ErrOrStderr()
	opts := engineOptions()
	opts.Hooks = func(string) view.Hook { return printer }
	opts.Listener = live.Listener{
		OnStatus: func(status stream.Status, err error) {
			if err != nil {
				fmt.Fprintf(stderr, "feed %s: %v\n", status, err)
				return
			}
			fmt.Fprintf(stderr, "feed %s (%s)\n", status, target)
		},
		OnResync: func(scope string, err error) {
			if err != nil {
				fmt.Fprintf(stderr, "reload %s failed: %v\n", scope, err)
			}
		},
	}

	ctrl := live.New(fetcher, opts)
	ctrl.Init(ctx, tailSession)
	if err := ctrl.Run(ctx, feed); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
