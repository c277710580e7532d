package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/wethinkt/thinkt-live/internal/live"
	"github.com/wethinkt/thinkt-live/internal/tui"
	"github.com/wethinkt/thinkt-live/internal/tuilog"
)

var (
	watchSession string
	watchFile    string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Launch the live terminal viewer",
	Long: `Follow live sessions in a terminal viewer.

Events from the collector feed are applied to the session on screen as
they arrive. Other recently viewed sessions stay cached and queue their
events while hidden; switching back replays the queue, or reloads the
session from the collector when the queue overflowed.

Keys:
  tab / n        next session
  shift+tab / p  previous session
  a              all sessions
  r              reload the current session
  G / end        jump to the newest event
  1-5            toggle user / assistant / thinking / tool / other rows
  q              quit

Examples:
  thinkt-live watch
  thinkt-live watch --session abc123
  thinkt-live watch --file ~/.claude/projects/x/session.jsonl`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func addWatchFlags(c *cobra.Command) {
	c.Flags().StringVarP(&watchSession, "session", "s", "", "session to show first (default: all sessions)")
	c.Flags().StringVarP(&watchFile, "file", "f", "", "follow a local JSONL transcript instead of a collector")
	c.Flags().StringVar(&fileFormat, "format", "auto", fileFormatHelp)
}

func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

func runWatch(cmd *cobra.Command, args []string) error {
	if !isTTY() {
		return fmt.Errorf("the live viewer requires a terminal; use 'thinkt-live tail' instead")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	fetcher, feed, target, err := openSource(ctx, watchFile)
	if err != nil {
		return err
	}
	defer registerViewer(target)()
	tuilog.Log.Info("Starting live viewer", "source", target, "session", watchSession)

	rows := tui.NewRowSet()
	var p *tea.Program

	opts := engineOptions()
	opts.Hooks = rows.Factory
	opts.Listener = tui.Listener(func(msg tea.Msg) { p.Send(msg) })
	ctrl := live.New(fetcher, opts)

	styles, renderer := tui.DefaultPresentation()
	p = tui.NewProgram(tui.NewLiveModel(ctrl, rows, styles, renderer, watchSession))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ctrl.Init(gctx, watchSession)
		return ctrl.Run(gctx, feed)
	})
	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		return err
	})

	err = g.Wait()
	tuilog.Log.Info("Live viewer exited", "error", err)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
