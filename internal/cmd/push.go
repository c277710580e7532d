package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wethinkt/thinkt-live/internal/source"
	"github.com/wethinkt/thinkt-live/internal/tuilog"
)

var pushBatch int

var pushCmd = &cobra.Command{
	Use:   "push <file.jsonl>",
	Short: "Replay a JSONL transcript into the collector",
	Long: `Read a JSONL transcript and send its events to the collector's ingest
endpoint in batches. Malformed lines are skipped. Claude Code session files
are detected and converted.

Examples:
  thinkt-live push session.jsonl
  thinkt-live push ~/.claude/projects/my-app/0b7c.jsonl
  thinkt-live push --batch 50 --url http://collector:8786 session.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runPush,
}

func init() {
	pushCmd.Flags().IntVar(&pushBatch, "batch", 200, "events per request")
	pushCmd.Flags().StringVar(&fileFormat, "format", "auto", fileFormatHelp)
}

func runPush(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	decode, err := fileDecoder(args[0], fileFormat)
	if err != nil {
		return err
	}
	events, err := source.NewFileWith(args[0], decode).ReadAll(ctx)
	if err != nil {
		return err
	}

	url, token := resolveCollector()
	client := source.NewClient(url, token)

	batch := max(pushBatch, 1)
	accepted := 0
	for start := 0; start < len(events); start += batch {
		end := min(start+batch, len(events))
		res, err := client.Push(ctx, events[start:end])
		if err != nil {
			return fmt.Errorf("push events %d-%d: %w", start, end-1, err)
		}
		tuilog.Log.Debug("Pushed batch", "events", end-start, "accepted", res.Accepted, "duration", res.Duration)
		accepted += res.Accepted
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d events to %s (%d accepted)\n", len(events), client.BaseURL(), accepted)
	return nil
}
