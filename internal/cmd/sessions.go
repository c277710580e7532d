package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wethinkt/thinkt-live/internal/cli"
	"github.com/wethinkt/thinkt-live/internal/source"
	"github.com/wethinkt/thinkt-live/internal/transcript"
)

var (
	sessionsFile     string
	sessionsSortBy   string
	sessionsDesc     bool
	sessionsTemplate string
	sessionsKeysOnly bool
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List sessions known to the collector",
	Long: `List the session directory of the collector, or of a local transcript.

` + cli.SessionSummaryTemplateHelp + `

Examples:
  thinkt-live sessions
  thinkt-live sessions --keys
  thinkt-live sessions --sort count --desc
  thinkt-live sessions --file session.jsonl --json
  thinkt-live sessions --template '{{range .}}{{.Key}} {{.Count}}{{"\n"}}{{end}}'`,
	Args: cobra.NoArgs,
	RunE: runSessions,
}

func init() {
	sessionsCmd.Flags().StringVarP(&sessionsFile, "file", "f", "", "read a local JSONL transcript instead of a collector")
	sessionsCmd.Flags().StringVar(&fileFormat, "format", "auto", fileFormatHelp)
	sessionsCmd.Flags().StringVar(&sessionsSortBy, "sort", "time", "sort by: time, name, count")
	sessionsCmd.Flags().BoolVar(&sessionsDesc, "desc", true, "sort descending")
	sessionsCmd.Flags().StringVar(&sessionsTemplate, "template", "", "custom Go template")
	sessionsCmd.Flags().BoolVar(&sessionsKeysOnly, "keys", false, "print session keys only")
	sessionsCmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
}

func runSessions(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	var fetcher source.Fetcher
	if sessionsFile != "" {
		decode, err := fileDecoder(sessionsFile, fileFormat)
		if err != nil {
			return err
		}
		fetcher = source.NewFileWith(sessionsFile, decode)
	} else {
		url, token := resolveCollector()
		fetcher = source.NewClient(url, token)
	}

	sessions, err := fetcher.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []transcript.SessionSummary{}
	}

	w := cmd.OutOrStdout()
	if outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sessions)
	}

	formatter := cli.NewSessionsFormatter(w)
	if sessionsKeysOnly {
		return formatter.FormatList(sessions)
	}
	if len(sessions) == 0 && sessionsTemplate == "" {
		fmt.Fprintln(os.Stderr, "No sessions found")
		return nil
	}
	return formatter.FormatSummary(sessions, cli.SessionListOptions{
		SortBy:     sessionsSortBy,
		Descending: sessionsDesc,
		Template:   sessionsTemplate,
	})
}
