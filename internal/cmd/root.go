// Package cmd provides the CLI commands for thinkt-live.
package cmd

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"

	"github.com/wethinkt/thinkt-live/internal/config"
	"github.com/wethinkt/thinkt-live/internal/i18n"
	"github.com/wethinkt/thinkt-live/internal/tuilog"
)

// global flags
var (
	profileFile *os.File // held open for profiling
	logPath     string
	logLevel    string
	verbose     bool
	outputJSON  bool
	serverURL   string
	serverToken string
)

// cfg is loaded once per invocation by the root pre-run hook.
var cfg = config.Default()

// rootCmd is the root command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "thinkt-live",
	Short: "Live viewer for AI coding assistant transcripts",
	Long: `thinkt-live follows AI coding assistant sessions as they happen.

Events stream from a collector (or a local JSONL transcript) into a
terminal viewer that keeps several sessions warm at once and resyncs
from the collector whenever its copy can no longer be trusted.

Running without a subcommand launches the live viewer.

Commands:
  watch     Live terminal viewer (default)
  tail      Print live events as plain lines
  serve     Run the collector (source of truth)
  sessions  List sessions known to the collector
  push      Replay a JSONL transcript into the collector

Examples:
  thinkt-live                               # Watch every session
  thinkt-live watch --session abc123        # Start on one session
  thinkt-live watch --file transcript.jsonl # Follow a local file
  thinkt-live serve --store memory          # In-memory collector`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Start pprof profiling if THINKT_LIVE_PROFILE is set
		if profilePath := os.Getenv("THINKT_LIVE_PROFILE"); profilePath != "" {
			f, err := os.Create(profilePath)
			if err != nil {
				return fmt.Errorf("create profile file: %w", err)
			}
			profileFile = f

			if err := pprof.StartCPUProfile(f); err != nil {
				f.Close()
				profileFile = nil
				return fmt.Errorf("start CPU profile: %w", err)
			}
		}

		loaded, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			loaded = config.Default()
		}
		cfg = loaded
		i18n.Init(i18n.ResolveLocale(cfg.Language))

		return initLogging()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if profileFile != nil {
			pprof.StopCPUProfile()
			profileFile.Close()
			profileFile = nil
		}
		return tuilog.Log.Close()
	},
	RunE: runWatch,
}

// initLogging opens the debug log. The flag wins over the config file.
func initLogging() error {
	path := logPath
	if path == "" {
		path = cfg.Log.Path
	}
	level := logLevel
	if level == "" {
		level = cfg.Log.Level
	}
	if verbose && level == "" {
		level = "debug"
	}
	return tuilog.InitWithOptions(path, tuilog.Options{Level: level})
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug log level)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "write debug log to file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "", "collector URL (default: $THINKT_LIVE_URL, a running collector, or config)")
	rootCmd.PersistentFlags().StringVar(&serverToken, "token", "", "collector bearer token (default: $THINKT_LIVE_TOKEN)")

	addWatchFlags(rootCmd)
	addWatchFlags(watchCmd)

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(themeCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(versionCmd)
}
