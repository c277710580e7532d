package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wethinkt/thinkt-live/internal/collect"
	"github.com/wethinkt/thinkt-live/internal/tuilog"
)

// Serve command flags
var (
	servePort    int
	serveHost    string
	serveStore   string
	serveDBPath  string
	serveQuiet   bool
	serveMaxBody int64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the collector server",
	Long: `Start the collector: the source of truth live viewers read from.

The collector provides:
  - POST /v1/events         ingest (JSON array, single object or NDJSON)
  - GET  /v1/events         full history (?session=<key>, default all)
  - GET  /v1/sessions       session directory
  - GET  /v1/stream         live feed (websocket or NDJSON)
  - POST /v1/stream/ticket  single-use ticket for browser websockets
  - GET  /v1/health         health check
  - GET  /metrics           Prometheus metrics

Examples:
  thinkt-live serve                              # DuckDB store on port 8786
  thinkt-live serve --store memory               # nothing persisted
  thinkt-live serve --token mytoken              # require bearer token auth
  thinkt-live serve --db ./collector.duckdb      # custom storage path`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "server port (default: config, then 8786)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "server host (default: config, then localhost)")
	serveCmd.Flags().StringVar(&serveStore, "store", "", "event store: duckdb or memory")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "DuckDB file (default: ~/.thinkt-live/collector.duckdb)")
	serveCmd.Flags().BoolVarP(&serveQuiet, "quiet", "q", false, "suppress HTTP request logging")
	serveCmd.Flags().Int64Var(&serveMaxBody, "max-body", collect.DefaultMaxBodyBytes, "maximum ingest request size in bytes")
}

func runServe(cmd *cobra.Command, args []string) error {
	cc := cfg.Collector
	if servePort != 0 {
		cc.Port = servePort
	}
	if serveHost != "" {
		cc.Host = serveHost
	}
	if serveStore != "" {
		cc.Store = serveStore
	}
	if serveDBPath != "" {
		cc.DBPath = serveDBPath
	}
	if serverToken != "" {
		cc.Token = serverToken
	}

	store, err := collect.OpenStore(cc)
	if err != nil {
		return err
	}

	srv := collect.NewServer(collect.ServerConfig{
		Port:         cc.Port,
		Host:         cc.Host,
		Token:        cc.Token,
		Quiet:        serveQuiet,
		MaxBodyBytes: serveMaxBody,
	}, store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		tuilog.Log.Info("Received interrupt signal, shutting down")
		if !serveQuiet {
			fmt.Fprintln(os.Stderr, "\nShutting down...")
		}
	}()

	tuilog.Log.Info("Starting collector server", "addr", srv.Addr(), "store", cc.Store)
	if !serveQuiet {
		fmt.Fprintf(os.Stderr, "Collector starting on http://%s (store: %s)\n", srv.Addr(), cc.Store)
		if cc.Token != "" {
			fmt.Fprintln(os.Stderr, "Authentication: enabled (bearer token)")
		} else {
			fmt.Fprintln(os.Stderr, "Authentication: disabled (use --token to secure)")
		}
	}

	return srv.ListenAndServe(ctx)
}
