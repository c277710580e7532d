package cmd

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wethinkt/thinkt-live/internal/claude"
	"github.com/wethinkt/thinkt-live/internal/config"
	"github.com/wethinkt/thinkt-live/internal/live"
	"github.com/wethinkt/thinkt-live/internal/source"
	"github.com/wethinkt/thinkt-live/internal/stream"
	"github.com/wethinkt/thinkt-live/internal/transcript"
	"github.com/wethinkt/thinkt-live/internal/tuilog"
)

// fileFormat is the --format flag shared by commands reading transcripts.
var fileFormat string

const fileFormatHelp = "transcript format: auto, events or claude"

// resolveCollector picks the collector address and token. The --url flag
// wins, then $THINKT_LIVE_URL, then a collector registered on this machine,
// then the config file.
func resolveCollector() (url, token string) {
	token = serverToken
	if token == "" {
		token = cfg.Server.Token
	}

	switch {
	case serverURL != "":
		return serverURL, token
	case os.Getenv(config.EnvURL) != "":
		return os.Getenv(config.EnvURL), token
	}
	if inst := config.FindInstance(config.InstanceCollector); inst != nil {
		tuilog.Log.Debug("Using running collector", "pid", inst.PID, "port", inst.Port)
		return inst.BaseURL(), token
	}
	return cfg.Server.URL, token
}

// openSource returns the history fetcher and the live feed. A transcript
// file replaces the collector for both.
func openSource(ctx context.Context, file string) (source.Fetcher, <-chan stream.Update, string, error) {
	if file != "" {
		decode, err := fileDecoder(file, fileFormat)
		if err != nil {
			return nil, nil, "", err
		}
		feed, err := stream.TailFileWith(ctx, file, decode)
		if err != nil {
			return nil, nil, "", fmt.Errorf("follow %s: %w", file, err)
		}
		return source.NewFileWith(file, decode), feed, file, nil
	}

	url, token := resolveCollector()
	client := source.NewClient(url, token)
	feed, err := stream.Connect(ctx, client.FeedURL(""), token)
	if err != nil {
		return nil, nil, "", fmt.Errorf("connect to %s: %w", url, err)
	}
	return client, feed, client.BaseURL(), nil
}

// fileDecoder picks the line decoder for a transcript. "auto" looks at the
// first line: Claude Code entries are converted, anything else is read as
// native events.
func fileDecoder(path, format string) (transcript.LineDecoder, error) {
	session := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch strings.ToLower(format) {
	case "events":
		return transcript.DecodeLine, nil
	case "claude":
		return claude.NewDecoder(session), nil
	case "", "auto":
	default:
		return nil, fmt.Errorf("unknown format %q (want auto, events or claude)", format)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if claude.LooksLikeEntry(line) {
			tuilog.Log.Debug("Reading Claude Code transcript", "path", path, "session", session)
			return claude.NewDecoder(session), nil
		}
		break
	}
	return transcript.DecodeLine, nil
}

// engineOptions builds controller options from the viewer config.
func engineOptions() live.Options {
	return live.Options{
		Capacity:          cfg.Viewer.Capacity,
		BufferSize:        cfg.Viewer.BufferSize,
		BatchWindow:       cfg.Viewer.BatchWindowDuration(),
		DirectoryDebounce: cfg.Viewer.DirectoryDebounceDuration(),
	}
}

// registerViewer records this process in the instances file until the
// returned func is called.
func registerViewer(target string) func() {
	pid := os.Getpid()
	if err := config.RegisterInstance(config.Instance{
		Type:      config.InstanceViewer,
		PID:       pid,
		URL:       target,
		StartedAt: time.Now(),
	}); err != nil {
		tuilog.Log.Warn("Failed to register viewer instance", "error", err)
		return func() {}
	}
	return func() { _ = config.UnregisterInstance(pid) }
}
