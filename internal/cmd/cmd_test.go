package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/wethinkt/thinkt-live/internal/collect"
	"github.com/wethinkt/thinkt-live/internal/config"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitForOutput(t *testing.T, b *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(b.String(), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q in:\n%s", want, b.String())
}

// resetGlobals restores flag-bound globals after a test.
func resetGlobals(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvHome, t.TempDir())
	t.Setenv(config.EnvURL, "")
	prevURL, prevToken, prevCfg := serverURL, serverToken, cfg
	prevSession, prevFile, prevNoColor := tailSession, tailFile, tailNoColor
	t.Cleanup(func() {
		serverURL, serverToken, cfg = prevURL, prevToken, prevCfg
		tailSession, tailFile, tailNoColor = prevSession, prevFile, prevNoColor
	})
	cfg = config.Default()
}

func TestResolveCollector(t *testing.T) {
	t.Run("flag takes precedence", func(t *testing.T) {
		resetGlobals(t)
		t.Setenv(config.EnvURL, "http://env.example:1")
		serverURL = "http://flag.example:1"
		serverToken = "flag-token"
		url, token := resolveCollector()
		if url != "http://flag.example:1" || token != "flag-token" {
			t.Fatalf("resolveCollector() = %q, %q", url, token)
		}
	})

	t.Run("env fallback", func(t *testing.T) {
		resetGlobals(t)
		t.Setenv(config.EnvURL, "http://env.example:1")
		serverURL = ""
		cfg.Server.Token = "config-token"
		url, token := resolveCollector()
		if url != "http://env.example:1" || token != "config-token" {
			t.Fatalf("resolveCollector() = %q, %q", url, token)
		}
	})

	t.Run("running collector", func(t *testing.T) {
		resetGlobals(t)
		serverURL = ""
		if err := config.RegisterInstance(config.Instance{
			Type:      config.InstanceCollector,
			PID:       os.Getpid(),
			Host:      "0.0.0.0",
			Port:      9999,
			StartedAt: time.Now(),
		}); err != nil {
			t.Fatal(err)
		}
		if url, _ := resolveCollector(); url != "http://localhost:9999" {
			t.Fatalf("resolveCollector() = %q", url)
		}
	})

	t.Run("config default", func(t *testing.T) {
		resetGlobals(t)
		serverURL = ""
		if url, _ := resolveCollector(); url != "http://localhost:8786" {
			t.Fatalf("resolveCollector() = %q", url)
		}
	})
}

func TestReadLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.log")
	if err := os.WriteFile(path, []byte("one\ntwo\nthree\nfour\nfive"), 0644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	lines, err := readLastLines(f, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(lines, ","); got != "three,four,five" {
		t.Errorf("readLastLines = %q", got)
	}
	if pos, _ := f.Seek(0, 1); pos != 23 {
		t.Errorf("file offset = %d, want end of file", pos)
	}
}

func TestTailLogFile_NoFollow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.log")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := tailLogFile(context.Background(), &out, path, 2, false); err != nil {
		t.Fatal(err)
	}
	if out.String() != "b\nc\n" {
		t.Errorf("output = %q", out.String())
	}
}

func runTailCommand(t *testing.T) (stdout, stderr *syncBuffer, stop func()) {
	t.Helper()
	stdout, stderr = &syncBuffer{}, &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())
	c := &cobra.Command{}
	c.SetContext(ctx)
	c.SetOut(stdout)
	c.SetErr(stderr)

	done := make(chan error, 1)
	go func() { done <- runTail(c, nil) }()
	return stdout, stderr, func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("runTail: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("runTail did not return after cancel")
		}
	}
}

func TestTail_LocalFile(t *testing.T) {
	resetGlobals(t)
	path := filepath.Join(t.TempDir(), "session.jsonl")
	history := `{"id":"e1","sessionKey":"s1","timestampMs":1000,"kind":"user","payload":{"text":"first prompt"}}
{"id":"e2","sessionKey":"s1","timestampMs":2000,"kind":"assistant","payload":{"text":"first answer"}}
`
	if err := os.WriteFile(path, []byte(history), 0644); err != nil {
		t.Fatal(err)
	}
	tailFile = path
	tailNoColor = true

	stdout, _, stop := runTailCommand(t)
	defer stop()

	waitForOutput(t, stdout, "first answer")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString(`{"id":"e3","sessionKey":"s1","timestampMs":3000,"kind":"assistant","payload":{"text":"live answer"}}` + "\n")
	f.Close()

	waitForOutput(t, stdout, "live answer")
	if strings.Count(stdout.String(), "first prompt") != 1 {
		t.Errorf("history printed more than once:\n%s", stdout.String())
	}
}

func TestTail_Collector(t *testing.T) {
	resetGlobals(t)
	srv := collect.NewServer(collect.ServerConfig{Quiet: true}, collect.NewMemoryStore())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ingest := func(body string) {
		t.Helper()
		resp, err := http.Post(ts.URL+"/v1/events", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("ingest status = %d", resp.StatusCode)
		}
	}

	ingest(`[{"id":"h1","sessionKey":"s1","timestampMs":1000,"kind":"user","payload":{"text":"stored prompt"}}]`)

	serverURL = ts.URL
	tailNoColor = true
	stdout, stderr, stop := runTailCommand(t)
	defer stop()

	waitForOutput(t, stdout, "stored prompt")
	waitForOutput(t, stderr, "feed connected")

	ingest(`[{"id":"h2","sessionKey":"s2","timestampMs":2000,"kind":"assistant","payload":{"text":"streamed reply"}}]`)
	waitForOutput(t, stdout, "[s2] Assistant: streamed reply")
}

func TestFileDecoder_DetectsClaudeCode(t *testing.T) {
	dir := t.TempDir()
	claudePath := filepath.Join(dir, "0b7c.jsonl")
	claudeLines := `{"type":"summary","summary":"Build fix","leafUuid":"a1"}
{"type":"user","uuid":"u1","timestamp":"2026-01-02T03:04:05Z","message":{"role":"user","content":"fix the build"}}
`
	if err := os.WriteFile(claudePath, []byte(claudeLines), 0644); err != nil {
		t.Fatal(err)
	}

	decode, err := fileDecoder(claudePath, "auto")
	if err != nil {
		t.Fatal(err)
	}
	events, err := decode([]byte(`{"type":"user","uuid":"u1","message":{"role":"user","content":"hi"}}`))
	if err != nil || len(events) != 1 || events[0].SessionKey != "0b7c" {
		t.Fatalf("claude decode = %+v, %v", events, err)
	}

	nativePath := filepath.Join(dir, "events.jsonl")
	if err := os.WriteFile(nativePath, []byte(`{"id":"e1","sessionKey":"s1","kind":"user"}`+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	decode, err = fileDecoder(nativePath, "auto")
	if err != nil {
		t.Fatal(err)
	}
	if events, err := decode([]byte(`{"id":"e1","sessionKey":"s1","kind":"user"}`)); err != nil || events[0].ID != "e1" {
		t.Fatalf("native decode = %+v, %v", events, err)
	}

	if _, err := fileDecoder(nativePath, "yaml"); err == nil {
		t.Error("unknown format accepted")
	}
}
