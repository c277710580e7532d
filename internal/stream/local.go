package stream

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wethinkt/thinkt-live/internal/transcript"
	"github.com/wethinkt/thinkt-live/internal/tuilog"
)

const tailDebounce = 100 * time.Millisecond

// TailFile opens a JSONL transcript file, seeks to the end, and streams
// events as lines are appended. The channel is closed when ctx is cancelled
// or the file is removed; removal is reported as StatusDisconnected with
// ErrFileRemoved first.
func TailFile(ctx context.Context, path string) (<-chan Update, error) {
	return TailFileWith(ctx, path, nil)
}

// TailFileWith is TailFile for transcripts in another line format. A nil
// decoder reads native events.
func TailFileWith(ctx context.Context, path string, decode transcript.LineDecoder) (<-chan Update, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		f.Close()
		return nil, err
	}
	// Watch the directory: a file that is still open does not report its
	// own removal on every platform.
	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		f.Close()
		return nil, err
	}

	ch := make(chan Update, 64)
	go tailLoop(ctx, path, f, watcher, ch, decode)
	return ch, nil
}

func tailLoop(ctx context.Context, path string, f *os.File, watcher *fsnotify.Watcher, ch chan<- Update, decode transcript.LineDecoder) {
	defer close(ch)
	defer f.Close()
	defer watcher.Close()

	c := &conn{ch: ch, onConnect: func() {}, decode: decode}
	if !c.connected(ctx) {
		return
	}

	reader := bufio.NewReader(f)
	var partial []byte
	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Has(fsnotify.Write) {
				debounce.Reset(tailDebounce)
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				send(ctx, ch, statusUpdate(StatusDisconnected, ErrFileRemoved))
				return
			}

		case <-debounce.C:
			for {
				line, err := reader.ReadBytes('\n')
				if err != nil {
					// Keep an unterminated tail until the writer finishes it.
					partial = append(partial, line...)
					break
				}
				if len(partial) > 0 {
					line = append(partial, line...)
					partial = nil
				}
				if skipLine(line) {
					continue
				}
				if !c.record(ctx, line) {
					return
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			tuilog.Log.Warn("Transcript file watcher error", "error", err)
		}
	}
}
