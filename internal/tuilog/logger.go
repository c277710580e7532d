// Package tuilog provides file-based logging for TUI applications.
// It is a separate package to avoid import cycles with the tui package.
package tuilog

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger provides file-based logging for the TUI since stdout/stderr
// are not available during terminal UI operation.
type Logger struct {
	mu      sync.Mutex
	out     io.WriteCloser
	zl      zerolog.Logger
	enabled bool
}

var (
	// Log is the global logger instance for the TUI
	Log     = &Logger{zl: zerolog.Nop()}
	logOnce sync.Once
)

// Options tune the log file. Zero values use the defaults.
type Options struct {
	Level      string // debug, info, warn, error
	MaxSizeMB  int
	MaxBackups int
}

// Init initializes the global logger to write to the specified file.
// If path is empty, logging is disabled.
func Init(path string) error {
	return InitWithOptions(path, Options{})
}

// InitWithOptions is Init with explicit level and rotation settings.
func InitWithOptions(path string, opts Options) error {
	if path == "" {
		Log.mu.Lock()
		Log.enabled = false
		Log.mu.Unlock()
		return nil
	}

	logOnce.Do(func() {
		if opts.MaxSizeMB <= 0 {
			opts.MaxSizeMB = 10
		}
		if opts.MaxBackups <= 0 {
			opts.MaxBackups = 3
		}
		Log.attach(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}, parseLevel(opts.Level))
		Log.Info("Logger initialized", "path", path)
	})
	return nil
}

// New returns a logger writing to w, for tests and embedding.
func New(w io.Writer, level string) *Logger {
	l := &Logger{}
	l.attach(nopCloser{w}, parseLevel(level))
	return l
}

func (l *Logger) attach(w io.WriteCloser, level zerolog.Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
	l.zl = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05.000",
		NoColor:    true,
	}).Level(level).With().Timestamp().Logger()
	l.enabled = true
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out != nil {
		return l.out.Close()
	}
	return nil
}

// Enabled returns whether logging is active.
func (l *Logger) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// Writer returns the underlying io.Writer for use with other logging libraries.
func (l *Logger) Writer() io.Writer {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled || l.out == nil {
		return io.Discard
	}
	return l.out
}

func (l *Logger) log(level zerolog.Level, msg string, keyvals ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		return
	}

	e := l.zl.WithLevel(level)
	for i := 0; i < len(keyvals)-1; i += 2 {
		key := fmt.Sprint(keyvals[i])
		switch v := keyvals[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		case time.Duration:
			e = e.Dur(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(msg)
}

// Debug logs a debug message with optional key-value pairs.
func (l *Logger) Debug(msg string, keyvals ...any) {
	l.log(zerolog.DebugLevel, msg, keyvals...)
}

// Info logs an info message with optional key-value pairs.
func (l *Logger) Info(msg string, keyvals ...any) {
	l.log(zerolog.InfoLevel, msg, keyvals...)
}

// Warn logs a warning message with optional key-value pairs.
func (l *Logger) Warn(msg string, keyvals ...any) {
	l.log(zerolog.WarnLevel, msg, keyvals...)
}

// Error logs an error message with optional key-value pairs.
func (l *Logger) Error(msg string, keyvals ...any) {
	l.log(zerolog.ErrorLevel, msg, keyvals...)
}

// Timed logs the duration of an operation. Usage:
//
//	defer tuilog.Log.Timed("operation name")()
func (l *Logger) Timed(operation string) func() {
	if !l.Enabled() {
		return func() {}
	}
	start := time.Now()
	l.Debug(operation, "status", "started")
	return func() {
		l.Debug(operation, "status", "completed", "duration", time.Since(start))
	}
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "", "info":
		return zerolog.InfoLevel
	default:
		return zerolog.InfoLevel
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
