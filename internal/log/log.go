// Package log provides a structured logger backed by a rotating file.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps slog. A nil *Logger discards debug and info messages while
// warnings and errors still reach the default slog handler.
type Logger struct {
	*slog.Logger
	LogFile string
	Start   time.Time
}

func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q", level)
}

// New returns a JSON logger writing to dir/takeoff.slog. An empty dir
// selects the user cache directory.
func New(level, dir string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			cache = "."
		}
		dir = filepath.Join(cache, "takeoff")
	}

	w := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "takeoff.slog"),
		MaxSize:    32, // MB
		MaxBackups: 2,
	}
	if lvl == slog.LevelDebug {
		w.MaxSize = 256
	}

	l := NewWithWriter(w, lvl)
	l.LogFile = w.Filename
	l.Info("logging started",
		slog.String("GOOS", runtime.GOOS),
		slog.String("GOARCH", runtime.GOARCH),
		slog.Int("NumCPUs", runtime.NumCPU()))
	return l, nil
}

// NewWithWriter logs JSON records to w.
func NewWithWriter(w io.Writer, lvl slog.Level) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return &Logger{Logger: slog.New(h), Start: time.Now()}
}

func (l *Logger) enabled(lvl slog.Level) bool {
	return l != nil && l.Logger.Enabled(context.Background(), lvl)
}

func (l *Logger) Debug(msg string, args ...any) {
	if l.enabled(slog.LevelDebug) {
		l.Logger.Debug(msg, args...)
	}
}

func (l *Logger) Debugf(msg string, args ...any) {
	if l.enabled(slog.LevelDebug) {
		l.Logger.Debug(fmt.Sprintf(msg, args...))
	}
}

func (l *Logger) Info(msg string, args ...any) {
	if l.enabled(slog.LevelInfo) {
		l.Logger.Info(msg, args...)
	}
}

func (l *Logger) Infof(msg string, args ...any) {
	if l.enabled(slog.LevelInfo) {
		l.Logger.Info(fmt.Sprintf(msg, args...))
	}
}

func (l *Logger) Warn(msg string, args ...any) {
	if l == nil {
		slog.Warn(msg, args...)
		return
	}
	l.Logger.Warn(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	if l == nil {
		slog.Error(msg, args...)
		return
	}
	l.Logger.Error(msg, args...)
}

// With returns a logger that adds args to every record. It is nil-safe.
func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{Logger: l.Logger.With(args...), LogFile: l.LogFile, Start: l.Start}
}
