// Package logging builds the application's slog logger. The TUI owns the
// terminal, so logs normally go to a file; the level lives in a LevelVar
// so a config reload can change it without rebuilding the logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
)

// Stderr as a path sends logs to standard error instead of a file.
const Stderr = "-"

type Logger struct {
	*slog.Logger
	level  *slog.LevelVar
	closer io.Closer
}

// DefaultPath returns ~/.config/binto/binto.log
func DefaultPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "binto", "binto.log"), nil
}

// Open appends JSON records to path, or writes to stderr when path is
// Stderr (text when stderr is a terminal, JSON otherwise).
func Open(path, level string) (*Logger, error) {
	lv := new(slog.LevelVar)
	if err := setLevel(lv, level); err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lv}

	if path == Stderr {
		var h slog.Handler
		if isatty.IsTerminal(os.Stderr.Fd()) {
			h = slog.NewTextHandler(os.Stderr, opts)
		} else {
			h = slog.NewJSONHandler(os.Stderr, opts)
		}
		return &Logger{Logger: slog.New(h), level: lv}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &Logger{Logger: slog.New(slog.NewJSONHandler(f, opts)), level: lv, closer: f}, nil
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler), level: new(slog.LevelVar)}
}

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(level string) error {
	return setLevel(l.level, level)
}

func (l *Logger) Level() slog.Level { return l.level.Level() }

func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func setLevel(lv *slog.LevelVar, level string) error {
	if strings.TrimSpace(level) == "" {
		lv.Set(slog.LevelInfo)
		return nil
	}
	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	lv.Set(parsed)
	return nil
}
