// Package logging builds the structured logger. The TUI owns the terminal,
// so records go to a file under the XDG state directory.
//
// The level is configured via the LOG_LEVEL environment variable (debug,
// info, warn, error; default info). DEBUG=1 forces debug.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/adrg/xdg"
)

// LevelFromEnv returns the level selected by DEBUG and LOG_LEVEL.
func LevelFromEnv(getenv func(string) string) slog.Level {
	switch strings.ToLower(getenv("DEBUG")) {
	case "1", "true", "yes", "on":
		return slog.LevelDebug
	}

	switch strings.ToLower(getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a text logger writing to w at level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Open creates the log file at path, or at $XDG_STATE_HOME/tapedeck/tapedeck.log
// when path is empty, and returns a logger writing to it. The caller closes
// the returned file.
func Open(path string) (*slog.Logger, *os.File, error) {
	if path == "" {
		var err error
		path, err = xdg.StateFile("tapedeck/tapedeck.log")
		if err != nil {
			return nil, nil, fmt.Errorf("resolve log path: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(f, LevelFromEnv(os.Getenv)), f, nil
}
