// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options are the file-config values; HEXWARD_JSON_LOG and HEXWARD_LOG_LEVEL
// override them when set.
type Options struct {
	JSON  bool
	Level string
	// Writer defaults to os.Stderr so that reports on stdout stay clean.
	Writer io.Writer
}

// Init configures a global slog logger. JSON if HEXWARD_JSON_LOG=1/true or
// opts.JSON, else text.
func Init(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	json := opts.JSON
	if mode := strings.ToLower(os.Getenv("HEXWARD_JSON_LOG")); mode != "" {
		json = mode == "1" || mode == "true" || mode == "json"
	}
	level := opts.Level
	if env := os.Getenv("HEXWARD_LOG_LEVEL"); env != "" {
		level = env
	}
	ho := &slog.HandlerOptions{AddSource: false, Level: ParseLevel(level)}
	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, ho)
	} else {
		handler = slog.NewTextHandler(w, ho)
	}
	logger := slog.New(handler).With("service", "hexward")
	slog.SetDefault(logger)
	logger.Debug("logging initialized", "json", json)
	return logger
}

// ParseLevel maps a level name to a slog level. Unknown names and the empty
// string give Warn.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
