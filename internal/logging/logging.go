// Package logging sets up the process-wide structured logger. The core
// packages take a *slog.Logger (or nil for the default); this package only
// decides level, format and destination once, at startup.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	DEBUG = "DEBUG"
	INFO  = "INFO"
	WARN  = "WARN"
	ERROR = "ERROR"
)

// FormatText renders one finding per line for terminals; FormatJSON emits
// machine-readable records for log collection.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ParseLevel maps a level name to its slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger writing to dest and installs it as the process
// default, so stray log calls from anywhere land in the same stream.
func New(level, format string, dest io.Writer) *slog.Logger {
	if dest == nil {
		dest = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, FormatJSON) {
		opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "timestamp"
			}
			return a
		}
		handler = slog.NewJSONHandler(dest, opts)
	} else {
		handler = slog.NewTextHandler(dest, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// Discard returns a logger that drops everything; tests use it to keep
// pipeline output quiet.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
