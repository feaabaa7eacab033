package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds the process logger. debug wins over the configured level.
func New(service, level string, debug bool) *slog.Logger {
	return NewWithWriter(os.Stdout, service, level, debug)
}

func NewWithWriter(w io.Writer, service, level string, debug bool) *slog.Logger {
	lvl := ParseLevel(level)
	if debug {
		lvl = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: lvl,
	}

	l := slog.New(slog.NewTextHandler(w, opts))
	if service != "" {
		l = l.With(slog.String("service", service))
	}
	return l
}

func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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

// Discard is a logger for tests and dry runs.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
