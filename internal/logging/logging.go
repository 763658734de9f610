// Package logging builds the slog loggers used across bibkit.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// New returns a logger writing human-readable lines to w at the given level
// (debug, info, warn, error). Every record carries a per-process run id so
// lines from one batch can be grouped.
func New(w io.Writer, level string) *slog.Logger {
	handler := log.NewWithOptions(w, log.Options{
		Level:           parseLevel(level),
		ReportTimestamp: true,
		Prefix:          "bibkit",
	})
	return slog.New(handler).With(slog.String("run", uuid.NewString()))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Component returns l tagged with a component name.
func Component(l *slog.Logger, name string) *slog.Logger {
	return l.With(slog.String("component", name))
}

func parseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
