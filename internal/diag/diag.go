// Package diag provides the hook's debug-logging and table-rendering
// surface: a leveled logger for --debug traces, and lipgloss-rendered
// tables for the rules/files/check subcommands.
package diag

import (
	"io"
	"os"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"
)

// NewLogger builds a charmbracelet/log logger that writes to stderr and,
// when logPath is non-empty, also appends to a log file — mirroring the
// teacher's dual-sink debug log without hand-rolling an io.Writer fan-out.
func NewLogger(logPath string, debug bool) *charmlog.Logger {
	level := charmlog.InfoLevel
	if debug {
		level = charmlog.DebugLevel
	}

	var w io.Writer = os.Stderr
	if logPath != "" {
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			w = io.MultiWriter(os.Stderr, f)
		}
	}

	logger := charmlog.NewWithOptions(w, charmlog.Options{
		Prefix:          "longline",
		Level:           level,
		ReportTimestamp: true,
	})
	return logger
}

// DefaultLogPath mirrors the teacher's temp-directory default for the
// debug log file.
func DefaultLogPath() string {
	return filepath.Join(os.TempDir(), "longline.log")
}
