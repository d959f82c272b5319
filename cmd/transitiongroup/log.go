package main

import (
	"io"

	charmlog "github.com/charmbracelet/log"
)

// newLogger returns a charm logger. It implements slog.Handler, so the
// rest of the program logs through log/slog.
func newLogger(w io.Writer, level charmlog.Level) *charmlog.Logger {
	return charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}
