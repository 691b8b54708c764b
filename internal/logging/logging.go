// Package logging builds the logger that is passed to every component.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Level maps the -v count to a log level: none is warn, one is info and
// two or more is debug.
func Level(verbosity int) zerolog.Level {
	switch {
	case verbosity >= 2:
		return zerolog.DebugLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	default:
		return zerolog.WarnLevel
	}
}

// New returns a console logger on w tagged with runID. The level is fixed
// for the lifetime of the logger.
func New(w io.Writer, verbosity int, runID string) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
		NoColor:    true,
	}
	return zerolog.New(out).
		Level(Level(verbosity)).
		With().
		Timestamp().
		Str("run_id", runID).
		Logger()
}
