package app

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// newLogger returns a console logger writing to w. Debug events are only
// emitted when verbose is set.
func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: time.TimeOnly,
	}).Level(level).With().Timestamp().Logger()
}
