// Package logger configures the zerolog logger shared by the binaries.
//
// Output goes to stderr so that stdout stays reserved for program results.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// TimeFormat is the timestamp layout used in log lines.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

var (
	once sync.Once
	log  zerolog.Logger
)

// New returns a console logger writing to w at the given level.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: TimeFormat,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// Get returns the process logger, configuring it on first use at level.
// Later calls ignore level.
func Get(level zerolog.Level) *zerolog.Logger {
	once.Do(func() {
		zerolog.TimeFieldFormat = TimeFormat
		log = New(os.Stderr, level)
	})
	return &log
}

// ParseLevel maps a verbosity flag to a level: debug when verbose, warn otherwise.
func ParseLevel(verbose bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	return zerolog.WarnLevel
}
