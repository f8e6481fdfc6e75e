// Package logging sets up Nugget's structured logger using
// github.com/rs/zerolog.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process-wide logger. format is "console" for a
// human-readable development writer or anything else (including "json",
// the default) for zerolog's native structured output.
func New(format string) zerolog.Logger {
	var w io.Writer = os.Stderr
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// Request logs one completed HTTP request at info level, or warn when the
// pipeline produced an error kind.
func Request(log zerolog.Logger, method, path string, status int, duration time.Duration, errorKind string) {
	evt := log.Info()
	if errorKind != "" {
		evt = log.Warn()
	}
	evt.
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("duration_ms", duration).
		Str("error_kind", errorKind).
		Msg("request handled")
}

// Startup logs a non-fatal load-time diagnostic (e.g. an ignored
// VariableSpec parameter or an unknown configuration key) at warn level.
func Startup(log zerolog.Logger, message string) {
	log.Warn().Msg(message)
}

// Fatal logs a failure to bind or serve the listener at error level before
// the process exits with a non-zero status.
func Fatal(log zerolog.Logger, err error) {
	log.Error().Err(err).Msg("startup failed")
}
