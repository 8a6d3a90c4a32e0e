// Package logging builds the process-wide zerolog logger and attaches the
// per-run/per-site correlation fields the Errors Sink entries share.
package logging

import (
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// New builds a logger writing timestamped JSON to stdout and applies
// level as the global level (default info for an unrecognized value).
func New(level string) zerolog.Logger {
	setGlobalLevel(level)
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func setGlobalLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// NewRunID generates a fresh correlation ID for one indexing run.
func NewRunID() string {
	return uuid.NewString()
}

// WithRun returns a child logger tagged with run_id, for the duration of
// one StartIndexing call.
func WithRun(logger zerolog.Logger, runID string) zerolog.Logger {
	return logger.With().Str("run_id", runID).Logger()
}

// WithSite returns a child logger additionally tagged with site, for use
// inside a per-site goroutine.
func WithSite(logger zerolog.Logger, site string) zerolog.Logger {
	return logger.With().Str("site", site).Logger()
}
