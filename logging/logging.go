// Package logging centralizes the zerolog setup shared by the state
// engine and the message adapter, so both emit structured events
// through the same console writer and level, the way the teacher
// circuit's test harness wires up its own solver logger.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.SetGlobalLevel(levelFromEnv())
}

func levelFromEnv() zerolog.Level {
	switch strings.ToLower(os.Getenv("STATE_KEEPER_LOG_LEVEL")) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New returns a logger tagged with the given component name, writing
// human-readable output to stderr.
func New(component string) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}
