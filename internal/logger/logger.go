// Package logger builds the zerolog.Logger used throughout the service.
package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/config"
)

// New returns a configured zerolog.Logger writing structured lines to
// stderr, honoring cfg.LogLevel (§6's LOG_LEVEL).
func New(cfg *config.Config) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr}
	zerolog.SetGlobalLevel(parseLevel(cfg.LogLevel))
	return zerolog.New(out).With().Timestamp().Logger()
}

func parseLevel(raw string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARNING", "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
