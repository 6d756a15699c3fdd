// Package logger configures the process-wide zerolog logger.
package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets the global level and output format. Unknown levels fall back
// to info; format "console" switches to human-readable output.
func Init(level, format string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if strings.EqualFold(format, "console") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	// log.Ctx falls back to the global logger for contexts without one
	zerolog.DefaultContextLogger = &log.Logger
}

// IsDebug reports whether debug logging is enabled.
func IsDebug() bool {
	return zerolog.GlobalLevel() <= zerolog.DebugLevel
}
