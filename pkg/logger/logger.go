// Package logger configures the root zerolog logger for the allocation
// service. Components derive their own loggers from it via
// log.With().Str("component", ...).
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// serviceName is stamped on every log line so aggregated logs from several
// services stay attributable.
const serviceName = "hrpfolio"

// Config holds logger configuration
type Config struct {
	Level  string    // trace, debug, info, warn, error (zerolog level names)
	Pretty bool      // human-readable console output instead of JSON
	Output io.Writer // destination; defaults to os.Stdout
}

// New creates the root structured logger. Unknown level names fall back
// to info rather than failing startup.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(output).
		With().
		Timestamp().
		Str("service", serviceName).
		Caller().
		Logger()
}

// SetGlobalLogger sets the package-level logger
func SetGlobalLogger(l zerolog.Logger) {
	log.Logger = l
}
