package infra

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger aliases zerolog.Logger for packages that only pass loggers around.
type Logger = zerolog.Logger

// NewLogger writes JSON to stdout, or a console format in development. The
// level is debug in development and info elsewhere unless LOG_LEVEL says
// otherwise.
func NewLogger(appEnv string) zerolog.Logger {
	return newLogger(os.Stdout, appEnv, os.Getenv("LOG_LEVEL"))
}

func newLogger(out io.Writer, appEnv, rawLevel string) zerolog.Logger {
	dev := appEnv == "development"
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(rawLevel))); err == nil && rawLevel != "" {
		level = parsed
	}
	if dev {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "carekorea").
		Str("env", appEnv).
		Logger()
}

// Component returns a child logger tagged with the component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
