// Package logger builds the zerolog logger shared by the server and the
// command line tools.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/ieltsprep/ielts-backend/internal/config"
	"github.com/rs/zerolog"
)

// Setup returns a logger on stdout. level is any zerolog level name and falls
// back to info; format "pretty" selects console output, anything else JSON.
func Setup(level, format string) zerolog.Logger {
	return New(os.Stdout, level, format)
}

// New is Setup with an explicit writer. It also sets the global level, so the
// last call wins for loggers derived from zerolog's global.
func New(w io.Writer, level, format string) zerolog.Logger {
	if format == "pretty" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", config.AppName).
		Caller().
		Logger()
}
