package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Config selects log level and destination.
type Config struct {
	Level string
	// File, when set, receives JSON lines instead of the console.
	File string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the root logger. The returned closer releases the log file, if any.
func New(config Config, console io.Writer) (zerolog.Logger, io.Closer, error) {
	zerolog.TimeFieldFormat = consoleTimeFormat
	zerolog.ErrorFieldName = "err"
	zerolog.SetGlobalLevel(ParseLevel(config.Level, zerolog.InfoLevel))

	if path := strings.TrimSpace(config.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("create log directory: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file: %w", err)
		}
		return zerolog.New(file).With().Timestamp().Logger(), file, nil
	}

	if console == nil {
		console = os.Stderr
	}
	writer := zerolog.ConsoleWriter{Out: console, TimeFormat: consoleTimeFormat}
	return zerolog.New(writer).With().Timestamp().Logger(), nopCloser{}, nil
}

// SetLevel changes the level of every logger at runtime.
func SetLevel(level string) {
	zerolog.SetGlobalLevel(ParseLevel(level, zerolog.GlobalLevel()))
}

// ParseLevel maps a level name to a zerolog level, returning def when unknown.
func ParseLevel(level string, def zerolog.Level) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "disabled":
		return zerolog.Disabled
	}
	return def
}
