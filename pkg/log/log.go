// Package log provides structured logging for suibase using zerolog.
//
// It wraps zerolog to give every worker a component-scoped logger
// (WithComponent, WithWorkdir) instead of hand-rolled prefix strings, and a
// single place to switch between JSON (production) and console (dev)
// output.
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance, set by Init.
var Logger zerolog.Logger

// Level represents a configured log level.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logging configuration.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init initializes the global logger.
func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case InfoLevel:
		level = zerolog.InfoLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

// WithComponent creates a child logger tagged with a component name, e.g.
// "wsworker" or "eventswriter".
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithWorkdir creates a child logger tagged with a workdir name.
func WithWorkdir(workdir string) zerolog.Logger {
	return Logger.With().Str("workdir", workdir).Logger()
}

func init() {
	// Sane default so packages that log before main() calls Init (tests,
	// for instance) don't panic on a zero-value Logger.
	Init(Config{Level: InfoLevel, JSONOutput: false, Output: os.Stderr})
}
