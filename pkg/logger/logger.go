// Package logger wraps log/slog with the configuration surface the service
// needs: level and format from the environment, component-scoped children.
package logger

import (
	"io"
	"log/slog"
	"os"
)

type Config struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json", "text"
}

func DefaultConfig() Config {
	return Config{Level: "info", Format: "json"}
}

type Logger struct {
	*slog.Logger
}

func New(cfg Config) *Logger {
	return NewWithOutput(cfg, os.Stdout)
}

func NewWithOutput(cfg Config, out io.Writer) *Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithComponent returns a child logger tagged with the component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With("component", component)}
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
