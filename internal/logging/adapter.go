package logging

import (
	"io"
	"log/slog"
)

// Logger is the minimal leveled logging interface used by packages that
// should not depend on slog directly (resolvers, planners).
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter adapts an slog.Logger to the Logger interface.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter wraps logger. A nil logger falls back to slog.Default().
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Debug logs at debug level with alternating key-value pairs.
func (a *SlogAdapter) Debug(msg string, args ...any) { a.logger.Debug(msg, args...) }

// Info logs at info level with alternating key-value pairs.
func (a *SlogAdapter) Info(msg string, args ...any) { a.logger.Info(msg, args...) }

// Warn logs at warn level with alternating key-value pairs.
func (a *SlogAdapter) Warn(msg string, args ...any) { a.logger.Warn(msg, args...) }

// Error logs at error level with alternating key-value pairs.
func (a *SlogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }

// Logger returns the wrapped slog.Logger.
func (a *SlogAdapter) Logger() *slog.Logger {
	return a.logger
}

// DefaultLogger returns a Logger backed by slog.Default().
func DefaultLogger() *SlogAdapter {
	return NewSlogAdapter(slog.Default())
}

// Discard returns a Logger that drops every record. Useful in tests.
func Discard() *SlogAdapter {
	return NewSlogAdapter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// New builds the process logger. Records go to w (stderr for the server so
// that stdout stays reserved for the stdio transport).
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
