package engine

import (
	"fmt"
	"log/slog"
)

// Logger is an optional interface for observability during execution.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort; Logf should not panic.
// - Ownership: format/args are read-only.
type Logger interface {
	// Logf logs a formatted message.
	Logf(format string, args ...any)
}

// NewSlogLogger adapts a *slog.Logger to the Logger interface, logging
// at info level.
func NewSlogLogger(l *slog.Logger) Logger {
	return slogLogger{l: l}
}

type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Logf(format string, args ...any) {
	s.l.Info(fmt.Sprintf(format, args...))
}
