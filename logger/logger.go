// Package logger wraps zerolog.Logger with the constructors used by the
// inventory commands and the panel controller.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger embeds zerolog.Logger so the full zerolog API (Debug, Info, Warn,
// Err, ...) is available directly.
type Logger struct {
	zerolog.Logger
}

// New returns a JSON logger writing to stderr, tagged with the role label
// (e.g. "panel", "cli"). debug lowers the level from Info to Debug.
func New(role string, debug bool) *Logger {
	return NewWithWriter(os.Stderr, role, debug)
}

func NewWithWriter(w io.Writer, role string, debug bool) *Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	l := zerolog.New(w).
		Level(level).
		With().
		Str("role", role).
		Timestamp().
		Logger()

	return &Logger{l}
}

// Nop returns a Logger that discards everything. Intended for tests.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// Child returns a logger inheriting the receiver's fields plus a "component"
// field.
func (l *Logger) Child(component string) *Logger {
	return &Logger{l.With().Str("component", component).Logger()}
}
