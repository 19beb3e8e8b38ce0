package kanbmine

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Logger receives structured debug output from the client. Keys and values
// alternate in keysAndValues. The client is silent unless a logger is
// configured.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// zerologAdapter bridges the Logger interface onto a zerolog.Logger.
type zerologAdapter struct {
	l zerolog.Logger
}

// NewZerologLogger wraps a zerolog.Logger as a Logger.
func NewZerologLogger(l zerolog.Logger) Logger {
	return &zerologAdapter{l: l}
}

func (z *zerologAdapter) Debug(msg string, keysAndValues ...any) {
	emit(z.l.Debug(), msg, keysAndValues)
}

func (z *zerologAdapter) Info(msg string, keysAndValues ...any) {
	emit(z.l.Info(), msg, keysAndValues)
}

func (z *zerologAdapter) Warn(msg string, keysAndValues ...any) {
	emit(z.l.Warn(), msg, keysAndValues)
}

func (z *zerologAdapter) Error(msg string, keysAndValues ...any) {
	emit(z.l.Error(), msg, keysAndValues)
}

func emit(ev *zerolog.Event, msg string, keysAndValues []any) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		ev = ev.Interface(key, keysAndValues[i+1])
	}
	ev.Msg(msg)
}
