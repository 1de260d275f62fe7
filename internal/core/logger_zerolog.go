package core

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// ZerologLogger writes service logs as JSON lines through zerolog.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger builds a timestamped logger writing to w at the named
// level. Unknown level names fall back to info.
func NewZerologLogger(w io.Writer, level string) *ZerologLogger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return &ZerologLogger{logger: zerolog.New(w).Level(lvl).With().Timestamp().Logger()}
}

// Zerolog exposes the underlying logger for components that log directly.
func (l *ZerologLogger) Zerolog() zerolog.Logger { return l.logger }

func (l *ZerologLogger) Debug(msg string, args ...any) { l.write(l.logger.Debug(), msg, args) }
func (l *ZerologLogger) Info(msg string, args ...any)  { l.write(l.logger.Info(), msg, args) }
func (l *ZerologLogger) Warn(msg string, args ...any)  { l.write(l.logger.Warn(), msg, args) }
func (l *ZerologLogger) Error(msg string, args ...any) { l.write(l.logger.Error(), msg, args) }

// write attaches alternating key/value args as fields. A dangling key is
// logged under "!BADKEY".
func (l *ZerologLogger) write(event *zerolog.Event, msg string, args []any) {
	if event == nil {
		return
	}
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			event = event.Interface("!BADKEY", args[i])
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if err, ok := args[i+1].(error); ok {
			event = event.AnErr(key, err)
			continue
		}
		event = event.Interface(key, args[i+1])
	}
	event.Msg(msg)
}
