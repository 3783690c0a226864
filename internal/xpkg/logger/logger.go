package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Logger writes one JSON object per line. It is a value type: With, WithGroup and
// Action return derived loggers and never mutate the receiver.
type Logger struct {
	zl     zerolog.Logger
	action string
	group  string
}

// New builds a logger writing to stdout at the given level (DEBUG, INFO, WARN, ERROR).
func New(level string) (Logger, error) {
	return NewWithWriter(os.Stdout, level)
}

func NewWithWriter(w io.Writer, level string) (Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return Logger{}, errors.Wrapf(err, "parse log level %q", level)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339
	hostname, _ := os.Hostname()

	zl := zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("hostname", hostname).
		Logger()

	return Logger{zl: zl}, nil
}

// Console switches output to the human readable console writer, used in development.
func (l Logger) Console() Logger {
	l.zl = l.zl.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	return l
}

// Nop discards everything.
func Nop() Logger {
	return Logger{zl: zerolog.Nop()}
}

func (l Logger) Action(action string) Logger {
	l.action = action
	return l
}

// With attaches key/value pairs to every entry written by the returned logger.
// Keys are prefixed with the current group, if any.
func (l Logger) With(kv ...any) Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(kv); i += 2 {
		ctx = ctx.Interface(l.key(kv[i]), kv[i+1])
	}
	l.zl = ctx.Logger()
	return l
}

func (l Logger) WithGroup(name string) Logger {
	if l.group != "" {
		name = l.group + "." + name
	}
	l.group = name
	return l
}

func (l Logger) RequestID(id string) Logger {
	return l.With("request_id", id)
}

func (l Logger) Debug(msg string, kv ...any) {
	l.write(l.zl.Debug(), msg, kv)
}

func (l Logger) Info(msg string, kv ...any) {
	l.write(l.zl.Info(), msg, kv)
}

func (l Logger) Warn(msg string, kv ...any) {
	l.write(l.zl.Warn(), msg, kv)
}

func (l Logger) Error(msg string, err error, kv ...any) {
	l.write(l.zl.Error().Err(err), msg, kv)
}

func (l Logger) write(e *zerolog.Event, msg string, kv []any) {
	if e == nil {
		return
	}
	if l.action != "" {
		e = e.Str("action", l.action)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		e = e.Interface(l.key(kv[i]), kv[i+1])
	}
	e.Msg(msg)
}

func (l Logger) key(k any) string {
	s, ok := k.(string)
	if !ok {
		s = fmt.Sprint(k)
	}
	if l.group == "" {
		return s
	}
	return l.group + "." + s
}
