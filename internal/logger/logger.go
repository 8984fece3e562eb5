package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level is the minimum severity a logger emits.
type Level string

const (
	LevelDebug  Level = "debug"
	LevelInfo   Level = "info"
	LevelWarn   Level = "warn"
	LevelError  Level = "error"
	LevelSilent Level = "silent"
)

// Logger is the structured logger used across the service.
// Fields are passed as alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// Options configures the process-wide logger.
type Options struct {
	Level  Level
	Format string // "console" or "json"
	Output io.Writer
}

var (
	mu   sync.RWMutex
	root = newZero(Options{Level: LevelWarn, Format: "console", Output: os.Stderr})
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		SetLevel(ParseLevel(lvl))
	}
}

// Configure replaces the process-wide logger.
func Configure(opts Options) {
	mu.Lock()
	defer mu.Unlock()
	root = newZero(opts)
}

// SetLevel changes the minimum level of the process-wide logger.
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	root = root.Level(toZero(level))
}

// ParseLevel maps a level name to a Level, defaulting to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "silent", "off", "none":
		return LevelSilent
	default:
		return LevelInfo
	}
}

func newZero(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).With().Timestamp().Logger().Level(toZero(opts.Level))
}

func toZero(level Level) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelSilent:
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// zeroLogger adapts zerolog to Logger. A nil base means "use the current
// process-wide logger", so component loggers follow later Configure calls.
type zeroLogger struct {
	base   *zerolog.Logger
	fields map[string]interface{}
}

func (l zeroLogger) logger() zerolog.Logger {
	var zl zerolog.Logger
	if l.base != nil {
		zl = *l.base
	} else {
		zl = current()
	}
	if len(l.fields) > 0 {
		zl = zl.With().Fields(l.fields).Logger()
	}
	return zl
}

func (l zeroLogger) emit(e *zerolog.Event, msg string, fields []interface{}) {
	if e == nil {
		return
	}
	for i := 0; i < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if i+1 >= len(fields) {
			e = e.Interface(key, nil)
			break
		}
		if err, ok := fields[i+1].(error); ok {
			e = e.AnErr(key, err)
			continue
		}
		e = e.Interface(key, fields[i+1])
	}
	e.Msg(msg)
}

func (l zeroLogger) Debug(msg string, fields ...interface{}) {
	zl := l.logger()
	l.emit(zl.Debug(), msg, fields)
}

func (l zeroLogger) Info(msg string, fields ...interface{}) {
	zl := l.logger()
	l.emit(zl.Info(), msg, fields)
}

func (l zeroLogger) Warn(msg string, fields ...interface{}) {
	zl := l.logger()
	l.emit(zl.Warn(), msg, fields)
}

func (l zeroLogger) Error(msg string, fields ...interface{}) {
	zl := l.logger()
	l.emit(zl.Error(), msg, fields)
}

func (l zeroLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l zeroLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return zeroLogger{base: l.base, fields: merged}
}

// New returns a Logger writing to w at the given level, independent of the
// process-wide logger. Mostly useful in tests.
func New(w io.Writer, level Level) Logger {
	zl := zerolog.New(w).With().Timestamp().Logger().Level(toZero(level))
	return zeroLogger{base: &zl}
}

// Default returns a Logger bound to the process-wide configuration.
func Default() Logger {
	return zeroLogger{}
}

func Debug(msg string, fields ...interface{}) { Default().Debug(msg, fields...) }
func Info(msg string, fields ...interface{})  { Default().Info(msg, fields...) }
func Warn(msg string, fields ...interface{})  { Default().Warn(msg, fields...) }
func Error(msg string, fields ...interface{}) { Default().Error(msg, fields...) }

// WithField returns a process-wide logger carrying one extra field.
func WithField(key string, value interface{}) Logger {
	return Default().WithField(key, value)
}

// WithFields returns a process-wide logger carrying extra fields.
func WithFields(fields map[string]interface{}) Logger {
	return Default().WithFields(fields)
}

// Nop discards everything.
func Nop() Logger {
	zl := zerolog.Nop()
	return zeroLogger{base: &zl}
}
