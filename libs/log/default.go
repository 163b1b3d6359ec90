package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

func defaultWriter() io.Writer { return os.Stdout }

// Supported log formats.
const (
	LogFormatPlain = "plain"
	LogFormatJSON  = "json"
)

// Supported log levels.
const (
	LogLevelTrace = "trace"
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
	LogLevelNone  = "none"
)

type defaultLogger struct {
	zerolog.Logger
}

// NewDefaultLogger returns a Logger backed by zerolog, writing to os.Stdout
// in either ConsoleWriter ("plain") or raw JSON ("json") form, filtered to
// the named level.
func NewDefaultLogger(format, level string) (Logger, error) {
	return NewDefaultLoggerWithWriter(defaultWriter(), format, level)
}

// NewDefaultLoggerWithWriter is NewDefaultLogger with an explicit output
// sink, used by tests and by NewDefaultLogger itself.
func NewDefaultLoggerWithWriter(w io.Writer, format, level string) (Logger, error) {
	var zw io.Writer
	switch format {
	case LogFormatPlain, "":
		zw = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "15:04:05"}
	case LogFormatJSON:
		zw = w
	default:
		return nil, fmt.Errorf("unsupported log format: %q", format)
	}

	zlevel, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	l := zerolog.New(zw).Level(zlevel).With().Timestamp().Logger()
	return &defaultLogger{Logger: l}, nil
}

func parseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case LogLevelTrace:
		return zerolog.TraceLevel, nil
	case LogLevelDebug:
		return zerolog.DebugLevel, nil
	case LogLevelInfo, "":
		return zerolog.InfoLevel, nil
	case LogLevelWarn:
		return zerolog.WarnLevel, nil
	case LogLevelError:
		return zerolog.ErrorLevel, nil
	case LogLevelNone:
		return zerolog.Disabled, nil
	default:
		return 0, fmt.Errorf("unsupported log level: %q", level)
	}
}

func (l *defaultLogger) Debug(msg string, keyvals ...interface{}) {
	appendKeyvals(l.Logger.Debug(), keyvals).Msg(msg)
}

func (l *defaultLogger) Info(msg string, keyvals ...interface{}) {
	appendKeyvals(l.Logger.Info(), keyvals).Msg(msg)
}

func (l *defaultLogger) Error(msg string, keyvals ...interface{}) {
	appendKeyvals(l.Logger.Error(), keyvals).Msg(msg)
}

func (l *defaultLogger) With(keyvals ...interface{}) Logger {
	ctx := l.Logger.With()
	for i := 0; i+1 < len(keyvals); i += 2 {
		ctx = ctx.Interface(fmt.Sprint(keyvals[i]), keyvals[i+1])
	}
	return &defaultLogger{Logger: ctx.Logger()}
}

func appendKeyvals(e *zerolog.Event, keyvals []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(keyvals); i += 2 {
		e = e.Interface(fmt.Sprint(keyvals[i]), keyvals[i+1])
	}
	return e
}
