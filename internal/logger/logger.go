package logger

import (
	"io"
	"os"
	"syscall"
	"time"

	"codeberg.org/mutker/rnboctl/internal/errors"
	"github.com/rs/zerolog"
)

var log = &zlogger{l: zerolog.New(io.Discard)}

type LogLevel int8

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

type zlogger struct {
	l zerolog.Logger
}

// Init initializes the package logger for the given level name
// (debug, info, warning, error).
func Init(level string, isService bool) {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	if isService {
		output.TimeFormat = ""
		output.FormatTimestamp = func(_ interface{}) string {
			return ""
		}
	}

	log = &zlogger{l: zerolog.New(output).With().Timestamp().Logger()}

	SetLogLevel(ParseLevel(level))
}

// New returns a logger writing plain JSON lines to w, filtered at level.
// It does not touch the global level.
func New(w io.Writer, level LogLevel) Logger {
	return &zlogger{l: zerolog.New(w).Level(zerolog.Level(level)).With().Timestamp().Logger()}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return &zlogger{l: zerolog.Nop()}
}

// Default returns the package logger set up by Init.
func Default() Logger {
	return log
}

// ParseLevel maps a config level name to a LogLevel. Unknown names map to
// InfoLevel; config validation rejects them earlier.
func ParseLevel(level string) LogLevel {
	switch level {
	case "debug":
		return DebugLevel
	case "warning", "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	zerolog.SetGlobalLevel(zerolog.Level(level))
}

// IsService checks if the application is running as a service
func IsService() bool {
	if _, err := os.Stdin.Stat(); err != nil {
		return true
	}
	if os.Getenv("SERVICE_NAME") != "" || os.Getenv("INVOCATION_ID") != "" {
		return true
	}
	if os.Getppid() == 1 {
		return true
	}

	return syscall.Getpgrp() == syscall.Getpid()
}

func (z *zlogger) Debug() *LogEvent {
	return &LogEvent{z.l.Debug()}
}

func (z *zlogger) Info() *LogEvent {
	return &LogEvent{z.l.Info()}
}

func (z *zlogger) Warn() *LogEvent {
	return &LogEvent{z.l.Warn()}
}

func (z *zlogger) Error() *LogEvent {
	return &LogEvent{z.l.Error()}
}

func (z *zlogger) ErrorWithCode(err errors.Error) *LogEvent {
	return &LogEvent{z.l.Error().
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		AnErr("error", err.Unwrap())}
}

func (z *zlogger) WithComponent(component string) Logger {
	return &zlogger{l: z.l.With().Str("component", component).Logger()}
}

// Debug logs a debug message
func Debug() *LogEvent {
	return log.Debug()
}

// Info logs an info message
func Info() *LogEvent {
	return log.Info()
}

// Warn logs a warning message
func Warn() *LogEvent {
	return log.Warn()
}

// Error logs an error message
func Error() *LogEvent {
	return log.Error()
}

// ErrorWithCode logs an error message with a specific error code
func ErrorWithCode(err errors.Error) *LogEvent {
	return log.ErrorWithCode(err)
}
