package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const (
	APP        = "APP"
	ASSISTANT  = "ASSISTANT"
	CONFIG     = "CONFIG"
	HANDLER    = "HANDLER"
	MAIL       = "MAIL"
	MIDDLEWARE = "MIDDLEWARE"
	REDIS      = "REDIS"
	RUN        = "RUN"
	STORE      = "STORE"
	TRANSPORT  = "TRANSPORT"
)

var (
	mu   sync.RWMutex
	base = newLogger(os.Stderr, getLogLevel())
)

func getLogLevel() zerolog.Level {
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// SetOutput redirects all namespaced logging to w, re-reading LOG_LEVEL.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base = newLogger(w, getLogLevel())
}

// UseConsole switches to zerolog's human readable writer.
func UseConsole(w io.Writer) {
	SetOutput(zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "15:04:05"})
}

// Logger returns the underlying zerolog logger tagged with a namespace.
func Logger(namespace string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.With().Str("ns", namespace).Logger()
}

func emit(level zerolog.Level, namespace, format string, v ...interface{}) {
	mu.RLock()
	l := base
	mu.RUnlock()
	l.WithLevel(level).Str("ns", namespace).Msgf(format, v...)
}

func Debug(namespace, format string, v ...interface{}) {
	emit(zerolog.DebugLevel, namespace, format, v...)
}

func Info(namespace, format string, v ...interface{}) {
	emit(zerolog.InfoLevel, namespace, format, v...)
}

func Warn(namespace, format string, v ...interface{}) {
	emit(zerolog.WarnLevel, namespace, format, v...)
}

func Error(namespace, format string, v ...interface{}) {
	emit(zerolog.ErrorLevel, namespace, format, v...)
}

// Fatal records at fatal level but leaves process exit to the caller.
func Fatal(namespace, format string, v ...interface{}) {
	emit(zerolog.FatalLevel, namespace, format, v...)
}
