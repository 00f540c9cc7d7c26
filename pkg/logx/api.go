package logx

import (
	"fmt"
	"io"
)

var defaultLogger *Logger

func init() {
	defaultLogger = NewLogger(LoadFromEnv())
}

// SetDefaultLogger replaces the package-level logger
func SetDefaultLogger(logger *Logger) {
	defaultLogger = logger
}

// GetDefaultLogger returns the package-level logger
func GetDefaultLogger() *Logger {
	return defaultLogger
}

// SetLevel sets the log level for the default logger
func SetLevel(level Level) {
	defaultLogger.SetLevel(level)
}

// SetOutput sets the output for the default logger
func SetOutput(w io.Writer) {
	defaultLogger.SetOutput(w)
}

func Debug(msg string) { newEntry(defaultLogger).write(LevelDebug, msg) }
func Info(msg string)  { newEntry(defaultLogger).write(LevelInfo, msg) }
func Warn(msg string)  { newEntry(defaultLogger).write(LevelWarn, msg) }
func Error(msg string) { newEntry(defaultLogger).write(LevelError, msg) }

func Debugf(format string, args ...interface{}) {
	newEntry(defaultLogger).write(LevelDebug, fmt.Sprintf(format, args...))
}

func Infof(format string, args ...interface{}) {
	newEntry(defaultLogger).write(LevelInfo, fmt.Sprintf(format, args...))
}

func Warnf(format string, args ...interface{}) {
	newEntry(defaultLogger).write(LevelWarn, fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...interface{}) {
	newEntry(defaultLogger).write(LevelError, fmt.Sprintf(format, args...))
}

// Fatalf logs a formatted fatal message and exits
func Fatalf(format string, args ...interface{}) {
	newEntry(defaultLogger).write(LevelFatal, fmt.Sprintf(format, args...))
	defaultLogger.exit(1)
}

// WithFields creates a new entry with fields
func WithFields(fields Fields) *Entry {
	return defaultLogger.WithFields(fields)
}

// WithField creates a new entry with a single field
func WithField(key string, value interface{}) *Entry {
	return defaultLogger.WithField(key, value)
}

// WithError creates a new entry carrying err
func WithError(err error) *Entry {
	return defaultLogger.WithError(err)
}
