package logx

import (
	"context"
	"fmt"
)

// Entry accumulates fields before a line is written
type Entry struct {
	logger *Logger
	fields Fields
	data   interface{}
	err    error
	ctx    context.Context
}

func newEntry(logger *Logger) *Entry {
	return &Entry{
		logger: logger,
		fields: make(Fields),
	}
}

// WithField adds a field to the entry (chainable)
func (e *Entry) WithField(key string, value interface{}) *Entry {
	e.fields[key] = value
	return e
}

// WithFields adds multiple fields to the entry (chainable)
func (e *Entry) WithFields(fields Fields) *Entry {
	for k, v := range fields {
		e.fields[k] = v
	}
	return e
}

// WithError attaches an error (chainable)
func (e *Entry) WithError(err error) *Entry {
	e.err = err
	return e
}

// WithContext attaches a context (chainable)
func (e *Entry) WithContext(ctx context.Context) *Entry {
	e.ctx = ctx
	return e
}

// WithStruct attaches structured data printed below the line (chainable)
func (e *Entry) WithStruct(data interface{}) *Entry {
	e.data = data
	return e
}

func (e *Entry) write(level Level, msg string) {
	e.logger.log(level, msg, e.fields, e.data, e.err)
}

func (e *Entry) Trace(msg string) { e.write(LevelTrace, msg) }
func (e *Entry) Debug(msg string) { e.write(LevelDebug, msg) }
func (e *Entry) Info(msg string)  { e.write(LevelInfo, msg) }
func (e *Entry) Warn(msg string)  { e.write(LevelWarn, msg) }
func (e *Entry) Error(msg string) { e.write(LevelError, msg) }

func (e *Entry) Debugf(format string, args ...interface{}) {
	e.write(LevelDebug, fmt.Sprintf(format, args...))
}

func (e *Entry) Infof(format string, args ...interface{}) {
	e.write(LevelInfo, fmt.Sprintf(format, args...))
}

func (e *Entry) Warnf(format string, args ...interface{}) {
	e.write(LevelWarn, fmt.Sprintf(format, args...))
}

func (e *Entry) Errorf(format string, args ...interface{}) {
	e.write(LevelError, fmt.Sprintf(format, args...))
}

// Fatalf logs at fatal level and exits
func (e *Entry) Fatalf(format string, args ...interface{}) {
	e.write(LevelFatal, fmt.Sprintf(format, args...))
	e.logger.exit(1)
}
