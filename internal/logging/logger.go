// Package logging wraps logrus to provide a leveled diagnostic Logger, in
// the structured-logging idiom carried over from the teacher and the rest
// of the retrieval pack, plus a distinct Grading sink that reproduces the
// six user-visible log lines required by §6.4 byte-for-byte.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is a thin, chainable wrapper around a *logrus.Entry, matching the
// call shape of the teacher's own hand-rolled Logger (NewLogger, SetLevel,
// WithField/WithFields, per-level methods) while delegating formatting and
// level filtering to logrus.
type Logger struct {
	entry *logrus.Entry
}

// NewLogger creates a Logger writing structured, timestamped entries to out
// at the given level with the given "component" field (mirroring the
// teacher's per-role ClientLogger/ServerLogger split).
func NewLogger(out io.Writer, level logrus.Level, component string) *Logger {
	base := logrus.New()
	base.SetOutput(out)
	base.SetLevel(level)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &Logger{entry: base.WithField("component", component)}
}

// SetLevel adjusts the severity threshold below which entries are dropped.
func (l *Logger) SetLevel(level logrus.Level) {
	l.entry.Logger.SetLevel(level)
}

// WithField returns a derived Logger carrying one additional structured
// field, leaving the receiver untouched.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithFields returns a derived Logger carrying several additional
// structured fields.
func (l *Logger) WithFields(fields logrus.Fields) *Logger {
	return &Logger{entry: l.entry.WithFields(fields)}
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...interface{}) { l.entry.Debugf(format, args...) }

// Info logs at info level.
func (l *Logger) Info(format string, args ...interface{}) { l.entry.Infof(format, args...) }

// Warn logs at warning level.
func (l *Logger) Warn(format string, args ...interface{}) { l.entry.Warnf(format, args...) }

// Error logs at error level.
func (l *Logger) Error(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// Fatal logs at error level then exits the process with the given code.
// Unlike logrus's own Fatal (always os.Exit(1)), callers pass the specific
// exit code required by §6.2's exit-code contract.
func (l *Logger) Fatal(code int, format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
	os.Exit(code)
}

// bareFormatter renders only the entry's message, with no timestamp, level,
// or field suffix, so the Grading sink's output matches §6.4's required
// lines exactly.
type bareFormatter struct{}

func (bareFormatter) Format(e *logrus.Entry) ([]byte, error) {
	return append([]byte(e.Message), '\n'), nil
}

// NewGrading creates a Logger whose Info-level calls emit exactly the
// formatted message (no decoration), suitable for the six required
// user-visible lines of §6.4. Mirrors the original source's separate
// GRADING/cout channels kept apart from diagnostic logging.
func NewGrading(out io.Writer) *Logger {
	base := logrus.New()
	base.SetOutput(out)
	base.SetLevel(logrus.InfoLevel)
	base.SetFormatter(bareFormatter{})
	return &Logger{entry: logrus.NewEntry(base)}
}

// Line emits one grading line at info level.
func (l *Logger) Line(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// Blank emits an empty line, matching the original client's "cout << endl"
// separator printed between files.
func (l *Logger) Blank() {
	l.entry.Info("")
}
