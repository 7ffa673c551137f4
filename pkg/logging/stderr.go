package logging

import (
	"context"
	"os"
	"sync"
)

// StderrLogger writes text-format log lines to standard error. Used for
// interactive runs where warnings (failed chowns, unreadable files) should
// be visible without configuring a log file.
type StderrLogger struct {
	level  Level
	fields Fields
	mu     *sync.Mutex
}

// NewStderrLogger creates a stderr logger with the given minimum level
func NewStderrLogger(level Level) *StderrLogger {
	return &StderrLogger{level: level, mu: &sync.Mutex{}}
}

// Debug logs a debug message
func (l *StderrLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.log(DebugLevel, msg, nil, fields)
}

// Info logs an info message
func (l *StderrLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.log(InfoLevel, msg, nil, fields)
}

// Warn logs a warning message
func (l *StderrLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.log(WarnLevel, msg, nil, fields)
}

// Error logs an error message
func (l *StderrLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.log(ErrorLevel, msg, err, fields)
}

// WithFields returns a logger with additional bound fields
func (l *StderrLogger) WithFields(fields Fields) Logger {
	return &StderrLogger{
		level:  l.level,
		fields: mergeFields(l.fields, fields),
		mu:     l.mu,
	}
}

// Close does nothing; stderr stays open
func (l *StderrLogger) Close() error {
	return nil
}

func (l *StderrLogger) log(level Level, msg string, err error, fields Fields) {
	if level < l.level {
		return
	}
	line := formatLine(FormatText, level, msg, err, mergeFields(l.fields, fields))
	l.mu.Lock()
	os.Stderr.Write(line)
	l.mu.Unlock()
}
