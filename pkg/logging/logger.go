package logging

import (
	"context"
)

// Level represents log severity
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the level name
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a log level name, defaulting to InfoLevel
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return DebugLevel
	case "info", "INFO":
		return InfoLevel
	case "warn", "WARN", "warning", "WARNING":
		return WarnLevel
	case "error", "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger is the structured logging interface passed through the deployment
// engine. Implementations: FileLogger, StderrLogger, NullLogger.
type Logger interface {
	// Debug logs a debug message
	Debug(ctx context.Context, msg string, fields Fields)

	// Info logs an info message
	Info(ctx context.Context, msg string, fields Fields)

	// Warn logs a warning message
	Warn(ctx context.Context, msg string, fields Fields)

	// Error logs an error message
	Error(ctx context.Context, msg string, err error, fields Fields)

	// WithFields returns a logger with additional bound fields
	WithFields(fields Fields) Logger

	// Close flushes and closes the logger
	Close() error
}

// mergeFields combines bound and call-site fields, call-site winning
func mergeFields(bound, extra Fields) Fields {
	if len(bound) == 0 {
		return extra
	}
	merged := make(Fields, len(bound)+len(extra))
	for k, v := range bound {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
