package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Format represents the log output format
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// FileLoggerConfig holds configuration for file logging
type FileLoggerConfig struct {
	// Path is the log file path
	Path string
	// Format is the output format (json or text)
	Format Format
	// Level is the minimum log level
	Level Level
	// MaxSize is the maximum size in bytes before rotation (0 = no rotation)
	MaxSize int64
	// MaxBackups is the maximum number of rotated files to keep
	MaxBackups int
}

// FileLogger writes structured log lines to a file, rotating by size
type FileLogger struct {
	config FileLoggerConfig
	fields Fields

	mu   sync.Mutex
	file *os.File
	size int64
}

// NewFileLogger creates a new file logger, creating parent directories
// as needed
func NewFileLogger(config FileLoggerConfig) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(config.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	return &FileLogger{
		config: config,
		file:   file,
		size:   info.Size(),
	}, nil
}

// Debug logs a debug message
func (l *FileLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.log(DebugLevel, msg, nil, fields)
}

// Info logs an info message
func (l *FileLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.log(InfoLevel, msg, nil, fields)
}

// Warn logs a warning message
func (l *FileLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.log(WarnLevel, msg, nil, fields)
}

// Error logs an error message
func (l *FileLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.log(ErrorLevel, msg, err, fields)
}

// WithFields returns a logger with additional bound fields sharing the
// same underlying file
func (l *FileLogger) WithFields(fields Fields) Logger {
	return &fieldLogger{parent: l, fields: mergeFields(l.fields, fields)}
}

// Close flushes and closes the logger
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *FileLogger) log(level Level, msg string, err error, fields Fields) {
	if level < l.config.Level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}

	if l.config.MaxSize > 0 && l.size >= l.config.MaxSize {
		l.rotate()
	}

	line := formatLine(l.config.Format, level, msg, err, mergeFields(l.fields, fields))
	n, _ := l.file.Write(line)
	l.size += int64(n)
}

// rotate shifts existing backups and reopens a fresh log file.
// Callers hold l.mu.
func (l *FileLogger) rotate() {
	l.file.Close()

	for i := l.config.MaxBackups - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", l.config.Path, i), fmt.Sprintf("%s.%d", l.config.Path, i+1))
	}
	os.Rename(l.config.Path, l.config.Path+".1")
	if l.config.MaxBackups > 0 {
		os.Remove(fmt.Sprintf("%s.%d", l.config.Path, l.config.MaxBackups+1))
	}

	file, err := os.OpenFile(l.config.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		l.file = nil
		return
	}
	l.file = file
	l.size = 0
}

// fieldLogger carries bound fields and forwards to the parent FileLogger
type fieldLogger struct {
	parent *FileLogger
	fields Fields
}

func (f *fieldLogger) Debug(ctx context.Context, msg string, fields Fields) {
	f.parent.log(DebugLevel, msg, nil, mergeFields(f.fields, fields))
}

func (f *fieldLogger) Info(ctx context.Context, msg string, fields Fields) {
	f.parent.log(InfoLevel, msg, nil, mergeFields(f.fields, fields))
}

func (f *fieldLogger) Warn(ctx context.Context, msg string, fields Fields) {
	f.parent.log(WarnLevel, msg, nil, mergeFields(f.fields, fields))
}

func (f *fieldLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	f.parent.log(ErrorLevel, msg, err, mergeFields(f.fields, fields))
}

func (f *fieldLogger) WithFields(fields Fields) Logger {
	return &fieldLogger{parent: f.parent, fields: mergeFields(f.fields, fields)}
}

func (f *fieldLogger) Close() error {
	return nil
}

// formatLine renders one log entry in the requested format
func formatLine(format Format, level Level, msg string, err error, fields Fields) []byte {
	now := time.Now().UTC()

	if format == FormatJSON {
		entry := map[string]interface{}{
			"timestamp": now.Format(time.RFC3339),
			"level":     level.String(),
			"message":   msg,
		}
		if err != nil {
			entry["error"] = err.Error()
		}
		for k, v := range fields {
			entry[k] = v
		}
		data, jsonErr := json.Marshal(entry)
		if jsonErr != nil {
			return nil
		}
		return append(data, '\n')
	}

	line := fmt.Sprintf("%s [%s] %s", now.Format("2006-01-02T15:04:05.000Z"), level.String(), msg)
	if err != nil {
		line += fmt.Sprintf(" error=%q", err.Error())
	}

	// Stable field order for text output
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		line += fmt.Sprintf(" %s=%v", k, fields[k])
	}

	return []byte(line + "\n")
}
