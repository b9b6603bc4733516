// Package log provides structured logging for rebase runs.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/natefinch/lumberjack.v2"
)

// simpleHandler is a custom slog handler that writes messages without timestamps or level prefixes
type simpleHandler struct {
	writer    io.Writer
	debugMode bool
	quiet     *bool
}

func (h *simpleHandler) Enabled(_ context.Context, level slog.Level) bool {
	if level == slog.LevelDebug {
		return h.debugMode
	}
	return true
}

func (h *simpleHandler) Handle(_ context.Context, record slog.Record) error {
	if *h.quiet {
		return nil
	}
	_, err := fmt.Fprintln(h.writer, record.Message)
	return err
}

func (h *simpleHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *simpleHandler) WithGroup(_ string) slog.Handler      { return h }

// createLumberjackLogger creates a lumberjack logger with configuration from environment variables
func createLumberjackLogger(logFilePath string) *lumberjack.Logger {
	config := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    1,
		MaxBackups: 2,
		MaxAge:     30,
		Compress:   false,
	}

	if maxSizeStr := os.Getenv("REBASEPR_LOG_MAX_SIZE"); maxSizeStr != "" {
		if maxSize, err := strconv.Atoi(maxSizeStr); err == nil && maxSize > 0 {
			config.MaxSize = maxSize
		}
	}
	if maxBackupsStr := os.Getenv("REBASEPR_LOG_MAX_BACKUPS"); maxBackupsStr != "" {
		if maxBackups, err := strconv.Atoi(maxBackupsStr); err == nil && maxBackups >= 0 {
			config.MaxBackups = maxBackups
		}
	}
	if maxAgeStr := os.Getenv("REBASEPR_LOG_MAX_AGE"); maxAgeStr != "" {
		if maxAge, err := strconv.Atoi(maxAgeStr); err == nil && maxAge > 0 {
			config.MaxAge = maxAge
		}
	}

	return config
}

// multiHandler fans out log records to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}

// Logger provides structured progress output for a rebase run. It writes a
// terse line per console message and, optionally, a timestamped copy of
// everything to a rotated log file.
type Logger struct {
	logger    *slog.Logger
	writer    *os.File
	logWriter io.WriteCloser
	quiet     bool // suppresses console output while a progress spinner owns the terminal
}

// New creates a console-only Logger. Debug messages are enabled when the
// DEBUG environment variable is set.
func New() *Logger {
	l, _ := NewWithFile("")
	return l
}

// NewWithFile creates a Logger that also appends to a rotated file at logFilePath.
func NewWithFile(logFilePath string) (*Logger, error) {
	writer := os.Stdout
	debugMode := os.Getenv("DEBUG") != ""
	l := &Logger{writer: writer}

	consoleHandler := &simpleHandler{writer: writer, debugMode: debugMode, quiet: &l.quiet}
	handlers := []slog.Handler{consoleHandler}

	if logFilePath != "" {
		logDir := filepath.Dir(logFilePath)
		if err := os.MkdirAll(logDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		lumberjackLogger := createLumberjackLogger(logFilePath)
		l.logWriter = lumberjackLogger

		fileHandler := slog.NewTextHandler(lumberjackLogger, &slog.HandlerOptions{
			Level: slog.LevelDebug,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.Attr{Key: a.Key, Value: slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05.000"))}
				}
				return a
			},
		})
		handlers = append(handlers, fileHandler)
	}

	l.logger = slog.New(&multiHandler{handlers: handlers})
	return l, nil
}

// SetQuiet suppresses console output while a progress spinner owns the terminal.
func (l *Logger) SetQuiet(quiet bool) { l.quiet = quiet }

func (l *Logger) logMessage(level slog.Level, msg string) {
	l.logger.Log(context.Background(), level, msg)
}

func sprintf(format string, args []interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// Info writes an info message.
//
//nolint // format string validation is handled internally via fmt.Sprintf
func (l *Logger) Info(format string, args ...interface{}) {
	l.logMessage(slog.LevelInfo, sprintf(format, args))
}

// Warn writes a warning message.
//
//nolint
func (l *Logger) Warn(format string, args ...interface{}) {
	l.logMessage(slog.LevelWarn, "⚠️  "+sprintf(format, args))
}

// Error writes an error message.
//
//nolint
func (l *Logger) Error(format string, args ...interface{}) {
	l.logMessage(slog.LevelError, "❌ "+sprintf(format, args))
}

// Debug writes a debug message, shown only when DEBUG is set.
//
//nolint
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logMessage(slog.LevelDebug, sprintf(format, args))
}

// Close closes the log file, if one was opened.
func (l *Logger) Close() error {
	if l.logWriter != nil {
		return l.logWriter.Close()
	}
	return nil
}
