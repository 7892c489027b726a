// Package logging provides slog setup and package-level logging helpers for
// the dead stock service. Output goes to stderr and to app.log.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type LoggingService struct {
	Logger *slog.Logger
}

var DefaultLoggingService *LoggingService

// SetupLogger builds a text handler writing to stderr and the given log file.
// When the file cannot be opened the logger degrades to stderr only.
func SetupLogger(logFile string, level string) *slog.Logger {
	var out io.Writer = os.Stderr

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot open log file %s: %v\n", logFile, err)
		} else {
			out = io.MultiWriter(os.Stderr, f)
		}
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger initializes the global logger instance
func InitLogger(logFile string, level string) {
	DefaultLoggingService = &LoggingService{
		Logger: SetupLogger(logFile, level),
	}
	slog.SetDefault(DefaultLoggingService.Logger)
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	logger(slog.LevelInfo).Info(msg, args...)
}

func Error(msg string, args ...any) {
	logger(slog.LevelError).Error(msg, args...)
}

func Warn(msg string, args ...any) {
	logger(slog.LevelWarn).Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	logger(slog.LevelDebug).Debug(msg, args...)
}

// logger returns the configured logger, or a console fallback at the given
// level when InitLogger has not run yet.
func logger(level slog.Level) *slog.Logger {
	if DefaultLoggingService != nil && DefaultLoggingService.Logger != nil {
		return DefaultLoggingService.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
