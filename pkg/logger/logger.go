// Package logger builds the application slog logger with credential masking,
// optional file rotation, and optional Sentry forwarding.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	slogsentry "github.com/samber/slog-sentry/v2"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
type Options struct {
	Level         string
	File          string
	FileMaxSizeMB int
	FileMaxAge    int
	SentryEnabled bool
}

var levelVar slog.LevelVar

// SetLevel changes the minimum level of loggers built by New at runtime.
func SetLevel(level string) {
	levelVar.Set(parseLevel(level))
}

// New builds the root slog.Logger. Records always pass through the masking
// handler; when a file is configured output is rotated with lumberjack, and
// when Sentry is enabled warnings and above are mirrored there.
func New(opts Options) *slog.Logger {
	levelVar.Set(parseLevel(opts.Level))

	var out io.Writer = os.Stdout
	if opts.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename: opts.File,
			MaxSize:  opts.FileMaxSizeMB,
			MaxAge:   opts.FileMaxAge,
			Compress: true,
		})
	}

	var handler slog.Handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: &levelVar})

	if opts.SentryEnabled {
		sentryHandler := slogsentry.Option{Level: slog.LevelWarn}.NewSentryHandler()
		handler = NewFanoutHandler(handler, sentryHandler)
	}

	return slog.New(NewMaskingHandler(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
