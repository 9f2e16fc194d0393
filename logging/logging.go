// Package logging builds the application logger from configuration:
// leveled slog output to the console, a rotating file, or both.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger built by New.
type Options struct {
	// Level: debug, info, warn, error. Unknown values mean info.
	Level string

	// Format: text (default) or json.
	Format string

	// Console writes to stderr.
	Console bool

	// File enables rotating file output at Path.
	File bool
	Path string

	// MaxBytes is the rotation threshold per file; BackupCount is how
	// many rotated files to keep.
	MaxBytes    int
	BackupCount int
}

// New builds a logger from opts. With neither console nor file output
// enabled, the logger discards everything.
func New(opts Options) *slog.Logger {
	var writers []io.Writer

	if opts.Console {
		writers = append(writers, os.Stderr)
	}
	if opts.File && opts.Path != "" {
		maxMB := opts.MaxBytes / (1 << 20)
		if maxMB < 1 {
			maxMB = 1
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    maxMB, // megabytes
			MaxBackups: opts.BackupCount,
		})
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	return slog.New(handler)
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
