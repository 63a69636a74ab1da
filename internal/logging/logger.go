package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a thin wrapper over slog.Logger that adds field helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger builds the process logger. Development uses a human-readable text
// handler at debug level, everything else emits JSON at info level.
func NewLogger(isDevelopment bool) *Logger {
	return NewLoggerWithWriter(os.Stdout, isDevelopment, "")
}

// NewLoggerWithWriter is NewLogger with an explicit sink and optional level override
// ("debug", "info", "warn", "error").
func NewLoggerWithWriter(w io.Writer, isDevelopment bool, level string) *Logger {
	lvl := slog.LevelInfo
	if isDevelopment {
		lvl = slog.LevelDebug
	}
	if level != "" {
		lvl = parseLevel(level, lvl)
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if isDevelopment {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithFields returns a child logger that always includes the given fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.Logger.With(args...)}
}

// With returns a child logger carrying the given key-value pairs.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

func parseLevel(s string, fallback slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}
