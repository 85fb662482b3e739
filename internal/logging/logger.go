package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

var logger *slog.Logger

// Init initializes the global structured logger. Format is "text" or "json".
func Init(level, format string) {
	InitWithWriter(os.Stderr, level, format)
}

// InitWithWriter is Init with an explicit destination.
func InitWithWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level), ReplaceAttr: redact}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// ParseLevel maps a level name to a slog level, defaulting to info.
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

// Logger returns the global logger instance.
func Logger() *slog.Logger {
	if logger == nil {
		Init("info", "text")
	}
	return logger
}

// secretKeys are attribute names whose values never reach the log.
var secretKeys = map[string]bool{
	"token":    true,
	"password": true,
	"crumb":    true,
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if secretKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, "[redacted]")
	}
	return a
}

// log skips attribute handling entirely when the level is filtered out; debug
// calls sit on every Jenkins request.
func log(level slog.Level, msg string, args []any) {
	l := Logger()
	ctx := context.Background()
	if !l.Enabled(ctx, level) {
		return
	}
	l.Log(ctx, level, msg, args...)
}

// Debug is for per-request traffic and skipped no-op transitions.
func Debug(msg string, args ...any) { log(slog.LevelDebug, msg, args) }

// Info is for connection and per-run milestones.
func Info(msg string, args ...any) { log(slog.LevelInfo, msg, args) }

func Warn(msg string, args ...any) { log(slog.LevelWarn, msg, args) }

func Error(msg string, args ...any) { log(slog.LevelError, msg, args) }
