package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a JSON logger in prod and a text logger elsewhere.
func New(env, level string) *slog.Logger {
	return NewWithWriter(os.Stdout, env, level)
}

func NewWithWriter(w io.Writer, env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if env == "prod" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

func ParseLevel(level string) slog.Level {
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
