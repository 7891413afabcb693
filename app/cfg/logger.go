package cfg

import (
	"io"
	"log/slog"
)

// NewLogger builds the process logger and installs it as the slog default.
func NewLogger(w io.Writer, c *Cfg) *slog.Logger {
	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch c.LogFormat {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler).With("version", c.Version)
	slog.SetDefault(logger)

	return logger
}
