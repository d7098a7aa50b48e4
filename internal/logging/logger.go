// Package logging configures the process-wide log/slog logger and derives
// request-scoped loggers from fiber contexts.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Setup configures the global slog logger.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// New builds a logger writing to w.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a string log level to slog.Level.
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

// FromCtx returns the default logger enriched with the request id set by
// fiber's requestid middleware and the caller id set by RequireAuth.
func FromCtx(c *fiber.Ctx) *slog.Logger {
	logger := slog.Default()
	if reqID, ok := c.Locals("requestid").(string); ok && reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if userID, ok := c.Locals("user_id").(uint); ok {
		logger = logger.With("user_id", userID)
	}
	return logger
}
