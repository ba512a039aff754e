package logging

import (
	"log/slog"
	"os"
)

// Setup sets slog's default logger. Format is "json" for deployments or
// "text" for local runs.
func Setup(format string, level slog.Level) {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
