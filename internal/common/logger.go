package common

import (
	"log/slog"
	"os"
)

// SetupLogger configures the process-wide slog default. Format "json"
// selects the JSON handler; anything else falls back to text on stderr.
func SetupLogger(level slog.Level, format string) error {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))

	return nil
}
