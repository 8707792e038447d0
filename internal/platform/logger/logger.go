package logger

import (
	"log/slog"
	"os"
)

// New returns a structured stdout logger. JSON output is for deployed
// environments; text is easier to read during development.
func New(level slog.Level, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
