package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Services pass this down; packages never
// construct their own.
func New(service string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(handler).With("service", service)
}
