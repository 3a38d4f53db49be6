package logger

import (
	"log/slog"
	"os"
)

// New returns the structured logger used across the service. Handlers and
// services receive it explicitly; nothing logs through a package-level default.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
