package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns a slog.Logger configured based on the application environment.
// Every record carries the service name so aggregated logs stay attributable.
func New(env string) *slog.Logger {
	handler := slog.NewJSONHandler(defaultWriter(), &slog.HandlerOptions{
		Level: parseLevel(env),
	})
	return slog.New(handler).With("service", "parking-simples")
}

func defaultWriter() io.Writer {
	return os.Stdout
}

func parseLevel(env string) slog.Level {
	switch env {
	case "production", "staging":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
