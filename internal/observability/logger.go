package observability

import (
	"log/slog"
	"os"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/config"
)

// NewLogger builds the process logger from config: JSON or text handler,
// level from LOG_LEVEL (debug, info, warn, error; unknown values mean info).
func NewLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
