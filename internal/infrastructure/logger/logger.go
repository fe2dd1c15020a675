package logger

import (
	"log/slog"
	"os"

	"whisp/internal/infrastructure/config"
)

// Setup installs the process-wide slog default: JSON in production, text
// elsewhere, debug level outside production.
func Setup(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}

	var handler slog.Handler
	if cfg.IsProduction() {
		opts.Level = slog.LevelInfo
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
