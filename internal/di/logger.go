package di

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/reshetovitsme/tg-media-relay/internal/shared/config"
	"github.com/samber/oops"
	slogmulti "github.com/samber/slog-multi"
)

// NewLogger fans out to stdout text, stderr errors and, when log_file is set,
// a JSON debug log that /logs sends back to the owner.
func NewLogger(cfg *config.Config) (*slog.Logger, error) {
	level := slog.LevelInfo
	if cfg.AppEnv == config.AppEnvDevelopment {
		level = slog.LevelDebug
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
		slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}),
	}

	if logFile := cfg.LogFile; logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			return nil, oops.With("log_file", logFile).Wrapf(err, "failed to create log directory")
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, oops.With("log_file", logFile).Wrapf(err, "failed to open log file")
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	return slog.New(slogmulti.Fanout(handlers...)), nil
}
