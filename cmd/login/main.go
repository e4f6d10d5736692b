package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/reshetovitsme/tg-media-relay/internal/di"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/config"
	"github.com/reshetovitsme/tg-media-relay/internal/transport/mtproto"
)

func main() {
	cfg, err := config.LoadSession()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := di.NewLogger(cfg)
	if err != nil {
		slog.Error("Failed to initialize logging", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if _, err := os.Stat(cfg.SessionPath); err == nil {
		if !confirm("A session file already exists. Log in again") {
			slog.Info("Keeping existing session", "session", cfg.SessionPath)
			return
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := mtproto.New(cfg.APIID, cfg.APIHash, cfg.SessionPath, logger)
	if err != nil {
		slog.Error("Failed to create client", "error", err)
		os.Exit(1)
	}

	user, err := client.Login(ctx, consolePrompt{})
	if err != nil {
		slog.Error("Login failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Session saved", "session", cfg.SessionPath, "user_id", user.ID, "username", user.Username)
}
