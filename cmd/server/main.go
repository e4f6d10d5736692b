package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/reshetovitsme/tg-media-relay/internal/di"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/config"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/errors"
	httpServer "github.com/reshetovitsme/tg-media-relay/internal/transport/http"
	"github.com/samber/do/v2"
)

func main() {
	// Setup dependency injection
	injector, err := di.Setup()
	if err != nil {
		slog.Error("Failed to setup dependency injection", "error", err)
		os.Exit(1)
	}

	logger, err := do.Invoke[*slog.Logger](injector)
	if err != nil {
		slog.Error("Failed to initialize logging", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, injector); err != nil {
		slog.Error("Application stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, injector do.Injector) error {
	defer func() {
		if err := di.Shutdown(injector); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}()

	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		return err
	}

	if err := di.StartSession(ctx, injector); err != nil {
		if errors.Is(err, errors.ErrSessionNotReady) {
			slog.Error("User session is not authorized, run cmd/login first", "session", cfg.SessionPath)
		}
		return err
	}

	b, err := do.Invoke[*bot.Bot](injector)
	if err != nil {
		return err
	}
	server := do.MustInvoke[*httpServer.Server](injector)

	go b.Start(ctx)

	// Start HTTP server
	go func() {
		if err := server.Start(ctx); err != nil {
			slog.Error("HTTP server stopped", "error", err)
		}
	}()

	slog.Info("Application started", "port", cfg.HTTPPort, "bot_api", cfg.TelegramAPIURL)
	slog.Info("Press Ctrl+C to stop")

	<-ctx.Done()
	slog.Info("Shutting down...")
	return nil
}
