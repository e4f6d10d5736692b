package di

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	batchService "github.com/reshetovitsme/tg-media-relay/internal/modules/batch/service"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/console"
	feedDomain "github.com/reshetovitsme/tg-media-relay/internal/modules/feed/domain"
	feedService "github.com/reshetovitsme/tg-media-relay/internal/modules/feed/service"
	historyRepo "github.com/reshetovitsme/tg-media-relay/internal/modules/history/repository"
	historyService "github.com/reshetovitsme/tg-media-relay/internal/modules/history/service"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/media/probe"
	mediaService "github.com/reshetovitsme/tg-media-relay/internal/modules/media/service"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/media/thumbnail"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/media/workspace"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/system"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/task"
	templateRepo "github.com/reshetovitsme/tg-media-relay/internal/modules/template/repository"
	templateService "github.com/reshetovitsme/tg-media-relay/internal/modules/template/service"
	userRepo "github.com/reshetovitsme/tg-media-relay/internal/modules/user/repository"
	userService "github.com/reshetovitsme/tg-media-relay/internal/modules/user/service"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/command"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/config"
	httpServer "github.com/reshetovitsme/tg-media-relay/internal/transport/http"
	"github.com/reshetovitsme/tg-media-relay/internal/transport/mtproto"
	telegramHandler "github.com/reshetovitsme/tg-media-relay/internal/transport/telegram"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
)

// Service names for dependency injection
const (
	ServiceBatchDriver = "batch-driver"
	ServiceRangeDriver = "range-driver"
)

// Setup initializes the dependency injection container
func Setup() (do.Injector, error) {
	injector := do.New()
	started := time.Now()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	do.Provide(injector, func(i do.Injector) (*slog.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewLogger(cfg)
	})

	// Repositories
	do.Provide(injector, func(i do.Injector) (userRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo, err := userRepo.NewFileStorage(cfg.StoragePath)
		if err != nil {
			return nil, oops.With("storage_path", cfg.StoragePath, "context", "failed to initialize user repository").Wrap(err)
		}
		return repo, nil
	})

	do.Provide(injector, func(i do.Injector) (historyRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo, err := historyRepo.NewFileStorage(cfg.StoragePath)
		if err != nil {
			return nil, oops.With("storage_path", cfg.StoragePath, "context", "failed to initialize history repository").Wrap(err)
		}
		return repo, nil
	})

	do.Provide(injector, func(i do.Injector) (templateRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo, err := templateRepo.NewFileStorage(cfg.StoragePath)
		if err != nil {
			return nil, oops.With("storage_path", cfg.StoragePath, "context", "failed to initialize template repository").Wrap(err)
		}
		return repo, nil
	})

	// Services
	do.Provide(injector, func(i do.Injector) (*userService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[userRepo.Repository](i)
		return userService.New(repo, cfg.OwnerID, cfg.AllowedUsers), nil
	})

	do.Provide(injector, func(i do.Injector) (*historyService.Service, error) {
		repo := do.MustInvoke[historyRepo.Repository](i)
		return historyService.New(repo), nil
	})

	do.Provide(injector, func(i do.Injector) (*templateService.Service, error) {
		repo := do.MustInvoke[templateRepo.Repository](i)
		return templateService.New(repo), nil
	})

	do.Provide(injector, func(i do.Injector) (*feedService.Service, error) {
		history := do.MustInvoke[*historyService.Service](i)
		return feedService.New(history, feedDomain.DefaultConfig()), nil
	})

	do.Provide(injector, func(i do.Injector) (*task.Registry, error) {
		return task.NewRegistry(do.MustInvoke[*slog.Logger](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (command.Runner, error) {
		return command.NewExecRunner(), nil
	})

	do.Provide(injector, func(i do.Injector) (*workspace.Workspace, error) {
		cfg := do.MustInvoke[*config.Config](i)
		ws, err := workspace.New(cfg.DownloadDir, cfg.ThumbDir)
		if err != nil {
			return nil, oops.With("download_dir", cfg.DownloadDir, "context", "failed to initialize workspace").Wrap(err)
		}
		return ws, nil
	})

	do.Provide(injector, func(i do.Injector) (*probe.Prober, error) {
		cfg := do.MustInvoke[*config.Config](i)
		runner := do.MustInvoke[command.Runner](i)
		return probe.New(runner, cfg.FFprobePath, do.MustInvoke[*slog.Logger](i)), nil
	})

	// User session
	do.Provide(injector, func(i do.Injector) (*mtproto.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		client, err := mtproto.New(cfg.APIID, cfg.APIHash, cfg.SessionPath, do.MustInvoke[*slog.Logger](i))
		if err != nil {
			return nil, oops.With("context", "failed to create user session").Wrap(err)
		}
		return client, nil
	})

	do.Provide(injector, func(i do.Injector) (*thumbnail.Resolver, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return thumbnail.New(
			do.MustInvoke[*mtproto.Client](i),
			do.MustInvoke[command.Runner](i),
			do.MustInvoke[*workspace.Workspace](i),
			cfg.FFmpegPath,
			do.MustInvoke[*slog.Logger](i),
		), nil
	})

	// Bot API transport
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Publisher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return telegramHandler.NewPublisher(cfg.UsesLocalBotAPI()), nil
	})

	do.Provide(injector, func(i do.Injector) (*telegramHandler.Notifier, error) {
		return telegramHandler.NewNotifier(), nil
	})

	do.Provide(injector, func(i do.Injector) (*mediaService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return mediaService.New(
			do.MustInvoke[*mtproto.Client](i),
			do.MustInvoke[*telegramHandler.Publisher](i),
			do.MustInvoke[*telegramHandler.Notifier](i),
			do.MustInvoke[*probe.Prober](i),
			do.MustInvoke[*thumbnail.Resolver](i),
			do.MustInvoke[*templateService.Service](i),
			do.MustInvoke[*historyService.Service](i),
			do.MustInvoke[*workspace.Workspace](i),
			mediaService.Config{
				ProgressInterval: cfg.ProgressInterval,
				GroupConcurrency: cfg.GroupConcurrency,
			},
			do.MustInvoke[*slog.Logger](i),
		), nil
	})

	do.ProvideNamed(injector, ServiceBatchDriver, func(i do.Injector) (*batchService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return batchService.New(do.MustInvoke[*mtproto.Client](i), cfg.BatchDelay, do.MustInvoke[*slog.Logger](i)), nil
	})

	do.ProvideNamed(injector, ServiceRangeDriver, func(i do.Injector) (*batchService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return batchService.New(do.MustInvoke[*mtproto.Client](i), cfg.RangeDelay, do.MustInvoke[*slog.Logger](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (*console.Executor, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return console.New(
			do.MustInvoke[command.Runner](i),
			do.MustInvoke[*userService.Service](i),
			cfg.ShellTimeout,
			do.MustInvoke[*slog.Logger](i),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*system.Stats, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return system.New(
			started,
			cfg.DownloadDir,
			do.MustInvoke[*task.Registry](i),
			do.MustInvoke[*historyService.Service](i),
			do.MustInvoke[*userService.Service](i),
		), nil
	})

	// Register Telegram Handler
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Handler, error) {
		return telegramHandler.New(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*mediaService.Service](i),
			do.MustInvokeNamed[*batchService.Service](i, ServiceBatchDriver),
			do.MustInvokeNamed[*batchService.Service](i, ServiceRangeDriver),
			do.MustInvoke[*task.Registry](i),
			do.MustInvoke[*userService.Service](i),
			do.MustInvoke[*templateService.Service](i),
			do.MustInvoke[*console.Executor](i),
			do.MustInvoke[*system.Stats](i),
			do.MustInvoke[*telegramHandler.Notifier](i),
			do.MustInvoke[*slog.Logger](i),
		), nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		return httpServer.New(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*feedService.Service](i),
			do.MustInvoke[*task.Registry](i),
			do.MustInvoke[*slog.Logger](i),
		), nil
	})

	// Register Bot (needs to be initialized after handlers are ready)
	do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
		cfg := do.MustInvoke[*config.Config](i)
		handler := do.MustInvoke[*telegramHandler.Handler](i)

		opts := []bot.Option{
			bot.WithDefaultHandler(handler.HandleUpdate),
			bot.WithServerURL(cfg.TelegramAPIURL),
		}

		b, err := bot.New(cfg.TelegramBotToken, opts...)
		if err != nil {
			return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
		}

		// Register bot commands
		handler.RegisterCommands(b)

		// The transport needs the bot, which needs the handler first
		do.MustInvoke[*telegramHandler.Publisher](i).SetBot(b)
		do.MustInvoke[*telegramHandler.Notifier](i).SetBot(b)

		return b, nil
	})

	return injector, nil
}

// Shutdown cancels in-flight relays and disconnects the user session.
func Shutdown(injector do.Injector) error {
	if tasks, err := do.Invoke[*task.Registry](injector); err == nil && tasks != nil {
		tasks.CancelAll()
	}

	if client, err := do.Invoke[*mtproto.Client](injector); err == nil && client != nil {
		if err := client.Close(); err != nil {
			return oops.With("context", "failed to close user session").Wrap(err)
		}
	}

	return nil
}

// StartSession connects the user session; the bot cannot fetch posts without it.
func StartSession(ctx context.Context, injector do.Injector) error {
	client, err := do.Invoke[*mtproto.Client](injector)
	if err != nil {
		return err
	}
	return client.Start(ctx)
}
