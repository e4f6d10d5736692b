package telegram

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	batchService "github.com/reshetovitsme/tg-media-relay/internal/modules/batch/service"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/console"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/media/domain"
	mediaService "github.com/reshetovitsme/tg-media-relay/internal/modules/media/service"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/system"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/task"
	templateService "github.com/reshetovitsme/tg-media-relay/internal/modules/template/service"
	userService "github.com/reshetovitsme/tg-media-relay/internal/modules/user/service"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/config"
)

// Relayer runs the fetch-and-republish pipeline.
type Relayer interface {
	Handle(ctx context.Context, req mediaService.Request) error
	HandleMessage(ctx context.Context, req mediaService.Request, msg *domain.Message) error
}

// RangeRunner walks a message ID range.
type RangeRunner interface {
	Run(ctx context.Context, start, end domain.PostReference, dispatch batchService.Dispatch) (domain.BatchResult, error)
}

// Handler handles Telegram bot interactions
type Handler struct {
	cfg       *config.Config
	relayer   Relayer
	batch     RangeRunner
	ranges    RangeRunner
	tasks     *task.Registry
	users     *userService.Service
	templates *templateService.Service
	console   *console.Executor
	stats     *system.Stats
	notifier  *Notifier
	waits     *waiter
	logger    *slog.Logger
}

// New creates a new Telegram handler
func New(
	cfg *config.Config,
	relayer Relayer,
	batch RangeRunner,
	ranges RangeRunner,
	tasks *task.Registry,
	users *userService.Service,
	templates *templateService.Service,
	console *console.Executor,
	stats *system.Stats,
	notifier *Notifier,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		cfg:       cfg,
		relayer:   relayer,
		batch:     batch,
		ranges:    ranges,
		tasks:     tasks,
		users:     users,
		templates: templates,
		console:   console,
		stats:     stats,
		notifier:  notifier,
		waits:     newWaiter(),
		logger:    logger,
	}
}

// RegisterCommands registers bot commands
func (h *Handler) RegisterCommands(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.guard(h.handleStart))
	b.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, h.guard(h.handleHelp))
	b.RegisterHandler(bot.HandlerTypeMessageText, "dl", bot.MatchTypeCommand, h.guard(h.handleDownload))
	b.RegisterHandler(bot.HandlerTypeMessageText, "bdl", bot.MatchTypeCommand, h.guard(h.handleBatch))
	b.RegisterHandler(bot.HandlerTypeMessageText, "dlrange", bot.MatchTypeCommand, h.guard(h.handleRange))
	b.RegisterHandler(bot.HandlerTypeMessageText, "killall", bot.MatchTypeCommand, h.guard(h.handleKillAll))
	b.RegisterHandler(bot.HandlerTypeMessageText, "stats", bot.MatchTypeCommand, h.guard(h.handleStats))
	b.RegisterHandler(bot.HandlerTypeMessageText, "logs", bot.MatchTypeCommand, h.guard(h.handleLogs))
	b.RegisterHandler(bot.HandlerTypeMessageText, "template", bot.MatchTypeCommand, h.guard(h.handleTemplate))
	b.RegisterHandler(bot.HandlerTypeMessageText, "retemp", bot.MatchTypeCommand, h.guard(h.handleResetTemplate))
	b.RegisterHandler(bot.HandlerTypeMessageText, "ping", bot.MatchTypeCommand, h.guard(h.handlePing))
	b.RegisterHandler(bot.HandlerTypeMessageText, "bash", bot.MatchTypeCommand, h.guard(h.handleBash))
	b.RegisterHandler(bot.HandlerTypeMessageText, "bhis", bot.MatchTypeCommand, h.guard(h.handleBashHistory))
}

// HandleUpdate is the default handler: answers to a pending /template prompt,
// otherwise plain post links.
func (h *Handler) HandleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}
	if h.waits.deliver(msg.Chat.ID, msg.Text) {
		return
	}
	if strings.HasPrefix(msg.Text, "/") {
		return
	}
	h.guard(func(ctx context.Context, _ *bot.Bot, update *models.Update) {
		h.relay(ctx, update.Message, strings.TrimSpace(update.Message.Text))
	})(ctx, b, update)
}

// guard drops updates without a sender and rejects users outside the allowlist.
func (h *Handler) guard(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		msg := update.Message
		if msg == nil || msg.From == nil {
			return
		}
		if !h.users.IsAuthorized(msg.From.ID) {
			h.reply(ctx, msg.Chat.ID, "❌ You are not authorized to use this bot.")
			return
		}
		if _, err := h.users.Touch(msg.From.ID, msg.From.Username, msg.From.FirstName); err != nil {
			h.logger.Warn("Failed to save user", "user_id", msg.From.ID, "error", err)
		}
		next(ctx, b, update)
	}
}

func (h *Handler) handleStart(ctx context.Context, _ *bot.Bot, update *models.Update) {
	text := `👋 Welcome to Media Relay Bot!

I can grab photos, videos, audio, and documents from any Telegram post.
Just send me a link (paste it directly or use /dl <link>),
or reply to a message with /dl.

ℹ️ Use /help to view all commands and examples.
🔒 Make sure the user client is part of the chat.

Ready? Send me a Telegram post link!`

	h.reply(ctx, update.Message.Chat.ID, text)
}

func (h *Handler) handleHelp(ctx context.Context, _ *bot.Bot, update *models.Update) {
	text := `💡 Media Relay Bot Help

➤ Download Media
   – Send /dl <post_URL> or just paste a Telegram post link to fetch photos, videos, audio, or documents.

➤ Batch Download
   – Send /bdl start_link end_link to grab a series of posts in one go.
     💡 Example: /bdl https://t.me/mychannel/100 https://t.me/mychannel/120
   – /dlrange start_link end_link does the same with a shorter pause between posts.

➤ Requirements
   – Make sure the user client is part of the chat.

➤ If the bot hangs
   – Send /killall to cancel any pending downloads.

➤ Progress template
   – /template to set one, /template save to persist it, /retemp to reset.

➤ Logs and status
   – /logs, /stats, /ping

Example:
  • /dl https://t.me/durov/1
  • https://t.me/durov/1`

	h.reply(ctx, update.Message.Chat.ID, text)
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) int {
	id, err := h.notifier.Reply(ctx, chatID, text)
	if err != nil {
		h.logger.Error("Failed to send message", "chat_id", chatID, "error", err)
	}
	return id
}

func (h *Handler) replyHTML(ctx context.Context, chatID int64, text string) {
	if _, err := h.notifier.ReplyHTML(ctx, chatID, text); err != nil {
		h.logger.Error("Failed to send message", "chat_id", chatID, "error", err)
	}
}

// args returns the words after the command.
func args(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields[1:]
}

// argText returns everything after the command, keeping inner whitespace.
func argText(text string) string {
	_, rest, _ := strings.Cut(strings.TrimSpace(text), " ")
	return strings.TrimSpace(rest)
}
