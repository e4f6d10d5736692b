package telegram

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/console"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/system"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/errors"
)

// TemplateWait is how long a bare /template waits for the new template.
const TemplateWait = 60 * time.Second

func (h *Handler) handleStats(ctx context.Context, _ *bot.Bot, update *models.Update) {
	snap, err := h.stats.Snapshot()
	if err != nil {
		h.logger.Warn("Failed to read disk usage", "error", err)
	}
	h.reply(ctx, update.Message.Chat.ID, system.Render(snap))
}

func (h *Handler) handleLogs(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	if _, err := os.Stat(h.cfg.LogFile); err != nil {
		h.reply(ctx, chatID, "Not exists")
		return
	}
	if err := h.notifier.SendFile(ctx, chatID, h.cfg.LogFile, "Logs"); err != nil {
		h.logger.Error("Failed to send logs", "chat_id", chatID, "error", err)
		h.reply(ctx, chatID, errors.UserMessage(err))
	}
}

func (h *Handler) handleTemplate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	text := argText(update.Message.Text)

	switch {
	case strings.EqualFold(text, "save"):
		if err := h.templates.Save(); err != nil {
			h.logger.Error("Failed to save template", "error", err)
			h.reply(ctx, chatID, errors.UserMessage(err))
			return
		}
		h.reply(ctx, chatID, "💾 Template saved to file (persistent).")
	case text != "":
		h.setTemplate(ctx, chatID, text)
	default:
		answers := h.waits.expect(chatID)
		h.reply(ctx, chatID, `Please send your new progress template now.

Placeholders: {bar} {percentage} {current} {total} {speed} {elapsed} {eta} {status_emoji} {status_message}

You can type /cancel to abort.`)
		go h.awaitTemplate(context.WithoutCancel(ctx), chatID, answers)
	}
}

func (h *Handler) awaitTemplate(ctx context.Context, chatID int64, answers <-chan string) {
	timer := time.NewTimer(TemplateWait)
	defer timer.Stop()

	select {
	case text := <-answers:
		if strings.EqualFold(strings.TrimSpace(text), "/cancel") {
			h.reply(ctx, chatID, "❌ Cancelled.")
			return
		}
		h.setTemplate(ctx, chatID, text)
	case <-timer.C:
		h.waits.drop(chatID, answers)
		h.reply(ctx, chatID, "⌛ Timeout: No response received.")
	}
}

func (h *Handler) setTemplate(ctx context.Context, chatID int64, text string) {
	if err := h.templates.Set(text); err != nil {
		h.reply(ctx, chatID, errors.UserMessage(err))
		return
	}
	h.reply(ctx, chatID, "✅ Custom progress template updated (in-memory).")
}

func (h *Handler) handleResetTemplate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	if err := h.templates.Reset(); err != nil {
		h.logger.Error("Failed to reset template", "error", err)
		h.reply(ctx, chatID, errors.UserMessage(err))
		return
	}
	h.reply(ctx, chatID, "🔄 Template reset to default (in-memory and file).")
}

func (h *Handler) handlePing(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	start := time.Now()
	id := h.reply(ctx, chatID, "🏓 Pong!")
	rtt := time.Since(start)
	if id == 0 {
		return
	}
	if err := h.notifier.Edit(ctx, chatID, id, system.RenderPing(rtt, h.stats.Uptime())); err != nil {
		h.logger.Warn("Failed to edit ping reply", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) handleBash(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	chatID := msg.Chat.ID
	cmdline := argText(msg.Text)

	statusID := h.reply(ctx, chatID, "Processing ...")
	defer func() {
		if statusID != 0 {
			_ = h.notifier.Delete(context.WithoutCancel(ctx), chatID, statusID)
		}
	}()

	res, err := h.console.Run(ctx, msg.From.ID, cmdline)
	if err != nil {
		h.reply(ctx, chatID, errors.UserMessage(err))
		return
	}

	out := console.Format(res)
	if console.TooLong(out) {
		plain := "stderr:\n" + res.Stderr + "\n\nstdout:\n" + res.Stdout
		if err := h.notifier.SendData(ctx, chatID, "output.txt", strings.NewReader(plain), console.Caption(res.Command)); err != nil {
			h.logger.Error("Failed to send command output", "error", err)
		}
		return
	}
	h.replyHTML(ctx, chatID, out)
}

func (h *Handler) handleBashHistory(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if !h.users.IsOwner(msg.From.ID) {
		h.reply(ctx, msg.Chat.ID, errors.UserMessage(errors.ErrForbidden))
		return
	}

	out := console.FormatHistory(h.console.History())
	if console.TooLong(out) {
		plain := strings.Join(h.console.History(), "\n")
		if err := h.notifier.SendData(ctx, msg.Chat.ID, "history.txt", strings.NewReader(plain), "Command History"); err != nil {
			h.logger.Error("Failed to send command history", "error", err)
		}
		return
	}
	h.replyHTML(ctx, msg.Chat.ID, out)
}

// waiter routes the next message of a chat to a pending prompt.
type waiter struct {
	mu      sync.Mutex
	pending map[int64]chan string
}

func newWaiter() *waiter {
	return &waiter{pending: make(map[int64]chan string)}
}

// expect registers a prompt for chatID, replacing an older one.
func (w *waiter) expect(chatID int64) chan string {
	ch := make(chan string, 1)
	w.mu.Lock()
	w.pending[chatID] = ch
	w.mu.Unlock()
	return ch
}

// deliver hands text to the prompt of chatID. Reports whether one was waiting.
func (w *waiter) deliver(chatID int64, text string) bool {
	w.mu.Lock()
	ch, ok := w.pending[chatID]
	delete(w.pending, chatID)
	w.mu.Unlock()
	if ok {
		ch <- text
	}
	return ok
}

func (w *waiter) drop(chatID int64, ch <-chan string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if cur, ok := w.pending[chatID]; ok && (<-chan string)(cur) == ch {
		delete(w.pending, chatID)
	}
}
