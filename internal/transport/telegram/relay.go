package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	batchService "github.com/reshetovitsme/tg-media-relay/internal/modules/batch/service"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/media/domain"
	mediaService "github.com/reshetovitsme/tg-media-relay/internal/modules/media/service"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/task"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/errors"
	"github.com/samber/lo"
)

const linkPrefix = "https://t.me/"

func (h *Handler) handleDownload(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	link := lo.FirstOr(args(msg.Text), "")
	if link == "" && msg.ReplyToMessage != nil {
		link = strings.TrimSpace(msg.ReplyToMessage.Text)
	}
	if link == "" {
		h.reply(ctx, msg.Chat.ID, "Provide a post URL after the /dl command.")
		return
	}
	h.relay(ctx, msg, link)
}

// relay starts one tracked pipeline run for link.
func (h *Handler) relay(ctx context.Context, msg *models.Message, link string) {
	ref, err := domain.ParsePostURL(link)
	if err != nil {
		h.reply(ctx, msg.Chat.ID, errors.UserMessage(err))
		return
	}

	id := task.NewID()
	h.logger.Info("Relay requested", "job_id", id, "user_id", msg.From.ID, "url", ref.URL())
	h.tasks.GoWithID(context.WithoutCancel(ctx), id, func(ctx context.Context) error {
		return h.relayer.Handle(ctx, mediaService.Request{
			JobID:       id,
			ChatID:      msg.Chat.ID,
			Ref:         ref,
			RequestedBy: msg.From.ID,
		})
	})
}

func (h *Handler) handleBatch(ctx context.Context, _ *bot.Bot, update *models.Update) {
	usage := `🚀 Batch Download Process
/bdl start_link end_link

💡 Example:
/bdl https://t.me/mychannel/100 https://t.me/mychannel/120`

	h.runRange(ctx, update.Message, h.batch, usage, "📥 Downloading posts %d–%d…")
}

func (h *Handler) handleRange(ctx context.Context, _ *bot.Bot, update *models.Update) {
	usage := `❌ Usage:
/dlrange <start_link> <end_link>

Example:
/dlrange https://t.me/mychannel/100 https://t.me/mychannel/120`

	h.runRange(ctx, update.Message, h.ranges, usage, "📥 Downloading posts from %d to %d...")
}

// runRange validates both links and drives runner as a tracked task, so /killall stops it.
func (h *Handler) runRange(ctx context.Context, msg *models.Message, runner RangeRunner, usage, started string) {
	chatID := msg.Chat.ID
	links := args(msg.Text)
	if len(links) != 2 || !lo.EveryBy(links, func(l string) bool { return strings.HasPrefix(l, linkPrefix) }) {
		h.reply(ctx, chatID, usage)
		return
	}

	start, err := domain.ParsePostURL(links[0])
	if err != nil {
		h.reply(ctx, chatID, "❌ Error parsing links:\n"+err.Error())
		return
	}
	end, err := domain.ParsePostURL(links[1])
	if err != nil {
		h.reply(ctx, chatID, "❌ Error parsing links:\n"+err.Error())
		return
	}
	if err := batchService.Validate(start, end); err != nil {
		h.reply(ctx, chatID, errors.UserMessage(err))
		return
	}

	h.startRange(ctx, msg, runner, start, end, fmt.Sprintf(started, start.MessageID, end.MessageID))
}

func (h *Handler) startRange(ctx context.Context, msg *models.Message, runner RangeRunner, start, end domain.PostReference, started string) {
	chatID := msg.Chat.ID
	loadingID := h.reply(ctx, chatID, started)

	h.tasks.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		res, err := runner.Run(ctx, start, end, h.dispatch(chatID, msg.From.ID))
		if loadingID != 0 {
			if derr := h.notifier.Delete(context.WithoutCancel(ctx), chatID, loadingID); derr != nil {
				h.logger.Debug("Failed to delete loading message", "chat_id", chatID, "error", derr)
			}
		}

		replyCtx := context.WithoutCancel(ctx)
		switch {
		case errors.IsCancelled(err):
			h.reply(replyCtx, chatID, fmt.Sprintf("❌ Batch canceled after downloading %d posts.", res.Downloaded))
		case err != nil:
			h.reply(replyCtx, chatID, errors.UserMessage(err))
		default:
			h.reply(replyCtx, chatID, BatchSummary(res))
		}
		return err
	})
}

// dispatch relays one post of a range as its own task and waits for it.
func (h *Handler) dispatch(chatID, userID int64) batchService.Dispatch {
	return func(ctx context.Context, ref domain.PostReference, msg *domain.Message) error {
		id := task.NewID()
		handle := h.tasks.GoWithID(ctx, id, func(ctx context.Context) error {
			return h.relayer.HandleMessage(ctx, mediaService.Request{
				JobID:       id,
				ChatID:      chatID,
				Ref:         ref,
				RequestedBy: userID,
			}, msg)
		})
		return handle.Wait(ctx)
	}
}

func (h *Handler) handleKillAll(ctx context.Context, _ *bot.Bot, update *models.Update) {
	n := h.tasks.CancelAll()
	h.reply(ctx, update.Message.Chat.ID, fmt.Sprintf("Cancelled %d running task(s).", n))
}

// BatchSummary renders the final tally of a range job.
func BatchSummary(res domain.BatchResult) string {
	return fmt.Sprintf(`✅ Batch Process Complete!
━━━━━━━━━━━━━━━━━━━
📥 Downloaded : %d post(s)
⏭️ Skipped    : %d (no content)
❌ Failed     : %d error(s)`, res.Downloaded, res.Skipped, res.Failed)
}
