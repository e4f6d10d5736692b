package telegram

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samber/oops"
)

// Notifier sends and maintains plain replies in a chat.
type Notifier struct {
	botRef
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

// Reply sends text and returns the new message ID.
func (n *Notifier) Reply(ctx context.Context, chatID int64, text string) (int, error) {
	api, err := n.get()
	if err != nil {
		return 0, err
	}
	msg, err := api.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		return 0, oops.With("chat_id", chatID).Wrap(err)
	}
	return msg.ID, nil
}

// ReplyHTML sends text using HTML parse mode.
func (n *Notifier) ReplyHTML(ctx context.Context, chatID int64, text string) (int, error) {
	api, err := n.get()
	if err != nil {
		return 0, err
	}
	msg, err := api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return 0, oops.With("chat_id", chatID).Wrap(err)
	}
	return msg.ID, nil
}

func (n *Notifier) Edit(ctx context.Context, chatID int64, messageID int, text string) error {
	api, err := n.get()
	if err != nil {
		return err
	}
	_, err = api.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	})
	if err != nil && !strings.Contains(err.Error(), "message is not modified") {
		return oops.With("chat_id", chatID, "message_id", messageID).Wrap(err)
	}
	return nil
}

func (n *Notifier) Delete(ctx context.Context, chatID int64, messageID int) error {
	api, err := n.get()
	if err != nil {
		return err
	}
	if _, err := api.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: messageID}); err != nil {
		return oops.With("chat_id", chatID, "message_id", messageID).Wrap(err)
	}
	return nil
}

// SendFile uploads the file at path as a document.
func (n *Notifier) SendFile(ctx context.Context, chatID int64, path, caption string) error {
	f, err := os.Open(path)
	if err != nil {
		return oops.With("path", path).Wrap(err)
	}
	defer f.Close()
	return n.SendData(ctx, chatID, filepath.Base(path), f, caption)
}

// SendData uploads r as a document named name.
func (n *Notifier) SendData(ctx context.Context, chatID int64, name string, r io.Reader, caption string) error {
	api, err := n.get()
	if err != nil {
		return err
	}
	_, err = api.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:    chatID,
		Document:  &models.InputFileUpload{Filename: name, Data: r},
		Caption:   caption,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return oops.With("chat_id", chatID, "name", name).Wrap(err)
	}
	return nil
}
