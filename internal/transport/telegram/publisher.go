package telegram

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/media/domain"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/progress"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

const (
	MiB = int64(1024 * 1024)

	OfficialUploadLimit = 50 * MiB
	LocalUploadLimit    = 2000 * MiB
)

// BotAPI is the subset of *bot.Bot the transport calls.
type BotAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	DeleteMessage(ctx context.Context, params *bot.DeleteMessageParams) (bool, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	SendVideo(ctx context.Context, params *bot.SendVideoParams) (*models.Message, error)
	SendAudio(ctx context.Context, params *bot.SendAudioParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
	SendAnimation(ctx context.Context, params *bot.SendAnimationParams) (*models.Message, error)
	SendMediaGroup(ctx context.Context, params *bot.SendMediaGroupParams) ([]*models.Message, error)
}

// botRef holds the bot, which is created after the services that use it.
type botRef struct {
	mu  sync.RWMutex
	api BotAPI
}

// SetBot sets the bot instance.
func (r *botRef) SetBot(api BotAPI) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.api = api
}

func (r *botRef) get() (BotAPI, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.api == nil {
		return nil, oops.Errorf("bot is not initialized")
	}
	return r.api, nil
}

// Publisher uploads prepared media through the Bot API.
type Publisher struct {
	botRef
	uploadLimit int64
}

// NewPublisher creates a publisher. Local Bot API servers accept larger uploads.
func NewPublisher(localServer bool) *Publisher {
	limit := OfficialUploadLimit
	if localServer {
		limit = LocalUploadLimit
	}
	return &Publisher{uploadLimit: limit}
}

// UploadLimit is the largest file the Bot API server accepts.
func (p *Publisher) UploadLimit() int64 {
	return p.uploadLimit
}

// SendText sends a text message with its formatting entities.
func (p *Publisher) SendText(ctx context.Context, chatID int64, text domain.Text) error {
	api, err := p.get()
	if err != nil {
		return err
	}
	_, err = api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:   chatID,
		Text:     text.Body,
		Entities: toEntities(text.Entities),
	})
	if err != nil {
		return oops.With("chat_id", chatID).Wrap(err)
	}
	return nil
}

// Send uploads one item with the method matching its kind.
func (p *Publisher) Send(ctx context.Context, chatID int64, item domain.Republish, onProgress progress.Func) error {
	api, err := p.get()
	if err != nil {
		return err
	}

	files := &openFiles{}
	defer files.Close()

	upload, err := files.open(item.LocalPath(), onProgress)
	if err != nil {
		return err
	}
	caption := item.Caption()

	switch v := item.(type) {
	case domain.Photo:
		_, err = api.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:          chatID,
			Photo:           upload,
			Caption:         caption.Body,
			CaptionEntities: toEntities(caption.Entities),
		})
	case domain.Video:
		params := &bot.SendVideoParams{
			ChatID:            chatID,
			Video:             upload,
			Caption:           caption.Body,
			CaptionEntities:   toEntities(caption.Entities),
			Duration:          v.Duration,
			Width:             v.Width,
			Height:            v.Height,
			SupportsStreaming: true,
		}
		if v.Thumbnail.Present() {
			if thumb, err := files.open(v.Thumbnail.Path, nil); err == nil {
				params.Thumbnail = thumb
			}
		}
		_, err = api.SendVideo(ctx, params)
	case domain.Audio:
		_, err = api.SendAudio(ctx, &bot.SendAudioParams{
			ChatID:          chatID,
			Audio:           upload,
			Caption:         caption.Body,
			CaptionEntities: toEntities(caption.Entities),
			Duration:        v.Duration,
			Performer:       v.Performer,
			Title:           v.Title,
		})
	case domain.Animation:
		_, err = api.SendAnimation(ctx, &bot.SendAnimationParams{
			ChatID:          chatID,
			Animation:       upload,
			Caption:         caption.Body,
			CaptionEntities: toEntities(caption.Entities),
		})
	default:
		_, err = api.SendDocument(ctx, &bot.SendDocumentParams{
			ChatID:          chatID,
			Document:        upload,
			Caption:         caption.Body,
			CaptionEntities: toEntities(caption.Entities),
		})
	}
	if err != nil {
		return oops.With("chat_id", chatID, "kind", item.Kind(), "path", item.LocalPath()).Wrap(err)
	}
	return nil
}

// SendGroup uploads items as one album. Animations are sent as videos since
// albums cannot carry them.
func (p *Publisher) SendGroup(ctx context.Context, chatID int64, items []domain.Republish) error {
	api, err := p.get()
	if err != nil {
		return err
	}

	files := &openFiles{}
	defer files.Close()

	media := make([]models.InputMedia, 0, len(items))
	for i, item := range items {
		f, err := files.reader(item.LocalPath())
		if err != nil {
			return err
		}
		attach := fmt.Sprintf("attach://file%d", i)
		caption := item.Caption()

		switch v := item.(type) {
		case domain.Photo:
			media = append(media, &models.InputMediaPhoto{
				Media:           attach,
				Caption:         caption.Body,
				CaptionEntities: toEntities(caption.Entities),
				MediaAttachment: f,
			})
		case domain.Video:
			in := &models.InputMediaVideo{
				Media:             attach,
				Caption:           caption.Body,
				CaptionEntities:   toEntities(caption.Entities),
				Duration:          v.Duration,
				Width:             v.Width,
				Height:            v.Height,
				SupportsStreaming: true,
				MediaAttachment:   f,
			}
			if v.Thumbnail.Present() {
				if thumb, err := files.open(v.Thumbnail.Path, nil); err == nil {
					in.Thumbnail = thumb
				}
			}
			media = append(media, in)
		case domain.Animation:
			media = append(media, &models.InputMediaVideo{
				Media:           attach,
				Caption:         caption.Body,
				CaptionEntities: toEntities(caption.Entities),
				MediaAttachment: f,
			})
		case domain.Audio:
			media = append(media, &models.InputMediaAudio{
				Media:           attach,
				Caption:         caption.Body,
				CaptionEntities: toEntities(caption.Entities),
				Duration:        v.Duration,
				Performer:       v.Performer,
				Title:           v.Title,
				MediaAttachment: f,
			})
		default:
			media = append(media, &models.InputMediaDocument{
				Media:           attach,
				Caption:         caption.Body,
				CaptionEntities: toEntities(caption.Entities),
				MediaAttachment: f,
			})
		}
	}

	if _, err := api.SendMediaGroup(ctx, &bot.SendMediaGroupParams{ChatID: chatID, Media: media}); err != nil {
		return oops.With("chat_id", chatID, "items", len(items)).Wrap(err)
	}
	return nil
}

// openFiles closes every file opened for one request.
type openFiles struct {
	files []*os.File
}

func (o *openFiles) reader(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	o.files = append(o.files, f)
	return f, nil
}

func (o *openFiles) open(path string, onProgress progress.Func) (*models.InputFileUpload, error) {
	f, err := o.reader(path)
	if err != nil {
		return nil, err
	}
	var data io.Reader = f
	if onProgress != nil {
		if info, err := f.Stat(); err == nil {
			data = &progressReader{r: f, total: info.Size(), onProgress: onProgress}
		}
	}
	return &models.InputFileUpload{Filename: filepath.Base(path), Data: data}, nil
}

func (o *openFiles) Close() {
	for _, f := range o.files {
		_ = f.Close()
	}
}

// progressReader reports bytes read so far against the file size.
type progressReader struct {
	r          io.Reader
	done       int64
	total      int64
	onProgress progress.Func
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.done += int64(n)
	p.onProgress(p.done, p.total)
	return n, err
}

func toEntities(entities []domain.Entity) []models.MessageEntity {
	if len(entities) == 0 {
		return nil
	}
	return lo.Map(entities, func(e domain.Entity, _ int) models.MessageEntity {
		out := models.MessageEntity{
			Type:          models.MessageEntityType(e.Type),
			Offset:        e.Offset,
			Length:        e.Length,
			URL:           e.URL,
			Language:      e.Language,
			CustomEmojiID: e.CustomEmojiID,
		}
		if e.UserID != 0 {
			out.User = &models.User{ID: e.UserID}
		}
		return out
	})
}
