package telegram

import (
	"context"
	"io"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// fakeBot records every call made through BotAPI.
type fakeBot struct {
	mu       sync.Mutex
	nextID   int
	texts    []string
	edits    []string
	deleted  []int
	methods  []string
	uploads  map[string]string
	groupErr error
	group    *bot.SendMediaGroupParams
	video    *bot.SendVideoParams
	audio    *bot.SendAudioParams
}

func newFakeBot() *fakeBot {
	return &fakeBot{uploads: make(map[string]string)}
}

func (f *fakeBot) message() *models.Message {
	f.nextID++
	return &models.Message{ID: f.nextID}
}

func (f *fakeBot) read(name string, in models.InputFile) {
	if up, ok := in.(*models.InputFileUpload); ok {
		data, _ := io.ReadAll(up.Data)
		f.uploads[name] = string(data)
	}
}

func (f *fakeBot) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func (f *fakeBot) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, p.Text)
	f.methods = append(f.methods, "sendMessage")
	return f.message(), nil
}

func (f *fakeBot) EditMessageText(_ context.Context, p *bot.EditMessageTextParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, p.Text)
	return &models.Message{ID: p.MessageID}, nil
}

func (f *fakeBot) DeleteMessage(_ context.Context, p *bot.DeleteMessageParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, p.MessageID)
	return true, nil
}

func (f *fakeBot) SendPhoto(_ context.Context, p *bot.SendPhotoParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methods = append(f.methods, "sendPhoto")
	f.read("photo", p.Photo)
	return f.message(), nil
}

func (f *fakeBot) SendVideo(_ context.Context, p *bot.SendVideoParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methods = append(f.methods, "sendVideo")
	f.video = p
	f.read("video", p.Video)
	if p.Thumbnail != nil {
		f.read("thumbnail", p.Thumbnail)
	}
	return f.message(), nil
}

func (f *fakeBot) SendAudio(_ context.Context, p *bot.SendAudioParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methods = append(f.methods, "sendAudio")
	f.audio = p
	f.read("audio", p.Audio)
	return f.message(), nil
}

func (f *fakeBot) SendDocument(_ context.Context, p *bot.SendDocumentParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methods = append(f.methods, "sendDocument")
	f.read("document", p.Document)
	return f.message(), nil
}

func (f *fakeBot) SendAnimation(_ context.Context, p *bot.SendAnimationParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methods = append(f.methods, "sendAnimation")
	f.read("animation", p.Animation)
	return f.message(), nil
}

func (f *fakeBot) SendMediaGroup(_ context.Context, p *bot.SendMediaGroupParams) ([]*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methods = append(f.methods, "sendMediaGroup")
	f.group = p
	if f.groupErr != nil {
		return nil, f.groupErr
	}
	return []*models.Message{f.message()}, nil
}
