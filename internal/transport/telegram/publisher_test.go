package telegram

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/media/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestUploadLimit(t *testing.T) {
	assert.Equal(t, OfficialUploadLimit, NewPublisher(false).UploadLimit())
	assert.Equal(t, LocalUploadLimit, NewPublisher(true).UploadLimit())
}

func TestSendWithoutBot(t *testing.T) {
	p := NewPublisher(false)
	err := p.SendText(context.Background(), 1, domain.Text{Body: "hi"})
	assert.Error(t, err)
}

func TestSendByKind(t *testing.T) {
	caption := domain.Text{Body: "caption"}
	tests := []struct {
		name   string
		item   func(path string) domain.Republish
		method string
	}{
		{"photo", func(p string) domain.Republish { return domain.NewPhoto(p, caption) }, "sendPhoto"},
		{"document", func(p string) domain.Republish { return domain.NewDocument(p, caption) }, "sendDocument"},
		{"animation", func(p string) domain.Republish { return domain.NewAnimation(p, caption) }, "sendAnimation"},
		{"audio", func(p string) domain.Republish {
			return domain.NewAudio(p, caption, domain.MediaInfo{Duration: 30, Artist: "Artist", Title: "Song"})
		}, "sendAudio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBot()
			p := NewPublisher(false)
			p.SetBot(fb)

			require.NoError(t, p.Send(context.Background(), 1, tt.item(writeFile(t, "payload", "data")), nil))
			assert.Equal(t, []string{tt.method}, fb.methods)
		})
	}
}

func TestSendVideoWithThumbnailAndProgress(t *testing.T) {
	fb := newFakeBot()
	p := NewPublisher(false)
	p.SetBot(fb)

	video := writeFile(t, "video.mp4", "0123456789")
	thumb := domain.ThumbnailHandle{Path: writeFile(t, "thumb.jpg", "jpeg"), Width: 320, Height: 180, Origin: domain.ThumbnailOriginReused}
	item := domain.NewVideo(video, domain.Text{Body: "clip"}, 42, thumb)

	var last [2]int64
	err := p.Send(context.Background(), 1, item, func(done, total int64) { last = [2]int64{done, total} })

	require.NoError(t, err)
	assert.Equal(t, "0123456789", fb.uploads["video"])
	assert.Equal(t, "jpeg", fb.uploads["thumbnail"])
	assert.Equal(t, [2]int64{10, 10}, last)
	assert.Equal(t, 42, fb.video.Duration)
	assert.Equal(t, 320, fb.video.Width)
	assert.True(t, fb.video.SupportsStreaming)
}

func TestSendGroup(t *testing.T) {
	fb := newFakeBot()
	p := NewPublisher(false)
	p.SetBot(fb)

	items := []domain.Republish{
		domain.NewPhoto(writeFile(t, "a.jpg", "a"), domain.Text{Body: "first", Entities: []domain.Entity{{Type: "bold", Offset: 0, Length: 5}}}),
		domain.NewVideo(writeFile(t, "b.mp4", "b"), domain.Text{}, 5, domain.NoThumbnail()),
		domain.NewDocument(writeFile(t, "c.pdf", "c"), domain.Text{}),
	}

	require.NoError(t, p.SendGroup(context.Background(), 7, items))
	require.NotNil(t, fb.group)
	require.Len(t, fb.group.Media, 3)

	photo, ok := fb.group.Media[0].(*models.InputMediaPhoto)
	require.True(t, ok)
	assert.Equal(t, "attach://file0", photo.Media)
	assert.Equal(t, "first", photo.Caption)
	require.Len(t, photo.CaptionEntities, 1)
	assert.Equal(t, models.MessageEntityType("bold"), photo.CaptionEntities[0].Type)

	video, ok := fb.group.Media[1].(*models.InputMediaVideo)
	require.True(t, ok)
	assert.Equal(t, "attach://file1", video.Media)
	assert.Nil(t, video.Thumbnail)

	_, ok = fb.group.Media[2].(*models.InputMediaDocument)
	assert.True(t, ok)
}

func TestSendGroupMissingFile(t *testing.T) {
	fb := newFakeBot()
	p := NewPublisher(false)
	p.SetBot(fb)

	err := p.SendGroup(context.Background(), 7, []domain.Republish{domain.NewPhoto(filepath.Join(t.TempDir(), "gone.jpg"), domain.Text{})})

	assert.Error(t, err)
	assert.Nil(t, fb.group)
}

func TestToEntities(t *testing.T) {
	assert.Nil(t, toEntities(nil))

	out := toEntities([]domain.Entity{{Type: "text_mention", Offset: 1, Length: 2, UserID: 9}})
	require.Len(t, out, 1)
	require.NotNil(t, out[0].User)
	assert.Equal(t, int64(9), out[0].User.ID)
}
