package domain

import (
	"testing"

	"github.com/reshetovitsme/tg-media-relay/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePostURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want PostReference
	}{
		{"public", "https://t.me/itsSmartDev/547", PostReference{Chat: "itsSmartDev", MessageID: 547}},
		{"query stripped", "https://t.me/itsSmartDev/547?single&x=1", PostReference{Chat: "itsSmartDev", MessageID: 547}},
		{"no scheme", "t.me/itsSmartDev/547", PostReference{Chat: "itsSmartDev", MessageID: 547}},
		{"telegram.me host", "https://telegram.me/itsSmartDev/12", PostReference{Chat: "itsSmartDev", MessageID: 12}},
		{"topic", "https://t.me/somegroup/7/99", PostReference{Chat: "somegroup", MessageID: 99}},
		{"private channel", "https://t.me/c/1234567890/42", PostReference{Chat: "-1001234567890", MessageID: 42}},
		{"private topic", "https://t.me/c/1234567890/3/42", PostReference{Chat: "-1001234567890", MessageID: 42}},
		{"business", "https://t.me/b/shopchat/15", PostReference{Chat: "shopchat", MessageID: 15, Business: true}},
		{"business with query", "https://t.me/b/shopchat/15?comment=1", PostReference{Chat: "shopchat", MessageID: 15, Business: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePostURL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePostURLQueryIsIrrelevant(t *testing.T) {
	a, err := ParsePostURL("https://t.me/chan/547?x=1")
	require.NoError(t, err)
	b, err := ParsePostURL("https://t.me/chan/547")
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestParsePostURLInvalid(t *testing.T) {
	tests := []string{
		"",
		"https://example.com/chan/5",
		"https://t.me/chan",
		"https://t.me/chan/abc",
		"https://t.me/chan/0",
		"https://t.me/chan/-4",
		"https://t.me/b/shopchat",
		"https://t.me/b/shopchat/x",
		"https://t.me/c/notanumber/5",
		"https://t.me/a/b/c/d",
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			_, err := ParsePostURL(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrValidation)
		})
	}
}

func TestPostReferenceHelpers(t *testing.T) {
	ref := PostReference{Chat: "-1001234567890", MessageID: 42}

	id, ok := ref.ChannelID()
	assert.True(t, ok)
	assert.Equal(t, int64(1234567890), id)
	assert.Equal(t, "https://t.me/c/1234567890/43", ref.WithMessageID(43).URL())

	public := PostReference{Chat: "chan", MessageID: 1}
	_, ok = public.ChannelID()
	assert.False(t, ok)
	assert.Equal(t, "https://t.me/chan/1", public.URL())
	assert.True(t, public.SameChat(PostReference{Chat: "CHAN", MessageID: 9}))

	business := PostReference{Chat: "shop", MessageID: 2, Business: true}
	assert.Equal(t, "https://t.me/b/shop/2", business.URL())
}

func TestMessagePredicates(t *testing.T) {
	empty := &Message{Kind: MediaKindNone}
	assert.False(t, empty.HasMedia())
	assert.False(t, empty.HasText())

	text := &Message{Kind: MediaKindNone, Text: Text{Body: "hi"}}
	assert.True(t, text.HasText())

	video := &Message{Kind: MediaKindVideo, GroupID: 77}
	assert.True(t, video.HasMedia())
	assert.True(t, video.InGroup())
	assert.True(t, video.SizeLimited())
	assert.False(t, (&Message{Kind: MediaKindPhoto}).SizeLimited())
}

func TestRepublishVariants(t *testing.T) {
	thumb := ThumbnailHandle{Path: "/tmp/t.jpg", Width: 1280, Height: 720, Origin: ThumbnailOriginGenerated}
	items := []Republish{
		NewPhoto("/p", Text{Body: "c"}),
		NewVideo("/v", Text{}, 30, thumb),
		NewAudio("/a", Text{}, MediaInfo{Duration: 200, Artist: "A", Title: "T"}),
		NewDocument("/d", Text{}),
		NewAnimation("/g", Text{}),
	}
	kinds := []MediaKind{MediaKindPhoto, MediaKindVideo, MediaKindAudio, MediaKindDocument, MediaKindAnimation}

	for i, item := range items {
		assert.Equal(t, kinds[i], item.Kind())
	}

	v := items[1].(Video)
	assert.Equal(t, 1280, v.Width)
	assert.Equal(t, 720, v.Height)
	a := items[2].(Audio)
	assert.Equal(t, "A", a.Performer)
	assert.Equal(t, "T", a.Title)
	assert.Equal(t, "c", items[0].Caption().Body)
}

func TestParseMediaKindNoCase(t *testing.T) {
	k, err := ParseMediaKind("VIDEO")
	require.NoError(t, err)
	assert.Equal(t, MediaKindVideo, k)
	_, err = ParseMediaKind("sticker")
	assert.ErrorIs(t, err, ErrInvalidMediaKind)
}
