package mtproto

import (
	"math"
	"strconv"
	"strings"

	"github.com/gotd/td/tg"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/media/domain"
	"github.com/samber/lo"
)

// remote is what Download needs to fetch a message payload again.
type remote struct {
	peer  tg.InputPeerClass
	file  tg.InputFileLocationClass
	thumb tg.InputFileLocationClass
}

// toMessage converts a platform message into the pipeline view.
func toMessage(chat string, peer tg.InputPeerClass, m *tg.Message) *domain.Message {
	msg := &domain.Message{
		ID:      m.ID,
		Chat:    chat,
		Kind:    domain.MediaKindNone,
		GroupID: m.GroupedID,
	}
	text := domain.Text{Body: m.Message, Entities: toEntities(m.Entities)}

	rem := &remote{peer: peer}
	switch media := m.Media.(type) {
	case *tg.MessageMediaPhoto:
		if photo, ok := media.Photo.(*tg.Photo); ok {
			applyPhoto(msg, rem, photo)
		}
	case *tg.MessageMediaDocument:
		if doc, ok := media.Document.(*tg.Document); ok {
			applyDocument(msg, rem, doc)
		}
	}

	if msg.HasMedia() {
		msg.Caption = text
	} else {
		msg.Text = text
	}
	msg.Raw = rem
	return msg
}

func applyPhoto(msg *domain.Message, rem *remote, photo *tg.Photo) {
	size, ok := largestPhotoSize(photo.Sizes)
	if !ok {
		return
	}
	msg.Kind = domain.MediaKindPhoto
	msg.Width, msg.Height = size.w, size.h
	msg.FileSize = int64(size.bytes)
	rem.file = &tg.InputPhotoFileLocation{
		ID:            photo.ID,
		AccessHash:    photo.AccessHash,
		FileReference: photo.FileReference,
		ThumbSize:     size.kind,
	}
}

func applyDocument(msg *domain.Message, rem *remote, doc *tg.Document) {
	msg.FileSize = doc.Size
	msg.MimeType = doc.MimeType
	msg.Kind = domain.MediaKindDocument
	rem.file = doc.AsInputDocumentFileLocation()

	var animated, video, audio bool
	for _, attr := range doc.Attributes {
		switch a := attr.(type) {
		case *tg.DocumentAttributeFilename:
			msg.FileName = a.FileName
		case *tg.DocumentAttributeAnimated:
			animated = true
		case *tg.DocumentAttributeVideo:
			video = true
			msg.Duration = seconds(a.Duration)
			msg.Width, msg.Height = a.W, a.H
		case *tg.DocumentAttributeAudio:
			audio = true
			msg.Duration = seconds(a.Duration)
			msg.Performer = a.Performer
			msg.Title = a.Title
		}
	}

	switch {
	case animated:
		msg.Kind = domain.MediaKindAnimation
	case video:
		msg.Kind = domain.MediaKindVideo
	case audio:
		msg.Kind = domain.MediaKindAudio
	}

	if thumb, ok := largestPhotoSize(doc.Thumbs); ok {
		msg.HasThumbnail = true
		rem.thumb = &tg.InputDocumentFileLocation{
			ID:            doc.ID,
			AccessHash:    doc.AccessHash,
			FileReference: doc.FileReference,
			ThumbSize:     thumb.kind,
		}
	}
}

type photoSize struct {
	kind  string
	w, h  int
	bytes int
}

// largestPhotoSize picks the biggest downloadable size. Stripped and path previews are skipped.
func largestPhotoSize(sizes []tg.PhotoSizeClass) (photoSize, bool) {
	candidates := lo.FilterMap(sizes, func(s tg.PhotoSizeClass, _ int) (photoSize, bool) {
		switch v := s.(type) {
		case *tg.PhotoSize:
			return photoSize{kind: v.Type, w: v.W, h: v.H, bytes: v.Size}, true
		case *tg.PhotoSizeProgressive:
			return photoSize{kind: v.Type, w: v.W, h: v.H, bytes: lo.Max(v.Sizes)}, true
		case *tg.PhotoCachedSize:
			return photoSize{kind: v.Type, w: v.W, h: v.H, bytes: len(v.Bytes)}, true
		default:
			return photoSize{}, false
		}
	})
	if len(candidates) == 0 {
		return photoSize{}, false
	}
	return lo.MaxBy(candidates, func(a, b photoSize) bool {
		return a.w*a.h > b.w*b.h
	}), true
}

// seconds rounds attribute durations, which are fractional for video and whole for audio.
func seconds[T int | float64](v T) int {
	return int(math.Round(float64(v)))
}

func toEntities(entities []tg.MessageEntityClass) []domain.Entity {
	return lo.FilterMap(entities, func(e tg.MessageEntityClass, _ int) (domain.Entity, bool) {
		return toEntity(e)
	})
}

func toEntity(e tg.MessageEntityClass) (domain.Entity, bool) {
	out := domain.Entity{Offset: e.GetOffset(), Length: e.GetLength()}
	switch v := e.(type) {
	case *tg.MessageEntityBold:
		out.Type = "bold"
	case *tg.MessageEntityItalic:
		out.Type = "italic"
	case *tg.MessageEntityUnderline:
		out.Type = "underline"
	case *tg.MessageEntityStrike:
		out.Type = "strikethrough"
	case *tg.MessageEntitySpoiler:
		out.Type = "spoiler"
	case *tg.MessageEntityCode:
		out.Type = "code"
	case *tg.MessageEntityPre:
		out.Type = "pre"
		out.Language = v.Language
	case *tg.MessageEntityTextURL:
		out.Type = "text_link"
		out.URL = v.URL
	case *tg.MessageEntityURL:
		out.Type = "url"
	case *tg.MessageEntityMention:
		out.Type = "mention"
	case *tg.MessageEntityMentionName:
		out.Type = "text_mention"
		out.UserID = v.UserID
	case *tg.MessageEntityHashtag:
		out.Type = "hashtag"
	case *tg.MessageEntityCashtag:
		out.Type = "cashtag"
	case *tg.MessageEntityBotCommand:
		out.Type = "bot_command"
	case *tg.MessageEntityEmail:
		out.Type = "email"
	case *tg.MessageEntityPhone:
		out.Type = "phone_number"
	case *tg.MessageEntityBlockquote:
		out.Type = "blockquote"
	case *tg.MessageEntityCustomEmoji:
		out.Type = "custom_emoji"
		out.CustomEmojiID = strconv.FormatInt(v.DocumentID, 10)
	default:
		return domain.Entity{}, false
	}
	return out, true
}

// groupWindow lists the IDs around id where siblings of an album can live.
func groupWindow(id int) []tg.InputMessageClass {
	ids := lo.RangeFrom(max(1, id-9), id+10-max(1, id-9)+1)
	return lo.Map(ids, func(i int, _ int) tg.InputMessageClass {
		return &tg.InputMessageID{ID: i}
	})
}

func peerKey(chat string) string {
	return strings.ToLower(strings.TrimPrefix(chat, "@"))
}
