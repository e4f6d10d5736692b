package domain

// Republish is an upload ready to be sent to the destination chat.
// The set of implementations is closed: Photo, Video, Audio, Document and Animation.
type Republish interface {
	Kind() MediaKind
	LocalPath() string
	Caption() Text
	sealed()
}

type base struct {
	path    string
	caption Text
}

func (b base) LocalPath() string { return b.path }
func (b base) Caption() Text     { return b.caption }
func (base) sealed()             {}

type Photo struct{ base }

func NewPhoto(path string, caption Text) Photo {
	return Photo{base{path, caption}}
}

func (Photo) Kind() MediaKind { return MediaKindPhoto }

type Video struct {
	base
	Duration  int
	Width     int
	Height    int
	Thumbnail ThumbnailHandle
}

// NewVideo takes its dimensions from the thumbnail, which falls back to 480x320.
func NewVideo(path string, caption Text, duration int, thumb ThumbnailHandle) Video {
	return Video{
		base:      base{path, caption},
		Duration:  duration,
		Width:     thumb.Width,
		Height:    thumb.Height,
		Thumbnail: thumb,
	}
}

func (Video) Kind() MediaKind { return MediaKindVideo }

type Audio struct {
	base
	Duration  int
	Performer string
	Title     string
}

func NewAudio(path string, caption Text, info MediaInfo) Audio {
	return Audio{
		base:      base{path, caption},
		Duration:  info.Duration,
		Performer: info.Artist,
		Title:     info.Title,
	}
}

func (Audio) Kind() MediaKind { return MediaKindAudio }

type Document struct{ base }

func NewDocument(path string, caption Text) Document {
	return Document{base{path, caption}}
}

func (Document) Kind() MediaKind { return MediaKindDocument }

type Animation struct{ base }

func NewAnimation(path string, caption Text) Animation {
	return Animation{base{path, caption}}
}

func (Animation) Kind() MediaKind { return MediaKindAnimation }
