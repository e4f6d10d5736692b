package domain

// Entity is a formatting span over a text, in UTF-16 code units.
type Entity struct {
	Type          string `json:"type"`
	Offset        int    `json:"offset"`
	Length        int    `json:"length"`
	URL           string `json:"url,omitempty"`
	Language      string `json:"language,omitempty"`
	UserID        int64  `json:"user_id,omitempty"`
	CustomEmojiID string `json:"custom_emoji_id,omitempty"`
}

// Text is a message body together with its formatting entities.
type Text struct {
	Body     string   `json:"body"`
	Entities []Entity `json:"entities,omitempty"`
}

// Empty reports whether there is no visible text.
func (t Text) Empty() bool {
	return t.Body == ""
}

// Message is the part of a fetched post the relay pipeline reads.
type Message struct {
	ID        int       `json:"id"`
	Chat      string    `json:"chat"`
	Kind      MediaKind `json:"kind"`
	Caption   Text      `json:"caption"`
	Text      Text      `json:"text"`
	GroupID   int64     `json:"group_id,omitempty"`
	FileSize  int64     `json:"file_size,omitempty"`
	FileName  string    `json:"file_name,omitempty"`
	MimeType  string    `json:"mime_type,omitempty"`
	Duration  int       `json:"duration,omitempty"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	Performer string    `json:"performer,omitempty"`
	Title     string    `json:"title,omitempty"`

	HasThumbnail bool `json:"has_thumbnail,omitempty"`

	// Raw is the platform object the source adapter produced; only that adapter reads it.
	Raw any `json:"-"`
}

// HasMedia reports whether the message carries a downloadable payload.
func (m *Message) HasMedia() bool {
	return m.Kind != "" && m.Kind != MediaKindNone
}

// HasText reports whether the message has a body or caption.
func (m *Message) HasText() bool {
	return !m.Text.Empty() || !m.Caption.Empty()
}

// InGroup reports whether the message belongs to a media group.
func (m *Message) InGroup() bool {
	return m.GroupID != 0
}

// SizeLimited reports whether the file size ceiling applies to this kind of payload.
func (m *Message) SizeLimited() bool {
	switch m.Kind {
	case MediaKindVideo, MediaKindAudio, MediaKindDocument, MediaKindAnimation:
		return true
	default:
		return false
	}
}
