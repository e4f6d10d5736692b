package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/reshetovitsme/tg-media-relay/internal/shared/errors"
	"github.com/samber/lo"
)

const channelPrefix = "-100"

var linkHosts = []string{"t.me", "telegram.me", "www.t.me", "www.telegram.me"}

// PostReference addresses a single post by chat and message ID.
type PostReference struct {
	Chat      string `json:"chat"`
	MessageID int    `json:"message_id"`
	Business  bool   `json:"business,omitempty"`
}

// ParsePostURL extracts a PostReference from a public, private (/c/) or business (/b/) post link.
func ParsePostURL(raw string) (PostReference, error) {
	link, _, _ := strings.Cut(strings.TrimSpace(raw), "?")
	link = strings.TrimPrefix(strings.TrimPrefix(link, "https://"), "http://")

	host, path, ok := strings.Cut(link, "/")
	if !ok || !lo.Contains(linkHosts, strings.ToLower(host)) {
		return PostReference{}, errors.Validation("Invalid post link: %s", raw)
	}

	segments := lo.Filter(strings.Split(path, "/"), func(s string, _ int) bool { return s != "" })
	if len(segments) < 2 {
		return PostReference{}, errors.Validation("Invalid post link: %s", raw)
	}

	var ref PostReference
	switch segments[0] {
	case "b":
		// scheme, host, "b", chat, id
		if len(segments) < 3 {
			return PostReference{}, errors.Validation("Invalid business link format")
		}
		ref = PostReference{Chat: segments[1], Business: true}
		return withID(ref, segments[2])
	case "c":
		if len(segments) < 3 || len(segments) > 4 {
			return PostReference{}, errors.Validation("Invalid private post link: %s", raw)
		}
		if _, err := strconv.ParseInt(segments[1], 10, 64); err != nil {
			return PostReference{}, errors.Validation("Invalid private channel ID: %s", segments[1])
		}
		ref = PostReference{Chat: channelPrefix + segments[1]}
	default:
		if len(segments) > 3 {
			return PostReference{}, errors.Validation("Invalid post link: %s", raw)
		}
		ref = PostReference{Chat: strings.TrimPrefix(segments[0], "@")}
	}

	return withID(ref, segments[len(segments)-1])
}

func withID(ref PostReference, raw string) (PostReference, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return PostReference{}, errors.Validation("Invalid message ID: %s", raw)
	}
	ref.MessageID = id
	return ref, nil
}

// ChannelID returns the bare channel ID of a /c/ reference.
func (r PostReference) ChannelID() (int64, bool) {
	if !strings.HasPrefix(r.Chat, channelPrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(r.Chat, channelPrefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// NumericChat returns the chat as a number when it is not a username.
func (r PostReference) NumericChat() (int64, bool) {
	id, err := strconv.ParseInt(r.Chat, 10, 64)
	return id, err == nil
}

// SameChat reports whether both references point into the same chat.
func (r PostReference) SameChat(other PostReference) bool {
	return strings.EqualFold(r.Chat, other.Chat)
}

// WithMessageID returns a copy addressing another message of the same chat.
func (r PostReference) WithMessageID(id int) PostReference {
	r.MessageID = id
	return r
}

// URL renders the reference back into a t.me link.
func (r PostReference) URL() string {
	if r.Business {
		return fmt.Sprintf("https://t.me/b/%s/%d", r.Chat, r.MessageID)
	}
	if id, ok := r.ChannelID(); ok {
		return fmt.Sprintf("https://t.me/c/%d/%d", id, r.MessageID)
	}
	return fmt.Sprintf("https://t.me/%s/%d", r.Chat, r.MessageID)
}

func (r PostReference) String() string {
	return fmt.Sprintf("%s/%d", r.Chat, r.MessageID)
}
