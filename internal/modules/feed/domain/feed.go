package domain

// Config describes the relay history feed
type Config struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Limit       int    `json:"limit"`
}

const DefaultLimit = 50

// DefaultConfig is used when nothing else is configured.
func DefaultConfig() Config {
	return Config{
		Title:       "Telegram media relay",
		Description: "Posts relayed by the media relay bot",
		Author:      "tg-media-relay",
		Limit:       DefaultLimit,
	}
}
