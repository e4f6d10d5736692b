package service

import (
	"fmt"
	"html"
	"unicode/utf8"

	"github.com/gorilla/feeds"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/feed/domain"
	historyDomain "github.com/reshetovitsme/tg-media-relay/internal/modules/history/domain"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// HistorySource yields relayed posts, newest first
type HistorySource interface {
	Recent(limit int) ([]*historyDomain.Record, error)
}

// Service handles RSS feed generation over relay history
type Service struct {
	history HistorySource
	cfg     domain.Config
}

// New creates a new feed service
func New(history HistorySource, cfg domain.Config) *Service {
	if cfg.Limit <= 0 {
		cfg.Limit = domain.DefaultLimit
	}
	return &Service{
		history: history,
		cfg:     cfg,
	}
}

// GenerateFeed builds the feed of the latest relays
func (s *Service) GenerateFeed(baseURL string) (*feeds.Feed, error) {
	records, err := s.history.Recent(s.cfg.Limit)
	if err != nil {
		return nil, oops.With("context", "failed to get relay history").Wrap(err)
	}

	feed := &feeds.Feed{
		Title:       s.cfg.Title,
		Link:        &feeds.Link{Href: baseURL + "/feed"},
		Description: s.cfg.Description,
		Author:      &feeds.Author{Name: s.cfg.Author},
	}
	if len(records) > 0 {
		feed.Updated = records[0].RelayedAt
		feed.Created = records[len(records)-1].RelayedAt
	}

	feed.Items = lo.Map(records, func(r *historyDomain.Record, _ int) *feeds.Item {
		return recordToFeedItem(r)
	})
	return feed, nil
}

func recordToFeedItem(r *historyDomain.Record) *feeds.Item {
	title := truncate(r.Caption, 100)
	if title == "" {
		title = fmt.Sprintf("%s from %s", r.Kind, r.Chat)
	}

	description := r.Caption
	if description == "" {
		description = "No text content"
	}

	content := fmt.Sprintf("<p>%s</p>", html.EscapeString(description))
	if r.Items > 1 {
		content += fmt.Sprintf("<p><strong>Media group:</strong> %d items</p>", r.Items)
	}

	return &feeds.Item{
		Title:       title,
		Link:        &feeds.Link{Href: r.Link},
		Description: description,
		Content:     content,
		Created:     r.RelayedAt,
		Id:          r.ID,
	}
}

func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
