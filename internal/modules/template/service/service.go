package service

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/reshetovitsme/tg-media-relay/internal/modules/template/domain"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/template/repository"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/errors"
	"github.com/samber/oops"
)

// Service resolves the active progress template: in-memory override, then the
// persisted file, then the built-in default.
type Service struct {
	repo   repository.Repository
	mu     sync.RWMutex
	memory *string
}

// New creates a new template service
func New(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// Active returns the template every progress render should use right now.
func (s *Service) Active() domain.Config {
	cfg, _ := s.resolve()
	return cfg
}

// Origin reports which tier Active is served from.
func (s *Service) Origin() domain.Origin {
	_, origin := s.resolve()
	return origin
}

func (s *Service) resolve() (domain.Config, domain.Origin) {
	s.mu.RLock()
	memory := s.memory
	s.mu.RUnlock()

	if memory != nil {
		return domain.Config{Text: *memory}, domain.OriginMemory
	}

	text, err := s.repo.Load()
	if err == nil && strings.TrimSpace(text) != "" {
		return domain.Config{Text: text}, domain.OriginFile
	}
	if err != nil && !errors.Is(err, errors.ErrTemplateMissing) {
		slog.Warn("Failed to load progress template, using default", "error", err)
	}
	return domain.DefaultConfig(), domain.OriginDefault
}

// Set replaces the in-memory template.
func (s *Service) Set(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.Validation("Template cannot be empty.")
	}
	if len(text) > domain.MaxLength {
		return errors.Validation("Template is too long (%d characters, max %d).", len(text), domain.MaxLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory = &text
	return nil
}

// Save persists the active template so it survives restarts.
func (s *Service) Save() error {
	cfg := s.Active()
	if err := s.repo.Save(cfg.Text); err != nil {
		return oops.With("context", "failed to save template").Wrap(err)
	}
	return nil
}

// Reset drops the in-memory override and the persisted file.
func (s *Service) Reset() error {
	s.mu.Lock()
	s.memory = nil
	s.mu.Unlock()

	if err := s.repo.Delete(); err != nil {
		return oops.With("context", "failed to reset template").Wrap(err)
	}
	return nil
}
