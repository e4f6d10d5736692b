package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/history/domain"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/history/repository"
)

// Service keeps the log of relayed posts
type Service struct {
	repo repository.Repository
	now  func() time.Time
}

// New creates a new history service
func New(repo repository.Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Record stores a relay. Failures are logged only; history never fails a relay.
func (s *Service) Record(ctx context.Context, record domain.Record) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.RelayedAt.IsZero() {
		record.RelayedAt = s.now()
	}

	if err := s.repo.Save(&record); err != nil {
		slog.WarnContext(ctx, "Failed to record relay history", "job_id", record.JobID, "chat", record.Chat, "message_id", record.MessageID, "error", err)
	}
}

// Recent returns the latest records, newest first
func (s *Service) Recent(limit int) ([]*domain.Record, error) {
	return s.repo.Recent(limit)
}

// Since returns records relayed after t
func (s *Service) Since(t time.Time) ([]*domain.Record, error) {
	return s.repo.Since(t)
}

// Count returns the number of relayed posts
func (s *Service) Count() (int, error) {
	return s.repo.Count()
}
