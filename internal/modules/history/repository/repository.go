package repository

import (
	"time"

	"github.com/reshetovitsme/tg-media-relay/internal/modules/history/domain"
)

// Repository defines the interface for relay history persistence
type Repository interface {
	Save(record *domain.Record) error
	Recent(limit int) ([]*domain.Record, error)
	Since(since time.Time) ([]*domain.Record, error)
	Count() (int, error)
}
