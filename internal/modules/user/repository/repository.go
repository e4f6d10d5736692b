package repository

import (
	"github.com/reshetovitsme/tg-media-relay/internal/modules/user/domain"
)

// Repository persists the users who have talked to the bot
type Repository interface {
	Save(user *domain.User) error
	Get(userID int64) (*domain.User, error)
	// List returns every user, most recently seen first.
	List() ([]*domain.User, error)
}
