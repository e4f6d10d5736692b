package service

import (
	"log/slog"
	"time"

	"github.com/reshetovitsme/tg-media-relay/internal/modules/user/domain"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/user/repository"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/errors"
	"github.com/samber/lo"
)

// Service handles user bookkeeping and the owner allowlist
type Service struct {
	repo         repository.Repository
	ownerID      int64
	allowedUsers []int64
	now          func() time.Time
}

// New creates a new user service
func New(repo repository.Repository, ownerID int64, allowedUsers []int64) *Service {
	return &Service{
		repo:         repo,
		ownerID:      ownerID,
		allowedUsers: allowedUsers,
		now:          time.Now,
	}
}

// Touch records that a user has talked to the bot.
func (s *Service) Touch(id int64, username, firstName string) (*domain.User, error) {
	now := s.now()

	user, err := s.repo.Get(id)
	if err != nil {
		if !errors.Is(err, errors.ErrUserNotFound) {
			return nil, err
		}
		user = &domain.User{ID: id, AddedAt: now}
	}
	user.Username = username
	user.FirstName = firstName
	user.LastSeen = now
	user.IsOwner = s.IsOwner(id)

	if err := s.repo.Save(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Activity counts known users and those seen within window.
func (s *Service) Activity(window time.Duration) (total, active int, err error) {
	users, err := s.repo.List()
	if err != nil {
		return 0, 0, err
	}
	cutoff := s.now().Add(-window)
	active = lo.CountBy(users, func(u *domain.User) bool { return u.LastSeen.After(cutoff) })
	return len(users), active, nil
}

// IsOwner reports whether userID may use owner-only commands.
func (s *Service) IsOwner(userID int64) bool {
	return s.ownerID != 0 && userID == s.ownerID
}

// IsAuthorized checks the owner and the allowlist. With neither configured everyone is allowed.
func (s *Service) IsAuthorized(userID int64) bool {
	if s.ownerID == 0 && len(s.allowedUsers) == 0 {
		return true
	}
	if s.IsOwner(userID) {
		return true
	}
	if lo.Contains(s.allowedUsers, userID) {
		return true
	}

	slog.Debug("Unauthorized user", "user_id", userID)
	return false
}
