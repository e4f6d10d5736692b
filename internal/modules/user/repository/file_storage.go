package repository

import (
	"cmp"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/reshetovitsme/tg-media-relay/internal/modules/user/domain"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// FileStorage keeps all users in one JSON index, loaded once and rewritten on save
type FileStorage struct {
	path  string
	mu    sync.RWMutex
	users map[int64]domain.User
}

// NewFileStorage opens (or creates) users.json under basePath
func NewFileStorage(basePath string) (Repository, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, oops.With("base_path", basePath, "context", "failed to create storage directory").Wrap(err)
	}

	s := &FileStorage{
		path:  filepath.Join(basePath, "users.json"),
		users: make(map[int64]domain.User),
	}

	data, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, oops.With("path", s.path, "context", "failed to read users").Wrap(err)
	}

	var stored []domain.User
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, oops.With("path", s.path, "context", "failed to unmarshal users").Wrap(err)
	}
	for _, u := range stored {
		s.users[u.ID] = u
	}
	return s, nil
}

func (s *FileStorage) Save(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.users[user.ID]
	s.users[user.ID] = *user

	if err := s.flush(); err != nil {
		if existed {
			s.users[user.ID] = prev
		} else {
			delete(s.users, user.ID)
		}
		return oops.With("user_id", user.ID).Wrap(err)
	}
	return nil
}

func (s *FileStorage) Get(userID int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, oops.With("user_id", userID).Wrap(errors.ErrUserNotFound)
	}
	return &user, nil
}

func (s *FileStorage) List() ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sorted(), nil
}

func (s *FileStorage) sorted() []*domain.User {
	users := lo.MapToSlice(s.users, func(_ int64, u domain.User) *domain.User { return &u })
	slices.SortFunc(users, func(a, b *domain.User) int {
		if c := b.LastSeen.Compare(a.LastSeen); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return users
}

// flush replaces the index via a temp file and rename.
func (s *FileStorage) flush() error {
	data, err := json.MarshalIndent(lo.Map(s.sorted(), func(u *domain.User, _ int) domain.User { return *u }), "", "  ")
	if err != nil {
		return oops.With("context", "failed to marshal users").Wrap(err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return oops.With("path", tmp).Wrap(err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return oops.With("path", s.path).Wrap(err)
	}
	return nil
}
