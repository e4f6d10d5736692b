package repository

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/reshetovitsme/tg-media-relay/internal/shared/errors"
	"github.com/samber/oops"
)

const fileName = "progress_template.txt"

// FileStorage implements Repository as a single text file
type FileStorage struct {
	path string
	mu   sync.RWMutex
}

// NewFileStorage creates a file-based template repository under basePath
func NewFileStorage(basePath string) (Repository, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, oops.With("base_path", basePath, "context", "failed to create storage directory").Wrap(err)
	}

	return &FileStorage{path: filepath.Join(basePath, fileName)}, nil
}

func (s *FileStorage) Load() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.ErrTemplateMissing
		}
		return "", oops.With("path", s.path, "context", "failed to read template").Wrap(err)
	}

	return string(data), nil
}

func (s *FileStorage) Save(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(text), 0644); err != nil {
		return oops.With("path", tmp, "context", "failed to write template").Wrap(err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return oops.With("path", s.path, "context", "failed to replace template").Wrap(err)
	}
	return nil
}

func (s *FileStorage) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return oops.With("path", s.path, "context", "failed to delete template").Wrap(err)
	}
	return nil
}
