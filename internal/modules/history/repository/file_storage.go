package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/reshetovitsme/tg-media-relay/internal/modules/history/domain"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// FileStorage implements Repository with one JSON file per record.
// File names start with the zero-padded relay time so directory order is relay order.
type FileStorage struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStorage creates a new file-based history repository
func NewFileStorage(basePath string) (Repository, error) {
	historyPath := filepath.Join(basePath, "history")
	if err := os.MkdirAll(historyPath, 0755); err != nil {
		return nil, oops.With("base_path", basePath, "context", "failed to create history directory").Wrap(err)
	}

	return &FileStorage{basePath: historyPath}, nil
}

func (s *FileStorage) Save(record *domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.basePath, fmt.Sprintf("%020d_%s.json", record.RelayedAt.UnixNano(), record.ID))
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return oops.With("record_id", record.ID, "context", "failed to marshal record").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return oops.With("path", path, "context", "failed to write record").Wrap(err)
	}
	return nil
}

func (s *FileStorage) Recent(limit int) ([]*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names, err := s.names()
	if err != nil {
		return nil, err
	}

	var records []*domain.Record
	for i := len(names) - 1; i >= 0 && len(records) < limit; i-- {
		if record, ok := s.read(names[i]); ok {
			records = append(records, record)
		}
	}

	return records, nil
}

func (s *FileStorage) Since(since time.Time) ([]*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names, err := s.names()
	if err != nil {
		return nil, err
	}

	records := lo.FilterMap(names, func(name string, _ int) (*domain.Record, bool) {
		record, ok := s.read(name)
		return record, ok && record.RelayedAt.After(since)
	})
	return records, nil
}

func (s *FileStorage) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names, err := s.names()
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

func (s *FileStorage) names() ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, oops.With("directory", s.basePath, "context", "failed to read history directory").Wrap(err)
	}

	names := lo.FilterMap(entries, func(entry os.DirEntry, _ int) (string, bool) {
		return entry.Name(), !entry.IsDir() && filepath.Ext(entry.Name()) == ".json"
	})
	sort.Strings(names)
	return names, nil
}

func (s *FileStorage) read(name string) (*domain.Record, bool) {
	data, err := os.ReadFile(filepath.Join(s.basePath, name))
	if err != nil {
		return nil, false
	}

	var record domain.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, false
	}
	return &record, true
}
