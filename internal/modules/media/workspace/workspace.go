package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/samber/oops"
)

var unsafeName = regexp.MustCompile(`[^\w.\-]+`)

// Workspace hands out job-scoped temp paths for payloads and thumbnails.
type Workspace struct {
	downloadDir string
	thumbDir    string
}

// New creates the download and thumbnail roots.
func New(downloadDir, thumbDir string) (*Workspace, error) {
	for _, dir := range []string{downloadDir, thumbDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, oops.With("dir", dir, "context", "failed to create workspace directory").Wrap(err)
		}
	}
	return &Workspace{downloadDir: downloadDir, thumbDir: thumbDir}, nil
}

// PayloadPath returns <download_dir>/<jobID>/<messageID>_<name>, creating the job directory.
func (w *Workspace) PayloadPath(jobID string, messageID int, name string) (string, error) {
	dir := filepath.Join(w.downloadDir, jobID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", oops.With("dir", dir, "job_id", jobID).Wrap(err)
	}
	return filepath.Join(dir, fmt.Sprintf("%d_%s", messageID, SanitizeName(name))), nil
}

// JobDir is the directory holding a job's payloads.
func (w *Workspace) JobDir(jobID string) string {
	return filepath.Join(w.downloadDir, jobID)
}

// ThumbPath returns <thumb_dir>/<jobID>-<messageID>-<origin>.jpg.
func (w *Workspace) ThumbPath(jobID string, messageID int, origin string) string {
	return filepath.Join(w.thumbDir, fmt.Sprintf("%s-%d-%s.jpg", jobID, messageID, origin))
}

// SanitizeName keeps a file name safe to join under the workspace.
func SanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = unsafeName.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." || name == "_" {
		return "file"
	}
	return name
}

// Remove deletes path; a path that is already gone is not an error.
func Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return oops.With("path", path).Wrap(err)
	}
	return nil
}

// Exists reports whether path names an existing file.
func Exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Scope collects temp paths and deletes each of them exactly once on Release.
type Scope struct {
	mu       sync.Mutex
	paths    []string
	seen     map[string]bool
	released map[string]bool
	dirs     []string
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{seen: make(map[string]bool), released: make(map[string]bool)}
}

// Track registers path for deletion. Empty and duplicate paths are ignored.
func (s *Scope) Track(path string) {
	if path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[path] {
		return
	}
	s.seen[path] = true
	s.paths = append(s.paths, path)
}

// TrackDir registers an empty-on-release directory (the job dir).
func (s *Scope) TrackDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirs = append(s.dirs, dir)
}

// Paths returns the tracked file paths in registration order.
func (s *Scope) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Release deletes every tracked path not yet deleted and returns the paths removed
// in this call. Calling it again is a no-op.
func (s *Scope) Release() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for _, p := range s.paths {
		if s.released[p] {
			continue
		}
		s.released[p] = true
		if err := Remove(p); err == nil {
			removed = append(removed, p)
		}
	}
	for _, d := range s.dirs {
		// only succeeds when empty
		_ = os.Remove(d)
	}
	s.dirs = nil
	return removed
}
