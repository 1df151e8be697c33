package data

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ContentStore keeps one Markdown document per article id.
type ContentStore struct {
	dir string
}

// NewContentStore creates the pages directory if needed.
func NewContentStore(dir string) (*ContentStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create pages directory: %w", err)
	}
	return &ContentStore{dir: dir}, nil
}

// Path returns the on-disk location of an article's Markdown.
func (s *ContentStore) Path(id string) string {
	return filepath.Join(s.dir, id+".md")
}

// Read returns the article's Markdown. A missing file yields an error
// matching os.ErrNotExist.
func (s *ContentStore) Read(id string) (string, error) {
	b, err := os.ReadFile(s.Path(id))
	if err != nil {
		return "", fmt.Errorf("failed to read content of %s: %w", id, err)
	}
	return string(b), nil
}

// Write replaces the article's Markdown wholesale.
func (s *ContentStore) Write(id, content string) error {
	return writeFileAtomic(s.Path(id), []byte(content), 0o644)
}

// Rename moves the Markdown of oldID to newID. The target must not exist.
func (s *ContentStore) Rename(oldID, newID string) error {
	if _, err := os.Stat(s.Path(newID)); err == nil {
		return fmt.Errorf("content for %s already exists", newID)
	}
	if err := os.Rename(s.Path(oldID), s.Path(newID)); err != nil {
		return fmt.Errorf("failed to rename content %s -> %s: %w", oldID, newID, err)
	}
	return nil
}

// Remove deletes the Markdown. A missing file is not an error.
func (s *ContentStore) Remove(id string) error {
	if err := os.Remove(s.Path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove content of %s: %w", id, err)
	}
	return nil
}
