package data

import (
	"errors"
	"fmt"
	"go-blog-app/internal/logger"
	"os"
	"path/filepath"
)

// ManifestFile is the name of the manifest kept inside every media directory.
const ManifestFile = "manifest.json"

// MediaStore owns the per-article media directories and their manifests.
type MediaStore struct {
	root string
	log  logger.Logger
}

// NewMediaStore creates the media root if needed.
func NewMediaStore(root string, log logger.Logger) (*MediaStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	return &MediaStore{root: root, log: log}, nil
}

// Root is the directory holding every article's media directory.
func (s *MediaStore) Root() string {
	return s.root
}

// Dir is the media directory of one article.
func (s *MediaStore) Dir(id string) string {
	return filepath.Join(s.root, id)
}

// FilePath is the on-disk location of one media file.
func (s *MediaStore) FilePath(id, name string) string {
	return filepath.Join(s.root, id, name)
}

// WriteFile stores a fully materialized media file.
func (s *MediaStore) WriteFile(id, name string, b []byte) error {
	if err := os.MkdirAll(s.Dir(id), 0o755); err != nil {
		return fmt.Errorf("failed to create media directory for %s: %w", id, err)
	}
	return writeFileAtomic(s.FilePath(id, name), b, 0o644)
}

// Open opens a media file for reading.
func (s *MediaStore) Open(id, name string) (*os.File, error) {
	return os.Open(s.FilePath(id, name))
}

// Exists reports whether a regular media file is present.
func (s *MediaStore) Exists(id, name string) bool {
	fi, err := os.Stat(s.FilePath(id, name))
	return err == nil && fi.Mode().IsRegular()
}

// RemoveFile deletes one media file.
func (s *MediaStore) RemoveFile(id, name string) error {
	if err := os.Remove(s.FilePath(id, name)); err != nil {
		return fmt.Errorf("failed to remove %s/%s: %w", id, name, err)
	}
	return nil
}

// RemoveDir deletes an article's whole media directory. A missing directory is not an error.
func (s *MediaStore) RemoveDir(id string) error {
	if err := os.RemoveAll(s.Dir(id)); err != nil {
		return fmt.Errorf("failed to remove media directory of %s: %w", id, err)
	}
	return nil
}

// RenameDir moves the media directory of oldID to newID. It reports false
// without error when oldID has no media directory.
func (s *MediaStore) RenameDir(oldID, newID string) (bool, error) {
	if _, err := os.Stat(s.Dir(oldID)); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if _, err := os.Stat(s.Dir(newID)); err == nil {
		return false, fmt.Errorf("media directory for %s already exists", newID)
	}
	if err := os.Rename(s.Dir(oldID), s.Dir(newID)); err != nil {
		return false, fmt.Errorf("failed to rename media directory %s -> %s: %w", oldID, newID, err)
	}
	return true, nil
}

// ListDirs returns the ids of every article that has a media directory.
func (s *MediaStore) ListDirs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list media root: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// ListFiles returns the raw directory listing of an article's media,
// manifest excluded. Read paths use the manifest instead; this is for
// maintenance tooling only.
func (s *MediaStore) ListFiles(id string) ([]string, error) {
	entries, err := os.ReadDir(s.Dir(id))
	if err != nil {
		return nil, fmt.Errorf("failed to list media of %s: %w", id, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && e.Name() != ManifestFile && e.Name()[0] != '.' {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
