package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestPath is the manifest location for an article.
func (s *MediaStore) ManifestPath(id string) string {
	return filepath.Join(s.root, id, ManifestFile)
}

// HasManifest reports whether the article has a manifest on disk.
func (s *MediaStore) HasManifest(id string) bool {
	_, err := os.Stat(s.ManifestPath(id))
	return err == nil
}

// ReadManifest returns the article's media entries in insertion order.
// An absent or unparsable manifest reads as empty.
func (s *MediaStore) ReadManifest(id string) []ManifestEntry {
	b, err := os.ReadFile(s.ManifestPath(id))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.With(map[string]interface{}{"article": id}).Error(err, "Failed to read manifest, treating as empty")
		}
		return []ManifestEntry{}
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		s.log.With(map[string]interface{}{"article": id}).Error(err, "Failed to parse manifest, treating as empty")
		return []ManifestEntry{}
	}
	if entries == nil {
		entries = []ManifestEntry{}
	}
	return entries
}

// WriteManifest overwrites the article's manifest, creating the media directory if absent.
func (s *MediaStore) WriteManifest(id string, entries []ManifestEntry) error {
	if err := os.MkdirAll(s.Dir(id), 0o755); err != nil {
		return fmt.Errorf("failed to create media directory for %s: %w", id, err)
	}
	if entries == nil {
		entries = []ManifestEntry{}
	}
	return writeJSONAtomic(s.ManifestPath(id), entries)
}
