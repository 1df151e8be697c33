package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go-blog-app/internal/logger"
	"os"
	"path/filepath"
	"sync"
)

// MetadataStore persists every article record in a single JSON document.
// Mutations go through Update, which holds a store-wide lock across the
// whole read-modify-write.
type MetadataStore struct {
	path string
	log  logger.Logger
	mu   sync.Mutex
}

// NewMetadataStore creates the store, writing an empty document if none exists yet.
func NewMetadataStore(path string, log logger.Logger) (*MetadataStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create metadata directory: %w", err)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := writeJSONAtomic(path, Metadata{}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat metadata document: %w", err)
	}
	return &MetadataStore{path: path, log: log}, nil
}

// Load returns every record. A missing or corrupt document yields an empty
// mapping: browsing stays available and the failure is only logged.
func (s *MetadataStore) Load(ctx context.Context) Metadata {
	md, err := s.read()
	if err != nil {
		s.log.With(map[string]interface{}{"path": s.path}).Error(err, "Failed to read metadata, serving empty set")
		return Metadata{}
	}
	return md
}

// Save overwrites the whole document.
func (s *MetadataStore) Save(ctx context.Context, md Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSONAtomic(s.path, md)
}

// Update runs fn against a freshly read document and saves the result if fn
// returns nil. Unlike Load it refuses to work on a corrupt document, since
// saving over it would wipe every record.
func (s *MetadataStore) Update(ctx context.Context, fn func(Metadata) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	md, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(md); err != nil {
		return err
	}
	return writeJSONAtomic(s.path, md)
}

func (s *MetadataStore) read() (Metadata, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Metadata{}, nil
		}
		return nil, fmt.Errorf("failed to read metadata document: %w", err)
	}
	md := Metadata{}
	if err := json.Unmarshal(b, &md); err != nil {
		return nil, fmt.Errorf("failed to parse metadata document: %w", err)
	}
	for id, rec := range md {
		if rec == nil {
			delete(md, id)
			continue
		}
		if rec.Tags == nil {
			rec.Tags = []string{}
		}
	}
	return md, nil
}
