package media

import (
	"fmt"
	"go-blog-app/internal/data"
	"go-blog-app/internal/logger"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MigrationReport summarizes a manifest migration run.
type MigrationReport struct {
	Generated map[string]int // article id -> number of entries written
	Skipped   []string       // articles that already had a manifest or no files
}

// DetectFileType sniffs the MIME type of a file on disk, falling back to its
// extension and finally to application/octet-stream.
func DetectFileType(path string) string {
	if m, err := mimetype.DetectFile(path); err == nil {
		t := m.String()
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = t[:i]
		}
		if t != "application/octet-stream" {
			return t
		}
	}
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = t[:i]
		}
		return t
	}
	return "application/octet-stream"
}

// MigrateManifests writes a manifest for every media directory that lacks
// one, built from the directory listing. With force, existing manifests are
// rebuilt as well.
func MigrateManifests(store *data.MediaStore, log logger.Logger, force bool) (*MigrationReport, error) {
	ids, err := store.ListDirs()
	if err != nil {
		return nil, err
	}

	report := &MigrationReport{Generated: make(map[string]int)}
	for _, id := range ids {
		if store.HasManifest(id) && !force {
			report.Skipped = append(report.Skipped, id)
			continue
		}
		names, err := store.ListFiles(id)
		if err != nil {
			return report, err
		}
		if len(names) == 0 {
			log.Info(fmt.Sprintf("No files to migrate for article: %s", id))
			report.Skipped = append(report.Skipped, id)
			continue
		}

		entries := make([]data.ManifestEntry, 0, len(names))
		for _, name := range names {
			entries = append(entries, data.ManifestEntry{
				Name: name,
				Type: DetectFileType(store.FilePath(id, name)),
			})
		}
		if err := store.WriteManifest(id, entries); err != nil {
			return report, err
		}
		report.Generated[id] = len(entries)
		log.Info(fmt.Sprintf("Generated manifest for article: %s", id))
	}
	return report, nil
}
