package service

import (
	"context"
	"errors"
	"fmt"
	"go-blog-app/internal/auth"
	"go-blog-app/internal/data"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/markdown"
	"go-blog-app/internal/media"
	"net/url"
	"os"
	"time"
)

// Processor normalizes an upload into its stored form.
type Processor interface {
	Process(ctx context.Context, up media.Upload) (*media.Result, error)
}

// FileAuthorizer decides who may read private media and signs media URLs.
type FileAuthorizer interface {
	AuthorizedForFile(c auth.Credential, id, filename string) bool
	SignFile(id, filename string) string
}

var (
	_ Processor      = (*media.Pipeline)(nil)
	_ FileAuthorizer = (*auth.Admin)(nil)
)

// FileInfo is a manifest entry as shown in the file manager.
type FileInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
	// Referenced is true when the article's Markdown links to or embeds the file.
	Referenced bool `json:"referenced"`
}

// UploadResult describes a stored upload.
type UploadResult struct {
	Filename string `json:"filename"`
	Filepath string `json:"filepath"`
	Type     string `json:"type"`
}

// ServedFile is an authorized, open media file. The caller must Close it.
type ServedFile struct {
	*os.File
	Name    string
	Type    string
	ModTime time.Time
	Size    int64
}

// FileServicer defines the media operations of an article.
type FileServicer interface {
	List(ctx context.Context, id string, isAdmin bool) ([]FileInfo, error)
	Upload(ctx context.Context, id string, up media.Upload) (*UploadResult, error)
	Delete(ctx context.Context, id, filename string) error
	Open(ctx context.Context, id, filename string, cred auth.Credential) (*ServedFile, error)
	SignedURL(ctx context.Context, id, filename string) (string, error)
}

// FileService ingests, lists, deletes and serves article media.
type FileService struct {
	stores   Stores
	pipeline Processor
	authz    FileAuthorizer
	log      logger.Logger
}

var _ FileServicer = (*FileService)(nil)

// NewFileService creates a new FileService.
func NewFileService(stores Stores, pipeline Processor, authz FileAuthorizer, log logger.Logger) *FileService {
	return &FileService{stores: stores, pipeline: pipeline, authz: authz, log: log}
}

func (s *FileService) fail(err error, msg, id string) error {
	l := s.log.With(map[string]interface{}{"article": id})
	var svcErr *Error
	if errors.As(err, &svcErr) {
		if svcErr.Kind == KindStorage {
			l.Error(err, msg)
		}
		return err
	}
	l.Error(err, msg)
	return storageError(msg, err)
}

func (s *FileService) article(ctx context.Context, id string) (*data.Article, bool) {
	if validateID(id) != nil {
		return nil, false
	}
	rec, ok := s.stores.Metadata.Load(ctx)[id]
	return rec, ok
}

// List returns the article's manifest, each entry flagged with whether the
// content references it.
func (s *FileService) List(ctx context.Context, id string, isAdmin bool) ([]FileInfo, error) {
	rec, ok := s.article(ctx, id)
	if !ok || (!rec.Public && !isAdmin) {
		return nil, notFound("Article not found")
	}

	refs := map[string]bool{}
	if content, err := s.stores.Content.Read(id); err != nil {
		s.log.With(map[string]interface{}{"article": id}).Warn("Failed to read content for media references: " + err.Error())
	} else {
		refs = markdown.References(content, id)
	}

	entries := s.stores.Media.ReadManifest(id)
	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		files = append(files, FileInfo{Name: e.Name, Type: e.Type, Referenced: refs[e.Name]})
	}
	return files, nil
}

// Upload converts the file to its canonical format, stores it in the
// article's media directory and records it in the manifest. Nothing is
// written unless the conversion succeeded.
func (s *FileService) Upload(ctx context.Context, id string, up media.Upload) (*UploadResult, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if up.BaseName != "" {
		if err := validateBaseName(up.BaseName); err != nil {
			return nil, err
		}
	}
	if len(up.Data) == 0 {
		return nil, validationError("No file uploaded")
	}
	if _, ok := s.article(ctx, id); !ok {
		return nil, notFound("Article not found")
	}

	// The transcode may take minutes; the article lock is only taken once
	// the converted bytes are in memory.
	res, err := s.pipeline.Process(ctx, up)
	if err != nil {
		switch KindOf(err) {
		case KindValidation:
			return nil, validationError(Message(err))
		case KindConversion:
			s.log.With(map[string]interface{}{"article": id, "file": up.OriginalName}).Error(err, "Media conversion failed")
			return nil, &Error{Kind: KindConversion, Message: Message(err), Err: err}
		}
		return nil, s.fail(err, "Failed to process upload", id)
	}
	// A passthrough keeps the uploaded extension, so the final name can
	// still collide with the manifest itself.
	if !safeFileName(res.Filename) {
		return nil, validationError("Invalid filename")
	}

	unlock := s.stores.Locks.Lock(id)
	defer unlock()

	// The article may have been deleted or renamed while converting.
	if _, ok := s.article(ctx, id); !ok {
		return nil, notFound("Article not found")
	}

	entries := s.stores.Media.ReadManifest(id)
	replaced := false
	for i := range entries {
		if entries[i].Name == res.Filename {
			entries[i].Type = res.MimeType
			replaced = true
		}
	}
	if !replaced {
		entries = append(entries, data.ManifestEntry{Name: res.Filename, Type: res.MimeType})
	}

	if err := s.stores.Media.WriteFile(id, res.Filename, res.Data); err != nil {
		return nil, s.fail(err, "Failed to store upload", id)
	}
	if err := s.stores.Media.WriteManifest(id, entries); err != nil {
		if !replaced {
			if rmErr := s.stores.Media.RemoveFile(id, res.Filename); rmErr != nil {
				s.log.Error(rmErr, "Failed to remove unrecorded upload")
			}
		}
		return nil, s.fail(err, "Failed to update manifest", id)
	}

	s.log.Info(fmt.Sprintf("Stored %s for article %s (%s)", res.Filename, id, res.MimeType))
	return &UploadResult{
		Filename: res.Filename,
		Filepath: markdown.FilePath(id, res.Filename),
		Type:     res.MimeType,
	}, nil
}

// Delete removes one media file and its manifest entry.
func (s *FileService) Delete(ctx context.Context, id, filename string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if !safeFileName(filename) {
		return validationError("Invalid filename")
	}

	unlock := s.stores.Locks.Lock(id)
	defer unlock()

	if _, ok := s.article(ctx, id); !ok {
		return notFound("Article not found")
	}

	entries := s.stores.Media.ReadManifest(id)
	kept := make([]data.ManifestEntry, 0, len(entries))
	for _, e := range entries {
		if e.Name != filename {
			kept = append(kept, e)
		}
	}
	listed := len(kept) != len(entries)
	if !listed && !s.stores.Media.Exists(id, filename) {
		return notFound("File not found")
	}

	if err := s.stores.Media.RemoveFile(id, filename); err != nil && !errors.Is(err, os.ErrNotExist) {
		return s.fail(err, "Failed to delete file", id)
	}
	if listed {
		if err := s.stores.Media.WriteManifest(id, kept); err != nil {
			return s.fail(err, "Failed to update manifest", id)
		}
	}

	s.log.Info(fmt.Sprintf("Deleted %s from article %s", filename, id))
	return nil
}

// Open authorizes a media read and opens the file. Public articles need no
// credential. For private articles an unauthorized caller gets the same
// NotFound as for a file that does not exist.
func (s *FileService) Open(ctx context.Context, id, filename string, cred auth.Credential) (*ServedFile, error) {
	if !safeFileName(filename) {
		return nil, validationError("Invalid filename")
	}
	rec, ok := s.article(ctx, id)
	if !ok {
		return nil, notFound("File not found")
	}
	if !rec.Public && !s.authz.AuthorizedForFile(cred, id, filename) {
		return nil, notFound("File not found")
	}

	entry, ok := findEntry(s.stores.Media.ReadManifest(id), filename)
	if !ok {
		return nil, notFound("File not found")
	}

	f, err := s.stores.Media.Open(id, filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, notFound("File not found")
		}
		return nil, s.fail(err, "Failed to open file", id)
	}
	fi, err := f.Stat()
	if err != nil || !fi.Mode().IsRegular() {
		f.Close()
		if err != nil {
			return nil, s.fail(err, "Failed to open file", id)
		}
		return nil, notFound("File not found")
	}

	return &ServedFile{File: f, Name: filename, Type: entry.Type, ModTime: fi.ModTime(), Size: fi.Size()}, nil
}

// SignedURL returns the file's public path with a signature that lets a
// browser load it without the admin header.
func (s *FileService) SignedURL(ctx context.Context, id, filename string) (string, error) {
	if !safeFileName(filename) {
		return "", validationError("Invalid filename")
	}
	if _, ok := s.article(ctx, id); !ok {
		return "", notFound("Article not found")
	}
	if _, ok := findEntry(s.stores.Media.ReadManifest(id), filename); !ok {
		return "", notFound("File not found")
	}
	q := url.Values{"password": {s.authz.SignFile(id, filename)}}
	return markdown.FilePath(id, filename) + "?" + q.Encode(), nil
}

func findEntry(entries []data.ManifestEntry, name string) (data.ManifestEntry, bool) {
	for _, e := range entries {
		if e.Name == name {
			return e, true
		}
	}
	return data.ManifestEntry{}, false
}
