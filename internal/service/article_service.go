package service

import (
	"context"
	"errors"
	"fmt"
	"go-blog-app/internal/config"
	"go-blog-app/internal/data"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/markdown"
	"html"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/microcosm-cc/bluemonday"
)

// MetadataRepository is the whole-document article metadata store.
type MetadataRepository interface {
	Load(ctx context.Context) data.Metadata
	Update(ctx context.Context, fn func(data.Metadata) error) error
}

// ContentRepository stores one Markdown document per article.
type ContentRepository interface {
	Read(id string) (string, error)
	Write(id, content string) error
	Rename(oldID, newID string) error
	Remove(id string) error
}

// MediaRepository stores the per-article media directories and manifests.
type MediaRepository interface {
	ReadManifest(id string) []data.ManifestEntry
	WriteManifest(id string, entries []data.ManifestEntry) error
	WriteFile(id, name string, b []byte) error
	Open(id, name string) (*os.File, error)
	Exists(id, name string) bool
	RemoveFile(id, name string) error
	RemoveDir(id string) error
	RenameDir(oldID, newID string) (bool, error)
}

// Locker serializes mutations per article id.
type Locker interface {
	Lock(key string) func()
	LockAll(keys ...string) func()
}

// Stores bundles the persistence layer shared by the article and file services.
type Stores struct {
	Metadata MetadataRepository
	Content  ContentRepository
	Media    MediaRepository
	Locks    Locker
}

var (
	_ MetadataRepository = (*data.MetadataStore)(nil)
	_ ContentRepository  = (*data.ContentStore)(nil)
	_ MediaRepository    = (*data.MediaStore)(nil)
	_ Locker             = (*data.KeyedMutex)(nil)
)

// ArticleSummary is an article record together with its id.
type ArticleSummary struct {
	ID string `json:"id"`
	data.Article
}

func summarize(id string, rec *data.Article) ArticleSummary {
	return ArticleSummary{ID: id, Article: *rec.Clone()}
}

// ArticleView is a single article as returned to readers.
type ArticleView struct {
	Content string         `json:"content"`
	Meta    ArticleSummary `json:"meta"`
}

// SaveInput is a partial content update. Nil fields are left untouched.
type SaveInput struct {
	Content *string
	Tags    []string
}

// StatusInput is a partial flag update. Nil fields are left untouched.
type StatusInput struct {
	Public *bool `json:"public"`
	Hidden *bool `json:"hidden"`
	Pinned *bool `json:"pinned"`
}

// ArticleServicer defines the article lifecycle operations.
type ArticleServicer interface {
	List(ctx context.Context, q ListQuery) (*ListResult, error)
	Get(ctx context.Context, id string, isAdmin bool) (*ArticleView, error)
	Create(ctx context.Context, id, title string) (*ArticleSummary, error)
	Save(ctx context.Context, id string, in SaveInput) (*ArticleSummary, error)
	SetStatus(ctx context.Context, id string, in StatusInput) (*ArticleSummary, error)
	Rename(ctx context.Context, oldID, newID, title string) (*ArticleSummary, error)
	Delete(ctx context.Context, id string) error
}

// ArticleService keeps metadata, content and media of every article consistent.
type ArticleService struct {
	stores    Stores
	list      config.ListConfig
	sanitizer *bluemonday.Policy
	log       logger.Logger
	now       func() time.Time
}

var _ ArticleServicer = (*ArticleService)(nil)

// NewArticleService creates a new ArticleService.
func NewArticleService(stores Stores, list config.ListConfig, log logger.Logger) *ArticleService {
	return &ArticleService{
		stores: stores,
		list:   list,
		// Titles are plain text; strip any markup the editor lets through.
		sanitizer: bluemonday.StrictPolicy(),
		log:       log,
		now:       time.Now,
	}
}

func (s *ArticleService) cleanTitle(title string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(title)))
}

func (s *ArticleService) stamp() *time.Time {
	t := s.now().UTC()
	return &t
}

// fail logs unexpected failures and makes sure every error leaving the
// service is an *Error.
func (s *ArticleService) fail(err error, msg, id string) error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		if svcErr.Kind == KindStorage {
			s.log.With(map[string]interface{}{"article": id}).Error(err, msg)
		}
		return err
	}
	s.log.With(map[string]interface{}{"article": id}).Error(err, msg)
	return storageError(msg, err)
}

// Get returns an article's content and metadata. Private articles are only
// visible to admins; everyone else gets NotFound.
func (s *ArticleService) Get(ctx context.Context, id string, isAdmin bool) (*ArticleView, error) {
	if validateID(id) != nil {
		return nil, notFound("Article not found")
	}
	rec, ok := s.stores.Metadata.Load(ctx)[id]
	if !ok || (!rec.Public && !isAdmin) {
		return nil, notFound("Article not found")
	}
	content, err := s.stores.Content.Read(id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, notFound("Article not found")
		}
		return nil, s.fail(err, "Failed to read article", id)
	}
	return &ArticleView{Content: content, Meta: summarize(id, rec)}, nil
}

// Create adds a never-published article whose content is a single heading.
func (s *ArticleService) Create(ctx context.Context, id, title string) (*ArticleSummary, error) {
	title = s.cleanTitle(title)
	if err := validateArticle(id, title); err != nil {
		return nil, err
	}

	unlock := s.stores.Locks.Lock(id)
	defer unlock()

	var (
		created *data.Article
		wrote   bool
	)
	err := s.stores.Metadata.Update(ctx, func(md data.Metadata) error {
		if _, exists := md[id]; exists {
			return conflict(fmt.Sprintf("Article '%s' already exists", id))
		}
		if err := s.stores.Content.Write(id, "# "+title+"\n"); err != nil {
			return storageError("Failed to create article", err)
		}
		wrote = true
		created = &data.Article{Title: title, Tags: []string{}}
		md[id] = created
		return nil
	})
	if err != nil {
		if wrote {
			if rmErr := s.stores.Content.Remove(id); rmErr != nil {
				s.log.Error(rmErr, "Failed to remove content of unsaved article "+id)
			}
		}
		return nil, s.fail(err, "Failed to create article", id)
	}

	s.log.Info(fmt.Sprintf("Created article %s", id))
	sum := summarize(id, created)
	return &sum, nil
}

// Save overwrites content and/or tags. Published articles get a new
// updatedAt, even when the save carries neither.
func (s *ArticleService) Save(ctx context.Context, id string, in SaveInput) (*ArticleSummary, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	unlock := s.stores.Locks.Lock(id)
	defer unlock()

	var saved ArticleSummary
	err := s.stores.Metadata.Update(ctx, func(md data.Metadata) error {
		rec, ok := md[id]
		if !ok {
			return notFound("Article not found")
		}
		if in.Content != nil {
			if err := s.stores.Content.Write(id, *in.Content); err != nil {
				return storageError("Failed to save article", err)
			}
		}
		if in.Tags != nil {
			rec.Tags = normalizeTags(in.Tags, s.list.Collation)
		}
		if rec.Public {
			rec.UpdatedAt = s.stamp()
		}
		saved = summarize(id, rec)
		return nil
	})
	if err != nil {
		return nil, s.fail(err, "Failed to save article", id)
	}
	return &saved, nil
}

// SetStatus applies public/hidden/pinned flags. The first transition to
// public stamps createdAt and updatedAt; later changes to a public article
// stamp updatedAt only; nothing is stamped while the article is private.
func (s *ArticleService) SetStatus(ctx context.Context, id string, in StatusInput) (*ArticleSummary, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if in.Public == nil && in.Hidden == nil && in.Pinned == nil {
		return nil, validationError("Nothing to update: public, hidden or pinned required")
	}

	unlock := s.stores.Locks.Lock(id)
	defer unlock()

	var updated ArticleSummary
	err := s.stores.Metadata.Update(ctx, func(md data.Metadata) error {
		rec, ok := md[id]
		if !ok {
			return notFound("Article not found")
		}
		if in.Public != nil {
			rec.Public = *in.Public
		}
		if in.Hidden != nil {
			rec.Hidden = *in.Hidden
		}
		if in.Pinned != nil {
			rec.Pinned = *in.Pinned
		}

		switch {
		case rec.Public && rec.CreatedAt == nil:
			now := s.stamp()
			rec.CreatedAt = now
			rec.UpdatedAt = now
			s.log.Info(fmt.Sprintf("Article %s published for the first time", id))
		case rec.Public:
			rec.UpdatedAt = s.stamp()
		}
		updated = summarize(id, rec)
		return nil
	})
	if err != nil {
		return nil, s.fail(err, "Failed to update article status", id)
	}
	return &updated, nil
}

// Rename moves an article to a new id and title. Content, media directory
// and metadata move together; media links inside the content are pointed
// at the new id. On any failure every completed step is undone.
func (s *ArticleService) Rename(ctx context.Context, oldID, newID, title string) (*ArticleSummary, error) {
	title = s.cleanTitle(title)
	if err := validateID(oldID); err != nil {
		return nil, err
	}
	if err := validateArticle(newID, title); err != nil {
		return nil, err
	}

	unlock := s.stores.Locks.LockAll(oldID, newID)
	defer unlock()

	var (
		op      *renameOp
		renamed ArticleSummary
	)
	err := s.stores.Metadata.Update(ctx, func(md data.Metadata) error {
		rec, ok := md[oldID]
		if !ok {
			return notFound("Article not found")
		}
		if newID != oldID {
			if _, taken := md[newID]; taken {
				return conflict(fmt.Sprintf("Article '%s' already exists", newID))
			}
			op = &renameOp{stores: s.stores, log: s.log, oldID: oldID, newID: newID}
			if err := op.run(); err != nil {
				return err
			}
			delete(md, oldID)
			md[newID] = rec
		}
		rec.Title = title
		if rec.Published() {
			rec.UpdatedAt = s.stamp()
		}
		renamed = summarize(newID, rec)
		return nil
	})
	if err != nil {
		if op != nil && op.done {
			// The moves succeeded but the metadata could not be saved.
			op.rollback()
		}
		return nil, s.fail(err, "Failed to rename article", oldID)
	}

	if newID != oldID {
		s.log.Info(fmt.Sprintf("Renamed article %s -> %s", oldID, newID))
	}
	return &renamed, nil
}

// renameOp moves content and media of one article and remembers what it
// did so it can be undone.
type renameOp struct {
	stores       Stores
	log          logger.Logger
	oldID        string
	newID        string
	contentMoved bool
	mediaMoved   bool
	original     *string
	done         bool
}

func (op *renameOp) run() error {
	if err := op.stores.Content.Rename(op.oldID, op.newID); err != nil {
		return storageError("Failed to move article content", err)
	}
	op.contentMoved = true

	moved, err := op.stores.Media.RenameDir(op.oldID, op.newID)
	if err != nil {
		op.rollback()
		return storageError("Failed to move article media", err)
	}
	op.mediaMoved = moved

	src, err := op.stores.Content.Read(op.newID)
	if err != nil {
		op.rollback()
		return storageError("Failed to read article content", err)
	}
	if out := markdown.RewriteArticleID(src, op.oldID, op.newID); out != src {
		if err := op.stores.Content.Write(op.newID, out); err != nil {
			op.rollback()
			return storageError("Failed to update media links", err)
		}
		op.original = &src
	}
	op.done = true
	return nil
}

func (op *renameOp) rollback() {
	var result *multierror.Error
	if op.original != nil {
		if err := op.stores.Content.Write(op.newID, *op.original); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if op.mediaMoved {
		if _, err := op.stores.Media.RenameDir(op.newID, op.oldID); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if op.contentMoved {
		if err := op.stores.Content.Rename(op.newID, op.oldID); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		op.log.Error(err, fmt.Sprintf("Failed to roll back rename %s -> %s", op.oldID, op.newID))
	}
}

// Delete removes the metadata record, then the content and media directory.
// Content or media that is already gone is not an error.
func (s *ArticleService) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	unlock := s.stores.Locks.Lock(id)
	defer unlock()

	err := s.stores.Metadata.Update(ctx, func(md data.Metadata) error {
		if _, ok := md[id]; !ok {
			return notFound("Article not found")
		}
		delete(md, id)
		return nil
	})
	if err != nil {
		return s.fail(err, "Failed to delete article", id)
	}

	var result *multierror.Error
	if err := s.stores.Content.Remove(id); err != nil {
		result = multierror.Append(result, err)
	}
	if err := s.stores.Media.RemoveDir(id); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		return s.fail(err, "Failed to delete article files", id)
	}

	s.log.Info(fmt.Sprintf("Deleted article %s", id))
	return nil
}
