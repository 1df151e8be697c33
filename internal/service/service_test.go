//go:build unit

package service

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go-blog-app/internal/auth"
	"go-blog-app/internal/config"
	"go-blog-app/internal/data"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/media"

	"github.com/stretchr/testify/require"
)

const testSecret = "s3cret"

// fakeTranscoder stands in for ffmpeg. PNG targets get a real PNG so the
// stored bytes can be decoded.
type fakeTranscoder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeTranscoder) Transcode(ctx context.Context, in, out string, target media.Format) error {
	f.mu.Lock()
	f.calls++
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if target == media.FormatPNG {
		var buf bytes.Buffer
		if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
			return err
		}
		return os.WriteFile(out, buf.Bytes(), 0o600)
	}
	return os.WriteFile(out, []byte("converted:"+string(target)), 0o600)
}

type testEnv struct {
	articles   *ArticleService
	files      *FileService
	stores     Stores
	meta       *data.MetadataStore
	content    *data.ContentStore
	media      *data.MediaStore
	admin      *auth.Admin
	transcoder *fakeTranscoder
	scratchDir string
	clock      time.Time
}

// tick advances the fake clock by one minute.
func (e *testEnv) tick() time.Time {
	e.clock = e.clock.Add(time.Minute)
	return e.clock
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	storage := config.StorageConfig{DataDir: dir}
	log := logger.Nop()

	meta, err := data.NewMetadataStore(storage.MetadataPath(), log)
	require.NoError(t, err)
	content, err := data.NewContentStore(storage.PagesDir())
	require.NoError(t, err)
	mediaStore, err := data.NewMediaStore(storage.FilesDir(), log)
	require.NoError(t, err)

	scratchDir := filepath.Join(dir, "scratch")
	scratch, err := media.NewScratch(scratchDir)
	require.NoError(t, err)
	ft := &fakeTranscoder{}
	pipeline := media.NewPipeline(ft, scratch, log)

	env := &testEnv{
		meta:       meta,
		content:    content,
		media:      mediaStore,
		admin:      auth.NewAdmin(testSecret),
		transcoder: ft,
		scratchDir: scratchDir,
		clock:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	env.stores = Stores{Metadata: meta, Content: content, Media: mediaStore, Locks: data.NewKeyedMutex()}
	env.articles = NewArticleService(env.stores, config.ListConfig{PageSize: 2, Collation: "ja"}, log)
	env.articles.now = env.tick
	env.files = NewFileService(env.stores, pipeline, env.admin, log)
	return env
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func (e *testEnv) record(t *testing.T, id string) *data.Article {
	t.Helper()
	rec, ok := e.meta.Load(context.Background())[id]
	require.True(t, ok, "article %s should exist", id)
	return rec
}
