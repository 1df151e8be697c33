//go:build unit

package data

import (
	"context"
	"errors"
	"go-blog-app/internal/logger"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMetadataStore(t *testing.T) (*MetadataStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lib", "metadata.json")
	store, err := NewMetadataStore(path, logger.Nop())
	require.NoError(t, err)
	return store, path
}

func TestMetadataStore_CreatesEmptyDocument(t *testing.T) {
	store, path := setupMetadataStore(t)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))
	assert.Empty(t, store.Load(context.Background()))
}

func TestMetadataStore_SaveAndLoad(t *testing.T) {
	store, _ := setupMetadataStore(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	md := Metadata{
		"hello-world": {Title: "Hello", Public: true, CreatedAt: &now, UpdatedAt: &now, Tags: []string{"go"}},
		"draft":       {Title: "Draft", Tags: []string{}},
	}
	require.NoError(t, store.Save(ctx, md))

	loaded := store.Load(ctx)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Hello", loaded["hello-world"].Title)
	assert.True(t, loaded["hello-world"].CreatedAt.Equal(now))
	assert.Nil(t, loaded["draft"].CreatedAt)
	assert.Equal(t, []string{}, loaded["draft"].Tags)
}

func TestMetadataStore_LoadFailsOpenOnCorruptDocument(t *testing.T) {
	store, path := setupMetadataStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	assert.Empty(t, store.Load(context.Background()))
}

func TestMetadataStore_UpdateRefusesCorruptDocument(t *testing.T) {
	store, path := setupMetadataStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	called := false
	err := store.Update(context.Background(), func(md Metadata) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)

	b, _ := os.ReadFile(path)
	assert.Equal(t, "{not json", string(b), "corrupt document must not be overwritten")
}

func TestMetadataStore_UpdateDiscardsOnError(t *testing.T) {
	store, _ := setupMetadataStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Update(ctx, func(md Metadata) error {
		md["x"] = &Article{Title: "X"}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, store.Load(ctx))
}

func TestArticle_Clone(t *testing.T) {
	now := time.Now()
	a := &Article{Title: "A", CreatedAt: &now, Tags: []string{"x"}}
	c := a.Clone()
	c.Tags[0] = "y"
	*c.CreatedAt = now.Add(time.Hour)

	assert.Equal(t, "x", a.Tags[0])
	assert.True(t, a.CreatedAt.Equal(now))
	assert.True(t, a.Published())
}
