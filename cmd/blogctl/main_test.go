//go:build integration

package main

import (
	"bytes"
	"go-blog-app/internal/auth"
	"go-blog-app/internal/config"
	"go-blog-app/internal/data"
	"go-blog-app/internal/logger"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSignURL(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BLOG_ADMIN_PASSWORD", "s3cret")

	out, err := run(t, "sign-url", "post", "cover.png", "--base-url", "https://blog.example.com/")
	require.NoError(t, err)

	want := "https://blog.example.com/files/post/cover.png?password=" + auth.NewAdmin("s3cret").SignFile("post", "cover.png") + "\n"
	assert.Equal(t, want, out)
}

func TestSignURL_RequiresPassword(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BLOG_ADMIN_PASSWORD", "")

	_, err := run(t, "sign-url", "post", "cover.png")
	assert.ErrorContains(t, err, "admin.password")
}

func TestMigrateManifests(t *testing.T) {
	t.Chdir(t.TempDir())
	dataDir := t.TempDir()
	filesDir := config.StorageConfig{DataDir: dataDir}.FilesDir()
	require.NoError(t, os.MkdirAll(filepath.Join(filesDir, "post"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(filesDir, "post", "notes.txt"), []byte("hello"), 0o644))

	out, err := run(t, "migrate-manifests", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "post: 1 file(s)")

	store, err := data.NewMediaStore(filesDir, logger.Nop())
	require.NoError(t, err)
	entries := store.ReadManifest("post")
	require.Len(t, entries, 1)
	assert.Equal(t, "notes.txt", entries[0].Name)
	assert.Equal(t, "text/plain", entries[0].Type)

	out, err = run(t, "migrate-manifests", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Generated 0 manifest(s), skipped 1.")
}

func TestPruneCache(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("BLOG_CACHE_FILEPATH", filepath.Join(dir, "state.db"))
	t.Setenv("BLOG_MEDIA_SCRATCHDIR", filepath.Join(dir, "scratch"))

	out, err := run(t, "prune-cache")
	require.NoError(t, err)
	assert.Equal(t, "Nothing to prune.\n", out)
}
