//go:build unit

package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"go-blog-app/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTranscoder writes a marker payload to the output path instead of running ffmpeg.
type fakeTranscoder struct {
	mu      sync.Mutex
	calls   []Format
	err     error
	ctxErrs []error
	inputs  []string
}

func (f *fakeTranscoder) Transcode(ctx context.Context, in, out string, target Format) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, target)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	f.inputs = append(f.inputs, in)
	if _, err := os.Stat(in); err != nil {
		return err
	}
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(out, []byte("converted:"+string(target)), 0o600)
}

type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func (m *memCache) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[key], nil
}

func (m *memCache) Set(key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func setupPipeline(t *testing.T, opts ...Option) (*Pipeline, *fakeTranscoder, string) {
	t.Helper()
	dir := t.TempDir()
	scratch, err := NewScratch(dir)
	require.NoError(t, err)
	ft := &fakeTranscoder{}
	return NewPipeline(ft, scratch, logger.Nop(), opts...), ft, dir
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func assertScratchEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch files must be cleaned up")
}

var tokenName = regexp.MustCompile(`^[0-9a-f]{16}\.`)

func TestProcess_JPEGBecomesPNG(t *testing.T) {
	p, ft, _ := setupPipeline(t)

	res, err := p.Process(context.Background(), Upload{
		OriginalName: "photo.JPG",
		MimeType:     "image/jpeg",
		Data:         jpegBytes(t),
		BaseName:     "cover",
	})
	require.NoError(t, err)

	assert.Equal(t, "cover.png", res.Filename)
	assert.Equal(t, "image/png", res.MimeType)
	_, err = png.Decode(bytes.NewReader(res.Data))
	assert.NoError(t, err, "output must be valid PNG")
	assert.Empty(t, ft.calls, "decodable images never reach the transcoder")
}

func TestProcess_AnimatedFormatsPassThrough(t *testing.T) {
	for _, tc := range []struct{ mime, name string }{
		{"image/gif", "loop.gif"},
		{"image/apng", "loop.APNG"},
	} {
		t.Run(tc.mime, func(t *testing.T) {
			p, ft, _ := setupPipeline(t)
			raw := []byte("GIF89a-not-really")

			res, err := p.Process(context.Background(), Upload{OriginalName: tc.name, MimeType: tc.mime, Data: raw})
			require.NoError(t, err)

			assert.Equal(t, raw, res.Data)
			assert.Equal(t, tc.mime, res.MimeType)
			assert.Regexp(t, tokenName, res.Filename)
			assert.Empty(t, ft.calls)
		})
	}
	t.Run("extension is lowercased", func(t *testing.T) {
		p, _, _ := setupPipeline(t)
		res, err := p.Process(context.Background(), Upload{OriginalName: "loop.APNG", MimeType: "image/apng", Data: []byte("x"), BaseName: "loop"})
		require.NoError(t, err)
		assert.Equal(t, "loop.apng", res.Filename)
	})
}

func TestProcess_VideoAndAudio(t *testing.T) {
	testCases := []struct {
		mime     string
		wantExt  string
		wantType string
		target   Format
	}{
		{"video/quicktime", ".mp4", "video/mp4", FormatMP4},
		{"video/webm", ".mp4", "video/mp4", FormatMP4},
		{"audio/wav", ".mp3", "audio/mpeg", FormatMP3},
		{"audio/mpeg", ".mp3", "audio/mpeg", FormatMP3},
	}
	for _, tc := range testCases {
		t.Run(tc.mime, func(t *testing.T) {
			p, ft, dir := setupPipeline(t)

			res, err := p.Process(context.Background(), Upload{OriginalName: "clip.mov", MimeType: tc.mime, Data: []byte("raw"), BaseName: "clip"})
			require.NoError(t, err)

			assert.Equal(t, "clip"+tc.wantExt, res.Filename)
			assert.Equal(t, tc.wantType, res.MimeType)
			assert.Equal(t, []byte("converted:"+string(tc.target)), res.Data)
			assert.Equal(t, []Format{tc.target}, ft.calls)
			assertScratchEmpty(t, dir)
		})
	}
}

func TestProcess_UndecodableImageUsesTranscoder(t *testing.T) {
	p, ft, dir := setupPipeline(t)

	res, err := p.Process(context.Background(), Upload{OriginalName: "IMG_0001.HEIC", MimeType: "image/heic", Data: []byte("ftypheic"), BaseName: "cover"})
	require.NoError(t, err)

	assert.Equal(t, "cover.png", res.Filename)
	assert.Equal(t, "image/png", res.MimeType)
	assert.Equal(t, []Format{FormatPNG}, ft.calls)
	assert.Contains(t, ft.inputs[0], ".heic")
	assertScratchEmpty(t, dir)
}

func TestProcess_InvalidBaseNameFailsBeforeWork(t *testing.T) {
	for _, name := range []string{"../etc", "has space", "dot.name", "ünicode"} {
		t.Run(name, func(t *testing.T) {
			p, ft, dir := setupPipeline(t)

			_, err := p.Process(context.Background(), Upload{OriginalName: "a.mp4", MimeType: "video/mp4", Data: []byte("x"), BaseName: name})
			require.ErrorIs(t, err, ErrInvalidName)
			assert.Empty(t, ft.calls)
			assertScratchEmpty(t, dir)
		})
	}
}

func TestProcess_TranscoderFailure(t *testing.T) {
	p, ft, dir := setupPipeline(t)
	ft.err = errors.New("exit status 1")

	_, err := p.Process(context.Background(), Upload{OriginalName: "a.avi", MimeType: "video/x-msvideo", Data: []byte("x")})

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, FormatMP4, convErr.Format)
	assertScratchEmpty(t, dir)
}

func TestProcess_TranscodeIgnoresCancellation(t *testing.T) {
	p, ft, _ := setupPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Process(ctx, Upload{OriginalName: "a.ogg", MimeType: "audio/ogg", Data: []byte("x")})
	require.NoError(t, err)
	require.Len(t, ft.ctxErrs, 1)
	assert.NoError(t, ft.ctxErrs[0])
}

func TestProcess_PassThroughOtherTypes(t *testing.T) {
	p, _, _ := setupPipeline(t)
	raw := []byte("%PDF-1.7")

	res, err := p.Process(context.Background(), Upload{OriginalName: "Paper.PDF", MimeType: "application/pdf", Data: raw, BaseName: "paper"})
	require.NoError(t, err)

	assert.Equal(t, "paper.pdf", res.Filename)
	assert.Equal(t, "application/pdf", res.MimeType)
	assert.Equal(t, raw, res.Data)
}

func TestProcess_SniffsMissingMimeType(t *testing.T) {
	p, _, _ := setupPipeline(t)

	res, err := p.Process(context.Background(), Upload{OriginalName: "blob", MimeType: "application/octet-stream", Data: pngBytes(t), BaseName: "sniffed"})
	require.NoError(t, err)

	assert.Equal(t, "sniffed.png", res.Filename)
	assert.Equal(t, "image/png", res.MimeType)
}

func TestProcess_CacheSkipsRepeatTranscode(t *testing.T) {
	cache := &memCache{items: map[string][]byte{}}
	p, ft, _ := setupPipeline(t, WithCache(cache, time.Hour))
	up := Upload{OriginalName: "a.wav", MimeType: "audio/wav", Data: []byte("same bytes")}

	first, err := p.Process(context.Background(), up)
	require.NoError(t, err)
	second, err := p.Process(context.Background(), up)
	require.NoError(t, err)

	assert.Len(t, ft.calls, 1)
	assert.Equal(t, first.Data, second.Data)
	assert.NotEqual(t, first.Filename, second.Filename, "random names differ per upload")
}

func TestFFmpeg_Args(t *testing.T) {
	f := NewFFmpeg("", 0)
	assert.Equal(t, "ffmpeg", f.Path)

	args, err := f.Args("in.mov", "out.mp4", FormatMP4)
	require.NoError(t, err)
	assert.Equal(t, "in.mov", args[5])
	assert.Contains(t, args, "mp4")
	assert.Equal(t, "out.mp4", args[len(args)-1])

	args, err = f.Args("in.heic", "out.png", FormatPNG)
	require.NoError(t, err)
	assert.Contains(t, args, "-frames:v")

	_, err = f.Args("in", "out", Format("webm"))
	assert.Error(t, err)
}

func TestScratch_UniqueConcurrentJobs(t *testing.T) {
	scratch, err := NewScratch(t.TempDir())
	require.NoError(t, err)

	var mu sync.Mutex
	seen := map[string]bool{}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job, err := scratch.NewJob([]byte("x"), ".mov", ".mp4")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[job.Input] = true
			mu.Unlock()
			assert.True(t, IsScratchFile(filepath.Base(job.Output)))
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 20)
}

func TestScratch_TracksRunningJobs(t *testing.T) {
	scratch, err := NewScratch(t.TempDir())
	require.NoError(t, err)

	job, err := scratch.NewJob([]byte("x"), ".mov", ".mp4")
	require.NoError(t, err)
	assert.True(t, scratch.InUse(filepath.Base(job.Input)))
	assert.True(t, scratch.InUse(filepath.Base(job.Output)))

	job.Cleanup()
	assert.False(t, scratch.InUse(filepath.Base(job.Input)))
	assert.False(t, scratch.InUse(filepath.Base(job.Output)))
	assert.NoFileExists(t, job.Input)
}
