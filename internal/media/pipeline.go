// Package media normalizes uploaded files into the canonical formats they are stored in.
package media

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"go-blog-app/internal/logger"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Format is a canonical output format.
type Format string

const (
	FormatPNG Format = "png"
	FormatMP4 Format = "mp4"
	FormatMP3 Format = "mp3"
)

// MimeType is the MIME type recorded for files in this format.
func (f Format) MimeType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatMP4:
		return "video/mp4"
	case FormatMP3:
		return "audio/mpeg"
	}
	return ""
}

// Ext is the file extension, dot included.
func (f Format) Ext() string {
	return "." + string(f)
}

// ErrInvalidName is returned when a caller-supplied base name has characters
// outside [a-zA-Z0-9_-].
var ErrInvalidName = errors.New("filename may only contain letters, digits, '-' and '_'")

// ConversionError reports a failed transcode.
type ConversionError struct {
	Format Format
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion to %s failed: %v", e.Format, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

var baseNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidBaseName reports whether name is an acceptable caller-supplied base name.
func ValidBaseName(name string) bool {
	return baseNamePattern.MatchString(name)
}

// Upload is one uploaded file as received from the client.
type Upload struct {
	OriginalName string
	MimeType     string
	Data         []byte
	// BaseName is optional; a random token is used when empty.
	BaseName string
}

// Result is a normalized file ready to be persisted.
type Result struct {
	Filename string
	MimeType string
	Data     []byte
}

// Transcoder converts the file at in into the target format at out.
type Transcoder interface {
	Transcode(ctx context.Context, in, out string, target Format) error
}

// ResultCache stores converted bytes so identical re-uploads skip the transcoder.
type ResultCache interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
}

// Pipeline turns uploads into canonical media files.
type Pipeline struct {
	transcoder Transcoder
	scratch    *Scratch
	cache      ResultCache
	cacheTTL   time.Duration
	log        logger.Logger
	random     io.Reader
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCache enables the converted-result cache.
func WithCache(c ResultCache, ttl time.Duration) Option {
	return func(p *Pipeline) {
		p.cache = c
		p.cacheTTL = ttl
	}
}

// NewPipeline creates a pipeline that shells out to t for video, audio and
// images the standard decoders cannot read.
func NewPipeline(t Transcoder, scratch *Scratch, log logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		transcoder: t,
		scratch:    scratch,
		log:        log,
		random:     rand.Reader,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process validates the name, normalizes the upload and returns the file to
// store. Nothing is written outside the scratch directory.
func (p *Pipeline) Process(ctx context.Context, up Upload) (*Result, error) {
	base := up.BaseName
	if base != "" {
		if !ValidBaseName(base) {
			return nil, ErrInvalidName
		}
	} else {
		token, err := p.token()
		if err != nil {
			return nil, err
		}
		base = token
	}

	mimeType := p.declaredType(up)
	ext := strings.ToLower(filepath.Ext(up.OriginalName))
	target, convert := classify(mimeType)
	if !convert {
		return &Result{Filename: base + ext, MimeType: mimeType, Data: up.Data}, nil
	}

	var (
		out []byte
		err error
	)
	if target == FormatPNG {
		out, err = p.toPNG(ctx, up.Data, ext)
	} else {
		out, err = p.external(ctx, up.Data, ext, target)
	}
	if err != nil {
		return nil, err
	}
	return &Result{Filename: base + target.Ext(), MimeType: target.MimeType(), Data: out}, nil
}

// classify maps a MIME type to the canonical format it is converted to.
func classify(mimeType string) (Format, bool) {
	switch {
	case mimeType == "image/gif" || mimeType == "image/apng":
		// Animation-preserving formats are stored as uploaded.
		return "", false
	case strings.HasPrefix(mimeType, "image/"):
		return FormatPNG, true
	case strings.HasPrefix(mimeType, "video/"):
		return FormatMP4, true
	case strings.HasPrefix(mimeType, "audio/"):
		return FormatMP3, true
	}
	return "", false
}

// declaredType normalizes the client's MIME type, sniffing the bytes when
// the client sent nothing useful.
func (p *Pipeline) declaredType(up Upload) string {
	mt := strings.ToLower(strings.TrimSpace(up.MimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt != "" && mt != "application/octet-stream" {
		return mt
	}
	detected := mimetype.Detect(up.Data).String()
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = detected[:i]
	}
	p.log.Debug(fmt.Sprintf("Sniffed MIME type %s for %q", detected, up.OriginalName))
	return detected
}

// toPNG re-encodes in process when a decoder is registered for the input,
// and falls back to the transcoder otherwise (HEIC, AVIF, ...).
func (p *Pipeline) toPNG(ctx context.Context, in []byte, ext string) ([]byte, error) {
	out, err := encodePNG(in)
	if err == nil {
		return out, nil
	}
	p.log.Debug(fmt.Sprintf("In-process image decode failed (%v), using transcoder", err))
	return p.external(ctx, in, ext, FormatPNG)
}

// external runs the transcoder through scratch files. The transcode is
// detached from ctx cancellation: once started it runs to completion.
func (p *Pipeline) external(ctx context.Context, in []byte, ext string, target Format) ([]byte, error) {
	key := cacheKey(in, target)
	if p.cache != nil {
		if cached, err := p.cache.Get(key); err != nil {
			p.log.Error(err, "Transcode cache lookup failed")
		} else if cached != nil {
			p.log.Debug("Transcode cache hit for " + key)
			return cached, nil
		}
	}

	job, err := p.scratch.NewJob(in, ext, target.Ext())
	if err != nil {
		return nil, err
	}
	defer job.Cleanup()

	p.log.Info(fmt.Sprintf("Converting upload to %s...", strings.ToUpper(string(target))))
	if err := p.transcoder.Transcode(context.WithoutCancel(ctx), job.Input, job.Output, target); err != nil {
		return nil, &ConversionError{Format: target, Err: err}
	}
	out, err := job.ReadOutput()
	if err != nil {
		return nil, &ConversionError{Format: target, Err: err}
	}
	p.log.Info(fmt.Sprintf("Conversion to %s finished.", strings.ToUpper(string(target))))

	if p.cache != nil {
		if err := p.cache.Set(key, out, p.cacheTTL); err != nil {
			p.log.Error(err, "Failed to cache transcode result")
		}
	}
	return out, nil
}

func (p *Pipeline) token() (string, error) {
	b := make([]byte, 8)
	if _, err := io.ReadFull(p.random, b); err != nil {
		return "", fmt.Errorf("failed to generate file name: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func cacheKey(in []byte, target Format) string {
	sum := sha256.Sum256(in)
	return "transcode:" + string(target) + ":" + hex.EncodeToString(sum[:])
}
