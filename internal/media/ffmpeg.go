package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// FFmpeg is a Transcoder backed by the ffmpeg binary.
type FFmpeg struct {
	Path string
	// Timeout bounds a single run; zero means no limit.
	Timeout time.Duration
}

// NewFFmpeg creates an FFmpeg transcoder. An empty path means "ffmpeg" from PATH.
func NewFFmpeg(path string, timeout time.Duration) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{Path: path, Timeout: timeout}
}

// Args builds the ffmpeg command line for one conversion.
func (f *FFmpeg) Args(in, out string, target Format) ([]string, error) {
	args := []string{"-hide_banner", "-loglevel", "error", "-y", "-i", in}
	switch target {
	case FormatPNG:
		args = append(args, "-frames:v", "1", "-c:v", "png", "-f", "image2")
	case FormatMP4:
		args = append(args, "-movflags", "+faststart", "-f", "mp4")
	case FormatMP3:
		args = append(args, "-vn", "-f", "mp3")
	default:
		return nil, fmt.Errorf("unsupported target format %q", target)
	}
	return append(args, out), nil
}

// Transcode runs ffmpeg and waits for it to exit.
func (f *FFmpeg) Transcode(ctx context.Context, in, out string, target Format) error {
	args, err := f.Args(in, out, target)
	if err != nil {
		return err
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.Path, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", f.Path, err, msg)
		}
		return fmt.Errorf("%s: %w", f.Path, err)
	}
	return nil
}
