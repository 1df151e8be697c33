package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	inputPrefix  = "blog-input_"
	outputPrefix = "blog-output_"
)

// Scratch is the process-wide directory transcodes stage their files in.
// It is shared by concurrent uploads, so every job gets unique names.
// Files of running jobs are tracked so the janitor leaves them alone no
// matter how long a transcode takes.
type Scratch struct {
	dir string

	mu     sync.Mutex
	active map[string]struct{}
}

// NewScratch creates the scratch directory if needed.
func NewScratch(dir string) (*Scratch, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return &Scratch{dir: dir, active: make(map[string]struct{})}, nil
}

// Dir is the scratch directory.
func (s *Scratch) Dir() string {
	return s.dir
}

// IsScratchFile reports whether name was created by a scratch job.
func IsScratchFile(name string) bool {
	return strings.HasPrefix(name, inputPrefix) || strings.HasPrefix(name, outputPrefix)
}

// InUse reports whether name belongs to a job that has not been cleaned up.
func (s *Scratch) InUse(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[name]
	return ok
}

func (s *Scratch) track(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range names {
		s.active[n] = struct{}{}
	}
}

func (s *Scratch) release(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range names {
		delete(s.active, n)
	}
}

// Job is one transcode's pair of scratch files.
type Job struct {
	Input  string
	Output string

	scratch *Scratch
}

// NewJob writes in to a fresh input file and reserves an output path.
func (s *Scratch) NewJob(in []byte, inExt, outExt string) (*Job, error) {
	stamp := fmt.Sprintf("%d_%s", time.Now().UnixNano(), uuid.NewString())
	job := &Job{
		Input:   filepath.Join(s.dir, inputPrefix+stamp+inExt),
		Output:  filepath.Join(s.dir, outputPrefix+stamp+outExt),
		scratch: s,
	}
	s.track(filepath.Base(job.Input), filepath.Base(job.Output))
	if err := os.WriteFile(job.Input, in, 0o600); err != nil {
		job.Cleanup()
		return nil, fmt.Errorf("failed to write scratch input: %w", err)
	}
	return job, nil
}

// ReadOutput loads the transcoder's output into memory.
func (j *Job) ReadOutput() ([]byte, error) {
	b, err := os.ReadFile(j.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to read scratch output: %w", err)
	}
	return b, nil
}

// Cleanup removes both scratch files; either may already be gone.
// Anything that cannot be removed is swept later by the janitor.
func (j *Job) Cleanup() {
	_ = os.Remove(j.Input)
	_ = os.Remove(j.Output)
	j.scratch.release(filepath.Base(j.Input), filepath.Base(j.Output))
}
