// Package janitor periodically removes state that outlived its purpose:
// expired transcode cache rows and scratch files left by crashed transcodes.
package janitor

import (
	"context"
	"fmt"
	"go-blog-app/internal/config"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/media"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"
)

// Purger drops expired cache entries.
type Purger interface {
	Purge() (int64, error)
}

// ActiveJobs reports scratch files that belong to a transcode still running.
type ActiveJobs interface {
	InUse(name string) bool
}

// Option configures a Janitor.
type Option func(*Janitor)

// WithActiveJobs keeps the sweep away from files of running transcodes,
// however old they are.
func WithActiveJobs(a ActiveJobs) Option {
	return func(j *Janitor) {
		j.active = a
	}
}

// Report is the outcome of one cleanup run.
type Report struct {
	CacheRows    int64
	ScratchFiles int
}

// Janitor runs the cleanup on a cron schedule.
type Janitor struct {
	cron       *cron.Cron
	cache      Purger
	scratchDir string
	maxAge     time.Duration
	active     ActiveJobs
	log        logger.Logger
	now        func() time.Time
}

// New schedules the cleanup according to cfg. Start must be called to run it.
func New(cfg config.JanitorConfig, cache Purger, scratchDir string, log logger.Logger, opts ...Option) (*Janitor, error) {
	j := &Janitor{
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		cache:      cache,
		scratchDir: scratchDir,
		maxAge:     cfg.ScratchMaxAge,
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	if _, err := j.cron.AddFunc(cfg.Schedule, func() { j.Run() }); err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", cfg.Schedule, err)
	}
	return j, nil
}

// Start runs the schedule in the background.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the schedule and waits for a running cleanup to finish or ctx to expire.
func (j *Janitor) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Run performs one cleanup and logs what it removed.
func (j *Janitor) Run() (*Report, error) {
	report := &Report{}
	var result *multierror.Error

	if j.cache != nil {
		n, err := j.cache.Purge()
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("purge cache: %w", err))
		}
		report.CacheRows = n
	}

	n, err := j.SweepScratch()
	if err != nil {
		result = multierror.Append(result, err)
	}
	report.ScratchFiles = n

	if err := result.ErrorOrNil(); err != nil {
		j.log.Error(err, "Janitor run finished with errors")
		return report, err
	}
	if report.CacheRows > 0 || report.ScratchFiles > 0 {
		j.log.Info(fmt.Sprintf("Janitor removed %d cache rows and %d scratch files", report.CacheRows, report.ScratchFiles))
	}
	return report, nil
}

// SweepScratch deletes transcode scratch files older than the configured
// age. Without WithActiveJobs (as in a separate CLI process) the age is the
// only guard, so it must exceed the longest transcode.
func (j *Janitor) SweepScratch() (int, error) {
	if j.maxAge <= 0 || j.scratchDir == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(j.scratchDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read scratch dir: %w", err)
	}

	cutoff := j.now().Add(-j.maxAge)
	removed := 0
	var result *multierror.Error
	for _, e := range entries {
		if !e.Type().IsRegular() || !media.IsScratchFile(e.Name()) {
			continue
		}
		if j.active != nil && j.active.InUse(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(j.scratchDir, e.Name())); err != nil && !os.IsNotExist(err) {
			result = multierror.Append(result, err)
			continue
		}
		removed++
	}
	return removed, result.ErrorOrNil()
}
