// Package backup writes periodic JSON exports of the state to a directory
// and prunes old ones.
package backup

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"workcal/internal/fsutil"
	appLog "workcal/internal/log"
	"workcal/internal/state"
	"workcal/internal/transfer"
)

const (
	filePrefix = "workcal-backup-"
	fileSuffix = ".json"
	stampFmt   = "20060102-150405"
)

// Source provides the state to back up.
type Source interface {
	Snapshot() state.Snapshot
}

// Options configures a Scheduler.
type Options struct {
	// Cron is a standard 5-field schedule, e.g. "0 3 * * *".
	Cron string
	// Dir receives the backup files.
	Dir string
	// Keep is how many of the newest backups are retained; <=0 keeps all.
	Keep int
}

// Scheduler runs backups on a cron schedule.
type Scheduler struct {
	src  Source
	opts Options
	now  func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// New validates opts and returns a stopped scheduler.
func New(src Source, opts Options) (*Scheduler, error) {
	if opts.Dir == "" {
		return nil, errors.New("backup: dir is empty")
	}
	if _, err := cron.ParseStandard(opts.Cron); err != nil {
		return nil, fmt.Errorf("backup: invalid schedule %q: %w", opts.Cron, err)
	}
	return &Scheduler{src: src, opts: opts, now: time.Now}, nil
}

// Start begins running backups on schedule.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(s.opts.Cron, func() {
		if _, err := s.RunOnce(); err != nil {
			appLog.Error("backup failed", err, "dir", s.opts.Dir)
		}
	}); err != nil {
		return fmt.Errorf("backup: schedule: %w", err)
	}
	c.Start()
	s.cron = c
	appLog.Info("backup scheduler started", "cron", s.opts.Cron, "dir", s.opts.Dir, "keep", s.opts.Keep)
	return nil
}

// Stop halts the schedule and waits for a running backup to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
		appLog.Info("backup scheduler stopped")
	}
}

// RunOnce writes one backup now and prunes old files. It returns the path
// written.
func (s *Scheduler) RunOnce() (string, error) {
	var buf bytes.Buffer
	if err := transfer.Encode(&buf, transfer.Export(s.src.Snapshot())); err != nil {
		return "", fmt.Errorf("backup: encode: %w", err)
	}

	path := filepath.Join(s.opts.Dir, filePrefix+s.now().Format(stampFmt)+fileSuffix)
	if err := fsutil.WriteFileAtomic(path, buf.Bytes(), 0o600); err != nil {
		return "", fmt.Errorf("backup: write: %w", err)
	}

	removed, err := s.prune()
	if err != nil {
		appLog.Warn("backup prune failed", "dir", s.opts.Dir, "err", err)
	}
	appLog.Info("backup written", "path", path, "bytes", buf.Len(), "pruned", removed)
	return path, nil
}

// List returns the backup files in dir, oldest first.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	// The timestamp format sorts lexically.
	slices.Sort(out)
	return out, nil
}

func (s *Scheduler) prune() (int, error) {
	if s.opts.Keep <= 0 {
		return 0, nil
	}
	files, err := List(s.opts.Dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for len(files)-removed > s.opts.Keep {
		if err := os.Remove(files[removed]); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
