// Package backup writes periodic JSON snapshots of the evaluation collection to disk.
package backup

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/convivencia/core"
)

const (
	filePrefix = "convivencia-backup-"
	fileExt    = ".json"
	timeLayout = "20060102T150405Z"
)

var nowFunc = time.Now // mockable

// Snapshotter produces a serialized backup (evaluation.Service).
type Snapshotter interface {
	BackupJSON(ctx context.Context) ([]byte, error)
}

type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	src    Snapshotter
	dir    string
	keep   int
	logger core.Logger
}

func NewScheduler(src Snapshotter, conf core.BackupConfig, logger core.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
		src:    src,
		dir:    conf.Dir,
		keep:   conf.Keep,
		logger: logger,
	}
}

// Start registers the backup job on schedule (standard 5-field cron spec or descriptors like
// "@daily") and starts the scheduler.
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		path, err := s.Run(s.ctx)
		if err != nil {
			s.logger.Error("scheduled backup failed", err)
			return
		}
		s.logger.Info("scheduled backup written", map[string]interface{}{"path": path})
	})
	if err != nil {
		return errors.Wrapf(err, "parsing backup schedule %q", schedule)
	}
	s.cron.Start()
	s.logger.Info("backup scheduler started", map[string]interface{}{"schedule": schedule, "dir": s.dir})
	return nil
}

// Stop waits for a running job to complete.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.cancel()
}

// Run writes one backup file and prunes old ones. It returns the path of the new file.
func (s *Scheduler) Run(ctx context.Context) (string, error) {
	data, err := s.src.BackupJSON(ctx)
	if err != nil {
		return "", errors.Wrap(err, "creating backup")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating backup directory")
	}

	path := filepath.Join(s.dir, FileName(nowFunc()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, "writing backup")
	}
	if err := s.prune(); err != nil {
		s.logger.Warn("pruning backups failed", err)
	}
	return path, nil
}

// FileName names the backup taken at t. Names sort chronologically.
func FileName(t time.Time) string {
	return filePrefix + t.UTC().Format(timeLayout) + fileExt
}

// prune keeps the newest `keep` backups; keep <= 0 keeps everything.
func (s *Scheduler) prune() error {
	if s.keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), filePrefix) && strings.HasSuffix(e.Name(), fileExt) {
			names = append(names, e.Name())
		}
	}
	if len(names) <= s.keep {
		return nil
	}
	sort.Strings(names)
	for _, name := range names[:len(names)-s.keep] {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			return err
		}
		s.logger.Debug("old backup removed", map[string]interface{}{"file": name})
	}
	return nil
}
