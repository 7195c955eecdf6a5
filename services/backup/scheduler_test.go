package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/convivencia/core"
	logsvc "github.com/trezcool/convivencia/services/logger"
)

type fakeSnapshotter struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeSnapshotter) BackupJSON(context.Context) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

func freezeClock(t *testing.T, start time.Time) func() {
	orig := nowFunc
	now := start
	nowFunc = func() time.Time { return now }
	t.Cleanup(func() { nowFunc = orig })
	return func() { now = now.Add(time.Hour) }
}

func TestScheduler_Run(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	tick := freezeClock(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	src := &fakeSnapshotter{data: []byte(`{"timestamp":"x","data":[]}`)}
	s := NewScheduler(src, core.BackupConfig{Dir: dir, Keep: 2}, logsvc.NewNopLogger())

	path, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "convivencia-backup-20240501T100000Z.json"), path)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, src.data, content)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep me"), 0o644))
	for i := 0; i < 3; i++ {
		tick()
		_, err = s.Run(context.Background())
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{
		"convivencia-backup-20240501T120000Z.json",
		"convivencia-backup-20240501T130000Z.json",
		"notes.txt",
	}, names)
}

func TestScheduler_RunError(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSnapshotter{err: errors.New("boom")}
	s := NewScheduler(src, core.BackupConfig{Dir: dir, Keep: 1}, logsvc.NewNopLogger())

	_, err := s.Run(context.Background())
	assert.Error(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScheduler_Start(t *testing.T) {
	s := NewScheduler(&fakeSnapshotter{}, core.BackupConfig{Dir: t.TempDir()}, logsvc.NewNopLogger())
	assert.Error(t, s.Start("not a schedule"))

	require.NoError(t, s.Start("@every 1h"))
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}
