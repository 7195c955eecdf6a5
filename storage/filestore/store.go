// Package filestore keeps the evaluation collection in a single JSON file on disk.
package filestore

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/convivencia/core/evaluation"
)

type Store struct {
	mu   sync.RWMutex
	path string
}

var _ evaluation.Store = (*Store)(nil) // interface compliance check

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the file. A missing or unreadable document yields an empty collection.
func (s *Store) Load(ctx context.Context) ([]evaluation.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []evaluation.Record{}, nil
		}
		return nil, errors.Wrap(err, "reading store file")
	}
	return evaluation.UnmarshalSlot(data), nil
}

// Save replaces the file atomically (temp file + rename).
func (s *Store) Save(ctx context.Context, records []evaluation.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := evaluation.MarshalSlot(records)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating store directory")
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }() // no-op after rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "syncing temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(err, "replacing store file")
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing store file")
	}
	return nil
}
