package inmemdb

import (
	"context"

	"github.com/trezcool/convivencia/core/evaluation"
)

// SlotStore keeps the serialized collection in memory, so it behaves like the persistent stores
// (records are copied in and out, never shared).
type SlotStore struct {
	db   *slotTable
	name string
}

var _ evaluation.Store = (*SlotStore)(nil) // interface compliance check

func NewSlotStore(db *DB, name string) *SlotStore {
	if name == "" {
		name = evaluation.DefaultSlot
	}
	return &SlotStore{db: db.slots, name: name}
}

func (s *SlotStore) Load(ctx context.Context) ([]evaluation.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.db.RLock()
	defer s.db.RUnlock()

	data, ok := s.db.table[s.name]
	if !ok {
		return []evaluation.Record{}, nil
	}
	return evaluation.UnmarshalSlot(data), nil
}

func (s *SlotStore) Save(ctx context.Context, records []evaluation.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := evaluation.MarshalSlot(records)
	if err != nil {
		return err
	}
	s.db.Lock()
	defer s.db.Unlock()
	s.db.table[s.name] = data
	return nil
}

func (s *SlotStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.db.Lock()
	defer s.db.Unlock()
	delete(s.db.table, s.name)
	return nil
}
