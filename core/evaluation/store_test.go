package evaluation

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a Store keeping the raw slot bytes, so tests can plant arbitrary content.
type memStore struct {
	mu       sync.Mutex
	slot     []byte
	saves    int
	loadErr  error
	saveErr  error
	clearErr error
}

func (s *memStore) Load(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.slot == nil {
		return []Record{}, nil
	}
	return UnmarshalSlot(s.slot), nil
}

func (s *memStore) Save(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	data, err := MarshalSlot(records)
	if err != nil {
		return err
	}
	s.slot = data
	s.saves++
	return nil
}

func (s *memStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clearErr != nil {
		return s.clearErr
	}
	s.slot = nil
	return nil
}

func TestUnmarshalSlot(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []Record
	}{
		{name: "not json", data: "not json", want: []Record{}},
		{name: "empty", data: "", want: []Record{}},
		{name: "null", data: "null", want: []Record{}},
		{name: "object", data: `{"id":"1"}`, want: []Record{}},
		{name: "records", data: `[{"id":"1","sessionNumber":1,"date":"2024-01-01","groupName":"G","notes":"n"}]`, want: []Record{rec("1", "n")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnmarshalSlot([]byte(tt.data))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("UnmarshalSlot() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMarshalSlot(t *testing.T) {
	data, err := MarshalSlot(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	data, err = MarshalSlot([]Record{rec("1", "n")})
	require.NoError(t, err)
	assert.Equal(t, []Record{rec("1", "n")}, UnmarshalSlot(data))
}

func TestMemStore_LoadInvalidSlot(t *testing.T) {
	store := &memStore{slot: []byte("not json")}
	records, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}
