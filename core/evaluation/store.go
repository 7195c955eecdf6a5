package evaluation

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// DefaultSlot is the name of the slot holding the collection.
const DefaultSlot = "convivencia_evaluations"

// Store keeps the whole record collection in a single named slot.
//
// Load returns an empty collection when the slot was never written or holds invalid JSON;
// only genuine I/O failures are returned as errors.
// Save fully replaces the slot contents.
type Store interface {
	Load(ctx context.Context) ([]Record, error)
	Save(ctx context.Context, records []Record) error
	Clear(ctx context.Context) error
}

// MarshalSlot serializes records the way every Store persists them: a compact JSON array.
func MarshalSlot(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling slot")
	}
	return data, nil
}

// UnmarshalSlot parses slot contents. Anything that is not a JSON array of records degrades to
// an empty collection.
func UnmarshalSlot(data []byte) []Record {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return []Record{}
	}
	if records == nil {
		return []Record{}
	}
	return records
}
