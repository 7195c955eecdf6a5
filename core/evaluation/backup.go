package evaluation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Backup is a full snapshot of the collection.
type Backup struct {
	Timestamp time.Time `json:"timestamp"` // UTC
	Data      []Record  `json:"data"`
}

// Backup snapshots the stored collection.
func (svc *Service) Backup(ctx context.Context) (Backup, error) {
	records, err := svc.store.Load(ctx)
	if err != nil {
		return Backup{}, errors.Wrap(err, "loading records")
	}
	if records == nil {
		records = []Record{}
	}
	return Backup{Timestamp: nowFunc().UTC(), Data: records}, nil
}

// BackupJSON encodes a snapshot of the stored collection as indented JSON.
func (svc *Service) BackupJSON(ctx context.Context) ([]byte, error) {
	bkp, err := svc.Backup(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(bkp, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encoding backup")
	}
	return data, nil
}

// Restore replaces the collection with the valid records of bkp.
// Nothing is written when bkp holds no valid record.
func (svc *Service) Restore(ctx context.Context, bkp Backup) (int, error) {
	valid := make([]Record, 0, len(bkp.Data))
	var skipped int
	for _, r := range bkp.Data {
		if err := r.Validate(svc.validate); err != nil {
			skipped++
			continue
		}
		valid = append(valid, r)
	}
	if len(valid) == 0 {
		return 0, &NoValidRecordsError{Format: FormatJSON, Skipped: skipped}
	}
	// duplicate ids collapse the same way imports do
	valid = Merge(nil, valid)

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if err := svc.store.Save(ctx, valid); err != nil {
		return 0, errors.Wrap(err, "saving records")
	}
	svc.logger.Info("evaluation records restored", map[string]interface{}{"count": len(valid), "skipped": skipped, "timestamp": bkp.Timestamp})
	return len(valid), nil
}

// RestoreJSON decodes a backup document and restores it.
func (svc *Service) RestoreJSON(ctx context.Context, data []byte) (int, error) {
	var raw struct {
		Timestamp time.Time         `json:"timestamp"`
		Data      []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, &FormatError{Err: err}
	}
	if raw.Data == nil {
		return 0, &FormatError{}
	}

	bkp := Backup{Timestamp: raw.Timestamp, Data: make([]Record, 0, len(raw.Data))}
	for _, elem := range raw.Data {
		var r Record
		if err := json.Unmarshal(elem, &r); err != nil {
			continue // dropped like any other invalid record
		}
		bkp.Data = append(bkp.Data, r)
	}
	return svc.Restore(ctx, bkp)
}

// Clear empties the collection.
func (svc *Service) Clear(ctx context.Context) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if err := svc.store.Clear(ctx); err != nil {
		return errors.Wrap(err, "clearing records")
	}
	svc.logger.Info("evaluation records cleared")
	return nil
}
