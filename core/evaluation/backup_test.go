package evaluation

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_BackupRestore(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	freezeTime(t, at)
	ctx := context.Background()

	src, _ := newTestService(t, sampleRecords()...)
	data, err := src.BackupJSON(ctx)
	require.NoError(t, err)

	var bkp Backup
	require.NoError(t, json.Unmarshal(data, &bkp))
	assert.True(t, at.Equal(bkp.Timestamp))

	dst, store := newTestService(t, rec("old", "gone"))
	n, err := dst.RestoreJSON(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(sampleRecords(), got); diff != "" {
		t.Errorf("restored records mismatch (-want +got):\n%s", diff)
	}
}

func TestService_BackupEmpty(t *testing.T) {
	svc, _ := newTestService(t)
	bkp, err := svc.Backup(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, bkp.Data)
	assert.Empty(t, bkp.Data)
}

func TestService_Restore(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		input   string
		wantErr interface{}
		want    []Record
	}{
		{name: "not json", input: "nope", wantErr: &FormatError{}},
		{name: "no data", input: `{"timestamp":"2024-05-01T12:00:00Z"}`, wantErr: &FormatError{}},
		{name: "no valid records", input: `{"data":[{"id":"1"},{"groupName":"G"}]}`, wantErr: &NoValidRecordsError{}},
		{
			name:  "invalid records dropped, duplicates collapsed",
			input: `{"data":[{"id":"1","sessionNumber":1,"date":"2024-01-01","groupName":"G","notes":"a"},{"id":"2"},{"id":"1","sessionNumber":1,"date":"2024-01-01","groupName":"G","notes":"b"}]}`,
			want:  []Record{rec("1", "b")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := []Record{rec("x", "keep")}
			svc, store := newTestService(t, original...)

			_, err := svc.RestoreJSON(ctx, []byte(tt.input))
			if tt.wantErr != nil {
				assert.IsType(t, tt.wantErr, err)
				assert.Zero(t, store.saves)
				tt.want = original
			} else {
				require.NoError(t, err)
			}

			got, err := store.Load(ctx)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("stored records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestService_Clear(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, sampleRecords()...)

	require.NoError(t, svc.Clear(ctx))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = svc.ExportJSON(ctx)
	assert.Equal(t, ErrNothingToExport, err)
}
