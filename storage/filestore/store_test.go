package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/convivencia/core/evaluation"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "evaluations.json")
	store := New(path)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	records := []evaluation.Record{
		{ID: "1", SessionNumber: 1, Date: "2024-01-01", GroupName: "A", AfterStereotypes: "low"},
		{ID: "2", SessionNumber: 3, Date: "2024-01-03", GroupName: "B", Notes: "a, \"b\""},
	}
	require.NoError(t, store.Save(ctx, records))

	got, err = store.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(records, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files left behind")

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_Lenient(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "garbage", data: "{{{"},
		{name: "null", data: "null"},
		{name: "object", data: `{"id":"1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "evaluations.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o644))

			got, err := New(path).Load(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestStore_Cancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evaluations.json")
	store := New(path)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, context.Canceled, store.Save(ctx, nil))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
