package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/convivencia/core"
	"github.com/trezcool/convivencia/storage/database"
	"github.com/trezcool/convivencia/storage/database/sqlxrepos"
	"github.com/trezcool/convivencia/storage/filestore"
	"github.com/trezcool/convivencia/storage/inmemdb"
)

func TestNewEvaluationStore(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	conf := func(store string) *core.Config {
		return &core.Config{Interchange: core.InterchangeConfig{Store: store, FilePath: "evaluations.json"}}
	}

	store, err := NewEvaluationStore(conf(""), nil)
	require.NoError(t, err)
	assert.IsType(t, &filestore.Store{}, store)

	store, err = NewEvaluationStore(conf(StoreMemory), nil)
	require.NoError(t, err)
	assert.IsType(t, &inmemdb.SlotStore{}, store)

	store, err = NewEvaluationStore(conf(StoreDatabase), db)
	require.NoError(t, err)
	assert.IsType(t, &sqlxrepos.SlotStore{}, store)

	_, err = NewEvaluationStore(conf(StoreDatabase), nil)
	assert.Error(t, err)

	_, err = NewEvaluationStore(conf("s3"), nil)
	assert.Error(t, err)
}
