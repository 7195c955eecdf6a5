// Package storage picks the configured evaluation store backend.
package storage

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/convivencia/core"
	"github.com/trezcool/convivencia/core/evaluation"
	"github.com/trezcool/convivencia/storage/database/sqlxrepos"
	"github.com/trezcool/convivencia/storage/filestore"
	"github.com/trezcool/convivencia/storage/inmemdb"
)

// Store backends
const (
	StoreFile     = "file"
	StoreDatabase = "database"
	StoreMemory   = "memory"
)

var ErrUnknownStore = errors.New("unknown evaluation store")

// NewEvaluationStore returns the store named by `interchange.store`.
// db is only used by the database store.
func NewEvaluationStore(conf *core.Config, db *sqlx.DB) (evaluation.Store, error) {
	switch conf.Interchange.Store {
	case StoreFile, "":
		return filestore.New(conf.Interchange.FilePath), nil
	case StoreDatabase:
		if db == nil {
			return nil, errors.New("database store needs an open database")
		}
		return sqlxrepos.NewSlotStore(db, conf.Interchange.Slot), nil
	case StoreMemory:
		return inmemdb.NewSlotStore(inmemdb.Open(), conf.Interchange.Slot), nil
	default:
		return nil, errors.Wrap(ErrUnknownStore, conf.Interchange.Store)
	}
}
