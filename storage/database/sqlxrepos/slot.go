package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/convivencia/core"
	"github.com/trezcool/convivencia/core/evaluation"
)

// SlotStore keeps the evaluation collection as a JSON document in one row of the `slots` table.
type SlotStore struct {
	db   *sqlx.DB
	name string
}

var _ evaluation.Store = (*SlotStore)(nil) // interface compliance check

func NewSlotStore(db *sqlx.DB, name string) *SlotStore {
	if name == "" {
		name = evaluation.DefaultSlot
	}
	return &SlotStore{db: db, name: name}
}

func (s *SlotStore) Load(ctx context.Context) ([]evaluation.Record, error) {
	var data string
	err := s.db.GetContext(ctx, &data, s.db.Rebind("SELECT data FROM slots WHERE name = ?"), s.name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []evaluation.Record{}, nil
		}
		return nil, trapClosedErr(err, "loading slot")
	}
	return evaluation.UnmarshalSlot([]byte(data)), nil
}

func (s *SlotStore) Save(ctx context.Context, records []evaluation.Record) (err error) {
	data, err := evaluation.MarshalSlot(records)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return trapClosedErr(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, tx.Rebind("DELETE FROM slots WHERE name = ?"), s.name); err != nil {
		return errors.Wrap(err, "deleting slot")
	}
	q := tx.Rebind("INSERT INTO slots (name, data, updated_at) VALUES (?, ?, ?)")
	if _, err = tx.ExecContext(ctx, q, s.name, string(data), time.Now().UTC()); err != nil {
		return errors.Wrap(err, "inserting slot")
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing slot")
	}
	return nil
}

func (s *SlotStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM slots WHERE name = ?"), s.name); err != nil {
		return trapClosedErr(err, "clearing slot")
	}
	return nil
}

// trapClosedErr reports a closed database as a core shutdown error: the store cannot serve any request after that.
func trapClosedErr(err error, msg string) error {
	if errors.Is(err, sql.ErrConnDone) || strings.HasSuffix(err.Error(), "database is closed") {
		return core.NewShutdownError(msg + ": " + err.Error())
	}
	return errors.Wrap(err, msg)
}
