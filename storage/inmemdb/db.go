// Package inmemdb is a process-local database, used by tests and the `memory` store.
package inmemdb

import (
	"sync"

	"github.com/trezcool/convivencia/core/user"
)

type (
	DB struct {
		user  *userTable
		slots *slotTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	slotTable struct {
		sync.RWMutex
		table map[string][]byte
	}
)

func Open() *DB {
	return &DB{
		user:  &userTable{table: make(map[string]*user.User)},
		slots: &slotTable{table: make(map[string][]byte)},
	}
}
