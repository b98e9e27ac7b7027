package storage

import (
	"errors"
	"fmt"

	"planner/internal/task"
)

// InvalidID is returned by Add alongside an error.
const InvalidID int64 = -1

const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

var (
	ErrNotFound = errors.New("task not found")
	ErrStore    = errors.New("store error")
)

// Repository is the add/get-all/update/delete/exists surface over a store.
// Implementations are single-process and hold one handle for their lifetime.
type Repository interface {
	Add(t task.Task) (int64, error)
	All() ([]task.Task, error)
	Update(t task.Task) error
	Delete(id int64) error
	Exists(id int64) (bool, error)
	Close() error
}

// Open selects a backend by name. An empty name means sqlite.
func Open(backend, path string) (Repository, error) {
	switch backend {
	case "", BackendSQLite:
		return OpenSQLite(path)
	case BackendJSON:
		return OpenJSON(path)
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}
