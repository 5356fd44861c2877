// Package store persists normalized records and per-user request quotas.
package store

import (
	"fmt"

	"github.com/amishk599/internfeed/internal/model"
)

// Store is the full persistence surface used by the CLI.
type Store interface {
	model.RecordStore
	model.QuotaStore
	Close() error
}

// Open returns the store backend named by kind ("sqlite" or "file").
func Open(kind, path string) (Store, error) {
	switch kind {
	case "", "sqlite":
		return NewSQLiteStore(path)
	case "file":
		return NewFileStore(path)
	case "memory":
		return memoryCloser{NewMemoryStore()}, nil
	default:
		return nil, fmt.Errorf("unknown store type %q", kind)
	}
}

type memoryCloser struct{ *MemoryStore }

func (memoryCloser) Close() error { return nil }
