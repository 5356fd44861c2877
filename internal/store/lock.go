package store

import (
	"fmt"

	"github.com/gofrs/flock"

	"github.com/amishk599/internfeed/internal/model"
)

// Lock takes an exclusive process-level lock on <path>.lock so two runs never
// write the same store. It fails with model.ErrLocked when another process
// holds it. The returned func releases the lock.
func Lock(path string) (func() error, error) {
	fl := flock.New(path + ".lock")
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("locking %s: %w", path, model.ErrLocked)
	}
	return fl.Unlock, nil
}
