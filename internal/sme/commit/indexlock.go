package commit

import (
	"fmt"

	"github.com/gofrs/flock"
)

// withIndexLock runs fn while holding an exclusive advisory lock on
// path+".lock", so concurrent commit/rollback operations against the
// same patch store serialize their index.json read-modify-write — the
// file-backed generalization of pkg/registry.Registry's in-memory
// sync.RWMutex idiom, since the index must survive across process
// restarts and be shared by more than one evolv process.
func withIndexLock(path string, fn func() error) error {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("commit: acquire index lock: %w", err)
	}
	if !locked {
		if err := lock.Lock(); err != nil {
			return fmt.Errorf("commit: acquire index lock: %w", err)
		}
	}
	defer lock.Unlock()

	return fn()
}
