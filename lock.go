package solstice

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = ".solstice.lock"

// dbLock is the exclusive advisory lock on the account database directory,
// held for the lifetime of the session. The rest of the system assumes a
// single open database instance, so a lock held elsewhere fails the startup
// sequence instead of waiting or retrying.
type dbLock struct {
	flock *flock.Flock
}

func acquireLock(dir string) (*dbLock, error) {
	fl := flock.New(filepath.Join(dir, lockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking database directory %s: %w", dir, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", dir, ErrDatabaseLocked)
	}
	return &dbLock{flock: fl}, nil
}

func (l *dbLock) release() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("unlocking database directory: %w", err)
	}
	return nil
}
