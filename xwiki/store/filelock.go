package store

import (
	"context"
	"time"

	"github.com/gofrs/flock"
)

// FileLock is a cross-process exclusive lock on the data file.
type FileLock interface {
	// TryLockContext retries every retryInterval until the lock is taken or
	// ctx is done.
	TryLockContext(ctx context.Context, retryInterval time.Duration) (bool, error)
	Unlock() error
}

// FileLockFactory creates the lock guarding the file at path.
type FileLockFactory interface {
	New(path string) FileLock
}

// FlockFactory creates flock(2) based locks.
type FlockFactory struct{}

func (FlockFactory) New(path string) FileLock {
	return flock.New(path)
}
