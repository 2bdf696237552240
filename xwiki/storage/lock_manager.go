package storage

import (
	"sync"
)

// OperationType defines whether an operation is read or write.
type OperationType int

const (
	// ReadOperation may run concurrently with other reads.
	ReadOperation OperationType = iota

	// WriteOperation excludes every other operation.
	WriteOperation
)

// LockManager serializes access to the in-memory state of a backend. Reads
// share an RWMutex read lock, writes take it exclusively.
type LockManager struct {
	mu sync.RWMutex
}

func NewLockManager() *LockManager {
	return &LockManager{}
}

// Execute runs fn holding the lock matching opType. The lock is released when
// fn returns, including on panic.
func (lm *LockManager) Execute(opType OperationType, fn func() error) error {
	switch opType {
	case ReadOperation:
		lm.mu.RLock()
		defer lm.mu.RUnlock()
	default:
		lm.mu.Lock()
		defer lm.mu.Unlock()
	}
	return fn()
}

// Query is Execute for functions producing a value.
//
//	doc, err := storage.Query(lm, storage.ReadOperation, func() (*types.Document, error) {
//	    return find(ref)
//	})
func Query[T any](lm *LockManager, opType OperationType, fn func() (T, error)) (T, error) {
	var result T
	err := lm.Execute(opType, func() error {
		var err error
		result, err = fn()
		return err
	})
	return result, err
}
