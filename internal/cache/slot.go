// Package cache holds memoized results that are dropped on invalidation.
package cache

import (
	"sync"
	"sync/atomic"
)

type entry[T any] struct {
	value T
	err   error
	gen   uint64
}

// Slot caches the result of one computation. The result, value or error, is
// reused until Invalidate is called; the next Get after that recomputes it.
// A Slot must not be copied after first use.
type Slot[T any] struct {
	current atomic.Pointer[entry[T]]
	gen     atomic.Uint64
	// mu keeps concurrent misses from computing more than once
	mu sync.Mutex
	// beforeStore runs between the generation check and the store; tests only
	beforeStore func()
}

// load returns the cached entry if it belongs to the current generation.
// An entry stored concurrently with Invalidate carries an older generation
// and is ignored.
func (s *Slot[T]) load() *entry[T] {
	if e := s.current.Load(); e != nil && e.gen == s.gen.Load() {
		return e
	}
	return nil
}

// Get returns the cached result or computes and caches it.
func (s *Slot[T]) Get(compute func() (T, error)) (T, error) {
	if e := s.load(); e != nil {
		return e.value, e.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.load(); e != nil {
		return e.value, e.err
	}

	gen := s.gen.Load()
	value, err := compute()
	e := &entry[T]{value: value, err: err, gen: gen}
	// a result computed across an invalidation is returned but not kept
	if s.gen.Load() == gen {
		if s.beforeStore != nil {
			s.beforeStore()
		}
		s.current.Store(e)
	}
	return value, err
}

// Peek returns the cached value without computing it.
func (s *Slot[T]) Peek() (T, bool) {
	e := s.load()
	if e == nil || e.err != nil {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Invalidate drops the cached result.
func (s *Slot[T]) Invalidate() {
	s.gen.Add(1)
	s.current.Store(nil)
}
