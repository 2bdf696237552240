package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestSlot(t *testing.T) {
	var s Slot[int]
	var calls int
	compute := func() (int, error) {
		calls++
		return calls * 10, nil
	}

	if _, ok := s.Peek(); ok {
		t.Error("empty slot should have nothing to peek")
	}
	for range 3 {
		if v, err := s.Get(compute); err != nil || v != 10 {
			t.Fatalf("Get = %d, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("expected one computation, got %d", calls)
	}
	if v, ok := s.Peek(); !ok || v != 10 {
		t.Errorf("Peek = %d, %v", v, ok)
	}

	s.Invalidate()
	if v, _ := s.Get(compute); v != 20 {
		t.Errorf("expected recomputation after invalidation, got %d", v)
	}
}

func TestSlotCachesErrors(t *testing.T) {
	var s Slot[string]
	boom := errors.New("boom")
	var calls int
	failing := func() (string, error) {
		calls++
		return "", boom
	}

	for range 2 {
		if _, err := s.Get(failing); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("errors should be cached until invalidation, computed %d times", calls)
	}
	if _, ok := s.Peek(); ok {
		t.Error("a cached error is not a value")
	}

	s.Invalidate()
	v, err := s.Get(func() (string, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Errorf("Get = %q, %v", v, err)
	}
}

func TestSlotInvalidatedDuringCompute(t *testing.T) {
	var s Slot[int]
	v, _ := s.Get(func() (int, error) {
		s.Invalidate()
		return 1, nil
	})
	if v != 1 {
		t.Errorf("expected the computed value to be returned, got %d", v)
	}
	if _, ok := s.Peek(); ok {
		t.Error("a result computed across an invalidation must not be cached")
	}
}

func TestSlotInvalidatedBeforeStore(t *testing.T) {
	var s Slot[int]
	s.beforeStore = s.Invalidate
	var calls int
	compute := func() (int, error) {
		calls++
		return calls, nil
	}

	if v, _ := s.Get(compute); v != 1 {
		t.Fatalf("Get = %d, want 1", v)
	}
	if _, ok := s.Peek(); ok {
		t.Error("a result stored after an invalidation must not be visible")
	}
	s.beforeStore = nil
	if v, _ := s.Get(compute); v != 2 {
		t.Errorf("expected recomputation after invalidation, got %d", v)
	}
	if v, _ := s.Get(compute); v != 2 {
		t.Errorf("expected the recomputed value to be cached, got %d", v)
	}
}

func TestSlotConcurrentGet(t *testing.T) {
	var s Slot[int]
	var calls atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.Get(func() (int, error) {
				return int(calls.Add(1)), nil
			})
			if err != nil || v != 1 {
				t.Errorf("Get = %d, %v", v, err)
			}
		}()
	}
	wg.Wait()
	if calls.Load() != 1 {
		t.Errorf("expected a single computation, got %d", calls.Load())
	}
}
