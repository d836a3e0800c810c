package reactive

import (
	"sync"
	"testing"
)

// testListener is a simple Listener implementation for testing.
type testListener struct {
	id         uint64
	dirtyCount int
	mu         sync.Mutex
}

func newTestListener() *testListener {
	return &testListener{id: nextID()}
}

func (l *testListener) MarkDirty() {
	l.mu.Lock()
	l.dirtyCount++
	l.mu.Unlock()
}

func (l *testListener) ID() uint64 {
	return l.id
}

func (l *testListener) getDirtyCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirtyCount
}

func TestGetTrackingContext(t *testing.T) {
	ctx1 := getTrackingContext()
	ctx2 := getTrackingContext()

	if ctx1 != ctx2 {
		t.Error("getTrackingContext should return same context for same goroutine")
	}
}

func TestTrackingContextIsolation(t *testing.T) {
	main := getTrackingContext()

	var other *TrackingContext
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer ReleaseGoroutine()
		other = getTrackingContext()
	}()
	wg.Wait()

	if main == other {
		t.Error("goroutines should have separate tracking contexts")
	}
}

func TestWithListenerRestores(t *testing.T) {
	outer := newTestListener()
	inner := newTestListener()

	WithListener(outer, func() {
		WithListener(inner, func() {
			if getCurrentListener() != Listener(inner) {
				t.Error("inner listener should be current")
			}
		})
		if getCurrentListener() != Listener(outer) {
			t.Error("outer listener should be restored")
		}
	})

	if getCurrentListener() != nil {
		t.Error("listener should be nil outside WithListener")
	}
}

func TestWithOwnerRestores(t *testing.T) {
	owner := NewOwner(nil)
	defer owner.Dispose()

	if CurrentOwner() != nil {
		t.Fatal("expected no current owner")
	}
	owner.Run(func() {
		if CurrentOwner() != owner {
			t.Error("owner should be current inside Run")
		}
	})
	if CurrentOwner() != nil {
		t.Error("owner should be restored after Run")
	}
}
