package reactive

import (
	"sync"
	"testing"
)

func TestSignalBasic(t *testing.T) {
	count := NewSignal(0)

	if count.Get() != 0 {
		t.Errorf("expected initial value 0, got %d", count.Get())
	}

	count.Set(5)
	if count.Get() != 5 {
		t.Errorf("expected value 5, got %d", count.Get())
	}

	count.Update(func(n int) int { return n * 2 })
	if count.Get() != 10 {
		t.Errorf("expected value 10, got %d", count.Get())
	}
}

func TestSignalPeek(t *testing.T) {
	count := NewSignal(42)

	listener := newTestListener()
	WithListener(listener, func() {
		if value := count.Peek(); value != 42 {
			t.Errorf("expected 42, got %d", value)
		}
	})

	count.Set(100)
	if listener.getDirtyCount() != 0 {
		t.Errorf("Peek should not subscribe listener, got %d notifications", listener.getDirtyCount())
	}
}

func TestSignalSubscription(t *testing.T) {
	count := NewSignal(0)
	listener := newTestListener()

	WithListener(listener, func() {
		_ = count.Get()
	})

	count.Set(1)
	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification, got %d", listener.getDirtyCount())
	}

	// Same value should not notify
	count.Set(1)
	if listener.getDirtyCount() != 1 {
		t.Errorf("same value should not notify, got %d", listener.getDirtyCount())
	}

	count.Set(2)
	if listener.getDirtyCount() != 2 {
		t.Errorf("expected 2 notifications, got %d", listener.getDirtyCount())
	}
}

func TestSignalNoTrackingOutsideContext(t *testing.T) {
	count := NewSignal(0)
	_ = count.Get()

	if n := count.base.subscriberCount(); n != 0 {
		t.Errorf("expected no subscribers, got %d", n)
	}
}

func TestSignalWithEquals(t *testing.T) {
	type point struct{ X, Y int }
	p := NewSignal(point{1, 2}).WithEquals(func(a, b point) bool { return a.X == b.X })
	listener := newTestListener()
	WithListener(listener, func() { _ = p.Get() })

	p.Set(point{1, 99})
	if listener.getDirtyCount() != 0 {
		t.Errorf("custom equality should suppress notification, got %d", listener.getDirtyCount())
	}
	p.Set(point{2, 99})
	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification, got %d", listener.getDirtyCount())
	}
}

func TestSignalAnyAccess(t *testing.T) {
	s := NewSignal(3)

	if s.Kind() != KindCell {
		t.Errorf("Kind() = %v, want cell", s.Kind())
	}
	if s.GetAny() != 3 || s.PeekAny() != 3 {
		t.Errorf("GetAny/PeekAny = %v/%v, want 3", s.GetAny(), s.PeekAny())
	}

	s.SetAny(7)
	if s.Get() != 7 {
		t.Errorf("expected 7 after SetAny, got %d", s.Get())
	}

	s.SetAny(nil)
	if s.Get() != 0 {
		t.Errorf("SetAny(nil) should reset to zero, got %d", s.Get())
	}

	defer func() {
		if recover() == nil {
			t.Error("SetAny with the wrong type should panic")
		}
	}()
	s.SetAny("seven")
}

func TestSignalAnyTypedDifferentDynamicTypes(t *testing.T) {
	s := NewSignal[any](1)
	listener := newTestListener()
	WithListener(listener, func() { _ = s.Get() })

	s.Set("1")
	if listener.getDirtyCount() != 1 {
		t.Errorf("changing dynamic type should notify, got %d", listener.getDirtyCount())
	}
}

func TestSignalConcurrentAccess(t *testing.T) {
	count := NewSignal(0)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer ReleaseGoroutine()
			count.Update(func(n int) int { return n + 1 })
			_ = count.Peek()
		}()
	}
	wg.Wait()

	if count.Peek() != 50 {
		t.Errorf("expected 50, got %d", count.Peek())
	}
}
