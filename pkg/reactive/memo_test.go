package reactive

import "testing"

func TestMemoBasic(t *testing.T) {
	computations := 0
	count := NewSignal(5)

	doubled := NewMemo(func() int {
		computations++
		return count.Get() * 2
	})

	if doubled.Get() != 10 {
		t.Errorf("expected 10, got %d", doubled.Get())
	}
	if computations != 1 {
		t.Errorf("expected 1 computation, got %d", computations)
	}

	// Second read uses cache
	if doubled.Get() != 10 {
		t.Errorf("expected 10, got %d", doubled.Get())
	}
	if computations != 1 {
		t.Errorf("expected still 1 computation (cached), got %d", computations)
	}
}

func TestMemoRecomputation(t *testing.T) {
	computations := 0
	count := NewSignal(5)

	doubled := NewMemo(func() int {
		computations++
		return count.Get() * 2
	})

	_ = doubled.Get()
	count.Set(10)

	if doubled.Get() != 20 {
		t.Errorf("expected 20, got %d", doubled.Get())
	}
	if computations != 2 {
		t.Errorf("expected 2 computations, got %d", computations)
	}
}

func TestMemoLazyAcrossManyWrites(t *testing.T) {
	computations := 0
	count := NewSignal(0)
	doubled := NewMemo(func() int {
		computations++
		return count.Get() * 2
	})
	_ = doubled.Get()

	count.Set(1)
	count.Set(2)
	count.Set(3)

	if doubled.Get() != 6 {
		t.Errorf("expected 6, got %d", doubled.Get())
	}
	if computations != 2 {
		t.Errorf("expected 2 computations, got %d", computations)
	}
}

func TestMemoPeek(t *testing.T) {
	count := NewSignal(5)
	doubled := NewMemo(func() int {
		return count.Get() * 2
	})

	listener := newTestListener()
	WithListener(listener, func() {
		if doubled.Peek() != 10 {
			t.Errorf("expected 10, got %d", doubled.Peek())
		}
	})

	count.Set(10)
	if listener.getDirtyCount() != 0 {
		t.Errorf("Peek should not subscribe, got %d notifications", listener.getDirtyCount())
	}
}

func TestMemoChain(t *testing.T) {
	count := NewSignal(2)
	doubled := NewMemo(func() int {
		return count.Get() * 2
	})
	quadrupled := NewMemo(func() int {
		return doubled.Get() * 2
	})

	if quadrupled.Get() != 8 {
		t.Errorf("expected 8, got %d", quadrupled.Get())
	}

	count.Set(3)
	if quadrupled.Get() != 12 {
		t.Errorf("expected 12, got %d", quadrupled.Get())
	}
}

func TestMemoSubscriptionPropagates(t *testing.T) {
	count := NewSignal(5)
	doubled := NewMemo(func() int {
		return count.Get() * 2
	})

	listener := newTestListener()
	WithListener(listener, func() {
		_ = doubled.Get()
	})

	count.Set(6)
	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification through memo, got %d", listener.getDirtyCount())
	}
}

func TestMemoDisposedWithOwner(t *testing.T) {
	owner := NewOwner(nil)
	count := NewSignal(1)

	var doubled *Memo[int]
	owner.Run(func() {
		doubled = NewMemo(func() int { return count.Get() * 2 })
	})
	_ = doubled.Get()

	if count.base.subscriberCount() != 1 {
		t.Fatalf("expected memo to subscribe to count, got %d subscribers", count.base.subscriberCount())
	}

	owner.Dispose()

	if !doubled.IsDisposed() {
		t.Error("memo should be disposed with its owner")
	}
	if count.base.subscriberCount() != 0 {
		t.Errorf("disposed memo should unsubscribe, got %d subscribers", count.base.subscriberCount())
	}

	// Still readable, computed on demand
	count.Set(4)
	if doubled.Get() != 8 {
		t.Errorf("expected 8 from disposed memo, got %d", doubled.Get())
	}
	if count.base.subscriberCount() != 0 {
		t.Error("disposed memo should not re-subscribe")
	}
}

func TestMemoKind(t *testing.T) {
	m := NewMemo(func() string { return "a" })
	if KindOf(m) != KindComputed {
		t.Errorf("KindOf(memo) = %v, want computed", KindOf(m))
	}
	if m.GetAny() != "a" || m.PeekAny() != "a" {
		t.Error("GetAny/PeekAny should return the computed value")
	}
}

func TestMemoCircularDoesNotRecurse(t *testing.T) {
	var self *Memo[int]
	calls := 0
	self = NewMemo(func() int {
		calls++
		if calls > 5 {
			t.Fatal("circular memo recursed")
		}
		return self.Peek() + 1
	})

	_ = self.Get()
}
