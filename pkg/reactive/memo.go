package reactive

import (
	"sync"
	"sync/atomic"
)

// Memo is a cached derived computation that automatically tracks its
// dependencies. When any dependency changes, the memo is invalidated and
// will recompute on the next read.
//
// Memos are lazy: they only compute their value when Get() is called.
// If multiple signals change before a read, the memo only recomputes once.
//
// Memos can also be subscribed to, behaving like signals themselves.
// This allows building chains of derived values (getters reading getters).
type Memo[T any] struct {
	base signalBase

	// compute is the function that computes the memo's value.
	compute func() T

	// value is the cached computed value.
	value T

	// valueMu protects value access.
	valueMu sync.RWMutex

	// valid indicates whether the cached value is current.
	valid atomic.Bool

	// sources are the signals/memos this memo depends on.
	sources   []*signalBase
	sourcesMu sync.Mutex

	// computing prevents infinite recursion in circular dependencies.
	computing atomic.Bool

	// disposed memos stop tracking and recompute on every read.
	disposed atomic.Bool
}

// NewMemo creates a new memo with the given computation function.
// The computation is not run immediately; it runs lazily on first Get().
// A memo created while an Owner is current is disposed with that Owner.
func NewMemo[T any](compute func() T) *Memo[T] {
	memo := &Memo[T]{
		base:    newSignalBase(),
		compute: compute,
	}

	if owner := getCurrentOwner(); owner != nil {
		owner.register(memo)
	}

	return memo
}

// Get returns the memo's value, recomputing if necessary.
// Creates a dependency on this memo for the current listener.
func (m *Memo[T]) Get() T {
	m.base.track()
	return m.Peek()
}

// Peek returns the memo's value without subscribing.
// Still triggers recomputation if the value is invalid.
func (m *Memo[T]) Peek() T {
	if m.disposed.Load() {
		var value T
		Untracked(func() { value = m.compute() })
		return value
	}

	if !m.valid.Load() {
		m.recompute()
	}
	m.valueMu.RLock()
	value := m.value
	m.valueMu.RUnlock()
	return value
}

// MarkDirty invalidates the memo and propagates to subscribers.
// Implements the Listener interface.
func (m *Memo[T]) MarkDirty() {
	if m.valid.CompareAndSwap(true, false) {
		m.base.notifySubscribers()
	}
}

// ID returns the unique identifier for this memo.
func (m *Memo[T]) ID() uint64 {
	return m.base.id
}

// Kind reports KindComputed.
func (m *Memo[T]) Kind() Kind {
	return KindComputed
}

// GetAny implements Computed.
func (m *Memo[T]) GetAny() any {
	return m.Get()
}

// PeekAny implements Computed.
func (m *Memo[T]) PeekAny() any {
	return m.Peek()
}

// IsDisposed reports whether the memo's owner has been disposed.
func (m *Memo[T]) IsDisposed() bool {
	return m.disposed.Load()
}

// addSource adds a source dependency.
func (m *Memo[T]) addSource(source *signalBase) {
	m.sourcesMu.Lock()
	defer m.sourcesMu.Unlock()

	for _, s := range m.sources {
		if s == source {
			return
		}
	}
	m.sources = append(m.sources, source)
}

// dropSources unsubscribes from every tracked source.
func (m *Memo[T]) dropSources() {
	m.sourcesMu.Lock()
	for _, source := range m.sources {
		source.unsubscribe(m)
	}
	m.sources = m.sources[:0]
	m.sourcesMu.Unlock()
}

// recompute runs the computation and updates the cached value.
func (m *Memo[T]) recompute() {
	// Circular dependency: keep the stale value.
	if m.computing.Swap(true) {
		return
	}
	defer m.computing.Store(false)

	m.dropSources()

	newValue := func() T {
		old := setCurrentListener(m)
		defer setCurrentListener(old)
		return m.compute()
	}()

	m.valueMu.Lock()
	m.value = newValue
	m.valueMu.Unlock()

	m.valid.Store(true)
}

// dispose detaches the memo from its sources.
func (m *Memo[T]) dispose() {
	if m.disposed.Swap(true) {
		return
	}
	m.valid.Store(false)
	m.dropSources()
}

var (
	_ Computed      = (*Memo[int])(nil)
	_ sourceTracker = (*Memo[int])(nil)
)
