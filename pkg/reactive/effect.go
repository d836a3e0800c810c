package reactive

import (
	"sync"
	"sync/atomic"
)

// Effect represents a reactive side effect that runs when its dependencies
// change. Effects are automatically tracked for dependencies during their
// execution.
//
// Effects run immediately when created, and re-run whenever any signal, memo
// or Object field they read during execution changes. When the re-run happens
// depends on the effect's FlushMode: FlushSync re-runs inside the mutating
// call, FlushPre and FlushPost re-run on the next Flush.
type Effect struct {
	id uint64

	// fn is the effect function to run.
	fn func() Cleanup

	// cleanup is the cleanup function from the last run.
	cleanup Cleanup

	// sources are the signals/memos this effect depends on.
	sources   []*signalBase
	sourcesMu sync.Mutex

	// flush selects when re-runs happen.
	flush FlushMode

	// pending indicates the effect is queued for re-run.
	pending atomic.Bool

	// running guards against an effect re-triggering itself.
	running atomic.Bool

	// disposed indicates the effect has been disposed.
	disposed atomic.Bool
}

// EffectOption configures an Effect.
type EffectOption func(*Effect)

// WithFlush sets the effect's flush mode. The default is FlushPre.
func WithFlush(mode FlushMode) EffectOption {
	return func(e *Effect) {
		e.flush = mode
	}
}

// MarkDirty runs or schedules the effect according to its flush mode.
// Implements the Listener interface.
func (e *Effect) MarkDirty() {
	if e.disposed.Load() {
		return
	}

	if e.flush == FlushSync {
		if !e.running.Load() {
			e.run()
		}
		return
	}

	// Use CAS to ensure we only schedule once per cycle
	if e.pending.CompareAndSwap(false, true) {
		QueueJob(e.flush, e.id, e.run)
	}
}

// ID returns the unique identifier for this effect.
func (e *Effect) ID() uint64 {
	return e.id
}

// Flush returns the effect's flush mode.
func (e *Effect) Flush() FlushMode {
	return e.flush
}

// IsDisposed reports whether the effect has been disposed.
func (e *Effect) IsDisposed() bool {
	return e.disposed.Load()
}

// Dispose stops the effect. It is also called when the owning Owner is
// disposed.
func (e *Effect) Dispose() {
	e.dispose()
}

// run executes the effect function.
func (e *Effect) run() {
	if e.disposed.Load() {
		return
	}
	if e.running.Swap(true) {
		return
	}
	defer e.running.Store(false)

	e.pending.Store(false)

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}

	e.dropSources()

	old := setCurrentListener(e)
	defer setCurrentListener(old)

	e.cleanup = e.fn()
}

// addSource adds a source dependency.
func (e *Effect) addSource(source *signalBase) {
	e.sourcesMu.Lock()
	defer e.sourcesMu.Unlock()

	for _, s := range e.sources {
		if s == source {
			return
		}
	}
	e.sources = append(e.sources, source)
}

// dropSources unsubscribes from every tracked source.
func (e *Effect) dropSources() {
	e.sourcesMu.Lock()
	for _, source := range e.sources {
		source.unsubscribe(e)
	}
	e.sources = e.sources[:0]
	e.sourcesMu.Unlock()
}

// dispose cleans up the effect and unsubscribes from all sources.
func (e *Effect) dispose() {
	if e.disposed.Swap(true) {
		return
	}

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}

	e.dropSources()
}

// CreateEffect creates and runs a new effect within the current owner context.
// The effect function runs immediately and re-runs when any value it reads
// changes. If the function returns a Cleanup, it will be called before the
// effect re-runs or when the effect is disposed.
//
// Example:
//
//	CreateEffect(func() Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return func() { fmt.Println("Cleanup") }
//	}, WithFlush(FlushSync))
func CreateEffect(fn func() Cleanup, opts ...EffectOption) *Effect {
	e := &Effect{
		id: nextID(),
		fn: fn,
	}

	for _, opt := range opts {
		opt(e)
	}

	if owner := getCurrentOwner(); owner != nil {
		owner.register(e)
	}

	e.run()

	return e
}

// Watch creates an effect that tracks whatever source reads and calls
// callback each time those dependencies change, skipping the initial run.
//
// Example:
//
//	Watch(
//	    func() { _ = count.Get() },           // deps: read signals to track
//	    func() { fmt.Println("Updated!") },   // callback: only on changes
//	    WithFlush(FlushSync),
//	)
func Watch(source func(), callback func(), opts ...EffectOption) *Effect {
	first := true
	return CreateEffect(func() Cleanup {
		source()
		if first {
			first = false
			return nil
		}
		Untracked(callback)
		return nil
	}, opts...)
}

// OnDispose registers a function to run when the current owner is disposed.
// Outside an owner it does nothing.
func OnDispose(fn func()) {
	if owner := getCurrentOwner(); owner != nil {
		owner.OnCleanup(fn)
	}
}

var _ sourceTracker = (*Effect)(nil)
