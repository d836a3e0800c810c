package reactive

// Listener is anything that can be notified when a dependency changes.
// This interface is implemented by memos, effects and watchers.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies has changed.
	// For memos, this invalidates the cached value.
	// For effects, this runs or schedules the effect according to its flush mode.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Used for deduplication during batch processing.
	ID() uint64
}

// Cleanup is a function returned by effects to clean up resources.
// It is called before the effect re-runs and when the effect is disposed.
type Cleanup func()

// sourceTracker is implemented by listeners that remember what they read,
// so they can unsubscribe from stale sources before re-running.
type sourceTracker interface {
	Listener
	addSource(source *signalBase)
}

// disposable is implemented by primitives an Owner tears down.
type disposable interface {
	dispose()
}
