package reactive

// Batch groups multiple signal updates into a single notification phase.
// All signal updates within the batch function are collected, deduplicated,
// and then all affected listeners are notified once when the batch completes.
//
// Batches can be nested. Notifications only fire when the outermost batch
// completes. A store patch runs its mutations inside a Batch so a deep
// watcher over the state observes one change.
//
// Example:
//
//	Batch(func() {
//	    firstName.Set("John")
//	    lastName.Set("Doe")
//	    age.Set(30)
//	})
//	// Listeners run once with all three changes
func Batch(fn func()) {
	incrementBatchDepth()

	defer func() {
		if decrementBatchDepth() {
			processPendingUpdates()
			for _, hook := range drainAfterBatch() {
				hook()
			}
		}
	}()

	fn()
}

// InBatch reports whether the calling goroutine is inside a Batch.
func InBatch() bool {
	return getBatchDepth() > 0
}

// AfterBatch runs fn after the outermost Batch on this goroutine has
// notified its listeners, or immediately when no Batch is open.
func AfterBatch(fn func()) {
	if getBatchDepth() == 0 {
		fn()
		return
	}
	ctx := getTrackingContext()
	ctx.afterBatch = append(ctx.afterBatch, fn)
}

// processPendingUpdates deduplicates and notifies all pending listeners.
func processPendingUpdates() {
	updates := drainPendingUpdates()
	if len(updates) == 0 {
		return
	}

	seen := make(map[uint64]bool, len(updates))
	unique := make([]Listener, 0, len(updates))

	for _, listener := range updates {
		id := listener.ID()
		if !seen[id] {
			seen[id] = true
			unique = append(unique, listener)
		}
	}

	for _, listener := range unique {
		listener.MarkDirty()
	}
}

// Untracked runs a function without tracking signal reads as dependencies.
//
// Example:
//
//	Untracked(func() {
//	    // Reading count here won't subscribe the current effect
//	    value := count.Get()
//	    fmt.Println("Current value:", value)
//	})
//
// Note: For single signal reads, use signal.Peek() instead.
func Untracked(fn func()) {
	old := setCurrentListener(nil)
	defer setCurrentListener(old)
	fn()
}
