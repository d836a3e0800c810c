// Package reactive provides the reactive runtime the store engine is built
// on.
//
// Dependencies are tracked automatically at runtime: reading a Signal, Memo
// or Object field inside a memo computation or an effect subscribes that
// computation to the value.
//
// # Core Types
//
// Signal[T] is an observable cell:
//
//	count := NewSignal(0)
//	value := count.Get()  // Read (subscribes current listener)
//	count.Set(5)          // Write (notifies subscribers)
//	count.Update(func(n int) int { return n + 1 })
//
// Memo[T] is a cached derived computation:
//
//	doubled := NewMemo(func() int { return count.Get() * 2 })
//	value := doubled.Get()  // Recomputes only if dependencies changed
//
// Object is an observable container for nested map-shaped state:
//
//	state := ObjectFrom(map[string]any{"n": 0, "user": map[string]any{"name": "ada"}})
//	state.Get("user").(*Object).Set("name", "grace")
//
// Effect runs side effects when dependencies change:
//
//	CreateEffect(func() Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return nil
//	}, WithFlush(FlushSync))
//
// Owner is a disposal scope: memos and effects created while it is current
// are disposed with it.
//
// # Flush Cycles
//
// Effects run synchronously (FlushSync) or are queued on the pre or post
// queue and run by the next call to Flush. Queued reactions are coalesced:
// any number of changes before a Flush produce one run.
//
// # Batching
//
// Multiple updates can be batched to trigger a single notification:
//
//	Batch(func() {
//	    a.Set(1)
//	    b.Set(2)
//	})
//
// # Kinds
//
// Every primitive reports a Kind (KindCell, KindComputed, KindObject), so
// callers classify values by tag instead of by method set.
//
// # Thread Safety
//
// All primitives are safe for concurrent use. The tracking context (current
// listener, owner and batch depth) is per goroutine.
package reactive
