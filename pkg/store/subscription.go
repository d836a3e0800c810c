package store

import (
	"sync"
	"sync/atomic"

	"github.com/vango-dev/depot/pkg/reactive"
)

// SubscriptionCallback receives a mutation and a snapshot of the state taken
// at delivery time.
type SubscriptionCallback func(m Mutation, state map[string]any)

// SubscribeOption configures a subscription.
type SubscribeOption func(*subscription)

// WithFlush sets when the subscription is delivered. FlushSync delivers
// inside the mutating call; FlushPre (the default) and FlushPost deliver on
// the next reactive.Flush, coalescing to the latest mutation.
func WithFlush(mode reactive.FlushMode) SubscribeOption {
	return func(sub *subscription) {
		sub.flush = mode
	}
}

// Detached keeps the subscription alive when the owner scope it was created
// in is disposed. It still ends when the store is disposed.
func Detached() SubscribeOption {
	return func(sub *subscription) {
		sub.detached = true
	}
}

type subscription struct {
	id       uint64
	cb       SubscriptionCallback
	flush    reactive.FlushMode
	detached bool
	active   atomic.Bool

	mu     sync.Mutex
	latest Mutation
}

var subscriptionIDs atomic.Uint64

// Subscribe registers cb for every mutation of the state and returns a
// function that removes it. Unless Detached is given, a subscription made
// while a reactive.Owner is current is removed when that owner is disposed.
func (s *Store) Subscribe(cb SubscriptionCallback, opts ...SubscribeOption) func() {
	sub := &subscription{
		// Job ids share the scheduler with effects; the high bit keeps
		// them apart.
		id: subscriptionIDs.Add(1) | 1<<63,
		cb: cb,
	}
	for _, opt := range opts {
		opt(sub)
	}
	sub.active.Store(true)

	if s.disposed.Load() {
		return func() {}
	}

	s.listenersMu.Lock()
	s.subscriptions = append(s.subscriptions, sub)
	s.listenersMu.Unlock()

	unsubscribe := func() {
		if !sub.active.Swap(false) {
			return
		}
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		for i, other := range s.subscriptions {
			if other == sub {
				s.subscriptions = append(s.subscriptions[:i], s.subscriptions[i+1:]...)
				return
			}
		}
	}

	if !sub.detached {
		if owner := reactive.CurrentOwner(); owner != nil {
			owner.OnCleanup(unsubscribe)
		}
	}
	return unsubscribe
}

// dispatch delivers m to every active subscription in registration order.
func (s *Store) dispatch(m Mutation) {
	if s.disposed.Load() {
		return
	}

	s.listenersMu.Lock()
	subs := make([]*subscription, len(s.subscriptions))
	copy(subs, s.subscriptions)
	s.listenersMu.Unlock()

	for _, sub := range subs {
		s.deliver(sub, m)
	}
}

func (s *Store) deliver(sub *subscription, m Mutation) {
	if !sub.active.Load() {
		return
	}
	if sub.flush == reactive.FlushSync {
		sub.cb(m, s.state.Snapshot())
		return
	}

	sub.mu.Lock()
	sub.latest = m
	sub.mu.Unlock()

	reactive.QueueJob(sub.flush, sub.id, func() {
		if !sub.active.Load() || s.disposed.Load() {
			return
		}
		sub.mu.Lock()
		latest := sub.latest
		sub.mu.Unlock()
		sub.cb(latest, s.state.Snapshot())
	})
}
