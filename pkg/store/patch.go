package store

import (
	"context"

	"github.com/vango-dev/depot/pkg/reactive"
)

// MutationType tells subscribers how the state was changed.
type MutationType int

const (
	// MutationDirect is a write to the state outside of a patch.
	MutationDirect MutationType = iota

	// MutationPatchObject is a Patch call. Mutation.Payload holds the
	// partial state.
	MutationPatchObject

	// MutationPatchFunction is a PatchFunc call or a Reset.
	MutationPatchFunction

	// MutationReplace is a ReplaceState call.
	MutationReplace
)

// String returns the mutation type name.
func (t MutationType) String() string {
	switch t {
	case MutationDirect:
		return "direct"
	case MutationPatchObject:
		return "patch object"
	case MutationPatchFunction:
		return "patch function"
	case MutationReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Mutation describes one state change delivered to subscriptions.
type Mutation struct {
	Type    MutationType
	StoreID string

	// Payload is the partial state of a MutationPatchObject.
	Payload map[string]any
}

// Patch deep-merges partial into the state. Nested maps merge key by key;
// slices and other values replace. Subscribers are notified once.
func (s *Store) Patch(partial map[string]any) {
	s.applyPatch(Mutation{Type: MutationPatchObject, StoreID: s.id, Payload: partial}, func() {
		s.state.Merge(partial)
	})
}

// PatchFunc lets fn mutate the state directly. Subscribers are notified
// once, after fn returns.
func (s *Store) PatchFunc(fn func(state *reactive.Object)) {
	s.applyPatch(Mutation{Type: MutationPatchFunction, StoreID: s.id}, func() {
		fn(s.state)
	})
}

// ReplaceState assigns every top-level key of m onto the state. Keys not in
// m are kept. Subscribers are notified once.
func (s *Store) ReplaceState(m map[string]any) {
	s.applyPatch(Mutation{Type: MutationReplace, StoreID: s.id}, func() {
		s.state.Assign(m)
	})
}

// Reset restores the initial state. Option stores rerun their state
// initializer; setup stores call their "$reset" action and return ErrNoReset
// without one. A setup store's reset is observed by OnAction listeners like
// any other action.
func (s *Store) Reset() error {
	if s.reset == nil {
		return noReset(s.id)
	}
	if s.def.setup == nil {
		_, err := s.reset(context.Background(), s)
		return err
	}

	var err error
	s.applyPatch(Mutation{Type: MutationPatchFunction, StoreID: s.id}, func() {
		_, err = s.invoke(context.Background(), "$reset", s.reset, nil)
	})
	return err
}

// applyPatch runs mutate as one batch and reports it as m. The watcher is
// muted until the outermost batch has flushed, so the individual writes are
// not reported again as direct mutations when the patch runs inside another
// batch.
func (s *Store) applyPatch(m Mutation, mutate func()) {
	s.muted.Add(1)
	func() {
		defer reactive.AfterBatch(func() { s.muted.Add(-1) })
		reactive.Batch(mutate)
	}()
	s.dispatch(m)
}

// onDirectMutation is the state watcher's callback.
func (s *Store) onDirectMutation() {
	if s.muted.Load() > 0 {
		return
	}
	s.dispatch(Mutation{Type: MutationDirect, StoreID: s.id})
}
