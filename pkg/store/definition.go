package store

import (
	"context"

	"github.com/vango-dev/depot/internal/errors"
)

// Getter derives a value from a store. Getters are cached and recompute only
// when the state they read changes.
type Getter func(s *Store) any

// Action is a store method. It is always invoked through Store.Call so that
// OnAction listeners observe it.
type Action func(ctx context.Context, s *Store, args ...any) (any, error)

// SetupAction is an action returned from a setup function. It closes over
// the setup function's cells instead of receiving the store.
type SetupAction func(ctx context.Context, args ...any) (any, error)

// SetupFunc builds a setup store. It runs once per construction inside the
// store's disposal scope. Values of the returned map are classified by kind:
//
//   - a reactive.Cell (e.g. *reactive.Signal[T]) is a state field
//   - a reactive.Computed (e.g. *reactive.Memo[T]) is a getter
//   - an Action, SetupAction or func(context.Context, ...any) (any, error)
//     is an action; one named "$reset" becomes the store's reset
//   - anything else is plain state
type SetupFunc func() map[string]any

// Options declares an option store.
type Options struct {
	// ID is the store id. Define fills it from its first argument.
	ID string

	// State returns the initial state. It runs on construction and on Reset.
	// The result should be a map[string]any; a struct is converted field by
	// field and anything else yields empty state. Both cases log a warning.
	State func() any

	Getters map[string]Getter
	Actions map[string]Action
}

// Definition is an immutable store declaration. Use returns the store
// instance for a registry, building it on first access.
type Definition struct {
	id      string
	options Options
	setup   SetupFunc
}

// Define declares an option store with the given id.
func Define(id string, opts Options) *Definition {
	opts.ID = id
	return DefineOptions(opts)
}

// DefineOptions declares an option store whose id is opts.ID.
// It panics when the id is empty.
func DefineOptions(opts Options) *Definition {
	if opts.ID == "" {
		panic(errors.New("E100").
			WithExample(`store.Define("cart", store.Options{})`))
	}
	return &Definition{id: opts.ID, options: opts}
}

// DefineSetup declares a setup store. It panics when the id is empty or
// setup is nil.
func DefineSetup(id string, setup SetupFunc) *Definition {
	if id == "" {
		panic(errors.New("E100").
			WithExample(`store.DefineSetup("cart", func() map[string]any { ... })`))
	}
	if setup == nil {
		panic(errors.New("E102").WithStore(id).WithDetail("setup function is nil"))
	}
	return &Definition{id: id, setup: setup}
}

// ID returns the store id.
func (d *Definition) ID() string {
	return d.id
}

// IsSetup reports whether the definition was built with DefineSetup.
func (d *Definition) IsSetup() bool {
	return d.setup != nil
}

// Use returns the store for r, constructing it if r has no live store with
// this id. A nil r uses the active registry; an explicit r becomes the
// active registry. Use panics when r is nil and no registry is active.
// Concurrent calls for the same id construct the store once. A store whose
// construction uses itself, directly or through other stores, deadlocks.
func (d *Definition) Use(r *Registry) *Store {
	if r == nil {
		r = ActiveRegistry()
		if r == nil {
			panic(errors.New("E101").
				WithStore(d.id).
				WithSuggestion("call store.SetActiveRegistry or pass a registry to Use"))
		}
	} else {
		SetActiveRegistry(r)
	}
	if r.IsDisposed() {
		panic(errors.New("E101").
			WithStore(d.id).
			WithDetail("the registry has been disposed"))
	}

	if s, ok := r.Store(d.id); ok {
		return s
	}

	lock := r.buildLock(d.id)
	lock.Lock()
	defer lock.Unlock()
	if s, ok := r.Store(d.id); ok {
		return s
	}
	return newStore(r, d)
}

// setupAction converts a setup map value into an Action, if it is one.
func setupAction(v any) (Action, bool) {
	switch fn := v.(type) {
	case Action:
		return fn, true
	case SetupAction:
		return adaptSetupAction(fn), true
	case func(context.Context, ...any) (any, error):
		return adaptSetupAction(fn), true
	case func(context.Context, *Store, ...any) (any, error):
		return Action(fn), true
	case func():
		return func(context.Context, *Store, ...any) (any, error) {
			fn()
			return nil, nil
		}, true
	default:
		return nil, false
	}
}

func adaptSetupAction(fn SetupAction) Action {
	return func(ctx context.Context, _ *Store, args ...any) (any, error) {
		return fn(ctx, args...)
	}
}
