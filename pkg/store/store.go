package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/depot/internal/errors"
	"github.com/vango-dev/depot/pkg/reactive"
)

// Store is a live store instance. Option and setup stores share this type
// and behave identically once built.
type Store struct {
	id       string
	registry *Registry
	def      *Definition
	scope    *reactive.Owner
	logger   *slog.Logger

	// state is the store's entry in the registry state tree.
	state *reactive.Object

	getters map[string]reactive.Computed
	actions map[string]Action
	reset   Action

	// props are plugin augmentations; overrides are values assigned with
	// SetProp over getters and computed props.
	propsMu   sync.RWMutex
	props     map[string]any
	overrides *reactive.Object

	listenersMu     sync.Mutex
	subscriptions   []*subscription
	actionListeners []*actionListener

	// muted is non-zero while a patch is being applied so the state watcher
	// does not report the patch as direct mutations.
	muted   atomic.Int32
	watcher *reactive.Effect

	disposed atomic.Bool
}

// stateRef binds a prop to the state field of the same name.
type stateRef struct{}

func newStore(r *Registry, d *Definition) *Store {
	s := &Store{
		id:        d.id,
		registry:  r,
		def:       d,
		scope:     reactive.NewOwner(r.scope),
		logger:    r.logger.With("store", d.id),
		getters:   make(map[string]reactive.Computed),
		actions:   make(map[string]Action),
		props:     make(map[string]any),
		overrides: reactive.NewObject(),
	}

	// Construction may happen inside a caller's effect; none of the reads
	// below belong to it.
	reactive.Untracked(func() {
		s.scope.Run(func() {
			if d.setup != nil {
				s.buildSetup()
			} else {
				s.buildOptions()
			}
			s.watcher = reactive.Watch(s.state.Track, s.onDirectMutation,
				reactive.WithFlush(reactive.FlushSync))
		})
	})

	r.register(s)
	s.applyPlugins()
	return s
}

func (s *Store) buildOptions() {
	opts := s.def.options

	if hydrated, ok := s.registry.state.Raw(s.id); ok {
		if obj, isObject := hydrated.(*reactive.Object); isObject {
			s.state = obj
		}
	}
	if s.state == nil {
		initial, raw, plain := s.initialState()
		if !plain {
			s.warn("E110", fmt.Sprintf("It cannot be a %T. Found in store %q.", raw, s.id))
		}
		s.state = reactive.ObjectFrom(initial)
		s.registry.state.Set(s.id, s.state)
	}

	for _, name := range sortedNames(opts.Getters) {
		if _, exists := s.state.Raw(name); exists {
			s.warn("E111", fmt.Sprintf("Found with %q in store %q.", name, s.id))
		}
		getter := opts.Getters[name]
		s.getters[name] = reactive.NewMemo(func() any { return getter(s) })
	}

	for name, action := range opts.Actions {
		s.actions[name] = action
	}
	if opts.State != nil {
		s.reset = func(context.Context, *Store, ...any) (any, error) {
			fresh, _, _ := s.initialState()
			s.applyPatch(Mutation{Type: MutationPatchFunction, StoreID: s.id}, func() {
				s.state.Assign(fresh)
			})
			return nil, nil
		}
	}
}

func (s *Store) buildSetup() {
	var hydrated *reactive.Object
	if raw, ok := s.registry.state.Raw(s.id); ok {
		hydrated, _ = raw.(*reactive.Object)
	}

	values := s.def.setup()

	state := hydrated
	if state == nil {
		state = reactive.NewObject()
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := values[name]
		switch reactive.KindOf(v) {
		case reactive.KindCell:
			cell := v.(reactive.Cell)
			if hydrated != nil {
				if prev, ok := hydrated.Raw(name); ok && reactive.KindOf(prev) == reactive.KindPlain {
					if cell.Accepts(prev) {
						cell.SetAny(prev)
					} else {
						s.warn("E112", fmt.Sprintf("Field %q of store %q holds a %T.", name, s.id, prev))
					}
				}
			}
			state.Set(name, cell)
			continue
		case reactive.KindComputed:
			s.getters[name] = v.(reactive.Computed)
			continue
		}

		if action, ok := setupAction(v); ok {
			if name == "$reset" {
				s.reset = action
			} else {
				s.actions[name] = action
			}
			continue
		}

		if hydrated != nil && hydrated.Has(name) {
			continue
		}
		state.Set(name, v)
	}

	s.state = state
	if hydrated == nil {
		s.registry.state.Set(s.id, state)
	}
}

// initialState runs the option store's state initializer. raw is what the
// initializer returned; plain is false when it was not a map.
func (s *Store) initialState() (m map[string]any, raw any, plain bool) {
	if s.def.options.State == nil {
		return map[string]any{}, nil, true
	}
	reactive.Untracked(func() { raw = s.def.options.State() })

	m, plain = toStateMap(raw)
	return m, raw, plain
}

func (s *Store) warn(code, detail string) {
	e := errors.New(code).WithStore(s.id).WithDetail(detail)
	s.logger.Warn(e.Message, "code", e.Code, "detail", e.Detail)
}

// ID returns the store id.
func (s *Store) ID() string {
	return s.id
}

// Registry returns the registry the store belongs to.
func (s *Store) Registry() *Registry {
	return s.registry
}

// State returns the store's state object. Writes to it are direct mutations
// and notify subscriptions.
func (s *Store) State() *reactive.Object {
	return s.state
}

// Snapshot returns a plain deep copy of the state.
func (s *Store) Snapshot() map[string]any {
	return s.state.Snapshot()
}

// Get reads a state field, subscribing the current listener.
func (s *Store) Get(key string) any {
	return s.state.Get(key)
}

// Set writes a state field.
func (s *Store) Set(key string, value any) {
	s.state.Set(key, value)
}

// Getter returns the value of a getter, or of a value assigned over it with
// SetProp. Unknown names return nil.
func (s *Store) Getter(name string) any {
	if v, ok := s.overrides.Lookup(name); ok {
		return v
	}
	if g, ok := s.getters[name]; ok {
		return g.GetAny()
	}
	return nil
}

// HasGetter reports whether name is a getter of the store.
func (s *Store) HasGetter(name string) bool {
	_, ok := s.getters[name]
	return ok
}

// Getters returns the getter names, sorted.
func (s *Store) Getters() []string {
	return sortedNames(s.getters)
}

// Actions returns the action names, sorted.
func (s *Store) Actions() []string {
	return sortedNames(s.actions)
}

// Prop resolves name the way a property access on the store would:
// overrides, then getters, then plugin props, then state.
func (s *Store) Prop(name string) any {
	if v, ok := s.overrides.Lookup(name); ok {
		return v
	}
	if g, ok := s.getters[name]; ok {
		return g.GetAny()
	}

	s.propsMu.RLock()
	p, ok := s.props[name]
	s.propsMu.RUnlock()
	if ok {
		switch v := p.(type) {
		case stateRef:
			return s.state.Get(name)
		case reactive.Computed:
			return v.GetAny()
		default:
			return v
		}
	}
	return s.state.Get(name)
}

// SetProp assigns a store property. Props bound to state and plain state
// fields are written through to state. Getters and computed props are
// shadowed by value until SetProp(name, nil) restores them.
func (s *Store) SetProp(name string, value any) {
	s.propsMu.RLock()
	p, isProp := s.props[name]
	s.propsMu.RUnlock()

	_, isGetter := s.getters[name]
	_, isComputedProp := p.(reactive.Computed)

	if isGetter || isComputedProp {
		if value == nil {
			s.overrides.Delete(name)
		} else {
			s.overrides.Set(name, value)
		}
		return
	}

	if _, bound := p.(stateRef); bound || !isProp {
		s.state.Set(name, value)
		return
	}

	s.propsMu.Lock()
	s.props[name] = value
	s.propsMu.Unlock()
}

// Props returns the names of the plugin props, sorted.
func (s *Store) Props() []string {
	s.propsMu.RLock()
	defer s.propsMu.RUnlock()
	return sortedNames(s.props)
}

// OnDispose registers fn to run when the store is disposed.
func (s *Store) OnDispose(fn func()) {
	s.scope.OnCleanup(fn)
}

// IsDisposed reports whether the store has been disposed.
func (s *Store) IsDisposed() bool {
	return s.disposed.Load()
}

// Dispose stops the store: its getters, watcher, subscriptions and action
// listeners are torn down and the registry forgets it. The state stays in
// the registry state tree, so using the definition again rebuilds the store
// from it.
func (s *Store) Dispose() {
	if s.disposed.Swap(true) {
		return
	}

	s.listenersMu.Lock()
	for _, sub := range s.subscriptions {
		sub.active.Store(false)
	}
	s.subscriptions = nil
	s.actionListeners = nil
	s.listenersMu.Unlock()

	s.scope.Dispose()
	s.registry.unregister(s)
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
