package store

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/vango-dev/depot/internal/errors"
	"github.com/vango-dev/depot/pkg/reactive"
)

// Registry holds the global state tree, the plugin list and the live stores.
// Stores with the same id under different registries share nothing.
type Registry struct {
	id     string
	state  *reactive.Object
	scope  *reactive.Owner
	logger *slog.Logger
	app    any

	mu      sync.Mutex
	plugins []Plugin
	stores  map[string]*Store

	// building serializes construction per store id.
	buildMu  sync.Mutex
	building map[string]*sync.Mutex

	disposed atomic.Bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for construction warnings.
// The default is slog.Default().
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithApp sets the host application value handed to plugins.
func WithApp(app any) RegistryOption {
	return func(r *Registry) {
		r.app = app
	}
}

// NewRegistry creates an empty registry with its own disposal scope.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		id:       uuid.Must(uuid.NewV7()).String(),
		logger:   slog.Default(),
		stores:   make(map[string]*Store),
		building: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.scope = reactive.NewOwner(nil)
	r.state = reactive.NewObject()
	r.logger = r.logger.With("registry", r.id)
	return r
}

// ID returns the registry's unique identifier.
func (r *Registry) ID() string {
	return r.id
}

// App returns the value set with WithApp, or nil.
func (r *Registry) App() any {
	return r.app
}

// Logger returns the registry's logger.
func (r *Registry) Logger() *slog.Logger {
	return r.logger
}

// State returns the global state tree. Each key is a store id and each value
// the *reactive.Object holding that store's state. Writing a map under an id
// before the store is first used hydrates it.
func (r *Registry) State() *reactive.Object {
	return r.state
}

// Use appends a plugin. Plugins only apply to stores constructed after they
// are registered.
func (r *Registry) Use(p Plugin) *Registry {
	if p == nil {
		panic(errors.New("E130").WithDetail("plugin is nil"))
	}
	r.mu.Lock()
	r.plugins = append(r.plugins, p)
	r.mu.Unlock()
	return r
}

// Store returns the live store with the given id.
func (r *Registry) Store(id string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[id]
	return s, ok
}

// Stores returns the ids of the live stores, sorted.
func (r *Registry) Stores() []string {
	r.mu.Lock()
	ids := make([]string, 0, len(r.stores))
	for id := range r.stores {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// IsDisposed reports whether Dispose has been called.
func (r *Registry) IsDisposed() bool {
	return r.disposed.Load()
}

// Dispose disposes every live store and the registry's scope.
func (r *Registry) Dispose() {
	if r.disposed.Swap(true) {
		return
	}

	r.mu.Lock()
	stores := make([]*Store, 0, len(r.stores))
	for _, s := range r.stores {
		stores = append(stores, s)
	}
	r.mu.Unlock()

	for _, s := range stores {
		s.Dispose()
	}
	r.scope.Dispose()

	if ActiveRegistry() == r {
		SetActiveRegistry(nil)
	}
}

func (r *Registry) snapshotPlugins() []Plugin {
	r.mu.Lock()
	defer r.mu.Unlock()
	plugins := make([]Plugin, len(r.plugins))
	copy(plugins, r.plugins)
	return plugins
}

// buildLock returns the lock guarding construction of the store id.
func (r *Registry) buildLock(id string) *sync.Mutex {
	r.buildMu.Lock()
	defer r.buildMu.Unlock()
	l, ok := r.building[id]
	if !ok {
		l = &sync.Mutex{}
		r.building[id] = l
	}
	return l
}

func (r *Registry) register(s *Store) {
	r.mu.Lock()
	r.stores[s.id] = s
	r.mu.Unlock()
}

// unregister removes s if it is still the live store for its id.
func (r *Registry) unregister(s *Store) {
	r.mu.Lock()
	if r.stores[s.id] == s {
		delete(r.stores, s.id)
	}
	r.mu.Unlock()
}

var active atomic.Pointer[Registry]

// SetActiveRegistry sets the registry used by Definition.Use(nil).
// Passing nil clears it.
func SetActiveRegistry(r *Registry) {
	active.Store(r)
}

// ActiveRegistry returns the registry set by SetActiveRegistry, or nil.
func ActiveRegistry() *Registry {
	return active.Load()
}
