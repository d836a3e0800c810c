package store

import (
	"reflect"

	"github.com/vango-dev/depot/pkg/reactive"
)

// PluginContext is handed to each plugin when a store is constructed.
type PluginContext struct {
	Store    *Store
	App      any
	Registry *Registry

	// Options is the option store declaration. Setup stores report their
	// id and actions only.
	Options Options

	// Existing holds the props returned by earlier plugins for this store.
	Existing map[string]any
}

// Plugin augments a freshly constructed store. The returned props are added
// to the store:
//
//   - a reactive.Computed is a read-only prop
//   - a reactive.Cell is stored in the state unless the state already has
//     the key, and the prop is bound to that state field
//   - a function is a plain prop
//   - any other value is mirrored into the state unless the state already
//     has the key, and the prop is bound to that state field
//
// Plugins run inside the store's disposal scope, so memos they create are
// disposed with the store.
type Plugin func(ctx PluginContext) map[string]any

func (s *Store) applyPlugins() {
	plugins := s.registry.snapshotPlugins()
	if len(plugins) == 0 {
		return
	}

	opts := s.pluginOptions()
	existing := make(map[string]any)

	reactive.Untracked(func() {
		s.scope.Run(func() {
			for _, p := range plugins {
				ctx := PluginContext{
					Store:    s,
					App:      s.registry.app,
					Registry: s.registry,
					Options:  opts,
					Existing: copyProps(existing),
				}
				props := p(ctx)
				for _, name := range sortedNames(props) {
					s.augment(name, props[name])
					existing[name] = props[name]
				}
			}
		})
	})
}

func (s *Store) pluginOptions() Options {
	if s.def.setup == nil {
		return s.def.options
	}
	actions := make(map[string]Action, len(s.actions))
	for name, action := range s.actions {
		actions[name] = action
	}
	return Options{ID: s.id, Actions: actions}
}

// augment adds one plugin prop.
func (s *Store) augment(name string, value any) {
	var prop any = stateRef{}

	switch reactive.KindOf(value) {
	case reactive.KindComputed:
		prop = value
	default:
		if value != nil && reflect.TypeOf(value).Kind() == reflect.Func {
			prop = value
			break
		}
		if _, exists := s.state.Raw(name); !exists {
			s.muted.Add(1)
			s.state.Set(name, value)
			s.muted.Add(-1)
		}
	}

	s.propsMu.Lock()
	s.props[name] = prop
	s.propsMu.Unlock()
}

func copyProps(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
