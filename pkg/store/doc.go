// Package store provides named, reactive state containers built on
// pkg/reactive.
//
// A store is declared once with a Definition and instantiated lazily, one
// instance per id and Registry:
//
//	var useCounter = store.Define("counter", store.Options{
//	    State: func() any { return map[string]any{"n": 0} },
//	    Getters: map[string]store.Getter{
//	        "double": func(s *store.Store) any { return s.Get("n").(int) * 2 },
//	    },
//	    Actions: map[string]store.Action{
//	        "increment": func(ctx context.Context, s *store.Store, args ...any) (any, error) {
//	            s.Set("n", s.Get("n").(int)+1)
//	            return nil, nil
//	        },
//	    },
//	})
//
//	r := store.NewRegistry()
//	counter := useCounter.Use(r)
//	counter.Call(ctx, "increment")
//	counter.Getter("double") // 2
//
// Setup stores are declared with DefineSetup. The setup function returns a
// map whose values are classified by their reactive kind: cells become
// state, memos become getters and functions become actions.
//
// # Mutations
//
// Every store has one state object living under its id in the registry's
// state tree. Direct writes, Patch, PatchFunc, ReplaceState and Reset all
// notify subscriptions registered with Subscribe. A patch notifies once no
// matter how many fields it touches.
//
// # Plugins
//
// Plugins registered with Registry.Use run once per store construction and
// may add properties and state fields. See Plugin.
package store
