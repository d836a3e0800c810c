package main

import (
	"context"
	"fmt"

	"github.com/vango-dev/depot/pkg/reactive"
	"github.com/vango-dev/depot/pkg/store"
)

// counterStore defines an option store holding one counter. The bench
// creates one per store id.
func counterStore(id string) *store.Definition {
	return store.Define(id, store.Options{
		State: func() any { return map[string]any{"n": 0} },
		Getters: map[string]store.Getter{
			"double": func(s *store.Store) any { return asInt(s.Get("n")) * 2 },
		},
		Actions: map[string]store.Action{
			"increment": func(ctx context.Context, s *store.Store, args ...any) (any, error) {
				by := 1
				if len(args) > 0 {
					by = asInt(args[0])
				}
				next := asInt(s.Get("n")) + by
				s.Set("n", next)
				return next, nil
			},
		},
	})
}

var useCounter = counterStore("counter")

var useCart = store.DefineSetup("cart", func() map[string]any {
	items := reactive.NewSignal([]any{})
	count := reactive.NewMemo(func() int { return len(items.Get()) })

	return map[string]any{
		"items": items,
		"count": count,
		"add": store.SetupAction(func(ctx context.Context, args ...any) (any, error) {
			if len(args) == 0 {
				return nil, fmt.Errorf("add: missing item")
			}
			items.Update(func(v []any) []any {
				return append(append([]any(nil), v...), args[0])
			})
			return len(items.Peek()), nil
		}),
		"$reset": func() {
			items.Set([]any{})
		},
	}
})

// demoStores are the stores the hydrate command builds.
var demoStores = []*store.Definition{useCounter, useCart}

// asInt reads a number decoded from YAML, JSON or Go code.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
