package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/vango-dev/depot/pkg/reactive"
)

var usePluginTarget = Define("test", Options{
	Actions: map[string]Action{
		"incrementN": func(ctx context.Context, s *Store, args ...any) (any, error) {
			n := s.Prop("pluginN").(int)
			s.SetProp("pluginN", n+1)
			return n, nil
		},
	},
	Getters: map[string]Getter{
		"doubleN": func(s *Store) any { return s.Get("pluginN").(int) * 2 },
	},
})

func TestPluginAddsProps(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Use(func(PluginContext) map[string]any { return map[string]any{"pluginN": 1} }).
		Use(func(PluginContext) map[string]any { return map[string]any{"hasApp": true} })

	s := usePluginTarget.Use(r)
	if mustInt(t, s.Prop("pluginN")) != 1 || s.Prop("hasApp") != true {
		t.Errorf("pluginN=%v hasApp=%v", s.Prop("pluginN"), s.Prop("hasApp"))
	}
	if !reflect.DeepEqual(s.Props(), []string{"hasApp", "pluginN"}) {
		t.Errorf("Props() = %v", s.Props())
	}
	if mustInt(t, s.Snapshot()["pluginN"]) != 1 {
		t.Error("raw plugin values should be mirrored into state")
	}
}

func TestPluginPropsUsableInActionsAndGetters(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Use(func(PluginContext) map[string]any { return map[string]any{"pluginN": 20} })

	s := usePluginTarget.Use(r)
	if mustInt(t, s.Getter("doubleN")) != 40 {
		t.Errorf("doubleN = %v, want 40", s.Getter("doubleN"))
	}
	got, err := s.Call(context.Background(), "incrementN")
	if err != nil || mustInt(t, got) != 20 {
		t.Errorf("incrementN = %v, %v", got, err)
	}
	if mustInt(t, s.Get("pluginN")) != 21 || mustInt(t, s.Getter("doubleN")) != 42 {
		t.Errorf("pluginN=%v doubleN=%v", s.Get("pluginN"), s.Getter("doubleN"))
	}
}

func TestPluginSkipsExistingStateKeys(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Use(func(PluginContext) map[string]any { return map[string]any{"n": 100} })

	s := useCounter.Use(r)
	if mustInt(t, s.Get("n")) != 0 {
		t.Errorf("existing state key should not be overwritten, got %v", s.Get("n"))
	}
	s.SetProp("n", 3)
	if mustInt(t, s.Get("n")) != 3 {
		t.Error("prop should stay bound to the state field")
	}
}

func TestPluginSharedCell(t *testing.T) {
	r, _ := newTestRegistry(t)
	shared := reactive.NewSignal(20)
	r.Use(func(PluginContext) map[string]any { return map[string]any{"shared": shared} })

	a := useCounter.Use(r)
	b := useMain.Use(r)

	for _, s := range []*Store{a, b} {
		if mustInt(t, s.Get("shared")) != 20 || mustInt(t, s.Prop("shared")) != 20 {
			t.Fatalf("%s: shared = %v", s.ID(), s.Get("shared"))
		}
	}

	a.Set("shared", 10)
	for _, s := range []*Store{a, b} {
		if mustInt(t, s.Get("shared")) != 10 || mustInt(t, s.Prop("shared")) != 10 {
			t.Errorf("%s: shared = %v after state write", s.ID(), s.Get("shared"))
		}
	}

	b.SetProp("shared", 1)
	for _, s := range []*Store{a, b} {
		if mustInt(t, s.Get("shared")) != 1 || mustInt(t, s.Prop("shared")) != 1 {
			t.Errorf("%s: shared = %v after prop write", s.ID(), s.Get("shared"))
		}
	}
	if shared.Peek() != 1 {
		t.Errorf("cell = %d, want 1", shared.Peek())
	}
}

func TestPluginStateKeyCheckIsIdempotent(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Use(func(ctx PluginContext) map[string]any {
		if !ctx.Store.State().Has("pluginN") {
			ctx.Store.State().Set("pluginN", reactive.NewSignal(20))
		}
		return nil
	})

	s := usePluginTarget.Use(r)
	if mustInt(t, s.Get("pluginN")) != 20 {
		t.Errorf("pluginN = %v, want 20", s.Get("pluginN"))
	}
}

func TestPluginReceivesOptions(t *testing.T) {
	r, _ := newTestRegistry(t)
	var got PluginContext
	r.Use(func(ctx PluginContext) map[string]any {
		got = ctx
		return nil
	})

	opts := Options{
		ID:    "main",
		State: func() any { return map[string]any{"n": 0} },
		Actions: map[string]Action{
			"increment": func(ctx context.Context, s *Store, args ...any) (any, error) { return nil, nil },
		},
		Getters: map[string]Getter{"a": func(*Store) any { return "a" }},
	}
	s := DefineOptions(opts).Use(r)

	if got.Store != s || got.Registry != r {
		t.Error("plugin context should carry the store and registry")
	}
	if got.Options.ID != "main" || len(got.Options.Actions) != 1 || len(got.Options.Getters) != 1 || got.Options.State == nil {
		t.Errorf("Options = %+v", got.Options)
	}
}

func TestPluginReceivesSetupOptions(t *testing.T) {
	r, _ := newTestRegistry(t)
	var n1 any
	var got Options
	r.Use(func(ctx PluginContext) map[string]any {
		got = ctx.Options
		if _, err := ctx.Store.Call(context.Background(), "increment"); err != nil {
			t.Errorf("increment from plugin: %v", err)
		}
		n1 = ctx.Store.Get("n")
		return nil
	})

	DefineSetup("main", func() map[string]any {
		n := reactive.NewSignal(0)
		return map[string]any{
			"n": n,
			"increment": func(ctx context.Context, args ...any) (any, error) {
				n.Set(n.Peek() + 1)
				return nil, nil
			},
			"a": reactive.NewMemo(func() string { return "a" }),
		}
	}).Use(r)

	if got.ID != "main" || len(got.Actions) != 1 || got.Actions["increment"] == nil {
		t.Errorf("setup Options = %+v", got)
	}
	if got.State != nil || got.Getters != nil {
		t.Error("setup Options should only carry actions")
	}
	if n1 != 1 {
		t.Errorf("n after plugin call = %v, want 1", n1)
	}
}

func TestPluginAppAndExisting(t *testing.T) {
	type app struct{ name string }
	r := NewRegistry(WithApp(&app{name: "demo"}))
	t.Cleanup(r.Dispose)

	var seenApp any
	var existing map[string]any
	r.Use(func(ctx PluginContext) map[string]any {
		seenApp = ctx.App
		return map[string]any{"globalA": "a"}
	}).Use(func(ctx PluginContext) map[string]any {
		existing = ctx.Existing
		return map[string]any{"globalB": "b"}
	})

	s := useMain.Use(r)
	if a, ok := seenApp.(*app); !ok || a.name != "demo" {
		t.Errorf("App = %v", seenApp)
	}
	if !reflect.DeepEqual(existing, map[string]any{"globalA": "a"}) {
		t.Errorf("Existing = %v", existing)
	}
	if s.Prop("globalA") != "a" || s.Prop("globalB") != "b" {
		t.Errorf("globalA=%v globalB=%v", s.Prop("globalA"), s.Prop("globalB"))
	}
}

func TestPluginComputedRunsInStoreScope(t *testing.T) {
	r, _ := newTestRegistry(t)
	var double *reactive.Memo[int]
	r.Use(func(ctx PluginContext) map[string]any {
		s := ctx.Store
		double = reactive.NewMemo(func() int { return s.Get("n").(int) * 2 })
		return map[string]any{"double": double}
	})

	s := Define("main", Options{State: func() any { return map[string]any{"n": 1} }}).Use(r)

	calls := 0
	w := reactive.Watch(func() { _ = s.Prop("double") }, func() { calls++ },
		reactive.WithFlush(reactive.FlushSync))
	defer w.Dispose()

	s.Set("n", 2)
	if calls != 1 {
		t.Errorf("watch on plugin computed should fire once, got %d", calls)
	}
	if _, mirrored := s.Snapshot()["double"]; mirrored {
		t.Error("computed props should not be mirrored into state")
	}

	s.Dispose()
	if !double.IsDisposed() {
		t.Error("plugin memo should be disposed with the store")
	}
}

func TestPluginComputedOverride(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Use(func(ctx PluginContext) map[string]any {
		s := ctx.Store
		return map[string]any{
			"triple": reactive.NewMemo(func() int { return s.Get("n").(int) * 3 }),
		}
	})
	s := useCounter.Use(r)

	s.Set("n", 1)
	if mustInt(t, s.Prop("triple")) != 3 {
		t.Fatalf("triple = %v", s.Prop("triple"))
	}
	s.SetProp("triple", 10)
	s.Set("n", 2)
	if mustInt(t, s.Prop("triple")) != 10 {
		t.Errorf("override should stick, got %v", s.Prop("triple"))
	}
	s.SetProp("triple", nil)
	if mustInt(t, s.Prop("triple")) != 6 {
		t.Errorf("clearing the override should restore the computed, got %v", s.Prop("triple"))
	}
}

func TestPluginFunctionProp(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Use(func(PluginContext) map[string]any {
		return map[string]any{"greet": func(name string) string { return "hi " + name }}
	})

	s := useMain.Use(r)
	greet, ok := s.Prop("greet").(func(string) string)
	if !ok || greet("ana") != "hi ana" {
		t.Errorf("greet = %v", s.Prop("greet"))
	}
	if _, mirrored := s.Snapshot()["greet"]; mirrored {
		t.Error("function props should not be mirrored into state")
	}
}

func TestPluginsApplyOnlyToLaterStores(t *testing.T) {
	r, _ := newTestRegistry(t)
	early := useMain.Use(r)
	r.Use(func(PluginContext) map[string]any { return map[string]any{"late": true} })
	later := useCounter.Use(r)

	if _, ok := early.Snapshot()["late"]; ok {
		t.Error("plugin registered later should not touch existing stores")
	}
	if later.Prop("late") != true {
		t.Error("plugin should apply to stores built after registration")
	}
}
