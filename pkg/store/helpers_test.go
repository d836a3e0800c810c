package store

import (
	"context"
	"log/slog"
	"sync"
	"testing"
)

// captureHandler records log records for assertions.
type captureHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

// countCode returns how many warnings carried the given code.
func (h *captureHandler) countCode(code string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == "code" && a.Value.String() == code {
				n++
				return false
			}
			return true
		})
	}
	return n
}

func newTestRegistry(t *testing.T) (*Registry, *captureHandler) {
	t.Helper()
	h := &captureHandler{}
	r := NewRegistry(WithLogger(slog.New(h)))
	t.Cleanup(func() {
		r.Dispose()
		SetActiveRegistry(nil)
	})
	return r, h
}

func mustInt(t *testing.T, v any) int {
	t.Helper()
	n, ok := v.(int)
	if !ok {
		t.Fatalf("expected int, got %T (%v)", v, v)
	}
	return n
}

var useCounter = Define("counter", Options{
	State: func() any { return map[string]any{"n": 0} },
	Getters: map[string]Getter{
		"double": func(s *Store) any { return s.Get("n").(int) * 2 },
	},
	Actions: map[string]Action{
		"increment": func(ctx context.Context, s *Store, args ...any) (any, error) {
			by := 1
			if len(args) > 0 {
				by = args[0].(int)
			}
			s.Set("n", s.Get("n").(int)+by)
			return s.Get("n"), nil
		},
	},
})

var useMain = Define("main", Options{
	State: func() any {
		return map[string]any{
			"a": true,
			"nested": map[string]any{
				"foo": "foo",
				"a":   map[string]any{"b": "string"},
			},
		}
	},
})
