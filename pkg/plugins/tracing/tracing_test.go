package tracing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/depot/pkg/store"
)

// recorder is a TracerProvider that keeps every started span.
type recorder struct {
	noop.TracerProvider

	mu    sync.Mutex
	spans []*recordedSpan
}

func (r *recorder) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return &recordingTracer{rec: r}
}

func (r *recorder) byName(name string) *recordedSpan {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.spans {
		if s.name == name {
			return s
		}
	}
	return nil
}

type recordingTracer struct {
	noop.Tracer
	rec *recorder
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordedSpan{
		name:   name,
		attrs:  cfg.Attributes(),
		parent: spanName(trace.SpanFromContext(ctx)),
	}
	t.rec.mu.Lock()
	t.rec.spans = append(t.rec.spans, s)
	t.rec.mu.Unlock()
	return trace.ContextWithSpan(ctx, s), s
}

func spanName(s trace.Span) string {
	if rs, ok := s.(*recordedSpan); ok {
		return rs.name
	}
	return ""
}

type recordedSpan struct {
	noop.Span

	name   string
	parent string
	attrs  []attribute.KeyValue
	status codes.Code
	errs   []error
	ended  bool
}

func (s *recordedSpan) End(...trace.SpanEndOption) { s.ended = true }

func (s *recordedSpan) RecordError(err error, _ ...trace.EventOption) {
	s.errs = append(s.errs, err)
}

func (s *recordedSpan) SetStatus(code codes.Code, _ string) { s.status = code }

func (s *recordedSpan) attr(key string) (attribute.Value, bool) {
	for _, kv := range s.attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

var errDeclined = errors.New("card declined")

var useCart = store.Define("cart", store.Options{
	State: func() any { return map[string]any{"items": 0} },
	Actions: map[string]store.Action{
		"add": func(ctx context.Context, s *store.Store, args ...any) (any, error) {
			s.Set("items", s.Get("items").(int)+1)
			return nil, nil
		},
		"checkout": func(ctx context.Context, s *store.Store, args ...any) (any, error) {
			if _, err := s.Call(ctx, "add"); err != nil {
				return nil, err
			}
			return nil, errDeclined
		},
	},
})

func newTraced(t *testing.T, opts ...Option) (*recorder, *store.Store) {
	t.Helper()
	rec := &recorder{}
	r := store.NewRegistry()
	t.Cleanup(r.Dispose)
	r.Use(Plugin(append([]Option{WithTracerProvider(rec)}, opts...)...))
	return rec, useCart.Use(r)
}

func TestPlugin_SpanPerAction(t *testing.T) {
	rec, s := newTraced(t, WithAttributeExtractor(func(ac *store.ActionContext) []attribute.KeyValue {
		return []attribute.KeyValue{attribute.String("test.attr", "ok")}
	}))

	if _, err := s.Call(context.Background(), "add", 1, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	span := rec.byName(SpanName("cart", "add"))
	if span == nil {
		t.Fatal("expected a span for the action")
	}
	if !span.ended || span.status != codes.Ok {
		t.Errorf("span ended=%v status=%v", span.ended, span.status)
	}
	if v, ok := span.attr("depot.store"); !ok || v.AsString() != "cart" {
		t.Errorf("depot.store = %v", v.Emit())
	}
	if v, ok := span.attr("depot.args"); !ok || v.AsInt64() != 2 {
		t.Errorf("depot.args = %v", v.Emit())
	}
	if _, ok := span.attr("depot.args_value"); ok {
		t.Error("args should not be recorded by default")
	}
	if v, ok := span.attr("test.attr"); !ok || v.AsString() != "ok" {
		t.Error("expected custom attribute")
	}
}

func TestPlugin_ErrorRecordedAndNestedSpans(t *testing.T) {
	rec, s := newTraced(t)

	_, err := s.Call(context.Background(), "checkout")
	if !errors.Is(err, errDeclined) {
		t.Fatalf("expected errDeclined, got %v", err)
	}

	checkout := rec.byName(SpanName("cart", "checkout"))
	if checkout == nil || !checkout.ended {
		t.Fatal("expected an ended checkout span")
	}
	if checkout.status != codes.Error || len(checkout.errs) != 1 || checkout.errs[0] != errDeclined {
		t.Errorf("status=%v errs=%v", checkout.status, checkout.errs)
	}

	add := rec.byName(SpanName("cart", "add"))
	if add == nil || add.parent != checkout.name {
		t.Errorf("nested action span should be a child of checkout, got %+v", add)
	}
}

func TestPlugin_FilterAndArgs(t *testing.T) {
	rec, s := newTraced(t,
		WithIncludeArgs(true),
		WithFilter(func(_, action string) bool { return action != "checkout" }),
	)

	_, _ = s.Call(context.Background(), "checkout")

	if rec.byName(SpanName("cart", "checkout")) != nil {
		t.Error("filtered action should not be traced")
	}
	add := rec.byName(SpanName("cart", "add"))
	if add == nil {
		t.Fatal("unfiltered nested action should be traced")
	}
	if _, ok := add.attr("depot.args_value"); !ok {
		t.Error("args should be recorded when enabled")
	}
}

func TestPlugin_DefaultsToGlobalProvider(t *testing.T) {
	r := store.NewRegistry()
	defer r.Dispose()
	r.Use(Plugin())

	s := useCart.Use(r)
	if _, err := s.Call(context.Background(), "add"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
