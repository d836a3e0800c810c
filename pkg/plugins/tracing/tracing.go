// Package tracing provides a store plugin that wraps every action in an
// OpenTelemetry span.
package tracing

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/depot/pkg/store"
)

// Default tracer name for depot stores.
const defaultTracerName = "depot"

// Config configures the tracing plugin.
type Config struct {
	// TracerName is the name of the tracer (default: "depot").
	TracerName string

	// TracerProvider provides the tracer.
	// Default: the global provider from otel.GetTracerProvider.
	TracerProvider trace.TracerProvider

	// IncludeArgs records the action arguments as a span attribute.
	// May contain sensitive information - disabled by default.
	IncludeArgs bool

	// Filter determines which actions to trace.
	// If nil, all actions are traced.
	Filter func(storeID, action string) bool

	// AttributeExtractor adds custom attributes for each traced action.
	AttributeExtractor func(ac *store.ActionContext) []attribute.KeyValue
}

// Option configures the tracing plugin.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.TracerProvider = tp
	}
}

// WithIncludeArgs enables recording action arguments.
func WithIncludeArgs(include bool) Option {
	return func(c *Config) {
		c.IncludeArgs = include
	}
}

// WithFilter sets a filter function for actions.
func WithFilter(filter func(storeID, action string) bool) Option {
	return func(c *Config) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(ac *store.ActionContext) []attribute.KeyValue) Option {
	return func(c *Config) {
		c.AttributeExtractor = extractor
	}
}

func defaultConfig() Config {
	return Config{TracerName: defaultTracerName}
}

// Plugin returns a store plugin that starts a span for every action. The
// action runs with the span's context, so spans started inside it, including
// nested actions, become children.
//
// Example:
//
//	otel.SetTracerProvider(tp)
//	r := store.NewRegistry()
//	r.Use(tracing.Plugin(tracing.WithTracerName("checkout")))
func Plugin(opts ...Option) store.Plugin {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	tracer := config.TracerProvider.Tracer(config.TracerName)

	return func(ctx store.PluginContext) map[string]any {
		s := ctx.Store
		id := s.ID()
		registryID := ctx.Registry.ID()

		s.OnAction(func(ac *store.ActionContext) {
			if config.Filter != nil && !config.Filter(id, ac.Name) {
				return
			}

			attrs := []attribute.KeyValue{
				attribute.String("depot.store", id),
				attribute.String("depot.action", ac.Name),
				attribute.String("depot.registry", registryID),
				attribute.Int("depot.args", len(ac.Args)),
			}
			if config.IncludeArgs {
				attrs = append(attrs, attribute.String("depot.args_value", fmt.Sprint(ac.Args...)))
			}
			if config.AttributeExtractor != nil {
				attrs = append(attrs, config.AttributeExtractor(ac)...)
			}

			spanCtx, span := tracer.Start(ac.Context(), SpanName(id, ac.Name),
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(attrs...),
			)
			ac.SetContext(spanCtx)

			ac.After(func(any) {
				span.SetStatus(codes.Ok, "")
				span.End()
			})
			ac.OnError(func(err error) {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				span.End()
			})
		}, true)

		return nil
	}
}

// SpanName returns the span name used for an action.
func SpanName(storeID, action string) string {
	return "depot." + storeID + "." + action
}
