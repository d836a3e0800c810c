// Package metrics provides a store plugin that exports Prometheus metrics
// for actions, mutations and live stores.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	derrors "github.com/vango-dev/depot/internal/errors"
	"github.com/vango-dev/depot/pkg/reactive"
	"github.com/vango-dev/depot/pkg/store"
)

// Config configures the metrics plugin.
type Config struct {
	// Namespace is the metrics namespace (default: "depot").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for action duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the metrics plugin.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "depot",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector holds the metrics shared by every store the plugin is applied
// to.
type Collector struct {
	actionsTotal   *prometheus.CounterVec
	actionErrors   *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	mutationsTotal *prometheus.CounterVec
	liveStores     prometheus.Gauge
}

// New registers the metrics with the configured registry. Registering twice
// on the same registry panics, as with promauto.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Collector{
		actionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "actions_total",
			Help:        "Total number of store actions by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "action", "status"}),

		actionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "action_errors_total",
			Help:        "Total number of failed store actions by error type",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "action", "error_type"}),

		actionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "action_duration_seconds",
			Help:        "Store action duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"store", "action"}),

		mutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mutations_total",
			Help:        "Total number of state mutations by type",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "type"}),

		liveStores: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_stores",
			Help:        "Number of constructed stores not yet disposed",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Plugin returns the store plugin feeding this collector.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	r := store.NewRegistry()
//	r.Use(metrics.New(metrics.WithRegistry(reg)).Plugin())
func (c *Collector) Plugin() store.Plugin {
	return func(ctx store.PluginContext) map[string]any {
		s := ctx.Store
		id := s.ID()

		c.liveStores.Inc()
		s.OnDispose(c.liveStores.Dec)

		s.OnAction(func(ac *store.ActionContext) {
			start := time.Now()
			name := ac.Name

			ac.After(func(any) {
				c.actionDuration.WithLabelValues(id, name).Observe(time.Since(start).Seconds())
				c.actionsTotal.WithLabelValues(id, name, "success").Inc()
			})
			ac.OnError(func(err error) {
				c.actionDuration.WithLabelValues(id, name).Observe(time.Since(start).Seconds())
				c.actionsTotal.WithLabelValues(id, name, "error").Inc()
				c.actionErrors.WithLabelValues(id, name, categorizeError(err)).Inc()
			})
		}, true)

		s.Subscribe(func(m store.Mutation, _ map[string]any) {
			c.mutationsTotal.WithLabelValues(id, m.Type.String()).Inc()
		}, store.WithFlush(reactive.FlushSync), store.Detached())

		return nil
	}
}

// categorizeError keeps the error_type label low-cardinality.
func categorizeError(err error) string {
	var pe *store.PanicError
	switch {
	case errors.As(err, &pe):
		return "panic"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	if code := derrors.CodeOf(err); code != "" {
		return code
	}
	return "internal"
}
