package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "transitiongroup").
	Namespace string

	// Subsystem is the metrics subsystem (default: "reconciler").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass duration.
	// Default: prometheus.ExponentialBuckets(0.0001, 2, 14)
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures MetricsConfig.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegisterer sets the Prometheus registerer.
func WithRegisterer(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "transitiongroup",
		Subsystem: "reconciler",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the reconciler collectors. One Metrics value may be shared
// by any number of reconcilers.
type Metrics struct {
	passes          *prometheus.CounterVec
	passDuration    prometheus.Histogram
	retained        prometheus.Counter
	removalRequests prometheus.Counter
	emitted         prometheus.Histogram
	animating       prometheus.Gauge
	invalidations   *prometheus.CounterVec
}

// NewMetrics registers the reconciler collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		passes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "passes_total",
			Help:        "Render passes by result (ok, duplicate_key, malformed)",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		passDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_duration_seconds",
			Help:        "Render pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		retained: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "retained_children_total",
			Help:        "Removed children reinserted to play an exit transition",
			ConstLabels: config.ConstLabels,
		}),

		removalRequests: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "removal_requests_total",
			Help:        "Exit transitions requested",
			ConstLabels: config.ConstLabels,
		}),

		emitted: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "emitted_children",
			Help:        "Children emitted per render pass",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.LinearBuckets(0, 8, 10),
		}),

		animating: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "animating_children",
			Help:        "Children playing an exit transition after the last pass",
			ConstLabels: config.ConstLabels,
		}),

		invalidations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "invalidations_total",
			Help:        "Re-render signals delivered, by dispatch mode (immediate, deferred)",
			ConstLabels: config.ConstLabels,
		}, []string{"mode"}),
	}
}

func (m *Metrics) observePass(result string, seconds float64, emitted int) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(result).Inc()
	m.passDuration.Observe(seconds)
	if result == resultOK {
		m.emitted.Observe(float64(emitted))
	}
}

func (m *Metrics) observeRetention(retained, requested, animating int) {
	if m == nil {
		return
	}
	m.retained.Add(float64(retained))
	m.removalRequests.Add(float64(requested))
	m.animating.Set(float64(animating))
}

func (m *Metrics) observeInvalidation(deferred bool) {
	if m == nil {
		return
	}
	mode := "immediate"
	if deferred {
		mode = "deferred"
	}
	m.invalidations.WithLabelValues(mode).Inc()
}
