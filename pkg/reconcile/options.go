package reconcile

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/transitiongroup/pkg/animation"
	"github.com/vango-dev/transitiongroup/pkg/throttle"
)

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the reconciler logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = l
	}
}

// WithRegistry shares an existing animation registry. By default every
// reconciler owns a fresh one.
func WithRegistry(reg *animation.Registry) Option {
	return func(r *Reconciler) {
		r.registry = reg
	}
}

// WithMetrics records pass statistics.
func WithMetrics(m *Metrics) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

// WithTracer sets the tracer used for render pass spans.
// Default: otel.Tracer("transitiongroup").
func WithTracer(t trace.Tracer) Option {
	return func(r *Reconciler) {
		r.tracer = t
	}
}

// WithMaxRendersPerSecond throttles invalidation signals. Zero delivers
// every signal immediately.
func WithMaxRendersPerSecond(n uint8) Option {
	return func(r *Reconciler) {
		r.maxPerSecond = n
	}
}

// WithKeyAttribute sets the attribute name top-level component keys are
// re-emitted under. Empty disables it. Default: "Key".
func WithKeyAttribute(name string) Option {
	return func(r *Reconciler) {
		r.keyAttribute = name
	}
}

// WithThrottleOptions passes options to the invalidation notifier.
func WithThrottleOptions(opts ...throttle.Option) Option {
	return func(r *Reconciler) {
		r.throttleOpts = append(r.throttleOpts, opts...)
	}
}
