// Package animation tracks which children of a transition group are in the
// middle of an exit transition.
//
// A Registry is shared by reference between one reconciler and the
// transition components rendering its children. The reconciler asks a
// specific child to leave with RequestRemoval; the child's transition
// subscribes for its own key with SubscribeRemoval, plays its exit
// animation, then calls End and NotifyChanged so the reconciler re-renders
// without it.
package animation

import (
	"log/slog"
	"sync"

	"github.com/vango-dev/transitiongroup/pkg/subscription"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

type removalListener struct {
	key any
	fn  func()
}

type changeListener struct {
	fn func()
}

// Registry is the set of keys currently playing an exit transition plus the
// two notification channels around it. Keys must be comparable.
type Registry struct {
	logger *slog.Logger

	mu        sync.Mutex
	animating map[any]struct{}
	removal   []*removalListener
	changed   []*changeListener
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		logger:    slog.Default(),
		animating: make(map[any]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Begin marks key as animating. Calling it for an animating key is a no-op.
func (r *Registry) Begin(key any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.animating[key]; ok {
		return
	}
	r.animating[key] = struct{}{}
}

// End clears key's animating mark. Calling it for a key that is not
// animating is a no-op.
func (r *Registry) End(key any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.animating[key]; !ok {
		return
	}
	delete(r.animating, key)
}

// IsAnimating reports whether key is playing an exit transition.
func (r *Registry) IsAnimating(key any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.animating[key]
	return ok
}

// Animating returns a snapshot of the animating keys in no particular order.
func (r *Registry) Animating() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]any, 0, len(r.animating))
	for k := range r.animating {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of animating keys.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.animating)
}

// SubscribeRemoval registers fn to run whenever removal of key is requested.
func (r *Registry) SubscribeRemoval(key any, fn func()) *subscription.Subscription {
	l := &removalListener{key: key, fn: fn}

	r.mu.Lock()
	r.removal = append(r.removal, l)
	r.mu.Unlock()

	return subscription.New("animation.Registry removal subscription", func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.removal = removeListener(r.removal, l)
	})
}

// SubscribeChanged registers fn to run on every NotifyChanged.
func (r *Registry) SubscribeChanged(fn func()) *subscription.Subscription {
	l := &changeListener{fn: fn}

	r.mu.Lock()
	r.changed = append(r.changed, l)
	r.mu.Unlock()

	return subscription.New("animation.Registry change subscription", func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.changed = removeListener(r.changed, l)
	})
}

// RequestRemoval notifies the subscribers registered for key, and only
// those. Callbacks run synchronously on the caller's goroutine.
func (r *Registry) RequestRemoval(key any) {
	r.mu.Lock()
	var targets []func()
	for _, l := range r.removal {
		if l.key == key {
			targets = append(targets, l.fn)
		}
	}
	r.mu.Unlock()

	r.logger.Debug("animation: removal requested", "key", key, "listeners", len(targets))

	for _, fn := range targets {
		fn()
	}
}

// NotifyChanged tells every change subscriber that visual state changed.
func (r *Registry) NotifyChanged() {
	r.mu.Lock()
	targets := make([]func(), len(r.changed))
	for i, l := range r.changed {
		targets[i] = l.fn
	}
	r.mu.Unlock()

	for _, fn := range targets {
		fn()
	}
}

func removeListener[T any](list []*T, target *T) []*T {
	for i, l := range list {
		if l == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
