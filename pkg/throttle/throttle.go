// Package throttle provides a rate-limited fan-out notifier used to
// coalesce bursts of "please re-render" signals.
//
// A Notifier dispatches a value to every subscriber. With a rate limit of
// N calls per second it enforces a window of 1000/N milliseconds between
// dispatches: a call outside the window dispatches immediately, a call
// inside it schedules a single trailing dispatch that replaces any pending
// one. Calls that race with an in-progress decision are dropped.
package throttle

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vango-dev/transitiongroup/pkg/subscription"
)

// Option configures a Notifier.
type Option func(*options)

type options struct {
	clock      Clock
	logger     *slog.Logger
	onDispatch func(deferred bool)
}

// WithClock sets the time source. Default: the system clock.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithLogger sets the logger for deferral diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithDispatchHook registers a function called after every dispatch.
// deferred is true when the dispatch came from the trailing timer.
func WithDispatchHook(fn func(deferred bool)) Option {
	return func(o *options) {
		o.onDispatch = fn
	}
}

type subscriber[T any] struct {
	fn func(T)
}

// Notifier fans a value out to subscribers, optionally rate limited.
type Notifier[T any] struct {
	clock      Clock
	logger     *slog.Logger
	onDispatch func(deferred bool)

	// window is the current throttle window in nanoseconds.
	window atomic.Int64

	// deciding guards the dispatch-now-or-later decision. Losers skip.
	deciding atomic.Bool

	// stateMu protects lastDispatch and the pending timer.
	stateMu      sync.Mutex
	lastDispatch time.Time
	pending      Timer
	generation   uint64

	// subsMu protects subs. It is never held while subscribers run, so a
	// subscriber may notify again.
	subsMu sync.Mutex
	subs   []*subscriber[T]
}

// idleGap backdates the initial dispatch time so the first throttled call
// always dispatches immediately.
const idleGap = 65535 * time.Millisecond

// New creates a Notifier.
func New[T any](opts ...Option) *Notifier[T] {
	o := options{
		clock:  realClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Notifier[T]{
		clock:        o.clock,
		logger:       o.logger,
		onDispatch:   o.onDispatch,
		lastDispatch: o.clock.Now().Add(-idleGap),
	}
}

// Subscribe registers fn. Release the returned handle exactly once.
func (n *Notifier[T]) Subscribe(fn func(T)) *subscription.Subscription {
	s := &subscriber[T]{fn: fn}

	n.subsMu.Lock()
	n.subs = append(n.subs, s)
	n.subsMu.Unlock()

	return subscription.New("throttle.Notifier subscription", func() {
		n.subsMu.Lock()
		defer n.subsMu.Unlock()
		for i, existing := range n.subs {
			if existing == s {
				n.subs = append(n.subs[:i], n.subs[i+1:]...)
				return
			}
		}
	})
}

// Window returns the throttle window set by the last NotifyThrottled call.
func (n *Notifier[T]) Window() time.Duration {
	return time.Duration(n.window.Load())
}

// Notify dispatches v to all subscribers immediately and clears any rate
// limit.
func (n *Notifier[T]) Notify(v T) {
	n.NotifyThrottled(v, 0)
}

// NotifyThrottled dispatches v, allowing at most maxPerSecond dispatches per
// second. Zero disables throttling.
func (n *Notifier[T]) NotifyThrottled(v T, maxPerSecond uint8) {
	var window time.Duration
	if maxPerSecond != 0 {
		window = time.Second / time.Duration(maxPerSecond)
	}
	n.window.Store(int64(window))

	if window == 0 {
		n.dispatch(v, false, 0)
		return
	}

	if !n.deciding.CompareAndSwap(false, true) {
		return
	}
	defer n.deciding.Store(false)

	n.stateMu.Lock()
	elapsed := n.clock.Now().Sub(n.lastDispatch)
	if elapsed >= window {
		n.stateMu.Unlock()
		n.dispatch(v, false, 0)
		return
	}

	if n.pending != nil {
		n.pending.Stop()
	}
	n.generation++
	gen := n.generation
	delay := window - elapsed
	n.pending = n.clock.AfterFunc(delay, func() {
		n.dispatch(v, true, gen)
	})
	n.stateMu.Unlock()

	n.logger.Debug("throttle: deferred dispatch", "delay", delay)
}

// Stop cancels a pending deferred dispatch, if any.
func (n *Notifier[T]) Stop() {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	if n.pending != nil {
		n.pending.Stop()
		n.pending = nil
	}
	n.generation++
}

// dispatch fans v out. A deferred dispatch whose generation has been
// superseded is skipped.
func (n *Notifier[T]) dispatch(v T, deferred bool, gen uint64) {
	if deferred {
		n.stateMu.Lock()
		if gen != n.generation {
			n.stateMu.Unlock()
			return
		}
		n.stateMu.Unlock()
	}

	n.subsMu.Lock()
	subs := make([]*subscriber[T], len(n.subs))
	copy(subs, n.subs)
	n.subsMu.Unlock()

	defer func() {
		n.stateMu.Lock()
		switch {
		case deferred && gen == n.generation:
			n.pending = nil
		case !deferred && n.pending != nil:
			// An immediate dispatch supersedes the trailing one.
			n.pending.Stop()
			n.pending = nil
			n.generation++
		}
		n.lastDispatch = n.clock.Now()
		n.stateMu.Unlock()

		if n.onDispatch != nil {
			n.onDispatch(deferred)
		}
	}()

	for _, s := range subs {
		s.fn(v)
	}
}
