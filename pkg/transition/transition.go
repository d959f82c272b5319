// Package transition provides a tween-driven exit transition that plugs
// into an animation.Registry.
//
// A Transition listens for removal requests for one key. When one arrives
// it marks the key animating and starts a tween; Update advances the tween
// and, once it finishes, ends the animation and signals the registry that
// visual state changed so the owning list renders again.
//
// Transitions are driven by the caller. There is no internal ticker:
//
//	t := transition.New(reg, "row-7", transition.WithDuration(250*time.Millisecond))
//	defer t.Dispose()
//	for range ticker.C {
//	    t.Update(16 * time.Millisecond)
//	}
package transition

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/vango-dev/transitiongroup/pkg/animation"
	"github.com/vango-dev/transitiongroup/pkg/subscription"
)

// Defaults.
const (
	DefaultDuration = 300 * time.Millisecond
	DefaultFrom     = 1
	DefaultTo       = 0
)

// Option configures a Transition.
type Option func(*config)

type config struct {
	duration time.Duration
	easing   ease.TweenFunc
	from, to float32
	logger   *slog.Logger
}

func defaultConfig() config {
	return config{
		duration: DefaultDuration,
		easing:   ease.OutQuad,
		from:     DefaultFrom,
		to:       DefaultTo,
		logger:   slog.Default(),
	}
}

// WithDuration sets how long the exit transition plays.
func WithDuration(d time.Duration) Option {
	return func(c *config) {
		c.duration = d
	}
}

// WithEasing sets the easing function. Default: ease.OutQuad.
func WithEasing(fn ease.TweenFunc) Option {
	return func(c *config) {
		if fn != nil {
			c.easing = fn
		}
	}
}

// WithRange sets the tweened value's start and end. Default: 1 to 0.
func WithRange(from, to float32) Option {
	return func(c *config) {
		c.from = from
		c.to = to
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// Transition is the exit transition of one keyed child.
type Transition struct {
	reg *animation.Registry
	key any
	cfg config
	sub *subscription.Subscription

	mu      sync.Mutex
	tween   *gween.Tween
	value   float32
	leaving bool
	done    bool
}

// New creates a Transition for key and subscribes it to removal requests.
// Dispose must be called exactly once.
func New(reg *animation.Registry, key any, opts ...Option) *Transition {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	t := &Transition{
		reg:   reg,
		key:   key,
		cfg:   cfg,
		value: cfg.from,
	}
	t.sub = reg.SubscribeRemoval(key, t.start)
	return t
}

// start begins (or restarts, once finished) the exit tween.
func (t *Transition) start() {
	t.mu.Lock()
	if t.leaving && !t.done {
		t.mu.Unlock()
		return
	}
	t.tween = gween.New(t.cfg.from, t.cfg.to, float32(t.cfg.duration.Seconds()), t.cfg.easing)
	t.value = t.cfg.from
	t.leaving = true
	t.done = false
	t.mu.Unlock()

	t.reg.Begin(t.key)
	t.cfg.logger.Debug("transition: leaving", "key", t.key, "duration", t.cfg.duration)
}

// Update advances the tween by dt. It reports whether the transition
// finished during this call.
func (t *Transition) Update(dt time.Duration) bool {
	t.mu.Lock()
	if !t.leaving || t.done {
		t.mu.Unlock()
		return false
	}
	v, finished := t.tween.Update(float32(dt.Seconds()))
	t.value = v
	t.done = finished
	t.mu.Unlock()

	if finished {
		t.reg.End(t.key)
		t.cfg.logger.Debug("transition: finished", "key", t.key)
		t.reg.NotifyChanged()
	}
	return finished
}

// Key returns the child key.
func (t *Transition) Key() any {
	return t.key
}

// Value returns the current tweened value.
func (t *Transition) Value() float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

// Leaving reports whether an exit is playing.
func (t *Transition) Leaving() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.leaving && !t.done
}

// Done reports whether the last exit finished.
func (t *Transition) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// Dispose unsubscribes the transition. An exit still playing is ended so the
// child does not linger. A second Dispose panics.
func (t *Transition) Dispose() {
	t.sub.Release()

	t.mu.Lock()
	playing := t.leaving && !t.done
	t.done = true
	t.mu.Unlock()

	if playing {
		t.reg.End(t.key)
	}
}
