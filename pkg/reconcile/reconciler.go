// Package reconcile diffs successive render passes of a keyed child list
// and keeps removed children in place while their exit transition plays.
//
// Each pass parses the current children, merges in every keyed child the
// previous pass had but the current one lacks, requests an exit transition
// for newly removed keys, and emits the merged list. Retained children are
// emitted only while their key is animating; once the transition ends they
// drop out on the next pass.
package reconcile

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/transitiongroup/pkg/animation"
	"github.com/vango-dev/transitiongroup/pkg/frame"
	"github.com/vango-dev/transitiongroup/pkg/keyed"
	"github.com/vango-dev/transitiongroup/pkg/subscription"
	"github.com/vango-dev/transitiongroup/pkg/throttle"
	"github.com/vango-dev/transitiongroup/pkg/vdom"
)

const tracerName = "transitiongroup"

// Pass results, used as the "result" metric label.
const (
	resultOK           = "ok"
	resultDuplicateKey = "duplicate_key"
	resultMalformed    = "malformed"
	resultError        = "error"
)

// Reconciler owns one keyed child list. Render passes are serialized; a
// Reconciler must not be re-entered from a removal callback.
type Reconciler struct {
	id           uuid.UUID
	logger       *slog.Logger
	metrics      *Metrics
	tracer       trace.Tracer
	registry     *animation.Registry
	notifier     *throttle.Notifier[struct{}]
	parser       frame.Parser
	keyAttribute string
	maxPerSecond uint8
	throttleOpts []throttle.Option

	changed *subscription.Subscription

	mu     sync.Mutex
	prev   *keyed.Index
	passes uint64
	closed bool
}

// New creates a Reconciler. Call Close when done with it.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{
		id:           uuid.New(),
		logger:       slog.Default(),
		keyAttribute: frame.DefaultKeyAttribute,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.logger = r.logger.With("reconciler", r.id.String())
	if r.registry == nil {
		r.registry = animation.New(animation.WithLogger(r.logger))
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(tracerName)
	}
	r.parser = frame.Parser{AppendKey: r.keyAttribute != ""}

	topts := []throttle.Option{
		throttle.WithLogger(r.logger),
		throttle.WithDispatchHook(r.metrics.observeInvalidation),
	}
	r.notifier = throttle.New[struct{}](append(topts, r.throttleOpts...)...)
	r.changed = r.registry.SubscribeChanged(r.invalidate)

	return r
}

// ID returns the reconciler's instance ID.
func (r *Reconciler) ID() uuid.UUID {
	return r.id
}

// Registry returns the animation registry transitions report to.
func (r *Reconciler) Registry() *animation.Registry {
	return r.registry
}

// OnInvalidate registers fn to run when the child list should be rendered
// again, at most MaxRendersPerSecond times per second.
func (r *Reconciler) OnInvalidate(fn func()) *subscription.Subscription {
	return r.notifier.Subscribe(func(struct{}) { fn() })
}

func (r *Reconciler) invalidate() {
	r.notifier.NotifyThrottled(struct{}{}, r.maxPerSecond)
}

// Render runs one pass over ops and returns the merged output frames.
//
// A pass that fails leaves the previous pass's state, retention flags and
// the animation registry untouched.
func (r *Reconciler) Render(ctx context.Context, ops []frame.Op) ([]frame.Sequenced, error) {
	start := time.Now()
	_, span := r.tracer.Start(ctx, "transitiongroup.render",
		trace.WithAttributes(
			attribute.String("transitiongroup.reconciler", r.id.String()),
			attribute.Int("transitiongroup.ops", len(ops)),
		),
	)
	defer span.End()

	r.mu.Lock()
	res, err := r.pass(ops)
	r.mu.Unlock()

	if err != nil {
		result := classify(err)
		r.metrics.observePass(result, time.Since(start).Seconds(), 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("reconcile: pass aborted", "result", result, "error", err)
		return nil, err
	}

	r.metrics.observePass(resultOK, time.Since(start).Seconds(), res.emitted)
	r.metrics.observeRetention(res.retained, len(res.requests), r.registry.Len())
	span.SetAttributes(
		attribute.Int("transitiongroup.emitted", res.emitted),
		attribute.Int("transitiongroup.retained", res.retained),
		attribute.Int("transitiongroup.removal_requests", len(res.requests)),
	)
	span.SetStatus(codes.Ok, "")

	r.logger.Debug("reconcile: pass",
		"pass", res.pass,
		"children", res.emitted,
		"retained", res.retained,
		"requested", len(res.requests),
	)

	// Removal listeners run outside the lock so they may read Snapshot.
	for _, key := range res.requests {
		r.registry.RequestRemoval(key)
	}

	return res.frames, nil
}

// RenderNodes flattens children, runs a pass and materializes the output.
func (r *Reconciler) RenderNodes(ctx context.Context, children ...*vdom.VNode) ([]*vdom.VNode, error) {
	frames, err := r.Render(ctx, vdom.Flatten(children...))
	if err != nil {
		return nil, err
	}
	return vdom.Materialize(frames)
}

type passResult struct {
	frames   []frame.Sequenced
	requests []any
	retained int
	emitted  int
	pass     uint64
}

// pass must be called with r.mu held.
func (r *Reconciler) pass(ops []frame.Op) (passResult, error) {
	subtrees, err := r.parser.Parse(ops)
	if err != nil {
		return passResult{}, err
	}
	cur, err := keyed.New(subtrees)
	if err != nil {
		return passResult{}, err
	}

	var (
		res  passResult
		flag []*frame.Subtree
	)

	if r.prev != nil {
		for i, st := range r.prev.Sequence() {
			if !st.Keyed() || cur.Has(st.Key) {
				continue
			}
			animating := r.registry.IsAnimating(st.Key)
			if st.Retained && !animating {
				// Exit finished on an earlier pass.
				continue
			}
			if err := cur.InsertAt(i, st); err != nil {
				return passResult{}, err
			}
			res.retained++
			if !st.Retained {
				flag = append(flag, st)
			}
		}
	}

	// Nothing below can fail.
	for _, st := range flag {
		st.Retained = true
		if r.registry.IsAnimating(st.Key) {
			continue
		}
		r.registry.Begin(st.Key)
		res.requests = append(res.requests, st.Key)
	}

	b := frame.NewBuilder(r.keyAttribute)
	for _, st := range cur.Sequence() {
		if cur.Inserted(st.Key) && !r.registry.IsAnimating(st.Key) {
			continue
		}
		st.Emit(b)
		res.emitted++
	}

	r.prev = cur
	r.passes++
	res.frames = b.Frames()
	res.pass = r.passes
	return res, nil
}

func classify(err error) string {
	switch {
	case errors.Is(err, keyed.ErrDuplicateKey):
		return resultDuplicateKey
	case errors.Is(err, frame.ErrMalformed), errors.Is(err, frame.ErrUncomparableKey):
		return resultMalformed
	default:
		return resultError
	}
}

// Snapshot describes a reconciler's state after its last pass.
type Snapshot struct {
	ID        string        `json:"id"`
	Passes    uint64        `json:"passes"`
	Keys      []any         `json:"keys"`
	Retained  []any         `json:"retained"`
	Animating []any         `json:"animating"`
	Window    time.Duration `json:"windowNs"`
}

// Snapshot returns the current state. Animating keys are sorted by their
// printed form.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	s := Snapshot{
		ID:       r.id.String(),
		Passes:   r.passes,
		Keys:     []any{},
		Retained: []any{},
	}
	if r.prev != nil {
		s.Keys = r.prev.Keys()
		s.Retained = r.prev.InsertedKeys()
	}
	r.mu.Unlock()

	s.Animating = r.registry.Animating()
	slices.SortFunc(s.Animating, func(a, b any) int {
		return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
	})
	s.Window = r.notifier.Window()
	return s
}

// Close stops invalidation delivery and cancels any pending deferred
// signal. Render keeps working after Close. Close is idempotent.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.changed.Release()
	r.notifier.Stop()
}
