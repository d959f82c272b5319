package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/transitiongroup/pkg/frame"
	"github.com/vango-dev/transitiongroup/pkg/keyed"
	"github.com/vango-dev/transitiongroup/pkg/vdom"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestReconciler(t *testing.T, opts ...Option) *Reconciler {
	t.Helper()
	r := New(append([]Option{WithLogger(quietLogger())}, opts...)...)
	t.Cleanup(r.Close)
	return r
}

// list builds <li key=k>k</li> for each key. A nil key makes an unkeyed item.
func list(keys ...any) []frame.Op {
	var s frame.Stream
	for _, k := range keys {
		s.OpenElement("li", k)
		s.Text(fmt.Sprint(k))
		s.Close()
	}
	return s.Ops()
}

// outline returns the keys of the top-level elements in frames.
func outline(frames []frame.Sequenced) []any {
	var keys []any
	depth := 0
	for _, f := range frames {
		switch v := f.Frame.(type) {
		case frame.OpenElement:
			if depth == 0 {
				keys = append(keys, v.Key)
			}
			depth++
		case frame.OpenComponent:
			if depth == 0 {
				keys = append(keys, v.Key)
			}
			depth++
		case frame.CloseElement, frame.CloseComponent:
			depth--
		}
	}
	return keys
}

func render(t *testing.T, r *Reconciler, ops []frame.Op) []any {
	t.Helper()
	frames, err := r.Render(context.Background(), ops)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	return outline(frames)
}

func assertKeys(t *testing.T, got []any, want ...any) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
}

func TestRender_FirstPassEmitsEverything(t *testing.T) {
	r := newTestReconciler(t)
	assertKeys(t, render(t, r, list("1", "2", "3")), "1", "2", "3")
}

func TestRender_RetainsRemovedChildInPlace(t *testing.T) {
	r := newTestReconciler(t)
	reg := r.Registry()

	var requested []any
	sub := reg.SubscribeRemoval("2", func() { requested = append(requested, "2") })
	defer sub.Release()
	other := reg.SubscribeRemoval("3", func() { t.Error("removal requested for key 3") })
	defer other.Release()

	render(t, r, list("1", "2", "3"))
	assertKeys(t, render(t, r, list("1", "3")), "1", "2", "3")

	if !reg.IsAnimating("2") {
		t.Fatal("key 2 should be animating")
	}
	if len(requested) != 1 {
		t.Fatalf("removal requests = %d, want 1", len(requested))
	}

	// Still animating: kept, no second request.
	assertKeys(t, render(t, r, list("1", "3")), "1", "2", "3")
	if len(requested) != 1 {
		t.Fatalf("removal requests after second pass = %d, want 1", len(requested))
	}

	reg.End("2")
	assertKeys(t, render(t, r, list("1", "3")), "1", "3")
	assertKeys(t, render(t, r, list("1", "3")), "1", "3")
	if len(requested) != 1 {
		t.Fatalf("removal requests after end = %d, want 1", len(requested))
	}
}

func TestRender_RetainedPositionFollowsPreviousPass(t *testing.T) {
	tests := []struct {
		name string
		prev []any
		next []any
		want []any
	}{
		{"first", []any{"a", "b", "c"}, []any{"b", "c"}, []any{"a", "b", "c"}},
		{"last", []any{"a", "b", "c"}, []any{"a", "b"}, []any{"a", "b", "c"}},
		{"two", []any{"a", "b", "c", "d"}, []any{"a", "d"}, []any{"a", "b", "c", "d"}},
		{"with addition", []any{"a", "b"}, []any{"x", "b"}, []any{"a", "x", "b"}},
		{"all", []any{"a", "b"}, nil, []any{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReconciler(t)
			render(t, r, list(tt.prev...))
			assertKeys(t, render(t, r, list(tt.next...)), tt.want...)
		})
	}
}

func TestRender_UnkeyedChildrenNeverRetained(t *testing.T) {
	r := newTestReconciler(t)
	reg := r.Registry()

	render(t, r, list("1", nil, "3"))
	got := render(t, r, list("1", "3"))

	assertKeys(t, got, "1", "3")
	if reg.Len() != 0 {
		t.Fatalf("animating = %v, want none", reg.Animating())
	}
}

func TestRender_ReappearingChildIsNatural(t *testing.T) {
	r := newTestReconciler(t)
	reg := r.Registry()

	render(t, r, list("1", "2"))
	render(t, r, list("1"))
	if !reg.IsAnimating("2") {
		t.Fatal("key 2 should be animating")
	}

	assertKeys(t, render(t, r, list("2", "1")), "2", "1")

	// Ending the stale transition must not drop the natural child.
	reg.End("2")
	assertKeys(t, render(t, r, list("2", "1")), "2", "1")
}

func TestRender_DuplicateKeyAbortsPass(t *testing.T) {
	r := newTestReconciler(t)
	reg := r.Registry()

	render(t, r, list("1", "2"))

	_, err := r.Render(context.Background(), list("1", "1"))
	if !errors.Is(err, keyed.ErrDuplicateKey) {
		t.Fatalf("Render() error = %v, want ErrDuplicateKey", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("aborted pass touched registry: %v", reg.Animating())
	}
	if got := r.Snapshot().Passes; got != 1 {
		t.Fatalf("passes = %d, want 1", got)
	}

	// The previous pass is still the baseline.
	assertKeys(t, render(t, r, list("1")), "1", "2")
	if !reg.IsAnimating("2") {
		t.Fatal("key 2 should be animating")
	}
}

func TestRender_MalformedStream(t *testing.T) {
	r := newTestReconciler(t)
	ops := []frame.Op{{Kind: frame.OpElement, Name: "li", Key: "1", SubtreeLength: 5}}

	_, err := r.Render(context.Background(), ops)
	if !errors.Is(err, frame.ErrMalformed) {
		t.Fatalf("Render() error = %v, want ErrMalformed", err)
	}
}

func TestRender_AlreadyAnimatingKeyIsNotRequested(t *testing.T) {
	r := newTestReconciler(t)
	reg := r.Registry()

	calls := 0
	sub := reg.SubscribeRemoval("2", func() { calls++ })
	defer sub.Release()

	render(t, r, list("1", "2"))
	reg.Begin("2")
	assertKeys(t, render(t, r, list("1")), "1", "2")
	if calls != 0 {
		t.Fatalf("removal requests = %d, want 0", calls)
	}

	reg.End("2")
	assertKeys(t, render(t, r, list("1")), "1")
	if calls != 0 {
		t.Fatalf("removal requests after end = %d, want 0", calls)
	}
}

func TestRender_RemovalListenerEndsImmediately(t *testing.T) {
	r := newTestReconciler(t)
	reg := r.Registry()

	sub := reg.SubscribeRemoval("2", func() {
		reg.End("2")
		_ = r.Snapshot()
	})
	defer sub.Release()

	render(t, r, list("1", "2"))
	// Emission happens before listeners run, so the child is kept for one pass.
	assertKeys(t, render(t, r, list("1")), "1", "2")
	assertKeys(t, render(t, r, list("1")), "1")
}

func TestRender_InvalidationReentersRender(t *testing.T) {
	r := newTestReconciler(t)
	reg := r.Registry()

	// An exit that finishes at once notifies from inside the pass that
	// requested it, which itself runs inside an invalidation.
	rm := reg.SubscribeRemoval("2", func() {
		reg.End("2")
		reg.NotifyChanged()
	})
	defer rm.Release()

	render(t, r, list("1", "2"))

	var (
		calls int
		last  []any
		errs  []error
	)
	inv := r.OnInvalidate(func() {
		calls++
		if calls > 2 {
			return
		}
		frames, err := r.Render(context.Background(), list("1"))
		if err != nil {
			errs = append(errs, err)
			return
		}
		last = outline(frames)
	})
	defer inv.Release()

	done := make(chan struct{})
	go func() {
		reg.NotifyChanged()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("NotifyChanged inside an invalidation never returned")
	}

	if len(errs) != 0 {
		t.Fatalf("Render() errors: %v", errs)
	}
	if calls != 2 {
		t.Fatalf("invalidations = %d, want 2", calls)
	}
	assertKeys(t, last, "1")
	if reg.IsAnimating("2") {
		t.Fatal("2 still animating")
	}
}

func TestRender_ComponentKeyAttribute(t *testing.T) {
	build := func() []frame.Op {
		var s frame.Stream
		s.OpenComponent("Card", nil, "c1")
		s.OpenElement("div", nil)
		s.Close()
		s.Close()
		return s.Ops()
	}

	tests := []struct {
		name string
		attr string
		want []frame.Kind
	}{
		{"default", frame.DefaultKeyAttribute, []frame.Kind{
			frame.KindOpenComponent, frame.KindAttribute, frame.KindOpenElement,
			frame.KindCloseElement, frame.KindCloseComponent,
		}},
		{"disabled", "", []frame.Kind{
			frame.KindOpenComponent, frame.KindOpenElement,
			frame.KindCloseElement, frame.KindCloseComponent,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReconciler(t, WithKeyAttribute(tt.attr))
			frames, err := r.Render(context.Background(), build())
			if err != nil {
				t.Fatalf("Render() error: %v", err)
			}
			var got []frame.Kind
			for _, f := range frames {
				got = append(got, f.Frame.Kind())
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("kinds = %v, want %v", got, tt.want)
			}
			if tt.attr != "" {
				a := frames[1].Frame.(frame.Attribute)
				if a.Name != tt.attr || a.Value != "c1" {
					t.Fatalf("attribute = %+v", a)
				}
			}
		})
	}
}

func TestRender_SequenceNumbers(t *testing.T) {
	r := newTestReconciler(t)
	render(t, r, list("1", "2"))
	frames, err := r.Render(context.Background(), list("2"))
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	want := []int{0, 1, -1, 2, 3, -1}
	var got []int
	for _, f := range frames {
		got = append(got, f.Seq)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("seq = %v, want %v", got, want)
	}
}

func TestRenderNodes(t *testing.T) {
	r := newTestReconciler(t)
	ctx := context.Background()

	items := func(keys ...string) []*vdom.VNode {
		nodes := make([]*vdom.VNode, len(keys))
		for i, k := range keys {
			nodes[i] = vdom.Li(vdom.Key(k), k)
		}
		return nodes
	}

	if _, err := r.RenderNodes(ctx, items("a", "b")...); err != nil {
		t.Fatalf("RenderNodes() error: %v", err)
	}
	nodes, err := r.RenderNodes(ctx, items("b")...)
	if err != nil {
		t.Fatalf("RenderNodes() error: %v", err)
	}
	if len(nodes) != 2 || nodes[0].Key != "a" || nodes[1].Key != "b" {
		t.Fatalf("nodes = %v", nodes)
	}
}

func TestSnapshot(t *testing.T) {
	r := newTestReconciler(t, WithMaxRendersPerSecond(5))

	s := r.Snapshot()
	if s.Passes != 0 || len(s.Keys) != 0 {
		t.Fatalf("initial snapshot = %+v", s)
	}
	if s.ID != r.ID().String() {
		t.Fatalf("ID = %q, want %q", s.ID, r.ID())
	}

	render(t, r, list("1", "2", "3"))
	render(t, r, list("3"))

	s = r.Snapshot()
	if s.Passes != 2 {
		t.Fatalf("passes = %d, want 2", s.Passes)
	}
	if !reflect.DeepEqual(s.Keys, []any{"1", "2", "3"}) {
		t.Fatalf("keys = %v", s.Keys)
	}
	if !reflect.DeepEqual(s.Retained, []any{"1", "2"}) {
		t.Fatalf("retained = %v", s.Retained)
	}
	if !reflect.DeepEqual(s.Animating, []any{"1", "2"}) {
		t.Fatalf("animating = %v", s.Animating)
	}
}

func TestOnInvalidate(t *testing.T) {
	r := newTestReconciler(t)

	calls := 0
	sub := r.OnInvalidate(func() { calls++ })

	r.Registry().NotifyChanged()
	r.Registry().NotifyChanged()
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}

	sub.Release()
	r.Registry().NotifyChanged()
	if calls != 2 {
		t.Fatalf("calls after release = %d, want 2", calls)
	}
}

func TestClose(t *testing.T) {
	r := New(WithLogger(quietLogger()))

	calls := 0
	sub := r.OnInvalidate(func() { calls++ })
	defer sub.Release()

	r.Close()
	r.Close()

	r.Registry().NotifyChanged()
	if calls != 0 {
		t.Fatalf("calls after Close = %d, want 0", calls)
	}

	// Rendering still works.
	assertKeys(t, render(t, r, list("1")), "1")
}

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestMetrics(t *testing.T) {
	m := NewMetrics(WithRegisterer(prometheus.NewRegistry()), WithNamespace("test"))
	r := newTestReconciler(t, WithMetrics(m))

	sub := r.OnInvalidate(func() {})
	defer sub.Release()

	render(t, r, list("1", "2"))
	render(t, r, list("1"))
	_, _ = r.Render(context.Background(), list("1", "1"))
	r.Registry().NotifyChanged()

	if got := metricCounterValue(t, m.passes.WithLabelValues(resultOK)); got != 2 {
		t.Fatalf("passes(ok) = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.passes.WithLabelValues(resultDuplicateKey)); got != 1 {
		t.Fatalf("passes(duplicate_key) = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.retained); got != 1 {
		t.Fatalf("retained = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.removalRequests); got != 1 {
		t.Fatalf("removal requests = %v, want 1", got)
	}
	if got := metricGaugeValue(t, m.animating); got != 1 {
		t.Fatalf("animating = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.invalidations.WithLabelValues("immediate")); got != 1 {
		t.Fatalf("invalidations(immediate) = %v, want 1", got)
	}
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.observePass(resultOK, 0.1, 3)
	m.observeRetention(1, 1, 1)
	m.observeInvalidation(true)
}
