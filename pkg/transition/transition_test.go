package transition

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/tanema/gween/ease"

	"github.com/vango-dev/transitiongroup/pkg/animation"
	"github.com/vango-dev/transitiongroup/pkg/subscription"
)

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-3
}

func TestTransition_PlaysOnRemovalRequest(t *testing.T) {
	reg := animation.New()
	changed := 0
	sub := reg.SubscribeChanged(func() { changed++ })
	defer sub.Release()

	tr := New(reg, "a", WithDuration(100*time.Millisecond), WithEasing(ease.Linear), quiet())
	defer tr.Dispose()

	if tr.Update(50 * time.Millisecond) {
		t.Fatal("Update before removal should be a no-op")
	}
	if tr.Leaving() {
		t.Fatal("Leaving before removal")
	}

	reg.RequestRemoval("a")
	if !tr.Leaving() || !reg.IsAnimating("a") {
		t.Fatal("removal request should start the exit")
	}
	if got := tr.Value(); got != 1 {
		t.Fatalf("initial value = %v, want 1", got)
	}

	if tr.Update(50 * time.Millisecond) {
		t.Fatal("finished too early")
	}
	if got := tr.Value(); !near(got, 0.5) {
		t.Fatalf("midpoint value = %v, want 0.5", got)
	}
	if changed != 0 {
		t.Fatalf("changed = %d before finish", changed)
	}

	if !tr.Update(100 * time.Millisecond) {
		t.Fatal("expected finish")
	}
	if reg.IsAnimating("a") {
		t.Fatal("key still animating after finish")
	}
	if changed != 1 {
		t.Fatalf("changed = %d, want 1", changed)
	}
	if !tr.Done() || tr.Leaving() {
		t.Fatal("state after finish")
	}
	if got := tr.Value(); got != 0 {
		t.Fatalf("final value = %v, want 0", got)
	}

	// Further updates do nothing.
	if tr.Update(time.Second) || changed != 1 {
		t.Fatal("update after finish should be a no-op")
	}
}

func TestTransition_IgnoresOtherKeys(t *testing.T) {
	reg := animation.New()
	tr := New(reg, "a", quiet())
	defer tr.Dispose()

	reg.RequestRemoval("b")
	if tr.Leaving() {
		t.Fatal("reacted to another key")
	}
}

func TestTransition_RepeatedRequestDoesNotRestart(t *testing.T) {
	reg := animation.New()
	tr := New(reg, "a", WithDuration(100*time.Millisecond), WithEasing(ease.Linear), quiet())
	defer tr.Dispose()

	reg.RequestRemoval("a")
	tr.Update(50 * time.Millisecond)
	reg.RequestRemoval("a")
	if got := tr.Value(); !near(got, 0.5) {
		t.Fatalf("value = %v, want 0.5", got)
	}
}

func TestTransition_RestartsAfterFinish(t *testing.T) {
	reg := animation.New()
	tr := New(reg, "a", WithDuration(10*time.Millisecond), quiet())
	defer tr.Dispose()

	reg.RequestRemoval("a")
	tr.Update(time.Second)
	reg.RequestRemoval("a")

	if !tr.Leaving() || !reg.IsAnimating("a") {
		t.Fatal("second removal should restart the exit")
	}
	if got := tr.Value(); got != 1 {
		t.Fatalf("value = %v, want 1", got)
	}
}

func TestTransition_Range(t *testing.T) {
	reg := animation.New()
	tr := New(reg, "a", WithRange(0, 10), WithDuration(time.Second), WithEasing(ease.Linear), quiet())
	defer tr.Dispose()

	reg.RequestRemoval("a")
	tr.Update(500 * time.Millisecond)
	if got := tr.Value(); !near(got, 5) {
		t.Fatalf("value = %v, want 5", got)
	}
}

func TestTransition_DisposeEndsPlayingExit(t *testing.T) {
	reg := animation.New()
	tr := New(reg, "a", quiet())

	reg.RequestRemoval("a")
	tr.Dispose()

	if reg.IsAnimating("a") {
		t.Fatal("disposed transition left key animating")
	}

	// No longer subscribed.
	reg.RequestRemoval("a")
	if reg.IsAnimating("a") {
		t.Fatal("disposed transition reacted to removal")
	}
}

func TestTransition_DoubleDisposePanics(t *testing.T) {
	reg := animation.New()
	tr := New(reg, "a", quiet())
	tr.Dispose()

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, subscription.ErrDoubleRelease) {
			t.Fatalf("recover() = %v, want ErrDoubleRelease", r)
		}
	}()
	tr.Dispose()
}

func TestSet(t *testing.T) {
	reg := animation.New()
	s := NewSet(reg, WithDuration(100*time.Millisecond), quiet())
	defer s.Close()

	a := s.Ensure("a")
	if s.Ensure("a") != a {
		t.Fatal("Ensure created a second transition for the same key")
	}
	s.Ensure("b")
	s.Ensure("c")
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}

	reg.RequestRemoval("b")
	if n := s.Update(50 * time.Millisecond); n != 0 {
		t.Fatalf("finished = %d, want 0", n)
	}

	// b is playing so it survives pruning; c is dropped.
	if n := s.Prune([]any{"a"}); n != 1 {
		t.Fatalf("pruned = %d, want 1", n)
	}
	if _, ok := s.Get("c"); ok {
		t.Fatal("c should be pruned")
	}
	if _, ok := s.Get("b"); !ok {
		t.Fatal("b should survive while playing")
	}

	if n := s.Update(100 * time.Millisecond); n != 1 {
		t.Fatalf("finished = %d, want 1", n)
	}
	if reg.IsAnimating("b") {
		t.Fatal("b still animating")
	}

	if n := s.Prune([]any{"a"}); n != 1 {
		t.Fatalf("pruned = %d, want 1", n)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
}

func TestSet_CloseDisposesAll(t *testing.T) {
	reg := animation.New()
	s := NewSet(reg, quiet())
	s.Ensure("a")
	s.Ensure("b")
	reg.RequestRemoval("a")

	s.Close()

	if s.Len() != 0 {
		t.Fatalf("Len() = %d after Close", s.Len())
	}
	if reg.IsAnimating("a") {
		t.Fatal("Close left a animating")
	}
}

func TestEasing(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"outQuad", true},
		{"OUTQUAD", true},
		{"linear", true},
		{"inOutBounce", true},
		{"wobble", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, ok := Easing(tt.name)
			if ok != tt.ok {
				t.Fatalf("Easing(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			}
			if ok && fn == nil {
				t.Fatal("nil easing function")
			}
		})
	}

	names := EasingNames()
	if len(names) == 0 || names[0] > names[len(names)-1] {
		t.Fatalf("EasingNames() = %v", names)
	}
}
