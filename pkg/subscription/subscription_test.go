package subscription

import (
	"errors"
	"runtime"
	"testing"
	"time"
)

func TestRelease(t *testing.T) {
	calls := 0
	s := New("test", func() { calls++ })

	if s.Released() {
		t.Fatal("new subscription should not be released")
	}
	s.Release()
	if calls != 1 {
		t.Errorf("release calls = %d, want 1", calls)
	}
	if !s.Released() {
		t.Error("Released() = false after Release")
	}
}

func TestRelease_TwicePanics(t *testing.T) {
	calls := 0
	s := New("test", func() { calls++ })
	s.Release()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("second Release should panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrDoubleRelease) {
			t.Errorf("panic value = %v, want ErrDoubleRelease", r)
		}
		if calls != 1 {
			t.Errorf("release calls = %d, want 1", calls)
		}
	}()
	s.Release()
}

func TestLeakReported(t *testing.T) {
	leaks := make(chan error, 4)
	prev := SetLeakHandler(func(err error) { leaks <- err })
	defer SetLeakHandler(prev)

	func() {
		New("leaky", func() {})
	}()

	deadline := time.After(2 * time.Second)
	for {
		runtime.GC()
		select {
		case err := <-leaks:
			if !errors.Is(err, ErrUnreleased) {
				t.Errorf("leak error = %v, want ErrUnreleased", err)
			}
			return
		case <-deadline:
			t.Skip("finalizer did not run in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestReleasedNotReportedAsLeak(t *testing.T) {
	leaks := make(chan error, 4)
	prev := SetLeakHandler(func(err error) { leaks <- err })
	defer SetLeakHandler(prev)

	func() {
		New("clean", func() {}).Release()
	}()

	for i := 0; i < 5; i++ {
		runtime.GC()
		time.Sleep(5 * time.Millisecond)
	}
	select {
	case err := <-leaks:
		t.Errorf("released subscription reported as leak: %v", err)
	default:
	}
}
