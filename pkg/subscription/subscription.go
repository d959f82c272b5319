// Package subscription provides the release-exactly-once handle returned by
// every subscribe operation in transitiongroup.
//
// Releasing a handle twice is a programming error and panics with an E101
// error. A handle that is garbage collected without being released is
// reported as E102 through the leak handler, which logs at error level by
// default.
package subscription

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	tgerrors "github.com/vango-dev/transitiongroup/internal/errors"
)

// Sentinel errors. Match with errors.Is.
var (
	ErrDoubleRelease = tgerrors.New("E101")
	ErrUnreleased    = tgerrors.New("E102")
)

var (
	leakMu      sync.RWMutex
	leakHandler = defaultLeakHandler
)

func defaultLeakHandler(err error) {
	slog.Error("subscription leaked", "error", err)
}

// SetLeakHandler replaces the handler called for handles that are collected
// without being released, and returns the previous handler. nil restores
// the default.
func SetLeakHandler(h func(error)) func(error) {
	leakMu.Lock()
	defer leakMu.Unlock()
	prev := leakHandler
	if h == nil {
		h = defaultLeakHandler
	}
	leakHandler = h
	return prev
}

func reportLeak(err error) {
	leakMu.RLock()
	h := leakHandler
	leakMu.RUnlock()
	h(err)
}

// Subscription is a handle to a registered callback.
type Subscription struct {
	release  func()
	label    string
	released atomic.Bool
}

// New wraps release in a handle. label names the subscription in leak and
// double-release reports.
func New(label string, release func()) *Subscription {
	s := &Subscription{release: release, label: label}
	runtime.SetFinalizer(s, func(s *Subscription) {
		if !s.released.Load() {
			reportLeak(tgerrors.New("E102").WithDetailf("%s was garbage collected while still subscribed", s.label))
		}
	})
	return s
}

// Release unregisters the callback. It panics if called more than once.
func (s *Subscription) Release() {
	if !s.released.CompareAndSwap(false, true) {
		panic(tgerrors.New("E101").WithDetailf("%s released twice", s.label))
	}
	runtime.SetFinalizer(s, nil)
	s.release()
}

// Released reports whether Release has been called.
func (s *Subscription) Released() bool {
	return s.released.Load()
}
