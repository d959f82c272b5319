package transition

import (
	"sync"
	"time"

	"github.com/vango-dev/transitiongroup/pkg/animation"
)

// Set owns one Transition per key, all sharing the same options.
type Set struct {
	reg  *animation.Registry
	opts []Option

	mu    sync.Mutex
	items map[any]*Transition
	order []any
}

// NewSet creates an empty Set reporting to reg.
func NewSet(reg *animation.Registry, opts ...Option) *Set {
	return &Set{
		reg:   reg,
		opts:  opts,
		items: make(map[any]*Transition),
	}
}

// Ensure returns key's transition, creating it if needed.
func (s *Set) Ensure(key any) *Transition {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.items[key]; ok {
		return t
	}
	t := New(s.reg, key, s.opts...)
	s.items[key] = t
	s.order = append(s.order, key)
	return t
}

// Get returns key's transition, if any.
func (s *Set) Get(key any) (*Transition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[key]
	return t, ok
}

// Len returns the number of transitions.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Set) snapshot() []*Transition {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Transition, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.items[key])
	}
	return out
}

// Update advances every playing transition by dt and returns how many
// finished.
func (s *Set) Update(dt time.Duration) int {
	finished := 0
	for _, t := range s.snapshot() {
		if t.Update(dt) {
			finished++
		}
	}
	return finished
}

// Prune disposes transitions whose key is not in keep, except those still
// playing.
func (s *Set) Prune(keep []any) int {
	wanted := make(map[any]struct{}, len(keep))
	for _, k := range keep {
		wanted[k] = struct{}{}
	}

	s.mu.Lock()
	var drop []*Transition
	order := s.order[:0]
	for _, key := range s.order {
		t := s.items[key]
		if _, ok := wanted[key]; !ok && !t.Leaving() {
			drop = append(drop, t)
			delete(s.items, key)
			continue
		}
		order = append(order, key)
	}
	s.order = order
	s.mu.Unlock()

	for _, t := range drop {
		t.Dispose()
	}
	return len(drop)
}

// Close disposes every transition.
func (s *Set) Close() {
	s.mu.Lock()
	items := make([]*Transition, 0, len(s.order))
	for _, key := range s.order {
		items = append(items, s.items[key])
	}
	s.items = make(map[any]*Transition)
	s.order = nil
	s.mu.Unlock()

	for _, t := range items {
		t.Dispose()
	}
}
