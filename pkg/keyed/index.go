// Package keyed implements the ordered child index a transition group
// reconciles against.
package keyed

import (
	"github.com/vango-dev/transitiongroup/pkg/frame"

	tgerrors "github.com/vango-dev/transitiongroup/internal/errors"
)

// Sentinel errors. Match with errors.Is.
var (
	ErrDuplicateKey = tgerrors.New("E100")
	ErrUnkeyed      = tgerrors.New("E105")
)

// Index is an ordered list of child subtrees with a derived key→position
// map. Unkeyed children occupy positions but never appear in the map.
//
// The map is rebuilt from the sequence after every mutation, so it always
// agrees with Sequence.
type Index struct {
	seq       []*frame.Subtree
	positions map[any]int
	inserted  map[any]struct{}
}

// New builds an index over seq. It fails with ErrDuplicateKey if two
// children share a key. The index takes ownership of seq.
func New(seq []*frame.Subtree) (*Index, error) {
	x := &Index{
		seq:      seq,
		inserted: make(map[any]struct{}),
	}
	seen := make(map[any]int, len(seq))
	for i, st := range seq {
		if !st.Keyed() {
			continue
		}
		if first, ok := seen[st.Key]; ok {
			return nil, tgerrors.New("E100").
				WithDetailf("key %v appears at positions %d and %d", st.Key, first, i).
				WithSuggestion("Give every child in the list a distinct key")
		}
		seen[st.Key] = i
	}
	x.positions = seen
	return x, nil
}

// InsertAt inserts st at position i and records its key as retained.
// Positions past the end append. On error the index is unchanged.
func (x *Index) InsertAt(i int, st *frame.Subtree) error {
	if !st.Keyed() {
		return tgerrors.New("E105").WithDetailf("cannot retain unkeyed child at position %d", i)
	}
	if _, ok := x.positions[st.Key]; ok {
		return tgerrors.New("E100").
			WithDetailf("retained key %v is already present in the current pass", st.Key)
	}

	if i < 0 {
		i = 0
	}
	if i > len(x.seq) {
		i = len(x.seq)
	}

	x.seq = append(x.seq, nil)
	copy(x.seq[i+1:], x.seq[i:])
	x.seq[i] = st
	x.inserted[st.Key] = struct{}{}
	x.rebuild()
	return nil
}

// Position returns the position of key, if present.
func (x *Index) Position(key any) (int, bool) {
	if key == nil {
		return 0, false
	}
	i, ok := x.positions[key]
	return i, ok
}

// Has reports whether key is present.
func (x *Index) Has(key any) bool {
	_, ok := x.Position(key)
	return ok
}

// Inserted reports whether key entered the index through InsertAt.
func (x *Index) Inserted(key any) bool {
	if key == nil {
		return false
	}
	_, ok := x.inserted[key]
	return ok
}

// Sequence returns the children in order. Callers must not modify it.
func (x *Index) Sequence() []*frame.Subtree {
	return x.seq
}

// Len returns the number of children.
func (x *Index) Len() int {
	return len(x.seq)
}

// Keys returns the keys in order, skipping unkeyed children.
func (x *Index) Keys() []any {
	keys := make([]any, 0, len(x.positions))
	for _, st := range x.seq {
		if st.Keyed() {
			keys = append(keys, st.Key)
		}
	}
	return keys
}

// InsertedKeys returns the retained keys in order.
func (x *Index) InsertedKeys() []any {
	keys := make([]any, 0, len(x.inserted))
	for _, st := range x.seq {
		if x.Inserted(st.Key) {
			keys = append(keys, st.Key)
		}
	}
	return keys
}

func (x *Index) rebuild() {
	positions := make(map[any]int, len(x.seq))
	for i, st := range x.seq {
		if !st.Keyed() {
			continue
		}
		if _, ok := positions[st.Key]; !ok {
			positions[st.Key] = i
		}
	}
	x.positions = positions
}
