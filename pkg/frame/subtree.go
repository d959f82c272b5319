package frame

// Subtree is one top-level child and all its descendant frames, replayable
// as a unit.
type Subtree struct {
	// Key identifies the child across passes. nil means unkeyed.
	Key any

	// Frames holds the child's frames in document order.
	Frames []Frame

	// Retained is set once the child has been kept past its removal and an
	// exit transition was requested for it.
	Retained bool
}

func (s *Subtree) add(f Frame) {
	s.Frames = append(s.Frames, f)
}

// Keyed reports whether the subtree can be matched across passes.
func (s *Subtree) Keyed() bool {
	return s.Key != nil
}

// Emit replays the subtree's frames into b.
func (s *Subtree) Emit(b *Builder) {
	for _, f := range s.Frames {
		b.Append(f)
		if oc, ok := f.(OpenComponent); ok && oc.AppendKey && oc.Key != nil && b.KeyAttribute != "" {
			b.Append(Attribute{Name: b.KeyAttribute, Value: oc.Key})
		}
	}
}
