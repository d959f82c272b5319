package frame

// DefaultKeyAttribute is the attribute name top-level component keys are
// re-emitted under.
const DefaultKeyAttribute = "Key"

// Sequenced is an output frame with its position number. Close frames do
// not consume a position and carry Seq -1.
type Sequenced struct {
	Seq   int
	Frame Frame
}

// Builder collects replayed frames and numbers them from zero.
type Builder struct {
	// KeyAttribute is the attribute name used for OpenComponent frames with
	// AppendKey set. Empty suppresses the attribute.
	KeyAttribute string

	seq    int
	frames []Sequenced
}

// NewBuilder creates a builder that re-emits component keys under keyAttribute.
func NewBuilder(keyAttribute string) *Builder {
	return &Builder{KeyAttribute: keyAttribute}
}

// Append adds f with the next sequence number.
func (b *Builder) Append(f Frame) {
	if IsClose(f) {
		b.frames = append(b.frames, Sequenced{Seq: -1, Frame: f})
		return
	}
	b.frames = append(b.frames, Sequenced{Seq: b.seq, Frame: f})
	b.seq++
}

// Frames returns the collected frames.
func (b *Builder) Frames() []Sequenced {
	return b.frames
}

// Len returns the number of collected frames.
func (b *Builder) Len() int {
	return len(b.frames)
}
