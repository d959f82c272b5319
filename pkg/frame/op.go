package frame

// OpKind is the host op type discriminator.
type OpKind uint8

const (
	OpNone         OpKind = iota // Placeholder, ignored
	OpElement                    // Element with SubtreeLength
	OpComponent                  // Component with SubtreeLength
	OpRegion                     // Grouping marker, children follow inline
	OpAttribute                  // Attribute of the enclosing element/component
	OpText                       // Text node
	OpMarkup                     // Raw markup, not replayable
	OpElementRef                 // Element ref capture
	OpComponentRef               // Component ref capture
)

// String returns the string representation of the OpKind.
func (k OpKind) String() string {
	switch k {
	case OpNone:
		return "None"
	case OpElement:
		return "Element"
	case OpComponent:
		return "Component"
	case OpRegion:
		return "Region"
	case OpAttribute:
		return "Attribute"
	case OpText:
		return "Text"
	case OpMarkup:
		return "Markup"
	case OpElementRef:
		return "ElementRef"
	case OpComponentRef:
		return "ComponentRef"
	default:
		return "Unknown"
	}
}

// Op is one entry of the flat stream a host emits for its children.
type Op struct {
	Kind OpKind

	// Name is the element tag (OpElement) or attribute name (OpAttribute).
	Name string

	// Type and Component describe an OpComponent.
	Type      string
	Component any

	// Key identifies an element or component across passes. nil means unkeyed.
	Key any

	// SubtreeLength counts this op, its attributes and all descendants.
	// Required for OpElement, OpComponent and OpRegion.
	SubtreeLength int

	Value any    // OpAttribute
	Text  string // OpText, OpMarkup

	ElementRef   func(ElementRef) // OpElementRef
	ComponentRef func(any)        // OpComponentRef
}

// Stream builds a flat op stream and fills in subtree lengths as
// elements, components and regions are closed.
type Stream struct {
	ops  []Op
	open []int
}

// OpenElement starts an element.
func (s *Stream) OpenElement(name string, key any) {
	s.push(Op{Kind: OpElement, Name: name, Key: key})
}

// OpenComponent starts a component.
func (s *Stream) OpenComponent(typ string, component any, key any) {
	s.push(Op{Kind: OpComponent, Type: typ, Component: component, Key: key})
}

// OpenRegion starts a grouping region.
func (s *Stream) OpenRegion() {
	s.push(Op{Kind: OpRegion})
}

// Attribute adds an attribute to the innermost open element or component.
func (s *Stream) Attribute(name string, value any) {
	s.ops = append(s.ops, Op{Kind: OpAttribute, Name: name, Value: value})
}

// Text adds a text node.
func (s *Stream) Text(content string) {
	s.ops = append(s.ops, Op{Kind: OpText, Text: content})
}

// Markup adds raw markup.
func (s *Stream) Markup(content string) {
	s.ops = append(s.ops, Op{Kind: OpMarkup, Text: content})
}

// ElementRef adds an element ref capture.
func (s *Stream) ElementRef(capture func(ElementRef)) {
	s.ops = append(s.ops, Op{Kind: OpElementRef, ElementRef: capture})
}

// ComponentRef adds a component ref capture.
func (s *Stream) ComponentRef(capture func(any)) {
	s.ops = append(s.ops, Op{Kind: OpComponentRef, ComponentRef: capture})
}

// Close ends the innermost open element, component or region.
// Close without a matching open panics.
func (s *Stream) Close() {
	n := len(s.open)
	if n == 0 {
		panic("frame: Close without matching open")
	}
	start := s.open[n-1]
	s.open = s.open[:n-1]
	s.ops[start].SubtreeLength = len(s.ops) - start
}

// Ops returns the built stream. Every open must have been closed.
func (s *Stream) Ops() []Op {
	if len(s.open) != 0 {
		panic("frame: Ops called with unclosed entries")
	}
	return s.ops
}

func (s *Stream) push(op Op) {
	s.open = append(s.open, len(s.ops))
	s.ops = append(s.ops, op)
}
