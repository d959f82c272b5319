package frame

// Kind is the frame type discriminator.
type Kind uint8

const (
	KindOpenElement Kind = iota
	KindCloseElement
	KindOpenComponent
	KindCloseComponent
	KindAttribute
	KindText
	KindElementRefCapture
	KindComponentRefCapture
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindOpenElement:
		return "OpenElement"
	case KindCloseElement:
		return "CloseElement"
	case KindOpenComponent:
		return "OpenComponent"
	case KindCloseComponent:
		return "CloseComponent"
	case KindAttribute:
		return "Attribute"
	case KindText:
		return "Text"
	case KindElementRefCapture:
		return "ElementRefCapture"
	case KindComponentRefCapture:
		return "ComponentRefCapture"
	default:
		return "Unknown"
	}
}

// Frame is one primitive render operation. The set of implementations is
// closed; switch on the concrete type or on Kind.
type Frame interface {
	Kind() Kind
	frame()
}

// ElementRef identifies a rendered element to a ref-capture callback.
type ElementRef struct {
	ID string
}

// OpenElement starts an element. Key is nil for unkeyed elements.
type OpenElement struct {
	Name string
	Key  any
}

// CloseElement ends the innermost open element.
type CloseElement struct{}

// OpenComponent starts a subcomponent. Component is the host's opaque
// component value. AppendKey asks the builder to re-emit Key as an attribute
// so the component can observe its own key.
type OpenComponent struct {
	Type      string
	Component any
	Key       any
	AppendKey bool
}

// CloseComponent ends the innermost open component.
type CloseComponent struct{}

// Attribute sets a property on the innermost open element or component.
type Attribute struct {
	Name  string
	Value any
}

// Text is a text node.
type Text struct {
	Content string
}

// ElementRefCapture registers a callback that receives the element's ref.
type ElementRefCapture struct {
	Capture func(ElementRef)
}

// ComponentRefCapture registers a callback that receives the component instance.
type ComponentRefCapture struct {
	Capture func(any)
}

func (OpenElement) Kind() Kind         { return KindOpenElement }
func (CloseElement) Kind() Kind        { return KindCloseElement }
func (OpenComponent) Kind() Kind       { return KindOpenComponent }
func (CloseComponent) Kind() Kind      { return KindCloseComponent }
func (Attribute) Kind() Kind           { return KindAttribute }
func (Text) Kind() Kind                { return KindText }
func (ElementRefCapture) Kind() Kind   { return KindElementRefCapture }
func (ComponentRefCapture) Kind() Kind { return KindComponentRefCapture }

func (OpenElement) frame()         {}
func (CloseElement) frame()        {}
func (OpenComponent) frame()       {}
func (CloseComponent) frame()      {}
func (Attribute) frame()           {}
func (Text) frame()                {}
func (ElementRefCapture) frame()   {}
func (ComponentRefCapture) frame() {}

// IsClose reports whether f ends an element or component.
func IsClose(f Frame) bool {
	k := f.Kind()
	return k == KindCloseElement || k == KindCloseComponent
}
