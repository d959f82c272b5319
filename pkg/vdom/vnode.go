package vdom

import "fmt"

// VKind says what a VNode flattens to.
type VKind uint8

const (
	KindElement   VKind = iota // an element op, with props and children
	KindText                   // a text op
	KindFragment               // a region op around its children
	KindComponent              // a component op, with props only
	KindRaw                    // a markup op; dropped by the parser
)

var kindNames = [...]string{
	KindElement:   "Element",
	KindText:      "Text",
	KindFragment:  "Fragment",
	KindComponent: "Component",
	KindRaw:       "Raw",
}

func (k VKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// VNode is one node of a host tree. Only elements and components take part
// in keyed reconciliation; Key is ignored on the other kinds.
type VNode struct {
	Kind     VKind
	Tag      string
	Props    Props
	Children []*VNode
	Key      string // "" when unkeyed
	Text     string // KindText and KindRaw
	Comp     Component
}

// Keyed reports whether n is an element or component with a key.
func (n *VNode) Keyed() bool {
	return n != nil && n.Key != "" && (n.Kind == KindElement || n.Kind == KindComponent)
}

// frameKey is the key n carries into the op stream: nil for unkeyed.
func (n *VNode) frameKey() any {
	if !n.Keyed() {
		return nil
	}
	return n.Key
}

// componentType names the component for OpenComponent frames.
func (n *VNode) componentType() string {
	if n.Comp == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", n.Comp)
}

// nodeKey turns a frame key back into a VNode key.
func nodeKey(key any) string {
	switch k := key.(type) {
	case nil:
		return ""
	case string:
		return k
	default:
		return fmt.Sprint(k)
	}
}

// Props maps attribute names to values. Flatten emits them sorted by name.
type Props map[string]any

// Attr is one attribute argument to an element helper. The name "key"
// sets the node's key instead of a prop.
type Attr struct {
	Key   string
	Value any
}

// Component renders a subtree. The reconciler treats it as opaque and
// passes it through OpenComponent frames.
type Component interface {
	Render() *VNode
}

// funcComponent is a pointer type so components stay comparable.
type funcComponent struct {
	render func() *VNode
}

func (f *funcComponent) Render() *VNode { return f.render() }

// Func adapts a render function to Component.
func Func(render func() *VNode) Component {
	return &funcComponent{render: render}
}
