package vdom

import (
	"sort"

	tgerrors "github.com/vango-dev/transitiongroup/internal/errors"
	"github.com/vango-dev/transitiongroup/pkg/frame"
)

// Flatten linearizes children into a flat op stream with subtree lengths.
// Fragments become regions, raw HTML becomes markup. Props are emitted in
// name order so sequence numbers are stable across passes.
func Flatten(children ...*VNode) []frame.Op {
	var s frame.Stream
	for _, c := range children {
		flattenNode(&s, c)
	}
	return s.Ops()
}

func flattenNode(s *frame.Stream, n *VNode) {
	if n == nil {
		return
	}

	switch n.Kind {
	case KindElement:
		s.OpenElement(n.Tag, n.frameKey())
		flattenProps(s, n.Props)
		for _, c := range n.Children {
			flattenNode(s, c)
		}
		s.Close()

	case KindComponent:
		s.OpenComponent(n.componentType(), n.Comp, n.frameKey())
		flattenProps(s, n.Props)
		s.Close()

	case KindFragment:
		s.OpenRegion()
		for _, c := range n.Children {
			flattenNode(s, c)
		}
		s.Close()

	case KindText:
		s.Text(n.Text)

	case KindRaw:
		s.Markup(n.Text)
	}
}

func flattenProps(s *frame.Stream, props Props) {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.Attribute(name, props[name])
	}
}

// Materialize rebuilds VNodes from a sequenced frame stream. Ref captures
// are host-side callbacks and are skipped.
func Materialize(frames []frame.Sequenced) ([]*VNode, error) {
	var (
		roots []*VNode
		stack []*VNode
	)

	appendNode := func(n *VNode) {
		if len(stack) == 0 {
			roots = append(roots, n)
			return
		}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, n)
	}

	for i, sf := range frames {
		switch f := sf.Frame.(type) {
		case frame.OpenElement:
			n := &VNode{Kind: KindElement, Tag: f.Name, Key: nodeKey(f.Key), Props: make(Props)}
			appendNode(n)
			stack = append(stack, n)

		case frame.OpenComponent:
			n := &VNode{Kind: KindComponent, Key: nodeKey(f.Key), Props: make(Props)}
			if c, ok := f.Component.(Component); ok {
				n.Comp = c
			}
			appendNode(n)
			stack = append(stack, n)

		case frame.CloseElement, frame.CloseComponent:
			if len(stack) == 0 {
				return nil, tgerrors.New("E103").WithDetailf("frame %d: close without open", i)
			}
			top := stack[len(stack)-1]
			if (f.Kind() == frame.KindCloseElement) != (top.Kind == KindElement) {
				return nil, tgerrors.New("E103").WithDetailf("frame %d: %s closes a %s", i, f.Kind(), top.Kind)
			}
			stack = stack[:len(stack)-1]

		case frame.Attribute:
			if len(stack) == 0 {
				return nil, tgerrors.New("E103").WithDetailf("frame %d: attribute %q outside an element", i, f.Name)
			}
			stack[len(stack)-1].Props[f.Name] = f.Value

		case frame.Text:
			appendNode(Text(f.Content))

		case frame.ElementRefCapture, frame.ComponentRefCapture:
			// Host-side only.
		}
	}

	if len(stack) != 0 {
		return nil, tgerrors.New("E103").WithDetailf("%d unclosed nodes", len(stack))
	}
	return roots, nil
}
