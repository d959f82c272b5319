package vdom

import (
	"fmt"
	"strings"
)

// createElement creates a new VNode with the given tag and arguments.
// Arguments can be: nil, Attr, []Attr, *VNode, []*VNode, Component, string.
func createElement(tag string, args []any) *VNode {
	node := &VNode{
		Kind:  KindElement,
		Tag:   tag,
		Props: make(Props),
	}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional attributes)
		case Attr:
			applyAttr(node, v)
		case []Attr:
			for _, a := range v {
				applyAttr(node, a)
			}
		case *VNode:
			if v != nil {
				node.Children = append(node.Children, v)
			}
		case []*VNode:
			for _, child := range v {
				if child != nil {
					node.Children = append(node.Children, child)
				}
			}
		case Component:
			node.Children = append(node.Children, &VNode{Kind: KindComponent, Comp: v})
		case string:
			node.Children = append(node.Children, Text(v))
		}
	}

	return node
}

func applyAttr(node *VNode, a Attr) {
	if a.Key == "" {
		return
	}
	if a.Key == "key" {
		node.Key = fmt.Sprint(a.Value)
		return
	}
	node.Props[a.Key] = a.Value
}

func Div(args ...any) *VNode    { return createElement("div", args) }
func Span(args ...any) *VNode   { return createElement("span", args) }
func P(args ...any) *VNode      { return createElement("p", args) }
func Ul(args ...any) *VNode     { return createElement("ul", args) }
func Ol(args ...any) *VNode     { return createElement("ol", args) }
func Li(args ...any) *VNode     { return createElement("li", args) }
func Button(args ...any) *VNode { return createElement("button", args) }

// CustomElement creates an element with a custom tag name.
func CustomElement(tag string, args ...any) *VNode {
	return createElement(tag, args)
}

// Text creates a text node.
func Text(content string) *VNode {
	return &VNode{Kind: KindText, Text: content}
}

// Textf creates a formatted text node.
func Textf(format string, args ...any) *VNode {
	return Text(fmt.Sprintf(format, args...))
}

// Raw creates an unescaped HTML node.
func Raw(html string) *VNode {
	return &VNode{Kind: KindRaw, Text: html}
}

// Fragment groups children without a wrapper element.
func Fragment(children ...*VNode) *VNode {
	node := &VNode{Kind: KindFragment}
	for _, c := range children {
		if c != nil {
			node.Children = append(node.Children, c)
		}
	}
	return node
}

// Mount places a component in the tree. attrs become its props; a "key"
// attr becomes its reconciliation key.
func Mount(c Component, attrs ...Attr) *VNode {
	node := &VNode{Kind: KindComponent, Comp: c, Props: make(Props)}
	for _, a := range attrs {
		applyAttr(node, a)
	}
	return node
}

// Key sets the reconciliation key.
func Key(key any) Attr { return Attr{Key: "key", Value: key} }

// Class sets the class attribute.
func Class(classes ...string) Attr { return Attr{Key: "class", Value: strings.Join(classes, " ")} }

// ID sets the id attribute.
func ID(id string) Attr { return Attr{Key: "id", Value: id} }

// Prop sets an arbitrary attribute.
func Prop(key string, value any) Attr { return Attr{Key: key, Value: value} }
