// Package frame models the primitive render operations exchanged between a
// host UI pipeline and the transition group reconciler.
//
// A host describes its children as a flat, depth-first stream of Op values.
// Every element and component op carries the length of its subtree (itself,
// its attributes and all descendants), which is enough to recover the tree
// shape in a single pass:
//
//	var s frame.Stream
//	s.OpenElement("li", "1")
//	s.Attribute("class", "item")
//	s.Text("Apple")
//	s.Close()
//	ops := s.Ops() // [Element(len=3), Attribute, Text]
//
// Parser turns such a stream into one Subtree per top-level child. A Subtree
// owns a replayable list of Frame values; Frame is a closed sum type with one
// struct per primitive operation (OpenElement, CloseElement, OpenComponent,
// CloseComponent, Attribute, Text, ElementRefCapture, ComponentRefCapture).
//
// Builder collects replayed frames and assigns fresh sequence numbers, which
// is the form the reconciler hands back to the host.
package frame
