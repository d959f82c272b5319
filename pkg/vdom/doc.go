// Package vdom provides the host tree model applications author transition
// group children in.
//
// VNode is the familiar element/text/fragment/component tree. Flatten
// linearizes children into the flat frame.Op stream the reconciler parses,
// and Materialize rebuilds VNodes from the reconciler's output so a host can
// diff and commit it.
//
//	ops := vdom.Flatten(
//	    vdom.Li(vdom.Key("1"), vdom.Class("item"), "Apple"),
//	    vdom.Li(vdom.Key("2"), vdom.Class("item"), "Banana"),
//	)
package vdom
