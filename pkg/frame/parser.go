package frame

// Parser linearizes a flat op stream into one Subtree per top-level child.
// The zero value is ready to use.
type Parser struct {
	// AppendKey marks top-level components so their key is re-emitted as an
	// attribute when the subtree is replayed.
	AppendKey bool
}

// Parse walks ops once with a running depth counter. A depth-0 element or
// component starts a new Subtree; everything until depth returns to zero is
// appended to it. Closes are scheduled by absolute cursor from each open's
// SubtreeLength. Regions, markup and None ops are dropped.
//
// A depth-0 text op forms its own unkeyed Subtree. Attributes and ref
// captures outside any element are rejected.
func (p *Parser) Parse(ops []Op) ([]*Subtree, error) {
	var (
		out     []*Subtree
		current *Subtree
		depth   int
	)

	// closes maps a cursor to the close frames due before the op at that
	// cursor. Opens sharing an end cursor are nested, so they close
	// last-in first-out.
	closes := make(map[int][]Frame)
	// ends tracks the end cursor of every open element/component, innermost
	// last, to reject children that overrun their parent.
	var ends []int

	flush := func(cursor int) {
		pending, ok := closes[cursor]
		if !ok {
			return
		}
		delete(closes, cursor)
		for i := len(pending) - 1; i >= 0; i-- {
			current.add(pending[i])
			depth--
			ends = ends[:len(ends)-1]
		}
	}

	for cursor, op := range ops {
		flush(cursor)

		switch op.Kind {
		case OpElement, OpComponent:
			end := cursor + op.SubtreeLength
			if op.SubtreeLength < 1 || end > len(ops) {
				return nil, malformed(cursor, "%s subtree length %d out of range", op.Kind, op.SubtreeLength)
			}
			if n := len(ends); n > 0 && end > ends[n-1] {
				return nil, malformed(cursor, "%s overruns its parent", op.Kind)
			}
			if err := checkKey(cursor, op.Key); err != nil {
				return nil, err
			}

			if depth == 0 {
				current = &Subtree{Key: op.Key}
				out = append(out, current)
			}

			if op.Kind == OpElement {
				current.add(OpenElement{Name: op.Name, Key: op.Key})
				closes[end] = append(closes[end], CloseElement{})
			} else {
				current.add(OpenComponent{
					Type:      op.Type,
					Component: op.Component,
					Key:       op.Key,
					AppendKey: p.AppendKey && depth == 0,
				})
				closes[end] = append(closes[end], CloseComponent{})
			}
			ends = append(ends, end)
			depth++

		case OpAttribute:
			if depth == 0 {
				return nil, malformed(cursor, "attribute %q outside an element", op.Name)
			}
			current.add(Attribute{Name: op.Name, Value: op.Value})

		case OpText:
			if depth == 0 {
				current = &Subtree{}
				out = append(out, current)
			}
			current.add(Text{Content: op.Text})

		case OpElementRef:
			if depth == 0 {
				return nil, malformed(cursor, "element ref outside an element")
			}
			current.add(ElementRefCapture{Capture: op.ElementRef})

		case OpComponentRef:
			if depth == 0 {
				return nil, malformed(cursor, "component ref outside a component")
			}
			current.add(ComponentRefCapture{Capture: op.ComponentRef})

		default:
			// Regions, markup and placeholders carry nothing replayable.
		}
	}

	flush(len(ops))

	if depth != 0 || len(closes) != 0 {
		return nil, malformed(len(ops), "%d unclosed entries at end of stream", depth)
	}

	return out, nil
}
