package protocol

import (
	"fmt"

	"github.com/vango-dev/transitiongroup/pkg/frame"
)

// Render is a decoded render pass.
type Render struct {
	Pass   uint64
	Frames []frame.Sequenced
}

// EncodeRender encodes one reconciler pass as a FrameRender frame.
func EncodeRender(pass uint64, frames []frame.Sequenced, flags FrameFlags) (*Frame, error) {
	w := newPayloadWriter()
	w.count(pass)
	w.count(uint64(len(frames)))
	for _, sf := range frames {
		w.head(sf.Frame.Kind(), sf.Seq)

		switch f := sf.Frame.(type) {
		case frame.OpenElement:
			w.str(f.Name)
			w.optional(f.Key)
		case frame.OpenComponent:
			w.str(f.Type)
			w.optional(f.Key)
			w.flag(f.AppendKey)
		case frame.Attribute:
			w.str(f.Name)
			w.optional(f.Value)
		case frame.Text:
			w.str(f.Content)
		case frame.CloseElement, frame.CloseComponent,
			frame.ElementRefCapture, frame.ComponentRefCapture:
		default:
			return nil, fmt.Errorf("%w: %T", ErrUnknownFrameKind, sf.Frame)
		}
	}
	if len(w.buf) > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	return &Frame{Type: FrameRender, Flags: flags, Payload: w.buf}, nil
}

// DecodeRender decodes a FrameRender payload. Keys and attribute values
// come back as strings; ref captures come back with nil callbacks.
func DecodeRender(payload []byte) (*Render, error) {
	r := &payloadReader{buf: payload}

	pass, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	count, err := r.count()
	if err != nil {
		return nil, err
	}

	out := &Render{Pass: pass, Frames: make([]frame.Sequenced, 0, count)}
	depth := 0
	for i := 0; i < count; i++ {
		sf, err := r.frame()
		if err != nil {
			return nil, err
		}
		switch sf.Frame.Kind() {
		case frame.KindOpenElement, frame.KindOpenComponent:
			depth++
			if depth > MaxDepth {
				return nil, ErrMaxDepthExceeded
			}
		case frame.KindCloseElement, frame.KindCloseComponent:
			depth--
			if depth < 0 {
				return nil, ErrUnbalanced
			}
		}
		out.Frames = append(out.Frames, sf)
	}
	if depth != 0 {
		return nil, ErrUnbalanced
	}
	if r.remaining() != 0 {
		return nil, fmt.Errorf("protocol: %d trailing bytes after render payload", r.remaining())
	}
	return out, nil
}

func (r *payloadReader) frame() (frame.Sequenced, error) {
	kind, seq, err := r.head()
	if err != nil {
		return frame.Sequenced{}, err
	}

	var f frame.Frame
	switch kind {
	case frame.KindOpenElement:
		var oe frame.OpenElement
		if oe.Name, err = r.str(); err == nil {
			oe.Key, err = r.optional()
		}
		f = oe
	case frame.KindOpenComponent:
		var oc frame.OpenComponent
		if oc.Type, err = r.str(); err == nil {
			if oc.Key, err = r.optional(); err == nil {
				oc.AppendKey, err = r.flag()
			}
		}
		f = oc
	case frame.KindAttribute:
		var a frame.Attribute
		if a.Name, err = r.str(); err == nil {
			a.Value, err = r.optional()
		}
		f = a
	case frame.KindText:
		var t frame.Text
		t.Content, err = r.str()
		f = t
	case frame.KindCloseElement:
		f = frame.CloseElement{}
	case frame.KindCloseComponent:
		f = frame.CloseComponent{}
	case frame.KindElementRefCapture:
		f = frame.ElementRefCapture{}
	case frame.KindComponentRefCapture:
		f = frame.ComponentRefCapture{}
	default:
		return frame.Sequenced{}, fmt.Errorf("%w: 0x%02x", ErrUnknownFrameKind, byte(kind))
	}
	if err != nil {
		return frame.Sequenced{}, err
	}
	return frame.Sequenced{Seq: seq, Frame: f}, nil
}
