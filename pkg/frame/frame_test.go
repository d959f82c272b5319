package frame

import "testing"

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindOpenElement, "OpenElement"},
		{KindCloseComponent, "CloseComponent"},
		{KindComponentRefCapture, "ComponentRefCapture"},
		{Kind(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestStream_SubtreeLengths(t *testing.T) {
	var s Stream
	s.OpenElement("ul", nil)
	s.Attribute("class", "list")
	s.OpenElement("li", "1")
	s.Text("a")
	s.Close()
	s.Close()
	ops := s.Ops()

	if ops[0].SubtreeLength != 4 {
		t.Errorf("ul length = %d, want 4", ops[0].SubtreeLength)
	}
	if ops[2].SubtreeLength != 2 {
		t.Errorf("li length = %d, want 2", ops[2].SubtreeLength)
	}
}

func TestStream_Panics(t *testing.T) {
	t.Run("close without open", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		var s Stream
		s.Close()
	})
	t.Run("unclosed", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		var s Stream
		s.OpenElement("div", nil)
		s.Ops()
	})
}

func TestBuilder_Sequencing(t *testing.T) {
	b := NewBuilder(DefaultKeyAttribute)
	b.Append(OpenElement{Name: "li"})
	b.Append(Text{Content: "a"})
	b.Append(CloseElement{})
	b.Append(OpenElement{Name: "li"})
	b.Append(CloseElement{})

	wantSeq := []int{0, 1, -1, 2, -1}
	for i, f := range b.Frames() {
		if f.Seq != wantSeq[i] {
			t.Errorf("frame %d seq = %d, want %d", i, f.Seq, wantSeq[i])
		}
	}
	if b.Len() != 5 {
		t.Errorf("Len() = %d", b.Len())
	}
}

func TestSubtree_EmitAppendsKey(t *testing.T) {
	st := &Subtree{
		Key: "7",
		Frames: []Frame{
			OpenComponent{Type: "Fade", Key: "7", AppendKey: true},
			Attribute{Name: "duration", Value: 300},
			CloseComponent{},
		},
	}

	tests := []struct {
		name     string
		attr     string
		wantLen  int
		wantAttr bool
	}{
		{"default attribute", DefaultKeyAttribute, 4, true},
		{"suppressed", "", 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(tt.attr)
			st.Emit(b)
			frames := b.Frames()
			if len(frames) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(frames), tt.wantLen)
			}
			attr, ok := frames[1].Frame.(Attribute)
			if tt.wantAttr {
				if !ok || attr.Name != DefaultKeyAttribute || attr.Value != "7" {
					t.Errorf("frames[1] = %#v, want key attribute", frames[1].Frame)
				}
				if frames[1].Seq != 1 {
					t.Errorf("key attribute seq = %d, want 1", frames[1].Seq)
				}
			} else if ok && attr.Name == DefaultKeyAttribute {
				t.Error("key attribute should be suppressed")
			}
		})
	}
}
