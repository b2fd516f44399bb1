package recorder

import (
	"testing"

	"helmetwatch/internal/model"
)

func TestPreEventBuffer_BoundAndOrder(t *testing.T) {
	b := NewPreEventBuffer(150)

	for seq := uint64(1); seq <= 400; seq++ {
		b.Push(model.Frame{Seq: seq})

		want := int(seq)
		if want > 150 {
			want = 150
		}
		if b.Len() != want {
			t.Fatalf("After %d pushes expected %d frames, got %d", seq, want, b.Len())
		}

		newest, ok := b.Newest()
		if !ok || newest.Seq != seq {
			t.Fatalf("Expected newest seq %d, got %d", seq, newest.Seq)
		}
		oldest, _ := b.Oldest()
		if oldest.Seq != seq-uint64(want)+1 {
			t.Fatalf("Expected oldest seq %d, got %d", seq-uint64(want)+1, oldest.Seq)
		}
	}

	frames := b.Frames()
	for i, f := range frames {
		if f.Seq != uint64(251+i) {
			t.Fatalf("Frame %d out of order: got seq %d", i, f.Seq)
		}
	}
}

func TestPreEventBuffer_Drain(t *testing.T) {
	b := NewPreEventBuffer(5)
	for seq := uint64(1); seq <= 7; seq++ {
		b.Push(model.Frame{Seq: seq})
	}

	drained := b.Drain()
	if len(drained) != 5 || drained[0].Seq != 3 || drained[4].Seq != 7 {
		t.Errorf("Unexpected drained frames: %+v", drained)
	}
	if b.Len() != 0 {
		t.Errorf("Expected empty buffer after drain, got %d", b.Len())
	}
	if _, ok := b.Oldest(); ok {
		t.Error("Oldest should report empty buffer")
	}

	b.Push(model.Frame{Seq: 8})
	if got := b.Frames(); len(got) != 1 || got[0].Seq != 8 {
		t.Errorf("Buffer should restart cleanly after drain, got %+v", got)
	}
}

func TestPreEventBuffer_ZeroCapacity(t *testing.T) {
	b := NewPreEventBuffer(0)
	b.Push(model.Frame{Seq: 1})

	if b.Len() != 0 || b.Cap() != 0 {
		t.Errorf("Expected empty zero-capacity buffer, got len=%d cap=%d", b.Len(), b.Cap())
	}
	if len(b.Drain()) != 0 {
		t.Error("Expected nothing to drain")
	}
}
