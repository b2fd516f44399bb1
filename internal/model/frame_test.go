package model

import (
	"testing"
	"time"
)

func TestFrame_CloneIsDeep(t *testing.T) {
	f := Frame{Seq: 7, CapturedAt: time.Now(), Width: 2, Height: 1, Channels: 3, Data: []byte{1, 2, 3, 4, 5, 6}}

	c := f.Clone()
	c.Data[0] = 99

	if f.Data[0] != 1 {
		t.Error("Clone shares pixel data with the original")
	}
	if c.Seq != f.Seq || !c.CapturedAt.Equal(f.CapturedAt) || c.Width != 2 {
		t.Errorf("Clone lost metadata: %+v", c)
	}
}

func TestFrame_Empty(t *testing.T) {
	if !(Frame{}).Empty() {
		t.Error("Zero frame should be empty")
	}
	if (Frame{Width: 1, Height: 1, Channels: 3, Data: []byte{0, 0, 0}}).Empty() {
		t.Error("Frame with pixels should not be empty")
	}
}
