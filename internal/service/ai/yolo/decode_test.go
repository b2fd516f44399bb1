package yolo

import (
	"testing"

	"helmetwatch/internal/dto"
)

const numClasses = 4

// v8Output builds a [4+nc, N] tensor from candidate columns.
func v8Output(cands [][]float32) []float32 {
	rows := 4 + numClasses
	data := make([]float32, rows*len(cands))
	for i, c := range cands {
		for attr := 0; attr < rows; attr++ {
			data[attr*len(cands)+i] = c[attr]
		}
	}
	return data
}

func params() Params {
	return Params{
		NumClasses:  numClasses,
		InputSize:   640,
		FrameWidth:  1280,
		FrameHeight: 720,
		Threshold:   0.25,
		Labels: func(id int) string {
			return []string{"motorcycle", "no_helmet", "proper_helmet", "wrong_helmet"}[id]
		},
	}
}

func TestDecodeV8_ScalesAndLabels(t *testing.T) {
	data := v8Output([][]float32{
		{320, 320, 64, 64, 0.1, 0.9, 0.0, 0.0},
		{100, 100, 20, 20, 0.1, 0.1, 0.2, 0.1}, // below threshold
	})

	got, err := Decode(data, 4+numClasses, 2, LayoutV8, params())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 detection, got %d", len(got))
	}

	d := got[0]
	if d.ClassID != 1 || d.Label != "no_helmet" {
		t.Errorf("Unexpected class %d (%s)", d.ClassID, d.Label)
	}
	if d.X != 576 || d.Y != 324 || d.Width != 128 || d.Height != 72 {
		t.Errorf("Unexpected box %+v", d)
	}
	if d.Confidence < 0.89 || d.Confidence > 0.91 {
		t.Errorf("Unexpected confidence %f", d.Confidence)
	}
}

func TestDecodeV5_UsesObjectness(t *testing.T) {
	cols := 5 + numClasses
	data := []float32{
		320, 320, 64, 64, 0.5, 0.9, 0.1, 0.0, 0.0, // 0.45
		320, 320, 64, 64, 0.2, 0.0, 0.0, 0.9, 0.0, // 0.18 dropped
	}

	got, err := Decode(data, 2, cols, LayoutV5, params())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(got) != 1 || got[0].ClassID != 0 {
		t.Fatalf("Expected one motorcycle, got %+v", got)
	}
	if got[0].Confidence < 0.44 || got[0].Confidence > 0.46 {
		t.Errorf("Expected objectness-weighted score, got %f", got[0].Confidence)
	}
}

func TestDecode_ClampsToFrame(t *testing.T) {
	data := v8Output([][]float32{{10, 630, 60, 60, 0.8, 0, 0, 0}})

	got, err := Decode(data, 4+numClasses, 1, LayoutV8, params())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	d := got[0]
	if d.X != 0 || d.Y+d.Height != 720 {
		t.Errorf("Box not clamped: %+v", d)
	}
}

func TestDecode_BadShape(t *testing.T) {
	if _, err := Decode(make([]float32, 10), 5, 2, LayoutV8, params()); err == nil {
		t.Error("Expected error for wrong attribute count")
	}
	if _, err := Decode(make([]float32, 4), 8, 2, LayoutV8, params()); err == nil {
		t.Error("Expected error for short data")
	}
}

func TestDetectLayout(t *testing.T) {
	if l, err := DetectLayout(8, 8400, numClasses); err != nil || l != LayoutV8 {
		t.Errorf("Expected v8 layout, got %v (%v)", l, err)
	}
	if l, err := DetectLayout(25200, 9, numClasses); err != nil || l != LayoutV5 {
		t.Errorf("Expected v5 layout, got %v (%v)", l, err)
	}
	if _, err := DetectLayout(3, 3, numClasses); err == nil {
		t.Error("Expected unsupported shape error")
	}
}

func TestNMS(t *testing.T) {
	boxes := []dto.DetectionResult{
		{ClassID: 1, Confidence: 0.6, X: 0, Y: 0, Width: 100, Height: 100},
		{ClassID: 1, Confidence: 0.9, X: 5, Y: 5, Width: 100, Height: 100},
		{ClassID: 2, Confidence: 0.7, X: 5, Y: 5, Width: 100, Height: 100},
		{ClassID: 1, Confidence: 0.5, X: 300, Y: 300, Width: 50, Height: 50},
	}

	kept := NMS(boxes, DefaultIoUThreshold)
	if len(kept) != 3 {
		t.Fatalf("Expected 3 boxes, got %d: %+v", len(kept), kept)
	}
	want := []float64{0.9, 0.7, 0.5}
	for i, k := range kept {
		if k.Confidence != want[i] {
			t.Errorf("Position %d: expected confidence %.1f, got %.1f", i, want[i], k.Confidence)
		}
	}
}

func TestIoU(t *testing.T) {
	a := dto.DetectionResult{X: 0, Y: 0, Width: 10, Height: 10}
	b := dto.DetectionResult{X: 5, Y: 0, Width: 10, Height: 10}
	if got := IoU(a, b); got < 0.333 || got > 0.334 {
		t.Errorf("Expected 1/3, got %f", got)
	}
	c := dto.DetectionResult{X: 50, Y: 50, Width: 10, Height: 10}
	if IoU(a, c) != 0 {
		t.Error("Disjoint boxes should have zero IoU")
	}
}
