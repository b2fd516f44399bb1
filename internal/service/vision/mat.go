// Package vision holds the OpenCV side of the pipeline: frame conversion,
// overlays, encoding, clip writing and the preview window.
package vision

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"helmetwatch/internal/model"
)

// ToMat copies a frame into a new BGR Mat. The caller closes it.
func ToMat(frame model.Frame) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.NewMat(), fmt.Errorf("frame %d is empty", frame.Seq)
	}
	if frame.Channels != 3 {
		return gocv.NewMat(), fmt.Errorf("frame %d has %d channels, expected 3", frame.Seq, frame.Channels)
	}

	view, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to wrap frame %d: %v", frame.Seq, err)
	}
	defer view.Close()

	// The view shares frame.Data; drawing must not touch the buffered frame.
	return view.Clone(), nil
}

// FromMat copies a BGR Mat into a frame.
func FromMat(mat gocv.Mat, seq uint64, capturedAt time.Time) (model.Frame, error) {
	if mat.Empty() {
		return model.Frame{}, fmt.Errorf("mat is empty")
	}
	if mat.Channels() != 3 {
		return model.Frame{}, fmt.Errorf("mat has %d channels, expected 3", mat.Channels())
	}

	src := mat
	if !mat.IsContinuous() {
		src = mat.Clone()
		defer src.Close()
	}

	return model.Frame{
		Seq:        seq,
		CapturedAt: capturedAt,
		Width:      src.Cols(),
		Height:     src.Rows(),
		Channels:   3,
		Data:       src.ToBytes(),
	}, nil
}
