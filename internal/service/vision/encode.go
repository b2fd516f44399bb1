package vision

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"helmetwatch/internal/model"
)

// JPEGEncoder turns frames into JPEG bytes for the live feed.
type JPEGEncoder struct{}

// Encode returns the frame as a JPEG.
func (JPEGEncoder) Encode(frame model.Frame) ([]byte, error) {
	mat, err := ToMat(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame %d: %v", frame.Seq, err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

// DecodeJPEG decodes a JPEG into a BGR frame.
func DecodeJPEG(data []byte, seq uint64, capturedAt time.Time) (model.Frame, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return model.Frame{}, fmt.Errorf("failed to decode image: %v", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return model.Frame{}, fmt.Errorf("decoded image is empty")
	}

	return FromMat(mat, seq, capturedAt)
}
