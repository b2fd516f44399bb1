package vision

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	"gocv.io/x/gocv"

	"helmetwatch/internal/dto"
	"helmetwatch/internal/model"
)

// StampLayout is the timestamp format rendered on clip frames.
const StampLayout = "2006-01-02 15:04:05"

var (
	red   = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	green = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

// Annotator draws detections and the violation banner onto frames.
type Annotator struct{}

// NewAnnotator creates an Annotator.
func NewAnnotator() *Annotator {
	return &Annotator{}
}

// Annotate returns a copy of frame with a box and "label (conf)" per detection,
// plus a red banner when the verdict is a violation. The input frame is untouched.
func (a *Annotator) Annotate(frame model.Frame, detections []dto.DetectionResult, verdict model.Verdict) (model.Frame, error) {
	mat, err := ToMat(frame)
	if err != nil {
		return model.Frame{}, err
	}
	defer mat.Close()

	for _, detection := range detections {
		boxColor := green
		if verdict.IsViolation {
			boxColor = red
		}

		err = gocv.Rectangle(&mat, detection.Rect(), boxColor, 2)
		if err != nil {
			return model.Frame{}, fmt.Errorf("failed to draw rectangle: %v", err)
		}

		label := fmt.Sprintf("%s (%.2f)", detection.Label, detection.Confidence)
		pt := image.Pt(detection.X, max(detection.Y-5, 12))
		err = gocv.PutText(&mat, label, pt, gocv.FontHersheySimplex, 0.5, boxColor, 1)
		if err != nil {
			return model.Frame{}, fmt.Errorf("failed to draw text: %v", err)
		}
	}

	if verdict.IsViolation {
		if err := drawBanner(&mat, "VIOLATION: "+strings.ToUpper(verdict.Label)); err != nil {
			return model.Frame{}, err
		}
	}

	return FromMat(mat, frame.Seq, frame.CapturedAt)
}

func drawBanner(mat *gocv.Mat, text string) error {
	size := gocv.GetTextSize(text, gocv.FontHersheySimplex, 0.8, 2)
	box := image.Rect(0, 0, min(size.X+20, mat.Cols()), size.Y+20)

	if err := gocv.Rectangle(mat, box, red, -1); err != nil {
		return fmt.Errorf("failed to draw banner: %v", err)
	}
	if err := gocv.PutText(mat, text, image.Pt(10, size.Y+10), gocv.FontHersheySimplex, 0.8, white, 2); err != nil {
		return fmt.Errorf("failed to draw banner text: %v", err)
	}
	return nil
}

// Stamp renders at in the bottom-left corner of mat.
func Stamp(mat *gocv.Mat, at time.Time) error {
	text := at.Format(StampLayout)
	pt := image.Pt(10, mat.Rows()-10)
	if err := gocv.PutText(mat, text, pt, gocv.FontHersheySimplex, 0.6, white, 2); err != nil {
		return fmt.Errorf("failed to draw timestamp: %v", err)
	}
	return nil
}
