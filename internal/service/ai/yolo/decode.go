// Package yolo turns raw YOLO output tensors into detections.
package yolo

import (
	"fmt"
	"sort"

	"helmetwatch/internal/dto"
)

// DefaultIoUThreshold is the overlap above which a weaker box of the same class is suppressed.
const DefaultIoUThreshold = 0.45

// Layout describes how a raw output tensor is arranged.
type Layout int

const (
	// LayoutV8 is [1, 4+nc, N]: rows are attributes, columns are candidates, no objectness.
	LayoutV8 Layout = iota
	// LayoutV5 is [1, N, 5+nc]: rows are candidates, column 4 is objectness.
	LayoutV5
)

// Params controls decoding.
type Params struct {
	NumClasses   int
	InputSize    int
	FrameWidth   int
	FrameHeight  int
	Threshold    float64
	IoUThreshold float64
	Labels       func(classID int) string
}

// DetectLayout picks the layout from the tensor shape with the batch dimension removed.
func DetectLayout(rows, cols, numClasses int) (Layout, error) {
	switch {
	case rows == 4+numClasses:
		return LayoutV8, nil
	case cols == 5+numClasses:
		return LayoutV5, nil
	default:
		return LayoutV8, fmt.Errorf("unsupported output shape %dx%d for %d classes", rows, cols, numClasses)
	}
}

// Decode reads candidates out of data (row-major rows x cols), drops those under
// the threshold, scales boxes to frame size, and applies class-wise NMS.
// Results are ordered by confidence, highest first.
func Decode(data []float32, rows, cols int, layout Layout, p Params) ([]dto.DetectionResult, error) {
	if len(data) < rows*cols {
		return nil, fmt.Errorf("output has %d values, expected %d", len(data), rows*cols)
	}
	if p.NumClasses <= 0 || p.InputSize <= 0 {
		return nil, fmt.Errorf("invalid decode params: classes=%d input=%d", p.NumClasses, p.InputSize)
	}

	var candidates []dto.DetectionResult
	switch layout {
	case LayoutV8:
		if rows != 4+p.NumClasses {
			return nil, fmt.Errorf("expected %d attribute rows, got %d", 4+p.NumClasses, rows)
		}
		at := func(attr, i int) float32 { return data[attr*cols+i] }
		for i := 0; i < cols; i++ {
			classID, score := bestClass(p.NumClasses, func(c int) float32 { return at(4+c, i) })
			if float64(score) < p.Threshold {
				continue
			}
			candidates = append(candidates, p.box(at(0, i), at(1, i), at(2, i), at(3, i), classID, score))
		}
	case LayoutV5:
		if cols != 5+p.NumClasses {
			return nil, fmt.Errorf("expected %d attribute columns, got %d", 5+p.NumClasses, cols)
		}
		for i := 0; i < rows; i++ {
			row := data[i*cols : (i+1)*cols]
			classID, score := bestClass(p.NumClasses, func(c int) float32 { return row[5+c] })
			score *= row[4]
			if float64(score) < p.Threshold {
				continue
			}
			candidates = append(candidates, p.box(row[0], row[1], row[2], row[3], classID, score))
		}
	default:
		return nil, fmt.Errorf("unknown layout %d", layout)
	}

	iou := p.IoUThreshold
	if iou <= 0 {
		iou = DefaultIoUThreshold
	}
	return NMS(candidates, iou), nil
}

func bestClass(n int, score func(int) float32) (int, float32) {
	best, bestScore := 0, score(0)
	for c := 1; c < n; c++ {
		if s := score(c); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best, bestScore
}

// box converts a center/size box in input pixels into a clamped frame rectangle.
func (p Params) box(cx, cy, w, h float32, classID int, score float32) dto.DetectionResult {
	sx := float64(p.FrameWidth) / float64(p.InputSize)
	sy := float64(p.FrameHeight) / float64(p.InputSize)

	x1 := clamp((float64(cx)-float64(w)/2)*sx, p.FrameWidth)
	y1 := clamp((float64(cy)-float64(h)/2)*sy, p.FrameHeight)
	x2 := clamp((float64(cx)+float64(w)/2)*sx, p.FrameWidth)
	y2 := clamp((float64(cy)+float64(h)/2)*sy, p.FrameHeight)

	label := fmt.Sprintf("class%d", classID)
	if p.Labels != nil {
		label = p.Labels(classID)
	}

	return dto.DetectionResult{
		ClassID:    classID,
		Label:      label,
		Confidence: float64(score),
		X:          x1,
		Y:          y1,
		Width:      x2 - x1,
		Height:     y2 - y1,
	}
}

func clamp(v float64, max int) int {
	if v < 0 {
		return 0
	}
	if v > float64(max) {
		return max
	}
	return int(v)
}

// NMS keeps the strongest box of each overlapping group within a class.
func NMS(candidates []dto.DetectionResult, iouThreshold float64) []dto.DetectionResult {
	sorted := make([]dto.DetectionResult, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make([]dto.DetectionResult, 0, len(sorted))
	for _, c := range sorted {
		suppressed := false
		for _, k := range kept {
			if k.ClassID == c.ClassID && IoU(k, c) > iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, c)
		}
	}
	return kept
}

// IoU is the intersection over union of two boxes.
func IoU(a, b dto.DetectionResult) float64 {
	inter := a.Rect().Intersect(b.Rect())
	if inter.Empty() {
		return 0
	}
	interArea := float64(inter.Dx() * inter.Dy())
	union := float64(a.Width*a.Height+b.Width*b.Height) - interArea
	if union <= 0 {
		return 0
	}
	return interArea / union
}
