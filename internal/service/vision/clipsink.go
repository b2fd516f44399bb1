package vision

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"helmetwatch/internal/model"
	"helmetwatch/internal/service/recorder"
)

// VideoSink writes clips with OpenCV's VideoWriter.
type VideoSink struct {
	codec string
}

// NewVideoSink creates a sink for the given FourCC codec, e.g. XVID.
func NewVideoSink(codec string) *VideoSink {
	return &VideoSink{codec: codec}
}

// Open starts a clip file at path.
func (s *VideoSink) Open(path string, fps float64, width, height int) (recorder.ClipStream, error) {
	writer, err := gocv.VideoWriterFile(path, s.codec, fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("failed to open video writer: %v", err)
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("video writer for %s did not open (codec %s)", path, s.codec)
	}
	return &videoStream{writer: writer, width: width, height: height}, nil
}

type videoStream struct {
	writer *gocv.VideoWriter
	width  int
	height int
}

// Write stamps the frame and appends it to the clip.
func (v *videoStream) Write(frame model.Frame, stamp time.Time) error {
	if frame.Width != v.width || frame.Height != v.height {
		return fmt.Errorf("frame %d is %dx%d, clip is %dx%d", frame.Seq, frame.Width, frame.Height, v.width, v.height)
	}

	mat, err := ToMat(frame)
	if err != nil {
		return err
	}
	defer mat.Close()

	if err := Stamp(&mat, stamp); err != nil {
		return err
	}
	return v.writer.Write(mat)
}

func (v *videoStream) Close() error {
	return v.writer.Close()
}
