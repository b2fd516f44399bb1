// Package camera provides the frame sources: a local device or file through
// OpenCV, and JPEG frames pushed over UDP.
package camera

import (
	"context"
	"fmt"
	"math"
	"time"

	"gocv.io/x/gocv"

	"helmetwatch/internal/config"
	"helmetwatch/internal/logger"
	"helmetwatch/internal/model"
	"helmetwatch/internal/service/vision"
)

var (
	ErrSourceUnavailable = model.ErrSourceUnavailable
	ErrEndOfStream       = model.ErrEndOfStream
)

// Source yields frames in arrival order.
type Source interface {
	Next(ctx context.Context) (model.Frame, error)
	FPS() float64
	Close() error
}

// Open creates the source selected by CAMERA_SOURCE.
func Open(cfg *config.Config, logger *logger.Logger) (Source, error) {
	switch cfg.CameraSource {
	case config.SourceUDP:
		source, err := ListenUDP(cfg, logger)
		if err != nil {
			return nil, err
		}
		return source, nil
	case config.SourceFile:
		source, err := OpenCapture(cfg.CameraURI, cfg.DefaultFPS, logger)
		if err != nil {
			return nil, err
		}
		return source, nil
	default:
		source, err := OpenCapture(cfg.CameraIndex, cfg.DefaultFPS, logger)
		if err != nil {
			return nil, err
		}
		return source, nil
	}
}

// CaptureSource reads frames from an OpenCV VideoCapture.
type CaptureSource struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	fps     float64
	seq     uint64
	logger  *logger.Logger
}

// OpenCapture opens a device index or a file/URL. fallbackFPS is used when the
// device does not report a frame rate.
func OpenCapture(device interface{}, fallbackFPS float64, logger *logger.Logger) (*CaptureSource, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %v", ErrSourceUnavailable, device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: %v did not open", ErrSourceUnavailable, device)
	}

	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		logger.Warning("Camera %v reports no frame rate, using %.0f fps", device, fallbackFPS)
		fps = fallbackFPS
	}

	logger.Info("Camera %v opened at %.2f fps", device, fps)
	return &CaptureSource{
		capture: capture,
		mat:     gocv.NewMat(),
		fps:     fps,
		logger:  logger,
	}, nil
}

// FPS is the frame rate the source reports.
func (s *CaptureSource) FPS() float64 {
	return s.fps
}

// Next reads one frame. A failed or empty read ends the stream.
func (s *CaptureSource) Next(ctx context.Context) (model.Frame, error) {
	if err := ctx.Err(); err != nil {
		return model.Frame{}, err
	}

	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return model.Frame{}, ErrEndOfStream
	}

	s.seq++
	return vision.FromMat(s.mat, s.seq, time.Now())
}

// Close releases the capture device.
func (s *CaptureSource) Close() error {
	s.mat.Close()
	return s.capture.Close()
}
