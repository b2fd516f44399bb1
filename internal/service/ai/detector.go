package ai

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"helmetwatch/internal/config"
	"helmetwatch/internal/dto"
	"helmetwatch/internal/logger"
	"helmetwatch/internal/model"
	"helmetwatch/internal/service/ai/yolo"
	"helmetwatch/internal/service/vision"
)

// DetectorService runs a YOLO ONNX export through the OpenCV DNN module.
type DetectorService struct {
	net       gocv.Net
	mu        sync.Mutex
	modelPath string
	inputSize int
	threshold float64
	labels    []string
	logger    *logger.Logger
}

// NewDetectorService loads the model. A model that cannot be loaded is an error.
func NewDetectorService(config *config.Config, logger *logger.Logger) (*DetectorService, error) {
	service := &DetectorService{
		modelPath: config.ModelPath,
		inputSize: config.ImageSize,
		threshold: config.ConfidenceThreshold,
		labels:    append([]string(nil), config.ClassLabels...),
		logger:    logger,
	}

	if err := service.initializeNet(); err != nil {
		return nil, err
	}

	return service, nil
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (s *DetectorService) initializeNet() error {
	if _, err := os.Stat(s.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.modelPath)
	}

	net := gocv.ReadNet(s.modelPath, "")
	if net.Empty() {
		return fmt.Errorf("failed to load network from %s", s.modelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	s.net = net
	s.logger.Info("Detection network loaded from %s (%d classes, input %d)", s.modelPath, len(s.labels), s.inputSize)
	for id, label := range s.labels {
		s.logger.Info("  class %d: %s", id, label)
	}
	return nil
}

// Labels returns the class id to label table, index is the class id.
func (s *DetectorService) Labels() []string {
	return append([]string(nil), s.labels...)
}

// Label maps a class id to its label.
func (s *DetectorService) Label(classID int) string {
	if classID >= 0 && classID < len(s.labels) {
		return s.labels[classID]
	}
	return fmt.Sprintf("class%d", classID)
}

// Detect runs the network on a frame and returns detections above the threshold.
func (s *DetectorService) Detect(frame model.Frame) ([]dto.DetectionResult, error) {
	mat, err := vision.ToMat(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(s.inputSize, s.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")

	output := s.net.Forward("")
	defer output.Close()

	if output.Empty() {
		return nil, fmt.Errorf("network produced no output for frame %d", frame.Seq)
	}

	// Output is [1, rows, cols].
	dims := output.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output rank %d", len(dims))
	}
	rows, cols := dims[1], dims[2]

	layout, err := yolo.DetectLayout(rows, cols, len(s.labels))
	if err != nil {
		return nil, err
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read network output: %v", err)
	}

	return yolo.Decode(data, rows, cols, layout, yolo.Params{
		NumClasses:  len(s.labels),
		InputSize:   s.inputSize,
		FrameWidth:  frame.Width,
		FrameHeight: frame.Height,
		Threshold:   s.threshold,
		Labels:      s.Label,
	})
}

// Close releases the network.
func (s *DetectorService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.Close()
}
