// Package publisher delivers annotated frames and violation events to viewers.
package publisher

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/hybridgroup/mjpeg"

	"helmetwatch/internal/dto"
	"helmetwatch/internal/logger"
	"helmetwatch/internal/model"
)

// Encoder turns a frame into JPEG bytes.
type Encoder interface {
	Encode(frame model.Frame) ([]byte, error)
}

// Broadcaster pushes a message to every connected viewer.
type Broadcaster interface {
	Broadcast(message []byte)
}

// LiveFeed serves the latest annotated frame as MJPEG and keeps the violation log.
type LiveFeed struct {
	stream  *mjpeg.Stream
	encoder Encoder
	log     *ViolationLog
	hub     Broadcaster
	logger  *logger.Logger

	mu     sync.RWMutex
	latest []byte
	frames uint64
}

// NewLiveFeed creates a LiveFeed. hub may be nil.
func NewLiveFeed(encoder Encoder, log *ViolationLog, hub Broadcaster, logger *logger.Logger) *LiveFeed {
	return &LiveFeed{
		stream:  mjpeg.NewStream(),
		encoder: encoder,
		log:     log,
		hub:     hub,
		logger:  logger,
	}
}

// Publish makes frame the current live picture.
func (f *LiveFeed) Publish(frame model.Frame) {
	jpeg, err := f.encoder.Encode(frame)
	if err != nil {
		f.logger.Warning("Failed to encode frame %d for live feed: %v", frame.Seq, err)
		return
	}

	f.mu.Lock()
	f.latest = jpeg
	f.frames++
	f.mu.Unlock()

	f.stream.UpdateJPEG(jpeg)
}

// ReportViolation appends the label to the violation log and notifies viewers.
func (f *LiveFeed) ReportViolation(event dto.ViolationEvent) {
	f.log.Append(event.Label)

	if f.hub == nil {
		return
	}

	message, err := json.Marshal(event)
	if err != nil {
		f.logger.Error("Failed to encode violation event: %v", err)
		return
	}
	f.hub.Broadcast(message)
}

// Latest returns the most recent JPEG, nil before the first frame.
func (f *LiveFeed) Latest() []byte {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.latest
}

// Published counts frames that reached the feed.
func (f *LiveFeed) Published() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.frames
}

// Log exposes the violation log.
func (f *LiveFeed) Log() *ViolationLog {
	return f.log
}

// Stream is the multipart/x-mixed-replace handler for the feed.
func (f *LiveFeed) Stream() http.Handler {
	return f.stream
}

// FramePublisher receives frames for display.
type FramePublisher interface {
	Publish(frame model.Frame)
}

// Fanout publishes each frame to every target in order.
type Fanout []FramePublisher

func (f Fanout) Publish(frame model.Frame) {
	for _, target := range f {
		target.Publish(frame)
	}
}
