package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"helmetwatch/internal/logger"
	"helmetwatch/internal/model"
)

var (
	// ErrWriteFailure wraps every failure to create, write or finalize a clip.
	ErrWriteFailure = errors.New("clip write failure")
	// ErrRecordingInProgress is returned when a trigger arrives during a recording.
	ErrRecordingInProgress = errors.New("recording already in progress")
)

// Source yields frames in arrival order and model.ErrEndOfStream when exhausted.
type Source interface {
	Next(ctx context.Context) (model.Frame, error)
}

// ClipStream receives the frames of one clip. stamp is the time rendered on the frame.
type ClipStream interface {
	Write(frame model.Frame, stamp time.Time) error
	Close() error
}

// ClipSink opens output streams for clips.
type ClipSink interface {
	Open(path string, fps float64, width, height int) (ClipStream, error)
}

// PathReserver hands out unique clip paths.
type PathReserver interface {
	Reserve(label string, at time.Time) (string, error)
	Release(path string)
}

// Publisher receives frames captured while recording so the live view keeps moving.
type Publisher interface {
	Publish(frame model.Frame)
}

// Options sizes the pre and post windows in frames.
type Options struct {
	FPS        float64
	PreFrames  int
	PostFrames int
}

// Recorder owns the pre-event buffer and writes one clip per trigger.
//
// While idle every observed frame goes into the buffer. Trigger drains the
// buffer into a new clip, then pulls PostFrames more frames straight from the
// source. Nothing else reads the source during that time, so at most one
// recording is active and violations during post-capture are not evaluated.
type Recorder struct {
	buffer     *PreEventBuffer
	source     Source
	sink       ClipSink
	paths      PathReserver
	publisher  Publisher
	fps        float64
	postFrames int
	recording  bool
	logger     *logger.Logger
}

// New creates a Recorder. publisher may be nil.
func New(opts Options, source Source, sink ClipSink, paths PathReserver, publisher Publisher, logger *logger.Logger) *Recorder {
	return &Recorder{
		buffer:     NewPreEventBuffer(opts.PreFrames),
		source:     source,
		sink:       sink,
		paths:      paths,
		publisher:  publisher,
		fps:        opts.FPS,
		postFrames: opts.PostFrames,
		logger:     logger,
	}
}

// Observe records a frame into the pre-event buffer. Call it for every frame,
// including the one that triggers a recording.
func (r *Recorder) Observe(frame model.Frame) {
	r.buffer.Push(frame)
}

// Buffered is the number of frames waiting in the pre-event buffer.
func (r *Recorder) Buffered() int {
	return r.buffer.Len()
}

// Capacity is the pre-event buffer size.
func (r *Recorder) Capacity() int {
	return r.buffer.Cap()
}

// Recording reports whether a clip is being written.
func (r *Recorder) Recording() bool {
	return r.recording
}

// Trigger writes the clip for verdict. The returned clip is non-nil whenever an
// output stream was opened, even if writing failed later; SourceExhausted is set
// when the source ended during post-capture. Post-capture ignores cancellation
// of ctx and runs until PostFrames frames were read or the source ends.
func (r *Recorder) Trigger(ctx context.Context, verdict model.Verdict, trigger model.Frame) (*model.Clip, error) {
	if r.recording {
		return nil, ErrRecordingInProgress
	}
	r.recording = true
	defer func() { r.recording = false }()

	path, err := r.paths.Reserve(verdict.Label, trigger.CapturedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}

	stream, err := r.sink.Open(path, r.fps, trigger.Width, trigger.Height)
	if err != nil {
		r.paths.Release(path)
		return nil, fmt.Errorf("%w: open %s: %v", ErrWriteFailure, path, err)
	}

	clip := &model.Clip{
		Label:     verdict.Label,
		Kind:      verdict.Kind,
		FilePath:  path,
		StartedAt: trigger.CapturedAt,
	}

	r.logger.Info("Recording %s clip to %s (%d buffered frames)", verdict.Label, path, r.buffer.Len())

	var writeErr error
	for _, frame := range r.buffer.Drain() {
		if err := stream.Write(frame, frame.CapturedAt); err != nil {
			writeErr = fmt.Errorf("write pre-event frame %d: %w", frame.Seq, err)
			break
		}
		clip.PreFrames++
	}

	if writeErr == nil {
		writeErr = r.capturePost(context.WithoutCancel(ctx), stream, clip)
	}

	if err := stream.Close(); err != nil {
		writeErr = errors.Join(writeErr, fmt.Errorf("close: %w", err))
	}

	if writeErr != nil {
		return clip, fmt.Errorf("%w: %s: %w", ErrWriteFailure, path, writeErr)
	}
	return clip, nil
}

// capturePost reads live frames into the clip until the post window is full or the source ends.
func (r *Recorder) capturePost(ctx context.Context, stream ClipStream, clip *model.Clip) error {
	for i := 0; i < r.postFrames; i++ {
		frame, err := r.source.Next(ctx)
		if err != nil {
			if !errors.Is(err, model.ErrEndOfStream) {
				r.logger.Warning("Frame source failed during post-capture, treating as end of stream: %v", err)
			}
			clip.SourceExhausted = true
			return nil
		}

		if r.publisher != nil {
			r.publisher.Publish(frame)
		}

		if err := stream.Write(frame, frame.CapturedAt); err != nil {
			return fmt.Errorf("write post-event frame %d: %w", frame.Seq, err)
		}
		clip.PostFrames++
	}
	return nil
}
