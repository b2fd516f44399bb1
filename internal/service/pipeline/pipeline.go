// Package pipeline runs the capture, detect, classify, record loop.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"helmetwatch/internal/dto"
	"helmetwatch/internal/logger"
	"helmetwatch/internal/metrics"
	"helmetwatch/internal/model"
	"helmetwatch/internal/service/recorder"
)

type Source interface {
	Next(ctx context.Context) (model.Frame, error)
}

type Detector interface {
	Detect(frame model.Frame) ([]dto.DetectionResult, error)
}

type Classifier interface {
	Classify(detections []dto.DetectionResult) model.Verdict
}

type Annotator interface {
	Annotate(frame model.Frame, detections []dto.DetectionResult, verdict model.Verdict) (model.Frame, error)
}

type Recorder interface {
	Observe(frame model.Frame)
	Trigger(ctx context.Context, verdict model.Verdict, trigger model.Frame) (*model.Clip, error)
	Buffered() int
}

// Reporter records violations for the dashboard.
type Reporter interface {
	ReportViolation(event dto.ViolationEvent)
}

type Publisher interface {
	Publish(frame model.Frame)
}

// Quitter is polled once per iteration; true stops the loop.
type Quitter interface {
	QuitRequested() bool
}

// Cataloger indexes a finished clip.
type Cataloger interface {
	Catalog(clip *model.Clip) error
}

// Deps are the collaborators of a Pipeline. Annotator, Publisher, Quitter and
// Catalog may be nil.
type Deps struct {
	Source     Source
	Detector   Detector
	Classifier Classifier
	Annotator  Annotator
	Recorder   Recorder
	Reporter   Reporter
	Publisher  Publisher
	Quitter    Quitter
	Catalog    Cataloger
}

// Pipeline owns one recorder and processes frames one at a time.
type Pipeline struct {
	deps    Deps
	metrics *metrics.Metrics
	logger  *logger.Logger
	frames  uint64
	clips   int
}

func New(deps Deps, metrics *metrics.Metrics, logger *logger.Logger) *Pipeline {
	return &Pipeline{deps: deps, metrics: metrics, logger: logger}
}

// Frames is the number of frames the loop has read itself, post-capture excluded.
func (p *Pipeline) Frames() uint64 {
	return p.frames
}

// Clips is the number of clips written successfully.
func (p *Pipeline) Clips() int {
	return p.clips
}

// Run loops until the source ends, ctx is cancelled or a quit is requested.
// End of stream and cancellation return nil; other source errors are returned.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("Pipeline started")

	for {
		if ctx.Err() != nil {
			p.logger.Info("Pipeline stopped: %v", context.Cause(ctx))
			return nil
		}
		if p.deps.Quitter != nil && p.deps.Quitter.QuitRequested() {
			p.logger.Info("Pipeline stopped: quit requested")
			return nil
		}

		frame, err := p.deps.Source.Next(ctx)
		if err != nil {
			if errors.Is(err, model.ErrEndOfStream) || ctx.Err() != nil {
				p.logger.Info("Camera stream ended after %d frames", p.frames)
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}

		exhausted := p.process(ctx, frame)
		if exhausted {
			p.logger.Info("Camera stream ended during post-capture after %d frames", p.frames)
			return nil
		}
	}
}

// process handles one frame and reports whether a recording exhausted the source.
func (p *Pipeline) process(ctx context.Context, frame model.Frame) bool {
	p.frames++
	p.metrics.FramesRead.Add(1)

	p.deps.Recorder.Observe(frame)
	p.metrics.BufferedFrames.Store(int64(p.deps.Recorder.Buffered()))

	var verdict model.Verdict
	detections, err := p.deps.Detector.Detect(frame)
	if err != nil {
		p.metrics.DetectorFailures.Add(1)
		p.logger.Warning("%v: frame %d: %v", model.ErrDetectorFailure, frame.Seq, err)
	} else {
		verdict = p.deps.Classifier.Classify(detections)
	}

	shown := frame
	if p.deps.Annotator != nil {
		annotated, err := p.deps.Annotator.Annotate(frame, detections, verdict)
		if err != nil {
			p.logger.Warning("Failed to annotate frame %d: %v", frame.Seq, err)
		} else {
			shown = annotated
		}
	}

	// The violating frame goes out before post-capture starts publishing newer ones.
	if p.deps.Publisher != nil {
		p.deps.Publisher.Publish(shown)
	}

	if !verdict.IsViolation {
		return false
	}
	return p.handleViolation(ctx, frame, verdict)
}

func (p *Pipeline) handleViolation(ctx context.Context, frame model.Frame, verdict model.Verdict) bool {
	p.metrics.ObserveViolation(verdict.Kind)
	if verdict.HelmetLabel != "" && verdict.HelmetLabel != verdict.Label {
		p.logger.Warning("Violation at frame %d: %s (riders=%d, also %s)", frame.Seq, verdict.Label, verdict.RiderCount, verdict.HelmetLabel)
	} else {
		p.logger.Warning("Violation at frame %d: %s (riders=%d)", frame.Seq, verdict.Label, verdict.RiderCount)
	}

	p.deps.Reporter.ReportViolation(dto.ViolationEvent{
		Label:      verdict.Label,
		Kind:       string(verdict.Kind),
		RiderCount: verdict.RiderCount,
		Frame:      frame.Seq,
		At:         frame.CapturedAt,
	})

	p.metrics.SetRecording(true)
	clip, err := p.deps.Recorder.Trigger(ctx, verdict, frame)
	p.metrics.SetRecording(false)
	p.metrics.BufferedFrames.Store(int64(p.deps.Recorder.Buffered()))

	if err != nil {
		p.metrics.ClipWriteFailures.Add(1)
		if errors.Is(err, recorder.ErrRecordingInProgress) {
			p.logger.Warning("Skipping %s clip: %v", verdict.Label, err)
		} else {
			p.logger.Error("Failed to record %s clip: %v", verdict.Label, err)
		}
		return clip != nil && clip.SourceExhausted
	}

	p.clips++
	p.metrics.ClipsWritten.Add(1)

	if p.deps.Catalog != nil {
		if err := p.deps.Catalog.Catalog(clip); err != nil {
			p.logger.Error("Failed to index clip %s: %v", clip.FilePath, err)
		}
	}

	return clip.SourceExhausted
}
