package model

import "errors"

var (
	// ErrSourceUnavailable means the camera could not be opened.
	ErrSourceUnavailable = errors.New("frame source unavailable")
	// ErrEndOfStream means the source has no more frames.
	ErrEndOfStream = errors.New("end of stream")
	// ErrDetectorFailure marks a frame the detector could not process.
	ErrDetectorFailure = errors.New("detector failure")
)
