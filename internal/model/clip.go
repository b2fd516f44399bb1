package model

import "time"

// Clip represents a recorded violation clip.
type Clip struct {
	ID              int64         `json:"id"`
	UUID            string        `json:"uuid"`
	Label           string        `json:"label"`
	Kind            ViolationKind `json:"kind"`
	Day             string        `json:"day"`
	Filename        string        `json:"filename"`
	FilePath        string        `json:"filepath"`
	StartedAt       time.Time     `json:"started_at"`
	PreFrames       int           `json:"pre_frames"`
	PostFrames      int           `json:"post_frames"`
	FileSize        int64         `json:"filesize"`
	SourceExhausted bool          `json:"source_exhausted"`
}

// RelativePath is the clip location below the violations directory.
func (c Clip) RelativePath() string {
	return c.Day + "/" + c.Filename
}

// ClipStats contains statistics about indexed clips.
type ClipStats struct {
	TotalClips     int            `json:"total_clips"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	PerKind        map[string]int `json:"per_kind"`
	PerDay         map[string]int `json:"per_day"`
	LabelCounts    map[string]int `json:"label_counts"`
}
