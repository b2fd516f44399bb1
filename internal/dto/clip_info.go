package dto

import (
	"encoding/json"
	"time"
)

// ClipInfo is the dashboard view of an indexed clip.
type ClipInfo struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"` // Relative to the violations directory
	Label      string    `json:"label"`
	Kind       string    `json:"kind"`
	Date       time.Time `json:"date"`
	TimeOfDay  time.Time `json:"timeOfDay"`
	PreFrames  int       `json:"preFrames"`
	PostFrames int       `json:"postFrames"`
	Size       int64     `json:"size"`
}

// MarshalJSON customizes JSON output for ClipInfo to format date and time-of-day.
func (c ClipInfo) MarshalJSON() ([]byte, error) {
	type Alias ClipInfo
	return json.Marshal(&struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"timeOfDay"`
		Alias
	}{
		Date:      c.Date.Format("2006-01-02"),
		TimeOfDay: c.TimeOfDay.Format("15:04:05"),
		Alias:     (Alias)(c),
	})
}
