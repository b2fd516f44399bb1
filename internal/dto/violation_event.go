package dto

import "time"

// ViolationEvent is pushed to websocket viewers when a violation is flagged.
type ViolationEvent struct {
	Label      string    `json:"label"`
	Kind       string    `json:"kind"`
	RiderCount int       `json:"riderCount"`
	Frame      uint64    `json:"frame"`
	At         time.Time `json:"at"`
}
