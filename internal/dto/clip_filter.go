// ClipFilters describe user-provided filters to narrow the clip list.
package dto

import "time"

type ClipFilters struct {
	Label      string
	Kind       string
	DateAfter  time.Time
	DateBefore time.Time
	TimeAfter  time.Time
	TimeBefore time.Time
	Limit      int
	Offset     int
}
