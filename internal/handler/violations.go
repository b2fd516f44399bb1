package handler

import (
	"net/http"

	"helmetwatch/internal/logger"
)

// ViolationTail returns the most recent violation labels.
type ViolationTail interface {
	Tail(k int) []string
}

// ViolationsHandler returns the last n violation labels as a JSON array, "[]" when none.
func ViolationsHandler(log ViolationTail, n int, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, log.Tail(n))
	}
}
