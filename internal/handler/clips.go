package handler

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"helmetwatch/internal/dto"
	"helmetwatch/internal/logger"
	"helmetwatch/internal/model"
	"helmetwatch/internal/repository"
)

const (
	// DefaultClipPageSize is used when the request has no valid limit.
	DefaultClipPageSize = 24
	// MaxClipPageSize caps the limit query parameter.
	MaxClipPageSize = 200
)

// ClipResolver maps a "<day>/<file>" clip reference to a file on disk.
type ClipResolver interface {
	BaseDir() string
	Resolve(relative string) (string, error)
}

// GetClipsHandler returns a filtered, paginated list of indexed clips.
func GetClipsHandler(store ClipResolver, logger *logger.Logger, clipRepo repository.ClipRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := min(atoiDefault(q.Get("limit"), DefaultClipPageSize), MaxClipPageSize)

		filter := &dto.ClipFilters{
			Label:      q.Get("label"),
			Kind:       q.Get("kind"),
			DateAfter:  parseDate(q.Get("dateAfter")),
			DateBefore: parseDate(q.Get("dateBefore")),
			TimeAfter:  parseTimeOfDay(q.Get("timeAfter")),
			TimeBefore: parseTimeOfDay(q.Get("timeBefore")),
			Limit:      limit,
			Offset:     (page - 1) * limit,
		}

		clips, err := clipRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying clips from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalCount, err := clipRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting clips: %v", err)
			totalCount = len(clips)
		}

		infos := make([]dto.ClipInfo, 0, len(clips))
		for _, clip := range clips {
			infos = append(infos, toClipInfo(clip))
		}

		data := dto.ClipsData{
			Clips:        infos,
			ViolationDir: store.BaseDir(),
			Length:       totalCount,
			TotalPages:   (totalCount + limit - 1) / limit,
			CurrentPage:  page,
			Limit:        limit,
		}

		writeJSON(w, logger, data)
	}
}

// ViewClipHandler serves a single clip file named by the "clip" query parameter.
func ViewClipHandler(store ClipResolver, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clip := r.URL.Query().Get("clip")
		if clip == "" {
			http.Error(w, "Clip parameter is required", http.StatusBadRequest)
			return
		}

		filePath, err := store.Resolve(clip)
		if err != nil {
			logger.Warning("Rejected clip request %q: %v", clip, err)
			http.Error(w, "Invalid clip", http.StatusBadRequest)
			return
		}

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// DeleteClipHandler removes a clip from disk and from the index.
func DeleteClipHandler(store ClipResolver, logger *logger.Logger, clipRepo repository.ClipRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete && r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		clip := r.URL.Query().Get("clip")
		filePath, err := store.Resolve(clip)
		if err != nil {
			http.Error(w, "Invalid clip", http.StatusBadRequest)
			return
		}

		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			logger.Error("Failed to delete file %s: %v", filePath, err)
		}

		day, filename, _ := strings.Cut(clip, "/")
		if err := clipRepo.DeleteByFilename(day, filename); err != nil {
			logger.Error("Failed to delete from database: %v", err)
		}

		logger.Info("Deleted clip: %s", clip)
		writeJSON(w, logger, map[string]string{"status": "deleted", "clip": clip})
	}
}

// ClipStatsHandler returns totals per kind, day and label.
func ClipStatsHandler(logger *logger.Logger, clipRepo repository.ClipRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := clipRepo.GetStats()
		if err != nil {
			logger.Error("Error reading clip stats: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, stats)
	}
}

// ClipLabelsHandler returns the distinct violation labels that have clips.
func ClipLabelsHandler(logger *logger.Logger, clipRepo repository.ClipRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		labels, err := clipRepo.GetLabels()
		if err != nil {
			logger.Error("Error reading clip labels: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, labels)
	}
}

func toClipInfo(clip model.Clip) dto.ClipInfo {
	return dto.ClipInfo{
		Name:       clip.Filename,
		Path:       clip.RelativePath(),
		Label:      clip.Label,
		Kind:       string(clip.Kind),
		Date:       clip.StartedAt,
		TimeOfDay:  clip.StartedAt,
		PreFrames:  clip.PreFrames,
		PostFrames: clip.PostFrames,
		Size:       clip.FileSize,
	}
}

func writeJSON(w http.ResponseWriter, logger *logger.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date string in the format "2006-01-02" from the request (HTML input format).
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseTimeOfDay accepts "15:04" (HTML input format) and "15:04:05".
func parseTimeOfDay(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}
