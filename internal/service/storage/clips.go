package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"helmetwatch/internal/config"
	"helmetwatch/internal/logger"
	"helmetwatch/internal/model"
	"helmetwatch/internal/repository"
)

const (
	// DayLayout names the per-day clip directory.
	DayLayout = "2006-01-02"
	// TimeLayout is the time-of-day part of a clip file name.
	TimeLayout = "15-04-05"
	// maxSequence bounds the collision suffix search.
	maxSequence = 10000
)

var clipNamePattern = regexp.MustCompile(`^(.+)_(\d{2}-\d{2}-\d{2})(?:_(\d+))?$`)

// ClipStore lays clips out on disk and indexes finished ones.
type ClipStore struct {
	baseDir   string
	extension string
	mu        sync.Mutex
	logger    *logger.Logger
	clipRepo  repository.ClipRepository
}

// NewClipStore creates a ClipStore rooted at the configured violations directory.
// clipRepo may be nil, in which case clips are only kept on disk.
func NewClipStore(config *config.Config, logger *logger.Logger, clipRepo repository.ClipRepository) *ClipStore {
	return &ClipStore{
		baseDir:   config.ViolationDirectory,
		extension: config.ClipExtension,
		logger:    logger,
		clipRepo:  clipRepo,
	}
}

// BaseDir is the violations root.
func (s *ClipStore) BaseDir() string {
	return s.baseDir
}

// Reserve claims a fresh file for a clip labeled label that started at at.
// The file is created empty so a second reservation in the same second gets
// a _2, _3, ... suffix instead of the same path.
func (s *ClipStore) Reserve(label string, at time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.baseDir, at.Format(DayLayout))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create clip directory: %w", err)
	}

	base := SanitizeLabel(label) + "_" + at.Format(TimeLayout)
	for seq := 1; seq <= maxSequence; seq++ {
		name := base
		if seq > 1 {
			name += "_" + strconv.Itoa(seq)
		}
		path := filepath.Join(dir, name+s.extension)

		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			file.Close()
			return path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("failed to reserve clip file: %w", err)
		}
	}

	return "", fmt.Errorf("no free clip name for %s in %s", base, dir)
}

// Release removes a reserved file that never received a clip.
func (s *ClipStore) Release(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warning("Failed to release clip file %s: %v", path, err)
	}
}

// Catalog fills in the on-disk details of a finished clip and indexes it.
func (s *ClipStore) Catalog(clip *model.Clip) error {
	clip.Filename = filepath.Base(clip.FilePath)
	clip.Day = filepath.Base(filepath.Dir(clip.FilePath))
	if clip.UUID == "" {
		clip.UUID = uuid.NewString()
	}

	if info, err := os.Stat(clip.FilePath); err == nil {
		clip.FileSize = info.Size()
	} else {
		s.logger.Warning("Could not stat clip %s: %v", clip.FilePath, err)
	}

	s.logger.Info("[SAVED] %s clip: %s (%d pre + %d post frames)",
		strings.ToUpper(clip.Label), clip.FilePath, clip.PreFrames, clip.PostFrames)

	if s.clipRepo == nil {
		return nil
	}

	id, err := s.clipRepo.Insert(clip)
	if err != nil {
		return fmt.Errorf("failed to index clip %s: %w", clip.Filename, err)
	}
	clip.ID = id
	return nil
}

// Resolve maps a clip path relative to the violations root ("<day>/<file>")
// to a file path, rejecting anything that would leave the root.
func (s *ClipStore) Resolve(relative string) (string, error) {
	day, file, ok := strings.Cut(filepath.ToSlash(relative), "/")
	if !ok || strings.Contains(file, "/") {
		return "", fmt.Errorf("invalid clip path: %q", relative)
	}
	if _, err := time.Parse(DayLayout, day); err != nil {
		return "", fmt.Errorf("invalid clip day: %q", day)
	}
	if file == "" || file == "." || file == ".." || strings.ContainsRune(file, 0) {
		return "", fmt.Errorf("invalid clip name: %q", file)
	}
	return filepath.Join(s.baseDir, day, file), nil
}

// SanitizeLabel makes a violation label safe to use as a file name part.
func SanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "violation"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ', 0:
			return '_'
		}
		return r
	}, label)
}

// ParseClipFilename splits "<label>_<HH-MM-SS>[_<seq>].<ext>" into its parts.
// seq is 1 for names without a suffix.
func ParseClipFilename(name string) (label string, timeOfDay time.Time, seq int, err error) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	m := clipNamePattern.FindStringSubmatch(stem)
	if m == nil {
		return "", time.Time{}, 0, fmt.Errorf("invalid clip file name: %s", name)
	}

	timeOfDay, err = time.Parse(TimeLayout, m[2])
	if err != nil {
		return "", time.Time{}, 0, fmt.Errorf("invalid time in clip file name %s: %w", name, err)
	}

	seq = 1
	if m[3] != "" {
		seq, err = strconv.Atoi(m[3])
		if err != nil {
			return "", time.Time{}, 0, fmt.Errorf("invalid sequence in clip file name %s: %w", name, err)
		}
	}

	return m[1], timeOfDay, seq, nil
}
