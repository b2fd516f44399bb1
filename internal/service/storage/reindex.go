package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"helmetwatch/internal/model"
)

// ReindexResult summarizes a Reindex run.
type ReindexResult struct {
	Added   int
	Present int
	Skipped int
	Pruned  int
}

// Reindex scans the violations directory and indexes clip files the index does
// not know yet. kindOf maps a label to its violation kind. When prune is set,
// index rows whose file is gone are removed.
func (s *ClipStore) Reindex(kindOf func(label string) model.ViolationKind, prune bool) (ReindexResult, error) {
	var result ReindexResult
	if s.clipRepo == nil {
		return result, fmt.Errorf("no clip index configured")
	}

	days, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return result, fmt.Errorf("failed to read violations directory: %w", err)
	}

	for _, dayEntry := range days {
		if !dayEntry.IsDir() {
			continue
		}
		day, err := time.ParseInLocation(DayLayout, dayEntry.Name(), time.Local)
		if err != nil {
			continue
		}

		files, err := os.ReadDir(filepath.Join(s.baseDir, dayEntry.Name()))
		if err != nil {
			return result, fmt.Errorf("failed to read %s: %w", dayEntry.Name(), err)
		}

		for _, file := range files {
			if file.IsDir() || !strings.EqualFold(filepath.Ext(file.Name()), s.extension) {
				continue
			}

			added, err := s.indexFile(day, dayEntry.Name(), file, kindOf)
			switch {
			case err != nil:
				s.logger.Warning("Skipping %s/%s: %v", dayEntry.Name(), file.Name(), err)
				result.Skipped++
			case added:
				result.Added++
			default:
				result.Present++
			}
		}
	}

	if prune {
		pruned, err := s.prune()
		result.Pruned = pruned
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

func (s *ClipStore) indexFile(day time.Time, dayName string, file os.DirEntry, kindOf func(string) model.ViolationKind) (bool, error) {
	exists, err := s.clipRepo.Exists(dayName, file.Name())
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	label, timeOfDay, _, err := ParseClipFilename(file.Name())
	if err != nil {
		return false, err
	}

	info, err := file.Info()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, fmt.Errorf("empty clip file")
	}

	startedAt := time.Date(day.Year(), day.Month(), day.Day(),
		timeOfDay.Hour(), timeOfDay.Minute(), timeOfDay.Second(), 0, time.Local)

	clip := &model.Clip{
		UUID:      uuid.NewString(),
		Label:     label,
		Kind:      kindOf(label),
		Day:       dayName,
		Filename:  file.Name(),
		FilePath:  filepath.Join(s.baseDir, dayName, file.Name()),
		StartedAt: startedAt,
		FileSize:  info.Size(),
	}

	if _, err := s.clipRepo.Insert(clip); err != nil {
		return false, err
	}
	return true, nil
}

// prune drops index rows whose clip file no longer exists.
func (s *ClipStore) prune() (int, error) {
	clips, err := s.clipRepo.GetAll(nil)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, clip := range clips {
		path := filepath.Join(s.baseDir, clip.Day, clip.Filename)
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			continue
		}
		if err := s.clipRepo.DeleteByFilename(clip.Day, clip.Filename); err != nil {
			return pruned, err
		}
		pruned++
	}
	return pruned, nil
}
