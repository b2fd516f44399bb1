package repository

import (
	"helmetwatch/internal/dto"
	"helmetwatch/internal/model"
)

// ClipRepository defines the interface for clip index operations.
// Clips are addressed by their day directory and file name.
type ClipRepository interface {
	// Create operations
	Insert(clip *model.Clip) (int64, error)

	// Read operations
	GetByID(id int64) (*model.Clip, error)
	GetByFilename(day, filename string) (*model.Clip, error)
	Exists(day, filename string) (bool, error)
	GetAll(filter *dto.ClipFilters) ([]model.Clip, error)
	GetTotalCount(filter *dto.ClipFilters) (int, error)
	GetLabels() ([]string, error)
	GetStats() (*model.ClipStats, error)

	// Delete operations
	Delete(id int64) error
	DeleteByFilename(day, filename string) error
	DeleteAll() error
}
