package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"helmetwatch/internal/dto"
	"helmetwatch/internal/model"
)

// ========================================
// Test Setup Helpers
// ========================================

func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "clips_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tempDir, "test.db")
	db, err := New(dbPath)
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("Failed to create test database: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.RemoveAll(tempDir)
	}

	return db, cleanup
}

var clipCounter int

func newTestClip(label string, kind model.ViolationKind, at time.Time) *model.Clip {
	clipCounter++
	day := at.Format("2006-01-02")
	filename := fmt.Sprintf("%s_%s.avi", label, at.Format("15-04-05"))
	return &model.Clip{
		UUID:       fmt.Sprintf("uuid-%d", clipCounter),
		Label:      label,
		Kind:       kind,
		Day:        day,
		Filename:   filename,
		FilePath:   filepath.Join("violations", day, filename),
		StartedAt:  at,
		PreFrames:  150,
		PostFrames: 150,
		FileSize:   1024,
	}
}

func insertClip(t *testing.T, repo *ClipRepository, clip *model.Clip) int64 {
	t.Helper()

	id, err := repo.Insert(clip)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	return id
}

// ========================================
// Clip Repository Tests
// ========================================

func TestDatabase_Connection(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "db_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should exist")
	}
}

func TestClipRepository_InsertAndGetByID(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewClipRepository(db)

	at := time.Date(2025, 6, 15, 14, 30, 5, 0, time.Local)
	clip := newTestClip("no_helmet", model.KindNoHelmet, at)
	clip.SourceExhausted = true
	clip.PostFrames = 40

	id := insertClip(t, repo, clip)
	if id <= 0 {
		t.Fatalf("Expected positive ID, got %d", id)
	}

	retrieved, err := repo.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if retrieved == nil {
		t.Fatal("Expected clip, got nil")
	}

	if retrieved.Label != clip.Label || retrieved.Kind != clip.Kind {
		t.Errorf("Label/kind mismatch: got %s/%s", retrieved.Label, retrieved.Kind)
	}
	if retrieved.Day != "2025-06-15" || retrieved.Filename != "no_helmet_14-30-05.avi" {
		t.Errorf("Location mismatch: got %s/%s", retrieved.Day, retrieved.Filename)
	}
	if !retrieved.StartedAt.Equal(at) {
		t.Errorf("StartedAt mismatch: expected %v, got %v", at, retrieved.StartedAt)
	}
	if retrieved.PostFrames != 40 || !retrieved.SourceExhausted {
		t.Errorf("Frame counts mismatch: %+v", retrieved)
	}
}

func TestClipRepository_GetByID_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewClipRepository(db)

	retrieved, err := repo.GetByID(99999)
	if err != nil {
		t.Fatalf("GetByID should not error for non-existent ID: %v", err)
	}
	if retrieved != nil {
		t.Error("Expected nil for non-existent clip")
	}
}

func TestClipRepository_DuplicateLocation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewClipRepository(db)

	at := time.Date(2025, 6, 15, 9, 0, 0, 0, time.Local)
	insertClip(t, repo, newTestClip("no_helmet", model.KindNoHelmet, at))

	if _, err := repo.Insert(newTestClip("no_helmet", model.KindNoHelmet, at)); err == nil {
		t.Error("Expected error for duplicate day/filename, got nil")
	}
}

func TestClipRepository_GetByFilenameAndExists(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewClipRepository(db)

	at := time.Date(2025, 6, 15, 9, 0, 0, 0, time.Local)
	clip := newTestClip("wrong_helmet", model.KindWrongHelmet, at)
	insertClip(t, repo, clip)

	found, err := repo.GetByFilename(clip.Day, clip.Filename)
	if err != nil {
		t.Fatalf("GetByFilename failed: %v", err)
	}
	if found == nil || found.UUID != clip.UUID {
		t.Fatalf("Expected clip %s, got %+v", clip.UUID, found)
	}

	exists, err := repo.Exists(clip.Day, clip.Filename)
	if err != nil || !exists {
		t.Errorf("Expected clip to exist (err=%v)", err)
	}

	exists, err = repo.Exists("2025-06-16", clip.Filename)
	if err != nil || exists {
		t.Errorf("Expected clip on other day not to exist (err=%v)", err)
	}
}

func TestClipRepository_GetAll_Filters(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewClipRepository(db)

	insertClip(t, repo, newTestClip("no_helmet", model.KindNoHelmet, time.Date(2025, 6, 14, 8, 0, 0, 0, time.Local)))
	insertClip(t, repo, newTestClip("no_helmet", model.KindNoHelmet, time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)))
	insertClip(t, repo, newTestClip("overloading_3_persons", model.KindOverloading, time.Date(2025, 6, 15, 18, 0, 0, 0, time.Local)))
	insertClip(t, repo, newTestClip("wrong_helmet", model.KindWrongHelmet, time.Date(2025, 6, 16, 7, 0, 0, 0, time.Local)))

	tests := []struct {
		name     string
		filter   *dto.ClipFilters
		expected int
	}{
		{"no filter", &dto.ClipFilters{}, 4},
		{"nil filter", nil, 4},
		{"by label", &dto.ClipFilters{Label: "no_helmet"}, 2},
		{"by kind", &dto.ClipFilters{Kind: string(model.KindOverloading)}, 1},
		{"date after", &dto.ClipFilters{DateAfter: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)}, 3},
		{"date range", &dto.ClipFilters{
			DateAfter:  time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			DateBefore: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		}, 2},
		{"time window", &dto.ClipFilters{
			TimeAfter:  time.Date(0, 1, 1, 10, 0, 0, 0, time.UTC),
			TimeBefore: time.Date(0, 1, 1, 19, 0, 0, 0, time.UTC),
		}, 2},
		{"no match", &dto.ClipFilters{Label: "nothing"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clips, err := repo.GetAll(tt.filter)
			if err != nil {
				t.Fatalf("GetAll failed: %v", err)
			}
			if len(clips) != tt.expected {
				t.Errorf("Expected %d clips, got %d", tt.expected, len(clips))
			}

			count, err := repo.GetTotalCount(tt.filter)
			if err != nil {
				t.Fatalf("GetTotalCount failed: %v", err)
			}
			if count != tt.expected {
				t.Errorf("Expected count %d, got %d", tt.expected, count)
			}
		})
	}
}

func TestClipRepository_GetAll_OrderAndPagination(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewClipRepository(db)

	base := time.Date(2025, 6, 15, 10, 0, 0, 0, time.Local)
	for i := 0; i < 5; i++ {
		insertClip(t, repo, newTestClip("no_helmet", model.KindNoHelmet, base.Add(time.Duration(i)*time.Minute)))
	}

	clips, err := repo.GetAll(&dto.ClipFilters{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(clips) != 2 {
		t.Fatalf("Expected 2 clips, got %d", len(clips))
	}
	if clips[0].Filename != "no_helmet_10-03-00.avi" || clips[1].Filename != "no_helmet_10-02-00.avi" {
		t.Errorf("Unexpected page: %s, %s", clips[0].Filename, clips[1].Filename)
	}
}

func TestClipRepository_LabelsAndStats(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewClipRepository(db)

	labels, err := repo.GetLabels()
	if err != nil {
		t.Fatalf("GetLabels failed: %v", err)
	}
	if len(labels) != 0 {
		t.Errorf("Expected no labels on empty index, got %v", labels)
	}

	insertClip(t, repo, newTestClip("no_helmet", model.KindNoHelmet, time.Date(2025, 6, 15, 8, 0, 0, 0, time.Local)))
	insertClip(t, repo, newTestClip("no_helmet", model.KindNoHelmet, time.Date(2025, 6, 15, 9, 0, 0, 0, time.Local)))
	insertClip(t, repo, newTestClip("overloading_4_persons", model.KindOverloading, time.Date(2025, 6, 16, 9, 0, 0, 0, time.Local)))

	labels, err = repo.GetLabels()
	if err != nil {
		t.Fatalf("GetLabels failed: %v", err)
	}
	if len(labels) != 2 || labels[0] != "no_helmet" || labels[1] != "overloading_4_persons" {
		t.Errorf("Unexpected labels: %v", labels)
	}

	stats, err := repo.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalClips != 3 {
		t.Errorf("Expected 3 clips, got %d", stats.TotalClips)
	}
	if stats.TotalSizeBytes != 3*1024 {
		t.Errorf("Expected %d bytes, got %d", 3*1024, stats.TotalSizeBytes)
	}
	if stats.PerKind[string(model.KindNoHelmet)] != 2 || stats.PerKind[string(model.KindOverloading)] != 1 {
		t.Errorf("Unexpected per-kind counts: %v", stats.PerKind)
	}
	if stats.PerDay["2025-06-15"] != 2 {
		t.Errorf("Unexpected per-day counts: %v", stats.PerDay)
	}
	if stats.LabelCounts["no_helmet"] != 2 {
		t.Errorf("Unexpected label counts: %v", stats.LabelCounts)
	}
}

func TestClipRepository_Delete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewClipRepository(db)

	first := newTestClip("no_helmet", model.KindNoHelmet, time.Date(2025, 6, 15, 8, 0, 0, 0, time.Local))
	second := newTestClip("wrong_helmet", model.KindWrongHelmet, time.Date(2025, 6, 15, 9, 0, 0, 0, time.Local))
	firstID := insertClip(t, repo, first)
	insertClip(t, repo, second)
	insertClip(t, repo, newTestClip("no_helmet", model.KindNoHelmet, time.Date(2025, 6, 15, 10, 0, 0, 0, time.Local)))

	if err := repo.Delete(firstID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if clip, _ := repo.GetByID(firstID); clip != nil {
		t.Error("Expected clip to be deleted")
	}

	if err := repo.DeleteByFilename(second.Day, second.Filename); err != nil {
		t.Fatalf("DeleteByFilename failed: %v", err)
	}
	if exists, _ := repo.Exists(second.Day, second.Filename); exists {
		t.Error("Expected clip to be deleted by filename")
	}

	if err := repo.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	count, err := repo.GetTotalCount(&dto.ClipFilters{})
	if err != nil {
		t.Fatalf("GetTotalCount failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected empty index, got %d", count)
	}
}
