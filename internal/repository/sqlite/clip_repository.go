package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"helmetwatch/internal/dto"
	"helmetwatch/internal/model"
)

const clipColumns = `id, uuid, label, kind, day, filename, filepath, started_at, pre_frames, post_frames, filesize, source_exhausted`

// ClipRepository implements repository.ClipRepository for SQLite.
type ClipRepository struct {
	db *DB
}

// NewClipRepository creates a new SQLite clip repository.
func NewClipRepository(db *DB) *ClipRepository {
	return &ClipRepository{db: db}
}

// Insert adds a new clip record to the database.
func (r *ClipRepository) Insert(clip *model.Clip) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO clips (uuid, label, kind, day, time_of_day, filename, filepath, started_at,
			pre_frames, post_frames, filesize, source_exhausted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, clip.UUID, clip.Label, string(clip.Kind), clip.Day, clip.StartedAt.Format("15:04:05"),
		clip.Filename, clip.FilePath, clip.StartedAt, clip.PreFrames, clip.PostFrames,
		clip.FileSize, clip.SourceExhausted)
	if err != nil {
		return 0, fmt.Errorf("failed to insert clip: %w", err)
	}

	return result.LastInsertId()
}

// GetByID retrieves a clip by its ID.
func (r *ClipRepository) GetByID(id int64) (*model.Clip, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`SELECT `+clipColumns+` FROM clips WHERE id = ?`, id)
	return scanClipRow(row)
}

// GetByFilename retrieves a clip by its day directory and file name.
func (r *ClipRepository) GetByFilename(day, filename string) (*model.Clip, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`SELECT `+clipColumns+` FROM clips WHERE day = ? AND filename = ?`, day, filename)
	return scanClipRow(row)
}

// Exists checks if a clip with the given day and file name is indexed.
func (r *ClipRepository) Exists(day, filename string) (bool, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM clips WHERE day = ? AND filename = ?`, day, filename).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check clip existence: %w", err)
	}
	return count > 0, nil
}

// GetAll retrieves clips based on filter criteria, newest first.
func (r *ClipRepository) GetAll(filter *dto.ClipFilters) ([]model.Clip, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildClipWhere(filter)
	query := `SELECT ` + clipColumns + ` FROM clips WHERE 1=1` + where + ` ORDER BY started_at DESC, id DESC`

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clips: %w", err)
	}
	defer rows.Close()

	var clips []model.Clip
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clip: %w", err)
		}
		clips = append(clips, *clip)
	}

	return clips, rows.Err()
}

// GetTotalCount returns the total count of clips matching the filter.
func (r *ClipRepository) GetTotalCount(filter *dto.ClipFilters) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildClipWhere(filter)

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM clips WHERE 1=1`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count clips: %w", err)
	}

	return count, nil
}

// GetLabels returns a list of unique violation labels.
func (r *ClipRepository) GetLabels() ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT DISTINCT label FROM clips ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("failed to query labels: %w", err)
	}
	defer rows.Close()

	labels := []string{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

// GetStats returns statistics about indexed clips.
func (r *ClipRepository) GetStats() (*model.ClipStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.ClipStats{
		PerKind:     make(map[string]int),
		PerDay:      make(map[string]int),
		LabelCounts: make(map[string]int),
	}

	if err := r.db.Conn().QueryRow(`SELECT COUNT(*), COALESCE(SUM(filesize), 0) FROM clips`).
		Scan(&stats.TotalClips, &stats.TotalSizeBytes); err != nil {
		return nil, fmt.Errorf("failed to read totals: %w", err)
	}

	groups := []struct {
		query string
		into  map[string]int
	}{
		{`SELECT kind, COUNT(*) FROM clips GROUP BY kind`, stats.PerKind},
		{`SELECT day, COUNT(*) FROM clips GROUP BY day`, stats.PerDay},
		{`SELECT label, COUNT(*) AS cnt FROM clips GROUP BY label ORDER BY cnt DESC LIMIT 10`, stats.LabelCounts},
	}

	for _, g := range groups {
		if err := r.countInto(g.query, g.into); err != nil {
			return nil, err
		}
	}

	return stats, nil
}

func (r *ClipRepository) countInto(query string, into map[string]int) error {
	rows, err := r.db.Conn().Query(query)
	if err != nil {
		return fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan stats: %w", err)
		}
		into[key] = count
	}
	return rows.Err()
}

// Delete removes a clip record by its ID.
func (r *ClipRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM clips WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete clip: %w", err)
	}
	return nil
}

// DeleteByFilename removes a clip record by its day directory and file name.
func (r *ClipRepository) DeleteByFilename(day, filename string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM clips WHERE day = ? AND filename = ?`, day, filename); err != nil {
		return fmt.Errorf("failed to delete clip: %w", err)
	}
	return nil
}

// DeleteAll removes every clip record.
func (r *ClipRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM clips`); err != nil {
		return fmt.Errorf("failed to delete clips: %w", err)
	}
	return nil
}

// buildClipWhere turns filters into AND clauses over the day and time_of_day text columns.
func buildClipWhere(filter *dto.ClipFilters) (string, []interface{}) {
	if filter == nil {
		return "", nil
	}

	where := ""
	args := []interface{}{}

	if filter.Label != "" {
		where += " AND label = ?"
		args = append(args, filter.Label)
	}

	if filter.Kind != "" {
		where += " AND kind = ?"
		args = append(args, filter.Kind)
	}

	if !filter.DateAfter.IsZero() {
		where += " AND day >= ?"
		args = append(args, filter.DateAfter.Format("2006-01-02"))
	}

	if !filter.DateBefore.IsZero() {
		where += " AND day <= ?"
		args = append(args, filter.DateBefore.Format("2006-01-02"))
	}

	if !filter.TimeAfter.IsZero() {
		where += " AND time_of_day >= ?"
		args = append(args, filter.TimeAfter.Format("15:04:05"))
	}

	if !filter.TimeBefore.IsZero() {
		where += " AND time_of_day <= ?"
		args = append(args, filter.TimeBefore.Format("15:04:05"))
	}

	return where, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClip(row rowScanner) (*model.Clip, error) {
	var clip model.Clip
	var kind string
	var startedAt time.Time
	err := row.Scan(&clip.ID, &clip.UUID, &clip.Label, &kind, &clip.Day, &clip.Filename, &clip.FilePath,
		&startedAt, &clip.PreFrames, &clip.PostFrames, &clip.FileSize, &clip.SourceExhausted)
	if err != nil {
		return nil, err
	}
	clip.Kind = model.ViolationKind(kind)
	clip.StartedAt = startedAt.Local()
	return &clip, nil
}

func scanClipRow(row *sql.Row) (*model.Clip, error) {
	clip, err := scanClip(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clip: %w", err)
	}
	return clip, nil
}
