package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const jobColumns = "id, source_filename, operation, status, time_requested, time_completed, times_tried"

// Insert stores a new job and returns its assigned ID. Zero values default to
// a Pending job requested now with times_tried = 1.
func (s *Store) Insert(ctx context.Context, job *Job) (int64, error) {
	if job == nil {
		return 0, fmt.Errorf("%w: nil job", ErrInvalidJob)
	}
	job.SourceFilename = strings.TrimSpace(job.SourceFilename)
	job.Operation = strings.TrimSpace(job.Operation)
	if job.SourceFilename == "" {
		return 0, fmt.Errorf("%w: source filename is required", ErrInvalidJob)
	}
	if job.Operation == "" {
		return 0, fmt.Errorf("%w: operation is required", ErrInvalidJob)
	}
	if job.Status == "" {
		job.Status = StatusPending
	}
	if job.TimeRequested == 0 {
		job.TimeRequested = time.Now().Unix()
	}
	if job.TimesTried < 1 {
		job.TimesTried = 1
	}
	if job.Status.IsTerminal() != (job.TimeCompleted != nil) {
		return 0, fmt.Errorf("%w: time_completed must be set exactly for terminal statuses", ErrInvalidJob)
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO conversions (source_filename, operation, status, time_requested, time_completed, times_tried)
         VALUES (?, ?, ?, ?, ?, ?)`,
		job.SourceFilename,
		job.Operation,
		job.Status,
		job.TimeRequested,
		nullableInt64(job.TimeCompleted),
		job.TimesTried,
	)
	if err != nil {
		return 0, fmt.Errorf("insert conversion: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("conversion id: %w", err)
	}
	job.ID = id
	return id, nil
}

// FindActive returns the most recently requested Pending or Running job for
// the source and operation, or nil when none exists.
func (s *Store) FindActive(ctx context.Context, sourceFilename, operation string) (*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM conversions
        WHERE source_filename = ? AND operation = ? AND status IN (?, ?)
        ORDER BY time_requested DESC, id DESC LIMIT 1`
	row := s.db.QueryRowContext(ensureContext(ctx), query, sourceFilename, operation, StatusPending, StatusRunning)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active conversion: %w", err)
	}
	return job, nil
}

// NextEligible returns the Pending or Running job with the smallest
// time_requested, or nil when the queue is idle. Ties go to the lower ID.
func (s *Store) NextEligible(ctx context.Context) (*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM conversions
        WHERE status IN (?, ?)
        ORDER BY time_requested ASC, id ASC LIMIT 1`
	row := s.db.QueryRowContext(ensureContext(ctx), query, StatusPending, StatusRunning)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next eligible conversion: %w", err)
	}
	return job, nil
}

// UpdateStatus writes a new status. time_completed is set to completedAt for
// Completed and Failed (now when completedAt is zero) and cleared otherwise.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status Status, completedAt time.Time) error {
	if _, ok := ParseStatus(string(status)); !ok {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidJob, status)
	}
	var completed any
	if status.IsTerminal() {
		if completedAt.IsZero() {
			completedAt = time.Now()
		}
		completed = completedAt.Unix()
	}

	res, err := s.execWithRetry(ctx,
		`UPDATE conversions SET status = ?, time_completed = ? WHERE id = ?`,
		status, completed, id,
	)
	if err != nil {
		return fmt.Errorf("update conversion %d status: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update conversion %d status: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("update conversion %d status: %w", id, ErrNotFound)
	}
	return nil
}

// MarkRunning records that the worker picked up the job.
func (s *Store) MarkRunning(ctx context.Context, id int64) error {
	return s.UpdateStatus(ctx, id, StatusRunning, time.Time{})
}

// GetByID fetches a job by its ID.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+jobColumns+` FROM conversions WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversion %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversion %d: %w", id, err)
	}
	return job, nil
}

// List returns jobs in worker order, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM conversions`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY time_requested ASC, id ASC`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversions: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversion: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Stats returns a count of jobs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM conversions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("conversion stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int, len(allStatuses))
	for rows.Next() {
		var (
			status Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// ResetStuckRunning moves Running jobs left behind by an unclean shutdown back
// to Pending. time_requested and times_tried are preserved so the jobs keep
// their place in line.
func (s *Store) ResetStuckRunning(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE conversions SET status = ? WHERE status = ?`,
		StatusPending, StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("reset running conversions: %w", err)
	}
	return res.RowsAffected()
}

// FFmpegPath returns the ffmpeg location saved in the settings table, or ""
// when none has been stored.
func (s *Store) FFmpegPath(ctx context.Context) (string, error) {
	var path string
	err := s.db.QueryRowContext(ensureContext(ctx), `SELECT ffmpeg_path FROM settings ORDER BY id LIMIT 1`).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read ffmpeg setting: %w", err)
	}
	return strings.TrimSpace(path), nil
}

// SetFFmpegPath saves the ffmpeg location in the settings table.
func (s *Store) SetFFmpegPath(ctx context.Context, path string) error {
	err := s.execWithoutResultRetry(ctx,
		`INSERT INTO settings (id, ffmpeg_path) VALUES (1, ?)
         ON CONFLICT(id) DO UPDATE SET ffmpeg_path = excluded.ffmpeg_path`,
		strings.TrimSpace(path),
	)
	if err != nil {
		return fmt.Errorf("save ffmpeg setting: %w", err)
	}
	return nil
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job       Job
		status    string
		completed sql.NullInt64
	)
	if err := scanner.Scan(
		&job.ID,
		&job.SourceFilename,
		&job.Operation,
		&status,
		&job.TimeRequested,
		&completed,
		&job.TimesTried,
	); err != nil {
		return nil, err
	}
	parsed, ok := ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("conversion %d has unknown status %q", job.ID, status)
	}
	job.Status = parsed
	if completed.Valid {
		value := completed.Int64
		job.TimeCompleted = &value
	}
	return &job, nil
}

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}
