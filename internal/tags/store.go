// Package tags stores descriptive tags produced for source media files and
// answers whether an equivalent tag is already recorded.
package tags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"reelhouse/internal/queue"
)

// Tag is one descriptive label attached to a source file.
type Tag struct {
	ID             int64
	SourceFilename string
	Text           string
	Slug           string
}

// Store reads and writes the tags table in the shared job database.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database that already carries the tags table.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// IsDuplicate reports whether source already has a tag with the same slug or
// the exact same text.
func (s *Store) IsDuplicate(ctx context.Context, source, text, slug string) (bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM tags WHERE source_filename = ? AND (slug = ? OR tag = ?) LIMIT 1`,
		source, slug, text,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check tag %q: %w", text, err)
	}
	return true, nil
}

// InsertTag records a new tag for source.
func (s *Store) InsertTag(ctx context.Context, source, text, slug string) error {
	source = strings.TrimSpace(source)
	if source == "" || strings.TrimSpace(text) == "" {
		return errors.New("insert tag: source and text are required")
	}
	err := queue.RetryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			`INSERT INTO tags (source_filename, tag, slug) VALUES (?, ?, ?)`,
			source, text, slug,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("insert tag %q: %w", text, err)
	}
	return nil
}

// ListBySource returns the tags recorded for source in insertion order.
func (s *Store) ListBySource(ctx context.Context, source string) ([]Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_filename, tag, slug FROM tags WHERE source_filename = ? ORDER BY id`,
		source,
	)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		var tag Tag
		if err := rows.Scan(&tag.ID, &tag.SourceFilename, &tag.Text, &tag.Slug); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}
