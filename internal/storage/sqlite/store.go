// Package sqlite implements the record store on a single SQLite table.
// It honors the same read-wholesale contract as the jsonfile engine: the
// retrieval core loads every record at startup and rebuilds its in-memory
// index, so no vector data is persisted here.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/scrypster/praxis/internal/storage"
	"github.com/scrypster/praxis/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS practices (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	category       TEXT NOT NULL,
	content_type   TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	tags           TEXT NOT NULL DEFAULT '[]',
	code_html      TEXT NOT NULL DEFAULT '',
	code_css       TEXT NOT NULL DEFAULT '',
	code_js        TEXT NOT NULL DEFAULT '',
	image_path     TEXT NOT NULL DEFAULT '',
	generated_svg  TEXT NOT NULL DEFAULT '',
	generated_html TEXT NOT NULL DEFAULT '',
	notes          TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_practices_category ON practices(category);
`

// Store is a SQLite-backed practice store.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates a Store backed by praxis.db under dataPath, creating the
// directory and schema when missing.
func Open(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, fmt.Errorf("sqlite: failed to create data directory: %w", err)
	}

	path := filepath.Join(dataPath, "praxis.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to apply schema to %s: %v", storage.ErrStoreCorrupt, path, err)
	}

	return &Store{db: db, path: path}, nil
}

const practiceColumns = `id, title, category, content_type, description, tags,
	code_html, code_css, code_js, image_path, generated_svg, generated_html,
	notes, created_at, updated_at`

// GetAll returns every practice ordered by creation time.
func (s *Store) GetAll(ctx context.Context) ([]types.Practice, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+practiceColumns+` FROM practices ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list practices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanPractices(rows)
}

// Get returns the practice with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*types.Practice, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: practice ID is required", storage.ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+practiceColumns+` FROM practices WHERE id = ?`, id)
	p, err := scanPractice(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: failed to get practice: %w", err)
	}
	return p, nil
}

// Add validates and inserts a new practice, assigning a UUID and
// timestamps.
func (s *Store) Add(ctx context.Context, p *types.Practice) (string, error) {
	if p == nil {
		return "", fmt.Errorf("%w: practice is required", storage.ErrInvalidInput)
	}
	if err := p.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return "", fmt.Errorf("sqlite: failed to marshal tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO practices (`+practiceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, string(p.Category), string(p.ContentType), p.Description,
		string(tags), p.CodeHTML, p.CodeCSS, p.CodeJS, p.ImagePath,
		p.GeneratedSVG, p.GeneratedHTML, p.Notes, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("sqlite: failed to insert practice: %w", err)
	}
	return p.ID, nil
}

// Update replaces the stored practice with the same ID, preserving the
// original creation timestamp.
func (s *Store) Update(ctx context.Context, p *types.Practice) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("%w: practice with ID is required", storage.ErrInvalidInput)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: failed to marshal tags: %w", err)
	}

	p.UpdatedAt = time.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE practices SET
			title = ?, category = ?, content_type = ?, description = ?,
			tags = ?, code_html = ?, code_css = ?, code_js = ?,
			image_path = ?, generated_svg = ?, generated_html = ?,
			notes = ?, updated_at = ?
		WHERE id = ?`,
		p.Title, string(p.Category), string(p.ContentType), p.Description,
		string(tags), p.CodeHTML, p.CodeCSS, p.CodeJS, p.ImagePath,
		p.GeneratedSVG, p.GeneratedHTML, p.Notes, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("sqlite: failed to update practice: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes the practice with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: practice ID is required", storage.ErrInvalidInput)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM practices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: failed to delete practice: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByCategory returns all practices in the given category.
func (s *Store) GetByCategory(ctx context.Context, category types.Category) ([]types.Practice, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+practiceColumns+` FROM practices WHERE category = ? ORDER BY created_at, id`,
		string(category))
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list by category: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanPractices(rows)
}

// SearchByText returns practices whose title, description or tags contain
// the keyword, case-insensitively.
func (s *Store) SearchByText(ctx context.Context, keyword string) ([]types.Practice, error) {
	pattern := "%" + keyword + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+practiceColumns+` FROM practices
		WHERE title LIKE ? COLLATE NOCASE
		   OR description LIKE ? COLLATE NOCASE
		   OR tags LIKE ? COLLATE NOCASE
		ORDER BY created_at, id`,
		pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to search practices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanPractices(rows)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the location of the backing database file, used by the
// change watcher to trigger index rebuilds.
func (s *Store) Path() string {
	return s.path
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPractice(row rowScanner) (*types.Practice, error) {
	var p types.Practice
	var category, contentType, tags string

	err := row.Scan(&p.ID, &p.Title, &category, &contentType, &p.Description,
		&tags, &p.CodeHTML, &p.CodeCSS, &p.CodeJS, &p.ImagePath,
		&p.GeneratedSVG, &p.GeneratedHTML, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.Category = types.Category(category)
	p.ContentType = types.ContentType(contentType)
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, fmt.Errorf("%w: invalid tags for practice %s: %v",
			storage.ErrStoreCorrupt, p.ID, err)
	}
	return &p, nil
}

func scanPractices(rows *sql.Rows) ([]types.Practice, error) {
	var practices []types.Practice
	for rows.Next() {
		p, err := scanPractice(rows)
		if err != nil {
			return nil, err
		}
		practices = append(practices, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: error iterating practices: %w", err)
	}
	return practices, nil
}

// Compile-time assertion that Store satisfies the store contract.
var _ storage.PracticeStore = (*Store)(nil)
