// Package sqlite stores farm documents as JSON blobs in a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/repository"
)

const defaultPath = "porkyfarm.db"

// Repository persists documents in a `documents(key, revision, payload)` table.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository opens (or creates) the SQLite database at path.
func NewRepository(ctx context.Context, path string) (*Repository, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps writes serialised
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS documents (
		key TEXT PRIMARY KEY,
		revision INTEGER NOT NULL,
		payload BLOB NOT NULL,
		saved_at TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return &Repository{db: db, path: path}, nil
}

// Load decodes the document stored under key.
func (r *Repository) Load(ctx context.Context, key string) (*models.Database, error) {
	var (
		revision int64
		payload  []byte
	)
	err := r.db.QueryRowContext(ctx, `SELECT revision, payload FROM documents WHERE key = ?`, key).Scan(&revision, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select document %s: %w", key, err)
	}

	var doc models.Database
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", key, err)
	}
	doc.Revision = revision
	doc.Normalize()
	return &doc, nil
}

// Save writes doc when the stored revision equals expected.
func (r *Repository) Save(ctx context.Context, key string, doc *models.Database, expected int64) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", key, err)
	}
	savedAt := time.Now().UTC().Format(time.RFC3339Nano)

	var res sql.Result
	if expected == 0 {
		res, err = r.db.ExecContext(ctx,
			`INSERT INTO documents(key, revision, payload, saved_at) VALUES(?, ?, ?, ?) ON CONFLICT(key) DO NOTHING`,
			key, doc.Revision, payload, savedAt)
	} else {
		res, err = r.db.ExecContext(ctx,
			`UPDATE documents SET revision = ?, payload = ?, saved_at = ? WHERE key = ? AND revision = ?`,
			doc.Revision, payload, savedAt, key, expected)
	}
	if err != nil {
		return fmt.Errorf("write document %s: %w", key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrRevisionConflict
	}
	return nil
}

// Close closes the database handle.
func (r *Repository) Close(context.Context) error { return r.db.Close() }

// Path returns the configured database path.
func (r *Repository) Path() string { return r.path }
