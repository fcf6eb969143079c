// Package postgres stores farm documents as JSONB rows.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/repository"
)

// Options tunes the connection pool.
type Options struct {
	MaxConns    int32
	MinConns    int32
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// Repository persists documents in a `farm_documents` table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository connects to Postgres and ensures the documents table exists.
func NewRepository(ctx context.Context, connString string, opts Options) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("error parsing database config: %w", err)
	}
	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}
	if opts.MaxLifetime > 0 {
		config.MaxConnLifetime = opts.MaxLifetime
	}
	if opts.MaxIdleTime > 0 {
		config.MaxConnIdleTime = opts.MaxIdleTime
	}
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("error creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	ddl := `CREATE TABLE IF NOT EXISTS farm_documents (
		key TEXT PRIMARY KEY,
		revision BIGINT NOT NULL,
		payload JSONB NOT NULL,
		saved_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure documents table: %w", err)
	}

	return &Repository{pool: pool}, nil
}

// Load decodes the document stored under key.
func (r *Repository) Load(ctx context.Context, key string) (*models.Database, error) {
	var (
		revision int64
		payload  []byte
	)
	err := r.pool.QueryRow(ctx, `SELECT revision, payload FROM farm_documents WHERE key = $1`, key).Scan(&revision, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
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

	query := `UPDATE farm_documents SET revision = $2, payload = $3, saved_at = now() WHERE key = $1 AND revision = $4`
	args := []any{key, doc.Revision, payload, expected}
	if expected == 0 {
		query = `INSERT INTO farm_documents (key, revision, payload) VALUES ($1, $2, $3) ON CONFLICT (key) DO NOTHING`
		args = args[:3]
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("write document %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrRevisionConflict
	}
	return nil
}

// Close releases the pool.
func (r *Repository) Close(context.Context) error {
	r.pool.Close()
	return nil
}
