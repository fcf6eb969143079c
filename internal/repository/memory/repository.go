package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/repository"
)

// Repository keeps encoded documents in process memory. Documents are stored
// as JSON so callers never share slices with the stored copy.
type Repository struct {
	mu   sync.Mutex
	docs map[string][]byte
	revs map[string]int64

	// FailSaves makes every Save return the given error when set.
	FailSaves error
}

// NewRepository builds an empty in-memory repository.
func NewRepository() *Repository {
	return &Repository{docs: make(map[string][]byte), revs: make(map[string]int64)}
}

// Load decodes the stored document for key.
func (r *Repository) Load(_ context.Context, key string) (*models.Database, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, ok := r.docs[key]
	if !ok {
		return nil, repository.ErrDocumentNotFound
	}

	var doc models.Database
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", key, err)
	}
	doc.Normalize()
	return &doc, nil
}

// Save stores doc when the stored revision matches expected.
func (r *Repository) Save(_ context.Context, key string, doc *models.Database, expected int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailSaves != nil {
		return r.FailSaves
	}
	if r.revs[key] != expected {
		return repository.ErrRevisionConflict
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", key, err)
	}
	r.docs[key] = raw
	r.revs[key] = doc.Revision
	return nil
}

// Revision reports the stored revision of key, for tests.
func (r *Repository) Revision(key string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revs[key]
}

// Close is a no-op.
func (r *Repository) Close(context.Context) error { return nil }
