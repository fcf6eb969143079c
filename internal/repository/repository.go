// Package repository defines the document persistence contract shared by the
// storage drivers under this directory.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/porkyfarm/porcpro/internal/domain/models"
)

// ErrDocumentNotFound is returned by Load when no document exists for a key.
var ErrDocumentNotFound = errors.New("document not found")

// ErrRevisionConflict is returned by Save when the stored revision differs from the expected one.
var ErrRevisionConflict = errors.New("document revision conflict")

// DemoOwner owns the shared document used when no user is signed in.
const DemoOwner = "demo"

const keyPrefix = "porkyfarm_db_"

// DocumentRepository persists whole per-user documents.
type DocumentRepository interface {
	// Load returns the stored document for key or ErrDocumentNotFound.
	Load(ctx context.Context, key string) (*models.Database, error)
	// Save stores doc under key when the stored revision equals expected
	// (0 meaning "no document yet"), and ErrRevisionConflict otherwise.
	Save(ctx context.Context, key string, doc *models.Database, expected int64) error
	Close(ctx context.Context) error
}

// OwnerFor maps a user identity to its document owner, falling back to the demo bucket.
func OwnerFor(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return DemoOwner
	}
	return userID
}

// StorageKey derives the storage key of a user identity.
func StorageKey(userID string) string {
	return keyPrefix + OwnerFor(userID)
}
