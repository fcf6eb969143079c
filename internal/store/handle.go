package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/porkyfarm/porcpro/internal/domain/lifecycle"
	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/repository"
)

// SaveResult tells the caller whether a mutation reached the backend.
// When Durable is false the change lives in memory only and Err holds the
// backend failure; the next write retries the whole document.
type SaveResult struct {
	Durable bool
	Err     error
}

// Handle is the open document of one user identity. All mutations on a
// handle are serialised.
type Handle struct {
	key     string
	owner   string
	repo    repository.DocumentRepository
	reducer *lifecycle.Reducer
	now     func() time.Time
	newID   func() string
	logger  *zap.Logger

	mu        sync.RWMutex
	doc       *models.Database
	persisted int64
	dirty     bool
	closed    bool
}

// change is what a mutation wants recorded alongside its edit.
type change struct {
	activity *models.Activity
	events   []models.Event
}

// Key returns the storage key of the handle.
func (h *Handle) Key() string { return h.key }

// Owner returns the user identity (or demo owner) of the handle.
func (h *Handle) Owner() string { return h.owner }

// Revision returns the revision of the in-memory document.
func (h *Handle) Revision() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.doc.Revision
}

// Dirty reports whether the in-memory document is ahead of the backend.
func (h *Handle) Dirty() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dirty
}

// Snapshot returns a copy of the current document.
func (h *Handle) Snapshot() *models.Database {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.doc.Clone()
}

// Activities returns the activity feed, newest first.
func (h *Handle) Activities() []models.Activity {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]models.Activity, len(h.doc.Activities))
	copy(out, h.doc.Activities)
	return out
}

func (h *Handle) read(fn func(db *models.Database)) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn(h.doc)
}

// mutate runs fn on a working copy, applies emitted events and the activity
// entry, then persists the whole document. A revision conflict discards the
// copy and reloads; any other backend failure keeps the copy in memory.
func (h *Handle) mutate(ctx context.Context, fn func(db *models.Database, at time.Time) (change, error)) (SaveResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return SaveResult{}, ErrHandleClosed
	}

	at := h.now().UTC()
	working := h.doc.Clone()
	ch, err := fn(working, at)
	if err != nil {
		return SaveResult{}, err
	}

	for _, ev := range ch.events {
		h.reducer.Apply(working, ev)
	}
	if ch.activity != nil {
		entry := *ch.activity
		entry.ID = h.newID()
		entry.Timestamp = at
		pushActivity(working, entry)
	}
	working.Revision = h.doc.Revision + 1
	working.UpdatedAt = at

	res := h.persistLocked(ctx, working)
	if errors.Is(res.Err, repository.ErrRevisionConflict) {
		if rerr := h.reloadLocked(ctx); rerr != nil {
			h.logger.Error("reload after conflict failed", zap.String("key", h.key), zap.Error(rerr))
		}
		return SaveResult{}, fmt.Errorf("save %s: %w", h.key, ErrConflict)
	}

	h.doc = working
	return res, nil
}

func (h *Handle) persistLocked(ctx context.Context, doc *models.Database) SaveResult {
	start := time.Now()
	err := h.repo.Save(ctx, h.key, doc, h.persisted)
	saveDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		documentSaves.WithLabelValues("ok").Inc()
		h.persisted = doc.Revision
		h.setDirty(false)
		return SaveResult{Durable: true}
	case errors.Is(err, repository.ErrRevisionConflict):
		documentSaves.WithLabelValues("conflict").Inc()
		h.logger.Warn("document revision conflict",
			zap.String("key", h.key),
			zap.Int64("expected", h.persisted),
			zap.Int64("revision", doc.Revision))
		return SaveResult{Err: err}
	default:
		documentSaves.WithLabelValues("failed").Inc()
		h.setDirty(true)
		h.logger.Warn("document kept in memory only", zap.String("key", h.key), zap.Error(err))
		return SaveResult{Err: err}
	}
}

func (h *Handle) setDirty(dirty bool) {
	if h.dirty == dirty {
		return
	}
	h.dirty = dirty
	if dirty {
		dirtyHandles.Inc()
	} else {
		dirtyHandles.Dec()
	}
}

func (h *Handle) reloadLocked(ctx context.Context) error {
	doc, err := h.repo.Load(ctx, h.key)
	if err != nil {
		return err
	}
	h.doc = doc
	h.persisted = doc.Revision
	h.setDirty(false)
	return nil
}

// Reload replaces the in-memory document with the stored one, dropping unsaved changes.
func (h *Handle) Reload(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHandleClosed
	}
	return h.reloadLocked(ctx)
}

// Flush retries persisting a dirty document.
func (h *Handle) Flush(ctx context.Context) SaveResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.dirty {
		return SaveResult{Durable: true}
	}
	return h.persistLocked(ctx, h.doc)
}

func (h *Handle) close(ctx context.Context) SaveResult {
	res := h.Flush(ctx)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.setDirty(false)
	return res
}

func pushActivity(db *models.Database, entry models.Activity) {
	db.Activities = append([]models.Activity{entry}, db.Activities...)
	if len(db.Activities) > models.MaxActivities {
		db.Activities = db.Activities[:models.MaxActivities]
	}
}
