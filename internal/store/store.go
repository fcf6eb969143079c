// Package store keeps the per-user farm documents: typed CRUD over the named
// collections, the activity feed, and the cascading animal status rules.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/porkyfarm/porcpro/internal/domain/lifecycle"
	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/repository"
)

// Option customises a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

// WithoutDemoSeed leaves the demo document empty on creation.
func WithoutDemoSeed() Option {
	return func(m *Manager) { m.seedDemo = false }
}

// Manager opens and caches one Handle per storage key.
type Manager struct {
	repo     repository.DocumentRepository
	reducer  *lifecycle.Reducer
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
	seedDemo bool

	mu      sync.Mutex
	handles map[string]*Handle
	onEvict []func(key string)
}

// NewManager wires a manager over the given repository.
func NewManager(repo repository.DocumentRepository, logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		repo:     repo,
		reducer:  lifecycle.NewReducer(logger.Named("lifecycle")),
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
		seedDemo: true,
		handles:  make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnEvict registers fn to run with the storage key of every closed handle.
// Caches keyed by revision use it, since a reloaded document may reuse a
// revision number that was never persisted.
func (m *Manager) OnEvict(fn func(key string)) {
	m.mu.Lock()
	m.onEvict = append(m.onEvict, fn)
	m.mu.Unlock()
}

func (m *Manager) evicted(key string) {
	m.mu.Lock()
	hooks := m.onEvict
	m.mu.Unlock()
	for _, fn := range hooks {
		fn(key)
	}
}

// Now returns the manager clock, used by read-side derivations.
func (m *Manager) Now() time.Time { return m.now() }

// Open returns the handle of userID, loading or creating its document.
// An empty userID opens the shared demo document.
func (m *Manager) Open(ctx context.Context, userID string) (*Handle, error) {
	key := repository.StorageKey(userID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.handles[key]; ok {
		return h, nil
	}

	h, err := m.load(ctx, key, repository.OwnerFor(userID))
	if err != nil {
		return nil, err
	}
	m.handles[key] = h
	openHandles.Inc()
	return h, nil
}

func (m *Manager) load(ctx context.Context, key, owner string) (*Handle, error) {
	h := &Handle{
		key:     key,
		owner:   owner,
		repo:    m.repo,
		reducer: m.reducer,
		now:     m.now,
		newID:   m.newID,
		logger:  m.logger.With(zap.String("owner", owner)),
	}

	doc, err := m.repo.Load(ctx, key)
	switch {
	case err == nil:
		h.doc = doc
		h.persisted = doc.Revision
		return h, nil
	case !errors.Is(err, repository.ErrDocumentNotFound):
		return nil, fmt.Errorf("load document %s: %w", key, err)
	}

	doc = models.NewDatabase(owner)
	if owner == repository.DemoOwner && m.seedDemo {
		seedDemo(doc, m.now().UTC(), m.newID)
	}
	doc.Revision = 1
	doc.UpdatedAt = m.now().UTC()
	h.doc = doc

	res := h.persistLocked(ctx, doc)
	if errors.Is(res.Err, repository.ErrRevisionConflict) {
		// created concurrently elsewhere
		if err := h.reloadLocked(ctx); err != nil {
			return nil, fmt.Errorf("load document %s: %w", key, err)
		}
	}
	m.logger.Info("document created", zap.String("key", key), zap.Bool("durable", res.Durable))
	return h, nil
}

// Close flushes and evicts the handle of userID. The next Open reloads from the backend.
func (m *Manager) Close(ctx context.Context, userID string) SaveResult {
	key := repository.StorageKey(userID)

	m.mu.Lock()
	h, ok := m.handles[key]
	delete(m.handles, key)
	m.mu.Unlock()

	if !ok {
		return SaveResult{Durable: true}
	}
	openHandles.Dec()
	res := h.close(ctx)
	m.evicted(key)
	return res
}

// CloseAll flushes and evicts every handle, returning the first flush error.
func (m *Manager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	handles := m.handles
	m.handles = make(map[string]*Handle)
	m.mu.Unlock()

	var firstErr error
	for key, h := range handles {
		openHandles.Dec()
		if res := h.close(ctx); res.Err != nil {
			m.logger.Error("flush on close failed", zap.String("key", key), zap.Error(res.Err))
			if firstErr == nil {
				firstErr = res.Err
			}
		}
		m.evicted(key)
	}
	return firstErr
}

// FlushDirty retries persisting every dirty handle and returns how many are still dirty.
func (m *Manager) FlushDirty(ctx context.Context) int {
	m.mu.Lock()
	handles := make([]*Handle, 0, len(m.handles))
	for _, h := range m.handles {
		handles = append(handles, h)
	}
	m.mu.Unlock()

	remaining := 0
	for _, h := range handles {
		if res := h.Flush(ctx); !res.Durable {
			remaining++
		}
	}
	return remaining
}
