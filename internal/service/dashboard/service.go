// Package dashboard aggregates herd counters, upcoming farrowings, prioritised
// alerts and feed totals from a farm document.
package dashboard

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/porkyfarm/porcpro/internal/domain/livestock"
	"github.com/porkyfarm/porcpro/internal/store"
)

var summaryLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "porkyfarm_dashboard_summary_total",
	Help: "Dashboard summary lookups by cache result",
}, []string{"result"})

type cached struct {
	revision int64
	day      time.Time
	summary  Summary
}

// Service memoises summaries per document revision and calendar day.
type Service struct {
	logger    *zap.Logger
	maxAlerts int

	mu    sync.Mutex
	cache map[string]cached
}

// NewService builds a dashboard service. maxAlerts <= 0 uses DefaultMaxAlerts.
func NewService(logger *zap.Logger, maxAlerts int) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxAlerts <= 0 {
		maxAlerts = DefaultMaxAlerts
	}
	return &Service{logger: logger, maxAlerts: maxAlerts, cache: make(map[string]cached)}
}

// Summary returns the summary of the handle document for the day of now.
// It is recomputed only when the document revision or the day changed.
func (s *Service) Summary(h *store.Handle, now time.Time) Summary {
	day := livestock.Day(now)
	rev := h.Revision()

	s.mu.Lock()
	c, ok := s.cache[h.Key()]
	s.mu.Unlock()
	if ok && c.revision == rev && c.day.Equal(day) {
		summaryLookups.WithLabelValues("hit").Inc()
		return c.summary
	}

	summaryLookups.WithLabelValues("miss").Inc()
	db := h.Snapshot()
	sum := Compute(db, day, s.maxAlerts)

	s.mu.Lock()
	s.cache[h.Key()] = cached{revision: db.Revision, day: day, summary: sum}
	s.mu.Unlock()

	s.logger.Debug("dashboard summary computed",
		zap.String("key", h.Key()),
		zap.Int64("revision", db.Revision),
		zap.Int("alerts", len(sum.Alerts)))
	return sum
}

// Forget drops the cached summary of key.
func (s *Service) Forget(key string) {
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
}
