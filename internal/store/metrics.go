package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// documentSaves counts save attempts by outcome: ok, failed, conflict.
	documentSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "porkyfarm_store_saves_total",
		Help: "Total number of document save attempts by result",
	}, []string{"result"})

	// saveDuration tracks backend write latency.
	saveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "porkyfarm_store_save_duration_seconds",
		Help:    "Time taken to persist a farm document",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	// openHandles is the number of documents currently held in memory.
	openHandles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "porkyfarm_store_open_handles",
		Help: "Number of farm documents loaded in memory",
	})

	// dirtyHandles is the number of handles whose latest state is not durable.
	dirtyHandles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "porkyfarm_store_dirty_handles",
		Help: "Number of farm documents with unsaved in-memory changes",
	})
)
