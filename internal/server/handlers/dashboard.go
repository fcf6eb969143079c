package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/porkyfarm/porcpro/internal/domain/models"
)

// Dashboard returns counters, upcoming farrowings, alerts and feed totals.
func (h *Handler) Dashboard(c *gin.Context) {
	handle, ok := h.open(c)
	if !ok {
		return
	}
	h.ok(c, h.dashboard.Summary(handle, h.store.Now()))
}

// Activities returns the recent activity feed, newest first. ?limit= trims it.
func (h *Handler) Activities(c *gin.Context) {
	handle, ok := h.open(c)
	if !ok {
		return
	}
	entries := handle.Activities()
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n >= 0 && n < len(entries) {
		entries = entries[:n]
	}
	if entries == nil {
		entries = []models.Activity{}
	}
	h.ok(c, entries)
}
