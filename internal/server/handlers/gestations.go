package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/porkyfarm/porcpro/internal/domain/livestock"
	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/server/response"
	"github.com/porkyfarm/porcpro/internal/store"
)

type createGestationRequest struct {
	SowID        string `json:"sow_id" binding:"required"`
	BoarID       string `json:"boar_id"`
	BreedingDate string `json:"breeding_date" binding:"required,datetime=2006-01-02"`
	Notes        string `json:"notes" binding:"max=2000"`
}

type updateGestationRequest struct {
	PigletCount     *int    `json:"piglet_count" binding:"omitempty,gte=0"`
	PigletsSurvived *int    `json:"piglets_survived" binding:"omitempty,gte=0"`
	Notes           *string `json:"notes" binding:"omitempty,max=2000"`
}

type completeGestationRequest struct {
	ActualDate      string `json:"actual_date" binding:"omitempty,datetime=2006-01-02"`
	PigletCount     *int   `json:"piglet_count" binding:"omitempty,gte=0"`
	PigletsSurvived *int   `json:"piglets_survived" binding:"omitempty,gte=0"`
	Notes           string `json:"notes" binding:"max=2000"`
}

type failGestationRequest struct {
	Notes string `json:"notes" binding:"max=2000"`
}

// ListGestations returns gestations with their progress, optionally filtered by status.
func (h *Handler) ListGestations(c *gin.Context) {
	handle, ok := h.open(c)
	if !ok {
		return
	}
	status := c.Query("status")
	out := make([]models.Gestation, 0)
	for _, g := range store.List(handle, store.Gestations) {
		if status != "" && string(g.Status) != status {
			continue
		}
		out = append(out, g)
	}
	response.Success(c, http.StatusOK, livestock.GestationViews(out, h.today()))
}

// CreateGestation records a breeding. The expected due date is breeding + 114 days.
func (h *Handler) CreateGestation(c *gin.Context) {
	var req createGestationRequest
	if !bind(c, &req) {
		return
	}
	handle, ok := h.open(c)
	if !ok {
		return
	}
	g, res, err := store.StartGestation(c.Request.Context(), handle, models.Gestation{
		SowID:        req.SowID,
		BoarID:       req.BoarID,
		BreedingDate: dateOrZero(req.BreedingDate),
		Notes:        req.Notes,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.written(c, http.StatusCreated, livestock.NewGestationView(g, h.today()), res)
}

// UpdateGestation patches the litter figures and notes of an active gestation.
func (h *Handler) UpdateGestation(c *gin.Context) {
	var req updateGestationRequest
	if !bind(c, &req) {
		return
	}
	handle, ok := h.open(c)
	if !ok {
		return
	}
	g, res, err := store.Update(c.Request.Context(), handle, store.Gestations, c.Param("id"), func(g *models.Gestation) error {
		if req.PigletCount != nil {
			g.PigletCount = req.PigletCount
		}
		if req.PigletsSurvived != nil {
			g.PigletsSurvived = req.PigletsSurvived
		}
		if req.Notes != nil {
			g.Notes = *req.Notes
		}
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.written(c, http.StatusOK, livestock.NewGestationView(g, h.today()), res)
}

// CompleteGestation records the farrowing.
func (h *Handler) CompleteGestation(c *gin.Context) {
	var req completeGestationRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	handle, ok := h.open(c)
	if !ok {
		return
	}
	g, res, err := store.CompleteGestation(c.Request.Context(), handle, c.Param("id"), store.Farrowing{
		Date:            parseDate(req.ActualDate),
		PigletCount:     req.PigletCount,
		PigletsSurvived: req.PigletsSurvived,
		Notes:           req.Notes,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.written(c, http.StatusOK, livestock.NewGestationView(g, h.today()), res)
}

// FailGestation closes a gestation without farrowing.
func (h *Handler) FailGestation(c *gin.Context) {
	var req failGestationRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	handle, ok := h.open(c)
	if !ok {
		return
	}
	g, res, err := store.FailGestation(c.Request.Context(), handle, c.Param("id"), req.Notes)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.written(c, http.StatusOK, livestock.NewGestationView(g, h.today()), res)
}

// DeleteGestation removes a gestation record.
func (h *Handler) DeleteGestation(c *gin.Context) {
	h.remove(c, func(handle *store.Handle, id string) (bool, store.SaveResult, error) {
		return store.Remove(c.Request.Context(), handle, store.Gestations, id)
	})
}
