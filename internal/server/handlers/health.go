package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/server/response"
	"github.com/porkyfarm/porcpro/internal/store"
)

type createHealthCaseRequest struct {
	AnimalID  string `json:"animal_id" binding:"required"`
	Issue     string `json:"issue" binding:"required,max=500"`
	Priority  string `json:"priority" binding:"required,oneof=low medium high critical"`
	Treatment string `json:"treatment" binding:"max=2000"`
	PhotoURL  string `json:"photo_url" binding:"omitempty,url"`
	StartDate string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
}

type updateHealthCaseRequest struct {
	Issue     *string `json:"issue" binding:"omitempty,min=1,max=500"`
	Priority  *string `json:"priority" binding:"omitempty,oneof=low medium high critical"`
	Status    *string `json:"status" binding:"omitempty,oneof=open in_progress resolved"`
	Treatment *string `json:"treatment" binding:"omitempty,max=2000"`
	PhotoURL  *string `json:"photo_url" binding:"omitempty,url"`
}

type treatmentRequest struct {
	Treatment string `json:"treatment" binding:"max=2000"`
}

// ListHealthCases returns the health cases, optionally filtered by status or animal.
func (h *Handler) ListHealthCases(c *gin.Context) {
	handle, ok := h.open(c)
	if !ok {
		return
	}
	status, animal := c.Query("status"), c.Query("animal_id")
	out := make([]models.HealthCase, 0)
	for _, hc := range store.List(handle, store.HealthCases) {
		if status != "" && string(hc.Status) != status {
			continue
		}
		if animal != "" && hc.AnimalID != animal {
			continue
		}
		out = append(out, hc)
	}
	response.Success(c, http.StatusOK, out)
}

// CreateHealthCase opens a case against an existing animal.
func (h *Handler) CreateHealthCase(c *gin.Context) {
	var req createHealthCaseRequest
	if !bind(c, &req) {
		return
	}
	handle, ok := h.open(c)
	if !ok {
		return
	}
	hc, res, err := store.OpenHealthCase(c.Request.Context(), handle, models.HealthCase{
		AnimalID:  req.AnimalID,
		Issue:     req.Issue,
		Priority:  models.Priority(req.Priority),
		Treatment: req.Treatment,
		PhotoURL:  req.PhotoURL,
		StartDate: dateOrZero(req.StartDate),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.written(c, http.StatusCreated, hc, res)
}

// UpdateHealthCase patches a case. Status changes follow open, in_progress, resolved.
func (h *Handler) UpdateHealthCase(c *gin.Context) {
	var req updateHealthCaseRequest
	if !bind(c, &req) {
		return
	}
	handle, ok := h.open(c)
	if !ok {
		return
	}
	hc, res, err := store.Update(c.Request.Context(), handle, store.HealthCases, c.Param("id"), func(hc *models.HealthCase) error {
		if req.Issue != nil {
			hc.Issue = *req.Issue
		}
		if req.Priority != nil {
			hc.Priority = models.Priority(*req.Priority)
		}
		if req.Status != nil {
			hc.Status = models.CaseStatus(*req.Status)
		}
		if req.Treatment != nil {
			hc.Treatment = *req.Treatment
		}
		if req.PhotoURL != nil {
			hc.PhotoURL = *req.PhotoURL
		}
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.written(c, http.StatusOK, hc, res)
}

// StartTreatment moves a case to in progress.
func (h *Handler) StartTreatment(c *gin.Context) {
	h.treat(c, store.StartTreatment)
}

// ResolveHealthCase closes a case.
func (h *Handler) ResolveHealthCase(c *gin.Context) {
	h.treat(c, store.ResolveHealthCase)
}

func (h *Handler) treat(c *gin.Context, op func(ctx context.Context, handle *store.Handle, id, treatment string) (models.HealthCase, store.SaveResult, error)) {
	var req treatmentRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	handle, ok := h.open(c)
	if !ok {
		return
	}
	hc, res, err := op(c.Request.Context(), handle, c.Param("id"), req.Treatment)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.written(c, http.StatusOK, hc, res)
}

// DeleteHealthCase removes a case record.
func (h *Handler) DeleteHealthCase(c *gin.Context) {
	h.remove(c, func(handle *store.Handle, id string) (bool, store.SaveResult, error) {
		return store.Remove(c.Request.Context(), handle, store.HealthCases, id)
	})
}
