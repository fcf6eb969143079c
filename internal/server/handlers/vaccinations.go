package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/porkyfarm/porcpro/internal/domain/livestock"
	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/store"
)

type createVaccinationRequest struct {
	VaccineName   string `json:"vaccine_name" binding:"required,max=200"`
	Target        string `json:"target" binding:"required_without=AnimalID,max=200"`
	AnimalID      string `json:"animal_id"`
	ScheduledDate string `json:"scheduled_date" binding:"required,datetime=2006-01-02"`
	Notes         string `json:"notes" binding:"max=2000"`
}

type updateVaccinationRequest struct {
	VaccineName   *string `json:"vaccine_name" binding:"omitempty,min=1,max=200"`
	Target        *string `json:"target" binding:"omitempty,max=200"`
	ScheduledDate *string `json:"scheduled_date" binding:"omitempty,datetime=2006-01-02"`
	Notes         *string `json:"notes" binding:"omitempty,max=2000"`
}

type completeVaccinationRequest struct {
	CompletedCount *int `json:"completed_count" binding:"omitempty,gte=0"`
}

// ListVaccinations returns vaccinations with their display status.
func (h *Handler) ListVaccinations(c *gin.Context) {
	handle, ok := h.open(c)
	if !ok {
		return
	}
	h.ok(c, livestock.VaccinationViews(store.List(handle, store.Vaccinations), h.today()))
}

// CreateVaccination schedules a vaccination for an animal or a group.
func (h *Handler) CreateVaccination(c *gin.Context) {
	var req createVaccinationRequest
	if !bind(c, &req) {
		return
	}
	handle, ok := h.open(c)
	if !ok {
		return
	}
	v, res, err := store.Add(c.Request.Context(), handle, store.Vaccinations, models.Vaccination{
		VaccineName:   req.VaccineName,
		Target:        req.Target,
		AnimalID:      req.AnimalID,
		ScheduledDate: dateOrZero(req.ScheduledDate),
		Notes:         req.Notes,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.written(c, http.StatusCreated, livestock.NewVaccinationView(v, h.today()), res)
}

// UpdateVaccination patches a vaccination.
func (h *Handler) UpdateVaccination(c *gin.Context) {
	var req updateVaccinationRequest
	if !bind(c, &req) {
		return
	}
	handle, ok := h.open(c)
	if !ok {
		return
	}
	v, res, err := store.Update(c.Request.Context(), handle, store.Vaccinations, c.Param("id"), func(v *models.Vaccination) error {
		if req.VaccineName != nil {
			v.VaccineName = *req.VaccineName
		}
		if req.Target != nil {
			v.Target = *req.Target
		}
		if req.ScheduledDate != nil {
			v.ScheduledDate = dateOrZero(*req.ScheduledDate)
		}
		if req.Notes != nil {
			v.Notes = *req.Notes
		}
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.written(c, http.StatusOK, livestock.NewVaccinationView(v, h.today()), res)
}

// CompleteVaccination marks a vaccination done.
func (h *Handler) CompleteVaccination(c *gin.Context) {
	var req completeVaccinationRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	handle, ok := h.open(c)
	if !ok {
		return
	}
	v, res, err := store.CompleteVaccination(c.Request.Context(), handle, c.Param("id"), req.CompletedCount)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.written(c, http.StatusOK, livestock.NewVaccinationView(v, h.today()), res)
}

// DeleteVaccination removes a vaccination.
func (h *Handler) DeleteVaccination(c *gin.Context) {
	h.remove(c, func(handle *store.Handle, id string) (bool, store.SaveResult, error) {
		return store.Remove(c.Request.Context(), handle, store.Vaccinations, id)
	})
}
