package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/porkyfarm/porcpro/internal/domain/livestock"
	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/server/response"
	"github.com/porkyfarm/porcpro/internal/store"
)

type createAnimalRequest struct {
	Name         string  `json:"name" binding:"required,max=100"`
	Category     string  `json:"category" binding:"required,oneof=breeding_female breeding_male piglet fattening"`
	Breed        string  `json:"breed" binding:"max=100"`
	BirthDate    string  `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
	Weight       float64 `json:"weight" binding:"gte=0"`
	Status       string  `json:"status" binding:"omitempty,oneof=active pregnant nursing"`
	HealthStatus string  `json:"health_status" binding:"omitempty,oneof=good medium bad"`
	PhotoURL     string  `json:"photo_url" binding:"omitempty,url"`
	MotherID     string  `json:"mother_id"`
	FatherID     string  `json:"father_id"`
	Notes        string  `json:"notes" binding:"max=2000"`
}

type updateAnimalRequest struct {
	Name      *string  `json:"name" binding:"omitempty,min=1,max=100"`
	Category  *string  `json:"category" binding:"omitempty,oneof=breeding_female breeding_male piglet fattening"`
	Breed     *string  `json:"breed" binding:"omitempty,max=100"`
	BirthDate *string  `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
	Weight    *float64 `json:"weight" binding:"omitempty,gte=0"`
	PhotoURL  *string  `json:"photo_url" binding:"omitempty,url"`
	MotherID  *string  `json:"mother_id"`
	FatherID  *string  `json:"father_id"`
	Notes     *string  `json:"notes" binding:"omitempty,max=2000"`
}

func (r updateAnimalRequest) apply(a *models.Animal) {
	if r.Name != nil {
		a.Name = *r.Name
	}
	if r.Category != nil {
		a.Category = models.AnimalCategory(*r.Category)
	}
	if r.Breed != nil {
		a.Breed = *r.Breed
	}
	if r.BirthDate != nil {
		a.BirthDate = parseDate(*r.BirthDate)
	}
	if r.Weight != nil {
		a.Weight = *r.Weight
	}
	if r.PhotoURL != nil {
		a.PhotoURL = *r.PhotoURL
	}
	if r.MotherID != nil {
		a.MotherID = *r.MotherID
	}
	if r.FatherID != nil {
		a.FatherID = *r.FatherID
	}
	if r.Notes != nil {
		a.Notes = *r.Notes
	}
}

// ListAnimals returns the herd with display fields, optionally filtered by status and category.
func (h *Handler) ListAnimals(c *gin.Context) {
	handle, ok := h.open(c)
	if !ok {
		return
	}
	status, category := c.Query("status"), c.Query("category")
	animals := make([]models.Animal, 0)
	for _, a := range store.List(handle, store.Animals) {
		if status != "" && string(a.Status) != status {
			continue
		}
		if category != "" && string(a.Category) != category {
			continue
		}
		animals = append(animals, a)
	}
	response.Success(c, http.StatusOK, livestock.AnimalViews(animals, h.today()))
}

// GetAnimal returns one animal.
func (h *Handler) GetAnimal(c *gin.Context) {
	handle, ok := h.open(c)
	if !ok {
		return
	}
	a, err := store.Get(handle, store.Animals, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, livestock.NewAnimalView(a, h.today()))
}

// CreateAnimal registers an animal.
func (h *Handler) CreateAnimal(c *gin.Context) {
	var req createAnimalRequest
	if !bind(c, &req) {
		return
	}
	handle, ok := h.open(c)
	if !ok {
		return
	}
	a, res, err := store.Add(c.Request.Context(), handle, store.Animals, models.Animal{
		Name:         req.Name,
		Category:     models.AnimalCategory(req.Category),
		Breed:        req.Breed,
		BirthDate:    parseDate(req.BirthDate),
		Weight:       req.Weight,
		Status:       models.AnimalStatus(req.Status),
		HealthStatus: models.HealthStatus(req.HealthStatus),
		PhotoURL:     req.PhotoURL,
		MotherID:     req.MotherID,
		FatherID:     req.FatherID,
		Notes:        req.Notes,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.written(c, http.StatusCreated, livestock.NewAnimalView(a, h.today()), res)
}

// UpdateAnimal patches descriptive fields. Status moves only through the dedicated operations.
func (h *Handler) UpdateAnimal(c *gin.Context) {
	var req updateAnimalRequest
	if !bind(c, &req) {
		return
	}
	handle, ok := h.open(c)
	if !ok {
		return
	}
	a, res, err := store.Update(c.Request.Context(), handle, store.Animals, c.Param("id"), func(a *models.Animal) error {
		req.apply(a)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.written(c, http.StatusOK, livestock.NewAnimalView(a, h.today()), res)
}

// DeleteAnimal removes an animal from the registry.
func (h *Handler) DeleteAnimal(c *gin.Context) {
	h.remove(c, func(handle *store.Handle, id string) (bool, store.SaveResult, error) {
		return store.Remove(c.Request.Context(), handle, store.Animals, id)
	})
}

// SellAnimal marks an animal sold.
func (h *Handler) SellAnimal(c *gin.Context) {
	h.retire(c, store.SellAnimal)
}

// MarkAnimalDeceased marks an animal deceased.
func (h *Handler) MarkAnimalDeceased(c *gin.Context) {
	h.retire(c, store.MarkAnimalDeceased)
}

func (h *Handler) retire(c *gin.Context, op func(ctx context.Context, handle *store.Handle, id string) (models.Animal, store.SaveResult, error)) {
	handle, ok := h.open(c)
	if !ok {
		return
	}
	a, res, err := op(c.Request.Context(), handle, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.written(c, http.StatusOK, livestock.NewAnimalView(a, h.today()), res)
}

// remove runs a delete and answers 404 when nothing was removed.
func (h *Handler) remove(c *gin.Context, op func(handle *store.Handle, id string) (bool, store.SaveResult, error)) {
	handle, ok := h.open(c)
	if !ok {
		return
	}
	removed, res, err := op(handle, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !removed {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "record not found")
		return
	}
	h.written(c, http.StatusOK, gin.H{"id": c.Param("id")}, res)
}
