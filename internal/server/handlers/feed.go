package handlers

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/store"
)

type feedingRecordRequest struct {
	Date        string  `json:"date" binding:"required,datetime=2006-01-02"`
	FeedType    string  `json:"feed_type" binding:"required,max=100"`
	QuantityKg  float64 `json:"quantity_kg" binding:"gt=0"`
	Cost        float64 `json:"cost" binding:"gte=0"`
	AnimalGroup string  `json:"animal_group" binding:"max=100"`
	Notes       string  `json:"notes" binding:"max=2000"`
}

type feedStockRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	CurrentQty  float64 `json:"current_qty" binding:"gte=0"`
	MaxQty      float64 `json:"max_qty" binding:"gte=0"`
	Unit        string  `json:"unit" binding:"max=20"`
	CostPerUnit float64 `json:"cost_per_unit" binding:"gte=0"`
}

type updateFeedStockRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1,max=100"`
	CurrentQty  *float64 `json:"current_qty" binding:"omitempty,gte=0"`
	MaxQty      *float64 `json:"max_qty" binding:"omitempty,gte=0"`
	Unit        *string  `json:"unit" binding:"omitempty,max=20"`
	CostPerUnit *float64 `json:"cost_per_unit" binding:"omitempty,gte=0"`
}

type feedProductionRequest struct {
	Date        string   `json:"date" binding:"required,datetime=2006-01-02"`
	FeedType    string   `json:"feed_type" binding:"required,max=100"`
	QuantityKg  float64  `json:"quantity_kg" binding:"gt=0"`
	Ingredients []string `json:"ingredients" binding:"dive,min=1,max=100"`
	Cost        float64  `json:"cost" binding:"gte=0"`
	Notes       string   `json:"notes" binding:"max=2000"`
}

type dailyConsumptionRequest struct {
	Date        string  `json:"date" binding:"required,datetime=2006-01-02"`
	FeedType    string  `json:"feed_type" binding:"required,max=100"`
	QuantityKg  float64 `json:"quantity_kg" binding:"gt=0"`
	AnimalCount int     `json:"animal_count" binding:"gte=0"`
	Notes       string  `json:"notes" binding:"max=2000"`
}

// listNewestFirst answers a ledger collection sorted by date, newest first.
func listNewestFirst[T any](h *Handler, c *gin.Context, col store.Collection[T], date func(T) int64) {
	handle, ok := h.open(c)
	if !ok {
		return
	}
	rows := store.List(handle, col)
	slices.SortStableFunc(rows, func(a, b T) int {
		da, db := date(a), date(b)
		switch {
		case da > db:
			return -1
		case da < db:
			return 1
		}
		return 0
	})
	h.ok(c, rows)
}

func addTo[T any, P store.Entity[T]](h *Handler, c *gin.Context, col store.Collection[T], v T) {
	handle, ok := h.open(c)
	if !ok {
		return
	}
	created, res, err := store.Add[T, P](c.Request.Context(), handle, col, v)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.written(c, http.StatusCreated, created, res)
}

func removeFrom[T any, P store.Entity[T]](h *Handler, c *gin.Context, col store.Collection[T]) {
	h.remove(c, func(handle *store.Handle, id string) (bool, store.SaveResult, error) {
		return store.Remove[T, P](c.Request.Context(), handle, col, id)
	})
}

// ListFeedingRecords returns feed distributions, newest first.
func (h *Handler) ListFeedingRecords(c *gin.Context) {
	listNewestFirst(h, c, store.FeedingRecords, func(r models.FeedingRecord) int64 { return r.Date.Unix() })
}

// CreateFeedingRecord logs a feed distribution.
func (h *Handler) CreateFeedingRecord(c *gin.Context) {
	var req feedingRecordRequest
	if !bind(c, &req) {
		return
	}
	addTo[models.FeedingRecord, *models.FeedingRecord](h, c, store.FeedingRecords, models.FeedingRecord{
		Date:        dateOrZero(req.Date),
		FeedType:    req.FeedType,
		QuantityKg:  req.QuantityKg,
		Cost:        req.Cost,
		AnimalGroup: req.AnimalGroup,
		Notes:       req.Notes,
	})
}

// DeleteFeedingRecord removes a feed distribution.
func (h *Handler) DeleteFeedingRecord(c *gin.Context) {
	removeFrom[models.FeedingRecord, *models.FeedingRecord](h, c, store.FeedingRecords)
}

// ListFeedStocks returns the inventory.
func (h *Handler) ListFeedStocks(c *gin.Context) {
	handle, ok := h.open(c)
	if !ok {
		return
	}
	h.ok(c, store.List(handle, store.FeedStocks))
}

// CreateFeedStock adds an inventory line.
func (h *Handler) CreateFeedStock(c *gin.Context) {
	var req feedStockRequest
	if !bind(c, &req) {
		return
	}
	addTo[models.FeedStock, *models.FeedStock](h, c, store.FeedStocks, models.FeedStock{
		Name:        req.Name,
		CurrentQty:  req.CurrentQty,
		MaxQty:      req.MaxQty,
		Unit:        req.Unit,
		CostPerUnit: req.CostPerUnit,
	})
}

// UpdateFeedStock adjusts an inventory line.
func (h *Handler) UpdateFeedStock(c *gin.Context) {
	var req updateFeedStockRequest
	if !bind(c, &req) {
		return
	}
	handle, ok := h.open(c)
	if !ok {
		return
	}
	s, res, err := store.Update(c.Request.Context(), handle, store.FeedStocks, c.Param("id"), func(s *models.FeedStock) error {
		if req.Name != nil {
			s.Name = *req.Name
		}
		if req.CurrentQty != nil {
			s.CurrentQty = *req.CurrentQty
		}
		if req.MaxQty != nil {
			s.MaxQty = *req.MaxQty
		}
		if req.Unit != nil {
			s.Unit = *req.Unit
		}
		if req.CostPerUnit != nil {
			s.CostPerUnit = *req.CostPerUnit
		}
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.written(c, http.StatusOK, s, res)
}

// DeleteFeedStock removes an inventory line.
func (h *Handler) DeleteFeedStock(c *gin.Context) {
	removeFrom[models.FeedStock, *models.FeedStock](h, c, store.FeedStocks)
}

// ListFeedProductions returns mixed batches, newest first.
func (h *Handler) ListFeedProductions(c *gin.Context) {
	listNewestFirst(h, c, store.FeedProductions, func(p models.FeedProduction) int64 { return p.Date.Unix() })
}

// CreateFeedProduction logs a mixed batch.
func (h *Handler) CreateFeedProduction(c *gin.Context) {
	var req feedProductionRequest
	if !bind(c, &req) {
		return
	}
	ingredients := req.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}
	addTo[models.FeedProduction, *models.FeedProduction](h, c, store.FeedProductions, models.FeedProduction{
		Date:        dateOrZero(req.Date),
		FeedType:    req.FeedType,
		QuantityKg:  req.QuantityKg,
		Ingredients: ingredients,
		Cost:        req.Cost,
		Notes:       req.Notes,
	})
}

// DeleteFeedProduction removes a batch.
func (h *Handler) DeleteFeedProduction(c *gin.Context) {
	removeFrom[models.FeedProduction, *models.FeedProduction](h, c, store.FeedProductions)
}

// ListDailyConsumptions returns consumption entries, newest first.
func (h *Handler) ListDailyConsumptions(c *gin.Context) {
	listNewestFirst(h, c, store.DailyConsumptions, func(d models.DailyConsumption) int64 { return d.Date.Unix() })
}

// CreateDailyConsumption logs a day of consumption.
func (h *Handler) CreateDailyConsumption(c *gin.Context) {
	var req dailyConsumptionRequest
	if !bind(c, &req) {
		return
	}
	addTo[models.DailyConsumption, *models.DailyConsumption](h, c, store.DailyConsumptions, models.DailyConsumption{
		Date:        dateOrZero(req.Date),
		FeedType:    req.FeedType,
		QuantityKg:  req.QuantityKg,
		AnimalCount: req.AnimalCount,
		Notes:       req.Notes,
	})
}

// DeleteDailyConsumption removes a consumption entry.
func (h *Handler) DeleteDailyConsumption(c *gin.Context) {
	removeFrom[models.DailyConsumption, *models.DailyConsumption](h, c, store.DailyConsumptions)
}
