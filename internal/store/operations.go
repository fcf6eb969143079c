package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/porkyfarm/porcpro/internal/domain/livestock"
	"github.com/porkyfarm/porcpro/internal/domain/models"
)

// OpenHealthCase records a new health case. A high or critical case marks the animal sick.
func OpenHealthCase(ctx context.Context, h *Handle, hc models.HealthCase) (models.HealthCase, SaveResult, error) {
	return Add(ctx, h, HealthCases, hc)
}

// StartTreatment moves an open case to in progress.
func StartTreatment(ctx context.Context, h *Handle, caseID, treatment string) (models.HealthCase, SaveResult, error) {
	return Update(ctx, h, HealthCases, caseID, func(hc *models.HealthCase) error {
		hc.Status = models.CaseInProgress
		if treatment != "" {
			hc.Treatment = treatment
		}
		return nil
	})
}

// ResolveHealthCase closes a case. When it was the last unresolved case of
// the animal, the animal returns to good health.
func ResolveHealthCase(ctx context.Context, h *Handle, caseID, treatment string) (models.HealthCase, SaveResult, error) {
	return Update(ctx, h, HealthCases, caseID, func(hc *models.HealthCase) error {
		hc.Status = models.CaseResolved
		if treatment != "" {
			hc.Treatment = treatment
		}
		return nil
	})
}

// StartGestation records a breeding. The sow becomes pregnant.
func StartGestation(ctx context.Context, h *Handle, g models.Gestation) (models.Gestation, SaveResult, error) {
	return Add(ctx, h, Gestations, g)
}

// Farrowing is the outcome of a completed gestation.
type Farrowing struct {
	Date            *time.Time
	PigletCount     *int
	PigletsSurvived *int
	Notes           string
}

// CompleteGestation records the farrowing. The sow becomes nursing.
func CompleteGestation(ctx context.Context, h *Handle, id string, f Farrowing) (models.Gestation, SaveResult, error) {
	return Update(ctx, h, Gestations, id, func(g *models.Gestation) error {
		g.Status = models.GestationCompleted
		if f.Date != nil {
			day := livestock.Day(*f.Date)
			g.ActualDate = &day
		}
		if f.PigletCount != nil {
			g.PigletCount = f.PigletCount
		}
		if f.PigletsSurvived != nil {
			g.PigletsSurvived = f.PigletsSurvived
		}
		if f.Notes != "" {
			g.Notes = f.Notes
		}
		return nil
	})
}

// FailGestation closes a gestation without farrowing. The sow status is left as is.
func FailGestation(ctx context.Context, h *Handle, id, notes string) (models.Gestation, SaveResult, error) {
	return Update(ctx, h, Gestations, id, func(g *models.Gestation) error {
		g.Status = models.GestationFailed
		if notes != "" {
			g.Notes = notes
		}
		return nil
	})
}

// CompleteVaccination marks a vaccination done, optionally with the number of animals treated.
func CompleteVaccination(ctx context.Context, h *Handle, id string, count *int) (models.Vaccination, SaveResult, error) {
	return Update(ctx, h, Vaccinations, id, func(v *models.Vaccination) error {
		if count != nil && *count < 0 {
			return fmt.Errorf("completed count must not be negative: %w", ErrInvalidRecord)
		}
		v.Status = models.VaccinationCompleted
		if count != nil {
			v.CompletedCount = count
		}
		return nil
	})
}

// SellAnimal moves an animal to the sold state. Selling a sold animal is a no-op.
func SellAnimal(ctx context.Context, h *Handle, id string) (models.Animal, SaveResult, error) {
	return retire(ctx, h, id, models.StatusSold, "Animal sold", func(at time.Time) models.Event {
		return models.AnimalSold{AnimalID: id, Timestamp: at}
	})
}

// MarkAnimalDeceased moves an animal to the deceased state. Repeating it is a no-op.
func MarkAnimalDeceased(ctx context.Context, h *Handle, id string) (models.Animal, SaveResult, error) {
	return retire(ctx, h, id, models.StatusDeceased, "Animal deceased", func(at time.Time) models.Event {
		return models.AnimalDied{AnimalID: id, Timestamp: at}
	})
}

func retire(ctx context.Context, h *Handle, id string, target models.AnimalStatus, title string, event func(time.Time) models.Event) (models.Animal, SaveResult, error) {
	res, err := h.mutate(ctx, func(db *models.Database, at time.Time) (change, error) {
		i := db.FindAnimal(id)
		if i < 0 {
			return change{}, fmt.Errorf("animals %s: %w", id, ErrNotFound)
		}
		a := db.Animals[i]
		switch {
		case a.Status == target:
			return change{}, errNoop
		case a.Status.Terminal():
			return change{}, fmt.Errorf("animal %s is %s: %w", id, a.Status, ErrTerminalStatus)
		}
		return change{
			activity: &models.Activity{
				Type:        models.ActivityAnimalUpdated,
				Title:       title,
				Description: a.Name,
				EntityID:    a.ID,
			},
			events: []models.Event{event(at)},
		}, nil
	})
	if errors.Is(err, errNoop) {
		res, err = SaveResult{Durable: !h.Dirty()}, nil
	}
	if err != nil {
		return models.Animal{}, res, err
	}
	a, gerr := Get(h, Animals, id)
	if gerr != nil {
		return models.Animal{}, res, gerr
	}
	return a, res, nil
}
