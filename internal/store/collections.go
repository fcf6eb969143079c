package store

import (
	"fmt"
	"time"

	"github.com/porkyfarm/porcpro/internal/domain/livestock"
	"github.com/porkyfarm/porcpro/internal/domain/models"
)

// Animals is the herd registry. Status and health status only change through
// lifecycle events, never through a patch.
var Animals = Collection[models.Animal]{
	name:  "animals",
	noun:  "Animal",
	kinds: [3]models.ActivityType{models.ActivityAnimalAdded, models.ActivityAnimalUpdated, models.ActivityAnimalDeleted},
	rows:  func(db *models.Database) *[]models.Animal { return &db.Animals },
	label: func(a *models.Animal) string { return fmt.Sprintf("%s (%s)", a.Name, a.Category) },
	beforeAdd: func(_ *models.Database, v *models.Animal, _ time.Time) (effect, error) {
		switch v.Status {
		case models.StatusActive, models.StatusPregnant, models.StatusNursing:
			return effect{}, nil
		}
		return effect{}, fmt.Errorf("new animal cannot start %s: %w", v.Status, ErrInvalidRecord)
	},
	beforeUpdate: func(_ *models.Database, old, next *models.Animal, _ time.Time) (effect, error) {
		next.ID = old.ID
		next.CreatedAt = old.CreatedAt
		next.Status = old.Status
		next.HealthStatus = old.HealthStatus
		return effect{}, nil
	},
}

// HealthCases tracks sanitary issues. Opening a severe case and resolving the
// last open case drive the animal status.
var HealthCases = Collection[models.HealthCase]{
	name:  "health_cases",
	noun:  "Health case",
	kinds: [3]models.ActivityType{models.ActivityHealthCase, models.ActivityHealthCase, models.ActivityHealthCase},
	rows:  func(db *models.Database) *[]models.HealthCase { return &db.HealthCases },
	label: func(h *models.HealthCase) string { return fmt.Sprintf("%s: %s", h.AnimalName, h.Issue) },
	beforeAdd: func(db *models.Database, v *models.HealthCase, at time.Time) (effect, error) {
		idx := db.FindAnimal(v.AnimalID)
		if idx < 0 {
			return effect{}, fmt.Errorf("health case for %s: %w", v.AnimalID, ErrAnimalNotFound)
		}
		if v.Status == models.CaseResolved {
			return effect{}, fmt.Errorf("new health case cannot be resolved: %w", ErrInvalidRecord)
		}
		v.AnimalName = db.Animals[idx].Name
		return effect{
			title:  "Health case opened",
			events: []models.Event{models.HealthCaseOpened{CaseID: v.ID, AnimalID: v.AnimalID, Priority: v.Priority, Timestamp: at}},
		}, nil
	},
	beforeUpdate: func(_ *models.Database, old, next *models.HealthCase, at time.Time) (effect, error) {
		if old.Status == models.CaseResolved {
			return effect{}, fmt.Errorf("health case %s: %w", old.ID, ErrCaseResolved)
		}
		if old.Status == models.CaseInProgress && next.Status == models.CaseOpen {
			return effect{}, fmt.Errorf("health case %s cannot return to open: %w", old.ID, ErrInvalidRecord)
		}
		next.ID = old.ID
		next.AnimalID = old.AnimalID
		next.AnimalName = old.AnimalName
		next.CreatedAt = old.CreatedAt

		switch {
		case next.Status == models.CaseResolved:
			if next.ResolvedDate == nil {
				day := livestock.Day(at)
				next.ResolvedDate = &day
			}
			return effect{
				title:  "Health case resolved",
				events: []models.Event{models.HealthCaseResolved{CaseID: old.ID, AnimalID: old.AnimalID, Timestamp: at}},
			}, nil
		case next.Priority.Severe() && !old.Priority.Severe():
			return effect{
				title:  "Health case escalated",
				events: []models.Event{models.HealthCaseOpened{CaseID: old.ID, AnimalID: old.AnimalID, Priority: next.Priority, Timestamp: at}},
			}, nil
		case next.Status == models.CaseInProgress && old.Status == models.CaseOpen:
			return effect{title: "Treatment started"}, nil
		}
		return effect{}, nil
	},
	beforeRemove: func(_ *models.Database, v *models.HealthCase, at time.Time) effect {
		if v.Status == models.CaseResolved {
			return effect{}
		}
		return effect{
			title:  "Health case withdrawn",
			events: []models.Event{models.HealthCaseResolved{CaseID: v.ID, AnimalID: v.AnimalID, Timestamp: at}},
		}
	},
}

// Gestations records pregnancies. The due date is fixed at creation.
var Gestations = Collection[models.Gestation]{
	name:  "gestations",
	noun:  "Gestation",
	kinds: [3]models.ActivityType{models.ActivityGestation, models.ActivityGestation, models.ActivityGestation},
	rows:  func(db *models.Database) *[]models.Gestation { return &db.Gestations },
	label: func(g *models.Gestation) string { return g.SowName },
	beforeAdd: func(db *models.Database, v *models.Gestation, at time.Time) (effect, error) {
		idx := db.FindAnimal(v.SowID)
		if idx < 0 {
			return effect{}, fmt.Errorf("gestation for %s: %w", v.SowID, ErrAnimalNotFound)
		}
		if v.Status != models.GestationActive {
			return effect{}, fmt.Errorf("new gestation must be active: %w", ErrInvalidRecord)
		}
		if v.BreedingDate.IsZero() {
			return effect{}, fmt.Errorf("breeding date required: %w", ErrInvalidRecord)
		}
		if err := validatePiglets(v.PigletCount, v.PigletsSurvived); err != nil {
			return effect{}, err
		}
		v.SowName = db.Animals[idx].Name
		if v.BoarID != "" {
			if b := db.FindAnimal(v.BoarID); b >= 0 {
				v.BoarName = db.Animals[b].Name
			}
		}
		v.BreedingDate = livestock.Day(v.BreedingDate)
		v.ExpectedDueDate = livestock.DueDate(v.BreedingDate)
		return effect{
			title:  "Gestation recorded",
			events: []models.Event{models.GestationStarted{GestationID: v.ID, SowID: v.SowID, Timestamp: at}},
		}, nil
	},
	beforeUpdate: func(_ *models.Database, old, next *models.Gestation, at time.Time) (effect, error) {
		if old.Status != models.GestationActive {
			return effect{}, fmt.Errorf("gestation %s: %w", old.ID, ErrGestationClosed)
		}
		if err := validatePiglets(next.PigletCount, next.PigletsSurvived); err != nil {
			return effect{}, err
		}
		next.ID = old.ID
		next.SowID = old.SowID
		next.SowName = old.SowName
		next.BreedingDate = old.BreedingDate
		next.ExpectedDueDate = old.ExpectedDueDate
		next.CreatedAt = old.CreatedAt

		if next.Status != models.GestationActive && next.ActualDate == nil {
			day := livestock.Day(at)
			next.ActualDate = &day
		}
		switch next.Status {
		case models.GestationCompleted:
			return effect{
				title:  "Farrowing recorded",
				events: []models.Event{models.GestationFarrowed{GestationID: old.ID, SowID: old.SowID, Timestamp: at}},
			}, nil
		case models.GestationFailed:
			return effect{title: "Gestation failed"}, nil
		}
		return effect{}, nil
	},
	beforeRemove: func(_ *models.Database, v *models.Gestation, at time.Time) effect {
		if v.Status != models.GestationActive {
			return effect{}
		}
		return effect{
			title:  "Gestation cancelled",
			events: []models.Event{models.GestationCancelled{GestationID: v.ID, SowID: v.SowID, Timestamp: at}},
		}
	},
}

// Vaccinations schedules vaccine administrations.
var Vaccinations = Collection[models.Vaccination]{
	name:  "vaccinations",
	noun:  "Vaccination",
	kinds: [3]models.ActivityType{models.ActivityVaccination, models.ActivityVaccination, models.ActivityVaccination},
	rows:  func(db *models.Database) *[]models.Vaccination { return &db.Vaccinations },
	label: func(v *models.Vaccination) string { return fmt.Sprintf("%s - %s", v.VaccineName, v.Target) },
	beforeAdd: func(db *models.Database, v *models.Vaccination, at time.Time) (effect, error) {
		if v.AnimalID != "" && v.Target == "" {
			if idx := db.FindAnimal(v.AnimalID); idx >= 0 {
				v.Target = db.Animals[idx].Name
			}
		}
		if v.Status == models.VaccinationCompleted && v.CompletedDate == nil {
			day := livestock.Day(at)
			v.CompletedDate = &day
		}
		return effect{title: "Vaccination scheduled"}, nil
	},
	beforeUpdate: func(_ *models.Database, old, next *models.Vaccination, at time.Time) (effect, error) {
		if old.Status == models.VaccinationCompleted && next.Status != models.VaccinationCompleted {
			return effect{}, fmt.Errorf("vaccination %s already completed: %w", old.ID, ErrInvalidRecord)
		}
		next.ID = old.ID
		next.CreatedAt = old.CreatedAt
		if next.Status == models.VaccinationCompleted && old.Status != models.VaccinationCompleted {
			if next.CompletedDate == nil {
				day := livestock.Day(at)
				next.CompletedDate = &day
			}
			return effect{title: "Vaccination completed"}, nil
		}
		return effect{}, nil
	},
}

// FeedingRecords is the feed distribution ledger.
var FeedingRecords = Collection[models.FeedingRecord]{
	name:  "feeding_records",
	noun:  "Feeding record",
	kinds: [3]models.ActivityType{models.ActivityFeeding, models.ActivityFeeding, models.ActivityFeeding},
	rows:  func(db *models.Database) *[]models.FeedingRecord { return &db.FeedingRecords },
	label: func(r *models.FeedingRecord) string { return fmt.Sprintf("%s %.1f kg", r.FeedType, r.QuantityKg) },
}

// FeedStocks is the feed inventory.
var FeedStocks = Collection[models.FeedStock]{
	name:  "feed_stocks",
	noun:  "Feed stock",
	kinds: [3]models.ActivityType{models.ActivityFeeding, models.ActivityFeeding, models.ActivityFeeding},
	rows:  func(db *models.Database) *[]models.FeedStock { return &db.FeedStocks },
	label: func(s *models.FeedStock) string { return fmt.Sprintf("%s %.0f/%.0f %s", s.Name, s.CurrentQty, s.MaxQty, s.Unit) },
	beforeAdd: func(_ *models.Database, v *models.FeedStock, _ time.Time) (effect, error) {
		return effect{}, validateStock(v)
	},
	beforeUpdate: func(_ *models.Database, old, next *models.FeedStock, _ time.Time) (effect, error) {
		next.ID = old.ID
		next.CreatedAt = old.CreatedAt
		return effect{}, validateStock(next)
	},
}

// FeedProductions is the on-farm feed mixing ledger.
var FeedProductions = Collection[models.FeedProduction]{
	name:  "feed_productions",
	noun:  "Feed production",
	kinds: [3]models.ActivityType{models.ActivityFeeding, models.ActivityFeeding, models.ActivityFeeding},
	rows:  func(db *models.Database) *[]models.FeedProduction { return &db.FeedProductions },
	label: func(p *models.FeedProduction) string { return fmt.Sprintf("%s %.1f kg", p.FeedType, p.QuantityKg) },
}

// DailyConsumptions is the daily feed intake ledger.
var DailyConsumptions = Collection[models.DailyConsumption]{
	name:  "daily_consumptions",
	noun:  "Daily consumption",
	kinds: [3]models.ActivityType{models.ActivityFeeding, models.ActivityFeeding, models.ActivityFeeding},
	rows:  func(db *models.Database) *[]models.DailyConsumption { return &db.DailyConsumptions },
	label: func(d *models.DailyConsumption) string {
		return fmt.Sprintf("%s %.1f kg for %d animals", d.FeedType, d.QuantityKg, d.AnimalCount)
	},
}

func validatePiglets(count, survived *int) error {
	if count != nil && *count < 0 {
		return fmt.Errorf("piglet count must not be negative: %w", ErrInvalidRecord)
	}
	if survived == nil {
		return nil
	}
	if *survived < 0 {
		return fmt.Errorf("piglets survived must not be negative: %w", ErrInvalidRecord)
	}
	if count == nil || *survived > *count {
		return fmt.Errorf("piglets survived exceeds piglet count: %w", ErrInvalidRecord)
	}
	return nil
}

func validateStock(s *models.FeedStock) error {
	if s.CurrentQty < 0 || s.MaxQty < 0 {
		return fmt.Errorf("feed stock quantities must not be negative: %w", ErrInvalidRecord)
	}
	return nil
}
