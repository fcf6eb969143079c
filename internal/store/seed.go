package store

import (
	"time"

	"github.com/porkyfarm/porcpro/internal/domain/livestock"
	"github.com/porkyfarm/porcpro/internal/domain/models"
)

// seedDemo fills a fresh demo document with a small consistent herd.
// Dates are relative to now so the dashboard always has something to show.
func seedDemo(db *models.Database, now time.Time, newID func() string) {
	today := livestock.Day(now)
	ago := func(days int) time.Time { return today.AddDate(0, 0, -days) }
	agoPtr := func(days int) *time.Time { t := ago(days); return &t }

	animal := func(name string, cat models.AnimalCategory, breed string, ageDays int, weight float64, status models.AnimalStatus, health models.HealthStatus) models.Animal {
		a := models.Animal{
			Name:         name,
			Category:     cat,
			Breed:        breed,
			BirthDate:    agoPtr(ageDays),
			Weight:       weight,
			Status:       status,
			HealthStatus: health,
		}
		a.Identify(newID(), now)
		return a
	}

	rosa := animal("Rosa", models.CategoryBreedingFemale, "Large White", 900, 210, models.StatusPregnant, models.HealthGood)
	bella := animal("Bella", models.CategoryBreedingFemale, "Landrace", 700, 195, models.StatusNursing, models.HealthGood)
	hercule := animal("Hercule", models.CategoryBreedingMale, "Duroc", 1100, 260, models.StatusActive, models.HealthGood)
	ti := animal("Ti-Noir", models.CategoryFattening, "Large White x Duroc", 150, 78, models.StatusSick, models.HealthMedium)
	piglet := animal("P-014", models.CategoryPiglet, "Landrace", 20, 6.5, models.StatusActive, models.HealthGood)
	piglet.MotherID = bella.ID
	piglet.FatherID = hercule.ID
	db.Animals = append(db.Animals, rosa, bella, hercule, ti, piglet)

	hc := models.HealthCase{
		AnimalID:   ti.ID,
		AnimalName: ti.Name,
		Issue:      "Persistent cough",
		Priority:   models.PriorityHigh,
		Status:     models.CaseInProgress,
		Treatment:  "Oxytetracycline 5 days",
		StartDate:  ago(2),
	}
	hc.Identify(newID(), now)
	db.HealthCases = append(db.HealthCases, hc)

	// rosa is a few days from farrowing
	g := models.Gestation{
		SowID:        rosa.ID,
		SowName:      rosa.Name,
		BoarID:       hercule.ID,
		BoarName:     hercule.Name,
		BreedingDate: ago(livestock.GestationDays - 5),
	}
	g.ExpectedDueDate = livestock.DueDate(g.BreedingDate)
	g.Identify(newID(), now)

	count, survived := 11, 10
	done := models.Gestation{
		SowID:           bella.ID,
		SowName:         bella.Name,
		BoarID:          hercule.ID,
		BoarName:        hercule.Name,
		BreedingDate:    ago(livestock.GestationDays + 20),
		ActualDate:      agoPtr(20),
		Status:          models.GestationCompleted,
		PigletCount:     &count,
		PigletsSurvived: &survived,
	}
	done.ExpectedDueDate = livestock.DueDate(done.BreedingDate)
	done.Identify(newID(), now)
	db.Gestations = append(db.Gestations, g, done)

	vaccine := func(name, target string, scheduled time.Time) models.Vaccination {
		v := models.Vaccination{VaccineName: name, Target: target, ScheduledDate: scheduled}
		v.Identify(newID(), now)
		return v
	}
	db.Vaccinations = append(db.Vaccinations,
		vaccine("Iron dextran", "Bella litter", today.AddDate(0, 0, 1)),
		vaccine("Mycoplasma", "Fattening pen", today.AddDate(0, 0, 10)),
		vaccine("Parvovirus", rosa.Name, ago(3)),
	)

	stock := func(name string, current, capacity, cost float64) models.FeedStock {
		s := models.FeedStock{Name: name, CurrentQty: current, MaxQty: capacity, Unit: "kg", CostPerUnit: cost}
		s.Identify(newID(), now)
		return s
	}
	db.FeedStocks = append(db.FeedStocks,
		stock("Sow ration", 420, 1000, 0.45),
		stock("Grower feed", 90, 1000, 0.38),
		stock("Piglet starter", 15, 200, 0.90),
	)

	for i := 0; i < 3; i++ {
		r := models.FeedingRecord{
			Date:        ago(i),
			FeedType:    "Grower feed",
			QuantityKg:  35,
			Cost:        13.3,
			AnimalGroup: "Fattening pen",
		}
		r.Identify(newID(), now)
		c := models.DailyConsumption{Date: ago(i), FeedType: "Grower feed", QuantityKg: 35, AnimalCount: 12}
		c.Identify(newID(), now)
		db.FeedingRecords = append(db.FeedingRecords, r)
		db.DailyConsumptions = append(db.DailyConsumptions, c)
	}

	p := models.FeedProduction{
		Date:        ago(7),
		FeedType:    "Sow ration",
		QuantityKg:  500,
		Ingredients: []string{"maize", "soybean meal", "wheat bran", "premix"},
		Cost:        210,
	}
	p.Identify(newID(), now)
	db.FeedProductions = append(db.FeedProductions, p)

	db.Activities = append(db.Activities, models.Activity{
		ID:          newID(),
		Type:        models.ActivityHealthCase,
		Title:       "Health case opened",
		Description: ti.Name + ": " + hc.Issue,
		EntityID:    hc.ID,
		Timestamp:   now,
	})
}
