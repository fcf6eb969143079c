package livestock

import (
	"time"

	"github.com/porkyfarm/porcpro/internal/domain/models"
)

// AnimalView is an animal with its display-only fields.
type AnimalView struct {
	models.Animal
	AgeLabel    string `json:"age_label"`
	HealthScore int    `json:"health_score"`
	StatusColor string `json:"status_color"`
}

// GestationView is a gestation with its read-time progress.
type GestationView struct {
	models.Gestation
	Progress     Progress `json:"progress"`
	DaysUntilDue int      `json:"days_until_due"`
	Overdue      bool     `json:"overdue"`
}

// VaccinationView is a vaccination with its derived display status.
type VaccinationView struct {
	models.Vaccination
	DisplayStatus VaccinationState `json:"display_status"`
}

func NewAnimalView(a models.Animal, today time.Time) AnimalView {
	return AnimalView{
		Animal:      a,
		AgeLabel:    AgeLabel(a.BirthDate, today),
		HealthScore: HealthScore(a.HealthStatus),
		StatusColor: StatusColor(a.Status),
	}
}

func NewGestationView(g models.Gestation, today time.Time) GestationView {
	until := DaysBetween(today, g.ExpectedDueDate)
	return GestationView{
		Gestation:    g,
		Progress:     GestationProgress(g.BreedingDate, today),
		DaysUntilDue: until,
		Overdue:      g.Status == models.GestationActive && until < 0,
	}
}

func NewVaccinationView(v models.Vaccination, today time.Time) VaccinationView {
	return VaccinationView{Vaccination: v, DisplayStatus: VaccinationDisplayStatus(v, today)}
}

// AnimalViews maps a slice of animals to views.
func AnimalViews(animals []models.Animal, today time.Time) []AnimalView {
	out := make([]AnimalView, 0, len(animals))
	for _, a := range animals {
		out = append(out, NewAnimalView(a, today))
	}
	return out
}

// GestationViews maps a slice of gestations to views.
func GestationViews(gestations []models.Gestation, today time.Time) []GestationView {
	out := make([]GestationView, 0, len(gestations))
	for _, g := range gestations {
		out = append(out, NewGestationView(g, today))
	}
	return out
}

// VaccinationViews maps a slice of vaccinations to views.
func VaccinationViews(vaccinations []models.Vaccination, today time.Time) []VaccinationView {
	out := make([]VaccinationView, 0, len(vaccinations))
	for _, v := range vaccinations {
		out = append(out, NewVaccinationView(v, today))
	}
	return out
}
