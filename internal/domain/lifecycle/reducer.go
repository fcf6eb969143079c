// Package lifecycle derives animal status changes from domain events emitted
// by health-case, gestation and sale mutations.
package lifecycle

import (
	"go.uber.org/zap"

	"github.com/porkyfarm/porcpro/internal/domain/models"
)

// Transition describes a status change applied to an animal.
type Transition struct {
	AnimalID   string
	From       models.AnimalStatus
	To         models.AnimalStatus
	HealthFrom models.HealthStatus
	HealthTo   models.HealthStatus
	Cause      string
}

// Changed reports whether the transition altered the animal.
func (t Transition) Changed() bool {
	return t.From != t.To || t.HealthFrom != t.HealthTo
}

// Reducer applies events to the animals of a document.
type Reducer struct {
	logger *zap.Logger
}

// NewReducer builds a reducer.
func NewReducer(logger *zap.Logger) *Reducer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reducer{logger: logger}
}

// Apply mutates the animal targeted by ev inside db. It returns the resulting
// transition and false when the event does not concern a known animal.
// Sold and deceased animals never leave their status.
func (r *Reducer) Apply(db *models.Database, ev models.Event) (Transition, bool) {
	idx := db.FindAnimal(ev.AggregateID())
	if idx < 0 {
		r.logger.Debug("event targets unknown animal", zap.String("event", ev.EventType()), zap.String("animal_id", ev.AggregateID()))
		return Transition{}, false
	}

	animal := db.Animals[idx]
	tr := Transition{
		AnimalID:   animal.ID,
		From:       animal.Status,
		To:         animal.Status,
		HealthFrom: animal.HealthStatus,
		HealthTo:   animal.HealthStatus,
		Cause:      ev.EventType(),
	}

	if animal.Status.Terminal() {
		return tr, true
	}

	switch e := ev.(type) {
	case models.HealthCaseOpened:
		if !e.Priority.Severe() {
			return tr, true
		}
		tr.To = models.StatusSick
		tr.HealthTo = models.HealthMedium
		if e.Priority == models.PriorityCritical {
			tr.HealthTo = models.HealthBad
		}
	case models.HealthCaseResolved:
		if hasOtherOpenCase(db, e.AnimalID, e.CaseID) {
			return tr, true
		}
		tr.HealthTo = models.HealthGood
		if animal.Status == models.StatusSick {
			tr.To = models.StatusActive
		}
	case models.GestationStarted:
		tr.To = models.StatusPregnant
	case models.GestationFarrowed:
		tr.To = models.StatusNursing
	case models.GestationCancelled:
		if animal.Status == models.StatusPregnant {
			tr.To = models.StatusActive
		}
	case models.AnimalSold:
		tr.To = models.StatusSold
	case models.AnimalDied:
		tr.To = models.StatusDeceased
	default:
		r.logger.Warn("unhandled event", zap.String("event", ev.EventType()))
		return tr, true
	}

	if tr.Changed() {
		animal.Status = tr.To
		animal.HealthStatus = tr.HealthTo
		animal.Touch(ev.OccurredAt())
		db.Animals[idx] = animal
		r.logger.Debug("animal status changed",
			zap.String("animal_id", animal.ID),
			zap.String("from", string(tr.From)),
			zap.String("to", string(tr.To)),
			zap.String("cause", tr.Cause))
	}

	return tr, true
}

func hasOtherOpenCase(db *models.Database, animalID, caseID string) bool {
	for _, hc := range db.HealthCases {
		if hc.AnimalID == animalID && hc.ID != caseID && hc.Status != models.CaseResolved {
			return true
		}
	}
	return false
}
