package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porkyfarm/porcpro/internal/domain/models"
)

var now = time.Date(2025, time.February, 1, 9, 0, 0, 0, time.UTC)

func docWith(animals ...models.Animal) *models.Database {
	db := models.NewDatabase("test")
	db.Animals = append(db.Animals, animals...)
	return db
}

func sow(status models.AnimalStatus) models.Animal {
	return models.Animal{ID: "a1", Name: "Rosie", Category: models.CategoryBreedingFemale, Status: status, HealthStatus: models.HealthGood}
}

func TestSevereCaseMakesAnimalSick(t *testing.T) {
	r := NewReducer(nil)

	for _, p := range []models.Priority{models.PriorityHigh, models.PriorityCritical} {
		db := docWith(sow(models.StatusActive))
		tr, ok := r.Apply(db, models.HealthCaseOpened{CaseID: "c1", AnimalID: "a1", Priority: p, Timestamp: now})
		require.True(t, ok)
		assert.Equal(t, models.StatusSick, db.Animals[0].Status, p)
		assert.Equal(t, models.StatusActive, tr.From)
		assert.Equal(t, now, db.Animals[0].UpdatedAt)
	}
}

func TestMildCaseLeavesStatus(t *testing.T) {
	r := NewReducer(nil)
	db := docWith(sow(models.StatusActive))

	tr, ok := r.Apply(db, models.HealthCaseOpened{CaseID: "c1", AnimalID: "a1", Priority: models.PriorityLow, Timestamp: now})
	require.True(t, ok)
	assert.False(t, tr.Changed())
	assert.Equal(t, models.StatusActive, db.Animals[0].Status)
}

func TestResolvingLastCaseRestoresActive(t *testing.T) {
	r := NewReducer(nil)
	a := sow(models.StatusSick)
	a.HealthStatus = models.HealthBad
	db := docWith(a)
	db.HealthCases = []models.HealthCase{
		{ID: "c1", AnimalID: "a1", Status: models.CaseResolved},
	}

	_, ok := r.Apply(db, models.HealthCaseResolved{CaseID: "c1", AnimalID: "a1", Timestamp: now})
	require.True(t, ok)
	assert.Equal(t, models.StatusActive, db.Animals[0].Status)
	assert.Equal(t, models.HealthGood, db.Animals[0].HealthStatus)
}

func TestOtherOpenCaseKeepsAnimalSick(t *testing.T) {
	r := NewReducer(nil)
	db := docWith(sow(models.StatusSick))
	db.HealthCases = []models.HealthCase{
		{ID: "c1", AnimalID: "a1", Status: models.CaseResolved},
		{ID: "c2", AnimalID: "a1", Status: models.CaseInProgress},
	}

	tr, _ := r.Apply(db, models.HealthCaseResolved{CaseID: "c1", AnimalID: "a1", Timestamp: now})
	assert.False(t, tr.Changed())
	assert.Equal(t, models.StatusSick, db.Animals[0].Status)
}

func TestResolutionDoesNotClobberPregnancy(t *testing.T) {
	r := NewReducer(nil)
	a := sow(models.StatusPregnant)
	a.HealthStatus = models.HealthMedium
	db := docWith(a)

	r.Apply(db, models.HealthCaseResolved{CaseID: "c1", AnimalID: "a1", Timestamp: now})
	assert.Equal(t, models.StatusPregnant, db.Animals[0].Status)
	assert.Equal(t, models.HealthGood, db.Animals[0].HealthStatus)
}

func TestGestationTransitions(t *testing.T) {
	r := NewReducer(nil)
	db := docWith(sow(models.StatusActive))

	r.Apply(db, models.GestationStarted{GestationID: "g1", SowID: "a1", Timestamp: now})
	assert.Equal(t, models.StatusPregnant, db.Animals[0].Status)

	r.Apply(db, models.GestationFarrowed{GestationID: "g1", SowID: "a1", Timestamp: now})
	assert.Equal(t, models.StatusNursing, db.Animals[0].Status)
}

func TestGestationCancelledReleasesPregnantSow(t *testing.T) {
	r := NewReducer(nil)

	db := docWith(sow(models.StatusPregnant))
	tr, ok := r.Apply(db, models.GestationCancelled{GestationID: "g1", SowID: "a1", Timestamp: now})
	require.True(t, ok)
	assert.True(t, tr.Changed())
	assert.Equal(t, models.StatusActive, db.Animals[0].Status)

	db = docWith(sow(models.StatusNursing))
	tr, _ = r.Apply(db, models.GestationCancelled{GestationID: "g1", SowID: "a1", Timestamp: now})
	assert.False(t, tr.Changed())
	assert.Equal(t, models.StatusNursing, db.Animals[0].Status)
}

func TestTerminalStatusesAreIrreversible(t *testing.T) {
	r := NewReducer(nil)

	events := []models.Event{
		models.HealthCaseOpened{AnimalID: "a1", Priority: models.PriorityCritical, Timestamp: now},
		models.HealthCaseResolved{AnimalID: "a1", Timestamp: now},
		models.GestationStarted{SowID: "a1", Timestamp: now},
		models.GestationFarrowed{SowID: "a1", Timestamp: now},
		models.GestationCancelled{SowID: "a1", Timestamp: now},
		models.AnimalSold{AnimalID: "a1", Timestamp: now},
		models.AnimalDied{AnimalID: "a1", Timestamp: now},
	}

	for _, terminal := range []models.AnimalStatus{models.StatusSold, models.StatusDeceased} {
		db := docWith(sow(terminal))
		for _, ev := range events {
			tr, ok := r.Apply(db, ev)
			require.True(t, ok)
			assert.False(t, tr.Changed(), "%s on %s", ev.EventType(), terminal)
			assert.Equal(t, terminal, db.Animals[0].Status)
		}
	}
}

func TestUnknownAnimalIsIgnored(t *testing.T) {
	r := NewReducer(nil)
	db := docWith(sow(models.StatusActive))

	_, ok := r.Apply(db, models.AnimalSold{AnimalID: "missing", Timestamp: now})
	assert.False(t, ok)
	assert.Equal(t, models.StatusActive, db.Animals[0].Status)
}
