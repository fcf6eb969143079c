package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/repository/memory"
	"github.com/porkyfarm/porcpro/internal/store"
)

var today = time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

func days(n int) time.Time { return today.AddDate(0, 0, n) }

func fixture() *models.Database {
	db := models.NewDatabase("u1")
	db.Revision = 7
	db.Animals = []models.Animal{
		{ID: "a1", Category: models.CategoryBreedingFemale, Status: models.StatusActive},
		{ID: "a2", Category: models.CategoryFattening, Status: models.StatusSold},
		{ID: "a3", Category: models.CategoryPiglet, Status: models.StatusSick},
	}
	db.Gestations = []models.Gestation{
		{ID: "g1", SowName: "Rosie", Status: models.GestationActive, ExpectedDueDate: days(-2)},
		{ID: "g2", SowName: "Bella", Status: models.GestationActive, ExpectedDueDate: days(5)},
		{ID: "g3", SowName: "Daisy", Status: models.GestationActive, ExpectedDueDate: days(12)},
		{ID: "g4", SowName: "Maud", Status: models.GestationActive, ExpectedDueDate: days(30)},
		{ID: "g5", SowName: "Old", Status: models.GestationCompleted, ExpectedDueDate: days(1)},
	}
	db.HealthCases = []models.HealthCase{
		{ID: "hc1", AnimalName: "P-1", Issue: "Fever", Priority: models.PriorityCritical, Status: models.CaseOpen, StartDate: days(-1)},
		{ID: "hc2", Priority: models.PriorityHigh, Status: models.CaseResolved, StartDate: days(-9)},
		{ID: "hc3", Priority: models.PriorityLow, Status: models.CaseInProgress, StartDate: days(-3)},
	}
	db.FeedStocks = []models.FeedStock{
		{ID: "s1", Name: "Starter", CurrentQty: 5, MaxQty: 100, CostPerUnit: 2},
		{ID: "s2", Name: "Grower", CurrentQty: 15, MaxQty: 100},
		{ID: "s3", Name: "Sow", CurrentQty: 50, MaxQty: 100},
		{ID: "s4", Name: "Unsized", CurrentQty: 0, MaxQty: 0},
	}
	db.Vaccinations = []models.Vaccination{
		{ID: "v1", VaccineName: "Parvo", Status: models.VaccinationPending, ScheduledDate: days(-1)},
		{ID: "v2", VaccineName: "Iron", Status: models.VaccinationPending, ScheduledDate: days(2)},
		{ID: "v3", VaccineName: "Myco", Status: models.VaccinationCompleted, ScheduledDate: days(-20)},
	}
	db.FeedingRecords = []models.FeedingRecord{
		{ID: "r1", Date: today, QuantityKg: 10, Cost: 5},
		{ID: "r2", Date: days(-6), QuantityKg: 20, Cost: 8},
		{ID: "r3", Date: days(-7), QuantityKg: 100, Cost: 40},
	}
	db.FeedProductions = []models.FeedProduction{
		{ID: "p1", Date: days(-2), QuantityKg: 300},
	}
	db.DailyConsumptions = []models.DailyConsumption{
		{ID: "c1", Date: today.Add(9 * time.Hour), QuantityKg: 12},
		{ID: "c2", Date: days(-1), QuantityKg: 99},
	}
	return db
}

func alertIDs(alerts []Alert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.EntityID)
	}
	return out
}

func TestAlertsArePrioritisedThenDated(t *testing.T) {
	sum := Compute(fixture(), today.Add(14*time.Hour), 0)

	assert.Equal(t, []string{"g1", "hc1", "g2", "s1", "v1", "g3", "s2", "v2"}, alertIDs(sum.Alerts))

	first := sum.Alerts[0]
	assert.Equal(t, models.PriorityCritical, first.Priority)
	assert.Equal(t, AlertGestation, first.Kind)
	assert.Equal(t, "Farrowing overdue by 2 days", first.Title)

	assert.Equal(t, models.PriorityHigh, sum.Alerts[3].Priority)
	assert.Nil(t, sum.Alerts[3].Date)
	assert.Equal(t, models.PriorityLow, sum.Alerts[7].Priority)
}

func TestAlertsAreTruncated(t *testing.T) {
	sum := Compute(fixture(), today, 3)
	assert.Equal(t, []string{"g1", "hc1", "g2"}, alertIDs(sum.Alerts))
}

func TestGestationAlertTiers(t *testing.T) {
	cases := []struct {
		in   int
		want models.Priority
	}{
		{-5, models.PriorityCritical},
		{0, models.PriorityCritical},
		{3, models.PriorityCritical},
		{4, models.PriorityHigh},
		{7, models.PriorityHigh},
		{8, models.PriorityMedium},
		{14, models.PriorityMedium},
	}
	for _, tc := range cases {
		got := gestationAlerts([]models.Gestation{{ID: "g", Status: models.GestationActive, ExpectedDueDate: days(tc.in)}}, today)
		require.Len(t, got, 1, tc.in)
		assert.Equal(t, tc.want, got[0].Priority, tc.in)
	}
	assert.Empty(t, gestationAlerts([]models.Gestation{{Status: models.GestationActive, ExpectedDueDate: days(15)}}, today))
}

func TestStockAlertThresholds(t *testing.T) {
	got := stockAlerts([]models.FeedStock{
		{ID: "ten", CurrentQty: 10, MaxQty: 100},
		{ID: "twenty", CurrentQty: 20, MaxQty: 100},
		{ID: "over", CurrentQty: 21, MaxQty: 100},
	})
	require.Len(t, got, 2)
	assert.Equal(t, models.PriorityHigh, got[0].Priority)
	assert.Equal(t, models.PriorityMedium, got[1].Priority)
}

func TestUpcomingBirths(t *testing.T) {
	sum := Compute(fixture(), today, 0)

	require.Len(t, sum.UpcomingBirths, 3)
	assert.Equal(t, "g1", sum.UpcomingBirths[0].GestationID)
	assert.True(t, sum.UpcomingBirths[0].Overdue)
	assert.Equal(t, -2, sum.UpcomingBirths[0].DaysUntilDue)
	assert.Equal(t, "g3", sum.UpcomingBirths[2].GestationID)
}

func TestStatsAndFeedTotals(t *testing.T) {
	sum := Compute(fixture(), today, 0)

	assert.Equal(t, int64(7), sum.Revision)
	assert.Equal(t, 3, sum.Stats.TotalAnimals)
	assert.Equal(t, 2, sum.Stats.ActiveHerd)
	assert.Equal(t, 1, sum.Stats.ByStatus[models.StatusSold])
	assert.Equal(t, 1, sum.Stats.ByCategory[models.CategoryPiglet])
	assert.Equal(t, 2, sum.Stats.OpenHealthCases)
	assert.Equal(t, 4, sum.Stats.ActiveGestations)
	assert.Equal(t, 2, sum.Stats.PendingVaccinations)

	assert.InDelta(t, 70, sum.Feed.StockQuantity, 0.001)
	assert.InDelta(t, 10, sum.Feed.StockValue, 0.001)
	assert.InDelta(t, 30, sum.Feed.WeekFeedingQuantity, 0.001)
	assert.InDelta(t, 13, sum.Feed.WeekFeedingCost, 0.001)
	assert.InDelta(t, 300, sum.Feed.WeekProduced, 0.001)
	assert.InDelta(t, 12, sum.Feed.TodayConsumption, 0.001)
	assert.Equal(t, 2, sum.Feed.LowStockCount)
}

func TestServiceRecomputesOnNewRevision(t *testing.T) {
	m := store.NewManager(memory.NewRepository(), nil,
		store.WithClock(func() time.Time { return today }),
		store.WithoutDemoSeed())
	ctx := context.Background()
	h, err := m.Open(ctx, "u1")
	require.NoError(t, err)

	svc := NewService(nil, 0)
	first := svc.Summary(h, today)
	assert.Equal(t, 0, first.Stats.TotalAnimals)
	assert.Equal(t, first, svc.Summary(h, today))

	_, _, err = store.Add(ctx, h, store.Animals, models.Animal{Name: "Rosie", Category: models.CategoryBreedingFemale})
	require.NoError(t, err)

	second := svc.Summary(h, today)
	assert.Equal(t, 1, second.Stats.TotalAnimals)
	assert.Equal(t, h.Revision(), second.Revision)
}

func TestForgetDropsMemo(t *testing.T) {
	m := store.NewManager(memory.NewRepository(), nil,
		store.WithClock(func() time.Time { return today }),
		store.WithoutDemoSeed())
	ctx := context.Background()
	svc := NewService(nil, 0)
	m.OnEvict(svc.Forget)

	h, err := m.Open(ctx, "u1")
	require.NoError(t, err)
	svc.Summary(h, today)
	require.Contains(t, svc.cache, h.Key())

	m.Close(ctx, "u1")
	assert.NotContains(t, svc.cache, h.Key())
}
