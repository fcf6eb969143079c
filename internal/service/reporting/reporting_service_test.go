package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/repository/memory"
	"github.com/porkyfarm/porcpro/internal/service/dashboard"
	"github.com/porkyfarm/porcpro/internal/store"
)

var now = time.Date(2025, time.March, 10, 8, 30, 0, 0, time.UTC)

func intp(n int) *int { return &n }

func seededHandle(t *testing.T) *store.Handle {
	t.Helper()
	ctx := context.Background()
	m := store.NewManager(memory.NewRepository(), nil,
		store.WithClock(func() time.Time { return now }),
		store.WithoutDemoSeed())
	h, err := m.Open(ctx, "farmer-1")
	require.NoError(t, err)

	sow, _, err := store.Add(ctx, h, store.Animals, models.Animal{Name: "Rosa", Category: models.CategoryBreedingFemale})
	require.NoError(t, err)
	g, _, err := store.StartGestation(ctx, h, models.Gestation{SowID: sow.ID, BreedingDate: time.Date(2024, 11, 16, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	_, _, err = store.CompleteGestation(ctx, h, g.ID, store.Farrowing{PigletCount: intp(12), PigletsSurvived: intp(11)})
	require.NoError(t, err)

	hog, _, err := store.Add(ctx, h, store.Animals, models.Animal{Name: "Porky", Category: models.CategoryFattening})
	require.NoError(t, err)
	_, _, err = store.SellAnimal(ctx, h, hog.ID)
	require.NoError(t, err)

	ti, _, err := store.Add(ctx, h, store.Animals, models.Animal{Name: "Ti", Category: models.CategoryPiglet})
	require.NoError(t, err)
	_, _, err = store.OpenHealthCase(ctx, h, models.HealthCase{AnimalID: ti.ID, Issue: "Cough", Priority: models.PriorityHigh})
	require.NoError(t, err)

	for _, r := range []models.FeedingRecord{
		{Date: time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC), FeedType: "Grower", QuantityKg: 40, Cost: 12000},
		{Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), FeedType: "Grower", QuantityKg: 99, Cost: 1},
	} {
		_, _, err = store.Add(ctx, h, store.FeedingRecords, r)
		require.NoError(t, err)
	}
	_, _, err = store.Add(ctx, h, store.FeedStocks, models.FeedStock{Name: "Starter", CurrentQty: 10, MaxQty: 100, Unit: "kg"})
	require.NoError(t, err)
	return h
}

func TestWeeklyFigures(t *testing.T) {
	svc := NewService(dashboard.NewService(nil, 0), nil)
	w := svc.WeeklyFigures(seededHandle(t), now)

	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, 1, w.Farrowings)
	assert.Equal(t, 12, w.PigletsBorn)
	assert.Equal(t, 11, w.PigletsSurvived)
	assert.Equal(t, 1, w.CasesOpened)
	assert.Equal(t, 1, w.Sold)
	assert.InDelta(t, 40.0, w.FeedKg, 1e-9)
	assert.Equal(t, []string{"Starter"}, w.LowStock)
	assert.Equal(t, 2, w.OpenAlerts)
	assert.Equal(t, 0, w.CriticalAlerts)
}

func TestGenerateWeeklyReport(t *testing.T) {
	svc := NewService(dashboard.NewService(nil, 0), nil)
	report := svc.GenerateWeeklyReport(seededHandle(t), now)

	for _, line := range []string{
		"Weekly report (2025-03-04-2025-03-10)",
		"Herd: 3 animals, 2 active (0 pregnant, 1 nursing, 1 sick).",
		"Farrowings: 1, 12 piglets born, 11 survived.",
		"Health: 1 cases opened, 0 resolved, 1 still open.",
		"Feed: 40.00 kg distributed for 12000, 0.00 kg produced. Feed per head 20.00 kg.",
		"Low stock: Starter.",
		"Exits: 1 sold, 0 deceased.",
		"Alerts: 2 open, 0 critical.",
	} {
		assert.Contains(t, report, line)
	}
}

func TestDigest(t *testing.T) {
	svc := NewService(dashboard.NewService(nil, 0), nil)
	lines := svc.Digest(seededHandle(t), now)

	require.Len(t, lines, 2)
	assert.Equal(t, DigestLine{Priority: "high", Title: "Ti: Cough", Detail: "Open since 2025-03-10"}, lines[0])
	assert.Equal(t, "Low stock: Starter", lines[1].Title)

	text := DigestText("Rosa farm", lines)
	assert.Contains(t, text, "Rosa farm: 2 alerts today\n[high] Ti: Cough - Open since 2025-03-10")
	assert.Equal(t, "Rosa farm: no alerts today.", DigestText("Rosa farm", nil))
}
