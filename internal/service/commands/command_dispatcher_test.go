package commands

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/repository/memory"
	"github.com/porkyfarm/porcpro/internal/service/dashboard"
	"github.com/porkyfarm/porcpro/internal/service/reporting"
	"github.com/porkyfarm/porcpro/internal/store"
)

var now = time.Date(2025, time.April, 20, 9, 0, 0, 0, time.UTC)

func newDispatcher(t *testing.T) (*Service, *store.Manager) {
	t.Helper()
	manager := store.NewManager(memory.NewRepository(), nil,
		store.WithClock(func() time.Time { return now }),
		store.WithoutDemoSeed())
	dash := dashboard.NewService(nil, 0)
	return NewService(manager, dash, reporting.NewService(dash, nil), nil), manager
}

func TestHandleCommand(t *testing.T) {
	ctx := context.Background()
	svc, manager := newDispatcher(t)

	h, err := manager.Open(ctx, "alice")
	require.NoError(t, err)
	sow, _, err := store.Add(ctx, h, store.Animals, models.Animal{Name: "Rosa", Category: models.CategoryBreedingFemale})
	require.NoError(t, err)
	_, _, err = store.StartGestation(ctx, h, models.Gestation{SowID: sow.ID, BreedingDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	reply, err := svc.HandleCommand(ctx, models.ParseCommand("/stats"), "alice")
	require.NoError(t, err)
	assert.Contains(t, reply, "alice on 2025-04-20")
	assert.Contains(t, reply, "Animals: 1 (1 in active herd)")
	assert.Contains(t, reply, "Pregnant 1, nursing 0, sick 0")

	reply, err = svc.HandleCommand(ctx, models.ParseCommand("births"), "alice")
	require.NoError(t, err)
	assert.Equal(t, "Upcoming farrowings:\n- Rosa: due 2025-04-25, in 5 days", reply)

	reply, err = svc.HandleCommand(ctx, models.ParseCommand("ALERTS please"), "alice")
	require.NoError(t, err)
	assert.Contains(t, reply, "alice: 1 alerts today")

	reply, err = svc.HandleCommand(ctx, models.ParseCommand("how many pigs?"), "alice")
	require.NoError(t, err)
	assert.Equal(t, "Unknown command.\n"+HelpText, reply)
}

func TestBirthsText(t *testing.T) {
	assert.Equal(t, "No farrowing expected in the next 14 days.", BirthsText(nil))
	assert.Equal(t, "Upcoming farrowings:\n- Bella: due 2025-04-18, overdue by 2 days\n- Daisy: due today",
		BirthsText([]dashboard.Birth{
			{SowName: "Bella", DueDate: time.Date(2025, 4, 18, 0, 0, 0, 0, time.UTC), DaysUntilDue: -2, Overdue: true},
			{SowName: "Daisy", DueDate: time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC)},
		}))
}

func TestParseCommand(t *testing.T) {
	cases := map[string]models.CommandType{
		"/stats":    models.CommandStats,
		"  Herd ":   models.CommandStats,
		"due":       models.CommandBirths,
		"menu":      models.CommandHelp,
		"":          models.CommandUnknown,
		"/eggs 120": models.CommandUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, models.ParseCommand(in).Type, in)
	}
	assert.Equal(t, []string{"please"}, models.ParseCommand("alerts please").Args)
}
