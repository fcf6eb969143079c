package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/repository/memory"
	"github.com/porkyfarm/porcpro/internal/store"
)

type fakeSheets struct {
	ranges map[string][][]interface{}
	err    error
}

func (f *fakeSheets) ReplaceRange(_ context.Context, sheetRange string, rows [][]interface{}) error {
	if f.err != nil {
		return f.err
	}
	if f.ranges == nil {
		f.ranges = map[string][][]interface{}{}
	}
	f.ranges[sheetRange] = rows
	return nil
}


func openHandle(t *testing.T) *store.Handle {
	t.Helper()
	clock := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	m := store.NewManager(memory.NewRepository(), nil,
		store.WithClock(func() time.Time { return clock }),
		store.WithoutDemoSeed())
	h, err := m.Open(context.Background(), "farmer-1")
	require.NoError(t, err)
	return h
}

func TestExportFeedingWritesSortedLedger(t *testing.T) {
	ctx := context.Background()
	h := openHandle(t)
	for _, r := range []models.FeedingRecord{
		{Date: time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), FeedType: "Grower", QuantityKg: 40, Cost: 12000, AnimalGroup: "fattening"},
		{Date: time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC), FeedType: "Sow", QuantityKg: 18.5, Cost: 6000},
	} {
		_, _, err := store.Add(ctx, h, store.FeedingRecords, r)
		require.NoError(t, err)
	}

	sheets := &fakeSheets{}
	res, err := NewService(sheets, "Feeding!A:F", nil).ExportFeeding(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, Result{Range: "farmer-1_Feeding!A:F", Rows: 2}, res)

	rows := sheets.ranges["farmer-1_Feeding!A:F"]
	require.Len(t, rows, 3)
	assert.Equal(t, FeedingHeader, rows[0])
	assert.Equal(t, []interface{}{"2025-03-07", "Sow", 18.5, 6000.0, "", ""}, rows[1])
	assert.Equal(t, "2025-03-09", rows[2][0])
}

func TestExportFeedingDisabled(t *testing.T) {
	_, err := NewService(nil, "Feeding!A:F", nil).ExportFeeding(context.Background(), openHandle(t))
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestExportFeedingWrapsSheetErrors(t *testing.T) {
	boom := errors.New("quota exceeded")
	_, err := NewService(&fakeSheets{err: boom}, "Feeding", nil).ExportFeeding(context.Background(), openHandle(t))
	assert.ErrorIs(t, err, boom)
}

func TestRangeForSheetWithoutCells(t *testing.T) {
	s := NewService(&fakeSheets{}, "Feeding", nil)
	assert.Equal(t, "demo_Feeding", s.rangeFor("demo"))
}
