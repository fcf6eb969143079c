// Package export mirrors the feed ledgers of a farm document into a spreadsheet.
package export

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/porkyfarm/porcpro/internal/domain/models"
	repo "github.com/porkyfarm/porcpro/internal/repository/sheets"
	"github.com/porkyfarm/porcpro/internal/store"
)

const dateLayout = "2006-01-02"

// ErrDisabled is returned when no spreadsheet is configured.
var ErrDisabled = errors.New("sheets export is not configured")

// FeedingHeader is the first row written to the feeding range.
var FeedingHeader = []interface{}{"Date", "Feed type", "Quantity (kg)", "Cost", "Group", "Notes"}

// Result describes one export run.
type Result struct {
	Range string `json:"range"`
	Rows  int    `json:"rows"`
}

// Service writes the feeding ledger of a farm to a sheet range.
type Service struct {
	writer       repo.Writer
	feedingRange string
	logger       *zap.Logger
}

// NewService wires the exporter. A nil writer yields a disabled exporter.
func NewService(writer repo.Writer, feedingRange string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{writer: writer, feedingRange: feedingRange, logger: logger}
}

// Enabled reports whether exports can run.
func (s *Service) Enabled() bool { return s != nil && s.writer != nil }

// ExportFeeding replaces the feeding range with the ledger of the handle, oldest first.
func (s *Service) ExportFeeding(ctx context.Context, h *store.Handle) (Result, error) {
	if !s.Enabled() {
		return Result{}, ErrDisabled
	}

	sheetRange := s.rangeFor(h.Owner())
	rows := FeedingRows(store.List(h, store.FeedingRecords))
	if err := s.writer.ReplaceRange(ctx, sheetRange, rows); err != nil {
		return Result{}, fmt.Errorf("export feeding ledger of %s: %w", h.Owner(), err)
	}

	s.logger.Info("feeding ledger exported",
		zap.String("owner", h.Owner()),
		zap.String("range", sheetRange),
		zap.Int("rows", len(rows)-1))
	return Result{Range: sheetRange, Rows: len(rows) - 1}, nil
}

// rangeFor prefixes the sheet name with the owner so farms sharing a
// spreadsheet keep separate tabs.
func (s *Service) rangeFor(owner string) string {
	sheet, cells, ok := strings.Cut(s.feedingRange, "!")
	if !ok {
		return owner + "_" + s.feedingRange
	}
	return fmt.Sprintf("%s_%s!%s", owner, sheet, cells)
}

// FeedingRows renders the header followed by one row per record, sorted by date.
func FeedingRows(records []models.FeedingRecord) [][]interface{} {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b models.FeedingRecord) int {
		return cmp.Compare(a.Date.Unix(), b.Date.Unix())
	})

	rows := make([][]interface{}, 0, len(sorted)+1)
	rows = append(rows, FeedingHeader)
	for _, r := range sorted {
		rows = append(rows, []interface{}{
			r.Date.Format(dateLayout),
			r.FeedType,
			r.QuantityKg,
			r.Cost,
			r.AnimalGroup,
			r.Notes,
		})
	}
	return rows
}
